package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/rfctl/internal/auth"
	"github.com/danmuck/rfctl/internal/controller"
	"github.com/danmuck/rfctl/internal/counter"
	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/protocol/codec"
	"github.com/danmuck/rfctl/internal/testutil/testlog"
	"github.com/danmuck/rfctl/internal/transport"
	"github.com/gin-gonic/gin"
)

func newTestServer(t *testing.T, formats protocol.FormatMask) (*Server, *transport.Dummy) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := testlog.Logger(t)
	tr, _ := transport.NewDummy(transport.Options{Formats: formats}, logger)
	ctrl, err := controller.New(codec.Builtin(counter.NewMemStore(), logger), tr,
		controller.Options{}, logger)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	s := New(ctrl, ":0", nil, logger)
	s.RegisterRoutes()
	return s, tr.(*transport.Dummy)
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)

	var out map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode body: %v (%s)", err, rr.Body.String())
		}
	}
	return rr, out
}

func TestHealthAndMetrics(t *testing.T) {
	testlog.Start(t)
	s, _ := newTestServer(t, protocol.MaskAll)
	rr, body := do(t, s, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK || body["status"] != "ok" || body["transport"] != "dummy" {
		t.Fatalf("health: %d %v", rr.Code, body)
	}
	rr, _ = do(t, s, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "rfctl_http_requests_total") {
		t.Fatalf("metrics: %d", rr.Code)
	}
	testlog.Logf("server/http: GET /health and /metrics ok")
}

func TestListProtocols(t *testing.T) {
	testlog.Start(t)
	s, _ := newTestServer(t, protocol.MaskAll)
	rr, body := do(t, s, http.MethodGet, "/protocols", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	list, ok := body["protocols"].([]any)
	if !ok || len(list) != 9 {
		t.Fatalf("protocols %v", body["protocols"])
	}
	somfy := list[7].(map[string]any)
	if somfy["cmd_name"] != "somfy" || somfy["index"].(float64) != 7 {
		t.Fatalf("unexpected entry %v", somfy)
	}
	timings := somfy["timings"].(map[string]any)
	if timings["format"] != "Raw" || timings["base_time_us"].(float64) != 625 {
		t.Fatalf("unexpected timings %v", timings)
	}
}

func TestFormatEndpoint(t *testing.T) {
	testlog.Start(t)
	s, d := newTestServer(t, protocol.MaskAll)
	rr, body := do(t, s, http.MethodPost, "/format", `{"protocol":"otax","remote":0,"device":0,"command":"on"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d %v", rr.Code, body)
	}
	native := body["native"].(map[string]any)
	if native["data"] != "55555400" || native["bit_count"].(float64) != 25 {
		t.Fatalf("unexpected native frame %v", native)
	}
	if _, ok := body["raw"]; ok {
		t.Fatalf("raw frame not requested")
	}
	if len(d.Sent()) != 0 {
		t.Fatalf("format must not transmit")
	}

	rr, body = do(t, s, http.MethodPost, "/format", `{"protocol":"1","remote":1,"device":2,"command":"off","raw":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d %v", rr.Code, body)
	}
	rawFrame := body["raw"].(map[string]any)
	if rawFrame["bit_count"].(float64) != 2034 {
		t.Fatalf("unexpected raw frame %v", rawFrame)
	}
}

func TestCommandValidation(t *testing.T) {
	testlog.Start(t)
	s, _ := newTestServer(t, protocol.MaskAll)
	cases := []struct {
		body   string
		status int
	}{
		{`{"protocol":"dio","device":1,"command":"on"}`, http.StatusBadRequest},
		{`{"protocol":"x10","remote":1,"device":1,"command":"on"}`, http.StatusNotFound},
		{`{"protocol":"dio","remote":1,"device":1,"command":"dim"}`, http.StatusBadRequest},
		{`{"protocol":"idk","device":1,"command":"off"}`, http.StatusBadRequest},
		{`{"remote":1}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rr, body := do(t, s, http.MethodPost, "/format", tc.body)
		if rr.Code != tc.status {
			t.Fatalf("%s: status %d want %d (%v)", tc.body, rr.Code, tc.status, body)
		}
	}
	_, body := do(t, s, http.MethodPost, "/format", `{"protocol":"dio","device":1,"command":"on"}`)
	missing, _ := body["missing"].([]any)
	if len(missing) != 1 || missing[0] != "remote" {
		t.Fatalf("missing %v", body["missing"])
	}
	// idk has no remote id
	rr, _ := do(t, s, http.MethodPost, "/format", `{"protocol":"idk","device":3,"command":"on"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("idk without remote: %d", rr.Code)
	}
}

func TestSendEndpoint(t *testing.T) {
	testlog.Start(t)
	s, d := newTestServer(t, protocol.MaskRaw)
	rr, body := do(t, s, http.MethodPost, "/send", `{"protocol":"blyss","remote":196608,"device":5,"command":"gon"}`)
	if rr.Code != http.StatusOK || body["status"] != "sent" {
		t.Fatalf("send: %d %v", rr.Code, body)
	}
	sent := d.Sent()
	if len(sent) != 1 || sent[0].Timing.Format != protocol.FormatRaw {
		t.Fatalf("transport should receive a raw frame: %+v", sent)
	}

	hl, _ := newTestServer(t, protocol.MaskHighLow)
	rr, _ = do(t, hl, http.MethodPost, "/send", `{"protocol":"somfy","remote":1,"device":1025,"command":"prog"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}

func TestSendRequiresToken(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	logger := testlog.Logger(t)
	tr, _ := transport.NewDummy(transport.Options{}, logger)
	ctrl, err := controller.New(codec.Builtin(counter.NewMemStore(), logger), tr, controller.Options{}, logger)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	s := New(ctrl, ":0", nil, logger)
	s.RequireToken(auth.StaticToken{Token: "secret"})
	s.RegisterRoutes()

	body := `{"protocol":"otax","remote":1,"device":2,"command":"on"}`
	rr, _ := do(t, s, http.MethodPost, "/send", body)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
	if n := len(tr.(*transport.Dummy).Sent()); n != 0 {
		t.Fatalf("unauthorized request reached the transport: %d frames", n)
	}

	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}

	rr, _ = do(t, s, http.MethodPost, "/format", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("format stays open, got %d", rr.Code)
	}
}
