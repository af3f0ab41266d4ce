package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danmuck/rfctl/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
)

func TestRequestMetricsLabelsRouteAndTransport(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestLogger(testlog.Logger(t), "wav"))
	r.Use(RequestMetrics("wav"))
	r.POST("/send", func(c *gin.Context) {
		c.Set(ProtocolKey, "blyss")
		if got := protocolOf(c); got != "blyss" {
			t.Errorf("protocol key %q", got)
		}
		c.Status(http.StatusOK)
	})

	sent := map[string]string{"method": "POST", "route": "/send", "transport": "wav", "status": "200"}
	unmatched := map[string]string{"method": "GET", "route": "unmatched", "transport": "wav", "status": "404"}
	beforeSent := counterValue(t, "rfctl_http_requests_total", sent)
	beforeUnmatched := counterValue(t, "rfctl_http_requests_total", unmatched)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/send", nil),
		httptest.NewRequest(http.MethodGet, "/wp-login.php", nil),
		httptest.NewRequest(http.MethodGet, "/admin", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := counterValue(t, "rfctl_http_requests_total", sent); got != beforeSent+1 {
		t.Fatalf("send counter %v want %v", got, beforeSent+1)
	}
	if got := counterValue(t, "rfctl_http_requests_total", unmatched); got != beforeUnmatched+2 {
		t.Fatalf("unmatched counter %v want %v", got, beforeUnmatched+2)
	}
}
