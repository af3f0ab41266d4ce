package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/rfctl/internal/auth"
	"github.com/danmuck/rfctl/internal/controller"
	"github.com/danmuck/rfctl/internal/observability"
	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/protocol/codec"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CommandRequest is the body of POST /format and POST /send.
type CommandRequest struct {
	Protocol string  `json:"protocol" binding:"required"`
	Remote   *uint32 `json:"remote"`
	Device   *uint32 `json:"device"`
	Command  string  `json:"command" binding:"required"`
	Raw      bool    `json:"raw"`
}

type ProtocolInfo struct {
	Index     int                   `json:"index"`
	Name      string                `json:"name"`
	CmdName   string                `json:"cmd_name"`
	Timings   protocol.TimingConfig `json:"timings"`
	RemoteMax uint32                `json:"remote_max"`
	DeviceMax uint32                `json:"device_max"`
	Needs     []string              `json:"needs"`
	Commands  []string              `json:"commands"`
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(s.Appeared).String(),
			"service":   "rfctl",
			"version":   Version,
			"transport": s.ctrl.Transport().Name(),
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/protocols", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"protocols": ListProtocols(s.ctrl.Codecs())})
	})

	s.router.GET("/transport", func(c *gin.Context) {
		tr := s.ctrl.Transport()
		c.JSON(http.StatusOK, gin.H{
			"name":         tr.Name(),
			"capabilities": tr.Capabilities().String(),
		})
	})

	s.router.POST("/format", func(c *gin.Context) {
		req, ok := s.bindCommand(c)
		if !ok {
			return
		}
		res, err := s.ctrl.Format(req)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, res)
	})

	s.router.POST("/send", auth.Require(s.auth), func(c *gin.Context) {
		req, ok := s.bindCommand(c)
		if !ok {
			return
		}
		res, err := s.ctrl.Send(c.Request.Context(), req)
		if err != nil {
			s.log.Error().Err(err).Str("protocol", req.Protocol).Msg("send failed")
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "sent", "result": res})
	})
}

// bindCommand decodes the body and checks the parameters the protocol
// needs. It writes the error response itself.
func (s *Server) bindCommand(c *gin.Context) (controller.Request, bool) {
	var body CommandRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return controller.Request{}, false
	}
	cd, err := s.ctrl.Codecs().Lookup(body.Protocol)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return controller.Request{}, false
	}
	c.Set(observability.ProtocolKey, cd.Descriptor().CmdName)
	cmd, err := protocol.ParseCommand(body.Command)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return controller.Request{}, false
	}

	provided := codec.NeedCommand
	req := controller.Request{Protocol: cd.Descriptor().CmdName, Command: cmd, ForceRaw: body.Raw}
	if body.Remote != nil {
		provided |= codec.NeedRemote
		req.Remote = *body.Remote
	}
	if body.Device != nil {
		provided |= codec.NeedDevice
		req.Device = *body.Device
	}
	if missing := cd.Descriptor().Missing(provided); missing != 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing parameters",
			"missing": missing.Names(),
		})
		return controller.Request{}, false
	}
	return req, true
}

// ListProtocols describes every registered codec in registration order.
func ListProtocols(r *codec.Registry) []ProtocolInfo {
	list := make([]ProtocolInfo, 0, r.Len())
	for i, cd := range r.List() {
		d := cd.Descriptor()
		cmds := make([]string, 0, len(d.Commands))
		for _, cmd := range d.Commands {
			cmds = append(cmds, cmd.Name())
		}
		list = append(list, ProtocolInfo{
			Index:     i,
			Name:      d.Name,
			CmdName:   d.CmdName,
			Timings:   d.Timings,
			RemoteMax: d.RemoteMax,
			DeviceMax: d.DeviceMax,
			Needs:     d.Needs.Names(),
			Commands:  cmds,
		})
	}
	return list
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, protocol.ErrUnknownProtocol):
		return http.StatusNotFound
	case errors.Is(err, protocol.ErrUnknownCommand),
		errors.Is(err, protocol.ErrUnsupportedCommand):
		return http.StatusBadRequest
	case errors.Is(err, protocol.ErrFormatUnsupported),
		errors.Is(err, protocol.ErrTimingUnsupported),
		errors.Is(err, protocol.ErrBufferTooSmall):
		return http.StatusUnprocessableEntity
	case errors.Is(err, protocol.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
