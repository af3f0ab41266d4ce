package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ProtocolKey is the gin context key handlers set to the protocol a request
// addressed, so access logs and metrics can carry it.
const ProtocolKey = "rfctl.protocol"

func routeOf(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return "unmatched"
}

func protocolOf(c *gin.Context) string {
	if v, ok := c.Get(ProtocolKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RequestLogger logs one line per request, tagged with the transport the
// API drives and the protocol a command request named.
func RequestLogger(logger zerolog.Logger, transport string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Debug()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case c.Request.Method == "POST":
			event = logger.Info()
		}
		if proto := protocolOf(c); proto != "" {
			event = event.Str("protocol", proto)
		}
		event.
			Str("transport", transport).
			Str("method", c.Request.Method).
			Str("route", routeOf(c)).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http_request")
	}
}

// RequestMetrics records request counts and latency per route and transport.
// Unmatched paths share one label so scanners cannot grow the series set.
func RequestMetrics(transport string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordHTTPRequest(c.Request.Method, routeOf(c), transport, c.Writer.Status(), time.Since(start))
	}
}
