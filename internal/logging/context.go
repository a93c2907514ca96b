package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Keys set on the gin context by the request middleware
const (
	RequestIDKey = "request_id"
	StartTimeKey = "start_time"
)

// withGinContext tags e with the request id, matched route and elapsed time
func withGinContext(c *gin.Context, e *zerolog.Event) *zerolog.Event {
	if c == nil {
		return e
	}
	if id := c.GetString(RequestIDKey); id != "" {
		e.Str("request_id", id)
	}
	if route := c.FullPath(); route != "" {
		e.Str("route", route)
	}
	if started := c.GetTime(StartTimeKey); !started.IsZero() {
		e.Dur("duration", time.Since(started))
	}
	return e
}

func Info(c *gin.Context) *zerolog.Event  { return withGinContext(c, log.Info()) }
func Debug(c *gin.Context) *zerolog.Event { return withGinContext(c, log.Debug()) }
func Warn(c *gin.Context) *zerolog.Event  { return withGinContext(c, log.Warn()) }
func Error(c *gin.Context) *zerolog.Event { return withGinContext(c, log.Error()) }
