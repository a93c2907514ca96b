package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithGinContextTagsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := gin.New()
	r.GET("/monitoring/status", func(c *gin.Context) {
		c.Set(RequestIDKey, "req-1")
		c.Set(StartTimeKey, time.Now().Add(-time.Second))
		withGinContext(c, logger.Info()).Msg("handled")
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/monitoring/status", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "/monitoring/status", line["route"])
	assert.GreaterOrEqual(t, line["duration"], float64(1000))
	assert.Equal(t, "handled", line["message"])
}

func TestWithGinContextNil(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	withGinContext(nil, logger.Warn()).Msg("no request")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.NotContains(t, line, "request_id")
	assert.NotContains(t, line, "route")
}
