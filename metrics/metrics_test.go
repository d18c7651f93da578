package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestPrometheusMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(PrometheusMiddleware())
	r.GET("/api/events/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	before := counterValue(t, RequestsTotal.WithLabelValues(http.MethodGet, "/api/events/:id", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events/abc", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	after := counterValue(t, RequestsTotal.WithLabelValues(http.MethodGet, "/api/events/:id", "404"))
	assert.Equal(t, before+1, after)
}
