package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	router := gin.New()
	router.Use(metrics.Middleware())
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/items/1", "/items/2", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	w := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	assert.Contains(t, body, `userhub_http_requests_total{method="GET",route="/items/:id",status="200"} 2`)
	assert.Contains(t, body, `userhub_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
	assert.Contains(t, body, `userhub_http_in_flight_requests 0`)
	assert.Contains(t, body, `userhub_http_request_duration_seconds_count{method="GET",route="/items/:id",status="200"} 2`)
}
