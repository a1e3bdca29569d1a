package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"inventory/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), RequestLogger(), Metrics())
	r.GET("/api/orders/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	return r
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	r := newRouter()
	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/orders/:id", "204")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/api/orders/"+id, nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestRecovery(t *testing.T) {
	r := newRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","status_code":500,"error":"internal server error"}`, w.Body.String())
}
