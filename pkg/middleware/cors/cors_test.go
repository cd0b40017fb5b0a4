package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(opts))
	r.GET("/events", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/events", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	return r
}

func send(r *gin.Engine, method, origin string, preflight bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/events", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPreflightShortCircuits(t *testing.T) {
	r := newRouter(Options{AllowedOrigins: []string{"https://app.petcal.test/"}, MaxAge: 10 * time.Minute})

	w := send(r, http.MethodOptions, "https://app.petcal.test", true)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.petcal.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
}

func TestPreflightFromUnknownOriginIsForbidden(t *testing.T) {
	r := newRouter(Options{AllowedOrigins: []string{"https://app.petcal.test"}})

	w := send(r, http.MethodOptions, "https://evil.test", true)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPlainOptionsReachesRouter(t *testing.T) {
	r := newRouter(Options{AllowedOrigins: []string{"https://app.petcal.test"}})

	w := send(r, http.MethodOptions, "https://app.petcal.test", false)

	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestUnknownOriginIsNotEchoed(t *testing.T) {
	r := newRouter(Options{AllowedOrigins: []string{"https://app.petcal.test"}})

	w := send(r, http.MethodGet, "https://evil.test", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Expose-Headers"))
}

func TestExportHeadersExposed(t *testing.T) {
	r := newRouter(Options{})

	w := send(r, http.MethodGet, "http://localhost:5173", false)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestWildcardSubdomain(t *testing.T) {
	m := newMatcher([]string{"https://*.petcal.app"})

	assert.True(t, m.allows("https://staging.petcal.app"))
	assert.True(t, m.allows("https://a.b.petcal.app/"))
	assert.False(t, m.allows("https://petcal.app"))
	assert.False(t, m.allows("http://staging.petcal.app"))
	assert.False(t, m.allows("https://evilpetcal.app"))
}

func TestNoOriginPassesThrough(t *testing.T) {
	r := newRouter(Options{AllowedOrigins: []string{"https://app.petcal.test"}})

	w := send(r, http.MethodGet, "", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}
