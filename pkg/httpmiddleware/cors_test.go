package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func preflight(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	req.Header.Set("Access-Control-Request-Headers", "X-Session-ID")
	return req
}

func TestCORS_AllowAll(t *testing.T) {
	h := CORS(CORSConfig{})(okHandler())

	w := serve(h, preflight("https://hub.example"))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	assert.Equal(t, "X-Session-ID", w.Header().Get("Access-Control-Allow-Headers"))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Origin", "https://hub.example")
	w = serve(h, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_AllowList(t *testing.T) {
	h := CORS(CORSConfig{
		AllowOrigins:     []string{"https://Hub.Example"},
		AllowHeaders:     []string{"Content-Type", "X-Session-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	})(okHandler())

	w := serve(h, preflight("https://hub.example"))
	assert.Equal(t, "https://Hub.Example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type, X-Session-ID", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, w.Header().Values("Vary"), "Origin")

	w = serve(h, preflight("https://evil.example"))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://hub.example")
	w = serve(h, req)
	assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORS_CredentialsEchoOrigin(t *testing.T) {
	h := CORS(CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://hub.example")
	w := serve(h, req)
	assert.Equal(t, "https://hub.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_NoOrigin(t *testing.T) {
	h := CORS(CORSConfig{AllowOrigins: []string{"https://hub.example"}})(okHandler())

	w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}
