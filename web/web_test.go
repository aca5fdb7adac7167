package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", ServeIndex)
	router.GET("/manifest.webmanifest", ServeManifest)
	router.GET("/sw.js", ServeServiceWorker)
	router.GET("/icon.svg", ServeIcon)
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestServeIndex(t *testing.T) {
	w := get(setupRouter(), "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `capture="environment"`)
	assert.Contains(t, w.Body.String(), "/api/scan-image")
	assert.Contains(t, w.Body.String(), "/api/scan-status")
}

func TestServeManifest(t *testing.T) {
	w := get(setupRouter(), "/manifest.webmanifest")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/manifest+json", w.Header().Get("Content-Type"))

	var manifest map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &manifest))
	assert.Equal(t, "standalone", manifest["display"])
	assert.Equal(t, "/", manifest["start_url"])
}

func TestServeServiceWorker(t *testing.T) {
	w := get(setupRouter(), "/sw.js")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Body.String(), "addEventListener('fetch'")
}

func TestServeIcon(t *testing.T) {
	w := get(setupRouter(), "/icon.svg")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
}
