// Package web serves the installable scanner page.
package web

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static
var static embed.FS

func serve(c *gin.Context, name, contentType string) {
	data, err := static.ReadFile("static/" + name)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

// ServeIndex serves the scanner page
func ServeIndex(c *gin.Context) {
	serve(c, "index.html", "text/html; charset=utf-8")
}

// ServeManifest serves the web app manifest
func ServeManifest(c *gin.Context) {
	serve(c, "manifest.webmanifest", "application/manifest+json")
}

// ServeServiceWorker serves the offline worker; it must never be cached stale
func ServeServiceWorker(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Service-Worker-Allowed", "/")
	serve(c, "sw.js", "text/javascript; charset=utf-8")
}

// ServeIcon serves the app icon
func ServeIcon(c *gin.Context) {
	serve(c, "icon.svg", "image/svg+xml")
}
