// Package web は画面テンプレートと描画ヘルパーを提供します。
package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// テンプレート名
const (
	PageIndex    = "index.html"
	PageLogin    = "login.html"
	PageSignup   = "signup.html"
	PageGallery  = "gallery.html"
	PageAdmin    = "admin.html"
	PageError    = "error.html"
	PageNotFound = "404.html"
)

// Templates は埋め込みテンプレートをすべて読み込みます。
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// MustTemplates は Templates の失敗時に panic する版です。
func MustTemplates() *template.Template {
	return template.Must(Templates())
}

// Error はエラー画面を描画し、以降のハンドラーを中断します。
func Error(c *gin.Context, status int, message string) {
	c.HTML(status, PageError, gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
	c.Abort()
}

// NotFound は 404 画面を描画します。
func NotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, PageNotFound, gin.H{
		"Title": "Page not found",
		"Path":  c.Request.URL.Path,
	})
}

// NoStore はログイン済みユーザー向けの画面をブラウザにキャッシュさせないようにします。
func NoStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
}
