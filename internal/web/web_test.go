package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestTemplatesParse(t *testing.T) {
	tmpl, err := Templates()
	if err != nil {
		t.Fatalf("Templates returned error: %v", err)
	}
	for _, name := range []string{PageIndex, PageLogin, PageSignup, PageGallery, PageAdmin, PageError, PageNotFound} {
		if tmpl.Lookup(name) == nil {
			t.Fatalf("template %s not found", name)
		}
	}
}

func TestLoginEscapesInput(t *testing.T) {
	tmpl := MustTemplates()
	var buf bytes.Buffer
	err := tmpl.ExecuteTemplate(&buf, PageLogin, gin.H{
		"Title": "Log in",
		"Email": `"><script>alert(1)</script>`,
		"Error": "Invalid email",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Fatalf("email was not escaped: %s", out)
	}
	if !strings.Contains(out, "Invalid email") {
		t.Fatalf("missing error message: %s", out)
	}
}

func TestErrorAndNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.SetHTMLTemplate(MustTemplates())
	router.GET("/forbidden", func(c *gin.Context) {
		Error(c, http.StatusForbidden, "You are not authorized")
	})
	router.NoRoute(NotFound)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/forbidden", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "You are not authorized") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/nope does not exist") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
