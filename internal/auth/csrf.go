package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sydnethy/2537-Assignment1-SJ/internal/web"
)

const (
	csrfHeader    = "X-CSRF-Token"
	csrfFormField = "_csrf"
)

// VerifyCSRF はフォームの _csrf か X-CSRF-Token ヘッダーがセッションのトークンと一致するか検証します。
// RequireLogin か RequireAdmin の後ろに置いてください。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		claims, ok := ClaimsFromContext(c)
		if !ok || claims.CSRFToken == "" {
			web.Error(c, http.StatusForbidden, "Your session has no form token. Please log in again.")
			return
		}

		received := c.GetHeader(csrfHeader)
		if received == "" {
			received = c.PostForm(csrfFormField)
		}
		if subtle.ConstantTimeCompare([]byte(claims.CSRFToken), []byte(received)) != 1 {
			web.Error(c, http.StatusForbidden, "The form token is invalid. Please reload the page and try again.")
			return
		}

		c.Next()
	}
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
