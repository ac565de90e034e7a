package auth

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/Sydnethy/2537-Assignment1-SJ/internal/users"
)

// セッションに保存するキー
const (
	sessionKeyAuthenticated = "authenticated"
	sessionKeyEmail         = "email"
	sessionKeyName          = "name"
	sessionKeyUserType      = "user_type"
	sessionKeyIssuedAt      = "issued_at"
	sessionKeyCSRF          = "csrf_token"
)

// ContextClaimsKey はガードを通過したリクエストの Claims を gin.Context に保存するキーです。
const ContextClaimsKey = "auth.claims"

// Claims はセッションに保存された利用者の情報です。
type Claims struct {
	Authenticated bool
	Email         string
	Name          string
	UserType      users.Type
	IssuedAt      time.Time
	CSRFToken     string
}

// IsAdmin は管理者かどうかを返します。
func (c Claims) IsAdmin() bool {
	return c.UserType == users.TypeAdmin
}

func claimsFromSession(s sessions.Session) Claims {
	authenticated, _ := s.Get(sessionKeyAuthenticated).(bool)
	email, _ := s.Get(sessionKeyEmail).(string)
	name, _ := s.Get(sessionKeyName).(string)
	userType, _ := s.Get(sessionKeyUserType).(string)
	csrf, _ := s.Get(sessionKeyCSRF).(string)
	return Claims{
		Authenticated: authenticated,
		Email:         email,
		Name:          name,
		UserType:      users.Type(userType),
		IssuedAt:      readUnix(s.Get(sessionKeyIssuedAt)),
		CSRFToken:     csrf,
	}
}

func writeClaims(s sessions.Session, c Claims) {
	s.Set(sessionKeyAuthenticated, c.Authenticated)
	s.Set(sessionKeyEmail, c.Email)
	s.Set(sessionKeyName, c.Name)
	s.Set(sessionKeyUserType, string(c.UserType))
	s.Set(sessionKeyIssuedAt, c.IssuedAt.Unix())
	s.Set(sessionKeyCSRF, c.CSRFToken)
}

// ClaimsFromContext はガードが保存した Claims を返します。
func ClaimsFromContext(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(ContextClaimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}

// readUnix はセッションストアごとに異なる数値型で戻ってくる Unix 秒を time.Time に変換します。
func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int32:
		return time.Unix(int64(t), 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}
