package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sydnethy/2537-Assignment1-SJ/internal/users"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/web"
)

var (
	// ErrUnauthenticated はログインしていない、またはセッションが期限切れであることを示します。
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden はログイン済みだが権限が足りないことを示します。
	ErrForbidden = errors.New("forbidden")
)

// Guard はセッションの Claims を検査し、拒否する場合は ErrUnauthenticated か ErrForbidden を返します。
type Guard func(Claims) error

// Authenticated はログイン済みで、かつログインから ttl 以内のセッションだけを通します。
func Authenticated(ttl time.Duration, now func() time.Time) Guard {
	return func(c Claims) error {
		if !c.Authenticated {
			return ErrUnauthenticated
		}
		if c.IssuedAt.IsZero() || now().Sub(c.IssuedAt) > ttl {
			return ErrUnauthenticated
		}
		return nil
	}
}

// Role は userType が want のセッションだけを通します。
func Role(want users.Type) Guard {
	return func(c Claims) error {
		if c.UserType != want {
			return ErrForbidden
		}
		return nil
	}
}

// Check はガードを順番に評価し、最初の拒否理由を返します。
func Check(claims Claims, guards ...Guard) error {
	for _, g := range guards {
		if err := g(claims); err != nil {
			return err
		}
	}
	return nil
}

// RequireLogin はログイン済みセッションを要求するミドルウェアを返します。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return m.Require(m.authenticated())
}

// RequireAdmin はログイン済みかつ管理者のセッションを要求するミドルウェアを返します。
func (m *Manager) RequireAdmin() gin.HandlerFunc {
	return m.Require(m.authenticated(), Role(users.TypeAdmin))
}

// Require は任意のガード列を評価するミドルウェアを返します。
// 未ログインは /login へリダイレクト、権限不足は 403 のエラー画面になります。
func (m *Manager) Require(guards ...Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := m.session(c)
		if err != nil {
			m.fail(c, err)
			return
		}
		claims := claimsFromSession(session)

		switch err := Check(claims, guards...); {
		case err == nil:
			c.Set(ContextClaimsKey, claims)
			c.Next()
		case errors.Is(err, ErrForbidden):
			web.Error(c, http.StatusForbidden, "You are not authorized to view this page.")
		default:
			if claims.Authenticated {
				// 期限切れのセッションは破棄しておく
				session.Clear()
				session.Options(m.expiredOptions())
				_ = session.Save()
			}
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
		}
	}
}

func (m *Manager) authenticated() Guard {
	return Authenticated(m.ttl, m.now)
}
