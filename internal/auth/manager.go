// Package auth は認証・認可機能を提供します。
//
// ログイン・サインアップ・ログアウトのハンドラーと、セッションを検査するガードを扱います。
package auth

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/Sydnethy/2537-Assignment1-SJ/internal/config"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/credentials"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/logging"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/password"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/session"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/users"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/web"
)

// SessionCookieName はセッションIDを運ぶクッキー名です。
const SessionCookieName = "dg_session"

// 画面に表示するメッセージ
const (
	msgUserNotFound      = "User not found"
	msgIncorrectPassword = "Incorrect password"
	msgTooManyAttempts   = "Too many failed attempts. Please try again later."
	msgInternal          = "Something went wrong. Please try again later."
	msgSignedUp          = "Account created. Please log in."
)

var (
	loginWindow      = 15 * time.Minute
	lockDuration     = 10 * time.Minute
	maxLoginAttempts = 5
)

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// Manager は認証処理と状態をまとめた構造体です。
type Manager struct {
	users  users.Repository
	hasher *password.Hasher
	store  *session.Store
	logger logging.Logger
	ttl    time.Duration
	secure bool
	now    func() time.Time

	lock     sync.Mutex
	attempts map[string]*attemptState
}

// NewManager は認証マネージャーを作成します。
func NewManager(cfg *config.Config, repo users.Repository, hasher *password.Hasher, store *session.Store, logger logging.Logger) *Manager {
	return &Manager{
		users:    repo,
		hasher:   hasher,
		store:    store,
		logger:   logger,
		ttl:      cfg.SessionTTL,
		secure:   cfg.GinMode == gin.ReleaseMode,
		now:      time.Now,
		attempts: make(map[string]*attemptState),
	}
}

// SessionOptions はセッションクッキーの属性を返します。MaxAge はセッションの有効期間と同じです。
func (m *Manager) SessionOptions() sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) expiredOptions() sessions.Options {
	opts := m.SessionOptions()
	opts.MaxAge = -1
	return opts
}

// Home は GET / のハンドラーです。
func (m *Manager) Home(c *gin.Context) {
	claims, err := m.Claims(c)
	if err != nil {
		m.fail(c, err)
		return
	}
	authenticated := Check(claims, m.authenticated()) == nil
	c.HTML(http.StatusOK, web.PageIndex, gin.H{
		"Title":         "Home",
		"Authenticated": authenticated,
		"Name":          claims.Name,
		"IsAdmin":       authenticated && claims.IsAdmin(),
	})
}

// LoginPage は GET /login のハンドラーです。
func (m *Manager) LoginPage(c *gin.Context) {
	notice := ""
	if c.Query("signedUp") != "" {
		notice = msgSignedUp
	}
	m.renderLogin(c, http.StatusOK, "", "", notice)
}

// SignupPage は GET /signup のハンドラーです。
func (m *Manager) SignupPage(c *gin.Context) {
	m.renderSignup(c, http.StatusOK, "", "", "")
}

// Login は POST /loggingIn のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	var in credentials.LoginInput
	if err := c.ShouldBind(&in); err != nil {
		m.renderLogin(c, http.StatusBadRequest, "", "Validation failed", "")
		return
	}
	if err := credentials.ValidateLogin(&in); err != nil {
		m.renderLogin(c, http.StatusBadRequest, in.Email, validationMessage(err), "")
		return
	}

	ip := c.ClientIP()
	if retryAfter := m.checkLock(ip); retryAfter > 0 {
		// Retry-After は秒数で返す
		c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds()), 10))
		m.renderLogin(c, http.StatusTooManyRequests, in.Email, msgTooManyAttempts, "")
		return
	}

	ctx := c.Request.Context()
	log := logging.FromContext(c, m.logger)

	user, err := users.FindOne(ctx, m.users, in.Email)
	switch {
	case errors.Is(err, users.ErrAmbiguous):
		log.Warn(ctx, "login matched several users", "email", in.Email, "error", err)
		m.recordFailure(ip)
		m.renderLogin(c, http.StatusUnauthorized, in.Email, msgUserNotFound, "")
		return
	case errors.Is(err, users.ErrNotFound):
		m.recordFailure(ip)
		m.renderLogin(c, http.StatusUnauthorized, in.Email, msgUserNotFound, "")
		return
	case err != nil:
		m.fail(c, err)
		return
	}

	if err := m.hasher.Compare(user.Password, in.Password); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			m.recordFailure(ip)
			m.renderLogin(c, http.StatusUnauthorized, in.Email, msgIncorrectPassword, "")
			return
		}
		m.fail(c, err)
		return
	}

	m.resetAttempts(ip)

	token, err := generateToken()
	if err != nil {
		m.fail(c, err)
		return
	}

	// ログイン前のセッションIDは引き継がない
	if _, err := m.store.Regenerate(c.Request, SessionCookieName); err != nil {
		m.fail(c, err)
		return
	}
	s := sessions.Default(c)
	writeClaims(s, Claims{
		Authenticated: true,
		Email:         user.Email,
		Name:          user.Name,
		UserType:      user.UserType,
		IssuedAt:      m.now(),
		CSRFToken:     token,
	})
	s.Options(m.SessionOptions())
	if err := s.Save(); err != nil {
		m.fail(c, err)
		return
	}

	log.Info(ctx, "login succeeded", "email", user.Email, "user_type", string(user.UserType))
	c.Redirect(http.StatusSeeOther, "/dogs")
}

// Signup は POST /signingUp のハンドラーです。
// 同じメールアドレスの重複登録は検査しません。
func (m *Manager) Signup(c *gin.Context) {
	var in credentials.SignupInput
	if err := c.ShouldBind(&in); err != nil {
		m.renderSignup(c, http.StatusBadRequest, "", "", "Validation failed")
		return
	}
	if err := credentials.ValidateSignup(&in); err != nil {
		m.renderSignup(c, http.StatusBadRequest, in.Name, in.Email, validationMessage(err))
		return
	}

	hash, err := m.hasher.Hash(in.Password)
	if err != nil {
		m.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := m.users.Insert(ctx, &users.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		UserType: users.TypeUser,
	})
	if err != nil {
		m.fail(c, err)
		return
	}

	logging.FromContext(c, m.logger).Info(ctx, "user signed up", "email", user.Email, "id", user.ID)
	c.Redirect(http.StatusSeeOther, "/login?signedUp=1")
}

// Logout は GET /logout のハンドラーです。
func (m *Manager) Logout(c *gin.Context) {
	s, err := m.session(c)
	if err != nil {
		m.fail(c, err)
		return
	}
	s.Clear()
	s.Options(m.expiredOptions())
	if err := s.Save(); err != nil {
		m.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Claims は現在のセッションの Claims を返します。ガードを通していないルートで使います。
func (m *Manager) Claims(c *gin.Context) (Claims, error) {
	s, err := m.session(c)
	if err != nil {
		return Claims{}, err
	}
	return claimsFromSession(s), nil
}

// session はセッションを読み込みます。
// gin-contrib/sessions は読み込みエラーをログに出すだけなので、先にストアから直接読み込んで障害を検出します。
func (m *Manager) session(c *gin.Context) (sessions.Session, error) {
	if _, err := m.store.Get(c.Request, SessionCookieName); err != nil {
		return nil, err
	}
	return sessions.Default(c), nil
}

// fail はバックエンド障害を 500 のエラー画面で返します。エラーはアクセスログで記録されます。
func (m *Manager) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	web.Error(c, http.StatusInternalServerError, msgInternal)
}

func (m *Manager) renderLogin(c *gin.Context, status int, email, errMsg, notice string) {
	c.HTML(status, web.PageLogin, gin.H{
		"Title":  "Log in",
		"Email":  email,
		"Error":  errMsg,
		"Notice": notice,
	})
}

func (m *Manager) renderSignup(c *gin.Context, status int, name, email, errMsg string) {
	c.HTML(status, web.PageSignup, gin.H{
		"Title": "Sign up",
		"Name":  name,
		"Email": email,
		"Error": errMsg,
	})
}

func validationMessage(err error) string {
	var vErr *credentials.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message()
	}
	return "Validation failed"
}

func (m *Manager) checkLock(ip string) time.Duration {
	m.lock.Lock()
	defer m.lock.Unlock()

	state, ok := m.attempts[ip]
	if !ok {
		return 0
	}
	now := m.now()
	if now.After(state.lockedUntil) {
		return 0
	}
	return state.lockedUntil.Sub(now)
}

func (m *Manager) recordFailure(ip string) int {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.now()
	state, ok := m.attempts[ip]
	if !ok || now.Sub(state.firstAttempt) > loginWindow {
		state = &attemptState{firstAttempt: now}
		m.attempts[ip] = state
	}

	state.count++
	if state.count >= maxLoginAttempts {
		state.lockedUntil = now.Add(lockDuration)
		state.count = maxLoginAttempts
	}

	remaining := maxLoginAttempts - state.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (m *Manager) resetAttempts(ip string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.attempts, ip)
}
