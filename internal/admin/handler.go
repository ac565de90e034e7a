// Package admin は管理者向けのユーザー一覧と権限変更を提供します。
package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Sydnethy/2537-Assignment1-SJ/internal/auth"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/logging"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/users"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/web"
)

// Handler は /admin, /promote, /demote のハンドラーをまとめます。
// いずれも auth.Manager.RequireAdmin の後ろに置く前提です。
type Handler struct {
	users  users.Repository
	logger logging.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(repo users.Repository, logger logging.Logger) *Handler {
	return &Handler{users: repo, logger: logger}
}

type roleRequest struct {
	Email string `form:"email"`
}

// Page は GET /admin のハンドラーです。
func (h *Handler) Page(c *gin.Context) {
	h.render(c, http.StatusOK, "")
}

// Promote は POST /promote のハンドラーです。
func (h *Handler) Promote(c *gin.Context) {
	h.setType(c, users.TypeAdmin)
}

// Demote は POST /demote のハンドラーです。
func (h *Handler) Demote(c *gin.Context) {
	h.setType(c, users.TypeUser)
}

func (h *Handler) setType(c *gin.Context, userType users.Type) {
	var req roleRequest
	_ = c.ShouldBind(&req)
	email := strings.TrimSpace(req.Email)
	if email == "" {
		h.render(c, http.StatusBadRequest, "Please provide an email")
		return
	}

	ctx := c.Request.Context()
	n, err := h.users.SetType(ctx, email, userType)
	if err != nil {
		h.fail(c, err)
		return
	}
	if n == 0 {
		h.render(c, http.StatusNotFound, "User not found")
		return
	}

	actor := ""
	if claims, ok := auth.ClaimsFromContext(c); ok {
		actor = claims.Email
	}
	logging.FromContext(c, h.logger).Info(ctx, "user type changed",
		"email", email, "user_type", string(userType), "records", n, "by", actor)
	c.Redirect(http.StatusSeeOther, "/admin")
}

func (h *Handler) render(c *gin.Context, status int, errMsg string) {
	list, err := h.users.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	claims, _ := auth.ClaimsFromContext(c)
	web.NoStore(c)
	c.HTML(status, web.PageAdmin, gin.H{
		"Title":     "Admin",
		"Users":     list,
		"Error":     errMsg,
		"CSRFToken": claims.CSRFToken,
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, users.ErrInvalidType) {
		web.Error(c, http.StatusBadRequest, "Unknown user type")
		return
	}
	_ = c.Error(err)
	web.Error(c, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}
