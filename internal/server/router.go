// Package server は HTTP ルーティングとミドルウェアの配線を行います。
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/Sydnethy/2537-Assignment1-SJ/internal/admin"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/auth"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/config"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/gallery"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/logging"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/password"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/session"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/users"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/web"
)

// Deps はルーターが必要とする依存関係です。
type Deps struct {
	Config    *config.Config
	Users     users.Repository
	Hasher    *password.Hasher
	Sessions  *session.Store
	Catalogue *gallery.Catalogue
	Logger    logging.Logger
}

// NewRouter はミドルウェアとルートを登録した gin.Engine を返します。
func NewRouter(deps Deps) *gin.Engine {
	cfg := deps.Config

	router := gin.New()
	router.Use(gin.Recovery(), logging.Middleware(deps.Logger))
	router.SetHTMLTemplate(web.MustTemplates())

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"X-CSRF-Token", // CSRF保護用ヘッダー
		logging.RequestIDHeader,
	}
	corsConfig.ExposeHeaders = []string{logging.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authManager := auth.NewManager(cfg, deps.Users, deps.Hasher, deps.Sessions, deps.Logger)
	deps.Sessions.Options(authManager.SessionOptions())
	router.Use(sessions.Sessions(auth.SessionCookieName, deps.Sessions))

	setupRoutes(router, cfg, deps, authManager)
	return router
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "dog-gallery",
	})
}

func setupRoutes(router *gin.Engine, cfg *config.Config, deps Deps, authManager *auth.Manager) {
	router.GET("/health", handleHealth)
	router.Static("/public", cfg.StaticDir)

	router.GET("/", authManager.Home)
	router.GET("/login", authManager.LoginPage)
	router.GET("/signup", authManager.SignupPage)

	// ログイン前はセッションが無いので CSRF 検証はしない
	router.POST("/loggingIn", authManager.Login)
	router.POST("/signingUp", authManager.Signup)
	router.GET("/logout", authManager.Logout)

	members := router.Group("")
	members.Use(authManager.RequireLogin())
	{
		show := gallery.Handler(deps.Catalogue)
		members.GET("/dogs", show)
		members.GET("/members", show)
	}

	adminHandler := admin.NewHandler(deps.Users, deps.Logger)
	adminRoutes := router.Group("")
	adminRoutes.Use(authManager.RequireAdmin(), authManager.VerifyCSRF())
	{
		adminRoutes.GET("/admin", adminHandler.Page)
		adminRoutes.POST("/promote", adminHandler.Promote)
		adminRoutes.POST("/demote", adminHandler.Demote)
	}

	router.NoRoute(web.NotFound)
}
