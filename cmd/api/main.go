// Package main はWebサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"

	"github.com/Sydnethy/2537-Assignment1-SJ/internal/config"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/gallery"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/logging"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/password"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/server"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/session"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "info", false).Error(context.Background(), "failed to load config", "error", err)
		return err
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.GinMode == gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		// 開発用。再起動すると既存のセッションは無効になる
		secret = securecookie.GenerateRandomKey(32)
		logger.Warn(ctx, "SESSION_SECRET is not set; using a random key")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	st, err := openStores(connectCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error(ctx, "failed to open stores", "error", err)
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Error(closeCtx, "failed to close stores", "error", err)
		}
	}()

	catalogue := gallery.NewCatalogue(gallery.DefaultImages)
	catalogue.LogProblems(ctx, cfg.StaticDir, logger)

	router := server.NewRouter(server.Deps{
		Config:    cfg,
		Users:     st.users,
		Hasher:    password.NewHasher(cfg.BcryptCost),
		Sessions:  session.NewStore(st.sessions, secret),
		Catalogue: catalogue,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "starting server", "addr", srv.Addr, "mode", cfg.GinMode,
			"user_store", cfg.UserStore, "session_backend", cfg.SessionBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error(ctx, "server stopped", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "graceful shutdown failed", "error", err)
		return err
	}
	return nil
}
