// Command notekeeper-server starts the note-keeping HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mvolkov/notekeeper/internal/config"
	"github.com/mvolkov/notekeeper/internal/limiter"
	"github.com/mvolkov/notekeeper/internal/migrate"
	"github.com/mvolkov/notekeeper/internal/repository/postgres"
	"github.com/mvolkov/notekeeper/internal/server/httpapi"
	"github.com/mvolkov/notekeeper/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, runs migrations, and starts the HTTP server.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool; startup tolerates a database that is still coming up.
	db, err := postgres.Connect(ctx, cfg.DSN)
	if err != nil {
		logger.Fatal("connect to postgres", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	folderRepo := postgres.NewFolderRepo(db)
	noteRepo := postgres.NewNoteRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)

	lim := limiter.NewPGWithQuerier(db.Pool, cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlockFor)

	// Services
	authSvc := service.NewAuthService(userRepo, lim)
	sessionSvc := service.NewSessionService(sessionRepo, userRepo, cfg.SessionTTL)
	folderSvc := service.NewFolderService(folderRepo)
	noteSvc := service.NewNoteService(noteRepo, folderRepo)

	go sessionSvc.RunSweeper(ctx, logger, cfg.SweepInterval)

	api := httpapi.New(logger, authSvc, sessionSvc, folderSvc, noteSvc, cfg.SessionTTL, cfg.SecureCookie)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
