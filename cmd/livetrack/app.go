package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mkarpenko/livetrack/internal/db"
	"github.com/mkarpenko/livetrack/internal/handlers"
	"github.com/mkarpenko/livetrack/internal/handlers/middleware"
	"github.com/mkarpenko/livetrack/internal/logger"
	"github.com/mkarpenko/livetrack/internal/relay"
	"github.com/mkarpenko/livetrack/internal/repository/postgres"
	"github.com/mkarpenko/livetrack/internal/service/auth"
	"github.com/mkarpenko/livetrack/internal/service/auth/tokenmanager"
	"github.com/mkarpenko/livetrack/internal/service/sweeper"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Sweeper    *sweeper.Sweeper
	Logger     logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{SingleSession: c.SingleSession}, tokenManager, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	tokenSweeper := sweeper.New(c.SweepInterval, tokenManager, storage.Refresh(), log)

	registry := relay.NewRegistry()
	locationRelay := relay.New(
		relay.Config{IdleTimeout: c.RelayIdleTimeout},
		tokenManager,
		registry,
		log,
	)

	// Initialize handlers
	authHandler := handlers.NewAuth(authService)
	authMiddleware := middleware.AuthMiddleware(authService)

	mux := handlers.NewRouter(
		authHandler,
		locationRelay,
		authMiddleware,
		middleware.LoggerMiddleware(log),
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Sweeper:    tokenSweeper,
		Logger:     log,
	}, nil
}

// Run starts the http server and the background sweep, closes both
// gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	sweeperStopped := s.Sweeper.Run(srvCtx)

	idleConnsClosed := make(chan struct{})
	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.Logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-sweeperStopped

	return err
}
