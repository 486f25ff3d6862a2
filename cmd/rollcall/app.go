package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/classtrack/rollcall/internal/db"
	"github.com/classtrack/rollcall/internal/handlers"
	"github.com/classtrack/rollcall/internal/logger"
	"github.com/classtrack/rollcall/internal/repository/postgres"
	"github.com/classtrack/rollcall/internal/scraper"
	"github.com/classtrack/rollcall/internal/service/attendance"
	"github.com/classtrack/rollcall/internal/service/auth"
	"github.com/classtrack/rollcall/internal/service/session"
	"github.com/classtrack/rollcall/internal/token"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
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

	// Initialize token primitives
	signer, err := token.NewSigner(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("error while creating token signer. Err: %w", err)
	}
	codec := token.NewCodec(signer, c.BaseURL)
	validator := token.NewValidator(signer)

	// Initialize services
	authService, err := auth.NewService(auth.Config{SecretKey: c.SecretKey}, storage.Teacher())
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	sessionService := session.NewService(storage.Session(), storage.Attendance(), codec, validator, logger)
	attendanceService := attendance.NewService(storage, logger)
	scraperClient := scraper.NewClient(scraper.Config{}, logger)

	mux := handlers.NewRouter(handlers.RouterConfig{
		AuthService:         authService,
		SessionService:      sessionService,
		AttendanceService:   attendanceService,
		ExtractService:      scraperClient,
		Logger:              logger,
		PublicRatePerMinute: c.RatePerMinute,
		PublicRateBurst:     c.RateBurst,
	})

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
