package handlers

import (
	"net/http"

	"github.com/classtrack/rollcall/internal/handlers/middleware"
	"github.com/classtrack/rollcall/internal/logger"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	AuthService       authService
	SessionService    sessionService
	AttendanceService attendanceService
	ExtractService    extractService
	Logger            logger.Logger

	// Requests per minute allowed per client address on the public
	// attendance and scraping endpoints
	PublicRatePerMinute int
	PublicRateBurst     int
}

func NewRouter(cfg RouterConfig) http.Handler {
	authMiddleware := middleware.AuthMiddleware(cfg.AuthService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	publicLimiter := middleware.NewRateLimiter(cfg.PublicRatePerMinute, cfg.PublicRateBurst)

	api := http.NewServeMux()

	api.Handle("POST /auth/login", handleLogin(cfg.AuthService, cfg.Logger))

	api.Handle("POST /sessions", withAuth(handleCreateSession(cfg.SessionService, cfg.Logger)))
	api.Handle("POST /sessions/{id}/qr", withAuth(handleIssueQR(cfg.SessionService, cfg.Logger)))
	api.Handle("POST /sessions/{id}/close", withAuth(handleCloseSession(cfg.SessionService, cfg.Logger)))
	api.Handle("GET /sessions/{id}/records", withAuth(handleListRecords(cfg.SessionService, cfg.Logger)))

	api.Handle("GET /attendance/validate", handleValidate(cfg.SessionService, cfg.Logger))
	api.Handle("POST /attendance/record", publicLimiter.Middleware(handleRecordAttendance(cfg.AttendanceService, cfg.Logger)))
	api.Handle("POST /scraping/extract", publicLimiter.Middleware(handleExtract(cfg.ExtractService, cfg.Logger)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(cfg.Logger),
	)

	return handler
}
