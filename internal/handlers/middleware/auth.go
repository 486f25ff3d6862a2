package middleware

import (
	"context"
	"net/http"

	"github.com/classtrack/rollcall/internal/handlers/render"
	"github.com/classtrack/rollcall/internal/handlers/teacherctx"
	"github.com/classtrack/rollcall/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.Teacher, error)
}

func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			teacher, err := as.Auth(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := teacherctx.New(r.Context(), teacher)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
