package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/classtrack/rollcall/internal/apperrors"
	"github.com/classtrack/rollcall/internal/handlers/render"
	"github.com/classtrack/rollcall/internal/logger"
	"github.com/classtrack/rollcall/internal/models"
	"github.com/classtrack/rollcall/internal/service/auth"
)

type authService interface {
	Login(ctx context.Context, email string, password string) (models.Teacher, auth.IssuedToken, error)
	Auth(ctx context.Context, r *http.Request) (models.Teacher, error)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Teacher     TeacherResponse `json:"teacher"`
}

type TeacherResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func handleLogin(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[LoginRequest](w, r)
		if err != nil {
			return
		}

		teacher, token, err := as.Login(r.Context(), req.Email, req.Password)
		switch {
		case err == nil:
			render.JSON(w, LoginResponse{
				AccessToken: token.Value,
				ExpiresAt:   token.ExpiresAt,
				Teacher: TeacherResponse{
					ID:       teacher.ID.String(),
					Email:    teacher.Email,
					FullName: teacher.FullName,
				},
			})
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
		default:
			l.Error("login failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
