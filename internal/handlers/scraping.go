package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/classtrack/rollcall/internal/apperrors"
	"github.com/classtrack/rollcall/internal/handlers/render"
	"github.com/classtrack/rollcall/internal/logger"
	"github.com/classtrack/rollcall/internal/scraper"
)

type extractService interface {
	ExtractStudent(ctx context.Context, pageURL string) (scraper.Extracted, error)
}

type ExtractRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type ExtractResponse struct {
	StudentNumber string `json:"student_number"`
	FullName      string `json:"full_name,omitempty"`
	SourceURL     string `json:"source_url"`
}

func handleExtract(es extractService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[ExtractRequest](w, r)
		if err != nil {
			return
		}

		extracted, err := es.ExtractStudent(r.Context(), req.URL)
		switch {
		case err == nil:
			render.JSON(w, ExtractResponse{
				StudentNumber: extracted.StudentNumber,
				FullName:      extracted.FullName,
				SourceURL:     extracted.SourceURL,
			})
		case errors.Is(err, apperrors.ErrStudentNumberNotFound):
			render.ServiceError(w, "Student number not found on page", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrExtractTimeout):
			render.ServiceError(w, "Source page timed out", http.StatusGatewayTimeout)
		default:
			l.Error("extraction failed", "url", req.URL, "error", err.Error())
			render.ServiceError(w, "Source page unavailable", http.StatusBadGateway)
		}
	})
}
