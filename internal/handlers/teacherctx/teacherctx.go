package teacherctx

import (
	"context"

	"github.com/classtrack/rollcall/internal/models"
)

type ctxKey string

const teacherKey ctxKey = "teacher"

// Create a new context with the teacher
func New(ctx context.Context, t models.Teacher) context.Context {
	return context.WithValue(ctx, teacherKey, t)
}

// Extract the teacher from the context
func FromContext(ctx context.Context) (models.Teacher, bool) {
	t, ok := ctx.Value(teacherKey).(models.Teacher)
	return t, ok
}
