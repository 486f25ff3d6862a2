package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionActive   = "ACTIVE"
	SessionInactive = "INACTIVE"
)

type Session struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	TeacherID    uuid.UUID
	SubjectLabel string
	GroupLabel   string
	Status       string
}

func (s Session) IsActive() bool {
	return s.Status == SessionActive
}
