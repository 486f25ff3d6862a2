package models

import (
	"time"

	"github.com/google/uuid"
)

type Teacher struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Email          string
	FullName       string
	HashedPassword string
}
