package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the account a reservation is made for. This service only reads
// users; they are managed elsewhere.
type User struct {
	ID        uuid.UUID
	FullName  string
	Email     string
	Phone     string
	IsActive  bool
	IsDeleted bool
	CreatedAt time.Time
}
