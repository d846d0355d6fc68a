package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account known to the store. Accounts are managed by the
// identity service; the catalog only reads them to resolve authors and
// reviewers.
type User struct {
	ID        uuid.UUID `json:"_id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Username  string    `json:"username" db:"username"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
