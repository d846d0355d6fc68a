package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog
type Product struct {
	ID          uuid.UUID       `json:"_id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Category    Category        `json:"category" db:"category"`
	Description string          `json:"description" db:"description"`
	Price       float64         `json:"price" db:"price"`
	OldPrice    *float64        `json:"oldPrice,omitempty" db:"old_price"`
	Images      []string        `json:"image" db:"images"`
	AuthorID    uuid.UUID       `json:"-" db:"author_id"`
	Author      *AccountSummary `json:"author,omitempty"`
	Size        string          `json:"size,omitempty" db:"size"`
	Color       string          `json:"color,omitempty" db:"color"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// AccountSummary is the public projection of an account referenced by a
// product author or a reviewer.
type AccountSummary struct {
	ID       uuid.UUID `json:"_id"`
	Email    string    `json:"email,omitempty"`
	Username string    `json:"username,omitempty"`
}

// Review is a user review attached to a product. Reviews are created
// elsewhere; this service only reads them and removes them with their product.
type Review struct {
	ID        uuid.UUID       `json:"_id" db:"id"`
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	UserID    uuid.UUID       `json:"-" db:"user_id"`
	User      *AccountSummary `json:"userId,omitempty"`
	Comment   string          `json:"comment" db:"comment"`
	Rating    int             `json:"rating" db:"rating"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}
