package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-catalog/internal/domain"

	"github.com/google/uuid"
)

// ReviewRepository defines the interface for review data access. Reviews
// reference products by id only; there is no foreign key, so removing a
// product's reviews is the caller's job.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error)
	DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	DeleteOrphans(ctx context.Context) (int64, error)
}

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new instance of ReviewRepository
func NewReviewRepository(db *sql.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create inserts a review. Reviews are written by the review service; the
// catalog only calls this from tests to seed fixtures.
func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, product_id, user_id, comment, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		review.ID,
		review.ProductID,
		review.UserID,
		review.Comment,
		review.Rating,
		review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// ListByProduct returns a product's reviews with the reviewer's username and email
func (r *reviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	query := `
		SELECT r.id, r.product_id, r.user_id, r.comment, r.rating, r.created_at,
		       u.email, u.username
		FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		var (
			review   domain.Review
			email    sql.NullString
			username sql.NullString
		)
		err := rows.Scan(
			&review.ID,
			&review.ProductID,
			&review.UserID,
			&review.Comment,
			&review.Rating,
			&review.CreatedAt,
			&email,
			&username,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		review.User = &domain.AccountSummary{
			ID:       review.UserID,
			Email:    email.String,
			Username: username.String,
		}
		reviews = append(reviews, &review)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

// DeleteByProduct removes every review of a product and reports how many went
func (r *reviewRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reviews: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// DeleteOrphans removes reviews whose product no longer exists
func (r *reviewRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM reviews r
		WHERE NOT EXISTS (SELECT 1 FROM products p WHERE p.id = r.product_id)
	`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned reviews: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}
