package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-catalog/internal/domain"
	"storefront-catalog/internal/query"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// FindOptions controls paging and ordering of Find.
type FindOptions struct {
	Skip        int
	Limit       int // zero means no limit
	NewestFirst bool
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Find(ctx context.Context, filter query.Predicate, opts FindOptions) ([]*domain.Product, error)
	Count(ctx context.Context, filter query.Predicate) (int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// productColumns selects a product row joined with its author's public fields.
// Queries alias products as p and users as u.
const productColumns = `
	p.id, p.name, p.category, p.description, p.price, p.old_price, p.images,
	p.author_id, p.size, p.color, p.created_at, p.updated_at,
	u.email, u.username`

// Create inserts a product and returns the stored row with its author populated
func (r *productRepository) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		WITH inserted AS (
			INSERT INTO products (id, name, category, description, price, old_price, images,
			                      author_id, size, color, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING *
		)
		SELECT ` + productColumns + `
		FROM inserted p
		LEFT JOIN users u ON u.id = p.author_id
	`

	row := r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.Name,
		string(product.Category),
		product.Description,
		product.Price,
		product.OldPrice,
		product.Images,
		product.AuthorID,
		nullString(product.Size),
		nullString(product.Color),
		product.CreatedAt,
		product.UpdatedAt,
	)

	created, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return created, nil
}

// Update replaces the mutable fields of a product. The old price is written
// as given, so a nil OldPrice clears the column.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		WITH updated AS (
			UPDATE products
			SET name = $2, category = $3, description = $4, price = $5, old_price = $6,
			    images = $7, author_id = $8, size = $9, color = $10, updated_at = $11
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + productColumns + `
		FROM updated p
		LEFT JOIN users u ON u.id = p.author_id
	`

	row := r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.Name,
		string(product.Category),
		product.Description,
		product.Price,
		product.OldPrice,
		product.Images,
		product.AuthorID,
		nullString(product.Size),
		nullString(product.Color),
		product.UpdatedAt,
	)

	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return updated, nil
}

// Delete removes a product from the database using parameterized queries
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID with its author's email and username
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// Find returns products matching filter. The filter is applied to the
// products table alone so its column names need no qualification.
func (r *productRepository) Find(ctx context.Context, filter query.Predicate, opts FindOptions) ([]*domain.Product, error) {
	args := query.NewArgs()
	where := query.Where(filter, args)

	order := ""
	if opts.NewestFirst {
		order = "ORDER BY created_at DESC"
	}

	page := ""
	if opts.Limit > 0 {
		page += " LIMIT " + args.Add(opts.Limit)
	}
	if opts.Skip > 0 {
		page += " OFFSET " + args.Add(opts.Skip)
	}

	outerOrder := ""
	if opts.NewestFirst {
		outerOrder = "ORDER BY p.created_at DESC"
	}

	stmt := fmt.Sprintf(`
		SELECT %s
		FROM (
			SELECT * FROM products
			%s
			%s
			%s
		) p
		LEFT JOIN users u ON u.id = p.author_id
		%s
	`, productColumns, where, order, page, outerOrder)

	rows, err := r.db.QueryContext(ctx, stmt, args.Values()...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// Count returns the number of products matching filter
func (r *productRepository) Count(ctx context.Context, filter query.Predicate) (int, error) {
	args := query.NewArgs()
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM products %s", query.Where(filter, args))

	var total int
	if err := r.db.QueryRowContext(ctx, stmt, args.Values()...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		product  domain.Product
		category string
		oldPrice sql.NullFloat64
		size     sql.NullString
		color    sql.NullString
		email    sql.NullString
		username sql.NullString
	)

	typeMap := pgtype.NewMap()
	err := row.Scan(
		&product.ID,
		&product.Name,
		&category,
		&product.Description,
		&product.Price,
		&oldPrice,
		typeMap.SQLScanner(&product.Images),
		&product.AuthorID,
		&size,
		&color,
		&product.CreatedAt,
		&product.UpdatedAt,
		&email,
		&username,
	)
	if err != nil {
		return nil, err
	}

	product.Category = domain.Category(category)
	if oldPrice.Valid {
		v := oldPrice.Float64
		product.OldPrice = &v
	}
	product.Size = size.String
	product.Color = color.String
	product.Author = &domain.AccountSummary{
		ID:       product.AuthorID,
		Email:    email.String,
		Username: username.String,
	}

	return &product, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
