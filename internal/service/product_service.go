package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-catalog/internal/catalog"
	"storefront-catalog/internal/domain"
	"storefront-catalog/internal/repository"
	"storefront-catalog/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrReviewCascade is returned by Delete when the product is gone but its
	// reviews could not be removed. The orphan sweep picks them up later.
	ErrReviewCascade = errors.New("product deleted but its reviews were not")
)

// ListResult is one page of the catalog listing.
type ListResult struct {
	Products      []*domain.Product `json:"products"`
	TotalPages    int               `json:"totalPages"`
	TotalProducts int               `json:"totalProducts"`
}

// ProductDetail is a product together with its reviews.
type ProductDetail struct {
	Product *domain.Product  `json:"product"`
	Reviews []*domain.Review `json:"reviews"`
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	Create(ctx context.Context, in catalog.ProductInput) (*domain.Product, error)
	List(ctx context.Context, params catalog.ListParams) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	Related(ctx context.Context, id uuid.UUID) ([]*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, in catalog.ProductInput, files []storage.Blob) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadImages(ctx context.Context, blobs []storage.Blob) ([]string, error)
}

type productService struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	users    repository.UserRepository
	uploader storage.Uploader
	logger   *zap.Logger
	now      func() time.Time
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	products repository.ProductRepository,
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	uploader storage.Uploader,
	logger *zap.Logger,
) ProductService {
	return &productService{
		products: products,
		reviews:  reviews,
		users:    users,
		uploader: uploader,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores a new product
func (s *productService) Create(ctx context.Context, in catalog.ProductInput) (*domain.Product, error) {
	product, err := catalog.PrepareProductForCreate(in)
	if err != nil {
		return nil, err
	}

	if err := s.checkAuthor(ctx, product.AuthorID); err != nil {
		return nil, err
	}

	product.ID = uuid.New()
	product.CreatedAt = s.now()
	product.UpdatedAt = product.CreatedAt

	created, err := s.products.Create(ctx, product)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", created.ID.String()),
		zap.String("category", created.Category.String()),
	)
	return created, nil
}

// List returns one page of products matching params, newest first
func (s *productService) List(ctx context.Context, params catalog.ListParams) (*ListResult, error) {
	filter := catalog.BuildListFilter(params)
	page := catalog.Paginate(0, catalog.ParsePage(params.Page), catalog.ParseLimit(params.Limit))

	var (
		total    int
		products []*domain.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.products.Count(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.products.Find(gctx, filter, repository.FindOptions{
			Skip:        page.Skip,
			Limit:       page.Limit,
			NewestFirst: true,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page = catalog.Paginate(total, page.Page, page.Limit)
	return &ListResult{
		Products:      products,
		TotalPages:    page.TotalPages,
		TotalProducts: total,
	}, nil
}

// Get returns a product and its reviews
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviews.ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ProductDetail{Product: product, Reviews: reviews}, nil
}

// Related returns every other product sharing a name word or the category
func (s *productService) Related(ctx context.Context, id uuid.UUID) ([]*domain.Product, error) {
	anchor, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.products.Find(ctx, catalog.RelatedFilter(anchor), repository.FindOptions{})
}

// Update replaces the supplied fields of a product. Files, when present, are
// uploaded only after the scalar fields and any new author pass validation,
// and their URLs replace the whole image list.
func (s *productService) Update(ctx context.Context, id uuid.UUID, in catalog.ProductInput, files []storage.Blob) (*domain.Product, error) {
	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := catalog.ValidateUpdateFields(in); err != nil {
		return nil, err
	}

	author, err := catalog.UpdateAuthor(existing, in)
	if err != nil {
		return nil, err
	}
	if author != existing.AuthorID {
		if err := s.checkAuthor(ctx, author); err != nil {
			return nil, err
		}
	}

	var uploaded []string
	if len(files) > 0 {
		uploaded, err = s.uploader.Upload(ctx, files)
		if err != nil {
			return nil, fmt.Errorf("failed to upload images: %w", err)
		}
	}

	product, err := catalog.PrepareProductForUpdate(existing, in, uploaded)
	if err != nil {
		return nil, err
	}

	product.UpdatedAt = s.now()

	updated, err := s.products.Update(ctx, product)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product updated",
		zap.String("product_id", updated.ID.String()),
		zap.Int("images", len(updated.Images)),
	)
	return updated, nil
}

// Delete removes a product and then its reviews. The two steps are not
// atomic: a failed cascade leaves the product deleted.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	deleted, err := s.reviews.DeleteByProduct(ctx, id)
	if err != nil {
		s.logger.Error("Failed to delete reviews of deleted product",
			zap.String("product_id", id.String()),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrReviewCascade, err)
	}

	s.logger.Info("Product deleted",
		zap.String("product_id", id.String()),
		zap.Int64("reviews_deleted", deleted),
	)
	return nil
}

// UploadImages stores raw images and returns their URLs in input order. An
// empty batch uploads nothing and yields an empty list.
func (s *productService) UploadImages(ctx context.Context, blobs []storage.Blob) ([]string, error) {
	if len(blobs) == 0 {
		return []string{}, nil
	}
	return s.uploader.Upload(ctx, blobs)
}

func (s *productService) checkAuthor(ctx context.Context, id uuid.UUID) error {
	_, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return &catalog.ValidationError{
			Field:   "author",
			Message: "author does not match any account",
			Err:     catalog.ErrInvalidAuthor,
		}
	}
	if err != nil {
		return fmt.Errorf("failed to look up author: %w", err)
	}
	return nil
}
