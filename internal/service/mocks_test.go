package service

import (
	"context"
	"sync"

	"storefront-catalog/internal/domain"
	"storefront-catalog/internal/query"
	"storefront-catalog/internal/repository"
	"storefront-catalog/internal/storage"

	"github.com/google/uuid"
)

// Mock repositories for testing

type mockProductRepository struct {
	mu        sync.Mutex
	products  map[uuid.UUID]*domain.Product
	total     int
	lastQuery query.Predicate
	lastOpts  repository.FindOptions
	updates   int
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepository) has(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.products[id]
	return ok
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *product
	m.products[product.ID] = &stored
	return &stored, nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return nil, repository.ErrProductNotFound
	}
	m.updates++
	stored := *product
	m.products[product.ID] = &stored
	return &stored, nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	found := *p
	return &found, nil
}

// Find records the predicate and returns every stored product; filtering is
// covered by the repository integration tests.
func (m *mockProductRepository) Find(ctx context.Context, filter query.Predicate, opts repository.FindOptions) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = filter
	m.lastOpts = opts
	out := []*domain.Product{}
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProductRepository) Count(ctx context.Context, filter query.Predicate) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.total > 0 {
		return m.total, nil
	}
	return len(m.products), nil
}

type mockReviewRepository struct {
	reviews   map[uuid.UUID]*domain.Review
	products  *mockProductRepository
	deleteErr error
}

func newMockReviewRepository(products *mockProductRepository) *mockReviewRepository {
	return &mockReviewRepository{
		reviews:  make(map[uuid.UUID]*domain.Review),
		products: products,
	}
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	m.reviews[review.ID] = review
	return nil
}

func (m *mockReviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	out := []*domain.Review{}
	for _, r := range m.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReviewRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var n int64
	for id, r := range m.reviews {
		if r.ProductID == productID {
			delete(m.reviews, id)
			n++
		}
	}
	return n, nil
}

func (m *mockReviewRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	var n int64
	for id, r := range m.reviews {
		if !m.products.has(r.ProductID) {
			delete(m.reviews, id)
			n++
		}
	}
	return n, nil
}

func (m *mockReviewRepository) countFor(productID uuid.UUID) int {
	n := 0
	for _, r := range m.reviews {
		if r.ProductID == productID {
			n++
		}
	}
	return n
}

type mockUserRepository struct {
	users map[uuid.UUID]*domain.User
}

func newMockUserRepository(users ...*domain.User) *mockUserRepository {
	m := &mockUserRepository{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.ID]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, exists := m.users[id]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

type mockUploader struct {
	calls int
	urls  []string
	err   error
}

func (m *mockUploader) Upload(ctx context.Context, blobs []storage.Blob) ([]string, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.urls[:len(blobs)], nil
}
