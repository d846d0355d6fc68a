package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront-catalog/internal/catalog"
	"storefront-catalog/internal/domain"
	"storefront-catalog/internal/middleware"
	"storefront-catalog/internal/repository"
	"storefront-catalog/internal/service"
	"storefront-catalog/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

// stubProductService records what the handler passed and returns canned results.
type stubProductService struct {
	products map[uuid.UUID]*domain.Product
	err      error

	lastParams catalog.ListParams
	lastInput  catalog.ProductInput
	lastFiles  []storage.Blob
	lastBlobs  []storage.Blob
}

func newStubProductService(products ...*domain.Product) *stubProductService {
	s := &stubProductService{products: make(map[uuid.UUID]*domain.Product)}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *stubProductService) find(id uuid.UUID) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (s *stubProductService) Create(ctx context.Context, in catalog.ProductInput) (*domain.Product, error) {
	s.lastInput = in
	if s.err != nil {
		return nil, s.err
	}
	p, err := catalog.PrepareProductForCreate(in)
	if err != nil {
		return nil, err
	}
	p.ID = uuid.New()
	return p, nil
}

func (s *stubProductService) List(ctx context.Context, params catalog.ListParams) (*service.ListResult, error) {
	s.lastParams = params
	if s.err != nil {
		return nil, s.err
	}
	out := []*domain.Product{}
	for _, p := range s.products {
		out = append(out, p)
	}
	return &service.ListResult{Products: out, TotalPages: 1, TotalProducts: len(out)}, nil
}

func (s *stubProductService) Get(ctx context.Context, id uuid.UUID) (*service.ProductDetail, error) {
	p, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return &service.ProductDetail{Product: p, Reviews: []*domain.Review{}}, nil
}

func (s *stubProductService) Related(ctx context.Context, id uuid.UUID) ([]*domain.Product, error) {
	if _, err := s.find(id); err != nil {
		return nil, err
	}
	return []*domain.Product{}, nil
}

func (s *stubProductService) Update(ctx context.Context, id uuid.UUID, in catalog.ProductInput, files []storage.Blob) (*domain.Product, error) {
	s.lastInput = in
	s.lastFiles = files
	existing, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return catalog.PrepareProductForUpdate(existing, in, nil)
}

func (s *stubProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.find(id); err != nil {
		return err
	}
	delete(s.products, id)
	return nil
}

func (s *stubProductService) UploadImages(ctx context.Context, blobs []storage.Blob) ([]string, error) {
	s.lastBlobs = blobs
	if s.err != nil {
		return nil, s.err
	}
	urls := make([]string, len(blobs))
	for i := range blobs {
		urls[i] = fmt.Sprintf("https://cdn.example.com/%d.png", i)
	}
	return urls, nil
}

func newTestRouter(svc service.ProductService) http.Handler {
	logger := zap.NewNop()
	r := chi.NewRouter()
	NewProductHandler(svc, logger).RegisterRoutes(r,
		middleware.AuthMiddleware(testSecret, logger),
		middleware.RequireAdmin(logger),
	)
	return r
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func sampleProduct() *domain.Product {
	return &domain.Product{
		ID:          uuid.New(),
		Name:        "Leather Bag",
		Category:    domain.CategoryBags,
		Description: "Soft leather",
		Price:       120,
		Images:      []string{"a.jpg"},
		AuthorID:    uuid.New(),
	}
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func errorMessage(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	msg, _ := e["message"].(string)
	return msg
}

func TestList_PassesQueryParameters(t *testing.T) {
	svc := newStubProductService(sampleProduct())
	req := httptest.NewRequest(http.MethodGet, "/api/products?category=all&size=L&color=red&minPrice=5&maxPrice=50&page=2&limit=20", nil)

	w, body := do(t, newTestRouter(svc), req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, catalog.ListParams{
		Category: "all", Size: "L", Color: "red", MinPrice: "5", MaxPrice: "50", Page: "2", Limit: "20",
	}, svc.lastParams)
	assert.Contains(t, body, "products")
	assert.Equal(t, 1.0, body["totalPages"])
	assert.Equal(t, 1.0, body["totalProducts"])
}

func TestList_PersistenceFailureIsOpaque(t *testing.T) {
	svc := newStubProductService()
	svc.err = errors.New("pq: relation products does not exist")

	w, body := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to fetch products", errorMessage(body))
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestGet_BothPaths(t *testing.T) {
	p := sampleProduct()
	router := newTestRouter(newStubProductService(p))

	for _, path := range []string{"/api/products/" + p.ID.String(), "/api/products/product/" + p.ID.String()} {
		w, body := do(t, router, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusOK, w.Code, path)
		product, _ := body["product"].(map[string]interface{})
		assert.Equal(t, p.ID.String(), product["_id"])
		assert.Contains(t, body, "reviews")
	}
}

func TestGet_NotFoundAndBadID(t *testing.T) {
	router := newTestRouter(newStubProductService())

	w, _ := do(t, router, httptest.NewRequest(http.MethodGet, "/api/products/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, router, httptest.NewRequest(http.MethodGet, "/api/products/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate(t *testing.T) {
	svc := newStubProductService()
	body := `{"name":"Cover","category":"كڤرات","description":"Slim","price":"0","image":"a.jpg","author":"` + uuid.NewString() + `"}`

	w, resp := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodPost, "/api/products/create-product", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Cover", resp["name"])
	assert.Equal(t, []interface{}{"a.jpg"}, resp["image"])
	assert.NotContains(t, resp, "oldPrice")
}

func TestCreate_ValidationErrors(t *testing.T) {
	cases := map[string]struct {
		body  string
		field string
	}{
		"missing name":     {body: `{"category":"كڤرات","description":"d","price":1,"image":"a","author":"x"}`, field: "name"},
		"unknown category": {body: `{"name":"n","category":"Shoes","description":"d","price":1,"image":"a","author":"` + uuid.NewString() + `"}`, field: "category"},
		"negative price":   {body: `{"name":"n","category":"كڤرات","description":"d","price":"-5","image":"a","author":"` + uuid.NewString() + `"}`, field: "price"},
		"empty images":     {body: `{"name":"n","category":"كڤرات","description":"d","price":1,"image":[""],"author":"` + uuid.NewString() + `"}`, field: "image"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/products/create-product", strings.NewReader(tc.body))
			w, body := do(t, newTestRouter(newStubProductService()), req)

			require.Equal(t, http.StatusBadRequest, w.Code)
			e := body["error"].(map[string]interface{})
			details := e["details"].(map[string]interface{})
			assert.Equal(t, tc.field, details["field"])
		})
	}
}

func TestCreate_MalformedBody(t *testing.T) {
	w, _ := do(t, newTestRouter(newStubProductService()),
		httptest.NewRequest(http.MethodPost, "/api/products/create-product", strings.NewReader(`{"image": 5}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadImages(t *testing.T) {
	svc := newStubProductService()
	png := base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n0000"))
	body := `{"images":["` + png + `","data:image/png;base64,` + png + `"]}`

	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/products/uploadImages", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	var urls []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &urls))
	assert.Len(t, urls, 2)
	assert.Len(t, svc.lastBlobs, 2)
}

func TestUploadImages_Rejects(t *testing.T) {
	for name, body := range map[string]string{
		"missing images": `{}`,
		"not an array":   `{"images":"abc"}`,
		"bad base64":     `{"images":["%%%"]}`,
	} {
		t.Run(name, func(t *testing.T) {
			svc := newStubProductService()
			w, _ := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodPost, "/api/products/uploadImages", strings.NewReader(body)))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, svc.lastBlobs)
		})
	}
}

func TestUploadImages_EmptyArray(t *testing.T) {
	svc := newStubProductService()

	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/products/uploadImages", strings.NewReader(`{"images":[]}`)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Empty(t, svc.lastBlobs)
}

func TestUpdate_RequiresAdmin(t *testing.T) {
	p := sampleProduct()
	router := newTestRouter(newStubProductService(p))
	path := "/api/products/update-product/" + p.ID.String()

	w, _ := do(t, router, httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{}`))
	req.Header.Set("Authorization", bearer(t, "user"))
	w, _ = do(t, router, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdate_JSON(t *testing.T) {
	p := sampleProduct()
	svc := newStubProductService(p)

	req := httptest.NewRequest(http.MethodPatch, "/api/products/update-product/"+p.ID.String(),
		strings.NewReader(`{"name":"Bag","category":"حقائب","description":"New","price":"80","image":"[\"x.jpg\",\"y.jpg\"]"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, middleware.RoleAdmin))

	w, body := do(t, newTestRouter(svc), req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "product updated successfully", body["message"])
	product := body["product"].(map[string]interface{})
	assert.Equal(t, []interface{}{"x.jpg", "y.jpg"}, product["image"])
	assert.Empty(t, svc.lastFiles)
}

func multipartUpdate(t *testing.T, fields map[string]string, files int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for i := 0; i < files; i++ {
		fw, err := mw.CreateFormFile("image", fmt.Sprintf("photo-%d.png", i))
		require.NoError(t, err)
		_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpdate_MultipartFiles(t *testing.T) {
	p := sampleProduct()
	svc := newStubProductService(p)

	body, contentType := multipartUpdate(t, map[string]string{
		"name":        " Bag ",
		"category":    "حقائب",
		"description": "New",
		"price":       "80",
		"color":       "black",
	}, 2)

	req := httptest.NewRequest(http.MethodPatch, "/api/products/update-product/"+p.ID.String(), body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearer(t, middleware.RoleAdmin))

	w, _ := do(t, newTestRouter(svc), req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, svc.lastFiles, 2)
	assert.Equal(t, catalog.Text(" Bag "), svc.lastInput.Name)
	assert.Equal(t, catalog.Text("black"), svc.lastInput.Color)
	assert.False(t, svc.lastInput.OldPrice.Set)
}

func TestUpdate_TooManyFiles(t *testing.T) {
	p := sampleProduct()
	svc := newStubProductService(p)

	body, contentType := multipartUpdate(t, map[string]string{"name": "Bag"}, MaxUpdateImages+1)
	req := httptest.NewRequest(http.MethodPatch, "/api/products/update-product/"+p.ID.String(), body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearer(t, middleware.RoleAdmin))

	w, _ := do(t, newTestRouter(svc), req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.lastFiles)
}

func TestUpdate_NotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/api/products/update-product/"+uuid.NewString(), strings.NewReader(`{}`))
	req.Header.Set("Authorization", bearer(t, middleware.RoleAdmin))

	w, _ := do(t, newTestRouter(newStubProductService()), req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductInputFromForm(t *testing.T) {
	in := productInputFromForm(map[string][]string{
		"name":  {"Bag"},
		"image": {"a.jpg", "b.jpg"},
	})
	assert.Equal(t, catalog.Text("Bag"), in.Name)
	assert.Equal(t, catalog.ImageList("a.jpg", "b.jpg"), in.Image)
	assert.False(t, in.Price.Set)

	in = productInputFromForm(map[string][]string{"image": {`["a.jpg"]`}})
	assert.Equal(t, catalog.ImageText(`["a.jpg"]`), in.Image)
}

func TestDelete(t *testing.T) {
	p := sampleProduct()
	svc := newStubProductService(p)
	router := newTestRouter(svc)

	w, body := do(t, router, httptest.NewRequest(http.MethodDelete, "/api/products/"+p.ID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "product deleted successfully", body["message"])

	w, _ = do(t, router, httptest.NewRequest(http.MethodDelete, "/api/products/"+p.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelete_CascadeFailureIs500(t *testing.T) {
	p := sampleProduct()
	svc := newStubProductService(p)
	svc.err = fmt.Errorf("%w: timeout", service.ErrReviewCascade)

	w, body := do(t, newTestRouter(svc), httptest.NewRequest(http.MethodDelete, "/api/products/"+p.ID.String(), nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to delete the product", errorMessage(body))
}

func TestRelated(t *testing.T) {
	p := sampleProduct()
	router := newTestRouter(newStubProductService(p))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/related/"+p.ID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/related/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
