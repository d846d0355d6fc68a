package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"storefront-catalog/internal/catalog"
	"storefront-catalog/internal/domain"
	"storefront-catalog/internal/middleware"
	"storefront-catalog/internal/repository"
	"storefront-catalog/internal/service"
	"storefront-catalog/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxUpdateImages caps the image files accepted by one update.
	MaxUpdateImages    = 10
	maxMultipartMemory = 32 << 20
	imageFormField     = "image"
)

// UploadImagesRequest represents the image upload payload. Each entry is raw
// base64 or a data URI.
type UploadImagesRequest struct {
	Images []string `json:"images" validate:"required,dive,required"`
}

// MessageResponse is a bare confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}

// UpdateProductResponse represents the update response
type UpdateProductResponse struct {
	Message string          `json:"message"`
	Product *domain.Product `json:"product"`
}

// ProductHandler handles HTTP requests for catalog operations
type ProductHandler struct {
	products service.ProductService
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// RegisterRoutes registers all product routes. Only updates are guarded.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Post("/uploadImages", h.UploadImages)
		r.Post("/create-product", h.Create)
		r.Get("/", h.List)
		r.Get("/related/{id}", h.Related)
		r.Get("/product/{id}", h.Get)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			r.Patch("/update-product/{id}", h.Update)
		})
	})
}

// UploadImages stores base64 images and returns their URLs
func (h *ProductHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	var req UploadImagesRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Upload validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "images must be an array of base64 strings")
		return
	}

	blobs := make([]storage.Blob, 0, len(req.Images))
	for i, encoded := range req.Images {
		blob, err := storage.DecodeBase64(encoded)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("image %d: %v", i, err))
			return
		}
		blobs = append(blobs, blob)
	}

	urls, err := h.products.UploadImages(r.Context(), blobs)
	if err != nil {
		h.respondError(w, r, err, "failed to upload images")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, urls)
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, _, err := h.readProductInput(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.products.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err, "failed to create new product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// List handles the filtered, paginated catalog listing
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := catalog.ListParams{
		Category: q.Get("category"),
		Size:     q.Get("size"),
		Color:    q.Get("color"),
		MinPrice: q.Get("minPrice"),
		MaxPrice: q.Get("maxPrice"),
		Page:     q.Get("page"),
		Limit:    q.Get("limit"),
	}

	result, err := h.products.List(r.Context(), params)
	if err != nil {
		h.respondError(w, r, err, "failed to fetch products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Get returns a product with its reviews
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	detail, err := h.products.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "failed to fetch the product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, detail)
}

// Related returns products similar to the one in the path
func (h *ProductHandler) Related(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	related, err := h.products.Related(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "failed to fetch related products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, related)
}

// Update handles JSON or multipart product updates
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	in, files, err := h.readProductInput(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.products.Update(r.Context(), id, in, files)
	if err != nil {
		h.respondError(w, r, err, "failed to update the product")
		return
	}

	userID, _ := middleware.GetUserID(r.Context())
	h.logger.Info("Product updated by admin",
		zap.String("product_id", id.String()),
		zap.String("user_id", userID),
	)
	middleware.RespondWithJSON(w, http.StatusOK, UpdateProductResponse{
		Message: "product updated successfully",
		Product: product,
	})
}

// Delete removes a product and its reviews
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err, "failed to delete the product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "product deleted successfully"})
}

func (h *ProductHandler) productID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return uuid.Nil, false
	}
	return id, true
}

// readProductInput accepts a JSON body or a multipart form. Multipart image
// files are returned separately; text "image" values stay in the input.
func (h *ProductHandler) readProductInput(r *http.Request) (catalog.ProductInput, []storage.Blob, error) {
	var in catalog.ProductInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return in, nil, errors.New("invalid request body")
		}
		return in, nil, nil
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return in, nil, errors.New("invalid multipart form")
	}
	form := r.MultipartForm
	defer form.RemoveAll()

	in = productInputFromForm(form.Value)

	headers := form.File[imageFormField]
	if len(headers) > MaxUpdateImages {
		return in, nil, fmt.Errorf("at most %d image files are allowed", MaxUpdateImages)
	}

	files := make([]storage.Blob, 0, len(headers))
	for _, fh := range headers {
		data, err := readFormFile(fh)
		if err != nil {
			h.logger.Warn("Failed to read uploaded file", zap.String("filename", fh.Filename), zap.Error(err))
			return in, nil, errors.New("could not read uploaded image")
		}
		files = append(files, storage.Blob{Data: data})
	}
	return in, files, nil
}

func productInputFromForm(values map[string][]string) catalog.ProductInput {
	text := func(key string) catalog.Value {
		if v, ok := values[key]; ok && len(v) > 0 {
			return catalog.Text(v[0])
		}
		return catalog.Value{}
	}

	in := catalog.ProductInput{
		Name:        text("name"),
		Category:    text("category"),
		Description: text("description"),
		Price:       text("price"),
		OldPrice:    text("oldPrice"),
		Author:      text("author"),
		Size:        text("size"),
		Color:       text("color"),
	}

	switch refs := values[imageFormField]; {
	case len(refs) > 1:
		in.Image = catalog.ImageList(refs...)
	case len(refs) == 1:
		in.Image = catalog.ImageText(refs[0])
	}
	return in
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// respondError maps service errors onto HTTP statuses. Anything unexpected
// is logged and reported without detail.
func (h *ProductHandler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var validationErr *catalog.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.logger.Debug("Product validation failed", zap.String("field", validationErr.Field), zap.Error(err))
		middleware.RespondWithErrorDetails(w, http.StatusBadRequest, validationErr.Message, map[string]interface{}{
			"field": validationErr.Field,
		})
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, storage.ErrUnsupportedImage),
		errors.Is(err, storage.ErrEmptyImage),
		errors.Is(err, storage.ErrInvalidEncoding):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(fallback,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
