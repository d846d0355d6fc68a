package catalog

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"storefront-catalog/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidPrice    = errors.New("invalid price")
	ErrMissingImage    = errors.New("missing image")
	ErrInvalidAuthor   = errors.New("invalid author")
)

// ValidationError describes a rejected product write. It wraps one of the
// sentinel errors above so callers can branch with errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, kind error, message string) error {
	return &ValidationError{Field: field, Message: message, Err: kind}
}

func missingField(field string) error {
	return invalid(field, ErrMissingField, "all required fields must be provided")
}

// PrepareProductForCreate validates a create request and returns the
// canonical product to insert. ID and timestamps are left for the caller.
func PrepareProductForCreate(in ProductInput) (*domain.Product, error) {
	switch {
	case in.Name.Blank():
		return nil, missingField("name")
	case in.Category.Blank():
		return nil, missingField("category")
	case in.Description.Blank():
		return nil, missingField("description")
	case in.Price.Blank():
		return nil, missingField("price")
	case in.Image.missing():
		return nil, missingField("image")
	case in.Author.Blank():
		return nil, missingField("author")
	}

	category, err := parseCategory(in.Category)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name.Text)
	if name == "" {
		return nil, missingField("name")
	}
	description := strings.TrimSpace(in.Description.Text)
	if description == "" {
		return nil, missingField("description")
	}

	price, err := parsePrice("price", in.Price)
	if err != nil {
		return nil, err
	}
	oldPrice, err := parseOldPrice(in.OldPrice)
	if err != nil {
		return nil, err
	}

	images := NormalizeImages(in.Image, false)
	if len(images) == 0 {
		return nil, invalid("image", ErrMissingImage, "at least one image is required")
	}

	author, err := parseAuthor(in.Author)
	if err != nil {
		return nil, err
	}

	return &domain.Product{
		Name:        name,
		Category:    category,
		Description: description,
		Price:       price,
		OldPrice:    oldPrice,
		Images:      images,
		AuthorID:    author,
		Size:        strings.TrimSpace(in.Size.Text),
		Color:       strings.TrimSpace(in.Color.Text),
	}, nil
}

// ValidateUpdateFields checks the scalar fields of an update request,
// including the format of a resupplied author. It is safe to call before any
// upload so that bad input never reaches blob storage.
func ValidateUpdateFields(in ProductInput) error {
	_, err := validateUpdateFields(in)
	return err
}

// UpdateAuthor returns the author an update request resolves to: the
// resupplied one when present, the stored one otherwise.
func UpdateAuthor(existing *domain.Product, in ProductInput) (uuid.UUID, error) {
	if in.Author.Blank() {
		return existing.AuthorID, nil
	}
	return parseAuthor(in.Author)
}

type updateFields struct {
	name        string
	category    domain.Category
	description string
	price       float64
	oldPrice    *float64
	author      uuid.UUID // uuid.Nil when not resupplied
}

func validateUpdateFields(in ProductInput) (updateFields, error) {
	var f updateFields

	f.name = strings.TrimSpace(in.Name.Text)
	f.description = strings.TrimSpace(in.Description.Text)
	switch {
	case f.name == "":
		return f, missingField("name")
	case in.Category.Blank():
		return f, missingField("category")
	case f.description == "":
		return f, missingField("description")
	case in.Price.Blank():
		return f, missingField("price")
	}

	var err error
	if f.category, err = parseCategory(in.Category); err != nil {
		return f, err
	}
	if f.price, err = parsePrice("price", in.Price); err != nil {
		return f, err
	}
	if f.oldPrice, err = parseOldPrice(in.OldPrice); err != nil {
		return f, err
	}
	if !in.Author.Blank() {
		if f.author, err = parseAuthor(in.Author); err != nil {
			return f, err
		}
	}
	return f, nil
}

// PrepareProductForUpdate validates an update request against the stored
// product and returns the full replacement record.
//
// The author is carried forward unless resupplied. Images come from uploaded
// (references already returned by the upload collaborator), then the request's
// image field, then the existing product. An omitted oldPrice clears the
// stored one. Size and color are replaced only when supplied.
func PrepareProductForUpdate(existing *domain.Product, in ProductInput, uploaded []string) (*domain.Product, error) {
	fields, err := validateUpdateFields(in)
	if err != nil {
		return nil, err
	}

	images := resolveUpdateImages(existing.Images, uploaded, in.Image)
	if len(images) == 0 {
		return nil, invalid("image", ErrMissingImage, "attach at least one image or keep the existing ones")
	}

	author := existing.AuthorID
	if fields.author != uuid.Nil {
		author = fields.author
	}

	updated := *existing
	updated.Name = fields.name
	updated.Category = fields.category
	updated.Description = fields.description
	updated.Price = fields.price
	updated.OldPrice = fields.oldPrice
	updated.Images = images
	updated.AuthorID = author
	if author != existing.AuthorID {
		updated.Author = nil
	}
	if in.Size.Present() {
		updated.Size = strings.TrimSpace(in.Size.Text)
	}
	if in.Color.Present() {
		updated.Color = strings.TrimSpace(in.Color.Text)
	}
	return &updated, nil
}

func parseCategory(v Value) (domain.Category, error) {
	category, ok := domain.ParseCategory(v.Text)
	if !ok {
		return "", invalid("category", ErrInvalidCategory,
			fmt.Sprintf("category not allowed; available categories: %s", domain.CategoryLabels()))
	}
	return category, nil
}

func parsePrice(field string, v Value) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0, invalid(field, ErrInvalidPrice, fmt.Sprintf("invalid %s value", field))
	}
	return price, nil
}

// parseOldPrice returns nil when oldPrice was not sent, sent as null, or sent
// as the empty string.
func parseOldPrice(v Value) (*float64, error) {
	if v.Blank() {
		return nil, nil
	}
	oldPrice, err := parsePrice("oldPrice", v)
	if err != nil {
		return nil, err
	}
	return &oldPrice, nil
}

func parseAuthor(v Value) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(v.Text))
	if err != nil {
		return uuid.Nil, invalid("author", ErrInvalidAuthor, "author must be a valid account id")
	}
	return id, nil
}
