package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// Value is a loosely typed scalar taken from a request. Clients send prices
// both as JSON numbers and as strings, and form posts only carry strings, so
// the raw text is kept and coerced by the validator.
type Value struct {
	Set  bool
	Null bool
	Text string
}

// Text wraps a string that was present in the request.
func Text(s string) Value {
	return Value{Set: true, Text: s}
}

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (v *Value) UnmarshalJSON(data []byte) error {
	v.Set = true
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		v.Null = true
		v.Text = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		return json.Unmarshal(data, &v.Text)
	default:
		v.Text = string(data)
		return nil
	}
}

// Present reports whether the key was sent with a non-null value.
func (v Value) Present() bool {
	return v.Set && !v.Null
}

// Blank reports whether the value is absent, null or the empty string.
func (v Value) Blank() bool {
	return !v.Present() || v.Text == ""
}

// ImageInput is the image field of a product write. It arrives either as a
// list of references or as a single string, which on the update path may
// itself hold a JSON-encoded list.
type ImageInput struct {
	Set    bool
	IsList bool
	List   []string
	Text   string
}

// ImageList wraps a list of references, e.g. repeated form fields.
func ImageList(refs ...string) ImageInput {
	return ImageInput{Set: true, IsList: true, List: refs}
}

// ImageText wraps a single string value.
func ImageText(s string) ImageInput {
	return ImageInput{Set: true, Text: s}
}

// UnmarshalJSON accepts a string, an array, or null. Falsy array entries
// (null, false, 0, "") are dropped.
func (in *ImageInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*in = ImageInput{}
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		*in = ImageText(v)
	case []interface{}:
		*in = ImageList(truthyStrings(v)...)
	default:
		return errors.New("image must be a string or an array of strings")
	}
	return nil
}

// missing reports whether the field counts as not supplied at all: absent,
// null or an empty string. An empty list is supplied but yields no images.
func (in ImageInput) missing() bool {
	return !in.Set || (!in.IsList && in.Text == "")
}

// ProductInput carries the raw fields of a product create or update request.
type ProductInput struct {
	Name        Value      `json:"name"`
	Category    Value      `json:"category"`
	Description Value      `json:"description"`
	Price       Value      `json:"price"`
	OldPrice    Value      `json:"oldPrice"`
	Image       ImageInput `json:"image"`
	Author      Value      `json:"author"`
	Size        Value      `json:"size"`
	Color       Value      `json:"color"`
}

func truthyStrings(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		switch v := value.(type) {
		case string:
			if v != "" {
				out = append(out, v)
			}
		case float64:
			if v != 0 {
				out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
			}
		case bool:
			if v {
				out = append(out, "true")
			}
		case nil:
		default:
			if encoded, err := json.Marshal(v); err == nil {
				out = append(out, string(encoded))
			}
		}
	}
	return out
}
