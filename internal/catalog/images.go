package catalog

import (
	"encoding/json"
	"strings"
)

// NormalizeImages turns an image field into the canonical ordered list of
// non-empty references.
//
// A list keeps its non-empty entries in order. A single string is trimmed and
// wrapped. When decodeJSON is set, a string holding a JSON array is decoded
// first and its falsy entries dropped; any other JSON, or text that does not
// parse, is treated as a plain single reference.
func NormalizeImages(in ImageInput, decodeJSON bool) []string {
	if !in.Set {
		return nil
	}

	if in.IsList {
		out := make([]string, 0, len(in.List))
		for _, ref := range in.List {
			if ref != "" {
				out = append(out, ref)
			}
		}
		return out
	}

	if decodeJSON {
		if list, ok := decodeJSONList(in.Text); ok {
			return truthyStrings(list)
		}
	}

	if ref := strings.TrimSpace(in.Text); ref != "" {
		return []string{ref}
	}
	return []string{}
}

func decodeJSONList(text string) ([]interface{}, bool) {
	var decoded interface{}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, false
	}
	list, ok := decoded.([]interface{})
	return list, ok
}

// resolveUpdateImages picks the image list of an updated product: fresh
// uploads win, then an image field in the request, then the existing list.
// A whitespace-only string is not a replacement and keeps the existing list;
// an explicit list, even an empty one, always replaces.
func resolveUpdateImages(existing []string, uploaded []string, field ImageInput) []string {
	if len(uploaded) > 0 {
		return append([]string(nil), uploaded...)
	}
	if !field.missing() {
		refs := NormalizeImages(field, true)
		if len(refs) > 0 || field.IsList {
			return refs
		}
		if _, isList := decodeJSONList(field.Text); isList {
			return refs
		}
	}
	return append([]string(nil), existing...)
}
