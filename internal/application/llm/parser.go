package llm

import (
	"encoding/json"
	"errors"
	"strings"

	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

// ExtractJSON returns the JSON candidate embedded in free-form model text:
// the span from the first '{' to the last '}' inclusive. When either brace
// is missing the whole trimmed text is returned.
//
// A string value containing a brace next to the outer object boundary can
// shift the span; see DESIGN.md before replacing this with a brace scanner.
func ExtractJSON(raw string) string {
	text := strings.TrimSpace(raw)
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first < 0 || last < 0 || last < first {
		return text
	}
	return text[first : last+1]
}

// Decode extracts the JSON candidate from raw and decodes it into T.
// Unknown fields are ignored and missing fields keep their zero value. The
// candidate must be an object, so null and bare scalars are rejected. Any
// failure is a MALFORMED_RESPONSE error and no partial value is returned.
func Decode[T any](raw string) (*T, error) {
	candidate := ExtractJSON(raw)
	if candidate == "" {
		return nil, apperrors.NewMalformedResponseError(errors.New("empty model response"))
	}
	if !strings.HasPrefix(candidate, "{") {
		return nil, apperrors.NewMalformedResponseError(errors.New("model response holds no JSON object"))
	}

	var out T
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		return nil, apperrors.NewMalformedResponseError(err)
	}
	return &out, nil
}
