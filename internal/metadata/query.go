package metadata

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/justyntemme/filmybuddy/internal/models"
)

// ErrInvalidQuery is wrapped by every MediaQuery validation failure
var ErrInvalidQuery = errors.New("invalid media query")

// ValidationError names the field that failed and wraps a sentinel
type ValidationError struct {
	Err    error
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s %s", e.Err, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// MediaQuery is what the user typed into the add form
type MediaQuery struct {
	Title    string           `json:"title"`
	Kind     models.MediaKind `json:"kind"`
	Year     string           `json:"year,omitempty"`
	Language string           `json:"language,omitempty"`
}

// Normalize validates the query and returns its canonical form: trimmed
// title, kind defaulting to Other, uppercase language code.
func (q MediaQuery) Normalize() (MediaQuery, error) {
	out := MediaQuery{Title: strings.TrimSpace(q.Title)}
	if out.Title == "" {
		return MediaQuery{}, &ValidationError{Err: ErrInvalidQuery, Field: "title", Reason: "is required"}
	}

	out.Kind = models.KindOther
	if q.Kind != "" {
		kind, ok := models.ParseMediaKind(string(q.Kind))
		if !ok {
			return MediaQuery{}, &ValidationError{Err: ErrInvalidQuery, Field: "kind", Reason: fmt.Sprintf("%q is not a known kind", q.Kind)}
		}
		out.Kind = kind
	}

	year, err := NormalizeYear(q.Year)
	if err != nil {
		return MediaQuery{}, &ValidationError{Err: ErrInvalidQuery, Field: "year", Reason: err.Error()}
	}
	out.Year = year

	lang, err := NormalizeLanguage(q.Language)
	if err != nil {
		return MediaQuery{}, &ValidationError{Err: ErrInvalidQuery, Field: "language", Reason: err.Error()}
	}
	out.Language = lang
	return out, nil
}

// NormalizeYear accepts an empty string or exactly four ASCII digits
func NormalizeYear(year string) (string, error) {
	year = strings.TrimSpace(year)
	if year == "" {
		return "", nil
	}
	if len(year) != 4 {
		return "", errors.New("must be exactly 4 digits")
	}
	for i := 0; i < len(year); i++ {
		if year[i] < '0' || year[i] > '9' {
			return "", errors.New("must be exactly 4 digits")
		}
	}
	return year, nil
}

// NormalizeLanguage accepts an empty string or a 2-3 letter code and
// returns the uppercase ISO 639-1 form when one exists ("kor" -> "KO").
func NormalizeLanguage(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil
	}
	if len(code) < 2 || len(code) > 3 {
		return "", errors.New("must be a 2-3 letter code")
	}
	for i := 0; i < len(code); i++ {
		c := code[i] | 0x20
		if c < 'a' || c > 'z' {
			return "", errors.New("must be a 2-3 letter code")
		}
	}
	lower := strings.ToLower(code)
	if base, err := language.ParseBase(lower); err == nil {
		return strings.ToUpper(base.String()), nil
	}
	return strings.ToUpper(lower), nil
}

// cacheKey is the exact (title, kind, year, language) tuple
func (q MediaQuery) cacheKey() string {
	return string(q.Kind) + "|" + q.Year + "|" + q.Language + "|" + q.Title
}
