package domain

import (
	"strings"

	dErrors "yksilo/pkg/domain-errors"
)

// Kieli is a supported content language.
// Invariant: the value must be one of the supported languages. The zero value
// stands for "no language" and is never valid.
type Kieli string

const (
	KieliFI Kieli = "fi"
	KieliSV Kieli = "sv"
	KieliEN Kieli = "en"
)

// validKielet is the single source of truth for supported languages.
var validKielet = map[Kieli]bool{
	KieliFI: true,
	KieliSV: true,
	KieliEN: true,
}

// Kielet returns the supported languages in display order.
func Kielet() []Kieli {
	return []Kieli{KieliFI, KieliSV, KieliEN}
}

// ParseKieli constructs a Kieli from external input. Matching is
// case-insensitive so both "FI" and "fi" are accepted.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseKieli(s string) (Kieli, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "language cannot be empty")
	}
	k := Kieli(s)
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported language: "+s)
	}
	return k, nil
}

// IsValid checks if the language is one of the supported enum values.
func (k Kieli) IsValid() bool {
	return validKielet[k]
}

func (k Kieli) String() string {
	return string(k)
}
