package feature

import (
	"slices"
	"strings"

	dErrors "yksilo/pkg/domain-errors"
)

// Feature names a switchable part of the product.
type Feature string

const (
	Paamaarat              Feature = "PAAMAARAT"
	Osaamiset              Feature = "OSAAMISET"
	Tyomahdollisuudet      Feature = "TYOMAHDOLLISUUDET"
	Koulutusmahdollisuudet Feature = "KOULUTUSMAHDOLLISUUDET"
	UlkoinenAPI            Feature = "ULKOINEN_API"
)

var all = []Feature{Paamaarat, Osaamiset, Tyomahdollisuudet, Koulutusmahdollisuudet, UlkoinenAPI}

// All returns every known feature in a stable order.
func All() []Feature {
	return slices.Clone(all)
}

func (f Feature) IsValid() bool {
	return slices.Contains(all, f)
}

func (f Feature) String() string {
	return string(f)
}

// ParseFeature accepts any casing, so configuration keys like "ulkoinen_api"
// map onto ULKOINEN_API.
func ParseFeature(s string) (Feature, error) {
	f := Feature(strings.ToUpper(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown feature: "+s)
	}
	return f, nil
}

// State is the resolved state of one feature.
type State struct {
	Feature    Feature `json:"feature"`
	Enabled    bool    `json:"enabled"`
	Overridden bool    `json:"overridden"`
}
