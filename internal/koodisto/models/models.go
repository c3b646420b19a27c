// Package models holds the reference data types: code lists (koodisto) and
// their entries (koodi) with per-language names and descriptions.
package models

import (
	"regexp"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"yksilo/pkg/domain"
	dErrors "yksilo/pkg/domain-errors"
)

// Well-known code lists.
const (
	KoodistoKoulutus     = "koulutus"
	KoodistoAmmattiryhma = "ammattiryhma"
	KoodistoKieli        = "kieli"
)

var koodistoName = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// ValidateKoodisto checks a code list name taken from a URL or an import.
func ValidateKoodisto(name string) error {
	if err := validation.Validate(name, validation.Required, validation.Match(koodistoName)); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid koodisto name")
	}
	return nil
}

// Kaannos is one language's translation of a code.
type Kaannos struct {
	Nimi   string
	Kuvaus *string
}

// Field names a localized attribute of a code.
type Field string

const (
	FieldNimi   Field = "nimi"
	FieldKuvaus Field = "kuvaus"
)

// Projections picks each localized field out of a translation row. Every
// localized attribute is built through this table by domain.Localize.
var Projections = map[Field]func(*Kaannos) *string{
	FieldNimi:   func(k *Kaannos) *string { return &k.Nimi },
	FieldKuvaus: func(k *Kaannos) *string { return k.Kuvaus },
}

// Koodi is a code with its translations merged into localized strings.
type Koodi struct {
	Koodisto string
	Koodi    string
	Nimi     domain.LocalizedString
	Kuvaus   domain.LocalizedString
}

// NewKoodi merges translation rows into a Koodi.
func NewKoodi(koodisto, koodi string, kaannokset map[domain.Kieli]*Kaannos) (Koodi, error) {
	nimi, err := domain.Localize(kaannokset, Projections[FieldNimi])
	if err != nil {
		return Koodi{}, err
	}
	kuvaus, err := domain.Localize(kaannokset, Projections[FieldKuvaus])
	if err != nil {
		return Koodi{}, err
	}
	return Koodi{Koodisto: koodisto, Koodi: koodi, Nimi: nimi, Kuvaus: kuvaus}, nil
}

// Koulutuskoodi is an education code.
type Koulutuskoodi struct {
	Koodi
}

// Ammattiryhma is an occupation group code.
type Ammattiryhma struct {
	Koodi
}

func AsKoulutuskoodi(k Koodi) (Koulutuskoodi, bool) {
	if k.Koodisto != KoodistoKoulutus {
		return Koulutuskoodi{}, false
	}
	return Koulutuskoodi{Koodi: k}, true
}

func AsAmmattiryhma(k Koodi) (Ammattiryhma, bool) {
	if k.Koodisto != KoodistoAmmattiryhma {
		return Ammattiryhma{}, false
	}
	return Ammattiryhma{Koodi: k}, true
}

// Row is the storage and import shape: one code in one language.
type Row struct {
	Koodisto string
	Koodi    string
	Kieli    domain.Kieli
	Nimi     string
	Kuvaus   *string
}

// Group turns rows into codes, merging translations per (koodisto, koodi).
// Output is sorted by koodisto, then koodi.
func Group(rows []Row) ([]Koodi, error) {
	type key struct{ koodisto, koodi string }
	grouped := make(map[key]map[domain.Kieli]*Kaannos)
	var order []key
	for _, row := range rows {
		k := key{row.Koodisto, row.Koodi}
		if _, ok := grouped[k]; !ok {
			grouped[k] = make(map[domain.Kieli]*Kaannos)
			order = append(order, k)
		}
		grouped[k][row.Kieli] = &Kaannos{Nimi: row.Nimi, Kuvaus: row.Kuvaus}
	}
	slices.SortFunc(order, func(a, b key) int {
		if c := strings.Compare(a.koodisto, b.koodisto); c != 0 {
			return c
		}
		return strings.Compare(a.koodi, b.koodi)
	})

	out := make([]Koodi, 0, len(order))
	for _, k := range order {
		koodi, err := NewKoodi(k.koodisto, k.koodi, grouped[k])
		if err != nil {
			return nil, err
		}
		out = append(out, koodi)
	}
	return out, nil
}

// KoodiDto is the wire form of a code.
type KoodiDto struct {
	Koodisto string                 `json:"koodisto"`
	Koodi    string                 `json:"koodi"`
	Nimi     domain.LocalizedString `json:"nimi"`
	Kuvaus   domain.LocalizedString `json:"kuvaus"`
}

func ToDto(k Koodi) KoodiDto {
	return KoodiDto{Koodisto: k.Koodisto, Koodi: k.Koodi, Nimi: k.Nimi, Kuvaus: k.Kuvaus}
}

// ImportSummary reports the outcome of replacing one code list.
type ImportSummary struct {
	Koodisto string `json:"koodisto"`
	Koodit   int    `json:"koodit"`
	Rivit    int    `json:"rivit"`
}
