package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	id "yksilo/pkg/domain"
	dErrors "yksilo/pkg/domain-errors"
)

// Tyyppi distinguishes job opportunities from education opportunities.
type Tyyppi string

const (
	TyyppiTyo      Tyyppi = "TYOMAHDOLLISUUS"
	TyyppiKoulutus Tyyppi = "KOULUTUSMAHDOLLISUUS"
)

func (t Tyyppi) IsValid() bool {
	return t == TyyppiTyo || t == TyyppiKoulutus
}

// Mahdollisuus is a catalog entry. The catalog is maintained by admin import
// and read-only elsewhere.
type Mahdollisuus struct {
	ID          id.MahdollisuusID
	Tyyppi      Tyyppi
	Otsikko     id.LocalizedString
	Tiivistelma id.LocalizedString
	Kuvaus      id.LocalizedString
	Aktiivinen  bool
	Muokattu    time.Time
}

// MahdollisuusDto is the public wire form.
type MahdollisuusDto struct {
	ID          id.MahdollisuusID  `json:"id"`
	Tyyppi      Tyyppi             `json:"tyyppi"`
	Otsikko     id.LocalizedString `json:"otsikko"`
	Tiivistelma id.LocalizedString `json:"tiivistelma"`
	Kuvaus      id.LocalizedString `json:"kuvaus"`
}

func ToDto(m Mahdollisuus) MahdollisuusDto {
	return MahdollisuusDto{
		ID:          m.ID,
		Tyyppi:      m.Tyyppi,
		Otsikko:     m.Otsikko,
		Tiivistelma: m.Tiivistelma,
		Kuvaus:      m.Kuvaus,
	}
}

// UpsertRequest is one catalog entry in an admin import.
type UpsertRequest struct {
	ID          id.MahdollisuusID  `json:"id"`
	Tyyppi      Tyyppi             `json:"tyyppi"`
	Otsikko     id.LocalizedString `json:"otsikko"`
	Tiivistelma id.LocalizedString `json:"tiivistelma"`
	Kuvaus      id.LocalizedString `json:"kuvaus"`
	Aktiivinen  *bool              `json:"aktiivinen"`
}

func (r UpsertRequest) validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.By(func(any) error {
			if r.ID == (id.MahdollisuusID{}) {
				return validation.NewError("validation_required", "cannot be blank")
			}
			return nil
		})),
		validation.Field(&r.Tyyppi, validation.Required, validation.In(TyyppiTyo, TyyppiKoulutus)),
		validation.Field(&r.Otsikko, validation.By(func(any) error {
			if r.Otsikko.IsEmpty() {
				return validation.NewError("validation_required", "cannot be blank")
			}
			return nil
		})),
	)
}

// UpsertBatch is the body of PUT /admin/mahdollisuudet.
type UpsertBatch []UpsertRequest

const maxBatch = 5000

func (b *UpsertBatch) Validate() error {
	if len(*b) == 0 {
		return dErrors.New(dErrors.CodeValidation, "batch is empty")
	}
	if len(*b) > maxBatch {
		return dErrors.New(dErrors.CodeValidation, "batch is too large")
	}
	var details []string
	seen := make(map[id.MahdollisuusID]bool, len(*b))
	for i, r := range *b {
		if err := r.validate(); err != nil {
			details = append(details, itemDetails(i, err)...)
			continue
		}
		if seen[r.ID] {
			details = append(details, itemPrefix(i)+"id: duplicate")
		}
		seen[r.ID] = true
	}
	if len(details) > 0 {
		return dErrors.WithDetails(dErrors.CodeValidation, "invalid mahdollisuus batch", details...)
	}
	return nil
}

// ToModels converts a validated batch, stamping muokattu.
func (b UpsertBatch) ToModels(now time.Time) []Mahdollisuus {
	out := make([]Mahdollisuus, 0, len(b))
	for _, r := range b {
		aktiivinen := true
		if r.Aktiivinen != nil {
			aktiivinen = *r.Aktiivinen
		}
		out = append(out, Mahdollisuus{
			ID:          r.ID,
			Tyyppi:      r.Tyyppi,
			Otsikko:     r.Otsikko,
			Tiivistelma: r.Tiivistelma,
			Kuvaus:      r.Kuvaus,
			Aktiivinen:  aktiivinen,
			Muokattu:    now,
		})
	}
	return out
}

// UpsertSummary reports an import.
type UpsertSummary struct {
	Tallennettu int `json:"tallennettu"`
}
