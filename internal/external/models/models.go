// Package models holds the partner-facing profile view. Only profiles that
// consented to sharing appear in it, and it carries no flags or free-form
// personal data beyond goals.
package models

import (
	"time"

	mahdollisuus "yksilo/internal/mahdollisuus/models"
	yksilo "yksilo/internal/yksilo/models"
	id "yksilo/pkg/domain"
	"yksilo/pkg/platform/strings"
)

type ExtProfiiliDto struct {
	ID        id.YksiloID      `json:"id"`
	Muokattu  time.Time        `json:"muokattu"`
	Osaamiset []string         `json:"osaamiset"`
	Paamaarat []ExtPaamaaraDto `json:"paamaarat"`
}

type ExtPaamaaraDto struct {
	Tyyppi             yksilo.PaamaaraTyyppi `json:"tyyppi"`
	MahdollisuusTyyppi mahdollisuus.Tyyppi   `json:"mahdollisuusTyyppi"`
	MahdollisuusID     id.MahdollisuusID     `json:"mahdollisuusId"`
	Tavoite            id.LocalizedString    `json:"tavoite"`
}

// NewExtProfiili builds the view of one profile. A skill recorded from
// several sources is listed once.
func NewExtProfiili(y yksilo.Yksilo, osaamiset []yksilo.YksilonOsaaminen, paamaarat []yksilo.Paamaara) ExtProfiiliDto {
	uris := make([]string, 0, len(osaamiset))
	for _, o := range osaamiset {
		uris = append(uris, o.Osaaminen)
	}
	goals := make([]ExtPaamaaraDto, 0, len(paamaarat))
	for _, p := range paamaarat {
		goals = append(goals, ExtPaamaaraDto{
			Tyyppi:             p.Tyyppi,
			MahdollisuusTyyppi: p.MahdollisuusTyyppi,
			MahdollisuusID:     p.MahdollisuusID,
			Tavoite:            p.Tavoite,
		})
	}
	return ExtProfiiliDto{
		ID:        y.ID,
		Muokattu:  y.Muokattu,
		Osaamiset: strings.DedupeAndTrim(uris),
		Paamaarat: goals,
	}
}
