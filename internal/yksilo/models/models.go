package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	mahdollisuus "yksilo/internal/mahdollisuus/models"
	id "yksilo/pkg/domain"
)

// MaxPaamaarat caps the goals one profile may hold.
const MaxPaamaarat = 100

// maxTavoite bounds each language of a goal's free text.
const maxTavoite = 10000

// Yksilo is the profile of one signed-in individual. Its id is the session
// subject.
type Yksilo struct {
	ID                                id.YksiloID
	Tervetuloapolku                   bool
	LupaLuovuttaaTiedotUlkopuoliselle bool
	LupaKayttaaTekoalynOminaisuuksia  bool
	Luotu                             time.Time
	Muokattu                          time.Time
}

type YksiloDto struct {
	ID                                id.YksiloID `json:"id"`
	Tervetuloapolku                   bool        `json:"tervetuloapolku"`
	LupaLuovuttaaTiedotUlkopuoliselle bool        `json:"lupaLuovuttaaTiedotUlkopuoliselle"`
	LupaKayttaaTekoalynOminaisuuksia  bool        `json:"lupaKayttaaTekoalynOminaisuuksia"`
	Muokattu                          time.Time   `json:"muokattu"`
}

func ToDto(y Yksilo) YksiloDto {
	return YksiloDto{
		ID:                                y.ID,
		Tervetuloapolku:                   y.Tervetuloapolku,
		LupaLuovuttaaTiedotUlkopuoliselle: y.LupaLuovuttaaTiedotUlkopuoliselle,
		LupaKayttaaTekoalynOminaisuuksia:  y.LupaKayttaaTekoalynOminaisuuksia,
		Muokattu:                          y.Muokattu,
	}
}

// UpdateRequest changes profile flags. Omitted flags keep their value, or
// default to false on a new profile.
type UpdateRequest struct {
	Tervetuloapolku                   *bool `json:"tervetuloapolku"`
	LupaLuovuttaaTiedotUlkopuoliselle *bool `json:"lupaLuovuttaaTiedotUlkopuoliselle"`
	LupaKayttaaTekoalynOminaisuuksia  *bool `json:"lupaKayttaaTekoalynOminaisuuksia"`
}

// Apply returns y with the requested flags set.
func (r UpdateRequest) Apply(y Yksilo) Yksilo {
	if r.Tervetuloapolku != nil {
		y.Tervetuloapolku = *r.Tervetuloapolku
	}
	if r.LupaLuovuttaaTiedotUlkopuoliselle != nil {
		y.LupaLuovuttaaTiedotUlkopuoliselle = *r.LupaLuovuttaaTiedotUlkopuoliselle
	}
	if r.LupaKayttaaTekoalynOminaisuuksia != nil {
		y.LupaKayttaaTekoalynOminaisuuksia = *r.LupaKayttaaTekoalynOminaisuuksia
	}
	return y
}

// PaamaaraTyyppi is the horizon of a goal.
type PaamaaraTyyppi string

const (
	PaamaaraLyhyt PaamaaraTyyppi = "LYHYT"
	PaamaaraPitka PaamaaraTyyppi = "PITKA"
	PaamaaraMuu   PaamaaraTyyppi = "MUU"
)

// Paamaara is a goal pointing at one catalog entry.
type Paamaara struct {
	ID                 id.PaamaaraID
	YksiloID           id.YksiloID
	Tyyppi             PaamaaraTyyppi
	MahdollisuusTyyppi mahdollisuus.Tyyppi
	MahdollisuusID     id.MahdollisuusID
	Tavoite            id.LocalizedString
	Luotu              time.Time
}

type PaamaaraDto struct {
	ID                 id.PaamaaraID       `json:"id"`
	Tyyppi             PaamaaraTyyppi      `json:"tyyppi"`
	MahdollisuusTyyppi mahdollisuus.Tyyppi `json:"mahdollisuusTyyppi"`
	MahdollisuusID     id.MahdollisuusID   `json:"mahdollisuusId"`
	Tavoite            id.LocalizedString  `json:"tavoite"`
	Luotu              time.Time           `json:"luotu"`
}

func ToPaamaaraDto(p Paamaara) PaamaaraDto {
	return PaamaaraDto{
		ID:                 p.ID,
		Tyyppi:             p.Tyyppi,
		MahdollisuusTyyppi: p.MahdollisuusTyyppi,
		MahdollisuusID:     p.MahdollisuusID,
		Tavoite:            p.Tavoite,
		Luotu:              p.Luotu,
	}
}

type AddPaamaaraRequest struct {
	Tyyppi             PaamaaraTyyppi      `json:"tyyppi"`
	MahdollisuusTyyppi mahdollisuus.Tyyppi `json:"mahdollisuusTyyppi"`
	MahdollisuusID     id.MahdollisuusID   `json:"mahdollisuusId"`
	Tavoite            id.LocalizedString  `json:"tavoite"`
}

func (r *AddPaamaaraRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Tyyppi, validation.Required, validation.In(PaamaaraLyhyt, PaamaaraPitka, PaamaaraMuu)),
		validation.Field(&r.MahdollisuusTyyppi, validation.Required, validation.In(mahdollisuus.TyyppiTyo, mahdollisuus.TyyppiKoulutus)),
		validation.Field(&r.MahdollisuusID, validation.By(func(any) error {
			if r.MahdollisuusID == (id.MahdollisuusID{}) {
				return validation.NewError("validation_required", "cannot be blank")
			}
			return nil
		})),
		validation.Field(&r.Tavoite, validation.By(func(any) error {
			for _, text := range r.Tavoite.AsMap() {
				if len([]rune(text)) > maxTavoite {
					return validation.NewError("validation_length_too_long", "is too long")
				}
			}
			return nil
		})),
	)
	return validationError("invalid paamaara", err)
}

// Lahde is where a skill was identified.
type Lahde string

const (
	LahdeToimenkuva   Lahde = "TOIMENKUVA"
	LahdeKoulutus     Lahde = "KOULUTUS"
	LahdePatevyys     Lahde = "PATEVYYS"
	LahdeMuuOsaaminen Lahde = "MUU_OSAAMINEN"
)

// YksilonOsaaminen links a profile to a skill URI.
type YksilonOsaaminen struct {
	ID        id.OsaaminenID
	YksiloID  id.YksiloID
	Osaaminen string
	Lahde     Lahde
	Luotu     time.Time
}

type OsaaminenDto struct {
	ID        id.OsaaminenID `json:"id"`
	Osaaminen string         `json:"osaaminen"`
	Lahde     Lahde          `json:"lahde"`
	Luotu     time.Time      `json:"luotu"`
}

func ToOsaaminenDto(o YksilonOsaaminen) OsaaminenDto {
	return OsaaminenDto{ID: o.ID, Osaaminen: o.Osaaminen, Lahde: o.Lahde, Luotu: o.Luotu}
}

type AddOsaaminenRequest struct {
	Osaaminen string `json:"osaaminen"`
	Lahde     Lahde  `json:"lahde"`
}

func (r *AddOsaaminenRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Osaaminen, validation.Required, validation.Length(1, 2048), is.URL),
		validation.Field(&r.Lahde, validation.Required, validation.In(LahdeToimenkuva, LahdeKoulutus, LahdePatevyys, LahdeMuuOsaaminen)),
	)
	return validationError("invalid osaaminen", err)
}
