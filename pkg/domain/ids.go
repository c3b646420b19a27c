package domain

import (
	"github.com/google/uuid"

	dErrors "yksilo/pkg/domain-errors"
)

// Typed identifiers keep profile, goal, skill and catalog ids from being mixed
// up at compile time. Construct them with the Parse* helpers at trust
// boundaries.
type (
	YksiloID       uuid.UUID
	PaamaaraID     uuid.UUID
	OsaaminenID    uuid.UUID
	MahdollisuusID uuid.UUID
)

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return parsed, nil
}

// ParseYksiloID parses a profile id. Errors carry CodeInvalidInput.
func ParseYksiloID(s string) (YksiloID, error) {
	u, err := parseUUID(s, "yksilo id")
	return YksiloID(u), err
}

func ParsePaamaaraID(s string) (PaamaaraID, error) {
	u, err := parseUUID(s, "paamaara id")
	return PaamaaraID(u), err
}

func ParseOsaaminenID(s string) (OsaaminenID, error) {
	u, err := parseUUID(s, "osaaminen id")
	return OsaaminenID(u), err
}

func ParseMahdollisuusID(s string) (MahdollisuusID, error) {
	u, err := parseUUID(s, "mahdollisuus id")
	return MahdollisuusID(u), err
}

func (id YksiloID) String() string       { return uuid.UUID(id).String() }
func (id PaamaaraID) String() string     { return uuid.UUID(id).String() }
func (id OsaaminenID) String() string    { return uuid.UUID(id).String() }
func (id MahdollisuusID) String() string { return uuid.UUID(id).String() }

func (id YksiloID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id YksiloID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id PaamaaraID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id OsaaminenID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id MahdollisuusID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *MahdollisuusID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "mahdollisuus id")
	if err != nil {
		return err
	}
	*id = MahdollisuusID(u)
	return nil
}

func (id *YksiloID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "yksilo id")
	if err != nil {
		return err
	}
	*id = YksiloID(u)
	return nil
}

func (id *PaamaaraID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "paamaara id")
	if err != nil {
		return err
	}
	*id = PaamaaraID(u)
	return nil
}

func (id *OsaaminenID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "osaaminen id")
	if err != nil {
		return err
	}
	*id = OsaaminenID(u)
	return nil
}

// New ids for rows created by this service.
func NewPaamaaraID() PaamaaraID         { return PaamaaraID(uuid.New()) }
func NewOsaaminenID() OsaaminenID       { return OsaaminenID(uuid.New()) }
func NewMahdollisuusID() MahdollisuusID { return MahdollisuusID(uuid.New()) }
