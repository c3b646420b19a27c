package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	dErrors "yksilo/pkg/domain-errors"
)

// LocalizedString maps languages to non-empty text.
//
// Invariants:
//   - a language is present only when its text is non-blank
//   - the value never changes after construction; accessors hand out copies
//   - equality is defined over the resulting mapping (see Equal)
type LocalizedString struct {
	values map[Kieli]string
}

// Localize merges per-language source rows into a LocalizedString.
//
// For each row:
//   - a zero-value language key is skipped
//   - an unsupported language key fails with CodeInvalidInput
//   - a nil source row is skipped (no data for that language)
//   - a nil or blank projection result is skipped (no value for that language)
//
// project is called only for non-nil rows. A panic inside project, such as a
// nil dereference of a field the row should always carry, is not recovered and
// reaches the caller as is.
func Localize[S any](rows map[Kieli]*S, project func(*S) *string) (LocalizedString, error) {
	values := make(map[Kieli]string, len(rows))
	for k, row := range rows {
		if k == "" {
			continue
		}
		if !k.IsValid() {
			return LocalizedString{}, dErrors.New(dErrors.CodeInvalidInput, "unsupported language: "+string(k))
		}
		if row == nil {
			continue
		}
		text := project(row)
		if text == nil || strings.TrimSpace(*text) == "" {
			continue
		}
		values[k] = *text
	}
	return LocalizedString{values: values}, nil
}

// NewLocalizedString builds a LocalizedString from already reduced strings,
// e.g. free text typed by a user in several languages. Blank values are
// dropped. Unsupported languages fail with CodeInvalidInput.
func NewLocalizedString(values map[Kieli]string) (LocalizedString, error) {
	out := make(map[Kieli]string, len(values))
	for k, v := range values {
		if !k.IsValid() {
			return LocalizedString{}, dErrors.New(dErrors.CodeInvalidInput, "unsupported language: "+string(k))
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		out[k] = v
	}
	return LocalizedString{values: out}, nil
}

// MustLocalizedString is NewLocalizedString for literals known to be valid.
func MustLocalizedString(values map[Kieli]string) LocalizedString {
	ls, err := NewLocalizedString(values)
	if err != nil {
		panic(err)
	}
	return ls
}

// Get returns the text for k.
func (l LocalizedString) Get(k Kieli) (string, bool) {
	v, ok := l.values[k]
	return v, ok
}

// AsMap returns a copy of the mapping. It is never nil.
func (l LocalizedString) AsMap() map[Kieli]string {
	out := make(map[Kieli]string, len(l.values))
	maps.Copy(out, l.values)
	return out
}

func (l LocalizedString) Len() int {
	return len(l.values)
}

func (l LocalizedString) IsEmpty() bool {
	return len(l.values) == 0
}

// Equal reports whether both values hold the same mapping.
func (l LocalizedString) Equal(other LocalizedString) bool {
	return maps.Equal(l.values, other.values)
}

func (l LocalizedString) String() string {
	return fmt.Sprint(l.values)
}

func (l LocalizedString) MarshalJSON() ([]byte, error) {
	if l.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(l.values)
}

// UnmarshalJSON accepts an object keyed by language code. Unknown languages
// are rejected and blank values dropped.
func (l *LocalizedString) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	values := make(map[Kieli]string, len(raw))
	for key, v := range raw {
		k, err := ParseKieli(key)
		if err != nil {
			return err
		}
		values[k] = v
	}
	parsed, err := NewLocalizedString(values)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Value stores the mapping as a JSON document (jsonb column).
func (l LocalizedString) Value() (driver.Value, error) {
	return l.MarshalJSON()
}

// Scan reads a jsonb column written by Value.
func (l *LocalizedString) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = LocalizedString{values: map[Kieli]string{}}
		return nil
	case []byte:
		return l.UnmarshalJSON(v)
	case string:
		return l.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("scan localized string: unsupported type %T", src)
	}
}
