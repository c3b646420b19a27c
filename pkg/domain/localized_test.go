package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "yksilo/pkg/domain-errors"
)

type kaannos struct {
	Nimi   string
	Kuvaus *string
	Lisa   *struct{ Teksti string }
}

func nimi(k *kaannos) *string   { return &k.Nimi }
func kuvaus(k *kaannos) *string { return k.Kuvaus }

func ptr(s string) *string { return &s }

func TestLocalize(t *testing.T) {
	t.Run("keeps exactly the languages with a non-blank projection", func(t *testing.T) {
		rows := map[Kieli]*kaannos{
			KieliFI: {Nimi: "Lähihoitaja", Kuvaus: ptr("Hoitaa")},
			KieliSV: {Nimi: "Närvårdare"},
			KieliEN: {Nimi: "   "},
		}

		names, err := Localize(rows, nimi)
		require.NoError(t, err)
		assert.Equal(t, map[Kieli]string{KieliFI: "Lähihoitaja", KieliSV: "Närvårdare"}, names.AsMap())

		descriptions, err := Localize(rows, kuvaus)
		require.NoError(t, err)
		assert.Equal(t, map[Kieli]string{KieliFI: "Hoitaa"}, descriptions.AsMap())
	})

	t.Run("skips nil rows and zero-value keys", func(t *testing.T) {
		rows := map[Kieli]*kaannos{
			"":      {Nimi: "orphan"},
			KieliFI: nil,
			KieliEN: {Nimi: "Nurse"},
		}

		ls, err := Localize(rows, nimi)
		require.NoError(t, err)
		assert.Equal(t, map[Kieli]string{KieliEN: "Nurse"}, ls.AsMap())
	})

	t.Run("empty input yields empty value", func(t *testing.T) {
		ls, err := Localize(map[Kieli]*kaannos{}, nimi)
		require.NoError(t, err)
		assert.True(t, ls.IsEmpty())
		assert.NotNil(t, ls.AsMap())

		ls, err = Localize[kaannos](nil, nimi)
		require.NoError(t, err)
		assert.Empty(t, ls.AsMap())
	})

	t.Run("rejects unsupported language", func(t *testing.T) {
		_, err := Localize(map[Kieli]*kaannos{"de": {Nimi: "Pfleger"}}, nimi)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("projection panic reaches the caller", func(t *testing.T) {
		rows := map[Kieli]*kaannos{KieliFI: {Nimi: "x"}}
		broken := func(k *kaannos) *string { return &k.Lisa.Teksti }

		assert.Panics(t, func() {
			_, _ = Localize(rows, broken)
		})
	})
}

func TestLocalizedStringEquality(t *testing.T) {
	fromRows, err := Localize(map[Kieli]*kaannos{
		KieliFI: {Nimi: "Kokki"},
		KieliSV: {Nimi: ""},
		KieliEN: nil,
	}, nimi)
	require.NoError(t, err)

	direct, err := NewLocalizedString(map[Kieli]string{KieliFI: "Kokki", KieliEN: " "})
	require.NoError(t, err)

	assert.True(t, fromRows.Equal(direct), "different inputs reducing to the same mapping are equal")
	assert.Equal(t, fromRows, direct)

	other := MustLocalizedString(map[Kieli]string{KieliFI: "Kokki", KieliSV: "Kock"})
	assert.False(t, fromRows.Equal(other))
}

func TestLocalizedStringIsImmutable(t *testing.T) {
	ls := MustLocalizedString(map[Kieli]string{KieliFI: "Kokki"})

	m := ls.AsMap()
	m[KieliSV] = "Kock"

	_, ok := ls.Get(KieliSV)
	assert.False(t, ok)
	assert.Equal(t, 1, ls.Len())
}

func TestLocalizedStringJSON(t *testing.T) {
	t.Run("encodes lowercase language keys", func(t *testing.T) {
		ls := MustLocalizedString(map[Kieli]string{KieliFI: "Kokki", KieliSV: "Kock"})
		b, err := json.Marshal(ls)
		require.NoError(t, err)
		assert.JSONEq(t, `{"fi":"Kokki","sv":"Kock"}`, string(b))
	})

	t.Run("zero value encodes as empty object", func(t *testing.T) {
		b, err := json.Marshal(LocalizedString{})
		require.NoError(t, err)
		assert.Equal(t, "{}", string(b))
	})

	t.Run("decodes, normalizes keys and drops blanks", func(t *testing.T) {
		var ls LocalizedString
		require.NoError(t, json.Unmarshal([]byte(`{"FI":"Kokki","en":""}`), &ls))
		assert.Equal(t, map[Kieli]string{KieliFI: "Kokki"}, ls.AsMap())
	})

	t.Run("rejects unknown language on decode", func(t *testing.T) {
		var ls LocalizedString
		err := json.Unmarshal([]byte(`{"de":"Koch"}`), &ls)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("scans jsonb column", func(t *testing.T) {
		var ls LocalizedString
		require.NoError(t, ls.Scan([]byte(`{"sv":"Kock"}`)))
		v, ok := ls.Get(KieliSV)
		assert.True(t, ok)
		assert.Equal(t, "Kock", v)
	})
}
