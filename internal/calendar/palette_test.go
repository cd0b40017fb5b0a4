package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/petcal-api/internal/models"
)

func TestPaletteCoversEveryType(t *testing.T) {
	p := Palette()
	require.Len(t, p, len(models.EventTypes))
	for _, typ := range models.EventTypes {
		style := StyleFor(typ)
		assert.NotEmpty(t, style.Label, typ)
		assert.NotEmpty(t, style.Color, typ)
	}
}

func TestStyleForUnknownFallsBackToOther(t *testing.T) {
	assert.Equal(t, StyleFor(models.EventTypeOther), StyleFor(models.EventType("grooming")))
}

func TestLoadPaletteRejectsIncompleteTable(t *testing.T) {
	_, err := LoadPalette([]byte("medical:\n  label: Medical\n  color: red\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing event type")
}

func TestLoadPaletteRejectsUnknownType(t *testing.T) {
	raw := append([]byte{}, paletteYAML...)
	raw = append(raw, []byte("grooming:\n  label: Grooming\n  color: pink\n")...)

	_, err := LoadPalette(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grooming")
}
