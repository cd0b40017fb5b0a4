package calendar

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/petcal-api/internal/models"
)

// Style is the display metadata of an event type.
type Style struct {
	Label      string `yaml:"label" json:"label"`
	Color      string `yaml:"color" json:"color"`
	Background string `yaml:"background" json:"background"`
	Icon       string `yaml:"icon" json:"icon"`
}

//go:embed palette.yaml
var paletteYAML []byte

var palette = mustLoadPalette(paletteYAML)

// StyleFor returns the style of t. Unknown types fall back to "other".
func StyleFor(t models.EventType) Style {
	if s, ok := palette[t]; ok {
		return s
	}
	return palette[models.EventTypeOther]
}

// Palette returns a copy of the full type table.
func Palette() map[models.EventType]Style {
	out := make(map[models.EventType]Style, len(palette))
	for k, v := range palette {
		out[k] = v
	}
	return out
}

// LoadPalette parses a YAML palette and checks that it covers exactly the
// EventType enumeration.
func LoadPalette(raw []byte) (map[models.EventType]Style, error) {
	var parsed map[string]Style
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse palette: %w", err)
	}

	out := make(map[models.EventType]Style, len(parsed))
	var unknown []string
	for key, style := range parsed {
		t := models.EventType(strings.ToLower(key))
		if !t.Valid() {
			unknown = append(unknown, key)
			continue
		}
		if style.Label == "" || style.Color == "" {
			return nil, fmt.Errorf("palette entry %q needs a label and a color", key)
		}
		out[t] = style
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("palette has unknown event types: %s", strings.Join(unknown, ", "))
	}
	for _, t := range models.EventTypes {
		if _, ok := out[t]; !ok {
			return nil, fmt.Errorf("palette is missing event type %q", t)
		}
	}
	return out, nil
}

func mustLoadPalette(raw []byte) map[models.EventType]Style {
	p, err := LoadPalette(raw)
	if err != nil {
		panic(err)
	}
	return p
}
