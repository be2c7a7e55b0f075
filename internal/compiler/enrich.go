package compiler

import (
	"strings"

	"github.com/ivlev/beatvideo/internal/assets"
)

// Process is a named transformation with inputs and outputs, e.g. a
// biological pathway.
type Process struct {
	Name      string   `json:"name" yaml:"name"`
	Reactants []string `json:"reactants" yaml:"reactants"`
	Products  []string `json:"products" yaml:"products"`
}

// Enrichment is subject-specific payload shown by some draw routines.
type Enrichment struct {
	Equation string   `json:"equation,omitempty" yaml:"equation,omitempty"`
	Forces   []string `json:"forces,omitempty" yaml:"forces,omitempty"`
	Process  *Process `json:"process,omitempty" yaml:"process,omitempty"`
}

// Empty reports whether no payload was attached.
func (e Enrichment) Empty() bool {
	return e.Equation == "" && len(e.Forces) == 0 && e.Process == nil
}

// Enricher derives subject-specific payload for a script.
type Enricher interface {
	Enrich(topic string, profile assets.Profile) Enrichment
}

// KeywordEnricher picks sample payloads from a small catalogue by keyword.
// It does not look at the lesson content itself.
type KeywordEnricher struct{}

func (KeywordEnricher) Enrich(topic string, profile assets.Profile) Enrichment {
	t := strings.ToLower(topic)
	var e Enrichment

	switch profile.Category {
	case "algebra":
		switch {
		case strings.Contains(t, "quadratic"):
			e.Equation = "x^2 + 5x + 6 = 0"
		case strings.Contains(t, "linear"):
			e.Equation = "2x + 3 = 11"
		default:
			e.Equation = "ax + b = c"
		}
	case "physics":
		if strings.Contains(t, "force") {
			e.Forces = []string{"gravity", "normal", "friction", "applied"}
		}
	case "biology":
		if strings.Contains(t, "photosynthesis") {
			e.Process = &Process{
				Name:      "photosynthesis",
				Reactants: []string{"6CO2", "6H2O", "light"},
				Products:  []string{"C6H12O6", "6O2"},
			}
		}
	}
	return e
}
