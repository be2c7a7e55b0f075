// Package assets maps a free-text topic onto the subject taxonomy and the
// visual theme used to render it.
package assets

import "strings"

// Profile is the topic-level visual bundle shared by every scene of a script.
type Profile struct {
	Subject        string   `json:"subject" yaml:"subject"`
	Category       string   `json:"category" yaml:"category"`
	Theme          string   `json:"theme" yaml:"theme"`
	PrimaryColor   string   `json:"primaryColor" yaml:"primary_color"`
	VisualStyle    string   `json:"visualStyle" yaml:"visual_style"`
	AnimationHints []string `json:"animationHints" yaml:"animation_hints"`
}

type rule struct {
	keywords []string
	profile  Profile
}

// rules are checked in order; the first group with a matching keyword wins.
var rules = []rule{
	{
		keywords: []string{"algebra", "equation"},
		profile: Profile{
			Subject:        "mathematics",
			Category:       "algebra",
			Theme:          "math_blueprint",
			PrimaryColor:   "#4F8EF7",
			VisualStyle:    "clean_geometric",
			AnimationHints: []string{"equation_balance", "variable_swap", "graph_plot"},
		},
	},
	{
		keywords: []string{"geometry", "triangle", "circle"},
		profile: Profile{
			Subject:        "mathematics",
			Category:       "geometry",
			Theme:          "math_compass",
			PrimaryColor:   "#7C5CFF",
			VisualStyle:    "clean_geometric",
			AnimationHints: []string{"shape_construct", "angle_sweep", "area_fill"},
		},
	},
	{
		keywords: []string{"force", "motion", "physics"},
		profile: Profile{
			Subject:        "physical_sciences",
			Category:       "physics",
			Theme:          "physics_lab",
			PrimaryColor:   "#FF8A3D",
			VisualStyle:    "dynamic_vectors",
			AnimationHints: []string{"vector_arrows", "trajectory_trace", "collision"},
		},
	},
	{
		keywords: []string{"atom", "molecule", "reaction"},
		profile: Profile{
			Subject:        "physical_sciences",
			Category:       "chemistry",
			Theme:          "chem_bench",
			PrimaryColor:   "#2EC4B6",
			VisualStyle:    "molecular",
			AnimationHints: []string{"bond_form", "electron_orbit", "reaction_arrow"},
		},
	},
	{
		keywords: []string{"cell", "photosynthesis", "biology"},
		profile: Profile{
			Subject:        "life_sciences",
			Category:       "biology",
			Theme:          "bio_organic",
			PrimaryColor:   "#3BB273",
			VisualStyle:    "organic_flow",
			AnimationHints: []string{"cell_divide", "membrane_pulse", "energy_flow"},
		},
	},
}

var fallback = Profile{
	Subject:        "general",
	Category:       "general",
	Theme:          "classroom",
	PrimaryColor:   "#F2C14E",
	VisualStyle:    "friendly_flat",
	AnimationHints: []string{"text_pop", "icon_bounce"},
}

// Select returns the profile for topic. Matching is a case-insensitive
// substring search, so "Cellular respiration" lands in biology.
func Select(topic string) Profile {
	t := strings.ToLower(topic)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(t, kw) {
				return r.profile.clone()
			}
		}
	}
	return fallback.clone()
}

func (p Profile) clone() Profile {
	p.AnimationHints = append([]string(nil), p.AnimationHints...)
	return p
}
