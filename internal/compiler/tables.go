package compiler

import "github.com/ivlev/beatvideo/internal/script"

// Animation describes one timed animation applied during a beat.
type Animation struct {
	Type     string  `json:"type" yaml:"type"`
	Duration float64 `json:"duration" yaml:"duration"`
}

// ParticleSpec describes a particle emitter active during a beat. Colors
// holds hex values; the "primary" placeholder resolves to the topic color.
type ParticleSpec struct {
	Type     string   `json:"type" yaml:"type"`
	Count    int      `json:"count" yaml:"count"`
	Colors   []string `json:"colors" yaml:"colors"`
	Lifetime float64  `json:"lifetime" yaml:"lifetime"`
	Behavior string   `json:"behavior" yaml:"behavior"`
}

// Particle behaviors understood by the renderer.
const (
	BehaviorFloat   = "float"
	BehaviorFall    = "fall"
	BehaviorBurst   = "burst"
	BehaviorGravity = "gravity"
)

const primaryPlaceholder = "primary"

type beatTable struct {
	elements   []string
	animations []Animation
	particles  []ParticleSpec
}

var beatTables = map[script.Beat]beatTable{
	script.BeatSetup: {
		elements:   []string{"title_card", "topic_icon"},
		animations: []Animation{{Type: "fade_in", Duration: 0.5}, {Type: "zoom_in", Duration: 1.0}},
		particles: []ParticleSpec{
			{Type: "sparkle", Count: 12, Colors: []string{primaryPlaceholder, "#FFFFFF"}, Lifetime: 1.5, Behavior: BehaviorFloat},
		},
	},
	script.BeatProblem: {
		elements:   []string{"question_box", "highlight_ring"},
		animations: []Animation{{Type: "shake", Duration: 0.4}, {Type: "pulse", Duration: 0.8}},
		particles: []ParticleSpec{
			{Type: "dust", Count: 8, Colors: []string{"#B0B7C3"}, Lifetime: 1.0, Behavior: BehaviorFall},
		},
	},
	script.BeatConfusion: {
		elements:   []string{"question_marks", "thought_cloud"},
		animations: []Animation{{Type: "rotate", Duration: 2.0}, {Type: "orbit", Duration: 3.0}},
		particles: []ParticleSpec{
			{Type: "swirl", Count: 10, Colors: []string{"#C9A7FF", "#8E7CC3"}, Lifetime: 2.0, Behavior: BehaviorFloat},
		},
	},
	script.BeatInsight: {
		elements:   []string{"lightbulb", "light_rays"},
		animations: []Animation{{Type: "glow", Duration: 1.0}, {Type: "grow", Duration: 0.8}},
		particles: []ParticleSpec{
			{Type: "spark", Count: 16, Colors: []string{"#FFD700", "#FFF3B0"}, Lifetime: 1.2, Behavior: BehaviorBurst},
		},
	},
	script.BeatSolve: {
		elements:   []string{"progress_bar", "step_list"},
		animations: []Animation{{Type: "progress_fill", Duration: 2.5}, {Type: "step_reveal", Duration: 0.6}},
	},
	script.BeatAha: {
		elements:   []string{"checkmark", "celebration"},
		animations: []Animation{{Type: "stroke_draw", Duration: 0.8}, {Type: "bounce", Duration: 0.5}},
		particles: []ParticleSpec{
			{Type: "confetti", Count: 40, Colors: []string{"#FF595E", "#FFCA3A", "#8AC926", "#1982C4", "#6A4C93"}, Lifetime: 1.8, Behavior: BehaviorGravity},
		},
	},
	script.BeatWrap: {
		elements:   []string{"summary_box", "call_to_action"},
		animations: []Animation{{Type: "slide_up", Duration: 0.6}, {Type: "fade_out", Duration: 0.6}},
	},
}

func lookupTable(b script.Beat) beatTable {
	if t, ok := beatTables[b]; ok {
		return t
	}
	return beatTables[script.BeatSetup]
}
