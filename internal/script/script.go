package script

// ContentTopicTeaser is the only content type that feeds the video pipeline.
const ContentTopicTeaser = "topic_teaser"

// Beat is the pedagogical phase of a scene. The set is closed: anything
// outside it is normalized to BeatSetup.
type Beat string

const (
	BeatSetup     Beat = "setup"
	BeatProblem   Beat = "problem"
	BeatConfusion Beat = "confusion"
	BeatInsight   Beat = "insight"
	BeatSolve     Beat = "solve"
	BeatAha       Beat = "aha"
	BeatWrap      Beat = "wrap"
)

// Beats lists every beat in narrative order.
var Beats = []Beat{BeatSetup, BeatProblem, BeatConfusion, BeatInsight, BeatSolve, BeatAha, BeatWrap}

// ParseBeat maps a raw value onto the beat set, falling back to BeatSetup.
func ParseBeat(s string) Beat {
	b := Beat(s)
	if b.Valid() {
		return b
	}
	return BeatSetup
}

func (b Beat) Valid() bool {
	for _, known := range Beats {
		if b == known {
			return true
		}
	}
	return false
}

// SFX is the sound cue attached to a scene.
type SFX string

const (
	SFXWhoosh SFX = "whoosh"
	SFXDing   SFX = "ding"
	SFXPop    SFX = "pop"
	SFXNone   SFX = "none"
)

var SFXs = []SFX{SFXWhoosh, SFXDing, SFXPop, SFXNone}

// ParseSFX maps a raw value onto the cue set, falling back to SFXNone.
func ParseSFX(s string) SFX {
	for _, known := range SFXs {
		if SFX(s) == known {
			return known
		}
	}
	return SFXNone
}

// Scene is one timed segment of a script.
type Scene struct {
	Text     string  `json:"text" yaml:"text"`
	Duration float64 `json:"duration" yaml:"duration"`
	Beat     Beat    `json:"beat" yaml:"beat"`
	SFX      SFX     `json:"sfx" yaml:"sfx"`
	Camera   string  `json:"camera,omitempty" yaml:"camera,omitempty"`
}

// Meta carries the generator's free-form hints. It is informational only.
type Meta struct {
	Topic      string `json:"topic,omitempty" yaml:"topic,omitempty"`
	Requires3D bool   `json:"requires3D" yaml:"requires3D"`
	Style      string `json:"style,omitempty" yaml:"style,omitempty"`
	Notes      string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Script is the top-level input of the pipeline.
type Script struct {
	Scenes []Scene `json:"scenes" yaml:"scenes"`
	Meta   Meta    `json:"meta" yaml:"meta"`
}

// TotalDuration sums the scene durations as given.
func (s *Script) TotalDuration() float64 {
	if s == nil {
		return 0
	}
	total := 0.0
	for _, sc := range s.Scenes {
		total += sc.Duration
	}
	return total
}
