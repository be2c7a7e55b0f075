package script

import (
	"math"
	"strings"
)

// DefaultCamera is used for scenes that do not carry a camera hint.
const DefaultCamera = "hold"

// Limits bounds what a script may contain.
type Limits struct {
	MinTotalDuration float64
	MaxTotalDuration float64
	MinSceneDuration float64
	MaxSceneDuration float64
	MaxTextChars     int
	MaxCameraChars   int
}

// DefaultLimits returns the limits used by the topic teaser product.
func DefaultLimits() Limits {
	return Limits{
		MinTotalDuration: 30,
		MaxTotalDuration: 45,
		MinSceneDuration: 1,
		MaxSceneDuration: 6,
		MaxTextChars:     120,
		MaxCameraChars:   60,
	}
}

// CheckContentType reports whether contentType can be rendered to video.
func CheckContentType(contentType string) error {
	if contentType != ContentTopicTeaser {
		return &UnsupportedContentTypeError{ContentType: contentType}
	}
	return nil
}

// Normalize validates s against the limits and returns a normalized copy.
//
// The total duration is checked on the raw values and rejected when out of
// range, while individual scene fields are clamped or defaulted.
func Normalize(s *Script, limits Limits) (*Script, error) {
	if s == nil || len(s.Scenes) == 0 {
		return nil, MissingScenesError{}
	}

	total := s.TotalDuration()
	if total < limits.MinTotalDuration || total > limits.MaxTotalDuration || math.IsNaN(total) {
		return nil, &DurationOutOfRangeError{
			Total: total,
			Min:   limits.MinTotalDuration,
			Max:   limits.MaxTotalDuration,
		}
	}

	out := &Script{
		Scenes: make([]Scene, len(s.Scenes)),
		Meta:   s.Meta,
	}
	for i, sc := range s.Scenes {
		out.Scenes[i] = normalizeScene(sc, limits)
	}
	return out, nil
}

func normalizeScene(sc Scene, limits Limits) Scene {
	camera := strings.TrimSpace(sc.Camera)
	if camera == "" {
		camera = DefaultCamera
	}
	return Scene{
		Text:     truncate(sc.Text, limits.MaxTextChars),
		Duration: clamp(sc.Duration, limits.MinSceneDuration, limits.MaxSceneDuration),
		Beat:     ParseBeat(strings.ToLower(strings.TrimSpace(string(sc.Beat)))),
		SFX:      ParseSFX(strings.ToLower(strings.TrimSpace(string(sc.SFX)))),
		Camera:   truncate(camera, limits.MaxCameraChars),
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
