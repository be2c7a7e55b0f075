package script

import (
	"errors"
	"strings"
	"testing"
)

func scenesWithTotal(total float64, n int) []Scene {
	scenes := make([]Scene, n)
	for i := range scenes {
		scenes[i] = Scene{Text: "scene", Duration: total / float64(n), Beat: BeatSetup, SFX: SFXNone}
	}
	return scenes
}

func TestNormalizeMissingScenes(t *testing.T) {
	for _, s := range []*Script{nil, {}, {Scenes: []Scene{}}} {
		_, err := Normalize(s, DefaultLimits())
		var missing MissingScenesError
		if !errors.As(err, &missing) {
			t.Errorf("expected MissingScenesError, got %v", err)
		}
	}
}

func TestNormalizeTotalDurationBounds(t *testing.T) {
	tests := []struct {
		total   float64
		wantErr bool
	}{
		{29.9, true},
		{30, false},
		{37.5, false},
		{45, false},
		{45.1, true},
		{10, true},
	}

	for _, tt := range tests {
		_, err := Normalize(&Script{Scenes: scenesWithTotal(tt.total, 10)}, DefaultLimits())
		if tt.wantErr {
			var rangeErr *DurationOutOfRangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("total %.1f: expected DurationOutOfRangeError, got %v", tt.total, err)
			}
			if rangeErr.Total < tt.total-0.001 || rangeErr.Total > tt.total+0.001 {
				t.Errorf("error names total %.2f, want %.2f", rangeErr.Total, tt.total)
			}
			if !strings.Contains(err.Error(), "outside") {
				t.Errorf("unexpected message: %s", err)
			}
			continue
		}
		if err != nil {
			t.Errorf("total %.1f: unexpected error %v", tt.total, err)
		}
	}
}

func TestNormalizeClampsSceneDuration(t *testing.T) {
	in := &Script{Scenes: []Scene{
		{Duration: 0.2},
		{Duration: 9},
		{Duration: 3},
		{Duration: 6},
		{Duration: 6},
		{Duration: 6},
	}}
	// raw total 30.2 keeps the script inside the accepted range
	out, err := Normalize(in, DefaultLimits())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	want := []float64{1, 6, 3, 6, 6, 6}
	for i, w := range want {
		if out.Scenes[i].Duration != w {
			t.Errorf("scene %d: duration %v, want %v", i, out.Scenes[i].Duration, w)
		}
	}
	if in.Scenes[0].Duration != 0.2 {
		t.Error("input script was mutated")
	}
}

func TestNormalizeFallbacks(t *testing.T) {
	scenes := scenesWithTotal(36, 6)
	scenes[0].Beat = "cliffhanger"
	scenes[0].SFX = "boom"
	scenes[1].Beat = "AHA"
	scenes[1].SFX = "ding"
	scenes[2].Camera = strings.Repeat("c", 80)
	scenes[3].Text = strings.Repeat("é", 150)

	out, err := Normalize(&Script{Scenes: scenes}, DefaultLimits())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if out.Scenes[0].Beat != BeatSetup {
		t.Errorf("unknown beat normalized to %q", out.Scenes[0].Beat)
	}
	if out.Scenes[0].SFX != SFXNone {
		t.Errorf("unknown sfx normalized to %q", out.Scenes[0].SFX)
	}
	if out.Scenes[1].Beat != BeatAha || out.Scenes[1].SFX != SFXDing {
		t.Errorf("valid values changed: %+v", out.Scenes[1])
	}
	if out.Scenes[0].Camera != DefaultCamera {
		t.Errorf("camera default %q", out.Scenes[0].Camera)
	}
	if got := len([]rune(out.Scenes[2].Camera)); got != 60 {
		t.Errorf("camera length %d, want 60", got)
	}
	if got := len([]rune(out.Scenes[3].Text)); got != 120 {
		t.Errorf("text length %d, want 120", got)
	}
}

func TestCheckContentType(t *testing.T) {
	if err := CheckContentType(ContentTopicTeaser); err != nil {
		t.Errorf("topic_teaser rejected: %v", err)
	}
	err := CheckContentType("quiz")
	var unsupported *UnsupportedContentTypeError
	if !errors.As(err, &unsupported) || unsupported.ErrorKind() != KindValidation {
		t.Errorf("expected UnsupportedContentTypeError, got %v", err)
	}
}

func TestParseBeatCoversAllBeats(t *testing.T) {
	for _, b := range Beats {
		if ParseBeat(string(b)) != b {
			t.Errorf("ParseBeat(%q) did not round-trip", b)
		}
	}
	if ParseBeat("") != BeatSetup {
		t.Error("empty beat should fall back to setup")
	}
}
