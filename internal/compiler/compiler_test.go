package compiler

import (
	"image"
	"testing"

	"github.com/ivlev/beatvideo/internal/assets"
	"github.com/ivlev/beatvideo/internal/script"
)

func TestCompileFrameRanges(t *testing.T) {
	scenes := []script.Scene{
		{Text: "a", Duration: 5, Beat: script.BeatSetup, SFX: script.SFXNone},
		{Text: "b", Duration: 3, Beat: script.BeatAha, SFX: script.SFXDing},
	}
	compiled := Compile(scenes, assets.Select("algebra"), Options{FPS: 30})

	if compiled[0].StartFrame != 0 || compiled[0].EndFrame != 150 {
		t.Errorf("scene 1 range [%d,%d), want [0,150)", compiled[0].StartFrame, compiled[0].EndFrame)
	}
	if compiled[1].StartFrame != 150 || compiled[1].EndFrame != 240 {
		t.Errorf("scene 2 range [%d,%d), want [150,240)", compiled[1].StartFrame, compiled[1].EndFrame)
	}
	if TotalFrames(compiled) != 240 {
		t.Errorf("TotalFrames = %d", TotalFrames(compiled))
	}
}

func TestCompileFrameCountMatchesDurations(t *testing.T) {
	durations := []float64{6, 4.5, 3, 6, 2, 5.5, 4, 6}
	var scenes []script.Scene
	sum := 0.0
	for _, d := range durations {
		scenes = append(scenes, script.Scene{Duration: d, Beat: script.BeatSolve})
		sum += d
	}

	compiled := Compile(scenes, assets.Select(""), Options{FPS: 30})
	if got, want := TotalFrames(compiled), int(sum*30); got != want {
		t.Errorf("TotalFrames = %d, want %d", got, want)
	}
	for i := 1; i < len(compiled); i++ {
		if compiled[i].StartFrame != compiled[i-1].EndFrame {
			t.Errorf("gap between scene %d and %d", i-1, i)
		}
	}
}

func TestCompileTopicFieldsAndTables(t *testing.T) {
	profile := assets.Select("photosynthesis in plant cells")
	scenes := []script.Scene{
		{Duration: 4, Beat: script.BeatSetup},
		{Duration: 4, Beat: script.BeatAha},
		{Duration: 4, Beat: "cliffhanger"},
	}
	compiled := Compile(scenes, profile, Options{FPS: 30, Topic: "photosynthesis in plant cells"})

	for _, cs := range compiled {
		if cs.Subject != "life_sciences" || cs.PrimaryColor != profile.PrimaryColor || cs.VisualStyle != profile.VisualStyle {
			t.Errorf("scene %d topic fields not copied: %+v", cs.Index, cs)
		}
		if cs.Enrichment.Process == nil || cs.Enrichment.Process.Name != "photosynthesis" {
			t.Errorf("scene %d missing photosynthesis process", cs.Index)
		}
	}

	if compiled[0].Particles[0].Colors[0] != profile.PrimaryColor {
		t.Errorf("primary placeholder not resolved: %v", compiled[0].Particles[0].Colors)
	}
	if compiled[1].Particles[0].Type != "confetti" {
		t.Errorf("aha particles = %+v", compiled[1].Particles)
	}
	// unknown beats use the setup table
	if compiled[2].EducationalElements[0] != "title_card" {
		t.Errorf("fallback table not used: %v", compiled[2].EducationalElements)
	}

	compiled[0].Particles[0].Colors[0] = "#000000"
	compiled[0].Enrichment.Process.Products[0] = "changed"
	if compiled[1].Enrichment.Process.Products[0] == "changed" {
		t.Error("scenes share enrichment slices")
	}
	if beatTables[script.BeatSetup].particles[0].Colors[0] != primaryPlaceholder {
		t.Error("compilation mutated the beat table")
	}
}

func TestKeywordEnricher(t *testing.T) {
	e := KeywordEnricher{}
	tests := []struct {
		topic string
		check func(Enrichment) bool
	}{
		{"Quadratic equations", func(e Enrichment) bool { return e.Equation == "x^2 + 5x + 6 = 0" }},
		{"Linear equation basics", func(e Enrichment) bool { return e.Equation == "2x + 3 = 11" }},
		{"Algebra tricks", func(e Enrichment) bool { return e.Equation == "ax + b = c" }},
		{"Friction force", func(e Enrichment) bool { return len(e.Forces) == 4 }},
		{"Projectile motion", func(e Enrichment) bool { return e.Empty() }},
		{"Ancient Rome", func(e Enrichment) bool { return e.Empty() }},
	}
	for _, tt := range tests {
		if got := e.Enrich(tt.topic, assets.Select(tt.topic)); !tt.check(got) {
			t.Errorf("Enrich(%q) = %+v", tt.topic, got)
		}
	}
}

func TestCompileAttachesBackdropToProblemBeats(t *testing.T) {
	backdrop := image.NewRGBA(image.Rect(0, 0, 10, 10))
	scenes := []script.Scene{
		{Duration: 5, Beat: script.BeatProblem},
		{Duration: 5, Beat: script.BeatSolve},
	}
	compiled := Compile(scenes, assets.Select("algebra"), Options{FPS: 30, Backdrop: backdrop})
	if compiled[0].Backdrop == nil {
		t.Error("problem scene has no backdrop")
	}
	if compiled[1].Backdrop != nil {
		t.Error("solve scene should not carry a backdrop")
	}
}
