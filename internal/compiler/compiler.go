// Package compiler turns validated scenes into fully parameterized scene
// descriptors with absolute frame ranges.
package compiler

import (
	"image"
	"math"

	"github.com/ivlev/beatvideo/internal/assets"
	"github.com/ivlev/beatvideo/internal/script"
)

// CompiledScene is immutable once returned by Compile; renderers only read it.
type CompiledScene struct {
	Index    int         `json:"index" yaml:"index"`
	Text     string      `json:"text" yaml:"text"`
	Duration float64     `json:"duration" yaml:"duration"`
	Beat     script.Beat `json:"beat" yaml:"beat"`
	SFX      script.SFX  `json:"sfx" yaml:"sfx"`
	Camera   string      `json:"camera" yaml:"camera"`

	StartFrame int `json:"startFrame" yaml:"start_frame"`
	EndFrame   int `json:"endFrame" yaml:"end_frame"`

	Subject      string `json:"subject" yaml:"subject"`
	Category     string `json:"category" yaml:"category"`
	PrimaryColor string `json:"primaryColor" yaml:"primary_color"`
	VisualStyle  string `json:"visualStyle" yaml:"visual_style"`

	EducationalElements []string       `json:"educationalElements" yaml:"educational_elements"`
	Animations          []Animation    `json:"animations" yaml:"animations"`
	Particles           []ParticleSpec `json:"particles" yaml:"particles"`
	Enrichment          Enrichment     `json:"enrichment" yaml:"enrichment"`

	// Backdrop is an optional raster (a paper excerpt) shown by the problem beat.
	Backdrop image.Image `json:"-" yaml:"-"`
}

// Frames returns the number of frames the scene spans.
func (s *CompiledScene) Frames() int {
	return s.EndFrame - s.StartFrame
}

// Contains reports whether frame falls in [StartFrame, EndFrame).
func (s *CompiledScene) Contains(frame int) bool {
	return frame >= s.StartFrame && frame < s.EndFrame
}

// Options control compilation.
type Options struct {
	FPS      int
	Topic    string
	Enricher Enricher
	Backdrop image.Image
}

// Compile lays the scenes out on the frame timeline and attaches the beat
// and topic parameters. Scenes must already be normalized.
func Compile(scenes []script.Scene, profile assets.Profile, opts Options) []CompiledScene {
	fps := opts.FPS
	if fps <= 0 {
		fps = 30
	}
	enricher := opts.Enricher
	if enricher == nil {
		enricher = KeywordEnricher{}
	}
	enrichment := enricher.Enrich(opts.Topic, profile)

	out := make([]CompiledScene, 0, len(scenes))
	cumulative := 0.0
	for i, sc := range scenes {
		start := int(math.Round(cumulative * float64(fps)))
		end := start + int(math.Round(sc.Duration*float64(fps)))
		cumulative += sc.Duration

		table := lookupTable(sc.Beat)
		cs := CompiledScene{
			Index:               i,
			Text:                sc.Text,
			Duration:            sc.Duration,
			Beat:                sc.Beat,
			SFX:                 sc.SFX,
			Camera:              sc.Camera,
			StartFrame:          start,
			EndFrame:            end,
			Subject:             profile.Subject,
			Category:            profile.Category,
			PrimaryColor:        profile.PrimaryColor,
			VisualStyle:         profile.VisualStyle,
			EducationalElements: append([]string(nil), table.elements...),
			Animations:          append([]Animation(nil), table.animations...),
			Particles:           resolveParticles(table.particles, profile.PrimaryColor),
			Enrichment:          copyEnrichment(enrichment),
		}
		if sc.Beat == script.BeatProblem && opts.Backdrop != nil {
			cs.Backdrop = opts.Backdrop
			cs.EducationalElements = append(cs.EducationalElements, "paper_excerpt")
		}
		out = append(out, cs)
	}
	return out
}

// TotalFrames is the end frame of the last scene.
func TotalFrames(scenes []CompiledScene) int {
	if len(scenes) == 0 {
		return 0
	}
	return scenes[len(scenes)-1].EndFrame
}

func resolveParticles(specs []ParticleSpec, primary string) []ParticleSpec {
	if len(specs) == 0 {
		return nil
	}
	out := make([]ParticleSpec, len(specs))
	for i, p := range specs {
		colors := make([]string, len(p.Colors))
		for j, c := range p.Colors {
			if c == primaryPlaceholder {
				c = primary
			}
			colors[j] = c
		}
		p.Colors = colors
		out[i] = p
	}
	return out
}

func copyEnrichment(e Enrichment) Enrichment {
	out := Enrichment{Equation: e.Equation}
	if len(e.Forces) > 0 {
		out.Forces = append([]string(nil), e.Forces...)
	}
	if e.Process != nil {
		p := *e.Process
		p.Reactants = append([]string(nil), p.Reactants...)
		p.Products = append([]string(nil), p.Products...)
		out.Process = &p
	}
	return out
}
