// Package renderer rasterizes compiled scenes into RGBA frames.
//
// Rendering is a pure function of (frame index, scenes, options): there is
// no mutable per-instance state, random draws come from generators seeded
// with the renderer seed, the scene index and the frame index, so frames may
// be rendered in any order and in parallel.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"iter"

	"github.com/ivlev/beatvideo/internal/compiler"
)

// Options configure a Renderer.
type Options struct {
	Width       int
	Height      int
	Seed        int64
	CaptionSize float64
}

// DefaultOptions is a 1080x1920 portrait canvas.
func DefaultOptions() Options {
	return Options{Width: 1080, Height: 1920, Seed: 1, CaptionSize: 54}
}

var (
	backgroundTop    = color.NRGBA{R: 0x14, G: 0x17, B: 0x2B, A: 0xff}
	backgroundBottom = color.NRGBA{R: 0x24, G: 0x1E, B: 0x4E, A: 0xff}
	white            = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	panel            = color.NRGBA{R: 0x0E, G: 0x10, B: 0x1C, A: 0xff}
)

// Renderer draws frames. It is safe for concurrent use.
type Renderer struct {
	opts       Options
	background *image.RGBA
	fonts      *fontSet
}

func New(opts Options) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", opts.Width, opts.Height)
	}
	if opts.CaptionSize <= 0 {
		opts.CaptionSize = float64(opts.Width) / 20
	}
	fonts, err := loadFonts()
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}
	return &Renderer{
		opts:       opts,
		background: gradient(opts.Width, opts.Height, backgroundTop, backgroundBottom),
		fonts:      fonts,
	}, nil
}

// Bounds is the frame rectangle.
func (r *Renderer) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.opts.Width, r.opts.Height)
}

// RenderFrame allocates a new frame and draws into it.
func (r *Renderer) RenderFrame(frame int, scenes []compiler.CompiledScene) (*image.RGBA, error) {
	dst := image.NewRGBA(r.Bounds())
	if err := r.RenderInto(dst, frame, scenes); err != nil {
		return nil, err
	}
	return dst, nil
}

// RenderInto draws frame into dst, which must have the renderer's bounds.
// Frames not covered by any scene show only the background.
func (r *Renderer) RenderInto(dst *image.RGBA, frame int, scenes []compiler.CompiledScene) (err error) {
	if dst.Rect != r.Bounds() {
		return fmt.Errorf("frame buffer is %v, want %v", dst.Rect, r.Bounds())
	}
	copy(dst.Pix, r.background.Pix)

	scene := sceneAt(frame, scenes)
	if scene == nil {
		return nil
	}

	fcs, err := r.fonts.newFaces(r.opts.CaptionSize)
	if err != nil {
		return fmt.Errorf("frame %d: %w", frame, err)
	}
	defer fcs.Close()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("frame %d scene %d (%s): %v", frame, scene.Index, scene.Beat, rec)
		}
	}()

	fc := newFrameContext(dst, fcs, scene, frame, r.opts)
	routineFor(scene.Beat)(fc)
	drawParticles(fc)
	drawCaption(fc)
	return nil
}

// Sequence yields frames 0..total-1 in order. Each yielded image is freshly
// allocated. Iteration stops after the first error.
func (r *Renderer) Sequence(scenes []compiler.CompiledScene) iter.Seq2[*image.RGBA, error] {
	total := compiler.TotalFrames(scenes)
	return func(yield func(*image.RGBA, error) bool) {
		for i := 0; i < total; i++ {
			img, err := r.RenderFrame(i, scenes)
			if !yield(img, err) || err != nil {
				return
			}
		}
	}
}

func sceneAt(frame int, scenes []compiler.CompiledScene) *compiler.CompiledScene {
	for i := range scenes {
		if scenes[i].Contains(frame) {
			return &scenes[i]
		}
	}
	return nil
}

func gradient(w, h int, top, bottom color.NRGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		t := 0.0
		if h > 1 {
			t = float64(y) / float64(h-1)
		}
		c := color.NRGBA{
			R: uint8(lerp(float64(top.R), float64(bottom.R), t) + 0.5),
			G: uint8(lerp(float64(top.G), float64(bottom.G), t) + 0.5),
			B: uint8(lerp(float64(top.B), float64(bottom.B), t) + 0.5),
			A: 0xff,
		}
		draw.Draw(img, image.Rect(0, y, w, y+1), image.NewUniform(c), image.Point{}, draw.Src)
	}
	return img
}
