package renderer

import (
	"image"
	"image/color"
	"math/rand"

	"github.com/ivlev/beatvideo/internal/compiler"
)

// frameContext is everything a draw routine may read for one frame.
type frameContext struct {
	dst   *image.RGBA
	c     *canvas
	faces *faces
	scene *compiler.CompiledScene

	frame    int
	progress float64 // 0 at the first frame of the scene, approaching 1
	elapsed  float64 // seconds since scene start
	fps      float64

	w, h    float64
	cx, cy  float64
	primary color.NRGBA
	seed    int64
}

func newFrameContext(dst *image.RGBA, f *faces, scene *compiler.CompiledScene, frame int, opts Options) *frameContext {
	local := frame - scene.StartFrame
	n := scene.Frames()
	fps := 30.0
	if scene.Duration > 0 && n > 0 {
		fps = float64(n) / scene.Duration
	}
	progress := 0.0
	if n > 0 {
		progress = float64(local) / float64(n)
	}
	w, h := float64(opts.Width), float64(opts.Height)
	return &frameContext{
		dst:      dst,
		c:        &canvas{img: dst},
		faces:    f,
		scene:    scene,
		frame:    frame,
		progress: progress,
		elapsed:  float64(local) / fps,
		fps:      fps,
		w:        w,
		h:        h,
		cx:       w / 2,
		cy:       h * 0.42,
		primary:  hexOr(scene.PrimaryColor, white),
		seed:     opts.Seed,
	}
}

// sceneRand is stable across all frames of the scene.
func (fc *frameContext) sceneRand(stream int64) *rand.Rand {
	return rand.New(rand.NewSource(mixSeed(fc.seed, int64(fc.scene.Index), -1, stream)))
}

// frameRand differs on every frame.
func (fc *frameContext) frameRand(stream int64) *rand.Rand {
	return rand.New(rand.NewSource(mixSeed(fc.seed, int64(fc.scene.Index), int64(fc.frame), stream)))
}

// scale converts sizes designed for a 1080px wide canvas.
func (fc *frameContext) scale(v float64) float64 {
	return v * fc.w / 1080
}

func mixSeed(parts ...int64) int64 {
	h := uint64(0x9E3779B97F4A7C15)
	for _, p := range parts {
		h ^= uint64(p)
		h *= 0xBF58476D1CE4E5B9
		h ^= h >> 31
	}
	return int64(h >> 1)
}
