package renderer

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/ivlev/beatvideo/internal/compiler"
)

type emitter struct {
	originX, originY func(rng *rand.Rand) float64
	velocity         func(rng *rand.Rand) (vx, vy float64)
	gravity          float64
	size             float64
}

// emitterFor lays out the physics of a behavior in canvas pixels per second.
func emitterFor(fc *frameContext, behavior string) emitter {
	s := fc.scale(1)
	switch behavior {
	case compiler.BehaviorFall:
		return emitter{
			originX:  func(r *rand.Rand) float64 { return fc.w * (0.1 + 0.8*r.Float64()) },
			originY:  func(r *rand.Rand) float64 { return fc.h * (0.2 + 0.1*r.Float64()) },
			velocity: func(r *rand.Rand) (float64, float64) { return (r.Float64() - 0.5) * 40 * s, r.Float64() * 60 * s },
			gravity:  600 * s,
			size:     6 * s,
		}
	case compiler.BehaviorBurst:
		return emitter{
			originX: func(*rand.Rand) float64 { return fc.cx },
			originY: func(*rand.Rand) float64 { return fc.cy - 40*s },
			velocity: func(r *rand.Rand) (float64, float64) {
				a := r.Float64() * 2 * math.Pi
				v := (300 + 300*r.Float64()) * s
				return math.Cos(a) * v, math.Sin(a) * v
			},
			gravity: 400 * s,
			size:    8 * s,
		}
	case compiler.BehaviorGravity:
		return emitter{
			originX: func(r *rand.Rand) float64 { return fc.cx + (r.Float64()-0.5)*60*s },
			originY: func(*rand.Rand) float64 { return fc.cy },
			velocity: func(r *rand.Rand) (float64, float64) {
				a := -math.Pi/2 + (r.Float64()-0.5)*2
				v := (700 + 500*r.Float64()) * s
				return math.Cos(a) * v, math.Sin(a) * v
			},
			gravity: 1400 * s,
			size:    10 * s,
		}
	default: // float
		return emitter{
			originX:  func(r *rand.Rand) float64 { return fc.w * r.Float64() },
			originY:  func(r *rand.Rand) float64 { return fc.h * (0.35 + 0.4*r.Float64()) },
			velocity: func(r *rand.Rand) (float64, float64) { return (r.Float64() - 0.5) * 60 * s, -(40 + 40*r.Float64()) * s },
			gravity:  20 * s,
			size:     7 * s,
		}
	}
}

// drawParticles draws every emitter of the scene. A particle's state is
// derived from the scene-local time alone: particle i spawns at
// i/count of the spawn window and moves ballistically until its lifetime
// runs out. Parameters come from a per-scene generator and are drawn in a
// fixed order, so a particle looks the same on every frame it appears in.
func drawParticles(fc *frameContext) {
	spawnWindow := math.Max(fc.scene.Duration*0.6, 1e-3)
	for si, spec := range fc.scene.Particles {
		if spec.Count <= 0 || spec.Lifetime <= 0 {
			continue
		}
		colors := make([]color.NRGBA, 0, len(spec.Colors))
		for _, c := range spec.Colors {
			colors = append(colors, hexOr(c, white))
		}
		if len(colors) == 0 {
			colors = append(colors, fc.primary)
		}

		em := emitterFor(fc, spec.Behavior)
		rng := fc.sceneRand(100 + int64(si))
		for i := 0; i < spec.Count; i++ {
			ox, oy := em.originX(rng), em.originY(rng)
			vx, vy := em.velocity(rng)
			size := em.size * (0.6 + 0.8*rng.Float64())
			col := colors[rng.Intn(len(colors))]

			age := fc.elapsed - spawnWindow*float64(i)/float64(spec.Count)
			if age < 0 || age >= spec.Lifetime {
				continue
			}
			life := 1 - age/spec.Lifetime
			x := ox + vx*age
			y := oy + vy*age + 0.5*em.gravity*age*age
			fc.c.FillCircle(x, y, size*(0.5+0.5*life), withAlpha(col, life))
		}
	}
}
