package renderer

import (
	"image"
	"image/color"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/beatvideo/internal/script"
)

type beatRoutine func(fc *frameContext)

var beatRoutines = map[script.Beat]beatRoutine{
	script.BeatSetup:     drawSetup,
	script.BeatProblem:   drawProblem,
	script.BeatConfusion: drawConfusion,
	script.BeatInsight:   drawInsight,
	script.BeatSolve:     drawSolve,
	script.BeatAha:       drawAha,
	script.BeatWrap:      drawWrap,
}

// routineFor falls back to the setup routine for unknown beats.
func routineFor(b script.Beat) beatRoutine {
	if r, ok := beatRoutines[b]; ok {
		return r
	}
	return drawSetup
}

var (
	insightYellow = color.NRGBA{R: 0xFF, G: 0xE0, B: 0x66, A: 0xff}
	bulbBase      = color.NRGBA{R: 0x9A, G: 0xA0, B: 0xA6, A: 0xff}
	checkGreen    = color.NRGBA{R: 0x4C, G: 0xD9, B: 0x64, A: 0xff}
	confusionInk  = []color.NRGBA{
		{R: 0xC9, G: 0xA7, B: 0xFF, A: 0xff},
		{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xff},
		{R: 0x8E, G: 0x7C, B: 0xC3, A: 0xff},
	}
	celebration = []color.NRGBA{
		{R: 0xFF, G: 0x59, B: 0x5E, A: 0xff},
		{R: 0xFF, G: 0xCA, B: 0x3A, A: 0xff},
		{R: 0x8A, G: 0xC9, B: 0x26, A: 0xff},
		{R: 0x19, G: 0x82, B: 0xC4, A: 0xff},
		{R: 0x6A, G: 0x4C, B: 0x93, A: 0xff},
	}
)

var categoryGlyphs = map[string]string{
	"algebra":   "x=?",
	"geometry":  "A+B",
	"physics":   "F=ma",
	"chemistry": "H2O",
	"biology":   "DNA",
}

// drawSetup: topic emblem zooming in with the subject title below.
func drawSetup(fc *frameContext) {
	intro := easeOutCubic(window(fc.progress, 0, 0.3))
	scale := 0.6 + 0.4*intro
	r := fc.scale(170) * scale

	fc.c.FillCircle(fc.cx, fc.cy, r, withAlpha(fc.primary, 0.9*intro))
	fc.c.Ring(fc.cx, fc.cy, r+fc.scale(24)*scale, fc.scale(6), withAlpha(white, 0.6*intro))

	glyph, ok := categoryGlyphs[fc.scene.Category]
	if !ok {
		glyph = "?!"
	}
	m := fc.faces.title.Metrics()
	baseline := fc.cy + float64(m.Ascent-m.Descent)/128
	drawCentered(fc.dst, fc.faces.title, glyph, fc.cx, baseline, withAlpha(white, intro))

	title := easeInOutCubic(window(fc.progress, 0.15, 0.45))
	if title > 0 {
		y := fc.cy + r + fc.scale(150) + (1-title)*fc.scale(40)
		drawCentered(fc.dst, fc.faces.title, humanize(fc.scene.Subject), fc.cx, y, withAlpha(white, title))
		drawCentered(fc.dst, fc.faces.body, humanize(fc.scene.Category), fc.cx, y+lineHeight(fc.faces.body)*1.2, withAlpha(fc.primary, title))
	}
}

// drawProblem: a shaking question card with an expanding highlight ring.
func drawProblem(fc *frameContext) {
	shake := (1 - window(fc.progress, 0, 0.4)) * fc.scale(14)
	dx := math.Sin(fc.elapsed*2*math.Pi*8) * shake

	cardW, cardH := fc.w*0.78, fc.h*0.3
	x, y := fc.cx-cardW/2+dx, fc.cy-cardH/2
	fc.c.FillRoundedRect(x, y, cardW, cardH, fc.scale(28), withAlpha(panel, 0.85))
	fc.c.FillRoundedRect(x, y, cardW, fc.scale(14), fc.scale(7), fc.primary)

	if bd := fc.scene.Backdrop; bd != nil {
		pad := fc.scale(28)
		dr := fitRect(bd.Bounds(), x+pad, y+pad*1.5, cardW-2*pad, cardH-2.5*pad)
		xdraw.ApproxBiLinear.Scale(fc.dst, dr, bd, bd.Bounds(), xdraw.Over, nil)
	} else {
		m := fc.faces.glyph.Metrics()
		drawCentered(fc.dst, fc.faces.glyph, "?", fc.cx+dx, fc.cy+float64(m.Ascent-m.Descent)/128, white)
		if eq := fc.scene.Enrichment.Equation; eq != "" {
			drawCentered(fc.dst, fc.faces.body, eq, fc.cx+dx, y+cardH-fc.scale(36), withAlpha(white, 0.85))
		}
	}

	grow := easeOutCubic(window(fc.progress, 0, 0.6))
	radius := fc.scale(120) + fc.scale(420)*grow
	thickness := fc.scale(10 + 4*math.Sin(fc.elapsed*2*math.Pi*1.25))
	fc.c.Ring(fc.cx, fc.cy, radius, thickness, withAlpha(fc.primary, 0.8*(1-fc.progress)))
}

// drawConfusion: question marks orbiting and rotating around a thought cloud.
func drawConfusion(fc *frameContext) {
	appear := easeOutCubic(window(fc.progress, 0, 0.2))

	cloud := withAlpha(white, 0.12*appear)
	for i, off := range [][3]float64{{0, 0, 150}, {-130, 30, 100}, {130, 30, 110}, {-60, -80, 95}, {70, -70, 105}} {
		wobble := math.Sin(fc.elapsed*1.5+float64(i)) * fc.scale(6)
		fc.c.FillCircle(fc.cx+fc.scale(off[0]), fc.cy+fc.scale(off[1])+wobble, fc.scale(off[2]), cloud)
	}

	rng := fc.sceneRand(1)
	jitter := fc.frameRand(2)
	n := 5 + rng.Intn(3)
	for i := 0; i < n; i++ {
		phase := rng.Float64() * 2 * math.Pi
		radius := fc.scale(160 + rng.Float64()*220)
		speed := 0.25 + rng.Float64()*0.35
		wob := rng.Float64() * 2 * math.Pi
		if i%2 == 1 {
			speed = -speed
		}

		angle := phase + fc.elapsed*speed*2*math.Pi
		x := fc.cx + math.Cos(angle)*radius + (jitter.Float64()-0.5)*fc.scale(4)
		y := fc.cy + math.Sin(angle)*radius*0.8 + (jitter.Float64()-0.5)*fc.scale(4)
		rot := math.Sin(fc.elapsed*2+wob) * 0.45
		ink := confusionInk[i%len(confusionInk)]
		drawRotatedGlyph(fc.dst, fc.faces.glyph, "?", x, y, rot, withAlpha(ink, appear))
	}
}

// drawInsight: a growing light bulb with a radial glow and rotating rays.
func drawInsight(fc *frameContext) {
	glow := easeInOutQuad(window(fc.progress, 0, 0.5))
	const layers = 12
	maxR := fc.scale(80) + fc.scale(520)*glow
	for k := layers; k >= 1; k-- {
		fc.c.FillCircle(fc.cx, fc.cy, maxR*float64(k)/layers, withAlpha(insightYellow, 0.06*glow))
	}

	grow := easeOutCubic(window(fc.progress, 0.1, 0.6))
	br := fc.scale(110) * grow
	by := fc.cy - fc.scale(40)

	rot := fc.elapsed * 0.4
	inner := br + fc.scale(20)
	outer := inner + (fc.scale(60)+fc.scale(80)*glow)*grow
	for i := 0; i < 12; i++ {
		a := rot + float64(i)*2*math.Pi/12
		cos, sin := math.Cos(a), math.Sin(a)
		fc.c.StrokeLine(fc.cx+cos*inner, by+sin*inner, fc.cx+cos*outer, by+sin*outer, fc.scale(8), withAlpha(insightYellow, 0.8*grow))
	}

	fc.c.FillCircle(fc.cx, by, br, insightYellow)
	fc.c.FillRoundedRect(fc.cx-br*0.45, by+br*0.85, br*0.9, br*0.55, fc.scale(8), bulbBase)
}

// drawSolve: a filling progress bar and a step list revealed in turn.
func drawSolve(fc *frameContext) {
	x0, barW := fc.w*0.1, fc.w*0.8
	barY, barH := fc.h*0.28, fc.scale(36)
	fc.c.FillRoundedRect(x0, barY, barW, barH, barH/2, withAlpha(white, 0.25))
	if fill := easeInOutQuad(window(fc.progress, 0, 0.9)); fill > 0 {
		fc.c.FillRoundedRect(x0, barY, math.Max(barW*fill, barH), barH, barH/2, fc.primary)
	}

	steps := solveSteps(fc)
	for i, step := range steps {
		threshold := float64(i+1) / float64(len(steps)+1)
		a := window(fc.progress, threshold, threshold+0.1)
		if a <= 0 {
			continue
		}
		slide := (1 - easeOutCubic(a)) * fc.scale(40)
		y := barY + fc.scale(200) + float64(i)*fc.scale(130) + slide
		fc.c.FillCircle(x0+fc.scale(24), y-fc.scale(14), fc.scale(18), withAlpha(fc.primary, a))
		drawText(fc.dst, fc.faces.body, step, x0+fc.scale(70), y, withAlpha(white, a))
	}
}

func solveSteps(fc *frameContext) []string {
	e := fc.scene.Enrichment
	switch {
	case e.Equation != "":
		return []string{"Write: " + e.Equation, "Isolate the unknown", "Check the answer"}
	case e.Process != nil:
		return []string{"In: " + strings.Join(e.Process.Reactants, " + "), humanize(e.Process.Name), "Out: " + strings.Join(e.Process.Products, " + ")}
	case len(e.Forces) > 0:
		return []string{"Draw every force", strings.Join(e.Forces, ", "), "Apply F = ma"}
	}
	return []string{"Read the question", "Pick a method", "Work it out"}
}

// drawAha: a checkmark stroked in two segments, then a ring of circles.
func drawAha(fc *frameContext) {
	disc := easeOutCubic(window(fc.progress, 0, 0.3))
	fc.c.FillCircle(fc.cx, fc.cy, fc.scale(260)*disc, withAlpha(fc.primary, 0.25))

	stroke := easeOutCubic(window(fc.progress, 0, 0.5))
	a := point{fc.cx - fc.scale(150), fc.cy}
	b := point{fc.cx - fc.scale(40), fc.cy + fc.scale(110)}
	c := point{fc.cx + fc.scale(170), fc.cy - fc.scale(130)}
	s1, s2 := window(stroke, 0, 0.4), window(stroke, 0.4, 1)
	if s1 > 0 {
		pts := []point{a, {lerp(a.x, b.x, s1), lerp(a.y, b.y, s1)}}
		if s2 > 0 {
			pts = append(pts, point{lerp(b.x, c.x, s2), lerp(b.y, c.y, s2)})
		}
		fc.c.StrokePolyline(pts, fc.scale(34), checkGreen)
	}

	burst := easeOutCubic(window(fc.progress, 0.3, 0.7))
	if burst <= 0 {
		return
	}
	fade := 1 - window(fc.progress, 0.75, 1)
	for i := 0; i < 8; i++ {
		angle := float64(i)*2*math.Pi/8 + 0.3
		dist := fc.scale(200 + 260*burst)
		r := fc.scale(26*(1-0.5*burst) + 6)
		col := celebration[i%len(celebration)]
		fc.c.FillCircle(fc.cx+math.Cos(angle)*dist, fc.cy+math.Sin(angle)*dist, r, withAlpha(col, fade))
	}
}

// drawWrap: a summary box sliding up, fading out at the end.
func drawWrap(fc *frameContext) {
	slide := easeOutCubic(window(fc.progress, 0, 0.4))
	fade := 1 - window(fc.progress, 0.8, 1)

	boxW, boxH := fc.w*0.8, fc.h*0.26
	y := lerp(fc.h, fc.h*0.3, slide)
	x := fc.cx - boxW/2
	fc.c.FillRoundedRect(x, y, boxW, boxH, fc.scale(36), withAlpha(panel, 0.9*fade))
	fc.c.FillRoundedRect(x, y, fc.scale(14), boxH, fc.scale(7), withAlpha(fc.primary, fade))

	pad := fc.scale(56)
	lh := lineHeight(fc.faces.body) * 1.25
	ty := y + pad + lineHeight(fc.faces.title)*0.8
	drawText(fc.dst, fc.faces.title, "Key idea", x+pad, ty, withAlpha(white, fade))
	ty += lh * 1.3
	for _, line := range summaryLines(fc) {
		drawText(fc.dst, fc.faces.body, line, x+pad, ty, withAlpha(white, 0.85*fade))
		ty += lh
	}
	drawText(fc.dst, fc.faces.body, "Follow for more!", x+pad, y+boxH-pad*0.6, withAlpha(fc.primary, fade))
}

func summaryLines(fc *frameContext) []string {
	e := fc.scene.Enrichment
	lines := []string{humanize(fc.scene.Subject) + " / " + humanize(fc.scene.Category)}
	switch {
	case e.Equation != "":
		lines = append(lines, e.Equation)
	case e.Process != nil:
		lines = append(lines, strings.Join(e.Process.Reactants, " + ")+" -> "+strings.Join(e.Process.Products, " + "))
	case len(e.Forces) > 0:
		lines = append(lines, "Forces: "+strings.Join(e.Forces, ", "))
	}
	return lines
}

// fitRect centers src's aspect ratio inside the box.
func fitRect(src image.Rectangle, x, y, w, h float64) image.Rectangle {
	sw, sh := float64(src.Dx()), float64(src.Dy())
	if sw <= 0 || sh <= 0 || w <= 0 || h <= 0 {
		return image.Rectangle{}
	}
	k := math.Min(w/sw, h/sh)
	dw, dh := sw*k, sh*k
	left, top := x+(w-dw)/2, y+(h-dh)/2
	return image.Rect(int(left), int(top), int(left+dw), int(top+dh))
}

func humanize(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
