package renderer

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"
)

type point struct{ x, y float64 }

type polygon []point

// area is the shoelace signed area; positive for clockwise winding in
// screen coordinates.
func (p polygon) area() float64 {
	var a float64
	for i := range p {
		j := (i + 1) % len(p)
		a += p[i].x*p[j].y - p[j].x*p[i].y
	}
	return a / 2
}

func (p polygon) oriented(positive bool) polygon {
	if (p.area() >= 0) == positive {
		return p
	}
	out := make(polygon, len(p))
	for i := range p {
		out[i] = p[len(p)-1-i]
	}
	return out
}

// canvas fills anti-aliased polygons onto an RGBA frame. Sub-paths passed
// to one fill call are merged, so overlapping parts are not blended twice.
type canvas struct {
	img *image.RGBA
}

func (c *canvas) fill(col color.NRGBA, polys ...polygon) {
	if col.A == 0 || len(polys) == 0 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range polys {
		for _, pt := range p {
			minX, maxX = math.Min(minX, pt.x), math.Max(maxX, pt.x)
			minY, maxY = math.Min(minY, pt.y), math.Max(maxY, pt.y)
		}
	}
	if math.IsInf(minX, 0) || math.IsNaN(minX+minY+maxX+maxY) {
		return
	}
	r := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	r = r.Intersect(c.img.Bounds())
	if r.Empty() {
		return
	}

	z := vector.NewRasterizer(r.Dx(), r.Dy())
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	for _, p := range polys {
		if len(p) < 3 {
			continue
		}
		z.MoveTo(float32(p[0].x-ox), float32(p[0].y-oy))
		for _, pt := range p[1:] {
			z.LineTo(float32(pt.x-ox), float32(pt.y-oy))
		}
		z.ClosePath()
	}
	z.Draw(c.img, r, image.NewUniform(col), image.Point{})
}

func (c *canvas) FillCircle(cx, cy, r float64, col color.NRGBA) {
	if r <= 0 {
		return
	}
	c.fill(col, circlePolygon(cx, cy, r))
}

// Ring draws a circular band whose outer edge has radius r.
func (c *canvas) Ring(cx, cy, r, thickness float64, col color.NRGBA) {
	if r <= 0 || thickness <= 0 {
		return
	}
	inner := r - thickness
	if inner <= 0 {
		c.FillCircle(cx, cy, r, col)
		return
	}
	c.fill(col, circlePolygon(cx, cy, r), circlePolygon(cx, cy, inner).oriented(false))
}

func (c *canvas) FillRect(x, y, w, h float64, col color.NRGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	c.fill(col, polygon{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}})
}

func (c *canvas) FillRoundedRect(x, y, w, h, radius float64, col color.NRGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	c.fill(col, roundedRectPolygon(x, y, w, h, radius))
}

// StrokeLine draws a segment with round caps.
func (c *canvas) StrokeLine(x0, y0, x1, y1, width float64, col color.NRGBA) {
	c.StrokePolyline([]point{{x0, y0}, {x1, y1}}, width, col)
}

// StrokePolyline draws connected segments with round joins and caps.
func (c *canvas) StrokePolyline(pts []point, width float64, col color.NRGBA) {
	if len(pts) < 2 || width <= 0 {
		return
	}
	half := width / 2
	polys := make([]polygon, 0, 2*len(pts))
	for i := 0; i+1 < len(pts); i++ {
		if q := segmentPolygon(pts[i], pts[i+1], half); q != nil {
			polys = append(polys, q)
		}
	}
	for _, p := range pts {
		polys = append(polys, circlePolygon(p.x, p.y, half))
	}
	c.fill(col, polys...)
}

func (c *canvas) FillPolygon(pts []point, col color.NRGBA) {
	if len(pts) < 3 {
		return
	}
	c.fill(col, polygon(pts).oriented(true))
}

func circlePolygon(cx, cy, r float64) polygon {
	n := int(math.Max(24, math.Min(160, r/2)))
	p := make(polygon, n)
	for i := range p {
		a := 2 * math.Pi * float64(i) / float64(n)
		p[i] = point{cx + r*math.Cos(a), cy + r*math.Sin(a)}
	}
	return p
}

func roundedRectPolygon(x, y, w, h, radius float64) polygon {
	radius = math.Max(0, math.Min(radius, math.Min(w, h)/2))
	if radius == 0 {
		return polygon{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	}
	const steps = 8
	corners := []struct {
		cx, cy, start float64
	}{
		{x + w - radius, y + radius, -math.Pi / 2},
		{x + w - radius, y + h - radius, 0},
		{x + radius, y + h - radius, math.Pi / 2},
		{x + radius, y + radius, math.Pi},
	}
	p := make(polygon, 0, 4*(steps+1))
	for _, c := range corners {
		for i := 0; i <= steps; i++ {
			a := c.start + (math.Pi/2)*float64(i)/steps
			p = append(p, point{c.cx + radius*math.Cos(a), c.cy + radius*math.Sin(a)})
		}
	}
	return p
}

func segmentPolygon(a, b point, half float64) polygon {
	dx, dy := b.x-a.x, b.y-a.y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return nil
	}
	nx, ny := -dy/l*half, dx/l*half
	return polygon{
		{a.x + nx, a.y + ny},
		{b.x + nx, b.y + ny},
		{b.x - nx, b.y - ny},
		{a.x - nx, a.y - ny},
	}.oriented(true)
}

func parseHex(s string) (color.NRGBA, bool) {
	if len(s) != 7 || s[0] != '#' {
		return color.NRGBA{}, false
	}
	var v [3]uint8
	for i := range v {
		hi, ok1 := hexNibble(s[1+2*i])
		lo, ok2 := hexNibble(s[2+2*i])
		if !ok1 || !ok2 {
			return color.NRGBA{}, false
		}
		v[i] = hi<<4 | lo
	}
	return color.NRGBA{R: v[0], G: v[1], B: v[2], A: 0xff}, true
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// hexOr parses s, falling back to def for malformed values.
func hexOr(s string, def color.NRGBA) color.NRGBA {
	if c, ok := parseHex(s); ok {
		return c
	}
	return def
}

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * clamp01(a)))
	return c
}
