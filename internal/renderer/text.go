package renderer

import (
	"image"
	"image/color"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

type fontSet struct {
	regular *opentype.Font
	bold    *opentype.Font
}

func loadFonts() (*fontSet, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	return &fontSet{regular: regular, bold: bold}, nil
}

// faces are per-frame: font.Face values keep glyph buffers and must not be
// shared between goroutines.
type faces struct {
	caption font.Face
	body    font.Face
	title   font.Face
	glyph   font.Face
}

func (fs *fontSet) newFaces(captionSize float64) (*faces, error) {
	mk := func(f *opentype.Font, size float64) (font.Face, error) {
		return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	}
	var (
		out faces
		err error
	)
	if out.caption, err = mk(fs.bold, captionSize); err != nil {
		return nil, err
	}
	if out.body, err = mk(fs.regular, captionSize*0.85); err != nil {
		return nil, err
	}
	if out.title, err = mk(fs.bold, captionSize*1.4); err != nil {
		return nil, err
	}
	if out.glyph, err = mk(fs.bold, captionSize*2.6); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *faces) Close() {
	for _, face := range []font.Face{f.caption, f.body, f.title, f.glyph} {
		if face != nil {
			face.Close()
		}
	}
}

func textWidth(face font.Face, s string) float64 {
	return float64(font.MeasureString(face, s)) / 64
}

func lineHeight(face font.Face) float64 {
	return float64(face.Metrics().Height) / 64
}

// drawText draws s with its baseline starting at (x, y).
func drawText(dst *image.RGBA, face font.Face, s string, x, y float64, col color.NRGBA) {
	if s == "" || col.A == 0 {
		return
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)},
	}
	d.DrawString(s)
}

// drawCentered draws s horizontally centered on cx.
func drawCentered(dst *image.RGBA, face font.Face, s string, cx, y float64, col color.NRGBA) {
	drawText(dst, face, s, cx-textWidth(face, s)/2, y, col)
}

// wrapText greedily breaks s into lines no wider than maxWidth. Words wider
// than maxWidth are split between runes.
func wrapText(face font.Face, s string, maxWidth float64) []string {
	var words []string
	for _, w := range strings.Fields(s) {
		words = append(words, splitWord(face, w, maxWidth)...)
	}
	if len(words) == 0 {
		return nil
	}
	var (
		lines []string
		cur   = words[0]
	)
	for _, w := range words[1:] {
		candidate := cur + " " + w
		if textWidth(face, candidate) <= maxWidth {
			cur = candidate
			continue
		}
		lines = append(lines, cur)
		cur = w
	}
	return append(lines, cur)
}

// splitWord cuts w into pieces that each fit maxWidth. A piece holds at
// least one rune.
func splitWord(face font.Face, w string, maxWidth float64) []string {
	if textWidth(face, w) <= maxWidth {
		return []string{w}
	}
	var (
		parts []string
		cur   []rune
	)
	for _, r := range w {
		if len(cur) > 0 && textWidth(face, string(append(cur, r))) > maxWidth {
			parts = append(parts, string(cur))
			cur = cur[:0:0]
		}
		cur = append(cur, r)
	}
	return append(parts, string(cur))
}

// drawRotatedGlyph renders s centered on (cx, cy), rotated by angle radians.
func drawRotatedGlyph(dst *image.RGBA, face font.Face, s string, cx, cy, angle float64, col color.NRGBA) {
	if col.A == 0 {
		return
	}
	m := face.Metrics()
	w := textWidth(face, s)
	h := float64(m.Ascent+m.Descent) / 64
	size := int(math.Ceil(math.Max(w, h))) + 4
	glyph := image.NewRGBA(image.Rect(0, 0, size, size))
	drawText(glyph, face, s, (float64(size)-w)/2, (float64(size)-h)/2+float64(m.Ascent)/64, col)

	sx, sy := float64(size)/2, float64(size)/2
	sin, cos := math.Sincos(angle)
	s2d := f64.Aff3{
		cos, -sin, cx - (cos*sx - sin*sy),
		sin, cos, cy - (sin*sx + cos*sy),
	}
	xdraw.BiLinear.Transform(dst, s2d, glyph, glyph.Bounds(), xdraw.Over, nil)
}
