package renderer

import "math"

// drawCaption places the scene text in a rounded box in the lower part of
// the frame, fading in over the first half of the scene.
func drawCaption(fc *frameContext) {
	alpha := clamp01(fc.progress / 0.5)
	if alpha == 0 || fc.scene.Text == "" {
		return
	}

	face := fc.faces.caption
	pad := fc.scale(36)
	lines := wrapText(face, fc.scene.Text, fc.w*0.84-2*pad)
	if len(lines) == 0 {
		return
	}

	lh := lineHeight(face) * 1.15
	widest := 0.0
	for _, l := range lines {
		widest = math.Max(widest, textWidth(face, l))
	}
	boxW := widest + 2*pad
	boxH := float64(len(lines))*lh + 2*pad
	x := fc.cx - boxW/2
	y := math.Min(fc.h*0.74, fc.h-boxH-fc.scale(80))

	fc.c.FillRoundedRect(x, y, boxW, boxH, fc.scale(24), withAlpha(panel, 0.7*alpha))
	ascent := float64(face.Metrics().Ascent) / 64
	for i, l := range lines {
		baseline := y + pad + float64(i)*lh + ascent
		drawCentered(fc.dst, face, l, fc.cx, baseline, withAlpha(white, alpha))
	}
}
