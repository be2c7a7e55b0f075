package analyzer

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

// page draws dark rectangles on a white page.
func page(w, h int, rects ...image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for _, r := range rects {
		draw.Draw(img, r, image.NewUniform(color.Black), image.Point{}, draw.Src)
	}
	return img
}

func TestContrastDetector(t *testing.T) {
	img := page(200, 200, image.Rect(50, 50, 150, 150))

	blocks, err := NewContrastDetector().Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(blocks) == 0 {
		t.Fatal("Expected at least one block, got none")
	}

	block := blocks[0]
	if block.Rect.Dx() < 80 || block.Rect.Dy() < 80 {
		t.Errorf("Block too small: %v", block.Rect)
	}
	if block.Type != "figure" {
		t.Errorf("square block classified as %s", block.Type)
	}
}

func TestContrastDetectorDownsamples(t *testing.T) {
	img := page(2000, 2400, image.Rect(400, 600, 1600, 900))
	d := NewContrastDetector()

	blocks, err := d.Detect(img)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks", len(blocks))
	}
	r := blocks[0].Rect
	// edges sit on the rectangle border, so the block hugs it within a few grid steps
	if abs(r.Min.X-400) > 30 || abs(r.Max.X-1600) > 30 || abs(r.Min.Y-600) > 30 || abs(r.Max.Y-900) > 30 {
		t.Errorf("block %v does not match the drawn rectangle", r)
	}
	if blocks[0].Type != "text" {
		t.Errorf("wide block classified as %s", blocks[0].Type)
	}
}

func TestFocusRegion(t *testing.T) {
	img := page(400, 600, image.Rect(40, 100, 360, 160), image.Rect(40, 200, 360, 260))

	r, err := FocusRegion(img, NewContrastDetector(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if !image.Rect(40, 100, 360, 260).In(r) {
		t.Errorf("focus %v misses content", r)
	}
	if r.Dy() > 300 {
		t.Errorf("focus %v includes the empty lower page", r)
	}
}

func TestFocusRegionBlankPage(t *testing.T) {
	img := page(100, 100)
	r, err := FocusRegion(img, NewContrastDetector(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if r != img.Bounds() {
		t.Errorf("blank page focus = %v, want full bounds", r)
	}
}

func TestDetectorRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"contrast", false},
		{"", false}, // default
		{"full", false},
		{"ocr", true},
		{"invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			detector, err := NewDetector(tt.variant)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if detector == nil {
				t.Error("Expected detector, got nil")
			}
		})
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
