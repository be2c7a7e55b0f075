package source

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/beatvideo/internal/analyzer"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func paperPage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 300, 400))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(60, 80, 240, 140), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return img
}

func TestImageSourceDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), image.NewRGBA(image.Rect(0, 0, 4, 4)))
	writePNG(t, filepath.Join(dir, "a.PNG"), image.NewRGBA(image.Rect(0, 0, 2, 2)))
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)

	src, err := NewImageSource(dir)
	if err != nil {
		t.Fatal(err)
	}
	if src.PageCount() != 2 {
		t.Fatalf("PageCount = %d", src.PageCount())
	}
	first, err := src.RenderPage(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if first.Bounds().Dx() != 2 {
		t.Errorf("pages not in name order: first is %v", first.Bounds())
	}
	if _, err := src.RenderPage(5, 0); err == nil {
		t.Error("expected an out of range error")
	}
}

func TestLoadBackdropCropsToContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.png")
	writePNG(t, path, paperPage())

	img, err := LoadBackdrop(path, BackdropOptions{Detector: analyzer.NewContrastDetector(), Padding: 8})
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	if b.Min != (image.Point{}) {
		t.Errorf("backdrop not rebased: %v", b)
	}
	if b.Dx() >= 300 || b.Dy() >= 400 || b.Dx() < 180 || b.Dy() < 60 {
		t.Errorf("crop %v does not fit the content block", b)
	}
}

func TestCropWithoutDetectorKeepsPage(t *testing.T) {
	img, err := Crop(paperPage(), nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 300, 400) {
		t.Errorf("bounds %v", img.Bounds())
	}
}
