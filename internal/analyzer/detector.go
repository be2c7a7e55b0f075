package analyzer

import (
	"image"
	"sort"
)

// Block represents a detected region of interest in an image
type Block struct {
	Rect       image.Rectangle
	Type       string  // "text", "figure", "unknown"
	Confidence float64 // 0.0-1.0
}

// Detector is the interface for image analysis strategies
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}

// FocusRegion picks the part of a page worth showing as a backdrop: the
// union of the largest blocks covering most of the detected content, padded
// by pad pixels. With nothing detected the whole page is returned.
func FocusRegion(img image.Image, d Detector, pad int) (image.Rectangle, error) {
	bounds := img.Bounds()
	blocks, err := d.Detect(img)
	if err != nil {
		return bounds, err
	}
	if len(blocks) == 0 {
		return bounds, nil
	}

	sort.Slice(blocks, func(i, j int) bool {
		return area(blocks[i].Rect) > area(blocks[j].Rect)
	})
	total := 0
	for _, b := range blocks {
		total += area(b.Rect)
	}

	var region image.Rectangle
	covered := 0
	for _, b := range blocks {
		region = region.Union(b.Rect)
		covered += area(b.Rect)
		if covered*10 >= total*8 {
			break
		}
	}
	return region.Inset(-pad).Intersect(bounds), nil
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
