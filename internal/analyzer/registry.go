package analyzer

import (
	"fmt"
	"image"
)

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	case "full":
		return FullPage{}, nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}

// FullPage reports the whole image as one block, disabling cropping.
type FullPage struct{}

func (FullPage) Detect(img image.Image) ([]Block, error) {
	return []Block{{Rect: img.Bounds(), Type: "unknown", Confidence: 1}}, nil
}
