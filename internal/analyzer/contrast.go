package analyzer

import (
	"image"
	"image/color"
	"math"
)

// ContrastDetector finds content regions on a page (text blocks, figures)
// with a Sobel edge pass, dilation and connected components. Large pages
// are analysed on a downsampled grid and the result scaled back.
type ContrastDetector struct {
	MinBlockArea  int     // in source pixels²
	EdgeThreshold float64 // Gradient magnitude threshold
	MaxSide       int     // analysis grid limit; 0 disables downsampling
}

// NewContrastDetector creates a new contrast-based detector with default settings
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  500,
		EdgeThreshold: 30.0,
		MaxSide:       800,
	}
}

// grid is a flat 8-bit raster.
type grid struct {
	w, h int
	pix  []uint8
}

func (g *grid) at(x, y int) uint8 { return g.pix[y*g.w+x] }

func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	bounds := img.Bounds()
	step := 1
	if longest := max(bounds.Dx(), bounds.Dy()); d.MaxSide > 0 && longest > d.MaxSide {
		step = int(math.Ceil(float64(longest) / float64(d.MaxSide)))
	}

	gray := luminance(img, step)
	edges := sobel(gray, d.EdgeThreshold)
	dilated := dilate(edges, 5, 2)

	var blocks []Block
	for _, r := range components(dilated) {
		src := image.Rect(r.Min.X*step, r.Min.Y*step, r.Max.X*step, r.Max.Y*step).Add(bounds.Min).Intersect(bounds)
		if area(src) < d.MinBlockArea {
			continue
		}
		blocks = append(blocks, Block{Rect: src, Type: classify(src), Confidence: 0.7})
	}
	return blocks, nil
}

// classify guesses from the aspect ratio: text lines are wide and short.
func classify(r image.Rectangle) string {
	ratio := float64(r.Dx()) / float64(max(r.Dy(), 1))
	switch {
	case ratio >= 3:
		return "text"
	case ratio > 0.5 && ratio < 2:
		return "figure"
	}
	return "unknown"
}

// luminance samples every step-th pixel into a grayscale grid.
func luminance(img image.Image, step int) *grid {
	b := img.Bounds()
	g := &grid{w: (b.Dx() + step - 1) / step, h: (b.Dy() + step - 1) / step}
	g.pix = make([]uint8, g.w*g.h)

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < g.h; y++ {
			for x := 0; x < g.w; x++ {
				g.pix[y*g.w+x] = src.GrayAt(b.Min.X+x*step, b.Min.Y+y*step).Y
			}
		}
	case *image.RGBA:
		for y := 0; y < g.h; y++ {
			for x := 0; x < g.w; x++ {
				i := src.PixOffset(b.Min.X+x*step, b.Min.Y+y*step)
				r, gg, bb := uint32(src.Pix[i]), uint32(src.Pix[i+1]), uint32(src.Pix[i+2])
				g.pix[y*g.w+x] = uint8((19595*r + 38470*gg + 7471*bb + 1<<15) >> 16)
			}
		}
	default:
		for y := 0; y < g.h; y++ {
			for x := 0; x < g.w; x++ {
				c := color.GrayModel.Convert(img.At(b.Min.X+x*step, b.Min.Y+y*step)).(color.Gray)
				g.pix[y*g.w+x] = c.Y
			}
		}
	}
	return g
}

// sobel marks pixels whose gradient magnitude exceeds threshold.
func sobel(g *grid, threshold float64) *grid {
	out := &grid{w: g.w, h: g.h, pix: make([]uint8, len(g.pix))}
	for y := 1; y < g.h-1; y++ {
		for x := 1; x < g.w-1; x++ {
			p := func(dx, dy int) float64 { return float64(g.at(x+dx, y+dy)) }
			sx := -p(-1, -1) + p(1, -1) - 2*p(-1, 0) + 2*p(1, 0) - p(-1, 1) + p(1, 1)
			sy := -p(-1, -1) - 2*p(0, -1) - p(1, -1) + p(-1, 1) + 2*p(0, 1) + p(1, 1)
			if math.Hypot(sx, sy) > threshold {
				out.pix[y*g.w+x] = 255
			}
		}
	}
	return out
}

// dilate performs morphological dilation to connect nearby edges
func dilate(g *grid, kernelSize, iterations int) *grid {
	half := kernelSize / 2
	cur := g
	for iter := 0; iter < iterations; iter++ {
		next := &grid{w: g.w, h: g.h, pix: make([]uint8, len(g.pix))}
		for y := 0; y < g.h; y++ {
			for x := 0; x < g.w; x++ {
				if cur.at(x, y) == 0 {
					continue
				}
				for ky := max(0, y-half); ky <= min(g.h-1, y+half); ky++ {
					row := next.pix[ky*g.w:]
					for kx := max(0, x-half); kx <= min(g.w-1, x+half); kx++ {
						row[kx] = 255
					}
				}
			}
		}
		cur = next
	}
	return cur
}

// components returns bounding rectangles of 4-connected set regions.
func components(g *grid) []image.Rectangle {
	visited := make([]bool, len(g.pix))
	var rects []image.Rectangle
	var stack []int

	for start := range g.pix {
		if g.pix[start] == 0 || visited[start] {
			continue
		}
		r := image.Rect(start%g.w, start/g.w, start%g.w+1, start/g.w+1)
		stack = append(stack[:0], start)
		visited[start] = true
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%g.w, i/g.w
			r = r.Union(image.Rect(x, y, x+1, y+1))

			for _, n := range [4][2]int{{x + 1, y}, {x - 1, y}, {x, y + 1}, {x, y - 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || ny < 0 || nx >= g.w || ny >= g.h {
					continue
				}
				j := ny*g.w + nx
				if g.pix[j] != 0 && !visited[j] {
					visited[j] = true
					stack = append(stack, j)
				}
			}
		}
		rects = append(rects, r)
	}
	return rects
}
