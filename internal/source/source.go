// Package source loads paper pages (PDF or raster) used as problem-beat
// backdrops.
package source

import (
	"fmt"
	"image"
	"image/draw"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/beatvideo/internal/analyzer"
)

type Source interface {
	PageCount() int
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// FitzPDFSource renders PDF pages with MuPDF. A fitz.Document is not safe
// for concurrent use, so rendering is serialized.
type FitzPDFSource struct {
	mu  sync.Mutex
	doc *fitz.Document
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &FitzPDFSource{doc: doc}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	if index < 0 || index >= f.PageCount() {
		return nil, fmt.Errorf("page %d out of range (document has %d)", index+1, f.PageCount())
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}

// Open picks a PDF or raster source by file extension.
func Open(path string) (Source, error) {
	if strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return NewFitzPDFSource(path)
	}
	return NewImageSource(path)
}

// BackdropOptions control LoadBackdrop.
type BackdropOptions struct {
	Page     int // 0-based
	DPI      int
	Detector analyzer.Detector
	Padding  int
}

// LoadBackdrop renders one page and crops it to its content region.
func LoadBackdrop(path string, opts BackdropOptions) (*image.RGBA, error) {
	src, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("open paper %s: %w", path, err)
	}
	defer src.Close()

	if opts.DPI <= 0 {
		opts.DPI = 110
	}
	page, err := src.RenderPage(opts.Page, opts.DPI)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", opts.Page+1, err)
	}
	return Crop(page, opts.Detector, opts.Padding)
}

// Crop copies the focus region of page into a new RGBA image. A nil
// detector keeps the whole page.
func Crop(page image.Image, d analyzer.Detector, pad int) (*image.RGBA, error) {
	region := page.Bounds()
	if d != nil {
		r, err := analyzer.FocusRegion(page, d, pad)
		if err != nil {
			return nil, fmt.Errorf("detect content: %w", err)
		}
		if !r.Empty() {
			region = r
		}
	}
	out := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(out, out.Bounds(), page, region.Min, draw.Src)
	return out, nil
}
