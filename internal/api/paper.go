package api

import (
	"bytes"
	"image"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/ivlev/beatvideo/internal/analyzer"
	"github.com/ivlev/beatvideo/internal/engine"
	"github.com/ivlev/beatvideo/internal/source"
)

// Paper is an uploaded page (PDF, PNG or JPEG) used as the problem-beat
// backdrop. Data is base64 in JSON.
type Paper struct {
	Data []byte `json:"data" validate:"required"`
	Page int    `json:"page" validate:"gte=0"`
}

// loadPaper stores the upload in a temp dir so the page sources can open
// it by path, then crops it to its content.
func loadPaper(p *Paper) (image.Image, error) {
	dir, err := os.MkdirTemp("", "beatvideo_paper_")
	if err != nil {
		return nil, errors.Wrap(err, "paper temp dir")
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "paper"+paperExt(p.Data))
	if err := os.WriteFile(path, p.Data, 0o600); err != nil {
		return nil, errors.Wrap(err, "write paper")
	}

	img, err := source.LoadBackdrop(path, source.BackdropOptions{
		Page:     p.Page,
		Detector: analyzer.NewContrastDetector(),
		Padding:  16,
	})
	if err != nil {
		return nil, &paperError{err: err}
	}
	return img, nil
}

func paperExt(data []byte) string {
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return ".pdf"
	}
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return ".jpg"
	}
	return ".png"
}

// paperError is an unreadable upload.
type paperError struct {
	err error
}

func (e *paperError) Error() string     { return "unreadable paper: " + e.err.Error() }
func (e *paperError) Unwrap() error     { return e.err }
func (e *paperError) ErrorKind() string { return engine.KindValidation }
