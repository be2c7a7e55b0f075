package video

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

// Probe returns the container duration of path in seconds, read with ffprobe.
func Probe(ctx context.Context, ffprobe, path string) (float64, error) {
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, ffprobe, "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, errors.Wrapf(err, "ffprobe %s: %s", path, strings.TrimSpace(string(out)))
	}
	return parseDuration(string(out))
}

func parseDuration(out string) (float64, error) {
	d, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "unexpected ffprobe output %q", out)
	}
	return d, nil
}

// ShareCodePNG encodes url as a QR code PNG of size x size pixels.
func ShareCodePNG(url string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Wrap(err, "encode share code")
	}
	return png, nil
}

// WriteShareCode writes the QR code for url next to a rendered video.
func WriteShareCode(url, path string, size int) error {
	if size <= 0 {
		size = 256
	}
	return errors.Wrap(qrcode.WriteFile(url, qrcode.Medium, size, path), "write share code")
}
