package video

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// EncodeParams describe one image-sequence encode.
type EncodeParams struct {
	// FramePattern is a printf-style path, e.g. /tmp/x/frame_%05d.png.
	FramePattern string
	Output       string
	FPS          int
	Codec        string
	Preset       string
	Quality      int
	TotalFrames  int
}

type VideoEncoder interface {
	Encode(ctx context.Context, p EncodeParams, progress chan<- Progress) error
}

// EncoderError reports an ffmpeg run that did not finish cleanly.
type EncoderError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *EncoderError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("ffmpeg exited with code %d: %v", e.ExitCode, e.Err)
	}
	return fmt.Sprintf("ffmpeg exited with code %d: %v: %s", e.ExitCode, e.Err, e.Stderr)
}

func (e *EncoderError) Unwrap() error { return e.Err }

func (e *EncoderError) ErrorKind() string { return "encoder" }

var errNoProgressEnd = errors.New("ffmpeg did not report progress=end")

type FFmpegEncoder struct {
	Binary string
	Logger *zap.Logger
}

func NewFFmpegEncoder(binary string, logger *zap.Logger) *FFmpegEncoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegEncoder{Binary: binary, Logger: logger}
}

// Encode runs ffmpeg over the frame sequence. Progress events are sent
// without blocking; events are dropped when the channel is full. The channel
// is not closed. A run succeeds only if ffmpeg exits 0 and reported
// progress=end.
func (e *FFmpegEncoder) Encode(ctx context.Context, p EncodeParams, progress chan<- Progress) error {
	args := e.buildFFmpegArgs(p)
	e.Logger.Debug("starting ffmpeg", zap.String("binary", e.Binary), zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, e.Binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "stdout pipe")
	}
	stderr := newTailBuffer(4096)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "ffmpeg start")
	}

	ended := readProgress(stdout, progress)
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return errors.Wrap(ctx.Err(), "encode interrupted")
	}
	if waitErr == nil && ended {
		return nil
	}

	encErr := &EncoderError{ExitCode: -1, Stderr: stderr.String(), Err: waitErr}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		encErr.ExitCode = exitErr.ExitCode()
	}
	if waitErr == nil {
		encErr.ExitCode = 0
		encErr.Err = errNoProgressEnd
	}
	return encErr
}

func (e *FFmpegEncoder) buildFFmpegArgs(p EncodeParams) []string {
	codec := p.Codec
	if codec == "" {
		codec = "libx264"
	}
	args := []string{
		"-y",
		"-framerate", strconv.Itoa(p.FPS),
		"-i", p.FramePattern,
		"-c:v", codec,
	}
	args = append(args, qualityArgs(codec, p.Preset, p.Quality)...)
	args = append(args,
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-progress", "pipe:1",
		"-nostats",
		"-loglevel", "error",
		p.Output,
	)
	return args
}

// Качество в зависимости от энкодера
func qualityArgs(codec, preset string, quality int) []string {
	switch codec {
	case "h264_videotoolbox":
		// VideoToolbox не поддерживает CRF, используем битрейт.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", strconv.Itoa(quality)}
	default: // libx264
		if preset == "" {
			preset = "medium"
		}
		return []string{"-preset", preset, "-crf", strconv.Itoa(quality)}
	}
}
