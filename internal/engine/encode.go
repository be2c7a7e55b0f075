package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ivlev/beatvideo/internal/video"
)

// encode turns the frames in workDir into an MP4 and moves it to the
// output directory. The file appears there only after a clean encode.
func (p *Pipeline) encode(ctx context.Context, logger *zap.Logger, workDir string, req JobRequest, total int) (string, error) {
	tmp := filepath.Join(workDir, "video.mp4")

	progress := make(chan video.Progress, p.opts.ProgressBuffer)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for pr := range progress {
			logger.Debug("encoder progress",
				zap.Int("frame", pr.Frame),
				zap.Int("total", total),
				zap.Float64("fps", pr.FPS),
				zap.Duration("out_time", pr.OutTime),
				zap.String("speed", pr.Speed),
			)
			p.progress(StageEncode, min(pr.Frame, total), total)
		}
	}()

	err := p.encoder.Encode(ctx, video.EncodeParams{
		FramePattern: filepath.Join(workDir, framePattern),
		Output:       tmp,
		FPS:          p.opts.FPS,
		Codec:        p.opts.Codec,
		Preset:       p.opts.Preset,
		Quality:      p.opts.Quality,
		TotalFrames:  total,
	}, progress)
	close(progress)
	<-drained
	if err != nil {
		return "", err
	}
	p.progress(StageEncode, total, total)

	if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create output dir")
	}
	name := fmt.Sprintf("%s_%d_%s.mp4", req.ContentType, p.now().Unix(), shortID(req.ID))
	final := filepath.Join(p.opts.OutputDir, name)
	if err := moveFile(tmp, final); err != nil {
		return "", errors.Wrap(err, "move video to output")
	}
	return final, nil
}

// moveFile renames src to dst, copying through a temporary sibling of dst
// when they live on different filesystems.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	part := dst + ".part"
	if err := copyFile(src, part); err != nil {
		os.Remove(part)
		return err
	}
	if err := os.Rename(part, dst); err != nil {
		os.Remove(part)
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
