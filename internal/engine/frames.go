package engine

import (
	"bufio"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/beatvideo/internal/compiler"
	"github.com/ivlev/beatvideo/internal/system"
)

// framePattern names frame files; ffmpeg reads them back with the same
// printf pattern.
const framePattern = "frame_%05d.png"

// pngBuffers lets concurrent encoders share scratch buffers.
type pngBuffers struct {
	pool sync.Pool
}

func (b *pngBuffers) Get() *png.EncoderBuffer {
	buf, _ := b.pool.Get().(*png.EncoderBuffer)
	return buf
}

func (b *pngBuffers) Put(buf *png.EncoderBuffer) {
	b.pool.Put(buf)
}

var pngEncoder = &png.Encoder{CompressionLevel: png.BestSpeed, BufferPool: &pngBuffers{}}

// generateFrames renders frames 0..total-1 into dir with a bounded worker
// pool. The first failure cancels the remaining frames.
func (p *Pipeline) generateFrames(ctx context.Context, dir string, scenes []compiler.CompiledScene, total int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	var done atomic.Int64
	for i := 0; i < total; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := p.writeFrame(dir, i, scenes); err != nil {
				return err
			}
			p.progress(StageRender, int(done.Add(1)), total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (p *Pipeline) writeFrame(dir string, frame int, scenes []compiler.CompiledScene) error {
	img := system.GetImage(p.renderer.Bounds())
	defer system.PutImage(img)

	if err := p.renderer.RenderInto(img, frame, scenes); err != nil {
		return &FrameError{Frame: frame, Err: err}
	}

	f, err := os.Create(filepath.Join(dir, fmt.Sprintf(framePattern, frame)))
	if err != nil {
		return &FrameError{Frame: frame, Err: err}
	}
	w := bufio.NewWriterSize(f, 256<<10)
	if err := pngEncoder.Encode(w, img); err != nil {
		f.Close()
		return &FrameError{Frame: frame, Err: err}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return &FrameError{Frame: frame, Err: err}
	}
	if err := f.Close(); err != nil {
		return &FrameError{Frame: frame, Err: err}
	}
	return nil
}
