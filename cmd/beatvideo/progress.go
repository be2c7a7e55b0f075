package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/ivlev/beatvideo/internal/engine"
)

var stageNames = map[engine.Stage]string{
	engine.StageRender: "[*] Rendering frames",
	engine.StageEncode: "[*] Encoding video ",
}

// stageBars shows one progress bar per pipeline stage.
type stageBars struct {
	mu   sync.Mutex
	w    io.Writer
	bars map[engine.Stage]*progressbar.ProgressBar
	last map[engine.Stage]int
}

func newStageBars(w io.Writer) *stageBars {
	return &stageBars{
		w:    w,
		bars: make(map[engine.Stage]*progressbar.ProgressBar),
		last: make(map[engine.Stage]int),
	}
}

// update is an engine.ProgressFunc. Workers report out of order, so only
// forward progress is shown.
func (s *stageBars) update(stage engine.Stage, done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bar, ok := s.bars[stage]
	if !ok {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(s.w),
			progressbar.OptionSetDescription(stageNames[stage]),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(s.w) }),
		)
		s.bars[stage] = bar
	}
	if done <= s.last[stage] {
		return
	}
	s.last[stage] = done
	_ = bar.Set(done)
}
