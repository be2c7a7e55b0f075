package video

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Progress is one block of ffmpeg's -progress output.
type Progress struct {
	Frame   int
	FPS     float64
	OutTime time.Duration
	Speed   string
	Done    bool
}

// readProgress consumes ffmpeg -progress key=value lines until EOF and
// reports whether a progress=end block was seen. Events go to out without
// blocking; out may be nil.
func readProgress(r io.Reader, out chan<- Progress) bool {
	sc := bufio.NewScanner(r)
	var (
		cur   Progress
		ended bool
	)
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "frame":
			cur.Frame, _ = strconv.Atoi(value)
		case "fps":
			cur.FPS, _ = strconv.ParseFloat(value, 64)
		case "out_time_us", "out_time_ms":
			// both keys carry microseconds
			if us, err := strconv.ParseInt(value, 10, 64); err == nil {
				cur.OutTime = time.Duration(us) * time.Microsecond
			}
		case "speed":
			cur.Speed = strings.TrimSpace(value)
		case "progress":
			cur.Done = value == "end"
			if cur.Done {
				ended = true
			}
			send(out, cur)
			cur = Progress{}
		}
	}
	// keep ffmpeg from blocking on a full pipe if scanning stopped early
	_, _ = io.Copy(io.Discard, r)
	return ended
}

func send(out chan<- Progress, p Progress) {
	if out == nil {
		return
	}
	select {
	case out <- p:
	default:
	}
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}
