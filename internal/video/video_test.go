package video

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestBuildFFmpegArgs(t *testing.T) {
	e := NewFFmpegEncoder("", zap.NewNop())
	args := e.buildFFmpegArgs(EncodeParams{
		FramePattern: "/tmp/job/frame_%05d.png",
		Output:       "/tmp/job/out.mp4",
		FPS:          30,
		Codec:        "libx264",
		Preset:       "medium",
		Quality:      23,
	})
	got := strings.Join(args, " ")
	want := "-y -framerate 30 -i /tmp/job/frame_%05d.png -c:v libx264 -preset medium -crf 23 " +
		"-pix_fmt yuv420p -movflags +faststart -progress pipe:1 -nostats -loglevel error /tmp/job/out.mp4"
	if got != want {
		t.Errorf("args:\n got %s\nwant %s", got, want)
	}
}

func TestQualityArgs(t *testing.T) {
	tests := []struct {
		codec string
		want  string
	}{
		{"libx264", "-preset fast -crf 20"},
		{"h264_nvenc", "-cq 20"},
		{"h264_videotoolbox", "-b:v 2000k"},
	}
	for _, tt := range tests {
		if got := strings.Join(qualityArgs(tt.codec, "fast", 20), " "); got != tt.want {
			t.Errorf("%s: %q, want %q", tt.codec, got, tt.want)
		}
	}
}

func TestReadProgress(t *testing.T) {
	out := "frame=15\nfps=29.5\nout_time_us=500000\nspeed=1.2x\nprogress=continue\n" +
		"frame=30\nout_time_us=1000000\nprogress=end\n"

	ch := make(chan Progress, 4)
	if !readProgress(strings.NewReader(out), ch) {
		t.Fatal("progress=end not detected")
	}
	close(ch)

	var events []Progress
	for p := range ch {
		events = append(events, p)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events", len(events))
	}
	if events[0].Frame != 15 || events[0].OutTime != 500*time.Millisecond || events[0].Speed != "1.2x" || events[0].Done {
		t.Errorf("first event = %+v", events[0])
	}
	if !events[1].Done || events[1].Frame != 30 {
		t.Errorf("last event = %+v", events[1])
	}
}

func TestReadProgressNeverBlocks(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 100; i++ {
		b.WriteString("frame=1\nprogress=continue\n")
	}
	b.WriteString("progress=end\n")

	ch := make(chan Progress, 1)
	done := make(chan bool)
	go func() { done <- readProgress(strings.NewReader(b.String()), ch) }()

	select {
	case ended := <-done:
		if !ended {
			t.Error("end not detected")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("readProgress blocked on a full channel")
	}
	if len(ch) != 1 {
		t.Errorf("channel holds %d events", len(ch))
	}
}

func TestReadProgressWithoutEnd(t *testing.T) {
	if readProgress(strings.NewReader("frame=3\nprogress=continue\n"), nil) {
		t.Error("reported clean end without progress=end")
	}
}

func TestTailBuffer(t *testing.T) {
	tb := newTailBuffer(8)
	tb.Write([]byte("hello "))
	tb.Write([]byte("world!"))
	if got := tb.String(); got != "o world!" {
		t.Errorf("tail = %q", got)
	}
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("35.033333\n")
	if err != nil || d != 35.033333 {
		t.Errorf("parseDuration = %v, %v", d, err)
	}
	if _, err := parseDuration("N/A"); err == nil {
		t.Error("expected an error")
	}
}

func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script encoder stub needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEncodeOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		wantErr  bool
		exitCode int
		stderr   string
	}{
		{
			name:   "clean",
			script: "echo frame=1\necho progress=continue\necho frame=2\necho progress=end\nexit 0\n",
		},
		{
			name:     "non-zero exit",
			script:   "echo progress=end\necho 'Invalid data found' >&2\nexit 1\n",
			wantErr:  true,
			exitCode: 1,
			stderr:   "Invalid data found",
		},
		{
			name:     "zero exit without end",
			script:   "echo progress=continue\nexit 0\n",
			wantErr:  true,
			exitCode: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewFFmpegEncoder(fakeFFmpeg(t, tt.script), zap.NewNop())
			ch := make(chan Progress, 8)
			err := e.Encode(context.Background(), EncodeParams{FramePattern: "f_%05d.png", Output: "o.mp4", FPS: 30, Quality: 23}, ch)

			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Encode: %v", err)
				}
				if len(ch) != 2 {
					t.Errorf("got %d progress events", len(ch))
				}
				return
			}
			var encErr *EncoderError
			if !errors.As(err, &encErr) {
				t.Fatalf("expected *EncoderError, got %v", err)
			}
			if encErr.ExitCode != tt.exitCode {
				t.Errorf("exit code %d, want %d", encErr.ExitCode, tt.exitCode)
			}
			if !strings.Contains(encErr.Stderr, tt.stderr) {
				t.Errorf("stderr %q lacks %q", encErr.Stderr, tt.stderr)
			}
		})
	}
}

func TestShareCodePNG(t *testing.T) {
	png, err := ShareCodePNG("http://localhost:8080/v1/videos/abc/download", 128)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("not a PNG")
	}
}
