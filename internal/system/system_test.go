package system

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	files := []string{"a.yaml", "b.json", "c.txt"}
	for i, name := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		mtime := time.Now().Add(time.Duration(i-10) * time.Minute)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	got, err := FindLatest(dir, ".yaml", ".json")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "b.json" {
		t.Errorf("FindLatest = %s, want b.json", got)
	}

	if _, err := FindLatest(dir, ".pdf"); err == nil {
		t.Error("expected an error when nothing matches")
	}
}

func TestPickEncoder(t *testing.T) {
	tests := []struct {
		list string
		want string
	}{
		{" V....D h264_nvenc  NVIDIA NVENC H.264 encoder", "h264_nvenc"},
		{" V....D h264_videotoolbox VideoToolbox H.264 Encoder\n V....D h264_nvenc", "h264_videotoolbox"},
		{" V....D libx264  libx264 H.264 / AVC", "libx264"},
	}
	for _, tt := range tests {
		if got := pickEncoder(tt.list); got != tt.want {
			t.Errorf("pickEncoder(%q) = %s, want %s", tt.list, got, tt.want)
		}
	}
}

func TestImagePoolReusesBySize(t *testing.T) {
	p := NewImagePool()
	rect := image.Rect(0, 0, 16, 32)

	img := p.Get(rect)
	if img.Rect != rect {
		t.Fatalf("Get returned %v", img.Rect)
	}
	p.Put(img)
	p.Put(image.NewRGBA(image.Rect(0, 0, 3, 3))) // unknown size is dropped
	p.Put(nil)

	if again := p.Get(rect); again.Rect != rect {
		t.Errorf("second Get returned %v", again.Rect)
	}
}

func TestRecommendedWorkers(t *testing.T) {
	tests := []struct {
		stats HostStats
		want  int
	}{
		{HostStats{LogicalCPUs: 8, MemAvailableMB: 16384}, 8},
		{HostStats{LogicalCPUs: 8, MemAvailableMB: 128}, 2},
		{HostStats{LogicalCPUs: 4, MemAvailableMB: 10}, 1},
	}
	for _, tt := range tests {
		if got := RecommendedWorkers(tt.stats); got != tt.want {
			t.Errorf("RecommendedWorkers(%+v) = %d, want %d", tt.stats, got, tt.want)
		}
	}
}

func TestSnapshot(t *testing.T) {
	s := Snapshot(context.Background())
	if s.LogicalCPUs <= 0 {
		t.Errorf("LogicalCPUs = %d", s.LogicalCPUs)
	}
	t.Logf("host: %+v", s)
}
