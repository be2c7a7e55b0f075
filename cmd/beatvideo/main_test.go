package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ivlev/beatvideo/internal/config"
	"github.com/ivlev/beatvideo/internal/engine"
	"github.com/ivlev/beatvideo/internal/script"
	"github.com/ivlev/beatvideo/internal/store"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("output does not contain %q:\n%s", want, out)
	}
}

func writeScript(t *testing.T, durations ...float64) string {
	t.Helper()
	s := &script.Script{Meta: script.Meta{Topic: "Newton's laws of motion"}}
	for i, d := range durations {
		s.Scenes = append(s.Scenes, script.Scene{Text: fmt.Sprintf("scene %d", i+1), Duration: d, Beat: script.BeatSolve, SFX: script.SFXPop})
	}
	path := filepath.Join(t.TempDir(), "script.yaml")
	if err := script.WriteFile(s, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAssetsCommand(t *testing.T) {
	out, _, err := runCLI(t, "assets", "--topic", "Newton's laws of motion")
	if err != nil {
		t.Fatalf("assets: %v", err)
	}
	requireContains(t, out, "physical_sciences")
	requireContains(t, out, "physics")
}

func TestValidateCommand(t *testing.T) {
	path := writeScript(t, 5, 5, 5, 5, 5, 5)

	out, _, err := runCLI(t, "validate", "--script", path, "--log-level", "error")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	requireContains(t, out, "Script valid: 6 scenes, 900 frames, 30.00s at 30 fps")
	requireContains(t, out, "[150, 300)")
}

func TestValidateCommandPicksNewestScript(t *testing.T) {
	dir := t.TempDir()
	old := writeScript(t, 5, 5)
	data, _ := os.ReadFile(old)
	os.WriteFile(filepath.Join(dir, "a_old.yaml"), data, 0o644)
	past := time.Now().Add(-time.Hour)
	os.Chtimes(filepath.Join(dir, "a_old.yaml"), past, past)
	data, _ = os.ReadFile(writeScript(t, 6, 6, 6, 6, 6))
	os.WriteFile(filepath.Join(dir, "b_new.yaml"), data, 0o644)

	out, _, err := runCLI(t, "validate", "--script", dir, "--log-level", "error")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	requireContains(t, out, "5 scenes")
}

func TestValidateCommandRejectsShortScript(t *testing.T) {
	path := writeScript(t, 5, 5)
	_, _, err := runCLI(t, "validate", "--script", path, "--log-level", "error")
	var de *script.DurationOutOfRangeError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want DurationOutOfRangeError", err)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "beatvideo.yaml")

	out, _, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Error("expected init to refuse overwriting")
	}

	out, _, err = runCLI(t, "--config", target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "1080x1920 @ 30 fps")
}

func TestJobsCommand(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "jobs.db")

	s, err := store.Open(context.Background(), "sqlite", dsn)
	if err != nil {
		t.Fatal(err)
	}
	s.Put(context.Background(), store.JobRecord{ID: "job-1", ContentType: "topic_teaser", Topic: "cells", Status: store.StatusCompleted, OutputPath: "/out/a.mp4", FrameCount: 900, Duration: 30})
	s.Put(context.Background(), store.JobRecord{ID: "job-2", ContentType: "topic_teaser", Topic: "waves", Status: store.StatusFailed, Error: "ffmpeg exited with code 1"})
	s.Close()

	cfg := config.Defaults()
	cfg.Store = config.StoreConfig{Driver: "sqlite", DSN: dsn}
	cfgPath := filepath.Join(dir, "beatvideo.yaml")
	if err := cfg.Save(cfgPath); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, "--config", cfgPath, "jobs")
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, out, "job-1")
	requireContains(t, out, "/out/a.mp4")
	requireContains(t, out, "ffmpeg exited with code 1")
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Newton's laws of motion": "newton_s_laws_of_motion",
		"  Photosynthesis!  ":     "photosynthesis",
		"":                        "",
	}
	for in, want := range tests {
		if got := slug(in); got != want {
			t.Errorf("slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReportAndStatsLine(t *testing.T) {
	res := &engine.Result{
		ID:             "abc",
		OutputPath:     "/out/topic_teaser_1_abc.mp4",
		FrameCount:     1050,
		Duration:       35,
		ProcessingTime: 7 * time.Second,
		Metadata: engine.Metadata{
			Resolution: "1080x1920", FPS: 30, Codec: "h264", Format: "mp4",
			Cues: []engine.Cue{{Scene: 1, Frame: 150, Time: 5, SFX: script.SFXDing}},
		},
	}
	report := reportTable(res)
	requireContains(t, report, "1050")
	requireContains(t, report, "ding@5.00s")
	requireContains(t, report, "150.00") // effective fps

	var buf bytes.Buffer
	if err := writeStatsLine(&buf, engine.JobRequest{Topic: "optics"}, res); err != nil {
		t.Fatal(err)
	}
	requireContains(t, buf.String(), "Topic: optics | Output: topic_teaser_1_abc.mp4 | Frames: 1050")
}
