package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// eachStore runs fn against the sqlite store and the in-memory store.
func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, openTestStore(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
}

func TestPutGet(t *testing.T) {
	eachStore(t, testPutGet)
}

func testPutGet(t *testing.T, s Store) {
	ctx := context.Background()

	rec := JobRecord{
		ID:           "abc",
		ContentType:  "topic_teaser",
		Topic:        "quadratic equations",
		Status:       StatusCompleted,
		OutputPath:   "/out/topic_teaser_1_abc.mp4",
		Duration:     35,
		FrameCount:   1050,
		ProcessingMs: 4200,
		Resolution:   "1080x1920",
		FPS:          30,
		Codec:        "h264",
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FrameCount != 1050 || got.Topic != rec.Topic || got.Status != StatusCompleted {
		t.Errorf("got %+v", got)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("created at %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
}

func TestPutUpdatesExisting(t *testing.T) {
	eachStore(t, testPutUpdatesExisting)
}

func testPutUpdatesExisting(t *testing.T, s Store) {
	ctx := context.Background()

	rec := JobRecord{ID: "j1", ContentType: "topic_teaser", Topic: "cells", Status: StatusCompleted}
	if err := s.Put(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.Status = StatusFailed
	rec.Error = "ffmpeg exited with code 1"
	if err := s.Put(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "j1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusFailed || got.Error == "" {
		t.Errorf("record not updated: %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		if _, err := s.Get(context.Background(), "nope"); err != ErrNotFound {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestListNewestFirst(t *testing.T) {
	eachStore(t, testListNewestFirst)
}

func testListNewestFirst(t *testing.T, s Store) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		rec := JobRecord{ID: id, ContentType: "topic_teaser", Topic: "t", Status: StatusCompleted, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.Put(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != "new" || recs[1].ID != "mid" {
		t.Errorf("List = %+v", recs)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mongo", "x"); err == nil {
		t.Error("expected an error")
	}
}
