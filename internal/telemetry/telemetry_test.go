package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHTTPSinkPostsJSON(t *testing.T) {
	got := make(chan Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q", ct)
		}
		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			t.Errorf("decode: %v", err)
		}
		got <- ev
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewHTTPSink(srv.URL, time.Second)
	err := sink.Emit(context.Background(), Event{Name: EventVideoGenerated, Properties: map[string]any{"frameCount": 1050}})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	ev := <-got
	if ev.Name != EventVideoGenerated || ev.Properties["frameCount"] != float64(1050) {
		t.Errorf("server saw %+v", ev)
	}
}

func TestHTTPSinkReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := NewHTTPSink(srv.URL, time.Second).Emit(context.Background(), Event{Name: "x"}); err == nil {
		t.Error("expected an error for a 502")
	}
}

type stubSink struct {
	err  error
	seen []Event
}

func (s *stubSink) Emit(_ context.Context, ev Event) error {
	s.seen = append(s.seen, ev)
	return s.err
}

func TestFanoutEmitsToAll(t *testing.T) {
	a, b := &stubSink{}, &stubSink{err: errors.New("down")}
	err := Fanout{a, b, Noop{}}.Emit(context.Background(), Event{Name: EventVideoFailed})
	if err == nil {
		t.Error("expected the failing sink's error")
	}
	if len(a.seen) != 1 || len(b.seen) != 1 {
		t.Errorf("deliveries a=%d b=%d", len(a.seen), len(b.seen))
	}
}

func TestFireLogsAndSwallowsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sink := &stubSink{err: errors.New("unreachable")}

	select {
	case <-Fire(zap.New(core), sink, time.Second, Event{Name: EventVideoGenerated}):
	case <-time.After(2 * time.Second):
		t.Fatal("Fire did not finish")
	}

	if logs.FilterMessage("telemetry delivery failed").Len() != 1 {
		t.Errorf("expected one warning, got %v", logs.All())
	}
	if sink.seen[0].Time.IsZero() {
		t.Error("event timestamp not set")
	}
}
