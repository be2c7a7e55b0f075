// Package telemetry delivers analytics events about finished jobs.
// Delivery is best effort: failures are logged, never returned to the job.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rollbar/rollbar-go"
	"go.uber.org/zap"
)

const (
	EventVideoGenerated = "video_generated"
	EventVideoFailed    = "video_failed"
)

type Event struct {
	Name       string         `json:"event"`
	Properties map[string]any `json:"properties,omitempty"`
	Time       time.Time      `json:"timestamp"`
	// Err is set on failure events.
	Err error `json:"-"`
}

type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

type Noop struct{}

func (Noop) Emit(context.Context, Event) error { return nil }

// HTTPSink posts events as JSON to an analytics endpoint.
type HTTPSink struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPSink(endpoint string, timeout time.Duration) *HTTPSink {
	return &HTTPSink{Endpoint: endpoint, Client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSink) Emit(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("telemetry endpoint returned %s", resp.Status)
	}
	return nil
}

// RollbarSink reports failure events to Rollbar; other events are ignored.
type RollbarSink struct {
	client *rollbar.Client
}

func NewRollbarSink(token, environment, version string) *RollbarSink {
	c := rollbar.New(token, environment, version, "", "")
	return &RollbarSink{client: c}
}

func (s *RollbarSink) Emit(_ context.Context, ev Event) error {
	if ev.Err == nil {
		return nil
	}
	extras := make(map[string]interface{}, len(ev.Properties)+1)
	for k, v := range ev.Properties {
		extras[k] = v
	}
	extras["event"] = ev.Name
	s.client.ErrorWithExtras(rollbar.ERR, ev.Err, extras)
	return nil
}

// Close flushes queued reports.
func (s *RollbarSink) Close() {
	s.client.Close()
}

// Fanout emits to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) Emit(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range f {
		if err := s.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Fire emits ev on a detached goroutine bounded by timeout. The returned
// channel is closed once delivery finished or failed.
func Fire(logger *zap.Logger, sink Sink, timeout time.Duration, ev Event) <-chan struct{} {
	done := make(chan struct{})
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := sink.Emit(ctx, ev); err != nil {
			logger.Warn("telemetry delivery failed", zap.String("event", ev.Name), zap.Error(err))
		}
	}()
	return done
}
