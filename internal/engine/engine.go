// Package engine runs a script through the whole pipeline: validation,
// asset selection, scene compilation, frame generation and encoding.
package engine

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/ivlev/beatvideo/internal/assets"
	"github.com/ivlev/beatvideo/internal/compiler"
	"github.com/ivlev/beatvideo/internal/config"
	"github.com/ivlev/beatvideo/internal/renderer"
	"github.com/ivlev/beatvideo/internal/script"
	"github.com/ivlev/beatvideo/internal/store"
	"github.com/ivlev/beatvideo/internal/system"
	"github.com/ivlev/beatvideo/internal/telemetry"
	"github.com/ivlev/beatvideo/internal/video"
)

// JobRequest is one video to produce.
type JobRequest struct {
	Script      *script.Script
	ContentType string
	Topic       string
	// Backdrop is an optional paper page shown in the problem beat.
	Backdrop image.Image
	// ID is generated when empty.
	ID string
}

// Cue marks a sound effect at the first frame of its scene.
type Cue struct {
	Scene int        `json:"scene"`
	Frame int        `json:"frame"`
	Time  float64    `json:"time"`
	SFX   script.SFX `json:"sfx"`
}

type Metadata struct {
	Resolution string           `json:"resolution"`
	FPS        int              `json:"fps"`
	Codec      string           `json:"codec"`
	Format     string           `json:"format"`
	Cues       []Cue            `json:"cues,omitempty"`
	Host       system.HostStats `json:"host"`
}

// Stats are per-stage timings.
type Stats struct {
	Render time.Duration `json:"render"`
	Encode time.Duration `json:"encode"`
}

type Result struct {
	ID             string        `json:"videoId"`
	OutputPath     string        `json:"outputPath"`
	DownloadURL    string        `json:"downloadUrl"`
	ShareCodePath  string        `json:"shareCodePath,omitempty"`
	Duration       float64       `json:"duration"`
	FrameCount     int           `json:"frameCount"`
	ProcessingTime time.Duration `json:"processingTime"`
	Metadata       Metadata      `json:"metadata"`
	Stats          Stats         `json:"stats"`
}

// Options configure a Pipeline.
type Options struct {
	Width       int
	Height      int
	FPS         int
	Workers     int
	Seed        int64
	CaptionSize float64

	Limits script.Limits

	OutputDir string
	// WorkDir is where per-job frame directories are created; empty means
	// the system temp dir.
	WorkDir   string
	BaseURL   string
	ShareCode bool

	Codec          string
	Preset         string
	Quality        int
	ProgressBuffer int

	MaxConcurrentJobs int
	TelemetryTimeout  time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Width:             cfg.Render.Width,
		Height:            cfg.Render.Height,
		FPS:               cfg.Render.FPS,
		Workers:           cfg.WorkerCount(),
		Seed:              cfg.Render.Seed,
		CaptionSize:       cfg.Render.CaptionSize,
		Limits:            cfg.Limits(),
		OutputDir:         cfg.Output.Dir,
		WorkDir:           cfg.Output.WorkDir,
		BaseURL:           cfg.Output.BaseURL,
		ShareCode:         cfg.Output.ShareCode,
		Codec:             cfg.Encoder.Codec,
		Preset:            cfg.Encoder.Preset,
		Quality:           cfg.Encoder.Quality,
		ProgressBuffer:    cfg.Encoder.ProgressBuffer,
		MaxConcurrentJobs: cfg.Server.MaxConcurrentJobs,
		TelemetryTimeout:  cfg.Telemetry.Timeout,
	}
}

// Recorder persists job records. store.SQLStore and store.Memory satisfy it.
type Recorder interface {
	Put(ctx context.Context, rec store.JobRecord) error
}

type Stage string

const (
	StageRender Stage = "render"
	StageEncode Stage = "encode"
)

// ProgressFunc is called from worker goroutines; implementations must be
// safe for concurrent use.
type ProgressFunc func(stage Stage, done, total int)

// ProbeFunc reads the duration of a finished video.
type ProbeFunc func(ctx context.Context, path string) (float64, error)

type Option func(*Pipeline)

func WithRecorder(r Recorder) Option { return func(p *Pipeline) { p.recorder = r } }

func WithTelemetry(s telemetry.Sink) Option { return func(p *Pipeline) { p.sink = s } }

func WithEnricher(e compiler.Enricher) Option { return func(p *Pipeline) { p.enricher = e } }

func WithProgress(f ProgressFunc) Option { return func(p *Pipeline) { p.progress = f } }

func WithProber(f ProbeFunc) Option { return func(p *Pipeline) { p.probe = f } }

// Pipeline is safe for concurrent use; at most Options.MaxConcurrentJobs
// runs proceed at once.
type Pipeline struct {
	opts     Options
	renderer *renderer.Renderer
	encoder  video.VideoEncoder
	logger   *zap.Logger
	slots    *semaphore.Weighted

	recorder Recorder
	sink     telemetry.Sink
	enricher compiler.Enricher
	progress ProgressFunc
	probe    ProbeFunc
	now      func() time.Time
}

func NewPipeline(opts Options, enc video.VideoEncoder, logger *zap.Logger, options ...Option) (*Pipeline, error) {
	if opts.FPS <= 0 {
		return nil, errors.Errorf("fps must be positive, got %d", opts.FPS)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxConcurrentJobs <= 0 {
		opts.MaxConcurrentJobs = 1
	}
	if opts.ProgressBuffer <= 0 {
		opts.ProgressBuffer = 16
	}
	if opts.TelemetryTimeout <= 0 {
		opts.TelemetryTimeout = 5 * time.Second
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	if opts.Limits == (script.Limits{}) {
		opts.Limits = script.DefaultLimits()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r, err := renderer.New(renderer.Options{
		Width:       opts.Width,
		Height:      opts.Height,
		Seed:        opts.Seed,
		CaptionSize: opts.CaptionSize,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create renderer")
	}

	p := &Pipeline{
		opts:     opts,
		renderer: r,
		encoder:  enc,
		logger:   logger,
		slots:    semaphore.NewWeighted(int64(opts.MaxConcurrentJobs)),
		sink:     telemetry.Noop{},
		enricher: compiler.KeywordEnricher{},
		progress: func(Stage, int, int) {},
		now:      time.Now,
	}
	for _, o := range options {
		o(p)
	}
	return p, nil
}

// Compile validates and compiles a request without rendering it.
func (p *Pipeline) Compile(req JobRequest) ([]compiler.CompiledScene, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	normalized, err := script.Normalize(req.Script, p.opts.Limits)
	if err != nil {
		return nil, err
	}
	profile := assets.Select(req.Topic)
	return compiler.Compile(normalized.Scenes, profile, compiler.Options{
		FPS:      p.opts.FPS,
		Topic:    req.Topic,
		Enricher: p.enricher,
		Backdrop: req.Backdrop,
	}), nil
}

// Run produces one video. Validation errors are returned before any work
// starts; ErrBusy when no job slot is free. On failure nothing is left in
// the output directory.
func (p *Pipeline) Run(ctx context.Context, req JobRequest) (*Result, error) {
	start := p.now()

	scenes, err := p.Compile(req)
	if err != nil {
		return nil, err
	}

	if !p.slots.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer p.slots.Release(1)

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	logger := p.logger.With(zap.String("job", req.ID), zap.String("topic", req.Topic))

	res, err := p.produce(ctx, logger, req, scenes)
	if err != nil {
		logger.Error("video generation failed", zap.Error(err))
		p.finish(logger, req, nil, err, p.now().Sub(start))
		return nil, err
	}
	res.ProcessingTime = p.now().Sub(start)

	logger.Info("video generated",
		zap.String("output", res.OutputPath),
		zap.Int("frames", res.FrameCount),
		zap.Float64("duration", res.Duration),
		zap.Duration("elapsed", res.ProcessingTime),
	)
	p.finish(logger, req, res, nil, res.ProcessingTime)
	return res, nil
}

func (p *Pipeline) produce(ctx context.Context, logger *zap.Logger, req JobRequest, scenes []compiler.CompiledScene) (*Result, error) {
	total := compiler.TotalFrames(scenes)

	base := p.opts.WorkDir
	if base == "" {
		base = os.TempDir()
	}
	workDir := filepath.Join(base, "beatvideo_"+uuid.NewString())
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, errors.Wrap(err, "create work dir")
	}
	if err := os.Mkdir(workDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create work dir")
	}
	defer os.RemoveAll(workDir)

	logger.Info("rendering frames", zap.Int("frames", total), zap.Int("scenes", len(scenes)), zap.Int("workers", p.opts.Workers))
	renderStart := p.now()
	if err := p.generateFrames(ctx, workDir, scenes, total); err != nil {
		return nil, err
	}
	renderTime := p.now().Sub(renderStart)

	encodeStart := p.now()
	output, err := p.encode(ctx, logger, workDir, req, total)
	if err != nil {
		return nil, err
	}
	encodeTime := p.now().Sub(encodeStart)

	res := &Result{
		ID:          req.ID,
		OutputPath:  output,
		DownloadURL: p.downloadURL(req.ID),
		Duration:    float64(total) / float64(p.opts.FPS),
		FrameCount:  total,
		Metadata: Metadata{
			Resolution: fmt.Sprintf("%dx%d", p.opts.Width, p.opts.Height),
			FPS:        p.opts.FPS,
			Codec:      codecFamily(p.opts.Codec),
			Format:     "mp4",
			Cues:       cues(scenes, p.opts.FPS),
			Host:       system.Snapshot(ctx),
		},
		Stats: Stats{Render: renderTime, Encode: encodeTime},
	}

	if p.probe != nil {
		if d, err := p.probe(ctx, output); err != nil {
			logger.Warn("probe failed, using frame count", zap.Error(err))
		} else {
			res.Duration = d
		}
	}

	if p.opts.ShareCode {
		qr := strings.TrimSuffix(output, filepath.Ext(output)) + ".png"
		if err := video.WriteShareCode(res.DownloadURL, qr, 512); err != nil {
			logger.Warn("share code not written", zap.Error(err))
		} else {
			res.ShareCodePath = qr
		}
	}
	return res, nil
}

// finish records the job and fires telemetry. Neither can fail the job.
func (p *Pipeline) finish(logger *zap.Logger, req JobRequest, res *Result, jobErr error, elapsed time.Duration) {
	rec := store.JobRecord{
		ID:           req.ID,
		ContentType:  req.ContentType,
		Topic:        req.Topic,
		Status:       store.StatusCompleted,
		ProcessingMs: elapsed.Milliseconds(),
		Resolution:   fmt.Sprintf("%dx%d", p.opts.Width, p.opts.Height),
		FPS:          p.opts.FPS,
		Codec:        codecFamily(p.opts.Codec),
		CreatedAt:    p.now(),
	}
	ev := telemetry.Event{
		Name: telemetry.EventVideoGenerated,
		Properties: map[string]any{
			"videoId":      req.ID,
			"contentType":  req.ContentType,
			"topic":        req.Topic,
			"processingMs": elapsed.Milliseconds(),
		},
	}
	if jobErr != nil {
		rec.Status = store.StatusFailed
		rec.Error = jobErr.Error()
		ev.Name = telemetry.EventVideoFailed
		ev.Err = jobErr
		ev.Properties["error"] = jobErr.Error()
	} else {
		rec.OutputPath = res.OutputPath
		rec.DownloadURL = res.DownloadURL
		rec.Duration = res.Duration
		rec.FrameCount = res.FrameCount
		ev.Properties["duration"] = res.Duration
		ev.Properties["frameCount"] = res.FrameCount
	}

	if p.recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.recorder.Put(ctx, rec); err != nil {
			logger.Warn("job record not saved", zap.Error(err))
		}
		cancel()
	}
	telemetry.Fire(logger, p.sink, p.opts.TelemetryTimeout, ev)
}

func (p *Pipeline) downloadURL(id string) string {
	return strings.TrimRight(p.opts.BaseURL, "/") + "/v1/videos/" + id + "/download"
}

func validateRequest(req JobRequest) error {
	if strings.TrimSpace(req.Topic) == "" {
		return &RequestError{Field: "topic"}
	}
	if strings.TrimSpace(req.ContentType) == "" {
		return &RequestError{Field: "contentType"}
	}
	if req.Script == nil {
		return &RequestError{Field: "script"}
	}
	return script.CheckContentType(req.ContentType)
}

func cues(scenes []compiler.CompiledScene, fps int) []Cue {
	var out []Cue
	for _, sc := range scenes {
		if sc.SFX == script.SFXNone || sc.SFX == "" {
			continue
		}
		out = append(out, Cue{
			Scene: sc.Index,
			Frame: sc.StartFrame,
			Time:  float64(sc.StartFrame) / float64(fps),
			SFX:   sc.SFX,
		})
	}
	return out
}

// codecFamily maps an ffmpeg encoder name to the codec it produces.
func codecFamily(encoder string) string {
	switch {
	case encoder == "", strings.Contains(encoder, "264"):
		return "h264"
	case strings.Contains(encoder, "265"), strings.HasPrefix(encoder, "hevc"):
		return "hevc"
	}
	return encoder
}
