package main

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ivlev/beatvideo/internal/config"
	"github.com/ivlev/beatvideo/internal/engine"
	"github.com/ivlev/beatvideo/internal/logging"
	"github.com/ivlev/beatvideo/internal/store"
	"github.com/ivlev/beatvideo/internal/system"
	"github.com/ivlev/beatvideo/internal/telemetry"
	"github.com/ivlev/beatvideo/internal/video"
)

var version = "dev"

type commandContext struct {
	configFlag *string
	logLevel   *string
	logFormat  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *zap.Logger
}

func newCommandContext(configFlag, logLevel, logFormat *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		logLevel:   logLevel,
		logFormat:  logFormat,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(*c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if *c.logLevel != "" {
			cfg.Logging.Level = *c.logLevel
		}
		if *c.logFormat != "" {
			cfg.Logging.Format = *c.logFormat
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *zap.Logger {
	c.loggerOnce.Do(func() {
		opts := logging.Options{Level: *c.logLevel, Format: *c.logFormat, OutputPaths: []string{"stderr"}}
		if cfg, err := c.ensureConfig(); err == nil {
			opts.Level = cfg.Logging.Level
			opts.Format = cfg.Logging.Format
		}
		logger, err := logging.New(opts)
		if err != nil {
			logger = zap.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

// openRecords returns the configured job store, or an in-memory one.
func openRecords(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Store.Driver == "" {
		return store.NewMemory(), nil
	}
	return store.Open(ctx, strings.ToLower(cfg.Store.Driver), cfg.Store.DSN)
}

func telemetrySink(cfg *config.Config) (telemetry.Sink, func()) {
	var sinks telemetry.Fanout
	closeFn := func() {}
	if cfg.Telemetry.Endpoint != "" {
		sinks = append(sinks, telemetry.NewHTTPSink(cfg.Telemetry.Endpoint, cfg.Telemetry.Timeout))
	}
	if cfg.Telemetry.RollbarToken != "" {
		rb := telemetry.NewRollbarSink(cfg.Telemetry.RollbarToken, cfg.Telemetry.Environment, version)
		sinks = append(sinks, rb)
		closeFn = rb.Close
	}
	if len(sinks) == 0 {
		return telemetry.Noop{}, closeFn
	}
	return sinks, closeFn
}

// resolveEncoder turns codec "auto" into the best available H.264 encoder
// and picks a quality that suits it when none was configured.
func resolveEncoder(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	if cfg.Encoder.Codec != "auto" {
		return
	}
	cfg.Encoder.Codec = system.BestH264Encoder(ctx, cfg.Encoder.FFmpeg)
	if cfg.Encoder.Codec != "libx264" {
		logger.Info("hardware encoder detected", zap.String("codec", cfg.Encoder.Codec))
	}
	if cfg.Encoder.Quality == 0 {
		switch cfg.Encoder.Codec {
		case "h264_videotoolbox":
			cfg.Encoder.Quality = 75
		case "h264_nvenc":
			cfg.Encoder.Quality = 28
		default:
			cfg.Encoder.Quality = 23
		}
	}
}

type pipelineDeps struct {
	pipeline *engine.Pipeline
	records  store.Store
	close    func()
}

// buildPipeline wires encoder, store and telemetry from the config.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger, extra ...engine.Option) (*pipelineDeps, error) {
	if err := system.CheckBinary(cfg.Encoder.FFmpeg); err != nil {
		return nil, err
	}
	resolveEncoder(ctx, cfg, logger)

	records, err := openRecords(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "open job store")
	}
	sink, closeSink := telemetrySink(cfg)

	opts := engine.OptionsFromConfig(cfg)
	if cfg.Render.Workers == 0 {
		opts.Workers = system.RecommendedWorkers(system.Snapshot(ctx))
	}

	options := []engine.Option{
		engine.WithRecorder(records),
		engine.WithTelemetry(sink),
	}
	if system.CheckBinary(cfg.Encoder.FFprobe) == nil {
		ffprobe := cfg.Encoder.FFprobe
		options = append(options, engine.WithProber(func(ctx context.Context, path string) (float64, error) {
			return video.Probe(ctx, ffprobe, path)
		}))
	}
	options = append(options, extra...)

	p, err := engine.NewPipeline(opts, video.NewFFmpegEncoder(cfg.Encoder.FFmpeg, logger), logger, options...)
	if err != nil {
		records.Close()
		closeSink()
		return nil, err
	}
	return &pipelineDeps{
		pipeline: p,
		records:  records,
		close: func() {
			closeSink()
			records.Close()
		},
	}, nil
}
