package config

import (
	"strings"

	"github.com/pkg/errors"
)

func (c *Config) Validate() error {
	for _, v := range []func() error{
		c.validateRender,
		c.validateEncoder,
		c.validateScript,
		c.validateServer,
		c.validateStore,
		c.validateLogging,
	} {
		if err := v(); err != nil {
			return errors.Wrap(err, "invalid config")
		}
	}
	return nil
}

func (c *Config) validateRender() error {
	r := c.Render
	if r.Width <= 0 || r.Height <= 0 {
		return errors.Errorf("render size %dx%d must be positive", r.Width, r.Height)
	}
	// yuv420p требует чётные размеры
	if r.Width%2 != 0 || r.Height%2 != 0 {
		return errors.Errorf("render size %dx%d must be even", r.Width, r.Height)
	}
	if r.FPS <= 0 || r.FPS > 120 {
		return errors.Errorf("fps %d out of range (1-120)", r.FPS)
	}
	if r.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	e := c.Encoder
	if e.FFmpeg == "" {
		return errors.New("encoder.ffmpeg is required")
	}
	if e.Codec == "" {
		return errors.New("encoder.codec is required")
	}
	if e.Codec == "libx264" && (e.Quality < 0 || e.Quality > 51) {
		return errors.Errorf("crf %d out of range (0-51)", e.Quality)
	}
	if e.ProgressBuffer < 0 {
		return errors.New("encoder.progress_buffer must not be negative")
	}
	return nil
}

func (c *Config) validateScript() error {
	s := c.Script
	if s.MinTotalDuration <= 0 || s.MaxTotalDuration < s.MinTotalDuration {
		return errors.Errorf("script total duration range [%g, %g] is invalid", s.MinTotalDuration, s.MaxTotalDuration)
	}
	if s.MinSceneDuration <= 0 || s.MaxSceneDuration < s.MinSceneDuration {
		return errors.Errorf("scene duration range [%g, %g] is invalid", s.MinSceneDuration, s.MaxSceneDuration)
	}
	if s.MaxTextChars <= 0 || s.MaxCameraChars <= 0 {
		return errors.New("script text limits must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.MaxConcurrentJobs <= 0 {
		return errors.New("server.max_concurrent_jobs must be positive")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch strings.ToLower(c.Store.Driver) {
	case "":
		return nil
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return errors.Errorf("store.dsn is required for driver %s", c.Store.Driver)
		}
		return nil
	default:
		return errors.Errorf("unknown store driver %q", c.Store.Driver)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return errors.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}
