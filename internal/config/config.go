package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/beatvideo/internal/script"
)

type Config struct {
	Render    RenderConfig    `yaml:"render"`
	Encoder   EncoderConfig   `yaml:"encoder"`
	Script    ScriptLimits    `yaml:"script"`
	Output    OutputConfig    `yaml:"output"`
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Generator GeneratorConfig `yaml:"generator"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type RenderConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	FPS         int     `yaml:"fps"`
	Workers     int     `yaml:"workers"` // 0 = по числу ядер
	Seed        int64   `yaml:"seed"`
	CaptionSize float64 `yaml:"caption_size"`
}

type EncoderConfig struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
	// Codec "auto" picks the best available H.264 encoder at startup.
	Codec          string `yaml:"codec"`
	Preset         string `yaml:"preset"`
	Quality        int    `yaml:"quality"`
	ProgressBuffer int    `yaml:"progress_buffer"`
}

type ScriptLimits struct {
	MinTotalDuration float64 `yaml:"min_total_duration"`
	MaxTotalDuration float64 `yaml:"max_total_duration"`
	MinSceneDuration float64 `yaml:"min_scene_duration"`
	MaxSceneDuration float64 `yaml:"max_scene_duration"`
	MaxTextChars     int     `yaml:"max_text_chars"`
	MaxCameraChars   int     `yaml:"max_camera_chars"`
}

type OutputConfig struct {
	Dir       string `yaml:"dir"`
	WorkDir   string `yaml:"work_dir"` // пусто = системный temp
	BaseURL   string `yaml:"base_url"`
	ShareCode bool   `yaml:"share_code"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	MaxConcurrentJobs int           `yaml:"max_concurrent_jobs"`
	JobTimeout        time.Duration `yaml:"job_timeout"`
	BodyLimit         string        `yaml:"body_limit"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres or empty for none
	DSN    string `yaml:"dsn"`
}

type TelemetryConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Timeout      time.Duration `yaml:"timeout"`
	RollbarToken string        `yaml:"rollbar_token"`
	Environment  string        `yaml:"environment"`
}

type GeneratorConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Defaults() Config {
	l := script.DefaultLimits()
	return Config{
		Render: RenderConfig{Width: 1080, Height: 1920, FPS: 30, Seed: 1, CaptionSize: 54},
		Encoder: EncoderConfig{
			FFmpeg:         "ffmpeg",
			FFprobe:        "ffprobe",
			Codec:          "libx264",
			Preset:         "medium",
			Quality:        23,
			ProgressBuffer: 16,
		},
		Script: ScriptLimits{
			MinTotalDuration: l.MinTotalDuration,
			MaxTotalDuration: l.MaxTotalDuration,
			MinSceneDuration: l.MinSceneDuration,
			MaxSceneDuration: l.MaxSceneDuration,
			MaxTextChars:     l.MaxTextChars,
			MaxCameraChars:   l.MaxCameraChars,
		},
		Output: OutputConfig{Dir: "output", BaseURL: "http://localhost:8080"},
		Server: ServerConfig{
			Addr:              ":8080",
			MaxConcurrentJobs: 2,
			JobTimeout:        10 * time.Minute,
			BodyLimit:         "2M",
		},
		Telemetry: TelemetryConfig{Timeout: 5 * time.Second, Environment: "development"},
		Generator: GeneratorConfig{Timeout: 60 * time.Second},
		Logging:   LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads defaults, then the YAML file at path (if any), then .env and
// BEATVIDEO_* environment variables, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, errors.Wrap(err, "load .env")
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"BEATVIDEO_FFMPEG":             &c.Encoder.FFmpeg,
		"BEATVIDEO_FFPROBE":            &c.Encoder.FFprobe,
		"BEATVIDEO_CODEC":              &c.Encoder.Codec,
		"BEATVIDEO_OUTPUT_DIR":         &c.Output.Dir,
		"BEATVIDEO_WORK_DIR":           &c.Output.WorkDir,
		"BEATVIDEO_BASE_URL":           &c.Output.BaseURL,
		"BEATVIDEO_ADDR":               &c.Server.Addr,
		"BEATVIDEO_STORE_DRIVER":       &c.Store.Driver,
		"BEATVIDEO_STORE_DSN":          &c.Store.DSN,
		"BEATVIDEO_TELEMETRY_ENDPOINT": &c.Telemetry.Endpoint,
		"BEATVIDEO_ROLLBAR_TOKEN":      &c.Telemetry.RollbarToken,
		"BEATVIDEO_ENVIRONMENT":        &c.Telemetry.Environment,
		"BEATVIDEO_GENERATOR_ENDPOINT": &c.Generator.Endpoint,
		"BEATVIDEO_LOG_LEVEL":          &c.Logging.Level,
		"BEATVIDEO_LOG_FORMAT":         &c.Logging.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"BEATVIDEO_WORKERS":  &c.Render.Workers,
		"BEATVIDEO_MAX_JOBS": &c.Server.MaxConcurrentJobs,
		"BEATVIDEO_QUALITY":  &c.Encoder.Quality,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%s", key)
		}
		*dst = n
	}
	return nil
}

// Limits converts the script section for the validator.
func (c *Config) Limits() script.Limits {
	return script.Limits{
		MinTotalDuration: c.Script.MinTotalDuration,
		MaxTotalDuration: c.Script.MaxTotalDuration,
		MinSceneDuration: c.Script.MinSceneDuration,
		MaxSceneDuration: c.Script.MaxSceneDuration,
		MaxTextChars:     c.Script.MaxTextChars,
		MaxCameraChars:   c.Script.MaxCameraChars,
	}
}

// WorkerCount resolves Render.Workers, defaulting to the CPU count.
func (c *Config) WorkerCount() int {
	if c.Render.Workers > 0 {
		return c.Render.Workers
	}
	return runtime.NumCPU()
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write config")
}
