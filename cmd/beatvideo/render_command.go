package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ivlev/beatvideo/internal/analyzer"
	"github.com/ivlev/beatvideo/internal/config"
	"github.com/ivlev/beatvideo/internal/engine"
	"github.com/ivlev/beatvideo/internal/script"
	"github.com/ivlev/beatvideo/internal/source"
	"github.com/ivlev/beatvideo/internal/system"
)

// renderFlags are shared by render and generate --render.
type renderFlags struct {
	paper    string
	page     int
	dpi      int
	detector string
	outDir   string
	workers  int
	seed     int64
	codec    string
	qr       bool
	quiet    bool
	statsLog string
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.paper, "paper", "", "PDF or image shown in the problem beat (a directory picks the newest file)")
	cmd.Flags().IntVar(&f.page, "page", 1, "Paper page number (1-based)")
	cmd.Flags().IntVar(&f.dpi, "dpi", 110, "Paper render DPI")
	cmd.Flags().StringVar(&f.detector, "detector", "contrast", "Paper crop detector: contrast or full")
	cmd.Flags().StringVar(&f.outDir, "out", "", "Output directory (overrides config)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Render workers (0 = from config)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Render seed (0 = from config)")
	cmd.Flags().StringVar(&f.codec, "codec", "", "ffmpeg video encoder, or auto (overrides config)")
	cmd.Flags().BoolVar(&f.qr, "qr", false, "Write a QR code PNG next to the video")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Hide progress bars")
	cmd.Flags().StringVar(&f.statsLog, "stats-log", "", "Append a one-line performance record to this file")
}

func (f *renderFlags) apply(cfg *config.Config) {
	if f.outDir != "" {
		cfg.Output.Dir = f.outDir
	}
	if f.workers > 0 {
		cfg.Render.Workers = f.workers
	}
	if f.seed != 0 {
		cfg.Render.Seed = f.seed
	}
	if f.codec != "" {
		cfg.Encoder.Codec = f.codec
	}
	if f.qr {
		cfg.Output.ShareCode = true
	}
}

func (f *renderFlags) backdrop() (image.Image, error) {
	if f.paper == "" {
		return nil, nil
	}
	path := f.paper
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		latest, err := system.FindLatest(path, ".pdf", ".png", ".jpg", ".jpeg")
		if err != nil {
			return nil, err
		}
		path = latest
	}
	det, err := analyzer.NewDetector(f.detector)
	if err != nil {
		return nil, err
	}
	return source.LoadBackdrop(path, source.BackdropOptions{
		Page:     f.page - 1,
		DPI:      f.dpi,
		Detector: det,
		Padding:  16,
	})
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var scriptPath, topic, contentType string
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a script file to an MP4",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := resolveScriptPath(scriptPath)
			if err != nil {
				return err
			}
			s, err := script.ReadFile(path)
			if err != nil {
				return err
			}
			if topic == "" {
				topic = s.Meta.Topic
			}
			return runJob(cmd, ctx, cfg, &flags, engine.JobRequest{Script: s, ContentType: contentType, Topic: topic})
		},
	}

	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Script file (YAML or JSON); a directory picks the newest")
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic (defaults to the script's meta.topic)")
	cmd.Flags().StringVar(&contentType, "content-type", script.ContentTopicTeaser, "Content type")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func resolveScriptPath(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return path, nil
	}
	return system.FindLatest(path, ".yaml", ".yml", ".json")
}

// runJob renders one request with progress bars and prints the report.
func runJob(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, flags *renderFlags, req engine.JobRequest) error {
	logger := ctx.ensureLogger()
	defer logger.Sync()
	system.InitResourceLimits(logger)

	flags.apply(cfg)
	backdrop, err := flags.backdrop()
	if err != nil {
		return errors.Wrap(err, "load paper")
	}
	req.Backdrop = backdrop

	var extra []engine.Option
	if !flags.quiet {
		extra = append(extra, engine.WithProgress(newStageBars(cmd.ErrOrStderr()).update))
	}

	runCtx, stop := withSignals(cmd.Context())
	defer stop()

	deps, err := buildPipeline(runCtx, cfg, logger, extra...)
	if err != nil {
		return err
	}
	defer deps.close()

	res, err := deps.pipeline.Run(runCtx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, reportTable(res))
	fmt.Fprintf(out, "[+++] Done: %s\n", res.OutputPath)

	if flags.statsLog != "" {
		if err := appendStats(flags.statsLog, req, res); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "[!] stats log not written: %v\n", err)
		}
	}
	return nil
}

func reportTable(res *engine.Result) string {
	effective := 0.0
	if res.ProcessingTime > 0 {
		effective = float64(res.FrameCount) / res.ProcessingTime.Seconds()
	}
	var cues []string
	for _, c := range res.Metadata.Cues {
		cues = append(cues, fmt.Sprintf("%s@%.2fs", c.SFX, c.Time))
	}
	rows := [][]string{
		{"Video ID", res.ID},
		{"Output", res.OutputPath},
		{"Download URL", res.DownloadURL},
		{"Frames", strconv.Itoa(res.FrameCount)},
		{"Duration", fmt.Sprintf("%.2fs", res.Duration)},
		{"Resolution", res.Metadata.Resolution},
		{"FPS", strconv.Itoa(res.Metadata.FPS)},
		{"Codec", res.Metadata.Codec + "/" + res.Metadata.Format},
		{"Rendering", res.Stats.Render.Round(time.Millisecond).String()},
		{"Encoding", res.Stats.Encode.Round(time.Millisecond).String()},
		{"Total", res.ProcessingTime.Round(time.Millisecond).String()},
		{"Effective FPS", fmt.Sprintf("%.2f", effective)},
		{"Host", fmt.Sprintf("%s, %d CPUs, load %.2f", res.Metadata.Host.Hostname, res.Metadata.Host.LogicalCPUs, res.Metadata.Host.Load1)},
	}
	if len(cues) > 0 {
		rows = append(rows, []string{"SFX cues", strings.Join(cues, " ")})
	}
	if res.ShareCodePath != "" {
		rows = append(rows, []string{"QR code", res.ShareCodePath})
	}
	return keyValueTable(rows)
}

func appendStats(path string, req engine.JobRequest, res *engine.Result) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeStatsLine(f, req, res)
}

func writeStatsLine(w io.Writer, req engine.JobRequest, res *engine.Result) error {
	_, err := fmt.Fprintf(w, "[%s] Build: %s | Topic: %s | Output: %s | Frames: %d | Total: %.2fs | Render: %.2fs | Encode: %.2fs\n",
		time.Now().Format("2006-01-02 15:04:05"),
		version,
		req.Topic,
		filepath.Base(res.OutputPath),
		res.FrameCount,
		res.ProcessingTime.Seconds(),
		res.Stats.Render.Seconds(),
		res.Stats.Encode.Seconds(),
	)
	return err
}

// withSignals returns a context cancelled on SIGINT or SIGTERM.
func withSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
