package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ivlev/beatvideo/internal/engine"
	"github.com/ivlev/beatvideo/internal/script"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var topic, contentType, output string
	var render bool
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Fetch a script for a topic from the script generator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Generator.Endpoint == "" {
				return errors.New("generator.endpoint is not configured")
			}

			gen := script.NewHTTPGenerator(cfg.Generator.Endpoint, cfg.Generator.Timeout)
			s, err := gen.Generate(cmd.Context(), topic, contentType)
			if err != nil {
				return err
			}
			s.Meta.Topic = topic

			// fail early on scripts the pipeline would reject
			if _, err := script.Normalize(s, cfg.Limits()); err != nil {
				return err
			}

			if output == "" {
				output = filepath.Join(cfg.Output.Dir, fmt.Sprintf("script_%s_%s.yaml", slug(topic), time.Now().Format("2006-01-02_15-04-05")))
			}
			if err := script.WriteFile(s, output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[*] Script saved: %s (%d scenes, %.1fs)\n", output, len(s.Scenes), s.TotalDuration())

			if !render {
				return nil
			}
			return runJob(cmd, ctx, cfg, &flags, engine.JobRequest{Script: s, ContentType: contentType, Topic: topic})
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic to generate a script for")
	cmd.Flags().StringVar(&contentType, "content-type", script.ContentTopicTeaser, "Content type")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Script output path (YAML or JSON)")
	cmd.Flags().BoolVar(&render, "render", false, "Render the script right away")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('_')
			dash = true
		}
		if b.Len() >= 40 {
			break
		}
	}
	return strings.TrimRight(b.String(), "_")
}
