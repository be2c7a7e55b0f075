package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ivlev/beatvideo/internal/compiler"
	"github.com/ivlev/beatvideo/internal/engine"
	"github.com/ivlev/beatvideo/internal/script"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var scriptPath, topic, contentType string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Normalize a script and show its frame layout",
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

			p, err := engine.NewPipeline(engine.OptionsFromConfig(cfg), nil, ctx.ensureLogger())
			if err != nil {
				return err
			}
			scenes, err := p.Compile(engine.JobRequest{Script: s, ContentType: contentType, Topic: topic})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, scenesTable(scenes))
			total := compiler.TotalFrames(scenes)
			fmt.Fprintf(out, "Script valid: %d scenes, %d frames, %.2fs at %d fps\n",
				len(scenes), total, float64(total)/float64(cfg.Render.FPS), cfg.Render.FPS)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Script file (YAML or JSON)")
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic (defaults to the script's meta.topic)")
	cmd.Flags().StringVar(&contentType, "content-type", script.ContentTopicTeaser, "Content type")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func scenesTable(scenes []compiler.CompiledScene) string {
	rows := make([][]string, 0, len(scenes))
	for _, sc := range scenes {
		rows = append(rows, []string{
			strconv.Itoa(sc.Index + 1),
			string(sc.Beat),
			string(sc.SFX),
			fmt.Sprintf("%.2fs", sc.Duration),
			fmt.Sprintf("[%d, %d)", sc.StartFrame, sc.EndFrame),
			sc.Text,
		})
	}
	return renderTable(
		[]string{"#", "Beat", "SFX", "Duration", "Frames", "Text"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}
