package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/beatvideo/internal/assets"
	"github.com/ivlev/beatvideo/internal/compiler"
)

func newAssetsCommand() *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:         "assets",
		Short:       "Show the asset profile selected for a topic",
		Annotations: map[string]string{"skipConfig": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			p := assets.Select(topic)
			rows := [][]string{
				{"Subject", p.Subject},
				{"Category", p.Category},
				{"Theme", p.Theme},
				{"Primary color", p.PrimaryColor},
				{"Visual style", p.VisualStyle},
				{"Animation hints", strings.Join(p.AnimationHints, ", ")},
			}
			if e := (compiler.KeywordEnricher{}).Enrich(topic, p); !e.Empty() {
				if e.Equation != "" {
					rows = append(rows, []string{"Equation", e.Equation})
				}
				if len(e.Forces) > 0 {
					rows = append(rows, []string{"Forces", strings.Join(e.Forces, ", ")})
				}
				if e.Process != nil {
					rows = append(rows, []string{"Process", e.Process.Name})
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), keyValueTable(rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic text")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}
