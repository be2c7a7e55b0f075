package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ivlev/beatvideo/internal/store"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent jobs from the job store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Driver == "" {
				return fmt.Errorf("no job store configured (store.driver)")
			}
			records, err := openRecords(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer records.Close()

			recs, err := records.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), jobsTable(recs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of jobs to show")
	return cmd
}

func jobsTable(recs []store.JobRecord) string {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		result := r.OutputPath
		if r.Status == store.StatusFailed {
			result = r.Error
		}
		rows = append(rows, []string{
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Status,
			r.Topic,
			strconv.Itoa(r.FrameCount),
			fmt.Sprintf("%.1fs", r.Duration),
			result,
		})
	}
	return renderTable(
		[]string{"ID", "Created", "Status", "Topic", "Frames", "Duration", "Result"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}
