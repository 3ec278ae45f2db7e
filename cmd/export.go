package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hiredeck/match-engine/internal/export"
)

var (
	exportJobID string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a job's shortlist to an xlsx workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		shortlist, err := export.BuildShortlist(ctx, st, exportJobID)
		if err != nil {
			return err
		}
		if err := export.WriteShortlist(exportOut, shortlist); err != nil {
			return err
		}

		zap.L().Info("shortlist exported",
			zap.String("job_id", exportJobID),
			zap.Int("matches", len(shortlist.Matches)),
			zap.String("file", exportOut),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportJobID, "job", "", "job ID (required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "shortlist.xlsx", "output path")
	_ = exportCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(exportCmd)
}
