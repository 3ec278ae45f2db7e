package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	batchJobID      string
	batchCandidates []string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score a candidate set against one job and rebuild its ranks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		eng := newEngine(st)

		summary, err := eng.BatchMatchJob(ctx, batchJobID, batchCandidates)
		if err != nil {
			return eris.Wrap(err, "batch match")
		}

		zap.L().Info("batch complete",
			zap.String("job_id", batchJobID),
			zap.Int("evaluated", summary.Evaluated),
			zap.Int("written", summary.Written),
			zap.Int("disqualified", summary.Disqualified),
			zap.Int("failed", summary.Failed),
			zap.Bool("semantic_used", summary.SemanticUsed),
			zap.Int64("duration_ms", summary.Duration),
		)
		return printJSON(summary)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchJobID, "job", "", "job ID (required)")
	batchCmd.Flags().StringSliceVar(&batchCandidates, "candidates", nil, "candidate IDs (default: every stored candidate)")
	_ = batchCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(batchCmd)
}
