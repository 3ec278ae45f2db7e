package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var refreshCandidateID string

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recompute persisted scores for a candidate's matches from stored feedback",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		updated, err := newEngine(st).RefreshMatchScores(ctx, refreshCandidateID)
		if err != nil {
			return err
		}

		zap.L().Info("match scores refreshed",
			zap.String("candidate_id", refreshCandidateID),
			zap.Int("updated", updated),
		)
		return nil
	},
}

func init() {
	refreshCmd.Flags().StringVar(&refreshCandidateID, "candidate", "", "candidate ID (required)")
	_ = refreshCmd.MarkFlagRequired("candidate")

	rootCmd.AddCommand(refreshCmd)
}
