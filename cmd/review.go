package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hiredeck/match-engine/internal/model"
)

var (
	reviewMatchID string
	reviewStatus  string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Move a match result through the review workflow",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		next := model.ReviewStatus(reviewStatus)
		if err := newEngine(st).UpdateReviewStatus(ctx, reviewMatchID, next); err != nil {
			return err
		}

		zap.L().Info("review status updated",
			zap.String("match_id", reviewMatchID),
			zap.String("status", reviewStatus),
		)
		return nil
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewMatchID, "match", "", "match result ID (required)")
	reviewCmd.Flags().StringVar(&reviewStatus, "status", "", "reviewed, shortlisted, or rejected (required)")
	_ = reviewCmd.MarkFlagRequired("match")
	_ = reviewCmd.MarkFlagRequired("status")

	rootCmd.AddCommand(reviewCmd)
}
