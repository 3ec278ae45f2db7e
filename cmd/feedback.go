package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hiredeck/match-engine/internal/model"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record and inspect reviewer feedback on match results",
}

var (
	feedbackMatchID string
	feedbackBy      string
	feedbackType    string
	feedbackNotes   string
)

var feedbackAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Submit positive or negative feedback for a match result",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		change, err := newEngine(st).SubmitFeedback(ctx, feedbackMatchID, feedbackBy,
			model.FeedbackType(feedbackType), feedbackNotes)
		if err != nil {
			return err
		}

		zap.L().Info("feedback recorded",
			zap.String("match_id", feedbackMatchID),
			zap.String("feedback_by", feedbackBy),
			zap.String("change", string(change)),
		)
		fmt.Printf("%s\n", change)
		return nil
	},
}

var feedbackRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Withdraw a reviewer's feedback and rescore the match",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := newEngine(st).RemoveFeedback(ctx, feedbackMatchID, feedbackBy); err != nil {
			return err
		}

		zap.L().Info("feedback removed",
			zap.String("match_id", feedbackMatchID),
			zap.String("feedback_by", feedbackBy),
		)
		return nil
	},
}

var feedbackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List feedback entries for a match result",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.ListFeedback(ctx, feedbackMatchID)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "REVIEWER\tTYPE\tCREATED\tNOTES")
		for _, f := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				f.FeedbackBy, f.FeedbackType, f.CreatedAt.Format("2006-01-02 15:04"), f.Notes)
		}
		return w.Flush()
	},
}

func init() {
	feedbackAddCmd.Flags().StringVar(&feedbackMatchID, "match", "", "match result ID (required)")
	feedbackAddCmd.Flags().StringVar(&feedbackBy, "by", "", "reviewer identifier (required)")
	feedbackAddCmd.Flags().StringVar(&feedbackType, "type", "", "positive or negative (required)")
	feedbackAddCmd.Flags().StringVar(&feedbackNotes, "notes", "", "free-form notes")
	_ = feedbackAddCmd.MarkFlagRequired("match")
	_ = feedbackAddCmd.MarkFlagRequired("by")
	_ = feedbackAddCmd.MarkFlagRequired("type")

	feedbackRemoveCmd.Flags().StringVar(&feedbackMatchID, "match", "", "match result ID (required)")
	feedbackRemoveCmd.Flags().StringVar(&feedbackBy, "by", "", "reviewer identifier (required)")
	_ = feedbackRemoveCmd.MarkFlagRequired("match")
	_ = feedbackRemoveCmd.MarkFlagRequired("by")

	feedbackListCmd.Flags().StringVar(&feedbackMatchID, "match", "", "match result ID (required)")
	_ = feedbackListCmd.MarkFlagRequired("match")

	feedbackCmd.AddCommand(feedbackAddCmd)
	feedbackCmd.AddCommand(feedbackRemoveCmd)
	feedbackCmd.AddCommand(feedbackListCmd)
	rootCmd.AddCommand(feedbackCmd)
}
