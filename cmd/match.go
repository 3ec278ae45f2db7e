package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	matchCandidateID string
	matchJobID       string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score one candidate against a job, or against every open job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		eng := newEngine(st)

		if matchJobID != "" {
			res, err := eng.CalculateMatch(ctx, matchCandidateID, matchJobID)
			if err != nil {
				return eris.Wrap(err, "calculate match")
			}
			return printJSON(res)
		}

		summary, err := eng.MatchCandidateAllJobs(ctx, matchCandidateID)
		if err != nil {
			return eris.Wrap(err, "match candidate")
		}
		zap.L().Info("candidate matched",
			zap.String("candidate_id", matchCandidateID),
			zap.Int("evaluated", summary.Evaluated),
			zap.Int("written", summary.Written),
		)
		return printJSON(summary)
	},
}

func init() {
	matchCmd.Flags().StringVar(&matchCandidateID, "candidate", "", "candidate ID (required)")
	matchCmd.Flags().StringVar(&matchJobID, "job", "", "job ID (all open jobs when omitted)")
	_ = matchCmd.MarkFlagRequired("candidate")
	rootCmd.AddCommand(matchCmd)
}
