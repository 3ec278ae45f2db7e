package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hiredeck/match-engine/internal/model"
)

var statsJobID string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the score distribution for a job's matches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.MatchStats(ctx, statsJobID)
		if err != nil {
			return err
		}
		return printStats(cmd.OutOrStdout(), stats)
	},
}

// scoreBucketOrder lists the bucket labels from best to worst so the
// table reads top-down regardless of map iteration order.
var scoreBucketOrder = []string{"80-100", "60-79", "40-59", "20-39", "0-19"}

func printStats(w io.Writer, s *model.MatchStats) error {
	fmt.Fprintf(w, "Job %s: %d matches, %d disqualified, %d feedback entries\n",
		s.JobID, s.Total, s.Disqualified, s.FeedbackTotal)
	fmt.Fprintf(w, "Average score %.2f, top score %.2f\n\n", s.AverageScore, s.TopScore)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BUCKET\tMATCHES")
	for _, bucket := range scoreBucketOrder {
		if count, ok := s.ScoreBuckets[bucket]; ok {
			fmt.Fprintf(tw, "%s\t%d\n", bucket, count)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.ByStatus) > 0 {
		if err := printCountTable(w, "STATUS", s.ByStatus); err != nil {
			return err
		}
	}
	if len(s.ByReason) > 0 {
		if err := printCountTable(w, "DISQUALIFY REASON", s.ByReason); err != nil {
			return err
		}
	}
	return nil
}

func printCountTable(w io.Writer, label string, counts map[string]int) error {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tMATCHES\n", label)
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%d\n", k, counts[k])
	}
	return tw.Flush()
}

func init() {
	statsCmd.Flags().StringVar(&statsJobID, "job", "", "job ID (required)")
	_ = statsCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(statsCmd)
}
