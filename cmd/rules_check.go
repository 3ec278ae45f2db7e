package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/hiredeck/match-engine/internal/rules"
)

var rulesValidateFile string

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a YAML rule file without touching the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		docs, err := readRuleFile(rulesValidateFile)
		if err != nil {
			return err
		}

		failed := 0
		for i, d := range docs {
			findings, err := validateDoc(d)
			if err != nil {
				return eris.Wrapf(err, "rule %d (%s)", i, d.Name)
			}
			for _, f := range findings {
				fmt.Fprintf(cmd.OutOrStdout(), "rule %d (%s): %s %s: %s\n",
					i, d.Name, f.Severity, f.Path, f.Message)
			}
			if rules.HasErrors(findings) {
				failed++
			}
		}
		if failed > 0 {
			return eris.Errorf("%d of %d rules failed validation", failed, len(docs))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d rules ok\n", len(docs))
		return nil
	},
}

// validateDoc runs the syntax checker on a rule document without
// requiring it to decode into the typed model first, so authors see
// every finding instead of the first decode error.
func validateDoc(d ruleDoc) ([]rules.Finding, error) {
	cond, err := json.Marshal(d.Conditions)
	if err != nil {
		return nil, eris.Wrap(err, "conditions")
	}
	act, err := json.Marshal(d.Actions)
	if err != nil {
		return nil, eris.Wrap(err, "actions")
	}
	return rules.ValidateSyntax(cond, act), nil
}

var (
	rulesTestFile        string
	rulesTestCandidateID string
	rulesTestJobID       string
)

var rulesTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Run one rule against a candidate-job pair without persisting",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		docs, err := readRuleFile(rulesTestFile)
		if err != nil {
			return err
		}
		if len(docs) != 1 {
			return eris.Errorf("expected exactly one rule in %s, found %d", rulesTestFile, len(docs))
		}
		r, err := docs[0].toRule()
		if err != nil {
			return eris.Wrapf(err, "rule (%s)", docs[0].Name)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		report, err := newEngine(st).TestRule(ctx, rulesTestCandidateID, rulesTestJobID, *r)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

func init() {
	rulesValidateCmd.Flags().StringVar(&rulesValidateFile, "file", "", "YAML rule file (required)")
	_ = rulesValidateCmd.MarkFlagRequired("file")

	rulesTestCmd.Flags().StringVar(&rulesTestFile, "file", "", "YAML file holding a single rule (required)")
	rulesTestCmd.Flags().StringVar(&rulesTestCandidateID, "candidate", "", "candidate ID (required)")
	rulesTestCmd.Flags().StringVar(&rulesTestJobID, "job", "", "job ID (required)")
	_ = rulesTestCmd.MarkFlagRequired("file")
	_ = rulesTestCmd.MarkFlagRequired("candidate")
	_ = rulesTestCmd.MarkFlagRequired("job")

	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesTestCmd)
}
