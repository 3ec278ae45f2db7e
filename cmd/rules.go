package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hiredeck/match-engine/internal/model"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage scoring rules and rule templates",
}

var (
	rulesListJobID      string
	rulesListTemplateID string
	rulesListActiveOnly bool
)

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules bound to a job or template",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var list []model.ScoringRule
		switch {
		case rulesListJobID != "":
			list, err = st.ListRulesForJob(ctx, rulesListJobID, rulesListActiveOnly)
		case rulesListTemplateID != "":
			list, err = st.ListRulesForTemplate(ctx, rulesListTemplateID, rulesListActiveOnly)
		default:
			return eris.New("one of --job or --template is required")
		}
		if err != nil {
			return eris.Wrap(err, "list rules")
		}

		printRuleTable(cmd.OutOrStdout(), list)
		return nil
	},
}

func printRuleTable(out io.Writer, list []model.ScoringRule) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tACTIVE\tPRIORITY\tORDER\tSTOP\tACTIONS")
	for _, r := range list {
		fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%d\t%t\t%d\n",
			r.ID, r.Name, r.Active, r.Priority, r.ExecutionOrder, r.StopOnMatch, len(r.Actions))
	}
	w.Flush()
}

var rulesActivateCmd = &cobra.Command{
	Use:   "activate <rule-id>",
	Short: "Activate a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRuleActive(cmd, args[0], true)
	},
}

var rulesDeactivateCmd = &cobra.Command{
	Use:   "deactivate <rule-id>",
	Short: "Deactivate a rule without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRuleActive(cmd, args[0], false)
	},
}

func setRuleActive(cmd *cobra.Command, id string, active bool) error {
	ctx := cmd.Context()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetRuleActive(ctx, id, active); err != nil {
		return eris.Wrapf(err, "set rule %s active=%t", id, active)
	}
	zap.L().Info("rule updated", zap.String("rule_id", id), zap.Bool("active", active))
	return nil
}

var rulesTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List rule templates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		templates, err := st.ListTemplates(ctx)
		if err != nil {
			return eris.Wrap(err, "list templates")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
		for _, tpl := range templates {
			fmt.Fprintf(w, "%s\t%s\t%s\n", tpl.ID, tpl.Name, tpl.Description)
		}
		w.Flush()
		return nil
	},
}

var rulesDuplicateName string

var rulesDuplicateCmd = &cobra.Command{
	Use:   "duplicate <template-id>",
	Short: "Copy a template and all of its rules under a new name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		dup, err := st.DuplicateTemplate(ctx, args[0], rulesDuplicateName)
		if err != nil {
			return eris.Wrapf(err, "duplicate template %s", args[0])
		}
		zap.L().Info("template duplicated",
			zap.String("source_id", args[0]),
			zap.String("new_id", dup.ID),
		)
		return printJSON(dup)
	},
}

func init() {
	rulesListCmd.Flags().StringVar(&rulesListJobID, "job", "", "job ID")
	rulesListCmd.Flags().StringVar(&rulesListTemplateID, "template", "", "template ID")
	rulesListCmd.Flags().BoolVar(&rulesListActiveOnly, "active", false, "only active rules")

	rulesDuplicateCmd.Flags().StringVar(&rulesDuplicateName, "name", "", "name for the copy (required)")
	_ = rulesDuplicateCmd.MarkFlagRequired("name")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesActivateCmd)
	rulesCmd.AddCommand(rulesDeactivateCmd)
	rulesCmd.AddCommand(rulesTemplatesCmd)
	rulesCmd.AddCommand(rulesDuplicateCmd)
	rootCmd.AddCommand(rulesCmd)
}
