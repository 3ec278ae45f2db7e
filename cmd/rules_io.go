package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hiredeck/match-engine/internal/model"
)

// ruleDoc is the YAML authoring form of a scoring rule. Conditions and
// actions round-trip through the strict JSON decoders, so a YAML rule
// obeys exactly the same document rules as one submitted over the API.
type ruleDoc struct {
	ID             string         `yaml:"id,omitempty"`
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description,omitempty"`
	JobID          string         `yaml:"job_id,omitempty"`
	TemplateID     string         `yaml:"template_id,omitempty"`
	Active         bool           `yaml:"active"`
	Priority       int            `yaml:"priority"`
	ExecutionOrder int            `yaml:"execution_order"`
	StopOnMatch    bool           `yaml:"stop_on_match"`
	Conditions     map[string]any `yaml:"conditions"`
	Actions        []any          `yaml:"actions"`
}

type ruleFile struct {
	Rules []ruleDoc `yaml:"rules"`
}

// reencode converts between the generic YAML form and the typed rule
// documents via their canonical JSON encoding.
func reencode(from, to any) error {
	raw, err := json.Marshal(from)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, to)
}

func (d ruleDoc) toRule() (*model.ScoringRule, error) {
	var tree model.ConditionTree
	if err := reencode(d.Conditions, &tree); err != nil {
		return nil, eris.Wrap(err, "conditions")
	}
	var actions model.ActionSet
	if err := reencode(d.Actions, &actions); err != nil {
		return nil, eris.Wrap(err, "actions")
	}

	r := &model.ScoringRule{
		ID:             d.ID,
		Name:           d.Name,
		Description:    d.Description,
		JobID:          d.JobID,
		TemplateID:     d.TemplateID,
		Active:         d.Active,
		Priority:       d.Priority,
		ExecutionOrder: d.ExecutionOrder,
		StopOnMatch:    d.StopOnMatch,
		Conditions:     tree,
		Actions:        actions,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func docFromRule(r model.ScoringRule) (ruleDoc, error) {
	d := ruleDoc{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		JobID:          r.JobID,
		TemplateID:     r.TemplateID,
		Active:         r.Active,
		Priority:       r.Priority,
		ExecutionOrder: r.ExecutionOrder,
		StopOnMatch:    r.StopOnMatch,
	}
	if err := reencode(r.Conditions, &d.Conditions); err != nil {
		return d, eris.Wrap(err, "conditions")
	}
	if err := reencode(r.Actions, &d.Actions); err != nil {
		return d, eris.Wrap(err, "actions")
	}
	return d, nil
}

func readRuleFile(path string) ([]ruleDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "parse %s", path)
	}
	if len(f.Rules) == 0 {
		return nil, eris.Errorf("%s contains no rules", path)
	}
	return f.Rules, nil
}

var rulesImportFile string

var rulesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import rules from a YAML file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		docs, err := readRuleFile(rulesImportFile)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		created := 0
		for i, d := range docs {
			r, err := d.toRule()
			if err != nil {
				return eris.Wrapf(err, "rule %d (%s)", i, d.Name)
			}
			if err := st.CreateRule(ctx, r); err != nil {
				return eris.Wrapf(err, "create rule %q", r.Name)
			}
			created++
		}

		zap.L().Info("rules imported",
			zap.Int("created", created),
			zap.String("file", rulesImportFile),
		)
		return nil
	},
}

var (
	rulesExportJobID      string
	rulesExportTemplateID string
	rulesExportOut        string
)

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a job's or template's rules to YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var list []model.ScoringRule
		switch {
		case rulesExportJobID != "":
			list, err = st.ListRulesForJob(ctx, rulesExportJobID, false)
		case rulesExportTemplateID != "":
			list, err = st.ListRulesForTemplate(ctx, rulesExportTemplateID, false)
		default:
			return eris.New("one of --job or --template is required")
		}
		if err != nil {
			return eris.Wrap(err, "list rules")
		}

		docs := make([]ruleDoc, 0, len(list))
		for _, r := range list {
			d, err := docFromRule(r)
			if err != nil {
				return eris.Wrapf(err, "rule %s", r.ID)
			}
			docs = append(docs, d)
		}

		out, err := yaml.Marshal(ruleFile{Rules: docs})
		if err != nil {
			return eris.Wrap(err, "encode rules")
		}
		if err := os.WriteFile(rulesExportOut, out, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", rulesExportOut)
		}

		zap.L().Info("rules exported",
			zap.Int("rules", len(docs)),
			zap.String("file", rulesExportOut),
		)
		return nil
	},
}

func init() {
	rulesImportCmd.Flags().StringVar(&rulesImportFile, "file", "", "YAML rule file (required)")
	_ = rulesImportCmd.MarkFlagRequired("file")

	rulesExportCmd.Flags().StringVar(&rulesExportJobID, "job", "", "job ID")
	rulesExportCmd.Flags().StringVar(&rulesExportTemplateID, "template", "", "template ID")
	rulesExportCmd.Flags().StringVar(&rulesExportOut, "out", "rules.yaml", "output path")

	rulesCmd.AddCommand(rulesImportCmd)
	rulesCmd.AddCommand(rulesExportCmd)
}
