package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hiredeck/match-engine/internal/model"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the backing store",
}

var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		zap.L().Info("schema ready", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

var storePingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check store connectivity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Ping(ctx); err != nil {
			return eris.Wrap(err, "ping store")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s ok\n", cfg.Store.Driver)
		return nil
	},
}

// seedFile is the YAML shape of a seed data file. Sections decode
// through the models' JSON tags, so field names match the API payloads.
type seedFile struct {
	Skills          []model.Skill            `json:"skills"`
	Candidates      []model.CandidateProfile `json:"candidates"`
	CandidateSkills []model.CandidateSkill   `json:"candidate_skills"`
	Jobs            []model.JobProfile       `json:"jobs"`
	RequiredSkills  []model.RequiredSkill    `json:"required_skills"`
}

func readSeedFile(path string) (seedFile, error) {
	var f seedFile
	data, err := os.ReadFile(path)
	if err != nil {
		return f, eris.Wrapf(err, "read %s", path)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return f, eris.Wrapf(err, "parse %s", path)
	}
	if err := reencode(raw, &f); err != nil {
		return f, eris.Wrapf(err, "decode %s", path)
	}
	return f, nil
}

var storeSeedFile string

var storeSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load skills, candidates, and jobs from a YAML file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		seed, err := readSeedFile(storeSeedFile)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		for _, s := range seed.Skills {
			if err := st.UpsertSkill(ctx, s); err != nil {
				return eris.Wrapf(err, "seed skill %q", s.Name)
			}
		}

		imported, err := st.ImportCandidates(ctx, seed.Candidates)
		if err != nil {
			return eris.Wrap(err, "seed candidates")
		}
		for _, cs := range seed.CandidateSkills {
			if err := st.SetCandidateSkill(ctx, cs); err != nil {
				return eris.Wrapf(err, "seed skill for candidate %s", cs.CandidateID)
			}
		}

		for i := range seed.Jobs {
			j := &seed.Jobs[i]
			if j.Status == "" {
				j.Status = model.JobStatusOpen
			}
			if err := st.UpsertJob(ctx, j); err != nil {
				return eris.Wrapf(err, "seed job %q", j.Title)
			}
		}
		for _, rs := range seed.RequiredSkills {
			if err := st.SetRequiredSkill(ctx, rs); err != nil {
				return eris.Wrapf(err, "seed skill for job %s", rs.JobID)
			}
		}

		zap.L().Info("store seeded",
			zap.Int("skills", len(seed.Skills)),
			zap.Int64("candidates", imported),
			zap.Int("candidate_skills", len(seed.CandidateSkills)),
			zap.Int("jobs", len(seed.Jobs)),
			zap.Int("required_skills", len(seed.RequiredSkills)),
			zap.String("file", storeSeedFile),
		)
		return nil
	},
}

func init() {
	storeSeedCmd.Flags().StringVar(&storeSeedFile, "file", "", "YAML seed file (required)")
	_ = storeSeedCmd.MarkFlagRequired("file")

	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storePingCmd)
	storeCmd.AddCommand(storeSeedCmd)
	rootCmd.AddCommand(storeCmd)
}
