// Package export writes a job's ranked matches to a spreadsheet workbook
// for sharing outside the system.
package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/hiredeck/match-engine/internal/model"
	"github.com/hiredeck/match-engine/internal/store"
)

// Shortlist bundles everything one workbook needs. Matches are written in
// the order given; callers pass them rank-ordered.
type Shortlist struct {
	Job     *model.JobProfile
	Matches []model.MatchResult

	// Candidates supplies display names, keyed by candidate id. A match
	// without a profile falls back to the raw id.
	Candidates map[string]model.CandidateProfile

	// Stats enriches the summary sheet when present.
	Stats *model.MatchStats

	// GeneratedAt stamps the summary sheet. Zero means now.
	GeneratedAt time.Time
}

var matchHeaders = []string{
	"Rank", "Candidate", "Email", "City", "Overall", "Blended", "Semantic",
	"Skill", "Experience", "Education", "Location", "Multiplier",
	"Review Status", "Disqualified",
}

// BuildShortlist loads everything the workbook needs for one job: the
// job itself, its match results, the matched candidates' profiles, and
// the aggregate stats.
func BuildShortlist(ctx context.Context, st store.Store, jobID string) (Shortlist, error) {
	var s Shortlist

	job, err := st.GetJob(ctx, jobID)
	if err != nil {
		return s, eris.Wrapf(err, "export: load job %s", jobID)
	}
	matches, err := st.ListMatchesForJob(ctx, jobID, store.MatchFilter{})
	if err != nil {
		return s, eris.Wrapf(err, "export: load matches for %s", jobID)
	}
	stats, err := st.MatchStats(ctx, jobID)
	if err != nil {
		return s, eris.Wrapf(err, "export: load stats for %s", jobID)
	}

	profiles := make(map[string]model.CandidateProfile, len(matches))
	for _, m := range matches {
		if _, ok := profiles[m.CandidateID]; ok {
			continue
		}
		c, err := st.GetCandidate(ctx, m.CandidateID)
		if err != nil {
			// A deleted candidate's row renders with the raw id.
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return s, eris.Wrapf(err, "export: load candidate %s", m.CandidateID)
		}
		profiles[m.CandidateID] = *c
	}

	return Shortlist{
		Job:         job,
		Matches:     matches,
		Candidates:  profiles,
		Stats:       stats,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// WriteShortlist writes the workbook to path.
func WriteShortlist(path string, s Shortlist) error {
	f, err := Workbook(s)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// Workbook builds the in-memory workbook, a Matches sheet and a Summary
// sheet. Callers can stream it with File.Write instead of saving.
func Workbook(s Shortlist) (*xlsx.File, error) {
	if s.Job == nil {
		return nil, eris.New("export: job is required")
	}
	f := xlsx.NewFile()
	if err := addMatchesSheet(f, s); err != nil {
		return nil, err
	}
	if err := addSummarySheet(f, s); err != nil {
		return nil, err
	}
	return f, nil
}

func addMatchesSheet(f *xlsx.File, s Shortlist) error {
	sheet, err := f.AddSheet("Matches")
	if err != nil {
		return eris.Wrap(err, "export: add matches sheet")
	}

	bold := headerStyle()
	header := sheet.AddRow()
	for _, h := range matchHeaders {
		cell := header.AddCell()
		cell.SetString(h)
		cell.SetStyle(bold)
	}

	for _, m := range s.Matches {
		row := sheet.AddRow()
		candidate := s.Candidates[m.CandidateID]

		// Disqualified rows carry rank 0; leave the cell blank.
		if m.Rank > 0 {
			row.AddCell().SetInt(m.Rank)
		} else {
			row.AddCell().SetString("")
		}

		name := candidate.FullName
		if name == "" {
			name = m.CandidateID
		}
		row.AddCell().SetString(name)
		row.AddCell().SetString(candidate.Email)
		row.AddCell().SetString(candidate.City)

		addScore(row, m.OverallScore)
		addScore(row, m.BlendedScore)
		if m.SemanticScore != nil {
			addScore(row, *m.SemanticScore)
		} else {
			row.AddCell().SetString("")
		}
		addScore(row, m.SkillScore)
		addScore(row, m.ExperienceScore)
		addScore(row, m.EducationScore)
		addScore(row, m.LocationScore)

		row.AddCell().SetFloatWithFormat(m.FeedbackMultiplier, "0.00")
		row.AddCell().SetString(string(m.ReviewStatus))
		row.AddCell().SetString(m.DisqualifyReason)
	}

	sheet.SetColWidth(1, 3, 24)
	return nil
}

func addSummarySheet(f *xlsx.File, s Shortlist) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	generated := s.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	bold := headerStyle()
	addPair := func(name, value string) {
		row := sheet.AddRow()
		label := row.AddCell()
		label.SetString(name)
		label.SetStyle(bold)
		row.AddCell().SetString(value)
	}
	addSection := func(title string) {
		sheet.AddRow()
		row := sheet.AddRow()
		cell := row.AddCell()
		cell.SetString(title)
		cell.SetStyle(bold)
	}

	addPair("Job", s.Job.Title)
	addPair("Job ID", s.Job.ID)
	addPair("Location", jobLocation(s.Job))
	addPair("Generated", generated.Format(time.RFC3339))
	addPair("Matches", strconv.Itoa(len(s.Matches)))

	if s.Stats != nil {
		addPair("Stored results", strconv.Itoa(s.Stats.Total))
		addPair("Disqualified", strconv.Itoa(s.Stats.Disqualified))
		addPair("Average score", fmt.Sprintf("%.2f", s.Stats.AverageScore))
		addPair("Top score", fmt.Sprintf("%.2f", s.Stats.TopScore))
		addPair("Feedback rows", strconv.Itoa(s.Stats.FeedbackTotal))

		if len(s.Stats.ByStatus) > 0 {
			addSection("By review status")
			for _, k := range sortedKeys(s.Stats.ByStatus) {
				addPair(k, strconv.Itoa(s.Stats.ByStatus[k]))
			}
		}
		if len(s.Stats.ByReason) > 0 {
			addSection("Disqualification reasons")
			for _, k := range sortedKeys(s.Stats.ByReason) {
				addPair(k, strconv.Itoa(s.Stats.ByReason[k]))
			}
		}
		if len(s.Stats.ScoreBuckets) > 0 {
			addSection("Score distribution")
			for _, k := range sortedKeys(s.Stats.ScoreBuckets) {
				addPair(k, strconv.Itoa(s.Stats.ScoreBuckets[k]))
			}
		}
	}

	sheet.SetColWidth(0, 0, 20)
	return nil
}

func addScore(row *xlsx.Row, v float64) {
	row.AddCell().SetFloatWithFormat(v, "0.00")
}

func headerStyle() *xlsx.Style {
	style := xlsx.NewStyle()
	style.Font.Bold = true
	style.ApplyFont = true
	return style
}

func jobLocation(job *model.JobProfile) string {
	if job.Location == "" {
		return string(job.LocationType)
	}
	return fmt.Sprintf("%s (%s)", job.Location, job.LocationType)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
