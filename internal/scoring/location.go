package scoring

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/hiredeck/match-engine/internal/model"
)

// Location scores per match quality and job location type.
const (
	locationRemoteScore    = 100
	locationExactScore     = 100
	locationSubstringScore = 90
	locationHybridScore    = 60
	locationOnsiteScore    = 30
	locationNeutralScore   = 50
)

// diacriticFold strips combining marks so "São Paulo" and "Sao Paulo"
// compare equal.
var diacriticFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// LocationScore rates geographic fit. Remote jobs score full regardless of
// the candidate's city; missing data on either side is neutral; equal
// normalized cities score full and substring containment slightly less;
// otherwise the job's location type sets the score.
func LocationScore(candidateCity, jobLocation string, locationType model.LocationType) float64 {
	if locationType == model.LocationRemote {
		return locationRemoteScore
	}

	cand := NormalizeCity(candidateCity)
	job := NormalizeCity(jobLocation)
	if cand == "" || job == "" {
		return locationNeutralScore
	}

	switch {
	case cand == job:
		return locationExactScore
	case strings.Contains(cand, job) || strings.Contains(job, cand):
		return locationSubstringScore
	case locationType == model.LocationHybrid:
		return locationHybridScore
	default:
		return locationOnsiteScore
	}
}

// NormalizeCity lowers, trims, folds diacritics, and collapses inner
// whitespace so city strings from different sources compare by content.
func NormalizeCity(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return ""
	}
	if folded, _, err := transform.String(diacriticFold, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(s), " ")
}
