package feedback

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hiredeck/match-engine/internal/model"
)

func rows(types ...model.FeedbackType) []model.MatchFeedback {
	out := make([]model.MatchFeedback, len(types))
	for i, ft := range types {
		out[i] = model.MatchFeedback{FeedbackType: ft}
	}
	return out
}

func TestMultiplier(t *testing.T) {
	t.Parallel()

	pos := model.FeedbackPositive
	neg := model.FeedbackNegative

	tests := []struct {
		name string
		in   []model.MatchFeedback
		want float64
	}{
		{"no feedback", nil, 1.0},
		{"one positive", rows(pos), 1.05},
		{"one negative", rows(neg), 0.90},
		{"two positive one negative", rows(pos, pos, neg), 1.0},
		{"ceiling caps positives", rows(pos, pos, pos, pos, pos, pos, pos, pos, pos, pos, pos, pos), 1.5},
		{"ceiling applies before negatives", rows(pos, pos, pos, pos, pos, pos, pos, pos, pos, pos, pos, neg), 1.4},
		{"floor stops negatives", rows(neg, neg, neg, neg, neg, neg, neg), 0.5},
		{"unknown types ignored", []model.MatchFeedback{{FeedbackType: "meh"}}, 1.0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, Multiplier(tt.in, Params{}), 0.0001)
		})
	}
}

func TestMultiplierCommutative(t *testing.T) {
	t.Parallel()

	base := rows(
		model.FeedbackPositive, model.FeedbackNegative, model.FeedbackPositive,
		model.FeedbackPositive, model.FeedbackNegative, model.FeedbackPositive,
	)
	want := Multiplier(base, Params{})

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]model.MatchFeedback(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.InDelta(t, want, Multiplier(shuffled, Params{}), 0.0001)
	}
}

func TestMultiplierIdempotent(t *testing.T) {
	t.Parallel()

	in := rows(model.FeedbackPositive, model.FeedbackPositive, model.FeedbackNegative)
	first := Multiplier(in, Params{})
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Multiplier(in, Params{}))
	}
}

func TestMultiplierCustomParams(t *testing.T) {
	t.Parallel()

	p := Params{PositiveStep: 0.1, NegativeStep: 0.2, Ceiling: 1.2, Floor: 0.8}
	assert.InDelta(t, 1.2, Multiplier(rows(model.FeedbackPositive, model.FeedbackPositive, model.FeedbackPositive), p), 0.0001)
	assert.InDelta(t, 0.8, Multiplier(rows(model.FeedbackNegative, model.FeedbackNegative), p), 0.0001)
}

func TestApply(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 90, Apply(75, 1.2), 0.001)
	assert.InDelta(t, 100, Apply(90, 1.5), 0.001) // clamped
	assert.InDelta(t, 37.5, Apply(75, 0.5), 0.001)
	assert.InDelta(t, 0, Apply(0, 1.5), 0.001)
	assert.InDelta(t, 82.13, Apply(78.22, 1.05), 0.001)
}
