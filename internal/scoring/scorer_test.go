package scoring

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentgate/careers/internal/models"
)

type fakeCompleter struct {
	response string
	err      error
	prompt   string
}

func (f *fakeCompleter) CompleteWithRetry(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func reqs(pairs ...interface{}) []models.JobRequirement {
	out := make([]models.JobRequirement, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, models.JobRequirement{
			Name:   pairs[i].(string),
			Weight: pairs[i+1].(float64),
		})
	}
	return out
}

func TestScore_WeightedAverage(t *testing.T) {
	// (2*0.8 + 1*0.4) / 3 = 0.666... -> 66.7 on the 0-100 scale.
	gw := &fakeCompleter{response: `{"scores":[
		{"requirement":"A","score":0.8},
		{"requirement":"B","score":0.4}
	]}`}

	got, err := New(gw).Score(context.Background(), "resume", reqs("A", 2.0, "B", 1.0))
	require.NoError(t, err)

	assert.InDelta(t, 66.7, got.Overall, 0.05)
	require.Len(t, got.Breakdown, 2)
	assert.Equal(t, 0.8, got.Breakdown[0].Score)
	assert.Equal(t, 2.0, got.Breakdown[0].Weight)
}

func TestScore_EmptyRequirements(t *testing.T) {
	_, err := New(&fakeCompleter{}).Score(context.Background(), "resume", nil)
	assert.ErrorIs(t, err, ErrNoRequirements)
}

func TestScore_ZeroTotalWeight(t *testing.T) {
	_, err := New(&fakeCompleter{}).Score(context.Background(), "resume", reqs("A", 0.0, "B", 0.0))
	assert.ErrorIs(t, err, ErrNoRequirements)
}

func TestScore_MissingEntriesFloorToZero(t *testing.T) {
	// Model only rated A; B must count as 0, not vanish from the average.
	gw := &fakeCompleter{response: `{"scores":[{"requirement":"A","score":1.0}]}`}

	got, err := New(gw).Score(context.Background(), "resume", reqs("A", 1.0, "B", 1.0))
	require.NoError(t, err)

	assert.InDelta(t, 50.0, got.Overall, 0.01)
	require.Len(t, got.Breakdown, 2)
	assert.Equal(t, 0.0, got.Breakdown[1].Score)
}

func TestScore_OutOfRangeClamped(t *testing.T) {
	gw := &fakeCompleter{response: `{"scores":[
		{"requirement":"A","score":3.5},
		{"requirement":"B","score":-2.0}
	]}`}

	got, err := New(gw).Score(context.Background(), "resume", reqs("A", 1.0, "B", 1.0))
	require.NoError(t, err)

	assert.Equal(t, 1.0, got.Breakdown[0].Score)
	assert.Equal(t, 0.0, got.Breakdown[1].Score)
	assert.InDelta(t, 50.0, got.Overall, 0.01)
}

func TestScore_PositionalFallback(t *testing.T) {
	// Model reworded the requirements; positional order still applies.
	gw := &fakeCompleter{response: `{"scores":[
		{"requirement":"golang expertise","score":0.9},
		{"requirement":"database skills","score":0.5}
	]}`}

	got, err := New(gw).Score(context.Background(), "resume", reqs("Go", 1.0, "SQL", 1.0))
	require.NoError(t, err)

	assert.Equal(t, 0.9, got.Breakdown[0].Score)
	assert.Equal(t, 0.5, got.Breakdown[1].Score)
}

func TestScore_MalformedResponseRepaired(t *testing.T) {
	gw := &fakeCompleter{response: "Scores below:\n{'scores':[{'requirement':'A','score':0.6},"}

	got, err := New(gw).Score(context.Background(), "resume", reqs("A", 1.0))
	require.NoError(t, err)
	assert.InDelta(t, 60.0, got.Overall, 0.01)
}

func TestCompute_Deterministic(t *testing.T) {
	r := reqs("A", 2.0, "B", 1.0)
	scores := []float64{0.8, 0.4}

	first := Compute(r, scores)
	second := Compute(r, scores)
	assert.Equal(t, first, second)

	// Recomputable from the breakdown alone.
	fromBreakdown := make([]float64, len(first.Breakdown))
	for i, b := range first.Breakdown {
		fromBreakdown[i] = b.Score
	}
	assert.Equal(t, first.Overall, Compute(r, fromBreakdown).Overall)
}

func TestCompute_NegativeWeightIgnored(t *testing.T) {
	r := reqs("A", 1.0, "B", -5.0)
	got := Compute(r, []float64{0.5, 1.0})

	assert.InDelta(t, 50.0, got.Overall, 0.01)
	assert.False(t, math.IsNaN(got.Overall))
}

func TestScore_PromptListsRequirements(t *testing.T) {
	gw := &fakeCompleter{response: `{"scores":[{"requirement":"Go","score":1.0}]}`}

	_, err := New(gw).Score(context.Background(), "resume body", reqs("Go", 1.0))
	require.NoError(t, err)

	assert.Contains(t, gw.prompt, "- Go")
	assert.Contains(t, gw.prompt, "resume body")
}
