// Package scoring rates a candidate's resume against a job posting's
// weighted requirements. The model supplies one 0-1 match score per
// requirement; the overall 0-100 score is computed here, deterministically,
// so it can always be audited and recomputed from the breakdown.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/talentgate/careers/internal/models"
	"github.com/talentgate/careers/internal/repair"
)

// ErrNoRequirements means the posting carries no scorable requirements. An
// overall score would be meaningless, so the engine refuses rather than
// inventing a 0 or 100.
var ErrNoRequirements = errors.New("job posting has no scorable requirements")

// scoreSchema requires one entry per rated requirement; the engine fills
// gaps with the floor score rather than dropping them.
const scoreSchema = `{
	"type": "object",
	"required": ["scores"],
	"properties": {
		"scores": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["score"],
				"properties": {
					"requirement": {"type": ["string", "null"]},
					"score":       {"type": "number"}
				}
			}
		}
	}
}`

// Completer is the slice of the LLM gateway the engine consumes.
type Completer interface {
	CompleteWithRetry(ctx context.Context, prompt string) (string, error)
}

// Engine scores resumes against requirement lists.
type Engine struct {
	gw Completer
}

func New(gw Completer) *Engine {
	return &Engine{gw: gw}
}

// Score returns the weighted fit of the resume against the requirements.
// Missing per-requirement entries floor to 0 so under-information never
// inflates the result; out-of-range model scores are clamped, never fatal.
func (e *Engine) Score(ctx context.Context, resumeText string, reqs []models.JobRequirement) (*models.ScoreResult, error) {
	if len(reqs) == 0 {
		return nil, ErrNoRequirements
	}
	totalWeight := 0.0
	for _, r := range reqs {
		if r.Weight > 0 {
			totalWeight += r.Weight
		}
	}
	if totalWeight <= 0 {
		return nil, fmt.Errorf("%w: total weight is zero", ErrNoRequirements)
	}

	raw, err := e.gw.CompleteWithRetry(ctx, buildPrompt(resumeText, reqs))
	if err != nil {
		return nil, fmt.Errorf("score resume: %w", err)
	}

	value, err := repair.Repair(raw, scoreSchema)
	if err != nil {
		return nil, fmt.Errorf("score resume: %w", err)
	}

	return Compute(reqs, alignScores(value, reqs)), nil
}

// Compute derives the ScoreResult from per-requirement 0-1 scores. It is
// exposed separately so a committed score can be re-derived from its
// breakdown during audits. Scores are clamped to [0,1]; requirements with
// non-positive weight contribute nothing.
func Compute(reqs []models.JobRequirement, scores []float64) *models.ScoreResult {
	result := &models.ScoreResult{
		Breakdown: make([]models.ScoredRequirement, 0, len(reqs)),
	}

	totalWeight := 0.0
	weightedSum := 0.0
	for i, r := range reqs {
		s := 0.0
		if i < len(scores) {
			s = clamp01(scores[i])
		}
		result.Breakdown = append(result.Breakdown, models.ScoredRequirement{
			Name:   r.Name,
			Weight: r.Weight,
			Score:  s,
		})
		if r.Weight > 0 {
			totalWeight += r.Weight
			weightedSum += r.Weight * s
		}
	}

	if totalWeight > 0 {
		result.Overall = math.Round(weightedSum/totalWeight*1000) / 10
	}
	return result
}

func buildPrompt(resumeText string, reqs []models.JobRequirement) string {
	var sb strings.Builder

	sb.WriteString("Rate how well the candidate below matches each job requirement, independently, on a 0 to 1 scale ")
	sb.WriteString("(0 = no evidence at all, 1 = strong direct evidence).\n\n")
	sb.WriteString("Requirements:\n")
	for _, r := range reqs {
		sb.WriteString(fmt.Sprintf("- %s\n", r.Name))
	}
	sb.WriteString("\nReturn ONLY a JSON object of the form\n")
	sb.WriteString(`{"scores":[{"requirement":"<requirement text>","score":0.0}]}` + "\n")
	sb.WriteString("with exactly one entry per requirement, in the order listed. No commentary, no code fences.\n\n")
	sb.WriteString("Resume text:\n\"\"\"\n")
	sb.WriteString(resumeText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// alignScores matches model entries to requirements by requirement text
// (case-insensitive) first, then by position for whatever remains. Absent
// requirements stay at the floor.
func alignScores(value map[string]interface{}, reqs []models.JobRequirement) []float64 {
	type entry struct {
		Requirement string  `json:"requirement"`
		Score       float64 `json:"score"`
	}
	var parsed struct {
		Scores []entry `json:"scores"`
	}
	// Round-trip through json: the repair layer hands back generic maps.
	if data, err := json.Marshal(value); err == nil {
		_ = json.Unmarshal(data, &parsed)
	}

	out := make([]float64, len(reqs))
	used := make([]bool, len(parsed.Scores))

	byName := make(map[string]int, len(reqs))
	for i, r := range reqs {
		byName[strings.ToLower(strings.TrimSpace(r.Name))] = i
	}

	matched := make([]bool, len(reqs))
	for j, e := range parsed.Scores {
		if i, ok := byName[strings.ToLower(strings.TrimSpace(e.Requirement))]; ok && !matched[i] {
			out[i] = e.Score
			matched[i] = true
			used[j] = true
		}
	}
	// Positional fallback for entries the name match did not claim.
	j := 0
	for i := range reqs {
		if matched[i] {
			continue
		}
		for j < len(parsed.Scores) && used[j] {
			j++
		}
		if j >= len(parsed.Scores) {
			break
		}
		out[i] = parsed.Scores[j].Score
		used[j] = true
		j++
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
