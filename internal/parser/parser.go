// Package parser turns raw resume text into a structured ParsedResume via
// one model call and the repair layer.
package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/talentgate/careers/internal/models"
	"github.com/talentgate/careers/internal/repair"
)

// ErrParseFailed means the resume could not be read automatically even
// after the retry budget; callers degrade to manual field entry and never
// block the applicant on it.
var ErrParseFailed = errors.New("resume parse failed")

const (
	// MaxTags bounds the tag list so downstream rendering stays bounded.
	MaxTags = 10

	// parseAttempts re-prompts once when the model returns something the
	// repair layer cannot recover. Transport retries live in the gateway.
	parseAttempts = 2
)

// resumeSchema is the minimum contract a usable parse must satisfy: a name
// and a reachable email. Everything else may be absent or null.
const resumeSchema = `{
	"type": "object",
	"required": ["first_name", "contact_info"],
	"properties": {
		"first_name": {"type": "string", "minLength": 1},
		"last_name":  {"type": ["string", "null"]},
		"contact_info": {
			"type": "object",
			"required": ["email"],
			"properties": {
				"email":            {"type": "string", "minLength": 3},
				"phone_number":     {"type": ["string", "null"]},
				"linkedin_profile": {"type": ["string", "null"]}
			}
		},
		"latest_education": {
			"type": ["object", "null"],
			"properties": {
				"degree":        {"type": ["string", "null"]},
				"school":        {"type": ["string", "null"]},
				"major":         {"type": ["string", "null"]},
				"graduate_year": {"type": ["integer", "null"]}
			}
		},
		"latest_work_experience": {
			"type": ["object", "null"],
			"properties": {
				"title":        {"type": ["string", "null"]},
				"organization": {"type": ["string", "null"]}
			}
		},
		"top_tags": {"type": ["array", "null"], "items": {"type": "string"}}
	}
}`

// Completer is the slice of the LLM gateway the parser consumes.
type Completer interface {
	CompleteWithRetry(ctx context.Context, prompt string) (string, error)
}

// Parser extracts structured fields from resume text.
type Parser struct {
	gw Completer
}

func New(gw Completer) *Parser {
	return &Parser{gw: gw}
}

// Parse produces an immutable ParsedResume from resume text, or
// ErrParseFailed when the model's output stays unusable after retries.
func (p *Parser) Parse(ctx context.Context, resumeText string) (*models.ParsedResume, error) {
	prompt := buildPrompt(resumeText)

	var lastErr error
	for attempt := 0; attempt < parseAttempts; attempt++ {
		raw, err := p.gw.CompleteWithRetry(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
		}

		value, err := repair.Repair(raw, resumeSchema)
		if err == nil {
			return mapResume(value)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrParseFailed, lastErr)
}

func buildPrompt(resumeText string) string {
	var sb strings.Builder

	sb.WriteString("Parse the following resume and return a single JSON object with exactly these keys:\n")
	sb.WriteString(`"first_name" (string), "last_name" (string), ` + "\n")
	sb.WriteString(`"contact_info" (object with "email", "phone_number", "linkedin_profile"),` + "\n")
	sb.WriteString(`"latest_education" (object with "degree", "school", "major", "graduate_year" for the most recent education, or null if the resume lists none),` + "\n")
	sb.WriteString(`"latest_work_experience" (object with "title", "organization" for the most recent position, or null),` + "\n")
	sb.WriteString(`"top_tags" (list of up to 10 short strings: the skills or achievements most likely to differentiate this candidate, most relevant first).` + "\n\n")
	sb.WriteString("Use null for any value not present in the resume. Do not guess or invent values.\n")
	sb.WriteString("Return ONLY the JSON object, no commentary, no code fences.\n\n")
	sb.WriteString("Resume text:\n\"\"\"\n")
	sb.WriteString(resumeText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// llmResume mirrors the prompt's JSON shape.
type llmResume struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Contact   struct {
		Email    string `json:"email"`
		Phone    string `json:"phone_number"`
		LinkedIn string `json:"linkedin_profile"`
	} `json:"contact_info"`
	Education *struct {
		Degree string `json:"degree"`
		School string `json:"school"`
		Major  string `json:"major"`
		Year   int    `json:"graduate_year"`
	} `json:"latest_education"`
	Experience *struct {
		Title        string `json:"title"`
		Organization string `json:"organization"`
	} `json:"latest_work_experience"`
	Tags []string `json:"top_tags"`
}

// mapResume converts a schema-validated repair value into the domain type,
// normalizing whitespace and collapsing empty sub-objects to absent.
func mapResume(value map[string]interface{}) (*models.ParsedResume, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	var lr llmResume
	if err := json.Unmarshal(data, &lr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	parsed := &models.ParsedResume{
		FirstName: strings.TrimSpace(lr.FirstName),
		LastName:  strings.TrimSpace(lr.LastName),
		Contact: models.Contact{
			Email:    strings.TrimSpace(lr.Contact.Email),
			Phone:    strings.TrimSpace(lr.Contact.Phone),
			LinkedIn: strings.TrimSpace(lr.Contact.LinkedIn),
		},
		Tags: normalizeTags(lr.Tags),
	}

	if lr.Education != nil {
		edu := models.Education{
			Degree:       strings.TrimSpace(lr.Education.Degree),
			School:       strings.TrimSpace(lr.Education.School),
			Major:        strings.TrimSpace(lr.Education.Major),
			GraduateYear: lr.Education.Year,
		}
		if edu != (models.Education{}) {
			parsed.Education = &edu
		}
	}
	if lr.Experience != nil {
		exp := models.Experience{
			Title:        strings.TrimSpace(lr.Experience.Title),
			Organization: strings.TrimSpace(lr.Experience.Organization),
		}
		if exp != (models.Experience{}) {
			parsed.Experience = &exp
		}
	}
	return parsed, nil
}

// normalizeTags trims, deduplicates case-insensitively preserving first
// occurrence order, and truncates to MaxTags.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}
