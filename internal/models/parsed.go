package models

// ParsedResume is the structured snapshot the resume parser extracts from
// raw resume text. It is a value produced once by the parser and never
// mutated afterwards; review-time corrections live in the session's edit
// overlay and are merged into ApplicantFields at confirm.
//
// Empty scalar fields mean "absent". Education and Experience are nil when
// the resume carried no usable entry at all, never zero-filled structs.
type ParsedResume struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Contact   Contact `json:"contact"`

	Education  *Education  `json:"education,omitempty"`
	Experience *Experience `json:"experience,omitempty"`

	// Tags are ordered by relevance as returned by the model, deduplicated
	// case-insensitively and capped by the parser.
	Tags []string `json:"tags"`
}

// Contact holds the applicant's contact details. Name and email are the
// only fields the parse schema requires.
type Contact struct {
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// Education is the latest education entry found on the resume.
type Education struct {
	Degree       string `json:"degree,omitempty"`
	School       string `json:"school,omitempty"`
	Major        string `json:"major,omitempty"`
	GraduateYear int    `json:"graduate_year,omitempty"`
}

// Experience is the latest work experience entry found on the resume.
type Experience struct {
	Title        string `json:"title,omitempty"`
	Organization string `json:"organization,omitempty"`
}

// ScoredRequirement is one requirement's contribution to a score: the
// model-assigned match score on a 0-1 scale plus the posting's weight.
type ScoredRequirement struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
}

// ScoreResult is the scoring engine's output. Overall is the weighted mean
// of the breakdown scores scaled to 0-100; it is recomputable from the
// breakdown alone and is never taken verbatim from the model.
type ScoreResult struct {
	Overall   float64             `json:"overall"`
	Breakdown []ScoredRequirement `json:"breakdown"`
}

// ApplicantFields is the flat, review-edited field set committed to the
// Applicant row at confirm time. It is the merge of a ParsedResume with the
// session's edit overlay.
type ApplicantFields struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	LinkedIn  string `json:"linkedin"`

	Degree       string `json:"degree"`
	School       string `json:"school"`
	Major        string `json:"major"`
	GraduateYear int    `json:"graduate_year"`

	CurrentTitle string `json:"current_title"`
	Organization string `json:"organization"`

	Tags []string `json:"tags"`
}

// FieldsFromParsed flattens a ParsedResume into editable applicant fields.
// A nil resume yields the zero value, which is the manual-entry starting
// point when parsing failed.
func FieldsFromParsed(p *ParsedResume) ApplicantFields {
	if p == nil {
		return ApplicantFields{}
	}
	f := ApplicantFields{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Contact.Email,
		Phone:     p.Contact.Phone,
		LinkedIn:  p.Contact.LinkedIn,
		Tags:      append([]string(nil), p.Tags...),
	}
	if p.Education != nil {
		f.Degree = p.Education.Degree
		f.School = p.Education.School
		f.Major = p.Education.Major
		f.GraduateYear = p.Education.GraduateYear
	}
	if p.Experience != nil {
		f.CurrentTitle = p.Experience.Title
		f.Organization = p.Experience.Organization
	}
	return f
}
