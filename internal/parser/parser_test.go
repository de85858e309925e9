package parser

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentgate/careers/internal/llm"
)

type fakeCompleter struct {
	calls     int
	responses []string
	err       error
}

func (f *fakeCompleter) CompleteWithRetry(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

func TestParse_FullResume(t *testing.T) {
	gw := &fakeCompleter{responses: []string{`{
		"first_name": "Jane",
		"last_name": "Doe",
		"contact_info": {"email": "jane@x.com", "phone_number": "555-0100", "linkedin_profile": "linkedin.com/in/janedoe"},
		"latest_education": {"degree": "BSc", "school": "State University", "major": "CS", "graduate_year": 2020},
		"latest_work_experience": {"title": "Backend Engineer", "organization": "Acme"},
		"top_tags": ["Go", "PostgreSQL", "Kubernetes"]
	}`}}

	got, err := New(gw).Parse(context.Background(), "resume text")
	require.NoError(t, err)

	assert.Equal(t, "Jane", got.FirstName)
	assert.Equal(t, "jane@x.com", got.Contact.Email)
	require.NotNil(t, got.Education)
	assert.Equal(t, 2020, got.Education.GraduateYear)
	require.NotNil(t, got.Experience)
	assert.Equal(t, "Acme", got.Experience.Organization)
	assert.Equal(t, []string{"Go", "PostgreSQL", "Kubernetes"}, got.Tags)
}

func TestParse_MissingEducationIsAbsent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "education null",
			raw:  `{"first_name":"Jane","last_name":"Doe","contact_info":{"email":"jane@x.com"},"latest_education":null}`,
		},
		{
			name: "education omitted",
			raw:  `{"first_name":"Jane","last_name":"Doe","contact_info":{"email":"jane@x.com"}}`,
		},
		{
			name: "education all-empty",
			raw:  `{"first_name":"Jane","contact_info":{"email":"jane@x.com"},"latest_education":{"degree":"","school":"","major":""}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(&fakeCompleter{responses: []string{tt.raw}}).Parse(context.Background(), "text")
			require.NoError(t, err)
			assert.Nil(t, got.Education, "absent education must be nil, not a zero struct")
			assert.Nil(t, got.Experience)
		})
	}
}

func TestParse_TagsDedupedAndCapped(t *testing.T) {
	tags := `["Go","go","GO","SQL","Docker","K8s","AWS","gRPC","Kafka","Redis","Terraform","Linux","Git"]`
	raw := fmt.Sprintf(`{"first_name":"Jane","contact_info":{"email":"j@x.com"},"top_tags":%s}`, tags)

	got, err := New(&fakeCompleter{responses: []string{raw}}).Parse(context.Background(), "text")
	require.NoError(t, err)

	assert.Len(t, got.Tags, MaxTags)
	assert.Equal(t, "Go", got.Tags[0], "first occurrence wins on dedupe")
	assert.NotContains(t, got.Tags[1:], "go")
}

func TestParse_MalformedButRecoverable(t *testing.T) {
	raw := "Here is the parsed resume:\n```json\n{'first_name':'Jane','contact_info':{'email':'jane@x.com'},\n```"

	got, err := New(&fakeCompleter{responses: []string{raw}}).Parse(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FirstName)
}

func TestParse_UnparsableRetriesOnceThenFails(t *testing.T) {
	gw := &fakeCompleter{responses: []string{"no json here at all", "still nothing"}}

	_, err := New(gw).Parse(context.Background(), "text")
	assert.ErrorIs(t, err, ErrParseFailed)
	assert.Equal(t, 2, gw.calls)
}

func TestParse_UnparsableThenRecovered(t *testing.T) {
	gw := &fakeCompleter{responses: []string{
		"sorry, I cannot help with that",
		`{"first_name":"Jane","contact_info":{"email":"jane@x.com"}}`,
	}}

	got, err := New(gw).Parse(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FirstName)
}

func TestParse_GatewayFailure(t *testing.T) {
	gw := &fakeCompleter{err: fmt.Errorf("%w after 3 attempts", llm.ErrUnavailable)}

	_, err := New(gw).Parse(context.Background(), "text")
	assert.ErrorIs(t, err, ErrParseFailed)
}
