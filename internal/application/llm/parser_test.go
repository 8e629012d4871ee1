package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "prose around object",
			raw:  `prefix {"riskLevel":"HIGH","summary":"x"} suffix`,
			want: `{"riskLevel":"HIGH","summary":"x"}`,
		},
		{
			name: "markdown fence",
			raw:  "```json\n{\"a\":1}\n```",
			want: `{"a":1}`,
		},
		{
			name: "nested objects keep outer boundary",
			raw:  `Here: {"a":{"b":2}} done`,
			want: `{"a":{"b":2}}`,
		},
		{
			name: "no braces returns trimmed text",
			raw:  "  not json  ",
			want: "not json",
		},
		{
			name: "closing before opening returns trimmed text",
			raw:  "} oops {",
			want: "} oops {",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.raw))
		})
	}
}

func TestDecode_ExtractsEmbeddedObject(t *testing.T) {
	advice, err := Decode[entities.ClinicalAdvice](`prefix {"riskLevel":"HIGH","summary":"x"} suffix`)

	require.NoError(t, err)
	assert.Equal(t, "HIGH", advice.RiskLevel)
	assert.Equal(t, "x", advice.Summary)
	assert.False(t, advice.Degraded)
}

func TestDecode_ToleratesUnknownAndMissingFields(t *testing.T) {
	warning, err := Decode[entities.EarlyWarning](`{"riskLevel":"LOW","confidence":0.9}`)

	require.NoError(t, err)
	assert.Equal(t, "LOW", warning.RiskLevel)
	assert.Empty(t, warning.Triggers)
	assert.Zero(t, warning.News2Score)
}

func TestDecode_MalformedResponse(t *testing.T) {
	for _, raw := range []string{"", "I cannot help with that.", `{"riskLevel": HIGH}`, `{"riskLevel":["a"]}`} {
		out, err := Decode[entities.ClinicalAdvice](raw)

		assert.Nil(t, out, raw)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, apperrors.ErrMalformedResponse), raw)
	}
}

func TestDecode_TrailingBraceWidensCandidate(t *testing.T) {
	// Trailing prose containing a brace widens the candidate past the object.
	raw := `{"summary":"ok"} note: see {ref}`
	_, err := Decode[entities.ClinicalAdvice](raw)

	assert.True(t, errors.Is(err, apperrors.ErrMalformedResponse))
}

func TestDecode_RejectsNonObjectJSON(t *testing.T) {
	for _, raw := range []string{"null", "  null\n", `"HIGH"`, "42", "true"} {
		out, err := Decode[entities.ClinicalAdvice](raw)

		assert.Nil(t, out, raw)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, apperrors.ErrMalformedResponse), raw)
	}
}
