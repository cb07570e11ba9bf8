package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestParseAnalysis(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		got, err := parseAnalysis(`{
			"detectedPhase": "DVP",
			"detectedFields": [
				{"phase": "DVP", "field": "vision", "value": "X", "confidence": 0.95},
				{"phase": "DVP", "field": "audience", "value": null}
			],
			"suggestions": [{"type": "next_question", "description": "ask about goals", "confidence": 0.7}],
			"nextQuestion": "What are the goals?"
		}`)
		require.NoError(t, err)
		require.NotNil(t, got.DetectedPhase)
		assert.Equal(t, PhaseVision, *got.DetectedPhase)
		require.Len(t, got.DetectedFields, 2)
		assert.Equal(t, "vision", got.DetectedFields[0].Field)
		assert.Equal(t, "X", got.DetectedFields[0].Value)
		assert.Equal(t, 0.95, *got.DetectedFields[0].Confidence)
		assert.Nil(t, got.DetectedFields[1].Confidence)
		assert.Equal(t, "What are the goals?", got.NextQuestion)
	})

	t.Run("code fence", func(t *testing.T) {
		got, err := parseAnalysis("```json\n{\"detectedFields\": [], \"suggestions\": []}\n```")
		require.NoError(t, err)
		assert.Empty(t, got.DetectedFields)
		assert.Nil(t, got.DetectedPhase)
	})

	invalid := map[string]string{
		"not json":                  "Sure! The user talks about their vision.",
		"array":                     `[]`,
		"missing fields":            `{"suggestions": []}`,
		"fields not a list":         `{"detectedFields": {}, "suggestions": []}`,
		"missing suggestions":       `{"detectedFields": []}`,
		"field without value":       `{"detectedFields": [{"phase": "DVP", "field": "vision"}], "suggestions": []}`,
		"field without name":        `{"detectedFields": [{"phase": "DVP", "value": 1}], "suggestions": []}`,
		"field without phase":       `{"detectedFields": [{"field": "vision", "value": 1}], "suggestions": []}`,
		"string confidence":         `{"detectedFields": [{"phase": "DVP", "field": "vision", "value": 1, "confidence": "high"}], "suggestions": []}`,
		"unknown suggestion type":   `{"detectedFields": [], "suggestions": [{"type": "other", "description": "x", "confidence": 0.5}]}`,
		"suggestion w/o confidence": `{"detectedFields": [], "suggestions": [{"type": "validation", "description": "x"}]}`,
		"unknown phase":             `{"detectedPhase": "XYZ", "detectedFields": [], "suggestions": []}`,
		"numeric next question":     `{"detectedFields": [], "suggestions": [], "nextQuestion": 3}`,
	}
	for name, content := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := parseAnalysis(content)
			assert.Error(t, err)
		})
	}
}

func TestDefaultAnalysis(t *testing.T) {
	got := defaultAnalysis(PhaseArchitecture)
	require.NotNil(t, got.DetectedPhase)
	assert.Equal(t, PhaseArchitecture, *got.DetectedPhase)
	assert.Empty(t, got.DetectedFields)
	require.Len(t, got.Suggestions, 1)
	assert.Equal(t, SuggestionNextQuestion, got.Suggestions[0].Type)
	assert.NotEmpty(t, got.NextQuestion)
}

func TestScoreConfidence(t *testing.T) {
	tests := []struct {
		name   string
		fields []DetectedField
		want   float64
	}{
		{name: "no fields", want: 0.5},
		{name: "single", fields: []DetectedField{{Confidence: ptr(0.9)}}, want: 0.9},
		{name: "missing counts as zero", fields: []DetectedField{{Confidence: ptr(0.8)}, {}}, want: 0.4},
		{name: "clamped high", fields: []DetectedField{{Confidence: ptr(3)}}, want: 1},
		{name: "clamped low", fields: []DetectedField{{Confidence: ptr(-1)}}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreConfidence(tt.fields), 1e-9)
		})
	}
}

func TestApplyFieldUpdates(t *testing.T) {
	ctx := Context{
		CompletedFields: []string{"scope"},
		PendingFields:   []string{"vision", "audience", "scope"},
	}

	added := applyFieldUpdates(&ctx, []DetectedField{
		{Field: "vision", Confidence: ptr(0.95)},
		{Field: "audience", Confidence: ptr(0.6)},
		{Field: "budget", Confidence: ptr(0.8)},
		{Field: "scope", Confidence: ptr(0.99)},
		{Field: "risks"},
	})

	assert.Equal(t, []string{"vision"}, added)
	assert.Equal(t, []string{"scope", "vision"}, ctx.CompletedFields)
	assert.Equal(t, []string{"audience"}, ctx.PendingFields)

	added = applyFieldUpdates(&ctx, []DetectedField{{Field: "vision", Confidence: ptr(0.9)}})
	assert.Empty(t, added)
	assert.Equal(t, []string{"scope", "vision"}, ctx.CompletedFields, "completion is idempotent")
}

func TestLooksStructured(t *testing.T) {
	assert.True(t, looksStructured(`{"a":1}`))
	assert.True(t, looksStructured(`[1]`))
	assert.False(t, looksStructured(`Great, tell me more.`))
	assert.False(t, looksStructured(``))
}

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase(" dvp ")
	require.NoError(t, err)
	assert.Equal(t, PhaseVision, p)

	_, err = ParsePhase("nope")
	assert.ErrorIs(t, err, ErrInvalidPhase)
}
