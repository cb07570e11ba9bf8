package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// CompletionThreshold is the confidence above which a detected field counts
// as completed.
const CompletionThreshold = 0.8

// defaultConfidence is reported when an analysis detected no fields.
const defaultConfidence = 0.5

const (
	fallbackSuggestion = "Ask the user to clarify or expand on their last message"
	fallbackQuestion   = "Could you tell me a bit more about that?"
)

// defaultAnalysis is substituted when the analysis reply cannot be used.
func defaultAnalysis(phase Phase) *ContextAnalysis {
	p := phase
	return &ContextAnalysis{
		DetectedPhase:  &p,
		DetectedFields: []DetectedField{},
		Suggestions: []Suggestion{{
			Type:        SuggestionNextQuestion,
			Description: fallbackSuggestion,
			Confidence:  defaultConfidence,
		}},
		NextQuestion: fallbackQuestion,
	}
}

// parseAnalysis decodes and shape-checks a model reply.
func parseAnalysis(content string) (*ContextAnalysis, error) {
	content = stripCodeFence(content)

	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("decoding analysis: %w", err)
	}
	if err := checkAnalysisShape(raw); err != nil {
		return nil, err
	}

	var analysis ContextAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("decoding analysis: %w", err)
	}
	return &analysis, nil
}

// stripCodeFence removes a surrounding markdown code block.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

var errShape = errors.New("analysis has unexpected shape")

func checkAnalysisShape(raw map[string]any) error {
	fields, ok := raw["detectedFields"].([]any)
	if !ok {
		return fmt.Errorf("%w: detectedFields is not a list", errShape)
	}
	suggestions, ok := raw["suggestions"].([]any)
	if !ok {
		return fmt.Errorf("%w: suggestions is not a list", errShape)
	}

	for i, item := range fields {
		f, ok := item.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: detectedFields[%d] is not an object", errShape, i)
		}
		if _, ok := f["phase"].(string); !ok {
			return fmt.Errorf("%w: detectedFields[%d].phase", errShape, i)
		}
		if name, ok := f["field"].(string); !ok || name == "" {
			return fmt.Errorf("%w: detectedFields[%d].field", errShape, i)
		}
		if _, ok := f["value"]; !ok {
			return fmt.Errorf("%w: detectedFields[%d].value", errShape, i)
		}
		if c, ok := f["confidence"]; ok && c != nil {
			if _, ok := c.(float64); !ok {
				return fmt.Errorf("%w: detectedFields[%d].confidence", errShape, i)
			}
		}
	}

	for i, item := range suggestions {
		s, ok := item.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: suggestions[%d] is not an object", errShape, i)
		}
		typ, _ := s["type"].(string)
		if !SuggestionType(typ).Valid() {
			return fmt.Errorf("%w: suggestions[%d].type %q", errShape, i, typ)
		}
		if _, ok := s["confidence"].(float64); !ok {
			return fmt.Errorf("%w: suggestions[%d].confidence", errShape, i)
		}
		if d, ok := s["description"]; ok && d != nil {
			if _, ok := d.(string); !ok {
				return fmt.Errorf("%w: suggestions[%d].description", errShape, i)
			}
		}
	}

	if p, ok := raw["detectedPhase"]; ok && p != nil {
		code, _ := p.(string)
		if !Phase(code).Valid() {
			return fmt.Errorf("%w: detectedPhase %v", errShape, p)
		}
	}
	if q, ok := raw["nextQuestion"]; ok && q != nil {
		if _, ok := q.(string); !ok {
			return fmt.Errorf("%w: nextQuestion", errShape)
		}
	}
	return nil
}

// scoreConfidence averages field confidences, counting missing values as 0.
func scoreConfidence(fields []DetectedField) float64 {
	if len(fields) == 0 {
		return defaultConfidence
	}
	var sum float64
	for _, f := range fields {
		if f.Confidence != nil {
			sum += *f.Confidence
		}
	}
	return min(max(sum/float64(len(fields)), 0), 1)
}

// applyFieldUpdates marks confidently detected fields as completed. It
// returns the names newly added to CompletedFields.
func applyFieldUpdates(ctx *Context, fields []DetectedField) []string {
	var added []string
	for _, f := range fields {
		if f.Confidence == nil || *f.Confidence <= CompletionThreshold {
			continue
		}
		if !slices.Contains(ctx.CompletedFields, f.Field) {
			ctx.CompletedFields = append(ctx.CompletedFields, f.Field)
			added = append(added, f.Field)
		}
		ctx.PendingFields = slices.DeleteFunc(ctx.PendingFields, func(p string) bool {
			return p == f.Field
		})
	}
	return added
}

// looksStructured reports a reply that starts like JSON rather than prose.
func looksStructured(content string) bool {
	return strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[")
}
