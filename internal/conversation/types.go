package conversation

import (
	"fmt"
	"strings"
	"time"
)

// Phase is a documentation phase.
type Phase string

const (
	// PhaseVision is the project vision document.
	PhaseVision Phase = "DVP"
	// PhaseRequirements is the software requirements document.
	PhaseRequirements Phase = "DRS"
	// PhaseArchitecture is the software architecture document.
	PhaseArchitecture Phase = "DAS"
	// PhaseIntegration is the API and integration design document.
	PhaseIntegration Phase = "DADI"
)

// Phases lists every phase in documentation order.
var Phases = []Phase{PhaseVision, PhaseRequirements, PhaseArchitecture, PhaseIntegration}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseVision, PhaseRequirements, PhaseArchitecture, PhaseIntegration:
		return true
	}
	return false
}

// Title returns a human readable phase name.
func (p Phase) Title() string {
	switch p {
	case PhaseVision:
		return "project vision"
	case PhaseRequirements:
		return "software requirements"
	case PhaseArchitecture:
		return "software architecture"
	case PhaseIntegration:
		return "API and integration design"
	}
	return string(p)
}

// ParsePhase parses a phase code, case-insensitively.
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhase, s)
	}
	return p, nil
}

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SuggestionType enumerates analysis suggestion kinds.
type SuggestionType string

const (
	SuggestionFieldUpdate  SuggestionType = "field_update"
	SuggestionNextQuestion SuggestionType = "next_question"
	SuggestionValidation   SuggestionType = "validation"
)

// Valid reports whether t is a known suggestion type.
func (t SuggestionType) Valid() bool {
	switch t {
	case SuggestionFieldUpdate, SuggestionNextQuestion, SuggestionValidation:
		return true
	}
	return false
}

// DetectedField is a field value the model extracted from a message.
type DetectedField struct {
	Phase      string   `json:"phase"`
	Field      string   `json:"field"`
	Value      any      `json:"value"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Suggestion is a follow-up proposed by the analysis step.
type Suggestion struct {
	Type        SuggestionType `json:"type"`
	Description string         `json:"description"`
	Confidence  float64        `json:"confidence"`
}

// ContextAnalysis is the structured reading of a user message.
type ContextAnalysis struct {
	DetectedPhase  *Phase          `json:"detectedPhase,omitempty"`
	DetectedFields []DetectedField `json:"detectedFields"`
	Suggestions    []Suggestion    `json:"suggestions"`
	NextQuestion   string          `json:"nextQuestion,omitempty"`
}

// MessageContext annotates a chat message.
type MessageContext struct {
	ProjectID      string          `json:"projectId"`
	Phase          Phase           `json:"phase"`
	Confidence     *float64        `json:"confidence,omitempty"`
	DetectedFields []DetectedField `json:"detectedFields,omitempty"`
	Suggestions    []Suggestion    `json:"suggestions,omitempty"`
}

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	ID        string          `json:"id"`
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Context   *MessageContext `json:"context,omitempty"`
}

// Context tracks documentation progress for a conversation.
type Context struct {
	CompletedFields []string         `json:"completedFields"`
	PendingFields   []string         `json:"pendingFields"`
	LastQuestion    string           `json:"lastQuestion,omitempty"`
	LastAnalysis    *ContextAnalysis `json:"lastAnalysis,omitempty"`
}

// State is the full conversation for one project.
type State struct {
	ProjectID    string        `json:"projectId"`
	Messages     []ChatMessage `json:"messages"`
	CurrentPhase Phase         `json:"currentPhase"`
	Context      Context       `json:"context"`
}

// newState returns an empty conversation.
func newState(projectID string, phase Phase) *State {
	return &State{
		ProjectID:    projectID,
		Messages:     []ChatMessage{},
		CurrentPhase: phase,
		Context: Context{
			CompletedFields: []string{},
			PendingFields:   []string{},
		},
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = make([]ChatMessage, len(s.Messages))
	for i, m := range s.Messages {
		out.Messages[i] = m.Clone()
	}
	out.Context.CompletedFields = append([]string{}, s.Context.CompletedFields...)
	out.Context.PendingFields = append([]string{}, s.Context.PendingFields...)
	out.Context.LastAnalysis = s.Context.LastAnalysis.Clone()
	return &out
}

// Clone returns a deep copy of the message.
func (m ChatMessage) Clone() ChatMessage {
	if m.Context != nil {
		ctx := *m.Context
		ctx.Confidence = cloneFloat(m.Context.Confidence)
		ctx.DetectedFields = cloneFields(m.Context.DetectedFields)
		ctx.Suggestions = append([]Suggestion(nil), m.Context.Suggestions...)
		m.Context = &ctx
	}
	return m
}

// Clone returns a deep copy of the analysis.
func (a *ContextAnalysis) Clone() *ContextAnalysis {
	if a == nil {
		return nil
	}
	out := *a
	if a.DetectedPhase != nil {
		p := *a.DetectedPhase
		out.DetectedPhase = &p
	}
	out.DetectedFields = cloneFields(a.DetectedFields)
	out.Suggestions = append([]Suggestion{}, a.Suggestions...)
	return &out
}

// cloneFields copies field slices. Values decoded from JSON are treated as
// immutable and shared.
func cloneFields(in []DetectedField) []DetectedField {
	if in == nil {
		return nil
	}
	out := make([]DetectedField, len(in))
	for i, f := range in {
		f.Confidence = cloneFloat(f.Confidence)
		out[i] = f
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
