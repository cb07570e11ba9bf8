package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docent/internal/llm"
)

const instrumentationName = "github.com/fyrsmithlabs/docent/internal/conversation"

// Model is the single call primitive the orchestrator needs from the model
// client. *llm.Client implements it.
type Model interface {
	Send(ctx context.Context, messages []llm.Message, system string) (*llm.Response, error)
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the clock used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTracer replaces the tracer used for orchestration spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// Service orchestrates documentation conversations: it runs the
// analyze-then-respond exchange with the model and tracks field completion.
type Service struct {
	model  Model
	store  *Store
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewService creates a conversation service.
func NewService(model Model, store *Store, logger *zap.Logger, opts ...Option) (*Service, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	if store == nil {
		store = NewStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		model:  model,
		store:  store,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// StartConversation registers a conversation whose first turn is a welcome
// message generated by the model. Nothing is registered if that call fails,
// so retrying is safe. An existing conversation for the project is replaced.
func (s *Service) StartConversation(ctx context.Context, projectID string, phase Phase) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.start")
	defer span.End()

	span.SetAttributes(
		attribute.String("project_id", projectID),
		attribute.String("phase", string(phase)),
	)

	if strings.TrimSpace(projectID) == "" {
		return nil, ErrEmptyProjectID
	}
	if !phase.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPhase, phase)
	}

	state := newState(projectID, phase)

	resp, err := s.model.Send(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: welcomeUserPrompt(projectID, phase)},
	}, welcomeSystemPrompt(phase))
	if err != nil {
		ConversationsStarted.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("failed to start conversation",
			zap.String("project_id", projectID),
			zap.String("phase", string(phase)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInitializationFailed, err)
	}

	state.Messages = append(state.Messages, s.newMessage(RoleAssistant, resp.Content, &MessageContext{
		ProjectID: projectID,
		Phase:     phase,
	}))
	s.store.Put(state)

	ConversationsStarted.WithLabelValues("success").Inc()
	s.logger.Info("conversation started",
		zap.String("project_id", projectID),
		zap.String("phase", string(phase)))

	return state, nil
}

// ProcessMessage runs one user turn: analyze the message, generate a reply,
// update field completion and commit both turns. On any returned error the
// stored conversation is unchanged.
func (s *Service) ProcessMessage(ctx context.Context, projectID, content string) (*ChatMessage, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.process")
	defer span.End()

	span.SetAttributes(attribute.String("project_id", projectID))

	msg, err := s.processMessage(ctx, projectID, content)
	if err != nil {
		MessagesProcessed.WithLabelValues(processResult(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	MessagesProcessed.WithLabelValues("success").Inc()
	return msg, nil
}

func (s *Service) processMessage(ctx context.Context, projectID, content string) (*ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	state, ok := s.store.Get(projectID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, projectID)
	}
	phase := state.CurrentPhase
	logger := s.logger.With(zap.String("project_id", projectID), zap.String("phase", string(phase)))

	userMsg := s.newMessage(RoleUser, content, &MessageContext{ProjectID: projectID, Phase: phase})
	turns := append(modelMessages(state.Messages), llm.Message{Role: llm.RoleUser, Content: content})

	analysis, err := s.analyze(ctx, turns, phase, logger)
	if err != nil {
		return nil, err
	}

	serialized, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("encoding analysis: %w", err)
	}

	respondTurns := append(append([]llm.Message{}, turns...), llm.Message{
		Role:    llm.RoleAssistant,
		Content: analysisTurn(string(serialized)),
	})
	reply, err := s.model.Send(ctx, respondTurns, responseSystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}
	if reply.Content == "" || looksStructured(reply.Content) {
		logger.Warn("model replied with structured data instead of prose",
			zap.Int("length", len(reply.Content)))
		return nil, ErrInvalidAssistantResponse
	}

	confidence := scoreConfidence(analysis.DetectedFields)
	ResponseConfidence.Observe(confidence)

	assistantMsg := s.newMessage(RoleAssistant, reply.Content, &MessageContext{
		ProjectID:      projectID,
		Phase:          phase,
		Confidence:     &confidence,
		DetectedFields: analysis.DetectedFields,
		Suggestions:    analysis.Suggestions,
	})

	var completed []string
	err = s.store.Update(projectID, func(st *State) error {
		completed = applyFieldUpdates(&st.Context, analysis.DetectedFields)
		st.Messages = append(st.Messages, userMsg.Clone(), assistantMsg.Clone())
		st.Context.LastAnalysis = analysis.Clone()
		if analysis.NextQuestion != "" {
			st.Context.LastQuestion = analysis.NextQuestion
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, projectID)
	}

	FieldsCompleted.Add(float64(len(completed)))
	logger.Debug("message processed",
		zap.Float64("confidence", confidence),
		zap.Int("detected_fields", len(analysis.DetectedFields)),
		zap.Strings("completed_fields", completed))

	return &assistantMsg, nil
}

// analyze asks the model for a ContextAnalysis. An unusable reply is replaced
// by the default analysis; a failed call is returned.
func (s *Service) analyze(ctx context.Context, turns []llm.Message, phase Phase, logger *zap.Logger) (*ContextAnalysis, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.analyze")
	defer span.End()

	resp, err := s.model.Send(ctx, turns, analysisSystemPrompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("analyzing message: %w", err)
	}

	analysis, err := parseAnalysis(resp.Content)
	if err != nil {
		AnalysisFallbacks.Inc()
		span.SetAttributes(attribute.Bool("analysis.fallback", true))
		logger.Warn("unusable analysis reply, using default analysis", zap.Error(err))
		return defaultAnalysis(phase), nil
	}

	span.SetAttributes(attribute.Int("analysis.detected_fields", len(analysis.DetectedFields)))
	return analysis, nil
}

// Conversation returns a snapshot of the conversation for projectID.
func (s *Service) Conversation(projectID string) (*State, error) {
	state, ok := s.store.Get(projectID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, projectID)
	}
	return state, nil
}

func (s *Service) newMessage(role Role, content string, mctx *MessageContext) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: s.now().UTC(),
		Context:   mctx,
	}
}

func modelMessages(history []ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(history)+2)
	for _, m := range history {
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func processResult(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidAssistantResponse):
		return "invalid_response"
	case errors.Is(err, ErrEmptyContent):
		return "invalid_request"
	}
	return "error"
}
