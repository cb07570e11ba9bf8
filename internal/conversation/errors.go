package conversation

import "errors"

var (
	// ErrNotFound is returned when no conversation is registered for a project.
	ErrNotFound = errors.New("conversation not found")

	// ErrInitializationFailed is returned when the welcome turn could not be generated.
	ErrInitializationFailed = errors.New("conversation initialization failed")

	// ErrInvalidAssistantResponse is returned when the reply is empty or looks
	// like structured data instead of prose.
	ErrInvalidAssistantResponse = errors.New("invalid assistant response")

	// ErrInvalidPhase is returned for an unknown phase code.
	ErrInvalidPhase = errors.New("invalid phase")

	// ErrEmptyProjectID is returned when a project id is blank.
	ErrEmptyProjectID = errors.New("project id cannot be empty")

	// ErrEmptyContent is returned when a user message is blank.
	ErrEmptyContent = errors.New("message content cannot be empty")
)
