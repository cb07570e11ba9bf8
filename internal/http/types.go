package http

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the response body for GET /api/v1/status.
type StatusResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version,omitempty"`
	Counts  StatusCounts `json:"counts"`
}

// StatusCounts reports in-memory resource counts.
type StatusCounts struct {
	Conversations   int `json:"conversations"`
	CachedResponses int `json:"cached_responses"`
}

// StartConversationRequest is the body of POST /api/v1/conversations.
type StartConversationRequest struct {
	ProjectID string `json:"projectId"`
	Phase     string `json:"phase"`
}

// ProcessMessageRequest is the body of
// POST /api/v1/conversations/:projectId/messages.
type ProcessMessageRequest struct {
	Content string `json:"content"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
