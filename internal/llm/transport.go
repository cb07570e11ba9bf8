package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Transport defaults.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultTimeout   = 30 * time.Second
	anthropicVersion = "2023-06-01"
	messagesPath     = "/v1/messages"

	// maxResponseBytes bounds how much of an upstream body is read.
	maxResponseBytes = 4 << 20
)

// transport performs exactly one POST to the messages endpoint. It does not
// retry or cache; those are middlewares.
type transport struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	classifier *Classifier
}

func newTransport(baseURL, apiKey string, httpClient *http.Client, classifier *Classifier) *transport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &transport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		classifier: classifier,
	}
}

// Send implements Sender.
func (t *transport) Send(ctx context.Context, req *Request) (*Response, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, NewError(KindValidation, "model API error: invalid message format", Metadata{
			Code:      CodeValidation,
			Status:    http.StatusBadRequest,
			Timestamp: t.classifier.now(),
		}).WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+messagesPath, bytes.NewReader(jsonData))
	if err != nil {
		return nil, NewError(KindUnknown, "model API error: failed to create request", Metadata{
			Code:      CodeUnknown,
			Status:    http.StatusInternalServerError,
			Timestamp: t.classifier.now(),
		}).WithCause(err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", t.apiKey)
	httpReq.Header.Set("Anthropic-Version", anthropicVersion)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, t.classifier.Classify(&Failure{Err: err})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		// The connection broke mid-body; no usable response was received.
		return nil, t.classifier.Classify(&Failure{Err: fmt.Errorf("failed to read response: %w", err)})
	}

	payload := decodePayload(body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, t.classifier.Classify(&Failure{
			Err:      fmt.Errorf("upstream status %d", resp.StatusCode),
			Response: &RawResponse{Status: resp.StatusCode, Body: payload},
		})
	}

	if result := Validate(payload); !result.Valid {
		return nil, NewError(KindResponse, result.Reason, Metadata{
			Code:      CodeInvalidResponse,
			Status:    resp.StatusCode,
			Timestamp: t.classifier.now(),
		})
	}

	return ExtractResponse(payload), nil
}
