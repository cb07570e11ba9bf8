package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/docent/internal/conversation"
	"github.com/fyrsmithlabs/docent/internal/llm"
)

// Error kinds reported in ErrorResponse.Kind besides the llm.Kind values.
const (
	kindInvalidRequest   = "invalid_request"
	kindNotFound         = "not_found"
	kindInvalidResponse  = "invalid_response"
	kindInternal         = "internal"
	kindRouteNotFound    = "route_not_found"
	kindMethodNotAllowed = "method_not_allowed"
)

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// errorResponse maps an error to its status and body: bad input is 400, an
// unknown conversation 404, an upstream rate limit 429, anything else 500.
func errorResponse(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, ErrorResponse{Error: fmt.Sprint(he.Message), Kind: httpErrorKind(he.Code)}
	}

	switch {
	case errors.Is(err, conversation.ErrEmptyProjectID),
		errors.Is(err, conversation.ErrEmptyContent),
		errors.Is(err, conversation.ErrInvalidPhase):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: kindInvalidRequest}
	case errors.Is(err, conversation.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: kindNotFound}
	case errors.Is(err, conversation.ErrInvalidAssistantResponse):
		return http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Kind: kindInvalidResponse}
	}

	if le, ok := llm.AsError(err); ok {
		status := http.StatusInternalServerError
		if le.Kind == llm.KindRateLimit {
			status = http.StatusTooManyRequests
		}
		return status, ErrorResponse{Error: err.Error(), Kind: string(le.Kind)}
	}

	return http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Kind: kindInternal}
}

func httpErrorKind(code int) string {
	switch code {
	case http.StatusNotFound:
		return kindRouteNotFound
	case http.StatusMethodNotAllowed:
		return kindMethodNotAllowed
	case http.StatusBadRequest:
		return kindInvalidRequest
	}
	if code >= http.StatusInternalServerError {
		return kindInternal
	}
	return http.StatusText(code)
}
