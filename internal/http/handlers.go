package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docent/internal/conversation"
)

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleStatus(c echo.Context) error {
	resp := StatusResponse{Status: "ok", Version: s.config.Version}
	if s.counts != nil {
		resp.Counts = s.counts()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStartConversation(c echo.Context) error {
	var req StartConversationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if strings.TrimSpace(req.ProjectID) == "" {
		return badRequest("projectId is required")
	}
	if req.Phase == "" {
		return badRequest("phase is required")
	}
	phase, err := conversation.ParsePhase(req.Phase)
	if err != nil {
		return err
	}

	state, err := s.conversations.StartConversation(c.Request().Context(), req.ProjectID, phase)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, state)
}

func (s *Server) handleGetConversation(c echo.Context) error {
	state, err := s.conversations.Conversation(c.Param("projectId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

func (s *Server) handleProcessMessage(c echo.Context) error {
	var req ProcessMessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	msg, err := s.conversations.ProcessMessage(c.Request().Context(), c.Param("projectId"), req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msg)
}

// handleError renders every error as an ErrorResponse.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("kind", body.Kind),
			zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.logger.Warn("failed to write error response", zap.Error(err))
	}
}
