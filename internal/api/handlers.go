package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/civicai/portal/adapters/memory"
	"github.com/civicai/portal/domain/entities"
	"github.com/civicai/portal/internal/dialogue"
	"github.com/civicai/portal/usecase"
)

// login simulates the citizen identity flow: any citizen id receives a
// scoped session token. There is no account store behind it.
func (s *Server) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}
	if req.CitizenID == "" {
		return badRequest(c, "citizen_id is required")
	}

	token, err := s.authenticator.GenerateCitizenToken(req.CitizenID)
	if err != nil {
		s.logger.Error("Failed to generate citizen token",
			zap.String(citizenIDKey, req.CitizenID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate session token",
		})
	}

	s.logger.Info("Citizen logged in", zap.String(citizenIDKey, req.CitizenID))
	return c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CitizenID: req.CitizenID,
	})
}

func (s *Server) assistantAsk(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}
	if req.Question == "" {
		return badRequest(c, "question is required")
	}

	conv := entities.Conversation{Messages: req.History}
	msg, err := s.assistant.Ask(c.Request().Context(), &conv, req.Question)
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, AskResponse{Message: msg})
}

func (s *Server) analyzeForm(c echo.Context) error {
	var req AnalyzeFormRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}

	analysis, err := s.forms.Analyze(c.Request().Context(), req.FormText)
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyFormText) {
			return badRequest(c, "form_text is required")
		}
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, analysis)
}

func (s *Server) submitRequest(c echo.Context) error {
	var req SubmitRequestRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}

	request, err := s.requests.Submit(c.Request().Context(), req.Subject)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(http.StatusCreated, request)
}

func (s *Server) listRequests(c echo.Context) error {
	list, err := s.requests.List(c.Request().Context())
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) getRequest(c echo.Context) error {
	request, err := s.requests.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, memory.ErrRequestNotFound) {
			return notFound(c, "Request not found")
		}
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, request)
}

func (s *Server) classifyRequest(c echo.Context) error {
	request, err := s.requests.Classify(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, memory.ErrRequestNotFound) {
			return notFound(c, "Request not found")
		}
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, request)
}

func (s *Server) processRequest(c echo.Context) error {
	request, err := s.requests.Process(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, memory.ErrRequestNotFound) {
			return notFound(c, "Request not found")
		}
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, request)
}

func (s *Server) extractProfile(c echo.Context) error {
	var req ExtractProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return badRequest(c, "image must be base64 encoded")
	}
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	profile, err := s.profile.ExtractFromImage(c.Request().Context(), image, mimeType)
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyImage) {
			return badRequest(c, "image is required")
		}
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (s *Server) profileAsk(c echo.Context) error {
	var req ProfileAskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}
	if req.Question == "" {
		return badRequest(c, "question is required")
	}

	answer, err := s.profile.Ask(c.Request().Context(), req.Profile, req.Question)
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, ProfileAskResponse{Answer: answer})
}

func (s *Server) listServices(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{
		"services": s.services.Names(),
	})
}

func (s *Server) serviceDetail(c echo.Context) error {
	detail, err := s.services.Detail(c.Request().Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownService) {
			return notFound(c, "Unknown service")
		}
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) predictRejection(c echo.Context) error {
	var req PredictRejectionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}
	if req.ApplicationSummary == "" {
		return badRequest(c, "application_summary is required")
	}

	prediction, err := s.services.PredictRejection(c.Request().Context(), c.Param("name"), req.ApplicationSummary)
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownService) {
			return notFound(c, "Unknown service")
		}
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, prediction)
}

func (s *Server) createDialogue(c echo.Context) error {
	engine := s.dialogues.Create()
	return c.JSON(http.StatusCreated, dialogueState(engine))
}

func (s *Server) getDialogue(c echo.Context) error {
	engine, err := s.dialogues.Get(c.Param("id"))
	if err != nil {
		return notFound(c, "Dialogue not found")
	}
	return c.JSON(http.StatusOK, dialogueState(engine))
}

func (s *Server) dialogueTurn(c echo.Context) error {
	engine, err := s.dialogues.Get(c.Param("id"))
	if err != nil {
		return notFound(c, "Dialogue not found")
	}

	var req DialogueTurnRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}
	if req.Message == "" {
		return badRequest(c, "message is required")
	}

	msg, complete, err := engine.Turn(c.Request().Context(), req.Message)
	if err != nil {
		if errors.Is(err, dialogue.ErrTurnInFlight) {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "turn_in_flight",
				Message: "The previous turn is still being answered",
			})
		}
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, DialogueTurnResponse{Message: msg, Complete: complete})
}

func (s *Server) dialogueDraft(c echo.Context) error {
	engine, err := s.dialogues.Get(c.Param("id"))
	if err != nil {
		return notFound(c, "Dialogue not found")
	}

	draft, ok := engine.Draft()
	if !ok {
		return notFound(c, "Dialogue has not completed yet")
	}
	return c.JSON(http.StatusOK, draft)
}

func (s *Server) discardDialogue(c echo.Context) error {
	if err := s.dialogues.Discard(c.Param("id")); err != nil {
		return notFound(c, "Dialogue not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func dialogueState(engine *dialogue.Engine) DialogueResponse {
	_, complete := engine.Draft()
	return DialogueResponse{
		DialogueID: engine.ID,
		Messages:   engine.Transcript(),
		Complete:   complete,
	}
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: message,
	})
}

func notFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: message,
	})
}

func upstreamError(c echo.Context, err error) error {
	return c.JSON(http.StatusBadGateway, ErrorResponse{
		Error:   "upstream_error",
		Message: err.Error(),
	})
}
