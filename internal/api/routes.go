package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/civicai/portal/internal/auth"
	"github.com/civicai/portal/internal/dialogue"
	"github.com/civicai/portal/internal/websocket"
	"github.com/civicai/portal/usecase"
)

// Server bundles the handlers' collaborators
type Server struct {
	authenticator *auth.Authenticator
	assistant     *usecase.AssistantService
	forms         *usecase.FormService
	requests      *usecase.RequestService
	profile       *usecase.ProfileService
	services      *usecase.ServiceInfoService
	dialogues     *dialogue.Manager
	hub           *websocket.Hub
	logger        *zap.Logger
}

// NewServer creates the API server
func NewServer(
	authenticator *auth.Authenticator,
	assistant *usecase.AssistantService,
	forms *usecase.FormService,
	requests *usecase.RequestService,
	profile *usecase.ProfileService,
	services *usecase.ServiceInfoService,
	dialogues *dialogue.Manager,
	hub *websocket.Hub,
	logger *zap.Logger,
) *Server {
	return &Server{
		authenticator: authenticator,
		assistant:     assistant,
		forms:         forms,
		requests:      requests,
		profile:       profile,
		services:      services,
		dialogues:     dialogues,
		hub:           hub,
		logger:        logger,
	}
}

// InitRoutes initializes all API routes
func (s *Server) InitRoutes(e *echo.Echo) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "civicai-portal",
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := e.Group("/api/v1")
	v1.POST("/auth/login", s.login)

	protected := v1.Group("", s.requireCitizen)
	protected.POST("/assistant/ask", s.assistantAsk)
	protected.POST("/forms/analyze", s.analyzeForm)

	protected.POST("/requests", s.submitRequest)
	protected.GET("/requests", s.listRequests)
	protected.GET("/requests/:id", s.getRequest)
	protected.POST("/requests/:id/classify", s.classifyRequest)
	protected.POST("/requests/:id/process", s.processRequest)

	protected.POST("/profile/extract", s.extractProfile)
	protected.POST("/profile/ask", s.profileAsk)

	protected.GET("/services", s.listServices)
	protected.GET("/services/:name", s.serviceDetail)
	protected.POST("/services/:name/predict-rejection", s.predictRejection)

	protected.POST("/dialogues", s.createDialogue)
	protected.GET("/dialogues/:id", s.getDialogue)
	protected.POST("/dialogues/:id/turns", s.dialogueTurn)
	protected.GET("/dialogues/:id/draft", s.dialogueDraft)
	protected.DELETE("/dialogues/:id", s.discardDialogue)

	// WebSocket endpoint with JWT validation
	e.GET("/ws/voice", s.voiceSocket)
}

const citizenIDKey = "citizen_id"

// requireCitizen validates the bearer token and stashes the citizen id on
// the request context
func (s *Server) requireCitizen(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, errResp := s.authenticate(c)
		if errResp != nil {
			return c.JSON(http.StatusUnauthorized, errResp)
		}
		c.Set(citizenIDKey, claims.CitizenID)
		return next(c)
	}
}

func (s *Server) authenticate(c echo.Context) (*auth.JWTClaims, *ErrorResponse) {
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token == "" {
		// browsers cannot set headers on websocket upgrades
		token = c.QueryParam("token")
	}
	if token == "" {
		return nil, &ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required",
		}
	}

	claims, err := s.authenticator.ValidateToken(token)
	if err != nil {
		s.logger.Warn("Token validation failed", zap.Error(err))
		return nil, &ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		}
	}
	if claims.Role != "citizen" || claims.CitizenID == "" {
		return nil, &ErrorResponse{
			Error:   "invalid_token_claims",
			Message: "Token does not identify a citizen session",
		}
	}
	return claims, nil
}

// voiceSocket authenticates the upgrade request and hands the connection to
// the voice hub
func (s *Server) voiceSocket(c echo.Context) error {
	claims, errResp := s.authenticate(c)
	if errResp != nil {
		return c.JSON(http.StatusUnauthorized, errResp)
	}

	s.logger.Info("Voice connection authenticated",
		zap.String(citizenIDKey, claims.CitizenID))
	return websocket.HandleVoiceSocket(s.hub, c, claims.CitizenID, s.logger)
}
