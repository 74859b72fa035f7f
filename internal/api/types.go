package api

import (
	"time"

	"github.com/civicai/portal/domain/entities"
)

// LoginRequest represents the request payload for the simulated login
type LoginRequest struct {
	CitizenID string `json:"citizen_id" validate:"required"`
}

// LoginResponse represents the response payload for the simulated login
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CitizenID string    `json:"citizen_id"`
}

// AskRequest represents an assistant question with optional prior turns
type AskRequest struct {
	Question string             `json:"question" validate:"required"`
	History  []entities.Message `json:"history,omitempty"`
}

// AskResponse carries the assistant's reply
type AskResponse struct {
	Message entities.Message `json:"message"`
}

// AnalyzeFormRequest carries pasted form text
type AnalyzeFormRequest struct {
	FormText string `json:"form_text" validate:"required"`
}

// SubmitRequestRequest files a citizen service request
type SubmitRequestRequest struct {
	Subject string `json:"subject" validate:"required"`
}

// ExtractProfileRequest carries a base64 document image
type ExtractProfileRequest struct {
	Image    string `json:"image" validate:"required"`
	MIMEType string `json:"mime_type"`
}

// ProfileAskRequest asks a question grounded in an extracted profile
type ProfileAskRequest struct {
	Profile  entities.UserProfile `json:"profile"`
	Question string               `json:"question" validate:"required"`
}

// ProfileAskResponse carries the profile assistant's answer
type ProfileAskResponse struct {
	Answer string `json:"answer"`
}

// PredictRejectionRequest carries the applicant's own application summary
type PredictRejectionRequest struct {
	ApplicationSummary string `json:"application_summary" validate:"required"`
}

// DialogueResponse describes a guided dialogue's current state
type DialogueResponse struct {
	DialogueID string             `json:"dialogue_id"`
	Messages   []entities.Message `json:"messages"`
	Complete   bool               `json:"complete"`
}

// DialogueTurnRequest submits the citizen's next utterance
type DialogueTurnRequest struct {
	Message string `json:"message" validate:"required"`
}

// DialogueTurnResponse carries the assistant's reply for one turn
type DialogueTurnResponse struct {
	Message  entities.Message `json:"message"`
	Complete bool             `json:"complete"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
