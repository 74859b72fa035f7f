package repositories

import "context"

// Role defines the type of message sender on the gateway wire
type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
)

// ChatMessage represents a single turn handed to the gateway
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ImageInput carries one still image for vision calls
type ImageInput struct {
	Data     []byte
	MIMEType string
}

// CompletionRequest is a free-text generation call
type CompletionRequest struct {
	System      string
	History     []ChatMessage
	Prompt      string
	Temperature *float32
	Image       *ImageInput
}

// FieldType enumerates the types a declared response field may take
type FieldType string

const (
	TypeObject  FieldType = "object"
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
)

// Schema declares the expected shape of a structured response
type Schema struct {
	Type       FieldType
	Properties map[string]*Schema
	Items      *Schema
	Enum       []string
	Required   []string
}

// StructuredRequest is a generation call constrained to a declared shape
type StructuredRequest struct {
	Prompt string
	Image  *ImageInput
	Schema *Schema
}

// InferenceGateway abstracts the remote generative-model API for text,
// structured, and vision calls. Implementations must be safe for
// concurrent use; one authenticated client is constructed at startup and
// shared by all collaborators.
type InferenceGateway interface {
	// Complete returns the model's free-text reply
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// GenerateStructured decodes the model's reply into out according to
	// the declared schema. A reply that does not parse leaves out at its
	// zero value; it is reported in logs, never propagated as a failure.
	GenerateStructured(ctx context.Context, req StructuredRequest, out interface{}) error
}
