package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicai/portal/domain/entities"
	"github.com/civicai/portal/domain/repositories"
	"github.com/civicai/portal/internal/metrics"
)

// ErrTurnInFlight is returned when a turn is submitted while the previous
// one is still being answered
var ErrTurnInFlight = errors.New("a turn is already in flight")

// Slot is one piece of information the guided dialogue collects
type Slot struct {
	Name string
	Hint string
}

// FormSlots lists what a generic application form needs, in the order the
// assistant asks for them
var FormSlots = []Slot{
	{"Form Subject", "what the application or form is about"},
	{"Application Type", "the category of application, e.g. new, renewal, correction"},
	{"Full Name", "the applicant's full legal name"},
	{"Father's/Guardian's Name", "the applicant's father's or guardian's name"},
	{"Date of Birth", "the applicant's date of birth"},
	{"Residential Address", "the applicant's full residential address"},
}

const greeting = "Hello! I will help you fill out your application form. " +
	"To begin, what is this form or application about?"

// turnReply is the declared shape of one guided-dialogue answer
type turnReply struct {
	Reply           string `json:"reply"`
	DetailsComplete bool   `json:"detailsComplete"`
}

var turnSchema = &repositories.Schema{
	Type: repositories.TypeObject,
	Properties: map[string]*repositories.Schema{
		"reply":           {Type: repositories.TypeString},
		"detailsComplete": {Type: repositories.TypeBoolean},
	},
	Required: []string{"reply", "detailsComplete"},
}

var draftSchema = &repositories.Schema{
	Type: repositories.TypeObject,
	Properties: map[string]*repositories.Schema{
		"formSubject":      {Type: repositories.TypeString},
		"applicationType":  {Type: repositories.TypeString},
		"fullName":         {Type: repositories.TypeString},
		"guardianName":     {Type: repositories.TypeString},
		"dateOfBirth":      {Type: repositories.TypeString},
		"address":          {Type: repositories.TypeString},
		"verificationNote": {Type: repositories.TypeString},
	},
	Required: []string{
		"formSubject", "applicationType", "fullName",
		"guardianName", "dateOfBirth", "address",
	},
}

// Engine drives one guided slot-filling dialogue. The assistant asks for
// one slot per turn, confirms collected values, and signals completion
// through the declared response shape rather than by phrase matching in
// the reply text. Turns are strictly sequential.
type Engine struct {
	ID        string
	CreatedAt time.Time

	gateway repositories.InferenceGateway
	logger  *zap.Logger

	mu           sync.Mutex
	inFlight     bool
	conversation entities.Conversation
	draft        *entities.GenericFormDraft
}

// NewEngine creates a dialogue seeded with the assistant's greeting
func NewEngine(gateway repositories.InferenceGateway, logger *zap.Logger) *Engine {
	e := &Engine{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		gateway:   gateway,
		logger:    logger,
	}
	e.conversation.Append(entities.MessageRoleAssistant, greeting)
	return e
}

// Turn submits the user's utterance and returns the assistant's reply plus
// whether the dialogue has collected everything it needs. A second call
// while one is in flight returns ErrTurnInFlight without touching the
// transcript. Upstream failures surface as an assistant error turn, not as
// a returned error.
func (e *Engine) Turn(ctx context.Context, userText string) (entities.Message, bool, error) {
	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return entities.Message{}, false, ErrTurnInFlight
	}
	e.inFlight = true
	e.conversation.Append(entities.MessageRoleUser, userText)
	transcript := e.conversation.Flatten()
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.inFlight = false
		e.mu.Unlock()
	}()

	var reply turnReply
	err := e.gateway.GenerateStructured(ctx, repositories.StructuredRequest{
		Prompt: turnPrompt(transcript),
		Schema: turnSchema,
	}, &reply)
	if err != nil || reply.Reply == "" {
		if err != nil {
			e.logger.Warn("Dialogue turn failed", zap.String("dialogue_id", e.ID), zap.Error(err))
		}
		e.mu.Lock()
		msg := e.conversation.Append(entities.MessageRoleAssistant,
			"I'm sorry, I ran into a problem answering that. Could you please repeat?")
		e.mu.Unlock()
		return msg, false, nil
	}

	e.mu.Lock()
	msg := e.conversation.Append(entities.MessageRoleAssistant, reply.Reply)
	complete := reply.DetailsComplete
	alreadyExtracted := e.draft != nil
	e.mu.Unlock()

	if complete && !alreadyExtracted {
		e.extract(ctx)
	}

	e.mu.Lock()
	done := e.draft != nil
	e.mu.Unlock()
	return msg, done, nil
}

// extract runs slot extraction over the full transcript exactly once per
// completed dialogue. A failed extraction leaves the draft unset so the
// next completed turn retries.
func (e *Engine) extract(ctx context.Context) {
	e.mu.Lock()
	transcript := e.conversation.Flatten()
	e.mu.Unlock()

	var draft entities.GenericFormDraft
	err := e.gateway.GenerateStructured(ctx, repositories.StructuredRequest{
		Prompt: extractionPrompt(transcript),
		Schema: draftSchema,
	}, &draft)
	if err != nil {
		metrics.DialogueExtractions.WithLabelValues("error").Inc()
		e.logger.Warn("Slot extraction failed", zap.String("dialogue_id", e.ID), zap.Error(err))
		return
	}
	if !draft.IsComplete() {
		metrics.DialogueExtractions.WithLabelValues("incomplete").Inc()
		e.logger.Warn("Slot extraction returned an incomplete draft",
			zap.String("dialogue_id", e.ID))
		return
	}

	metrics.DialogueExtractions.WithLabelValues("success").Inc()
	e.mu.Lock()
	e.draft = &draft
	e.mu.Unlock()
}

// Draft returns the extracted form draft once the dialogue has completed
func (e *Engine) Draft() (entities.GenericFormDraft, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return entities.GenericFormDraft{}, false
	}
	return *e.draft, true
}

// Transcript returns a copy of the dialogue so far
func (e *Engine) Transcript() []entities.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]entities.Message, len(e.conversation.Messages))
	copy(out, e.conversation.Messages)
	return out
}

// Reset discards the transcript and any extracted draft and reseeds the
// greeting; the dialogue starts over from the first slot
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conversation = entities.Conversation{}
	e.conversation.Append(entities.MessageRoleAssistant, greeting)
	e.draft = nil
}

func turnPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("You are a government-services assistant guiding a citizen through an application form, one question at a time.\n")
	b.WriteString("Collect the following details in order, asking for exactly one missing detail per turn:\n")
	for i, slot := range FormSlots {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, slot.Name, slot.Hint)
	}
	b.WriteString("\nWhen every detail has been collected, summarize them back to the citizen and set detailsComplete to true. ")
	b.WriteString("Until then, detailsComplete must be false.\n")
	b.WriteString("\nConversation so far:\n")
	b.WriteString(transcript)
	b.WriteString("\nRespond with your next reply to the citizen.")
	return b.String()
}

func extractionPrompt(transcript string) string {
	return "Extract the application form details from the following completed conversation " +
		"between an assistant and a citizen. Use the citizen's final confirmed values. " +
		"Put any caveat about uncertain or corrected values in verificationNote.\n\n" +
		"Conversation:\n" + transcript
}
