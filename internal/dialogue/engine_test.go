package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/civicai/portal/domain/entities"
	"github.com/civicai/portal/domain/repositories"
)

// stubGateway scripts structured responses: turn calls are answered from
// the replies queue, extraction calls from the draft field.
type stubGateway struct {
	mu          sync.Mutex
	replies     []turnReply
	replyErr    error
	draft       *entities.GenericFormDraft
	draftErr    error
	extractions int32
}

func (g *stubGateway) Complete(ctx context.Context, req repositories.CompletionRequest) (string, error) {
	return "", errors.New("not used")
}

func (g *stubGateway) GenerateStructured(ctx context.Context, req repositories.StructuredRequest, out interface{}) error {
	if strings.Contains(req.Prompt, "Extract the application form details") {
		atomic.AddInt32(&g.extractions, 1)
		if g.draftErr != nil {
			return g.draftErr
		}
		if g.draft != nil {
			raw, _ := json.Marshal(g.draft)
			return json.Unmarshal(raw, out)
		}
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.replyErr != nil {
		return g.replyErr
	}
	if len(g.replies) == 0 {
		return errors.New("no scripted reply left")
	}
	reply := g.replies[0]
	g.replies = g.replies[1:]
	raw, _ := json.Marshal(reply)
	return json.Unmarshal(raw, out)
}

func completeDraft() *entities.GenericFormDraft {
	return &entities.GenericFormDraft{
		FormSubject:     "Birth certificate",
		ApplicationType: "New",
		FullName:        "Asha Verma",
		GuardianName:    "Ravi Verma",
		DateOfBirth:     "2001-03-14",
		Address:         "12 Lakeview Road, Pune",
	}
}

func TestEngineSeedsGreeting(t *testing.T) {
	engine := NewEngine(&stubGateway{}, zap.NewNop())

	transcript := engine.Transcript()
	if len(transcript) != 1 {
		t.Fatalf("expected one seeded message, got %d", len(transcript))
	}
	if transcript[0].Role != entities.MessageRoleAssistant {
		t.Errorf("greeting role: got %v", transcript[0].Role)
	}
}

func TestEngineFullDialogue(t *testing.T) {
	gw := &stubGateway{
		replies: []turnReply{
			{Reply: "What type of application is this?"},
			{Reply: "What is your full name?"},
			{Reply: "What is your father's or guardian's name?"},
			{Reply: "What is your date of birth?"},
			{Reply: "What is your residential address?"},
			{Reply: "Here is everything you told me. All details are collected.", DetailsComplete: true},
		},
		draft: completeDraft(),
	}
	engine := NewEngine(gw, zap.NewNop())

	answers := []string{
		"A birth certificate",
		"A new application",
		"Asha Verma",
		"Ravi Verma",
		"14 March 2001",
		"12 Lakeview Road, Pune",
	}
	var done bool
	for i, answer := range answers {
		msg, complete, err := engine.Turn(context.Background(), answer)
		if err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		if msg.Role != entities.MessageRoleAssistant {
			t.Fatalf("turn %d: reply role %v", i, msg.Role)
		}
		done = complete
	}
	if !done {
		t.Fatal("dialogue never reported completion")
	}

	draft, ok := engine.Draft()
	if !ok {
		t.Fatal("no draft after completed dialogue")
	}
	if draft.FullName != "Asha Verma" || draft.Address != "12 Lakeview Road, Pune" {
		t.Errorf("unexpected draft: %+v", draft)
	}
	if got := atomic.LoadInt32(&gw.extractions); got != 1 {
		t.Errorf("expected exactly one extraction, got %d", got)
	}

	// transcript holds greeting plus every user and assistant turn
	if got := len(engine.Transcript()); got != 1+2*len(answers) {
		t.Errorf("transcript length: got %d, want %d", got, 1+2*len(answers))
	}
}

func TestEngineNoExtractionBeforeCompletion(t *testing.T) {
	gw := &stubGateway{
		replies: []turnReply{
			{Reply: "What type of application is this?"},
			{Reply: "What is your full name?"},
		},
		draft: completeDraft(),
	}
	engine := NewEngine(gw, zap.NewNop())

	engine.Turn(context.Background(), "A birth certificate")
	engine.Turn(context.Background(), "New")

	if _, ok := engine.Draft(); ok {
		t.Error("draft produced before the dialogue completed")
	}
	if got := atomic.LoadInt32(&gw.extractions); got != 0 {
		t.Errorf("extraction ran before completion: %d", got)
	}
}

func TestEngineExtractionRunsOnce(t *testing.T) {
	gw := &stubGateway{
		replies: []turnReply{
			{Reply: "All collected.", DetailsComplete: true},
			{Reply: "Everything is already collected.", DetailsComplete: true},
		},
		draft: completeDraft(),
	}
	engine := NewEngine(gw, zap.NewNop())

	engine.Turn(context.Background(), "here are all my details at once")
	engine.Turn(context.Background(), "thanks")

	if got := atomic.LoadInt32(&gw.extractions); got != 1 {
		t.Errorf("expected one extraction across repeated completions, got %d", got)
	}
}

func TestEngineFailedExtractionRetries(t *testing.T) {
	gw := &stubGateway{
		replies: []turnReply{
			{Reply: "All collected.", DetailsComplete: true},
			{Reply: "Let me confirm once more.", DetailsComplete: true},
		},
		draftErr: errors.New("upstream unavailable"),
	}
	engine := NewEngine(gw, zap.NewNop())

	_, done, err := engine.Turn(context.Background(), "here is everything")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if done {
		t.Error("completion reported despite failed extraction")
	}
	if _, ok := engine.Draft(); ok {
		t.Fatal("draft set despite failed extraction")
	}

	// extraction recovers on the next completed turn
	gw.draftErr = nil
	gw.draft = completeDraft()
	_, done, err = engine.Turn(context.Background(), "please try again")
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if !done {
		t.Error("completion not reported after recovered extraction")
	}
	if _, ok := engine.Draft(); !ok {
		t.Error("draft missing after recovered extraction")
	}
}

func TestEngineInlineErrorTurn(t *testing.T) {
	gw := &stubGateway{replyErr: errors.New("upstream unavailable")}
	engine := NewEngine(gw, zap.NewNop())

	msg, done, err := engine.Turn(context.Background(), "hello")
	if err != nil {
		t.Fatalf("upstream failure must not propagate: %v", err)
	}
	if done {
		t.Error("failed turn reported completion")
	}
	if msg.Role != entities.MessageRoleAssistant || msg.Content == "" {
		t.Errorf("expected an inline assistant error turn, got %+v", msg)
	}

	// the error turn is part of the transcript, after the user's utterance
	transcript := engine.Transcript()
	if len(transcript) != 3 {
		t.Fatalf("transcript length: got %d, want 3", len(transcript))
	}
	if transcript[1].Role != entities.MessageRoleUser {
		t.Errorf("user turn missing from transcript")
	}

	// the dialogue keeps working once the upstream recovers
	gw.mu.Lock()
	gw.replyErr = nil
	gw.replies = []turnReply{{Reply: "What type of application is this?"}}
	gw.mu.Unlock()
	msg, _, err = engine.Turn(context.Background(), "a birth certificate")
	if err != nil {
		t.Fatalf("recovered turn: %v", err)
	}
	if msg.Content != "What type of application is this?" {
		t.Errorf("unexpected recovered reply: %q", msg.Content)
	}
}

func TestEngineRejectsConcurrentTurns(t *testing.T) {
	release := make(chan struct{})
	gw := &blockingGateway{started: make(chan struct{}, 1), release: release}
	engine := NewEngine(gw, zap.NewNop())

	errCh := make(chan error, 1)
	go func() {
		_, _, err := engine.Turn(context.Background(), "first")
		errCh <- err
	}()
	<-gw.started

	if _, _, err := engine.Turn(context.Background(), "second"); !errors.Is(err, ErrTurnInFlight) {
		t.Errorf("expected ErrTurnInFlight, got %v", err)
	}

	close(release)
	if err := <-errCh; err != nil {
		t.Errorf("first turn: %v", err)
	}

	// the rejected turn left no trace in the transcript
	for _, msg := range engine.Transcript() {
		if msg.Content == "second" {
			t.Error("rejected turn reached the transcript")
		}
	}
}

func TestEngineReset(t *testing.T) {
	gw := &stubGateway{
		replies: []turnReply{{Reply: "All collected.", DetailsComplete: true}},
		draft:   completeDraft(),
	}
	engine := NewEngine(gw, zap.NewNop())

	engine.Turn(context.Background(), "everything at once")
	if _, ok := engine.Draft(); !ok {
		t.Fatal("draft missing before reset")
	}

	engine.Reset()
	if _, ok := engine.Draft(); ok {
		t.Error("draft survived reset")
	}
	if got := len(engine.Transcript()); got != 1 {
		t.Errorf("expected reseeded greeting only, got %d messages", got)
	}
}

func TestManagerLifecycle(t *testing.T) {
	manager := NewManager(&stubGateway{}, zap.NewNop())

	engine := manager.Create()
	if engine.ID == "" {
		t.Fatal("dialogue has no id")
	}

	got, err := manager.Get(engine.ID)
	if err != nil || got != engine {
		t.Fatalf("get: %v", err)
	}

	if err := manager.Discard(engine.ID); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if _, err := manager.Get(engine.ID); !errors.Is(err, ErrDialogueNotFound) {
		t.Errorf("expected ErrDialogueNotFound, got %v", err)
	}
	if err := manager.Discard(engine.ID); !errors.Is(err, ErrDialogueNotFound) {
		t.Errorf("double discard: expected ErrDialogueNotFound, got %v", err)
	}
	if manager.Count() != 0 {
		t.Errorf("expected empty manager, got %d", manager.Count())
	}
}

// blockingGateway holds each structured call open until released
type blockingGateway struct {
	started chan struct{}
	release chan struct{}
}

func (g *blockingGateway) Complete(ctx context.Context, req repositories.CompletionRequest) (string, error) {
	return "", errors.New("not used")
}

func (g *blockingGateway) GenerateStructured(ctx context.Context, req repositories.StructuredRequest, out interface{}) error {
	g.started <- struct{}{}
	<-g.release
	raw, _ := json.Marshal(turnReply{Reply: "ok"})
	return json.Unmarshal(raw, out)
}
