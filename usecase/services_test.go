package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/civicai/portal/domain/entities"
)

func TestAssistantAsk(t *testing.T) {
	gw := &scriptedGateway{completion: "You can apply online at your district portal."}
	svc := NewAssistantService(gw, zap.NewNop())

	var conv entities.Conversation
	msg, err := svc.Ask(context.Background(), &conv, "How do I renew my ration card?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if msg.Role != entities.MessageRoleAssistant {
		t.Errorf("reply role: got %v", msg.Role)
	}
	if msg.Content != gw.completion {
		t.Errorf("reply content: got %q", msg.Content)
	}
	if conv.Len() != 2 {
		t.Errorf("expected question and answer in the transcript, got %d turns", conv.Len())
	}
}

func TestAssistantAskUpstreamError(t *testing.T) {
	gw := &scriptedGateway{completionErr: errors.New("upstream unavailable")}
	svc := NewAssistantService(gw, zap.NewNop())

	var conv entities.Conversation
	if _, err := svc.Ask(context.Background(), &conv, "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestFormAnalyze(t *testing.T) {
	gw := &scriptedGateway{structured: entities.FormAnalysis{
		Purpose:               "Apply for a ration card",
		Requirements:          []string{"Proof of address", "Identity document"},
		SimplifiedExplanation: "This form registers your household for subsidized rations.",
	}}
	svc := NewFormService(gw, zap.NewNop())

	analysis, err := svc.Analyze(context.Background(), "FORM 7B: Application for ration card ...")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Purpose == "" || len(analysis.Requirements) != 2 {
		t.Errorf("unexpected analysis: %+v", analysis)
	}
}

func TestFormAnalyzeEmptyText(t *testing.T) {
	svc := NewFormService(&scriptedGateway{}, zap.NewNop())
	if _, err := svc.Analyze(context.Background(), ""); !errors.Is(err, ErrEmptyFormText) {
		t.Errorf("expected ErrEmptyFormText, got %v", err)
	}
}

func TestProfileExtractFromImage(t *testing.T) {
	gw := &scriptedGateway{structured: entities.UserProfile{
		FullName:       "Asha Verma",
		DateOfBirth:    "2001-03-14",
		DocumentMasked: "XXXX-XXXX-4821",
	}}
	svc := NewProfileService(gw, zap.NewNop())

	profile, err := svc.ExtractFromImage(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if profile.FullName != "Asha Verma" {
		t.Errorf("unexpected profile: %+v", profile)
	}
	if gw.lastRequest.Image == nil || gw.lastRequest.Image.MIMEType != "image/jpeg" {
		t.Error("document image not handed to the gateway")
	}
}

func TestProfileExtractEmptyImage(t *testing.T) {
	svc := NewProfileService(&scriptedGateway{}, zap.NewNop())
	if _, err := svc.ExtractFromImage(context.Background(), nil, "image/jpeg"); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}

func TestServiceDetail(t *testing.T) {
	gw := &scriptedGateway{structured: entities.ServiceDetailInfo{
		Summary: "National identity enrollment",
		Steps:   []string{"Book an appointment", "Visit the enrollment center"},
	}}
	svc := NewServiceInfoService(gw, zap.NewNop())

	detail, err := svc.Detail(context.Background(), "aadhaar")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Summary == "" || len(detail.Steps) != 2 {
		t.Errorf("unexpected detail: %+v", detail)
	}
}

func TestServiceDetailUnknown(t *testing.T) {
	svc := NewServiceInfoService(&scriptedGateway{}, zap.NewNop())
	if _, err := svc.Detail(context.Background(), "moon-base-permit"); !errors.Is(err, ErrUnknownService) {
		t.Errorf("expected ErrUnknownService, got %v", err)
	}
}

func TestPredictRejection(t *testing.T) {
	gw := &scriptedGateway{structured: entities.RejectionPrediction{
		ApprovalProbability: 0.65,
		RiskLevel:           entities.PriorityMedium,
		RedFlags:            []string{"Address proof older than one year"},
	}}
	svc := NewServiceInfoService(gw, zap.NewNop())

	prediction, err := svc.PredictRejection(context.Background(), "passport",
		"First passport, address proof is a two-year-old utility bill")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if prediction.RiskLevel != entities.PriorityMedium || prediction.ApprovalProbability != 0.65 {
		t.Errorf("unexpected prediction: %+v", prediction)
	}
}

func TestPredictRejectionUnknownService(t *testing.T) {
	svc := NewServiceInfoService(&scriptedGateway{}, zap.NewNop())
	if _, err := svc.PredictRejection(context.Background(), "nope", "summary"); !errors.Is(err, ErrUnknownService) {
		t.Errorf("expected ErrUnknownService, got %v", err)
	}
}
