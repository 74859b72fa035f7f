package entities

import "testing"

func TestNewServiceRequest(t *testing.T) {
	req := NewServiceRequest("Inquiry about child benefit eligibility")

	if req.ID == "" {
		t.Error("Expected request to carry an id")
	}
	if req.Status != RequestStatusPending {
		t.Errorf("Expected status %s, got %s", RequestStatusPending, req.Status)
	}
	if req.Classification != nil {
		t.Error("Expected no classification on a fresh request")
	}
	if req.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestServiceRequestMarkProcessed(t *testing.T) {
	req := NewServiceRequest("Water pipe burst near main square")
	req.MarkProcessed()

	if req.Status != RequestStatusProcessed {
		t.Errorf("Expected status %s, got %s", RequestStatusProcessed, req.Status)
	}
}

func TestServiceRequestValidation(t *testing.T) {
	req := NewServiceRequest("Visa extension")
	if err := req.Validate(); err != nil {
		t.Errorf("Valid request should not have validation errors, got: %v", err)
	}

	req.Subject = ""
	if err := req.Validate(); err == nil {
		t.Error("Request with empty subject should have validation error")
	}

	req.Subject = "Visa extension"
	req.Status = RequestStatus("invalid")
	if err := req.Validate(); err == nil {
		t.Error("Request with invalid status should have validation error")
	}
}

func TestDraftIsComplete(t *testing.T) {
	draft := GenericFormDraft{
		FormSubject:     "Passport",
		ApplicationType: "Fresh",
		FullName:        "Sven Peterson",
		GuardianName:    "Mart Peterson",
		DateOfBirth:     "12/05/1990",
		Address:         "Harju 1, Tallinn",
	}
	if !draft.IsComplete() {
		t.Error("Draft with all slots filled should be complete")
	}

	draft.Address = ""
	if draft.IsComplete() {
		t.Error("Draft with a missing slot should not be complete")
	}
}
