package entities

// GenericFormDraft is the structured output of slot extraction over a
// completed dialogue transcript. Immutable once created; producing a new
// draft requires discarding the dialogue and starting over.
type GenericFormDraft struct {
	FormSubject      string `json:"formSubject"`
	ApplicationType  string `json:"applicationType"`
	FullName         string `json:"fullName"`
	GuardianName     string `json:"guardianName"`
	DateOfBirth      string `json:"dateOfBirth"`
	Address          string `json:"address"`
	VerificationNote string `json:"verificationNote"`
}

// IsComplete reports whether every required slot carries a value
func (d GenericFormDraft) IsComplete() bool {
	return d.FormSubject != "" &&
		d.ApplicationType != "" &&
		d.FullName != "" &&
		d.GuardianName != "" &&
		d.DateOfBirth != "" &&
		d.Address != ""
}
