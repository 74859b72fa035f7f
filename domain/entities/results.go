package entities

// Priority levels used for classification and risk reporting
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ClassificationResult is the routing decision for a citizen request.
// Returned verbatim by the inference gateway against a declared shape.
type ClassificationResult struct {
	Category      string   `json:"category"`
	Priority      Priority `json:"priority"`
	Department    string   `json:"department"`
	UrgencyReason string   `json:"urgencyReason"`
}

// FormAnalysis is the plain-language breakdown of a pasted form text
type FormAnalysis struct {
	Purpose                string   `json:"purpose"`
	Requirements           []string `json:"requirements"`
	Deadlines              string   `json:"deadlines"`
	CommonMistakes         []string `json:"commonMistakes"`
	SimplifiedExplanation  string   `json:"simplifiedExplanation"`
}

// ServiceDetailInfo describes one government service in citizen terms
type ServiceDetailInfo struct {
	Summary        string   `json:"summary"`
	Features       []string `json:"features"`
	Steps          []string `json:"steps"`
	AIInsight      string   `json:"aiInsight"`
	ProcessingTime string   `json:"processingTime"`
	Checklist      []string `json:"checklist"`
}

// RejectionPrediction estimates how likely an application is to be rejected
type RejectionPrediction struct {
	ApprovalProbability float64  `json:"approvalProbability"`
	RiskLevel           Priority `json:"riskLevel"`
	RedFlags            []string `json:"redFlags"`
	MitigationSteps     []string `json:"mitigationSteps"`
	AIAnalystNote       string   `json:"aiAnalystNote"`
}

// UserProfile holds the identity fields extracted from an uploaded document
type UserProfile struct {
	FullName       string `json:"fullName"`
	DateOfBirth    string `json:"dateOfBirth"`
	Gender         string `json:"gender"`
	State          string `json:"state"`
	District       string `json:"district"`
	DocumentMasked string `json:"documentMasked"`
}
