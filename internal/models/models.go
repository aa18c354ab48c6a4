package models

import (
	"time"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DocumentType tags the category a user picked before uploading. It drives
// the persona and focus text injected into the analysis prompt and is fixed
// once an analysis run starts.
type DocumentType string

const (
	RentalAgreement    DocumentType = "Rental Agreement"
	BankLoan           DocumentType = "Bank Loan"
	EmploymentContract DocumentType = "Employment Contract"
	CollegeAdmission   DocumentType = "College Admission"
	StartupFunding     DocumentType = "Startup Funding"
	InsurancePolicy    DocumentType = "Insurance Policy"
	TermsOfService     DocumentType = "Terms of Service"
	OtherDocument      DocumentType = "Other"
)

// ParseDocumentType maps a client-supplied category string to a DocumentType.
// Anything unrecognized falls back to OtherDocument, which carries the
// generic persona.
func ParseDocumentType(s string) DocumentType {
	switch DocumentType(s) {
	case RentalAgreement, BankLoan, EmploymentContract, CollegeAdmission,
		StartupFunding, InsurancePolicy, TermsOfService:
		return DocumentType(s)
	default:
		return OtherDocument
	}
}

// AnalysisRequest is built once per upload and never mutated.
type AnalysisRequest struct {
	DocumentType DocumentType `json:"document_type"`
	DocumentText string       `json:"document_text"`
}

// RiskLevel is the two-level severity scale used in reports.
type RiskLevel string

const (
	RiskHigh      RiskLevel = "high"
	RiskAttention RiskLevel = "attention"
)

// Risk is a single flagged clause: severity, verbatim excerpt, explanation.
type Risk struct {
	Level       RiskLevel `json:"level"`
	Clause      string    `json:"clause"`
	Explanation string    `json:"explanation"`
}

// Summaries wraps the one-sentence summary. Kept as a nested object so the
// stored JSON matches the schema the model is instructed to produce.
type Summaries struct {
	Summary string `json:"summary"`
}

// AnalysisResult is the structured output of one analysis run. Treated as
// immutable after parse; a nil *AnalysisResult means the run failed and is
// never persisted.
type AnalysisResult struct {
	Summaries Summaries `json:"summaries"`
	Risks     []Risk    `json:"risks"`
	Checklist []string  `json:"checklist"`
}

// HistoryRecord is one past analysis owned by a user. Created on successful
// analysis, read back to re-render a report, deleted only during whole
// account deletion.
type HistoryRecord struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	FileName     string    `db:"file_name" json:"file_name"`
	AnalyzedAt   time.Time `db:"analyzed_at" json:"analyzed_at"`
	Analysis     string    `db:"analysis" json:"analysis"` // serialized AnalysisResult
	OriginalText string    `db:"original_text" json:"original_text"`
	StorageURL   string    `db:"storage_url" json:"storage_url,omitempty"`
}

// ChecklistItem is one persisted completion flag. Key layout follows the
// report renderer: "checklist-<fileName>-<index>", scoped per user.
type ChecklistItem struct {
	UserID string `db:"user_id" json:"-"`
	Key    string `db:"key" json:"key"`
	Done   bool   `db:"done" json:"done"`
}

// ChatTurn exists only in a live chat exchange and is never persisted.
type ChatTurn struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}
