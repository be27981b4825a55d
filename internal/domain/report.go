package domain

import "time"

// ReportTimeLayout is the human-readable capture timestamp format.
const ReportTimeLayout = "2006-01-02 15:04:05"

type OverallStatus string

const (
	OverallPass OverallStatus = "pass"
	OverallFail OverallStatus = "fail"
)

// SourceRef links a report back to the document it was produced from.
type SourceRef struct {
	Path   string
	Digest string
}

type Report struct {
	ReportID            string         `json:"report_id"`
	VerificationTime    string         `json:"verification_time"`
	OriginalFile        string         `json:"original_file"`
	DocumentDigest      string         `json:"document_digest,omitempty"`
	Profile             string         `json:"profile"`
	VerificationResults []string       `json:"verification_results"`
	Errors              []string       `json:"errors"`
	Details             SectionDetails `json:"details"`
	OverallStatus       OverallStatus  `json:"overall_status"`
	Disposition         *Disposition   `json:"disposition,omitempty"`

	CapturedAt time.Time `json:"-"`
}

func (r Report) Passed() bool {
	return r.OverallStatus == OverallPass
}

type DispositionAction string

const (
	DispositionRelease DispositionAction = "release"
	DispositionHold    DispositionAction = "hold"
)

// Disposition is the payment release decision taken by the policy engine.
// It never changes the report's overall status.
type Disposition struct {
	Action     DispositionAction `json:"action"`
	Reasons    []string          `json:"reasons,omitempty"`
	PolicyID   string            `json:"policy_id,omitempty"`
	PolicyHash string            `json:"policy_hash"`
}
