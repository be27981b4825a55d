package usecase

import (
	"time"

	"github.com/google/uuid"

	"patentdesk/internal/domain"
)

// ReportBuilder assembles a report from an engine result. It computes
// nothing beyond the overall status.
type ReportBuilder struct {
	Clock Clock
	NewID func() string
}

func (b ReportBuilder) Build(result domain.VerificationResult, profile string, source domain.SourceRef) domain.Report {
	now := b.now()
	errs := result.ErrorLines()
	status := domain.OverallPass
	if len(errs) > 0 {
		status = domain.OverallFail
	}
	if profile == "" {
		profile = domain.ProfileInvoicing.Name
	}
	return domain.Report{
		ReportID:            b.newID(),
		VerificationTime:    now.Format(domain.ReportTimeLayout),
		OriginalFile:        source.Path,
		DocumentDigest:      source.Digest,
		Profile:             profile,
		VerificationResults: result.OutcomeLines(),
		Errors:              errs,
		Details:             result.Details,
		OverallStatus:       status,
		CapturedAt:          now,
	}
}

func (b ReportBuilder) now() time.Time {
	if b.Clock != nil {
		return b.Clock()
	}
	return time.Now()
}

func (b ReportBuilder) newID() string {
	if b.NewID != nil {
		return b.NewID()
	}
	return uuid.NewString()
}
