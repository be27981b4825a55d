package usecase

import (
	"context"
	"time"

	"patentdesk/internal/domain"
)

type Clock func() time.Time

type CompanyRegistry interface {
	MatchRemittance(rem domain.Remittance) (domain.CompanyRecord, bool)
	MatchInvoiceBuyer(name, taxID, address string) (domain.CompanyRecord, bool)
	Fingerprint() string
}

type AuditEventRepository interface {
	Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error)
	List(ctx context.Context) ([]domain.AuditEvent, error)
}

type PolicyEngine interface {
	Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyEvaluation, error)
}

type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.VerificationResult, bool, error)
	Put(ctx context.Context, key string, value domain.VerificationResult, ttl time.Duration) error
}

// ReportSink persists a finished report and returns where it went.
type ReportSink interface {
	Write(ctx context.Context, report domain.Report) (string, error)
}
