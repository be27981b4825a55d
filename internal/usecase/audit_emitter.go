package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"patentdesk/internal/domain"
)

type AuditEmitter struct {
	Repo  AuditEventRepository
	Clock Clock
}

func NewAuditEmitter(repo AuditEventRepository, clock Clock) *AuditEmitter {
	return &AuditEmitter{
		Repo:  repo,
		Clock: clock,
	}
}

func (e *AuditEmitter) Emit(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	if e == nil || e.Repo == nil {
		return domain.AuditEvent{}, errors.New("audit repository required")
	}
	if missing := missingAuditFields(event); len(missing) > 0 {
		return domain.AuditEvent{}, fmt.Errorf("audit event missing %s", strings.Join(missing, ", "))
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = e.now().UTC()
	} else {
		event.CreatedAt = event.CreatedAt.UTC()
	}
	return e.Repo.Append(ctx, event)
}

// EmitDocumentVerified records a completed run. The payload carries digests,
// codes and the report location, never document contents.
func (e *AuditEmitter) EmitDocumentVerified(ctx context.Context, actorType domain.AuditActorType, actorID string, report domain.Report, reportPath string) error {
	result := domain.AuditResultSuccess
	errorCode := ""
	if !report.Passed() {
		result = domain.AuditResultFailure
		errorCode = domain.AuditErrorCheckFailed
	}
	payload := map[string]any{
		"report_id":      report.ReportID,
		"profile":        report.Profile,
		"overall_status": string(report.OverallStatus),
		"error_count":    len(report.Errors),
	}
	if report.DocumentDigest != "" {
		payload["document_digest"] = report.DocumentDigest
	}
	if reportPath != "" {
		payload["report_path"] = reportPath
	}
	if report.Disposition != nil {
		payload["disposition"] = string(report.Disposition.Action)
		payload["policy_hash"] = report.Disposition.PolicyHash
	}
	_, err := e.Emit(ctx, domain.AuditEvent{
		ActorType:   actorType,
		ActorIDHash: hashString(actorID),
		EventType:   domain.AuditEventDocumentVerified,
		Payload:     payload,
		TargetType:  domain.AuditTargetDocument,
		TargetID:    report.DocumentDigest,
		Result:      result,
		ErrorCode:   errorCode,
	})
	return err
}

// EmitDocumentRejected records a document that failed structural decoding.
func (e *AuditEmitter) EmitDocumentRejected(ctx context.Context, actorType domain.AuditActorType, actorID string, source domain.SourceRef, fields []string) error {
	payload := map[string]any{
		"source": source.Path,
	}
	if len(fields) > 0 {
		list := make([]any, 0, len(fields))
		for _, f := range fields {
			list = append(list, f)
		}
		payload["fields"] = list
	}
	_, err := e.Emit(ctx, domain.AuditEvent{
		ActorType:   actorType,
		ActorIDHash: hashString(actorID),
		EventType:   domain.AuditEventDocumentRejected,
		Payload:     payload,
		TargetType:  domain.AuditTargetDocument,
		TargetID:    source.Digest,
		Result:      domain.AuditResultFailure,
		ErrorCode:   domain.AuditErrorStructural,
	})
	return err
}

func missingAuditFields(event domain.AuditEvent) []string {
	var missing []string
	for _, f := range []struct {
		name  string
		empty bool
	}{
		{"event_type", event.EventType == ""},
		{"actor_type", event.ActorType == ""},
		{"target_type", event.TargetType == ""},
		{"result", event.Result == ""},
	} {
		if f.empty {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func (e *AuditEmitter) now() time.Time {
	if e != nil && e.Clock != nil {
		return e.Clock()
	}
	return time.Now().UTC()
}

func hashString(value string) string {
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
