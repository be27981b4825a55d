package usecase

import (
	"context"
	"errors"
	"fmt"

	"patentdesk/internal/infra/canonical"
)

// VerifyAuditChain walks the stored events in order and re-derives every
// sequence number, payload hash and chain hash.
func VerifyAuditChain(ctx context.Context, repo AuditEventRepository) (int, error) {
	if repo == nil {
		return 0, errors.New("audit repository required")
	}
	events, err := repo.List(ctx)
	if err != nil {
		return 0, err
	}

	expectedSeq := int64(1)
	prevHash := canonical.ZeroHash
	for _, event := range events {
		if event.Seq != expectedSeq {
			return 0, fmt.Errorf("audit chain seq mismatch: expected %d got %d", expectedSeq, event.Seq)
		}
		if event.PrevEventHash != prevHash {
			return 0, fmt.Errorf("audit chain prev hash mismatch at seq %d", event.Seq)
		}
		_, payloadHash, err := canonical.AuditPayload(event.Payload)
		if err != nil {
			return 0, fmt.Errorf("audit chain payload decode failed at seq %d: %w", event.Seq, err)
		}
		if payloadHash != event.PayloadHash {
			return 0, fmt.Errorf("audit chain payload hash mismatch at seq %d", event.Seq)
		}
		if event.CreatedAt.IsZero() {
			return 0, fmt.Errorf("audit chain missing created_at at seq %d", event.Seq)
		}
		expectedHash, err := canonical.AuditEventHash(event)
		if err != nil {
			return 0, fmt.Errorf("audit chain hash compute failed at seq %d: %w", event.Seq, err)
		}
		if expectedHash != event.EventHash {
			return 0, fmt.Errorf("audit chain hash mismatch at seq %d", event.Seq)
		}
		prevHash = event.EventHash
		expectedSeq++
	}
	return len(events), nil
}
