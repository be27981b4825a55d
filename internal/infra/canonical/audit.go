package canonical

import (
	"errors"
	"time"

	"patentdesk/internal/domain"
)

// ZeroHash is the previous-event hash of the first event in a chain.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// AuditPayload returns the canonical payload bytes and their sha256 hex.
func AuditPayload(payload any) ([]byte, string, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	canon, err := Any(payload)
	if err != nil {
		return nil, "", err
	}
	return canon, SHA256Hex(canon), nil
}

// AuditEventHash links event to its predecessor. Only the chain fields are
// hashed; the payload is covered through its hash.
func AuditEventHash(event domain.AuditEvent) (string, error) {
	if event.EventType == "" {
		return "", errors.New("event_type is required")
	}
	if event.PayloadHash == "" {
		return "", errors.New("payload_hash is required")
	}
	if event.PrevEventHash == "" {
		return "", errors.New("prev_event_hash is required")
	}
	fields := map[string]any{
		"v":               domain.AuditChainVersion,
		"seq":             event.Seq,
		"event_type":      string(event.EventType),
		"target_type":     string(event.TargetType),
		"target_id":       event.TargetID,
		"result":          string(event.Result),
		"payload_hash":    event.PayloadHash,
		"prev_event_hash": event.PrevEventHash,
		"created_at":      event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	canon, err := Any(fields)
	if err != nil {
		return "", err
	}
	return SHA256Hex(canon), nil
}

// SealAuditEvent fills the chain fields of event given the tail of the chain.
// prevHash is empty for the first event.
func SealAuditEvent(event domain.AuditEvent, seq int64, prevHash string) (domain.AuditEvent, []byte, error) {
	payloadJSON, payloadHash, err := AuditPayload(event.Payload)
	if err != nil {
		return domain.AuditEvent{}, nil, err
	}
	if prevHash == "" {
		prevHash = ZeroHash
	}
	event.Seq = seq
	event.PayloadHash = payloadHash
	event.PrevEventHash = prevHash
	event.CreatedAt = event.CreatedAt.UTC().Truncate(time.Microsecond)
	hash, err := AuditEventHash(event)
	if err != nil {
		return domain.AuditEvent{}, nil, err
	}
	event.EventHash = hash
	return event, payloadJSON, nil
}
