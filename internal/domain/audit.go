package domain

import "time"

type AuditActorType string

const (
	AuditChainVersion = "audit_chain_v0"

	AuditActorCLI     AuditActorType = "cli"
	AuditActorService AuditActorType = "service"
)

type AuditEventType string

const (
	AuditEventDocumentVerified AuditEventType = "document_verified"
	AuditEventDocumentRejected AuditEventType = "document_rejected"
)

type AuditTargetType string

const (
	AuditTargetDocument AuditTargetType = "document"
	AuditTargetReport   AuditTargetType = "report"
)

type AuditResult string

const (
	AuditResultSuccess AuditResult = "success"
	AuditResultFailure AuditResult = "failure"
)

const (
	AuditErrorCheckFailed = "CHECK_FAILED"
	AuditErrorStructural  = "STRUCTURAL_ERROR"
)

type AuditEvent struct {
	ID            string          `json:"id"`
	Seq           int64           `json:"seq"`
	EventType     AuditEventType  `json:"event_type"`
	Payload       any             `json:"payload"`
	PayloadHash   string          `json:"payload_hash"`
	ActorType     AuditActorType  `json:"actor_type"`
	ActorIDHash   string          `json:"actor_id_hash,omitempty"`
	TargetType    AuditTargetType `json:"target_type"`
	TargetID      string          `json:"target_id,omitempty"`
	Result        AuditResult     `json:"result"`
	ErrorCode     string          `json:"error_code,omitempty"`
	PrevEventHash string          `json:"prev_event_hash"`
	EventHash     string          `json:"event_hash"`
	CreatedAt     time.Time       `json:"created_at"`
}
