package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"patentdesk/internal/domain"
	"patentdesk/internal/infra/canonical"
	"patentdesk/internal/usecase"
)

type AuditEventRepository struct {
	db *gorm.DB
}

func NewAuditEventRepository(db *gorm.DB) *AuditEventRepository {
	return &AuditEventRepository{db: db}
}

func (r *AuditEventRepository) Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	if r.db == nil {
		return domain.AuditEvent{}, errDBUnavailable
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.EventType == "" {
		return domain.AuditEvent{}, errors.New("event_type is required")
	}

	var out domain.AuditEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, prevHash, err := nextAuditSeq(tx)
		if err != nil {
			return err
		}
		sealed, payloadJSON, err := canonical.SealAuditEvent(event, seq, prevHash)
		if err != nil {
			return err
		}
		model := auditEventModelFromDomain(sealed, payloadJSON)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		sealed.Payload = json.RawMessage(payloadJSON)
		out = sealed
		return nil
	})
	if err != nil {
		return domain.AuditEvent{}, err
	}
	return out, nil
}

func (r *AuditEventRepository) List(ctx context.Context) ([]domain.AuditEvent, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []AuditEventModel
	if err := r.db.WithContext(ctx).Order("seq ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AuditEvent, 0, len(models))
	for _, model := range models {
		out = append(out, auditEventFromModel(model))
	}
	return out, nil
}

func auditEventModelFromDomain(event domain.AuditEvent, payloadJSON []byte) AuditEventModel {
	return AuditEventModel{
		ID:            event.ID,
		Seq:           event.Seq,
		EventType:     string(event.EventType),
		PayloadJSON:   string(payloadJSON),
		PayloadHash:   event.PayloadHash,
		ActorType:     string(event.ActorType),
		ActorIDHash:   stringPtrIfNotEmpty(event.ActorIDHash),
		TargetType:    string(event.TargetType),
		TargetID:      stringPtrIfNotEmpty(event.TargetID),
		Result:        string(event.Result),
		ErrorCode:     stringPtrIfNotEmpty(event.ErrorCode),
		PrevEventHash: event.PrevEventHash,
		EventHash:     event.EventHash,
		CreatedAt:     event.CreatedAt.UTC(),
	}
}

func auditEventFromModel(model AuditEventModel) domain.AuditEvent {
	return domain.AuditEvent{
		ID:            model.ID,
		Seq:           model.Seq,
		EventType:     domain.AuditEventType(model.EventType),
		Payload:       json.RawMessage(model.PayloadJSON),
		PayloadHash:   model.PayloadHash,
		ActorType:     domain.AuditActorType(model.ActorType),
		ActorIDHash:   stringValue(model.ActorIDHash),
		TargetType:    domain.AuditTargetType(model.TargetType),
		TargetID:      stringValue(model.TargetID),
		Result:        domain.AuditResult(model.Result),
		ErrorCode:     stringValue(model.ErrorCode),
		PrevEventHash: model.PrevEventHash,
		EventHash:     model.EventHash,
		CreatedAt:     model.CreatedAt.UTC(),
	}
}

// nextAuditSeq reads the chain tail inside tx. The unique index on seq turns
// a concurrent append into a constraint error rather than a fork.
func nextAuditSeq(tx *gorm.DB) (int64, string, error) {
	var tail AuditEventModel
	err := tx.Order("seq DESC").Limit(1).Take(&tail).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 1, canonical.ZeroHash, nil
	}
	if err != nil {
		return 0, "", err
	}
	if tail.EventHash == "" {
		return 0, "", fmt.Errorf("missing event hash at seq %d", tail.Seq)
	}
	return tail.Seq + 1, tail.EventHash, nil
}

var _ usecase.AuditEventRepository = (*AuditEventRepository)(nil)
