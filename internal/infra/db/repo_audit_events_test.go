package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"patentdesk/internal/domain"
	"patentdesk/internal/infra/canonical"
	"patentdesk/internal/usecase"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAuditEventRepository_AppendHashChain(t *testing.T) {
	repo := NewAuditEventRepository(openTestStore(t).DB)
	ctx := context.Background()

	first, err := repo.Append(ctx, domain.AuditEvent{
		EventType:  domain.AuditEventDocumentVerified,
		ActorType:  domain.AuditActorService,
		TargetType: domain.AuditTargetDocument,
		TargetID:   "digest-1",
		Result:     domain.AuditResultSuccess,
		Payload:    map[string]any{"report_id": "r-1", "overall_status": "pass"},
		CreatedAt:  time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), first.Seq)
	require.Equal(t, canonical.ZeroHash, first.PrevEventHash)
	require.Len(t, first.EventHash, 64)

	second, err := repo.Append(ctx, domain.AuditEvent{
		EventType:  domain.AuditEventDocumentRejected,
		ActorType:  domain.AuditActorCLI,
		TargetType: domain.AuditTargetDocument,
		Result:     domain.AuditResultFailure,
		ErrorCode:  domain.AuditErrorStructural,
		Payload:    map[string]any{"fields": []string{"invoice.tax_amount"}},
		CreatedAt:  time.Date(2026, 2, 1, 11, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), second.Seq)
	require.Equal(t, first.EventHash, second.PrevEventHash)

	events, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Empty(t, events[1].TargetID)
	require.Equal(t, domain.AuditErrorStructural, events[1].ErrorCode)

	n, err := usecase.VerifyAuditChain(ctx, repo)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestAuditEventRepository_DetectsTamper(t *testing.T) {
	store := openTestStore(t)
	repo := NewAuditEventRepository(store.DB)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := repo.Append(ctx, domain.AuditEvent{
			EventType:  domain.AuditEventDocumentVerified,
			ActorType:  domain.AuditActorCLI,
			TargetType: domain.AuditTargetDocument,
			Result:     domain.AuditResultFailure,
			Payload:    map[string]any{"error_count": 1},
		})
		require.NoError(t, err)
	}

	require.NoError(t, store.DB.Model(&AuditEventModel{}).Where("seq = ?", 2).
		Update("payload_json", `{"error_count":0}`).Error)

	_, err := usecase.VerifyAuditChain(ctx, repo)
	require.ErrorContains(t, err, "payload hash mismatch at seq 2")
}

func TestAuditEventRepository_NoDB(t *testing.T) {
	repo := NewAuditEventRepository(nil)
	_, err := repo.Append(context.Background(), domain.AuditEvent{EventType: domain.AuditEventDocumentVerified})
	require.ErrorIs(t, err, errDBUnavailable)
	_, err = repo.List(context.Background())
	require.ErrorIs(t, err, errDBUnavailable)
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open(" ")
	require.Error(t, err)
	require.True(t, isPostgres("postgres://user@localhost/desk"))
	require.False(t, isPostgres("audit.db"))
}
