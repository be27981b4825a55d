package cacheredis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"patentdesk/internal/domain"
)

func newCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	cache, err := NewCache(srv.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, srv
}

func sampleResult() domain.VerificationResult {
	return domain.VerificationResult{
		Outcomes: []domain.Outcome{
			{Check: domain.CheckPaymentIdentity, Kind: domain.OutcomePass, Message: "payment summary: totals agree"},
		},
		Failures: []domain.CheckFailure{},
		Details: domain.SectionDetails{
			Invoice: &domain.InvoiceDetail{
				InvoiceNumber: "AB-12345678",
				TotalAmount:   decimal.RequireFromString("1000"),
				Status:        domain.StatusCorrect,
			},
		},
	}
}

func TestCache_RoundTrip(t *testing.T) {
	cache, srv := newCache(t)
	ctx := context.Background()
	require.NoError(t, cache.Ping(ctx))

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Put(ctx, "d:invoicing:f", sampleResult(), time.Minute))
	require.True(t, srv.Exists(keyPrefix+"d:invoicing:f"))

	got, ok, err := cache.Get(ctx, "d:invoicing:f")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, sampleResult().OutcomeLines(), got.OutcomeLines())
	require.Empty(t, got.Failures)
	require.True(t, got.Details.Invoice.TotalAmount.Equal(decimal.NewFromInt(1000)))
}

func TestCache_Expires(t *testing.T) {
	cache, srv := newCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "k", sampleResult(), time.Second))
	srv.FastForward(2 * time.Second)

	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCache_CorruptEntry(t *testing.T) {
	cache, srv := newCache(t)
	require.NoError(t, srv.Set(keyPrefix+"k", "not json"))

	_, _, err := cache.Get(context.Background(), "k")
	require.ErrorContains(t, err, "decode cached result")
}

func TestNewCache_RequiresAddr(t *testing.T) {
	_, err := NewCache("", "", 0)
	require.Error(t, err)
}
