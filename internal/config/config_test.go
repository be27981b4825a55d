package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "LOG_LEVEL", "REPORT_DIR", "POLICY_ENABLED", "REVIEW_THRESHOLD", "CACHE_TTL_SECONDS", "CASE_COLUMN"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "verification_reports", cfg.ReportDir)
	require.True(t, cfg.PolicyEnabled)
	require.Zero(t, cfg.ReviewThreshold)
	require.Equal(t, time.Hour, cfg.CacheTTL())
	require.Equal(t, "公司案號", cfg.CaseColumn)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DETAIL_PROFILE", "billing")
	t.Setenv("POLICY_ENABLED", "no")
	t.Setenv("REVIEW_THRESHOLD", "50000.5")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CACHE_TTL_SECONDS", "0")
	t.Setenv("AUDIT_DSN", "postgres://desk@localhost/audit")

	cfg := FromEnv()
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, "billing", cfg.DetailProfile)
	require.False(t, cfg.PolicyEnabled)
	require.Equal(t, 50000.5, cfg.ReviewThreshold)
	require.Equal(t, 3, cfg.RedisDB)
	require.Zero(t, cfg.CacheTTL())
	require.Equal(t, "postgres://desk@localhost/audit", cfg.AuditDSN)
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "x")
	t.Setenv("REVIEW_THRESHOLD", "-1")
	t.Setenv("POLICY_ENABLED", "maybe")

	cfg := FromEnv()
	require.Zero(t, cfg.RedisDB)
	require.Zero(t, cfg.ReviewThreshold)
	require.True(t, cfg.PolicyEnabled)
}
