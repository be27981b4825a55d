package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"patentdesk/internal/config"
	"patentdesk/internal/domain"
	"patentdesk/internal/infra/auditlog"
	"patentdesk/internal/infra/cachemem"
	"patentdesk/internal/infra/cacheredis"
	"patentdesk/internal/infra/db"
	"patentdesk/internal/usecase"
)

func testConfig(t *testing.T) config.Config {
	dir := t.TempDir()
	return config.Config{
		DetailProfile:   "invoicing",
		ReportDir:       filepath.Join(dir, "reports"),
		AuditLogPath:    filepath.Join(dir, "audit.jsonl"),
		PolicyEnabled:   true,
		CacheTTLSeconds: 60,
		CaseColumn:      "公司案號",
	}
}

func TestBuild_VerifiesFixtureEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	deps, err := Build(context.Background(), cfg, nil, domain.AuditActorCLI)
	require.NoError(t, err)
	defer deps.Close()

	require.IsType(t, &cachemem.Cache{}, deps.Run.Cache)
	require.IsType(t, &auditlog.Log{}, deps.Audit)
	require.NotNil(t, deps.Run.Disposition)

	raw, err := os.ReadFile(filepath.Join("..", "document", "testdata", "canonical.json"))
	require.NoError(t, err)
	resp, err := deps.Run.ExecuteRaw(context.Background(), raw, "canonical.json")
	require.NoError(t, err)
	require.True(t, resp.Report.Passed(), resp.Report.Errors)
	require.Equal(t, domain.DispositionRelease, resp.Report.Disposition.Action)
	require.FileExists(t, resp.ReportPath)

	n, err := usecase.VerifyAuditChain(context.Background(), deps.Audit)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestBuild_OptionalPartsOff(t *testing.T) {
	cfg := testConfig(t)
	cfg.PolicyEnabled = false
	cfg.CacheTTLSeconds = 0
	cfg.AuditLogPath = ""

	deps, err := Build(context.Background(), cfg, nil, domain.AuditActorService)
	require.NoError(t, err)
	require.Nil(t, deps.Run.Disposition)
	require.Nil(t, deps.Run.Cache)
	require.Nil(t, deps.Run.Audit)
	require.NoError(t, deps.Close())
}

func TestBuild_RedisCache(t *testing.T) {
	srv := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisAddr = srv.Addr()

	deps, err := Build(context.Background(), cfg, nil, domain.AuditActorService)
	require.NoError(t, err)
	defer deps.Close()
	require.IsType(t, &cacheredis.Cache{}, deps.Run.Cache)
}

func TestBuild_UnknownProfile(t *testing.T) {
	cfg := testConfig(t)
	cfg.DetailProfile = "tax"
	_, err := Build(context.Background(), cfg, nil, domain.AuditActorCLI)
	require.ErrorIs(t, err, domain.ErrUnknownProfile)
}

func TestOpenAuditRepository_PrefersDSN(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuditDSN = filepath.Join(t.TempDir(), "audit.db")

	repo, closer, err := OpenAuditRepository(cfg)
	require.NoError(t, err)
	require.NotNil(t, closer)
	defer closer()
	require.IsType(t, &db.AuditEventRepository{}, repo)
}

func TestLoadCases(t *testing.T) {
	cfg := testConfig(t)
	cfg.CaseCSVPath = filepath.Join("..", "caseindex", "testdata", "export.csv")
	cases, err := LoadCases(cfg)
	require.NoError(t, err)
	_, err = cases.Lookup("P001")
	require.NoError(t, err)

	cfg.CaseCSVPath = ""
	_, err = LoadCases(cfg)
	require.Error(t, err)
}
