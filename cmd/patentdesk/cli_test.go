package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"patentdesk/internal/infra/reportfs"
)

type cliRun struct {
	code   int
	stdout string
	stderr string
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"AUDIT_DSN", "AUDIT_LOG_PATH", "REDIS_ADDR", "REGISTRY_PATH", "POLICY_PATH", "POLICY_ENABLED", "REVIEW_THRESHOLD", "DETAIL_PROFILE", "CASE_CSV_PATH", "CATEGORY_DIR", "CROSSTAB_DIR", "CSV_ENCODING", "CASE_COLUMN"} {
		t.Setenv(key, "")
	}
}

func runCLI(t *testing.T, stdin string, args ...string) cliRun {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c := &cli{
		stdin:  strings.NewReader(stdin),
		stdout: &stdout,
		stderr: &stderr,
		now:    func() time.Time { return time.Date(2026, 4, 2, 9, 8, 7, 0, time.Local) },
	}
	code := c.run(append([]string{"patentdesk"}, args...))
	return cliRun{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func documentFixture(name string) string {
	return filepath.Join("..", "..", "internal", "document", "testdata", name)
}

func exportFixture() string {
	return filepath.Join("..", "..", "internal", "caseindex", "testdata", "export.csv")
}

func TestRun_Usage(t *testing.T) {
	clearEnv(t)
	res := runCLI(t, "")
	require.Equal(t, exitUsage, res.code)
	require.Contains(t, res.stderr, "patentdesk verify --in")

	res = runCLI(t, "", "frobnicate")
	require.Equal(t, exitUsage, res.code)

	res = runCLI(t, "", "help")
	require.Equal(t, exitOK, res.code)
}

func TestVerify_PassWritesReportAndAudit(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	auditPath := filepath.Join(dir, "audit.jsonl")

	res := runCLI(t, "", "verify", "--in", documentFixture("legacy.json"),
		"--report-dir", filepath.Join(dir, "reports"), "--audit-log", auditPath)
	require.Equal(t, exitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, "status:   pass")
	require.Contains(t, res.stdout, "payment:  release")
	require.Contains(t, res.stdout, "fee schedule")
	require.Contains(t, res.stdout, "report saved to ")

	reports, err := os.ReadDir(filepath.Join(dir, "reports"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.True(t, strings.HasPrefix(reports[0].Name(), "legacy_verification_"))

	report, err := reportfs.Read(filepath.Join(dir, "reports", reports[0].Name()))
	require.NoError(t, err)
	require.True(t, report.Passed())

	res = runCLI(t, "", "report", "show", filepath.Join(dir, "reports", reports[0].Name()))
	require.Equal(t, exitOK, res.code)
	require.Contains(t, res.stdout, report.ReportID)

	res = runCLI(t, "", "audit", "verify", "--log", auditPath)
	require.Equal(t, exitOK, res.code, res.stderr)
	require.Equal(t, "audit chain ok: 1 events\n", res.stdout)
}

func TestVerify_FailingDocumentExitsOne(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	raw, err := os.ReadFile(documentFixture("canonical.json"))
	require.NoError(t, err)
	doc := filepath.Join(dir, "bad_total.json")
	require.NoError(t, os.WriteFile(doc, bytes.Replace(raw, []byte(`"total_payment": 1200`), []byte(`"total_payment": 1250`), 1), 0o600))

	res := runCLI(t, "", "verify", doc, "--profile", "billing", "--report-dir", dir, "--no-policy")
	require.Equal(t, exitFailure, res.code)
	require.Contains(t, res.stdout, "status:   fail")
	require.Contains(t, res.stdout, "errors (1):")
	require.NotContains(t, res.stdout, "payment:")
	require.NotContains(t, res.stdout, "invoice [")
}

func TestVerify_StructuralErrorExitsTwo(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	doc := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(doc, []byte(`{"payment_summary": {}}`), 0o600))

	res := runCLI(t, "", "verify", "--in", doc, "--report-dir", filepath.Join(dir, "reports"))
	require.Equal(t, exitUsage, res.code)
	require.Contains(t, res.stderr, "malformed document")
	_, err := os.Stat(filepath.Join(dir, "reports"))
	require.True(t, os.IsNotExist(err))
}

func TestVerify_UsageErrors(t *testing.T) {
	clearEnv(t)
	require.Equal(t, exitUsage, runCLI(t, "", "verify").code)
	require.Equal(t, exitUsage, runCLI(t, "", "verify", "--in", documentFixture("canonical.json"), "--profile", "tax", "--report-dir", t.TempDir()).code)
	require.Equal(t, exitFailure, runCLI(t, "", "verify", "--in", "missing.json").code)
}

func TestIndexBuildCrossTabAndCase(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	indexDir := filepath.Join(dir, "indexes")
	outDir := filepath.Join(dir, "out")

	res := runCLI(t, "", "index", "build", "--csv", exportFixture(), "--out", indexDir)
	require.Equal(t, exitOK, res.code, res.stderr)
	require.Equal(t, 5, strings.Count(res.stdout, "saved "))

	res = runCLI(t, "", "crosstab", "--dir", indexDir, "--out", outDir, "--xlsx", "patent_type_dict", "country_dict")
	require.Equal(t, exitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, "patent_type_dict vs country_dict (total 5)")
	require.FileExists(t, filepath.Join(outDir, "cross_analysis_patent_type_dict_vs_country_dict_20260402_090807.csv"))
	require.FileExists(t, filepath.Join(outDir, "cross_analysis_patent_type_dict_vs_country_dict_20260402_090807.xlsx"))

	res = runCLI(t, "", "case", "P001", "--csv", exportFixture())
	require.Equal(t, exitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, "急件")

	res = runCLI(t, "", "case", "--csv", exportFixture(), "P999")
	require.Equal(t, exitFailure, res.code)
	require.Contains(t, res.stderr, "not found")
}

func TestCrossTab_PromptsForIndexes(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	indexDir := filepath.Join(dir, "indexes")
	require.Equal(t, exitOK, runCLI(t, "", "index", "build", "--csv", exportFixture(), "--out", indexDir).code)

	// sorted: agency, country, owner, patent_type, status
	res := runCLI(t, "4\n2\n", "crosstab", "--dir", indexDir, "--out", filepath.Join(dir, "out"))
	require.Equal(t, exitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, "1: agency_dict.json")
	require.Contains(t, res.stdout, "patent_type_dict vs country_dict")

	res = runCLI(t, "9\n", "crosstab", "--dir", indexDir)
	require.Equal(t, exitUsage, res.code)
	require.Contains(t, res.stderr, "invalid selection")
}

func TestCrossTab_TotalsMismatch(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	indexDir := filepath.Join(dir, "indexes")
	require.Equal(t, exitOK, runCLI(t, "", "index", "build", "--csv", exportFixture(), "--out", indexDir).code)

	res := runCLI(t, "", "crosstab", "--dir", indexDir, "--out", filepath.Join(dir, "out"), "status_dict", "patent_type_dict")
	require.Equal(t, exitFailure, res.code)
	require.Contains(t, res.stderr, "totals disagree")
}

func TestAuditVerify_RequiresSource(t *testing.T) {
	clearEnv(t)
	res := runCLI(t, "", "audit", "verify")
	require.Equal(t, exitUsage, res.code)
}

func TestParseArgs_Interspersed(t *testing.T) {
	fs := (&cli{stderr: &bytes.Buffer{}}).newFlagSet("t")
	var out string
	fs.StringVar(&out, "out", "", "")
	positional, err := parseArgs(fs, []string{"a", "--out", "x", "b"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, positional)
	require.Equal(t, "x", out)
}
