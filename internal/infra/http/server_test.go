package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"patentdesk/internal/caseindex"
	"patentdesk/internal/config"
	"patentdesk/internal/domain"
	"patentdesk/internal/infra/auditlog"
	"patentdesk/internal/infra/reportfs"
	"patentdesk/internal/registry"
	"patentdesk/internal/usecase"
)

type testServer struct {
	srv   *Server
	audit *auditlog.Log
	dir   string
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg, err := registry.Default()
	require.NoError(t, err)
	dir := t.TempDir()
	audit, err := auditlog.Open(filepath.Join(dir, "audit.jsonl"))
	require.NoError(t, err)

	export, err := caseindex.LoadExportFile(filepath.Join("..", "..", "caseindex", "testdata", "export.csv"))
	require.NoError(t, err)
	cases, err := caseindex.NewCaseSearcher(export, caseindex.DefaultCaseColumn)
	require.NoError(t, err)

	run := &usecase.RunVerification{
		Engine:    &usecase.VerifyDocument{Registry: reg},
		Sink:      reportfs.NewWriter(filepath.Join(dir, "reports")),
		Audit:     usecase.NewAuditEmitter(audit, nil),
		ActorType: domain.AuditActorService,
	}
	srv := NewServerWithDeps(config.Config{}, ServerDeps{Run: run, Cases: cases, Audit: audit})
	return testServer{srv: srv, audit: audit, dir: dir}
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "document", "testdata", name))
	require.NoError(t, err)
	return raw
}

func (ts testServer) do(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ts.srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok","audit":"on","cases":true}`, w.Body.String())
}

func TestVerifyEndpoint_Pass(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/v1/verifications?source="+url.QueryEscape("inbox/請款單.json"), fixture(t, "legacy.json"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp verificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, domain.OverallPass, resp.Report.OverallStatus)
	require.Equal(t, "inbox/請款單.json", resp.Report.OriginalFile)
	require.Equal(t, "invoicing", resp.Report.Profile)
	require.Empty(t, resp.Report.Errors)
	require.True(t, strings.HasPrefix(filepath.Base(resp.ReportPath), "請款單_verification_"))

	events, err := ts.audit.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, domain.AuditActorService, events[0].ActorType)
}

func TestVerifyEndpoint_FailingDocumentStill200(t *testing.T) {
	ts := newTestServer(t)
	body := bytes.Replace(fixture(t, "canonical.json"), []byte(`"total_payment": 1200`), []byte(`"total_payment": 1300`), 1)
	require.NotEqual(t, fixture(t, "canonical.json"), body)

	w := ts.do(t, http.MethodPost, "/v1/verifications?profile=billing", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp verificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, domain.OverallFail, resp.Report.OverallStatus)
	require.Equal(t, "billing", resp.Report.Profile)
	require.Nil(t, resp.Report.Details.Invoice)
	require.NotEmpty(t, resp.Report.Errors)
}

func TestVerifyEndpoint_StructuralError(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/v1/verifications", []byte(`{"payment_summary": {}}`))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "STRUCTURAL_ERROR", resp.Code)
	require.NotEmpty(t, resp.Details["fields"])

	events, err := ts.audit.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, domain.AuditEventDocumentRejected, events[0].EventType)

	entries, err := os.ReadDir(ts.dir)
	require.NoError(t, err)
	for _, entry := range entries {
		require.NotEqual(t, "reports", entry.Name(), "no report for a structural error")
	}
}

func TestVerifyEndpoint_UnknownProfile(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/v1/verifications?profile=tax", fixture(t, "canonical.json"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "UNKNOWN_PROFILE")
}

func TestVerifyEndpoint_BodyTooLarge(t *testing.T) {
	ts := newTestServer(t)
	ts.srv.maxBodyBytes = 16
	w := ts.do(t, http.MethodPost, "/v1/verifications", fixture(t, "canonical.json"))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestVerifyEndpoint_NotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := NewServerWithDeps(config.Config{}, ServerDeps{})
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/verifications", strings.NewReader("{}")))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCaseEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/cases/P002", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp caseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "P002", resp.CaseNumber)
	require.Equal(t, caseindex.Field{Name: "案件狀態", Value: "已核准"}, resp.Fields[1])

	w = ts.do(t, http.MethodGet, "/v1/cases/P404", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestCaseEndpoint_NoExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := NewServerWithDeps(config.Config{}, ServerDeps{})
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/cases/P001", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuditChainEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/v1/verifications", fixture(t, "canonical.json"))
	ts.do(t, http.MethodPost, "/v1/verifications", fixture(t, "legacy.json"))

	w := ts.do(t, http.MethodGet, "/v1/audit/chain", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"events":2,"valid":true}`, w.Body.String())

	raw, err := os.ReadFile(ts.audit.Path())
	require.NoError(t, err)
	tampered := strings.Replace(string(raw), `"result":"success"`, `"result":"failure"`, 1)
	require.NoError(t, os.WriteFile(ts.audit.Path(), []byte(tampered), 0o600))

	w = ts.do(t, http.MethodGet, "/v1/audit/chain", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "AUDIT_CHAIN_INVALID")
}

func TestNoRoute(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/v2/anything", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
