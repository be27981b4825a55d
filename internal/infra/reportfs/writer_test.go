package reportfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"patentdesk/internal/domain"
)

func sampleReport() domain.Report {
	return domain.Report{
		ReportID:            "r-1",
		VerificationTime:    "2026-03-04 05:06:07",
		OriginalFile:        "inbox/請款單_0301.json",
		Profile:             "invoicing",
		VerificationResults: []string{"✅ payment summary: totals agree"},
		Errors:              []string{},
		OverallStatus:       domain.OverallPass,
		CapturedAt:          time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local),
	}
}

func TestWriter_WritesTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	path, err := w.Write(context.Background(), sampleReport())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "請款單_0301_verification_20260304_050607.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "\n  \"report_id\": \"r-1\"")
	require.Contains(t, string(raw), "請款單_0301.json")
	require.Contains(t, string(raw), "✅")
	require.NotContains(t, string(raw), "CapturedAt")

	got, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, "r-1", got.ReportID)
	require.True(t, got.Passed())
}

func TestWriter_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	report := sampleReport()

	first, err := w.Write(context.Background(), report)
	require.NoError(t, err)
	report.ReportID = "r-2"
	second, err := w.Write(context.Background(), report)
	require.NoError(t, err)
	report.ReportID = "r-3"
	third, err := w.Write(context.Background(), report)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.Equal(t, filepath.Join(dir, "請款單_0301_verification_20260304_050607_2.json"), second)
	require.Equal(t, filepath.Join(dir, "請款單_0301_verification_20260304_050607_3.json"), third)

	got, err := Read(first)
	require.NoError(t, err)
	require.Equal(t, "r-1", got.ReportID)
}

func TestWriter_UsesClockWithoutCaptureTime(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, Clock: func() time.Time { return time.Date(2025, 12, 31, 23, 59, 58, 0, time.Local) }}
	report := sampleReport()
	report.CapturedAt = time.Time{}
	report.OriginalFile = ""

	path, err := w.Write(context.Background(), report)
	require.NoError(t, err)
	require.Equal(t, "document_verification_20251231_235958.json", filepath.Base(path))
}

func TestWriter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewWriter(t.TempDir()).Write(ctx, sampleReport())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = Read(path)
	require.ErrorContains(t, err, "decode report")
}

func TestFileStem(t *testing.T) {
	require.Equal(t, "a", FileStem("dir/a.json"))
	require.Equal(t, "a.b", FileStem("a.b.json"))
	require.Equal(t, "document", FileStem(""))
}
