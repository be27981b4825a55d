// Package reportfs stores verification reports as standalone JSON files.
// Reports are never overwritten: every run produces a new file.
package reportfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"patentdesk/internal/domain"
	"patentdesk/internal/usecase"
)

const (
	fileTimeLayout = "20060102_150405"
	maxCollisions  = 1000
)

type Writer struct {
	Dir   string
	Clock usecase.Clock
}

func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// Write creates <dir>/<stem>_verification_<YYYYMMDD_HHMMSS>.json. A name
// taken within the same second gets a numeric suffix.
func (w *Writer) Write(ctx context.Context, report domain.Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	payload, err := Encode(report)
	if err != nil {
		return "", err
	}
	dir := w.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	base := FileStem(report.OriginalFile) + "_verification_" + w.stamp(report).Format(fileTimeLayout)
	for attempt := 1; attempt <= maxCollisions; attempt++ {
		name := base
		if attempt > 1 {
			name += "_" + strconv.Itoa(attempt)
		}
		path := filepath.Join(dir, name+".json")
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create report: %w", err)
		}
		if _, err := f.Write(payload); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write report: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close report: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrReportExists, base)
}

func (w *Writer) stamp(report domain.Report) time.Time {
	if !report.CapturedAt.IsZero() {
		return report.CapturedAt
	}
	if w.Clock != nil {
		return w.Clock()
	}
	return time.Now()
}

// Encode renders a report with two-space indentation and unescaped UTF-8.
func Encode(report domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read loads a stored report for display.
func Read(path string) (domain.Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Report{}, err
	}
	var report domain.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return domain.Report{}, fmt.Errorf("decode report %s: %w", path, err)
	}
	return report, nil
}

// FileStem is the source name without directory and extension.
func FileStem(source string) string {
	base := filepath.Base(strings.TrimSpace(source))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "document"
	}
	return stem
}

var _ usecase.ReportSink = (*Writer)(nil)
