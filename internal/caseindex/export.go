// Package caseindex indexes a patent-case export by categorical columns and
// derives cross-tabulations and per-case lookups from it.
package caseindex

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

const DefaultCaseColumn = "公司案號"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Export is a case export: a header and rows padded to the header width.
type Export struct {
	Header []string
	Rows   [][]string
}

type loadOptions struct {
	encoding string
}

type LoadOption func(*loadOptions)

// WithEncoding selects the byte encoding of a CSV export: "utf-8" (default)
// or "big5".
func WithEncoding(name string) LoadOption {
	return func(o *loadOptions) {
		o.encoding = strings.ToLower(strings.TrimSpace(name))
	}
}

// LoadExport reads a CSV export. A UTF-8 byte order mark is ignored and short
// rows are padded with empty cells.
func LoadExport(r io.Reader, opts ...LoadOption) (*Export, error) {
	options := loadOptions{encoding: "utf-8"}
	for _, opt := range opts {
		opt(&options)
	}
	switch options.encoding {
	case "", "utf-8", "utf8":
	case "big5", "cp950":
		r = transform.NewReader(r, traditionalchinese.Big5.NewDecoder())
	default:
		return nil, fmt.Errorf("unsupported export encoding %q", options.encoding)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	return newExport(records)
}

// LoadExportFile reads a .csv or .xlsx export from disk. Spreadsheets are
// read from their first sheet.
func LoadExportFile(path string, opts ...LoadOption) (*Export, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadWorkbook(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadExport(f, opts...)
}

func loadWorkbook(path string) (*Export, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return newExport(rows)
}

func newExport(records [][]string) (*Export, error) {
	if len(records) == 0 {
		return nil, errors.New("export is empty")
	}
	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.TrimSpace(name)
	}

	width := len(header)
	for _, record := range records[1:] {
		if len(record) > width {
			width = len(record)
		}
	}
	for len(header) < width {
		header = append(header, fmt.Sprintf("column_%d", len(header)+1))
	}

	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]string, width)
		for i, value := range record {
			row[i] = strings.TrimSpace(value)
		}
		rows = append(rows, row)
	}
	return &Export{Header: header, Rows: rows}, nil
}

// Column returns the index of name in the header.
func (e *Export) Column(name string) (int, error) {
	for i, h := range e.Header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: column %q", ErrUnknownColumn, name)
}
