package caseindex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrUnknownColumn = errors.New("unknown column")

// Category maps an export column to the file its index is saved under.
type Category struct {
	Column string
	File   string
}

var DefaultCategories = []Category{
	{Column: "案件狀態", File: "status_dict.json"},
	{Column: "專利種類", File: "patent_type_dict.json"},
	{Column: "申請國家", File: "country_dict.json"},
	{Column: "專利權人", File: "owner_dict.json"},
	{Column: "事務所名稱", File: "agency_dict.json"},
}

// Index maps category labels to case numbers. Labels keep the order in which
// they were first seen, including across a JSON round trip.
type Index struct {
	labels []string
	cases  map[string][]string
}

func NewIndex() *Index {
	return &Index{cases: make(map[string][]string)}
}

func (idx *Index) Add(label, caseNumber string) {
	if _, ok := idx.cases[label]; !ok {
		idx.labels = append(idx.labels, label)
	}
	idx.cases[label] = append(idx.cases[label], caseNumber)
}

func (idx *Index) Labels() []string {
	out := make([]string, len(idx.labels))
	copy(out, idx.labels)
	return out
}

func (idx *Index) Cases(label string) []string {
	return idx.cases[label]
}

func (idx *Index) Len() int {
	return len(idx.labels)
}

// Total is the number of case entries across every label.
func (idx *Index) Total() int {
	total := 0
	for _, label := range idx.labels {
		total += len(idx.cases[label])
	}
	return total
}

// BuildIndex groups case numbers by the value of categoryColumn. Rows with an
// empty category or case number are skipped.
func BuildIndex(export *Export, caseColumn, categoryColumn string) (*Index, error) {
	caseCol, err := export.Column(caseColumn)
	if err != nil {
		return nil, err
	}
	catCol, err := export.Column(categoryColumn)
	if err != nil {
		return nil, err
	}
	idx := NewIndex()
	for _, row := range export.Rows {
		caseNumber, label := row[caseCol], row[catCol]
		if caseNumber == "" || label == "" {
			continue
		}
		idx.Add(label, caseNumber)
	}
	return idx, nil
}

// BuildAll builds and saves one index per category into dir and returns the
// written paths in category order.
func BuildAll(export *Export, caseColumn string, categories []Category, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	paths := make([]string, 0, len(categories))
	for _, category := range categories {
		idx, err := BuildIndex(export, caseColumn, category.Column)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, category.File)
		if err := SaveIndex(path, idx); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (idx *Index) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, label := range idx.labels {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(label)
		if err != nil {
			return nil, err
		}
		value, err := marshalNoEscape(idx.cases[label])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (idx *Index) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("index must be a JSON object")
	}
	out := NewIndex()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := tok.(string)
		if !ok {
			return errors.New("index label must be a string")
		}
		var values []any
		if err := dec.Decode(&values); err != nil {
			return fmt.Errorf("index label %q: %w", label, err)
		}
		if _, seen := out.cases[label]; !seen {
			out.labels = append(out.labels, label)
			out.cases[label] = []string{}
		}
		for _, value := range values {
			switch v := value.(type) {
			case string:
				out.cases[label] = append(out.cases[label], v)
			case json.Number:
				out.cases[label] = append(out.cases[label], v.String())
			default:
				return fmt.Errorf("index label %q: case numbers must be strings", label)
			}
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*idx = *out
	return nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// SaveIndex writes idx as JSON indented by four spaces.
func SaveIndex(path string, idx *Index) error {
	raw, err := idx.MarshalJSON()
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "    "); err != nil {
		return err
	}
	out.WriteByte('\n')
	return os.WriteFile(path, out.Bytes(), 0o644)
}

func LoadIndex(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	idx := NewIndex()
	if err := json.Unmarshal(raw, idx); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	return idx, nil
}

// ListIndexes returns the sorted names of the .json files in dir.
func ListIndexes(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// IndexName is the file name without directory and extension.
func IndexName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
