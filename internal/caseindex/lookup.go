package caseindex

import (
	"fmt"

	"patentdesk/internal/domain"
)

type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CaseSearcher finds export rows by case number. When a case number repeats,
// the last row wins, as a later export line amends an earlier one.
type CaseSearcher struct {
	header []string
	rows   map[string][]string
}

func NewCaseSearcher(export *Export, caseColumn string) (*CaseSearcher, error) {
	col, err := export.Column(caseColumn)
	if err != nil {
		return nil, err
	}
	rows := make(map[string][]string, len(export.Rows))
	for _, row := range export.Rows {
		key := row[col]
		if key == "" {
			continue
		}
		rows[key] = row
	}
	return &CaseSearcher{header: export.Header, rows: rows}, nil
}

// Lookup returns the non-empty fields of a case in column order.
func (s *CaseSearcher) Lookup(caseNumber string) ([]Field, error) {
	row, ok := s.rows[caseNumber]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", caseNumber, domain.ErrNotFound)
	}
	fields := make([]Field, 0, len(row))
	for i, value := range row {
		if value == "" {
			continue
		}
		fields = append(fields, Field{Name: s.header[i], Value: value})
	}
	return fields, nil
}

func (s *CaseSearcher) Len() int {
	return len(s.rows)
}
