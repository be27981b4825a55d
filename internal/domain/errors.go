package domain

import (
	"errors"
	"strings"
)

var (
	ErrMalformedDocument = errors.New("malformed document")
	ErrNotFound          = errors.New("not found")
	ErrUnknownProfile    = errors.New("unknown detail profile")
	ErrDuplicateTaxID    = errors.New("duplicate tax id")
	ErrEmptyTaxID        = errors.New("empty tax id")
	ErrReportExists      = errors.New("report already exists")
)

// StructuralError reports a document that cannot be verified at all: a
// missing section or field, or a value of the wrong shape.
type StructuralError struct {
	Fields []string
	Reason string
}

func (e *StructuralError) Error() string {
	var b strings.Builder
	b.WriteString(ErrMalformedDocument.Error())
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if len(e.Fields) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.Fields, ", "))
		b.WriteString("]")
	}
	return b.String()
}

func (e *StructuralError) Unwrap() error {
	return ErrMalformedDocument
}
