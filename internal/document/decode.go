// Package document turns raw extractor output into a domain.Document. Both
// the canonical snake_case shape and the legacy page1..page4 shape with the
// original form labels are accepted.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"patentdesk/internal/domain"
	"patentdesk/internal/infra/canonical"
)

// LegacyMarker is the top-level key that identifies the legacy shape.
const LegacyMarker = "page1"

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.SetTagName("binding")
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate = v
	})
	return validate
}

// Decode parses raw into a Document. Every failure is a
// *domain.StructuralError; no partial document is returned.
func Decode(raw []byte) (domain.Document, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return domain.Document{}, structuralFromJSON(err)
	}
	if probe == nil {
		return domain.Document{}, &domain.StructuralError{Reason: "document is null"}
	}

	var wire wireDocument
	if _, legacy := probe[LegacyMarker]; legacy {
		var doc legacyDocument
		if err := decodeInto(raw, &doc); err != nil {
			return domain.Document{}, err
		}
		wire = doc.toWire()
	} else {
		if err := decodeInto(raw, &wire); err != nil {
			return domain.Document{}, err
		}
	}
	if err := wire.checkExponents(); err != nil {
		return domain.Document{}, err
	}
	return wire.toDomain(), nil
}

func decodeInto(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return structuralFromJSON(err)
	}
	if err := structValidator().Struct(dst); err != nil {
		return structuralFromValidation(err)
	}
	return nil
}

// Digest is the canonical sha256 of raw, stable across whitespace and key
// order. It identifies the document in reports, caches and audit events.
func Digest(raw []byte) (string, error) {
	digest, err := canonical.Digest(raw)
	if err != nil {
		return "", &domain.StructuralError{Reason: err.Error()}
	}
	return digest, nil
}

func structuralFromJSON(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "$"
		}
		return &domain.StructuralError{
			Fields: []string{field},
			Reason: fmt.Sprintf("expected %s, got JSON %s", typeErr.Type, typeErr.Value),
		}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &domain.StructuralError{Reason: fmt.Sprintf("invalid JSON at offset %d: %v", syntaxErr.Offset, syntaxErr)}
	}
	return &domain.StructuralError{Reason: err.Error()}
}

func structuralFromValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &domain.StructuralError{Reason: err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldPath(fe.Namespace()))
	}
	sort.Strings(fields)
	return &domain.StructuralError{Fields: fields, Reason: "missing required fields"}
}

// fieldPath drops the Go struct name that leads every validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
