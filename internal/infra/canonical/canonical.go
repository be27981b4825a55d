// Package canonical renders JSON values in a stable byte form: object keys
// sorted, no insignificant whitespace, numbers in shortest exact decimal form.
// Two inputs that differ only in layout or key order hash identically.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
)

// MaxExponent bounds the decimal exponent of any number written out. Plain
// rendering of 1e100000000 would otherwise expand to that many digits.
const MaxExponent = 64

// ExponentInRange reports whether d can be rendered or added to another
// bounded value without expanding beyond MaxExponent digits.
func ExponentInRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	return exp >= -MaxExponent && exp <= MaxExponent
}

// JSON canonicalizes a raw JSON document.
func JSON(input []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := ensureEOF(dec); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := writeValue(buf, value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Any canonicalizes a Go value by way of its JSON encoding.
func Any(v any) ([]byte, error) {
	switch value := v.(type) {
	case json.RawMessage:
		return JSON(value)
	case []byte:
		return JSON(value)
	case string:
		return JSON([]byte(value))
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return JSON(b)
	}
}

// Digest is the lowercase sha256 hex of the canonical form of input.
func Digest(input []byte) (string, error) {
	canon, err := JSON(input)
	if err != nil {
		return "", err
	}
	return SHA256Hex(canon), nil
}

func SHA256Hex(input []byte) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:])
}

func ensureEOF(dec *json.Decoder) error {
	var extra any
	if err := dec.Decode(&extra); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return errors.New("invalid JSON: trailing data")
}

func writeValue(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		writeString(buf, v)
	case json.Number:
		num, err := decimal.NewFromString(v.String())
		if err != nil {
			return fmt.Errorf("invalid JSON number %q: %w", v.String(), err)
		}
		if !ExponentInRange(num) {
			return fmt.Errorf("JSON number %q: exponent outside ±%d", v.String(), MaxExponent)
		}
		buf.WriteString(num.String())
	case map[string]any:
		return writeObject(buf, v)
	case []any:
		return writeArray(buf, v)
	default:
		return fmt.Errorf("unsupported JSON type %T", value)
	}
	return nil
}

func writeArray(buf *bytes.Buffer, items []any) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// writeObject emits members in byte order of their keys.
func writeObject(buf *bytes.Buffer, obj map[string]any) error {
	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)

	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, name)
		buf.WriteByte(':')
		if err := writeValue(buf, obj[name]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// jsonEscapes are the two-character escapes. Other control characters use
// \u00XX; non-ASCII text is kept as UTF-8.
var jsonEscapes = map[rune]string{
	'"':  `\"`,
	'\\': `\\`,
	'\b': `\b`,
	'\f': `\f`,
	'\n': `\n`,
	'\r': `\r`,
	'\t': `\t`,
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		if esc, ok := jsonEscapes[r]; ok {
			buf.WriteString(esc)
			continue
		}
		if r < 0x20 {
			fmt.Fprintf(buf, `\u%04x`, r)
			continue
		}
		buf.WriteRune(r)
	}
	buf.WriteByte('"')
}
