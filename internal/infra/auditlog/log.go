// Package auditlog keeps the audit chain in a JSON-lines file, one sealed
// event per line.
package auditlog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"patentdesk/internal/domain"
	"patentdesk/internal/infra/canonical"
	"patentdesk/internal/usecase"
)

const maxLineBytes = 4 << 20

type Log struct {
	path string
	mu   sync.Mutex
}

func Open(path string) (*Log, error) {
	if path == "" {
		return nil, errors.New("audit log path is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit log dir: %w", err)
		}
	}
	return &Log{path: path}, nil
}

func (l *Log) Path() string {
	return l.path
}

func (l *Log) Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return domain.AuditEvent{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.read()
	if err != nil {
		return domain.AuditEvent{}, err
	}
	seq := int64(1)
	prevHash := ""
	if n := len(events); n > 0 {
		seq = events[n-1].Seq + 1
		prevHash = events[n-1].EventHash
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	sealed, payload, err := canonical.SealAuditEvent(event, seq, prevHash)
	if err != nil {
		return domain.AuditEvent{}, err
	}
	sealed.Payload = json.RawMessage(payload)

	line, err := json.Marshal(sealed)
	if err != nil {
		return domain.AuditEvent{}, err
	}
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return domain.AuditEvent{}, fmt.Errorf("open audit log: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return domain.AuditEvent{}, fmt.Errorf("append audit event: %w", err)
	}
	if err := f.Close(); err != nil {
		return domain.AuditEvent{}, err
	}
	return sealed, nil
}

func (l *Log) List(ctx context.Context) ([]domain.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

// storedEvent keeps the payload as raw JSON so it hashes exactly as written.
type storedEvent struct {
	domain.AuditEvent
	Payload json.RawMessage `json:"payload"`
}

func (l *Log) read() ([]domain.AuditEvent, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var events []domain.AuditEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var stored storedEvent
		if err := json.Unmarshal(scanner.Bytes(), &stored); err != nil {
			return nil, fmt.Errorf("audit log line %d: %w", lineNo, err)
		}
		event := stored.AuditEvent
		event.Payload = stored.Payload
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return events, nil
}

var _ usecase.AuditEventRepository = (*Log)(nil)
