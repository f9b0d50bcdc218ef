package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bft-labs/specialists/internal/domain"
)

// AuditFile appends lifecycle events to a file, one JSON object per line.
type AuditFile struct {
	mu   sync.Mutex
	path string
	f    *os.File
	enc  *json.Encoder
}

// OpenAuditFile opens path for appending, creating it and its directory if needed.
func OpenAuditFile(path string) (*AuditFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &AuditFile{path: path, f: f, enc: json.NewEncoder(f)}, nil
}

// Record writes ev as a single line.
func (a *AuditFile) Record(_ context.Context, ev domain.LifecycleEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.f == nil {
		return os.ErrClosed
	}
	return a.enc.Encode(ev)
}

// Close flushes and closes the file. Later Record calls fail.
func (a *AuditFile) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.f == nil {
		return nil
	}
	err := a.f.Close()
	a.f = nil
	return err
}

// Path returns the file being written.
func (a *AuditFile) Path() string { return a.path }

// ReadAuditFile decodes every event in an audit file written by AuditFile.
func ReadAuditFile(path string) ([]domain.LifecycleEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []domain.LifecycleEvent
	dec := json.NewDecoder(f)
	for dec.More() {
		var ev domain.LifecycleEvent
		if err := dec.Decode(&ev); err != nil {
			return out, fmt.Errorf("decode event %d: %w", len(out)+1, err)
		}
		out = append(out, ev)
	}
	return out, nil
}
