package tracking

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one line of a JSON-lines tracking log.
type Record struct {
	ID      string         `json:"id"`
	Time    time.Time      `json:"ts"`
	Kind    string         `json:"kind"`
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload,omitempty"`
}

// JSONLSink appends one Record per event.
type JSONLSink struct {
	mu  sync.Mutex
	enc *json.Encoder
	c   io.Closer
	now func() time.Time
}

// NewJSONLSink writes records to w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	s := &JSONLSink{enc: json.NewEncoder(w), now: time.Now}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

// OpenJSONL appends to the file at path, creating it and its directory.
func OpenJSONL(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create tracking directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracking file: %w", err)
	}
	return NewJSONLSink(f), nil
}

func (s *JSONLSink) Track(kind, name string, payload map[string]any) error {
	rec := Record{
		ID:      uuid.NewString(),
		Time:    s.now().UTC(),
		Kind:    kind,
		Name:    name,
		Payload: payload,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write tracking record: %w", err)
	}
	return nil
}

// Close closes the underlying writer if it is closable.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return nil
	}
	err := s.c.Close()
	s.c = nil
	return err
}
