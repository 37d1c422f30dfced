package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// DefaultPath is where measurements go when no path is configured.
var DefaultPath = filepath.Join(os.TempDir(), "webvitals.ndjson")

// FileSink appends one JSON document per line to a file.
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink creates a sink for path. The file is created on first write.
func NewFileSink(path string) *FileSink {
	if path == "" {
		path = DefaultPath
	}
	return &FileSink{path: path}
}

// Path returns the file the sink writes to.
func (f *FileSink) Path() string {
	return f.path
}

func (f *FileSink) Record(_ context.Context, doc map[string]any) error {
	line, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode measurement: %w", err)
	}
	line = append(line, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open measurements file: %w", err)
	}
	if _, err := file.Write(line); err != nil {
		file.Close()
		return fmt.Errorf("failed to write measurement: %w", err)
	}
	return file.Close()
}

// ReadAll returns the raw NDJSON contents. A file that doesn't exist yet
// reads as empty.
func (f *FileSink) ReadAll() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read measurements file: %w", err)
	}
	return data, nil
}
