package csvfile

import (
	"context"
	"fmt"
	"io"
	"os"
)

// FileSource reads the upstream export from the local filesystem.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Open opens the raw export for reading.
func (s *FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open raw data: %w", err)
	}
	return f, nil
}

// Path is the location the source reads from.
func (s *FileSource) Path() string {
	return s.path
}
