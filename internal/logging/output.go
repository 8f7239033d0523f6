package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Output is the destination of log records.
type Output struct {
	Path   string   // File path (empty unless logging to a file)
	file   *os.File // Opened file handle (nil for stderr or disabled)
	writer io.Writer
}

// OpenOutput resolves a --log-output value.
//
//   - empty or "-": os.Stderr
//   - "none": logging disabled (io.Discard)
//   - path: appended to, parent directories are created
func OpenOutput(value string) (*Output, error) {
	switch strings.ToLower(value) {
	case "", "-":
		return &Output{writer: os.Stderr}, nil
	case "none":
		return &Output{writer: io.Discard}, nil
	}

	dir := filepath.Dir(value)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory %q: %w", dir, err)
	}
	f, err := os.OpenFile(value, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %q: %w", value, err)
	}
	return &Output{Path: value, file: f, writer: f}, nil
}

// Writer returns the io.Writer for log output.
func (o *Output) Writer() io.Writer {
	return o.writer
}

// Close closes the log file if one was opened.
func (o *Output) Close() error {
	if o.file != nil {
		return o.file.Close()
	}
	return nil
}
