// Package definition reads workflow definition files from disk and parses them
// with the strict YAML loader.
package definition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kompox/wfdef/internal/logging"
	"github.com/kompox/wfdef/yml"
)

// Document is one parsed workflow definition.
type Document struct {
	// Path is the file path (or input name) the document was loaded from.
	Path string
	// Index is the 1-based position of this document within its source.
	Index int
	// Definition is the root mapping of the document.
	Definition *yml.Mapping
}

// Ref returns "path#index", the name used in reports.
func (d Document) Ref() string {
	return fmt.Sprintf("%s#%d", d.Path, d.Index)
}

// LoaderResult contains the results of loading definition documents.
type LoaderResult struct {
	Documents []Document
	Errors    []error
}

func (r *LoaderResult) merge(o *LoaderResult) {
	r.Documents = append(r.Documents, o.Documents...)
	r.Errors = append(r.Errors, o.Errors...)
}

// Loader loads definition documents from files and directories.
type Loader struct {
	// MaxFileSize is the maximum file size in bytes to read (default: 10MB).
	MaxFileSize int64
	// Parser parses each file. Nil means a strict yml.Loader.
	Parser *yml.Loader
}

// NewLoader creates a new Loader with default settings.
func NewLoader() *Loader {
	return &Loader{
		MaxFileSize: 10 * 1024 * 1024, // 10MB
		Parser:      yml.New(),
	}
}

// Load loads definition documents from the given path (file or directory).
// If the path is a directory, it recursively scans for .yml and .yaml files.
// Problems with individual files or documents are collected in the result.
func (l *Loader) Load(ctx context.Context, path string) (*LoaderResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat path %q: %w", path, err)
	}

	if info.IsDir() {
		return l.loadDirectory(ctx, path)
	}
	return l.loadFile(ctx, path)
}

// LoadBytes loads definition documents from in-memory data. name is used as
// the document path.
func (l *Loader) LoadBytes(ctx context.Context, name string, data []byte) (*LoaderResult, error) {
	if l.MaxFileSize > 0 && int64(len(data)) > l.MaxFileSize {
		return nil, fmt.Errorf("input %q exceeds max size %d bytes", name, l.MaxFileSize)
	}
	return l.decode(ctx, name, bytes.NewReader(data)), nil
}

func (l *Loader) loadDirectory(ctx context.Context, dir string) (*LoaderResult, error) {
	result := &LoaderResult{
		Documents: make([]Document, 0),
		Errors:    make([]error, 0),
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("walk error at %q: %w", path, err))
			return nil // Continue walking
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}

		fileResult, err := l.loadFile(ctx, path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("loading %q: %w", path, err))
			return nil // Continue walking
		}
		result.merge(fileResult)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory %q: %w", dir, err)
	}

	return result, nil
}

func (l *Loader) loadFile(ctx context.Context, path string) (*LoaderResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %q: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file %q: %w", path, err)
	}
	if l.MaxFileSize > 0 && info.Size() > l.MaxFileSize {
		return nil, fmt.Errorf("file %q exceeds max size %d bytes", path, l.MaxFileSize)
	}

	return l.decode(ctx, path, file), nil
}

// decode reads every document in r. Empty documents are skipped; documents
// that fail to parse or are not mappings are reported and decoding goes on
// with the next one.
func (l *Loader) decode(ctx context.Context, path string, r io.Reader) *LoaderResult {
	logger := logging.FromContext(ctx).With("path", path)
	result := &LoaderResult{
		Documents: make([]Document, 0),
		Errors:    make([]error, 0),
	}

	parser := l.Parser
	if parser == nil {
		parser = yml.New()
	}
	dec := parser.NewDecoder(r)
	for index := 1; ; index++ {
		v, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("document %d in %q: %w", index, path, err))
			continue
		}
		if v == nil {
			logger.Debug(ctx, "skipping empty document", "index", index)
			continue
		}
		m, ok := v.(*yml.Mapping)
		if !ok {
			result.Errors = append(result.Errors, fmt.Errorf("document %d in %q: definition must be a mapping, got %s", index, path, kindOf(v)))
			continue
		}
		result.Documents = append(result.Documents, Document{Path: path, Index: index, Definition: m})
	}

	logger.Debug(ctx, "loaded definitions", "documents", len(result.Documents), "errors", len(result.Errors))
	return result
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yml" || ext == ".yaml"
}

func kindOf(v any) string {
	switch v.(type) {
	case []any:
		return "sequence"
	default:
		return "scalar"
	}
}
