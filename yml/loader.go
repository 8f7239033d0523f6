package yml

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxDepth is the nesting limit used when Loader.MaxDepth is zero.
	DefaultMaxDepth = 1000
	// DefaultMaxAliasExpansion is the alias expansion limit used when
	// Loader.MaxAliasExpansion is zero.
	DefaultMaxAliasExpansion = 1_000_000
)

// Loader parses YAML documents into Mapping, []any and scalar values.
// The zero value rejects duplicate keys and is ready to use.
type Loader struct {
	// AllowDuplicateKeys lets a repeated key replace the earlier value
	// instead of failing the load.
	AllowDuplicateKeys bool
	// MaxDepth limits how deeply mappings and sequences may nest.
	MaxDepth int
	// MaxAliasExpansion limits how many nodes a document may reach through
	// aliases when every alias is expanded in place.
	MaxAliasExpansion int
}

// New returns a Loader with strict defaults.
func New() *Loader {
	return &Loader{MaxDepth: DefaultMaxDepth, MaxAliasExpansion: DefaultMaxAliasExpansion}
}

var defaultLoader = New()

// SafeLoad parses a single workflow definition document with the strict
// default Loader.
func SafeLoad(definition string) (any, error) {
	return defaultLoader.LoadString(definition)
}

// Load parses exactly one document. An empty stream yields nil.
func (l *Loader) Load(data []byte) (any, error) {
	v, err := l.loadSingle(bytes.NewReader(data))
	if err != nil {
		return nil, newParseError(err)
	}
	return v, nil
}

// LoadString is Load for a string.
func (l *Loader) LoadString(s string) (any, error) {
	v, err := l.loadSingle(strings.NewReader(s))
	if err != nil {
		return nil, newParseError(err)
	}
	return v, nil
}

// LoadReader is Load for a stream.
func (l *Loader) LoadReader(r io.Reader) (any, error) {
	v, err := l.loadSingle(r)
	if err != nil {
		return nil, newParseError(err)
	}
	return v, nil
}

// LoadMapping parses exactly one document whose root must be a mapping.
func (l *Loader) LoadMapping(data []byte) (*Mapping, error) {
	doc, err := l.singleDocument(bytes.NewReader(data))
	if err != nil {
		return nil, newParseError(err)
	}
	if doc == nil {
		return nil, &ParseError{Reason: "expected a mapping node, found empty stream"}
	}
	root := doc
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root = doc.Content[0]
	}
	m, err := l.newConstructor().constructMapping(resolveAlias(root))
	if err != nil {
		return nil, newParseError(err)
	}
	return m, nil
}

// LoadAll parses every document of a multi-document stream. Either all
// documents load or none are returned.
func (l *Loader) LoadAll(data []byte) ([]any, error) {
	dec := l.NewDecoder(bytes.NewReader(data))
	var docs []any
	for {
		v, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, v)
	}
}

func (l *Loader) loadSingle(r io.Reader) (any, error) {
	doc, err := l.singleDocument(r)
	if err != nil || doc == nil {
		return nil, err
	}
	return l.newConstructor().document(doc)
}

// singleDocument reads the only document node of r, or nil for an empty stream.
func (l *Loader) singleDocument(r io.Reader) (*yaml.Node, error) {
	dec := yaml.NewDecoder(r)
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	var next yaml.Node
	switch err := dec.Decode(&next); {
	case err == nil:
		return nil, &constructError{
			Context:     "expected a single document in the stream",
			ContextMark: markOf(&doc),
			Problem:     "but found another document",
			ProblemMark: markOf(&next),
		}
	case !errors.Is(err, io.EOF):
		return nil, err
	}
	return &doc, nil
}

// Decoder reads successive documents from a YAML stream.
type Decoder struct {
	loader *Loader
	dec    *yaml.Decoder
	done   bool
}

// NewDecoder returns a Decoder reading from r with the settings of l.
func (l *Loader) NewDecoder(r io.Reader) *Decoder {
	return &Decoder{loader: l, dec: yaml.NewDecoder(r)}
}

// Decode returns the value of the next document, or io.EOF at the end of the
// stream. A construction error only affects the current document, so the
// caller may keep decoding. After a syntax error the stream cannot be
// resynchronised and every later call returns io.EOF.
func (d *Decoder) Decode() (any, error) {
	if d.done {
		return nil, io.EOF
	}
	var doc yaml.Node
	if err := d.dec.Decode(&doc); err != nil {
		d.done = true
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, newParseError(err)
	}
	v, err := d.loader.newConstructor().document(&doc)
	if err != nil {
		return nil, newParseError(err)
	}
	return v, nil
}
