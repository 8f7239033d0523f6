package yml

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseError is the only error returned by the loading functions in this package.
// It carries a single flat message and no parser-specific structure.
type ParseError struct {
	// Reason is the underlying failure without the common prefix.
	Reason string
}

func (e *ParseError) Error() string {
	return "Failed to load workflow definition because " + e.Reason + "."
}

// newParseError flattens err into a *ParseError. It returns err unchanged if it
// already is one.
func newParseError(err error) *ParseError {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe
	}
	var te *yaml.TypeError
	if errors.As(err, &te) {
		return &ParseError{Reason: "yaml: unmarshal errors: " + strings.Join(te.Errors, "; ")}
	}
	return &ParseError{Reason: flatten(err.Error())}
}

// flatten joins a multi-line library message into one line.
func flatten(msg string) string {
	lines := strings.Split(strings.TrimSpace(msg), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, " ")
}

// mark is a position in the source document. Line and Column are 1-based.
type mark struct {
	Line   int
	Column int
}

func markOf(n *yaml.Node) mark {
	if n == nil {
		return mark{}
	}
	return mark{Line: n.Line, Column: n.Column}
}

func (m mark) String() string {
	if m.Line == 0 {
		return ""
	}
	return fmt.Sprintf("line %d, column %d", m.Line, m.Column)
}

// constructError reports a problem found while building values from nodes.
// Context is optional and names the enclosing construct.
type constructError struct {
	Context     string
	ContextMark mark
	Problem     string
	ProblemMark mark
}

func (e *constructError) Error() string {
	var parts []string
	if e.Context != "" {
		parts = append(parts, withMark(e.Context, e.ContextMark))
	}
	parts = append(parts, withMark(e.Problem, e.ProblemMark))
	return strings.Join(parts, ": ")
}

func withMark(msg string, m mark) string {
	if s := m.String(); s != "" {
		return msg + " at " + s
	}
	return msg
}
