package yml

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// constructor turns one yaml.v3 document tree into native values.
// A new constructor is used for every document.
type constructor struct {
	allowDuplicates bool
	maxDepth        int
	maxAliasNodes   int

	depth    int
	anchors  map[*yaml.Node]any
	building map[*yaml.Node]bool

	// nodes counts values as they would appear with every alias expanded;
	// sizes holds that count for each anchored subtree.
	nodes      int
	aliasNodes int
	sizes      map[*yaml.Node]int
}

func (l *Loader) newConstructor() *constructor {
	maxDepth := l.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	maxAliasNodes := l.MaxAliasExpansion
	if maxAliasNodes <= 0 {
		maxAliasNodes = DefaultMaxAliasExpansion
	}
	return &constructor{
		allowDuplicates: l.AllowDuplicateKeys,
		maxDepth:        maxDepth,
		maxAliasNodes:   maxAliasNodes,
		anchors:         make(map[*yaml.Node]any),
		building:        make(map[*yaml.Node]bool),
		sizes:           make(map[*yaml.Node]int),
	}
}

// document returns the value of the root node of doc, or nil for an empty document.
func (c *constructor) document(doc *yaml.Node) (any, error) {
	if doc.Kind != yaml.DocumentNode {
		return c.construct(doc)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	return c.construct(doc.Content[0])
}

func (c *constructor) construct(n *yaml.Node) (any, error) {
	if n.Kind == yaml.AliasNode {
		return c.alias(n)
	}
	if err := checkTag(n); err != nil {
		return nil, err
	}
	if n.Anchor == "" {
		return c.constructNode(n)
	}
	c.building[n] = true
	before := c.nodes
	v, err := c.constructNode(n)
	delete(c.building, n)
	if err != nil {
		return nil, err
	}
	c.anchors[n] = v
	c.sizes[n] = c.nodes - before
	return v, nil
}

// standardTags are the tags with a known construction. Any other explicit
// tag is rejected.
var standardTags = map[string]bool{
	"!!str":       true,
	"!!int":       true,
	"!!float":     true,
	"!!bool":      true,
	"!!null":      true,
	"!!binary":    true,
	"!!timestamp": true,
	"!!map":       true,
	"!!seq":       true,
	"!!merge":     true,
}

func checkTag(n *yaml.Node) error {
	if n.Tag == "" || n.Tag == "!" || standardTags[n.ShortTag()] {
		return nil
	}
	return &constructError{
		Problem:     fmt.Sprintf("could not determine a constructor for the tag %q", n.Tag),
		ProblemMark: markOf(n),
	}
}

func (c *constructor) constructNode(n *yaml.Node) (any, error) {
	c.nodes++
	switch n.Kind {
	case yaml.MappingNode:
		return c.constructMapping(n)
	case yaml.SequenceNode:
		return c.constructSequence(n)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	case yaml.DocumentNode:
		return c.document(n)
	default:
		return nil, &constructError{
			Problem:     fmt.Sprintf("unexpected %s node", kindName(n.Kind)),
			ProblemMark: markOf(n),
		}
	}
}

// alias returns the value already built for the anchored node.
func (c *constructor) alias(n *yaml.Node) (any, error) {
	target := n.Alias
	if target == nil {
		return nil, &constructError{
			Problem:     fmt.Sprintf("found undefined alias %q", n.Value),
			ProblemMark: markOf(n),
		}
	}
	if c.building[target] {
		return nil, &constructError{
			Context:     fmt.Sprintf("while constructing anchor %q", target.Anchor),
			ContextMark: markOf(target),
			Problem:     "found alias to an anchor that contains itself",
			ProblemMark: markOf(n),
		}
	}
	if v, ok := c.anchors[target]; ok {
		size := c.sizes[target]
		c.nodes += size
		c.aliasNodes += size
		if c.aliasNodes > c.maxAliasNodes {
			return nil, &constructError{
				Problem:     fmt.Sprintf("document contains excessive aliasing (more than %d nodes expanded through aliases)", c.maxAliasNodes),
				ProblemMark: markOf(n),
			}
		}
		return v, nil
	}
	return c.construct(target)
}

func (c *constructor) enter(n *yaml.Node) error {
	c.depth++
	if c.depth > c.maxDepth {
		return &constructError{
			Problem:     fmt.Sprintf("exceeded max nesting depth of %d", c.maxDepth),
			ProblemMark: markOf(n),
		}
	}
	return nil
}

func (c *constructor) leave() { c.depth-- }

func (c *constructor) constructSequence(n *yaml.Node) ([]any, error) {
	if err := c.enter(n); err != nil {
		return nil, err
	}
	defer c.leave()

	items := make([]any, 0, len(n.Content))
	for _, item := range n.Content {
		v, err := c.construct(item)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

// constructMapping builds a *Mapping from a mapping node, rejecting
// unhashable and duplicate keys.
func (c *constructor) constructMapping(n *yaml.Node) (*Mapping, error) {
	if n.Kind != yaml.MappingNode {
		return nil, &constructError{
			Problem:     fmt.Sprintf("expected a mapping node, found %s", kindName(n.Kind)),
			ProblemMark: markOf(n),
		}
	}
	if err := c.enter(n); err != nil {
		return nil, err
	}
	defer c.leave()

	m := NewMapping()
	var merged []*Mapping
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valueNode := n.Content[i], n.Content[i+1]

		if isMergeKey(keyNode) {
			sources, err := c.mergeSources(n, valueNode)
			if err != nil {
				return nil, err
			}
			merged = append(merged, sources...)
			continue
		}

		key, err := c.construct(keyNode)
		if err != nil {
			return nil, err
		}
		if !hashable(key) {
			return nil, &constructError{
				Context:     "while constructing a mapping",
				ContextMark: markOf(n),
				Problem:     fmt.Sprintf("found unacceptable key (unhashable type: %s)", typeName(key)),
				ProblemMark: markOf(keyNode),
			}
		}
		if _, exists := m.Get(key); exists && !c.allowDuplicates {
			return nil, &constructError{
				Problem:     fmt.Sprintf("found duplicate key %q", keyText(keyNode)),
				ProblemMark: markOf(keyNode),
			}
		}

		value, err := c.construct(valueNode)
		if err != nil {
			return nil, err
		}
		m.Set(key, value)
	}

	if len(merged) == 0 {
		return m, nil
	}

	// Merged keys come first; explicit keys override them and earlier
	// sources win over later ones.
	out := NewMapping()
	for _, src := range merged {
		for k, v := range src.All() {
			if _, ok := m.Get(k); ok {
				continue
			}
			if _, ok := out.Get(k); ok {
				continue
			}
			out.Set(k, v)
		}
	}
	for k, v := range m.All() {
		out.Set(k, v)
	}
	return out, nil
}

// mergeSources returns the mappings referenced by the value of a merge key.
func (c *constructor) mergeSources(parent, value *yaml.Node) ([]*Mapping, error) {
	switch resolveAlias(value).Kind {
	case yaml.MappingNode:
		m, err := c.mergeSource(parent, value)
		if err != nil {
			return nil, err
		}
		return []*Mapping{m}, nil
	case yaml.SequenceNode:
		target := resolveAlias(value)
		sources := make([]*Mapping, 0, len(target.Content))
		for _, item := range target.Content {
			m, err := c.mergeSource(parent, item)
			if err != nil {
				return nil, err
			}
			sources = append(sources, m)
		}
		return sources, nil
	default:
		return nil, mergeError(parent, value)
	}
}

func (c *constructor) mergeSource(parent, n *yaml.Node) (*Mapping, error) {
	if resolveAlias(n).Kind != yaml.MappingNode {
		return nil, mergeError(parent, n)
	}
	v, err := c.construct(n)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*Mapping)
	if !ok {
		return nil, mergeError(parent, n)
	}
	return m, nil
}

func mergeError(parent, n *yaml.Node) error {
	return &constructError{
		Context:     "while constructing a mapping",
		ContextMark: markOf(parent),
		Problem:     fmt.Sprintf("expected a mapping or list of mappings for merging, found %s", kindName(resolveAlias(n).Kind)),
		ProblemMark: markOf(n),
	}
}

func isMergeKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!merge"
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// keyText is the literal source text of a key node. An alias names the
// text of the node it refers to.
func keyText(n *yaml.Node) string {
	return resolveAlias(n).Value
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
