// Package yml loads workflow definition documents from YAML.
//
// The loader is a strict layer over gopkg.in/yaml.v3. It walks the parsed node
// tree itself instead of handing it to the yaml.v3 decoder, so every mapping is
// checked as it is built:
//
//   - a key that appears twice in the same mapping is rejected
//   - a key that resolves to a mapping or a sequence is rejected
//   - mapping order is kept in the returned *Mapping values
//
// Sequences and scalars follow the standard yaml.v3 resolution rules. Anchors,
// aliases and merge keys (<<) are supported.
//
// Every failure, whether it comes from the YAML grammar or from the checks
// above, is returned as a *ParseError with a flat, printable message.
//
// A Loader holds configuration only. It is safe to share one Loader between
// goroutines; each call builds its result from scratch.
package yml
