// Package matcher answers whether a message key starts with one of a fixed set of
// literal prefixes. Prefixes are never interpreted as patterns.
package matcher

import (
	"errors"
	"fmt"

	"github.com/armon/go-radix"
)

// ErrEmptyPrefix is returned when the configured prefix list contains an empty string.
var ErrEmptyPrefix = errors.New("matcher: empty prefix is not allowed")

// Matcher is an immutable literal prefix set. The zero value and a nil *Matcher never match.
type Matcher struct {
	tree     *radix.Tree
	prefixes []string
}

// New builds a Matcher from an ordered prefix list. Duplicates are collapsed, the
// first occurrence keeps its position.
func New(prefixes []string) (*Matcher, error) {
	tree := radix.New()
	ordered := make([]string, 0, len(prefixes))

	for i, p := range prefixes {
		if p == "" {
			return nil, fmt.Errorf("prefix at position %d: %w", i, ErrEmptyPrefix)
		}
		if _, exists := tree.Get(p); exists {
			continue
		}
		tree.Insert(p, struct{}{})
		ordered = append(ordered, p)
	}

	return &Matcher{tree: tree, prefixes: ordered}, nil
}

// MustNew is like New but panics on invalid input. Intended for static prefix lists.
func MustNew(prefixes ...string) *Matcher {
	m, err := New(prefixes)
	if err != nil {
		panic(err)
	}
	return m
}

// Matches reports whether text begins with any configured prefix.
func (m *Matcher) Matches(text string) bool {
	if m == nil || m.tree == nil || m.tree.Len() == 0 {
		return false
	}
	_, _, found := m.tree.LongestPrefix(text)
	return found
}

// Prefixes returns a copy of the configured prefixes.
func (m *Matcher) Prefixes() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.prefixes))
	copy(out, m.prefixes)
	return out
}

// Len is the number of distinct prefixes.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.prefixes)
}
