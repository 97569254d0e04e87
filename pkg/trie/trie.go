// Package trie implements a small path trie used to route engine names to
// registered handlers. Patterns use "/"-separated segments; "+" matches
// exactly one segment and "#" matches all remaining segments.
package trie

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidPattern is returned for malformed patterns, e.g. a "#" that is
// not the final segment.
var ErrInvalidPattern = errors.New("trie: pattern must look like a/b/c, a/+/c, or a/#")

// ErrDuplicatePattern is returned when a pattern is registered twice.
var ErrDuplicatePattern = errors.New("trie: pattern already registered")

// Trie routes slash-separated paths to values. Lookup precedence per
// segment is exact match, then "+", then "#".
type Trie[T any] struct {
	children map[string]*Trie[T]
	plus     *Trie[T] // "+" single-segment wildcard
	hash     *Trie[T] // "#" tail wildcard
	set      bool
	value    T
}

// New creates an empty Trie.
func New[T any]() *Trie[T] {
	return &Trie[T]{}
}

// Add stores value under pattern. Registering a pattern twice fails with
// ErrDuplicatePattern.
func (t *Trie[T]) Add(pattern string, value T) error {
	node, err := t.insert(pattern)
	if err != nil {
		return err
	}
	if node.set {
		return fmt.Errorf("%w: %s", ErrDuplicatePattern, pattern)
	}
	node.value = value
	node.set = true
	return nil
}

func (t *Trie[T]) insert(pattern string) (*Trie[T], error) {
	if pattern == "" {
		return t, nil
	}
	seg, rest, _ := strings.Cut(pattern, "/")
	switch seg {
	case "+":
		if t.plus == nil {
			t.plus = &Trie[T]{}
		}
		return t.plus.insert(rest)
	case "#":
		if rest != "" {
			return nil, ErrInvalidPattern
		}
		if t.hash == nil {
			t.hash = &Trie[T]{}
		}
		return t.hash, nil
	default:
		if t.children == nil {
			t.children = make(map[string]*Trie[T])
		}
		child, ok := t.children[seg]
		if !ok {
			child = &Trie[T]{}
			t.children[seg] = child
		}
		return child.insert(rest)
	}
}

// Lookup finds the value whose pattern matches path and reports the pattern
// that matched. Exact segments win over "+", which wins over "#".
func (t *Trie[T]) Lookup(path string) (value T, pattern string, ok bool) {
	node, matched := t.match(nil, path)
	if node == nil {
		var zero T
		return zero, "", false
	}
	return node.value, strings.Join(matched, "/"), true
}

func (t *Trie[T]) match(matched []string, path string) (*Trie[T], []string) {
	if path == "" {
		if t.set {
			return t, matched
		}
		return nil, nil
	}
	seg, rest, _ := strings.Cut(path, "/")
	if child, ok := t.children[seg]; ok {
		if node, m := child.match(append(matched, seg), rest); node != nil {
			return node, m
		}
	}
	if t.plus != nil {
		if node, m := t.plus.match(append(matched, "+"), rest); node != nil {
			return node, m
		}
	}
	if t.hash != nil && t.hash.set {
		return t.hash, append(matched, "#")
	}
	return nil, nil
}

// Patterns returns every registered pattern, sorted.
func (t *Trie[T]) Patterns() []string {
	var out []string
	t.walk(nil, func(path []string, node *Trie[T]) {
		if node.set {
			out = append(out, strings.Join(path, "/"))
		}
	})
	sort.Strings(out)
	return out
}

func (t *Trie[T]) walk(path []string, f func([]string, *Trie[T])) {
	f(path, t)
	for seg, child := range t.children {
		child.walk(append(path, seg), f)
	}
	if t.plus != nil {
		t.plus.walk(append(path, "+"), f)
	}
	if t.hash != nil {
		t.hash.walk(append(path, "#"), f)
	}
}

// Len returns the number of registered patterns.
func (t *Trie[T]) Len() int {
	n := 0
	t.walk(nil, func(_ []string, node *Trie[T]) {
		if node.set {
			n++
		}
	})
	return n
}

// String lists the registered patterns with their values, sorted.
func (t *Trie[T]) String() string {
	var lines []string
	t.walk(nil, func(path []string, node *Trie[T]) {
		if node.set {
			lines = append(lines, fmt.Sprintf("%s: %v", strings.Join(path, "/"), node.value))
		}
	})
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
