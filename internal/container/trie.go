/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package container holds the dotted-key trie behind the template registry.
package container

import (
	"cmp"
	"slices"
	"strings"
)

// Separator splits keys into parts.
const Separator = '.'

// walkParts calls fn for each non-empty part of key.
// It stops when fn returns false and reports whether it ran to the end.
func walkParts(key string, fn func(part string) bool) bool {
	start := 0
	for i := 0; i <= len(key); i++ {
		if i < len(key) && key[i] != Separator {
			continue
		}
		if i > start && !fn(key[start:i]) {
			return false
		}
		start = i + 1
	}
	return true
}

type node[T any] struct {
	part     string
	children []*node[T] // sorted by part
	value    T
	hasValue bool
}

func (n *node[T]) child(part string) (int, bool) {
	return slices.BinarySearchFunc(n.children, part, func(c *node[T], part string) int {
		return cmp.Compare(c.part, part)
	})
}

// Trie maps dotted keys like "user.findByDept" to values.
// Keys sharing a namespace share their prefix nodes.
// A Trie is not safe for concurrent use.
type Trie[T any] struct {
	root node[T]
	size int
}

// NewTrie creates a new Trie instance.
func NewTrie[T any]() *Trie[T] {
	return &Trie[T]{}
}

// find returns the node of key, or nil.
func (t *Trie[T]) find(key string) *node[T] {
	current := &t.root
	found := walkParts(key, func(part string) bool {
		idx, ok := current.child(part)
		if ok {
			current = current.children[idx]
		}
		return ok
	})
	if !found || current == &t.root {
		return nil
	}
	return current
}

// Insert adds or updates the value of key. Empty keys are ignored.
func (t *Trie[T]) Insert(key string, value T) {
	current := &t.root
	walkParts(key, func(part string) bool {
		idx, ok := current.child(part)
		if !ok {
			current.children = slices.Insert(current.children, idx, &node[T]{part: part})
		}
		current = current.children[idx]
		return true
	})
	if current == &t.root {
		return
	}
	if !current.hasValue {
		t.size++
	}
	current.value, current.hasValue = value, true
}

// Get retrieves the value of key.
func (t *Trie[T]) Get(key string) (T, bool) {
	if n := t.find(key); n != nil && n.hasValue {
		return n.value, true
	}
	var zero T
	return zero, false
}

// Delete removes key and reports whether it was present.
// Nodes left without values or children are pruned.
func (t *Trie[T]) Delete(key string) bool {
	path := []*node[T]{&t.root}
	found := walkParts(key, func(part string) bool {
		idx, ok := path[len(path)-1].child(part)
		if ok {
			path = append(path, path[len(path)-1].children[idx])
		}
		return ok
	})
	target := path[len(path)-1]
	if !found || len(path) == 1 || !target.hasValue {
		return false
	}
	var zero T
	target.value, target.hasValue = zero, false
	t.size--

	for i := len(path) - 1; i > 0; i-- {
		n := path[i]
		if n.hasValue || len(n.children) > 0 {
			break
		}
		parent := path[i-1]
		idx, _ := parent.child(n.part)
		parent.children = slices.Delete(parent.children, idx, idx+1)
	}
	return true
}

// Size returns the number of keys in the trie.
func (t *Trie[T]) Size() int {
	return t.size
}

// KeyValue is one entry of the trie.
type KeyValue[T any] struct {
	Key   string
	Value T
}

func collect[T any](n *node[T], key string, result []KeyValue[T]) []KeyValue[T] {
	if n.hasValue {
		result = append(result, KeyValue[T]{Key: key, Value: n.value})
	}
	for _, child := range n.children {
		result = collect(child, key+string(Separator)+child.part, result)
	}
	return result
}

// GetByPrefix returns the entries whose key is prefix or lies under it,
// in key order. The prefix is matched part by part.
func (t *Trie[T]) GetByPrefix(prefix string) []KeyValue[T] {
	n := t.find(prefix)
	if n == nil {
		return nil
	}
	var parts []string
	walkParts(prefix, func(part string) bool {
		parts = append(parts, part)
		return true
	})
	return collect(n, strings.Join(parts, string(Separator)), nil)
}
