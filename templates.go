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

package dao

import (
	"sync"

	"github.com/go-juicedev/dao/internal/container"
)

// Templates is a registry of externally stored SQL text.
// Keys are dot separated, like "user.findByDept".
// It is safe for concurrent use and can be reloaded at runtime.
type Templates struct {
	mu   sync.RWMutex
	trie *container.Trie[string]
}

// NewTemplates returns a registry holding sources.
func NewTemplates(sources map[string]string) *Templates {
	t := &Templates{trie: container.NewTrie[string]()}
	for key, query := range sources {
		t.trie.Insert(key, query)
	}
	return t
}

// Lookup returns the SQL text of key.
func (t *Templates) Lookup(key string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.trie.Get(key)
}

// Set adds or replaces the SQL text of key.
func (t *Templates) Set(key, query string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.trie.Insert(key, query)
}

// Delete removes key and reports whether it was present.
func (t *Templates) Delete(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trie.Delete(key)
}

// Reload replaces all templates with sources.
func (t *Templates) Reload(sources map[string]string) {
	trie := container.NewTrie[string]()
	for key, query := range sources {
		trie.Insert(key, query)
	}
	t.mu.Lock()
	t.trie = trie
	t.mu.Unlock()
}

// Namespace returns the templates whose key starts with prefix.
func (t *Templates) Namespace(prefix string) map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pairs := t.trie.GetByPrefix(prefix)
	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		result[pair.Key] = pair.Value
	}
	return result
}

// Len returns the number of templates.
func (t *Templates) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.trie.Size()
}
