// Package flagstore holds the key-value backends for persisted UI flags.
// Every store keys its entries by a namespace that follows the identity of
// the site customer; until a profile arrives the namespace is DefaultNamespace.
package flagstore

import (
	"strings"
	"sync"
)

const DefaultNamespace = "anonymous"

// namespace is the identity prefix shared by all stores.
type namespace struct {
	mu   sync.RWMutex
	name string
}

func (n *namespace) Namespace(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultNamespace
	}
	n.mu.Lock()
	n.name = name
	n.mu.Unlock()
}

func (n *namespace) current() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.name == "" {
		return DefaultNamespace
	}
	return n.name
}
