// SPDX-License-Identifier: GPL-3.0-or-later

// Package oidtrie maps raw OIDs returned by a device back to the symbolic
// names they were requested under, plus the row index that follows the name.
package oidtrie

import (
	"strconv"
	"sync"

	"github.com/netdata/netdata/go/snmppoll/pkg/oid"
)

type node struct {
	name     string
	children map[uint32]*node
}

func (n *node) child(arc uint32) *node {
	return n.children[arc]
}

func (n *node) getOrCreateChild(arc uint32) *node {
	if n.children == nil {
		n.children = make(map[uint32]*node)
	}
	c, ok := n.children[arc]
	if !ok {
		c = &node{}
		n.children[arc] = c
	}
	return c
}

// Resolver is a prefix trie of registered OIDs plus a registry of index
// mappings (name -> 1-based index position -> raw value -> display value).
// It is safe for concurrent use.
type Resolver struct {
	mu       sync.RWMutex
	root     node
	mappings map[string]map[int]map[int]string
	size     int
}

func New() *Resolver {
	return &Resolver{mappings: make(map[string]map[int]map[int]string)}
}

// Register names the node at o. Re-registering a path only renames its
// terminal node; paths are never removed.
func (r *Resolver) Register(o oid.OID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := &r.root
	for i := 0; i < o.Len(); i++ {
		n = n.getOrCreateChild(o.Arc(i))
	}
	if n.name == "" {
		r.size++
	}
	n.name = name
}

// RegisterIndex stores a display mapping for the index arc at position (1-based)
// of rows belonging to name.
func (r *Resolver) RegisterIndex(name string, position int, mapping map[int]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byPos, ok := r.mappings[name]
	if !ok {
		byPos = make(map[int]map[int]string)
		r.mappings[name] = byPos
	}
	byPos[position] = mapping
}

// Resolve walks the trie along o and returns the name of the deepest named node
// it visited, together with the remaining arcs as tag values. Each remaining arc
// is replaced by its registered display mapping when one exists.
func (r *Resolver) Resolve(o oid.OID) (name string, tags []string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	depth := -1
	n := &r.root
	for i := 0; i < o.Len(); i++ {
		if n = n.child(o.Arc(i)); n == nil {
			break
		}
		if n.name != "" {
			name, depth = n.name, i+1
		}
	}
	if depth < 0 {
		return "", nil, false
	}

	tail := o.Suffix(depth)
	tags = make([]string, len(tail))
	byPos := r.mappings[name]
	for i, arc := range tail {
		if v, ok := byPos[i+1][int(arc)]; ok {
			tags[i] = v
		} else {
			tags[i] = strconv.FormatUint(uint64(arc), 10)
		}
	}

	return name, tags, true
}

// Len returns the number of named nodes.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}
