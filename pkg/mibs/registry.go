// SPDX-License-Identifier: GPL-3.0-or-later

package mibs

import (
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry caches one View per mibs folder for the whole process. Views are
// built at most once per distinct folder, even when many checks ask for the
// same folder concurrently. Failed builds are not cached.
type Registry struct {
	mu    sync.RWMutex
	views map[string]*View
	group singleflight.Group

	newView func(dir string) (*View, error)
}

func NewRegistry() *Registry {
	return &Registry{
		views:   make(map[string]*View),
		newView: NewView,
	}
}

// Get returns the View for dir, building it on first use.
func (r *Registry) Get(dir string) (*View, error) {
	key := dir
	if key != "" {
		key = filepath.Clean(key)
	}

	if v, ok := r.lookup(key); ok {
		return v, nil
	}

	res, err, _ := r.group.Do(key, func() (any, error) {
		if v, ok := r.lookup(key); ok {
			return v, nil
		}

		v, err := r.newView(key)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.views[key] = v
		r.mu.Unlock()

		log.Infof("built MIB view for folder '%s' (%d symbols)", key, v.Len())

		return v, nil
	})
	if err != nil {
		return nil, err
	}

	return res.(*View), nil
}

func (r *Registry) lookup(key string) (*View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[key]
	return v, ok
}
