// SPDX-License-Identifier: GPL-3.0-or-later

package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/netdata/netdata/go/snmppoll/pkg/iprange"
)

// Cache is a JSON file holding the discovered addresses of one check,
// guarded by a lock file so that processes sharing the directory do not
// interleave writes.
type Cache struct {
	path string
	lock *flock.Flock
}

// NewCache returns the cache of the check identified by key, stored in dir.
func NewCache(dir, key string) *Cache {
	path := filepath.Join(dir, fmt.Sprintf("snmp-discovery-%s.json", key))
	return &Cache{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (c *Cache) Path() string { return c.path }

// Load returns the cached addresses. A missing file is an empty cache.
// Entries that do not parse as an address are skipped.
func (c *Cache) Load() ([]netip.Addr, error) {
	if _, err := os.Stat(c.path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err := c.lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock '%s': %w", c.lock.Path(), err)
	}
	defer func() { _ = c.lock.Unlock() }()

	bs, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var entries []string
	if err := json.Unmarshal(bs, &entries); err != nil {
		return nil, fmt.Errorf("parse '%s': %w", c.path, err)
	}

	addrs := make([]netip.Addr, 0, len(entries))
	for _, e := range entries {
		addr, err := iprange.ParseAddr(e)
		if err != nil {
			continue
		}
		addrs = append(addrs, addr)
	}

	return addrs, nil
}

// Save replaces the cached addresses.
func (c *Cache) Save(addrs []netip.Addr) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("lock '%s': %w", c.lock.Path(), err)
	}
	defer func() { _ = c.lock.Unlock() }()

	entries := make([]string, len(addrs))
	for i, addr := range addrs {
		entries[i] = addr.String()
	}
	bs, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(bs); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), c.path)
}
