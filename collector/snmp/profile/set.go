// SPDX-License-Identifier: GPL-3.0-or-later

package profile

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v2"

	"github.com/netdata/netdata/go/snmppoll/logger"
)

var log = logger.New().With("component", "snmp/profile")

// Set holds profiles by name. It is read-only once loaded.
type Set struct {
	dir      string
	profiles map[string]*Profile
}

// Load reads every profile file under dir (files whose name starts with "_"
// are only usable through "extends") and adds the inline definitions, which
// take precedence over files of the same name. dir may be empty.
func Load(dir string, inline map[string]Definition) (*Set, error) {
	set := &Set{dir: dir, profiles: make(map[string]*Profile)}

	if dir != "" {
		paths, err := doublestar.Glob(os.DirFS(dir), "**/*.{yaml,yml}")
		if err != nil {
			return nil, fmt.Errorf("profiles folder '%s': %w", dir, err)
		}
		slices.Sort(paths)

		for _, path := range paths {
			name := profileName(path)
			if strings.HasPrefix(name, "_") {
				continue
			}
			prof, err := set.loadFile(filepath.Join(dir, filepath.FromSlash(path)), nil)
			if err != nil {
				log.Warningf("invalid profile '%s': %v", path, err)
				continue
			}
			if err := prof.validate(); err != nil {
				log.Warningf("invalid profile '%s': %v", path, err)
				continue
			}
			if _, ok := set.profiles[name]; ok {
				log.Infof("duplicate profile '%s' found in '%s', not adding it", name, path)
				continue
			}
			prof.Name = name
			set.profiles[name] = prof
		}
	}

	for _, name := range slices.Sorted(maps.Keys(inline)) {
		prof, err := set.loadDefinition(inline[name])
		if err != nil {
			return nil, fmt.Errorf("profile '%s': %w", name, err)
		}
		if err := prof.validate(); err != nil {
			return nil, fmt.Errorf("profile '%s': %w", name, err)
		}
		prof.Name = name
		set.profiles[name] = prof
	}

	log.Debugf("loaded %d profiles (folder '%s', %d inline)", len(set.profiles), dir, len(inline))

	return set, nil
}

func (s *Set) Len() int { return len(s.profiles) }

func (s *Set) Get(name string) (*Profile, bool) {
	p, ok := s.profiles[name]
	return p, ok
}

// Match returns the most specific profile whose sysobjectid patterns match
// sysObjectID. Ties go to the profile whose name sorts first.
func (s *Set) Match(sysObjectID string) (*Profile, bool) {
	sysObjectID = strings.TrimPrefix(sysObjectID, ".")

	var (
		best                    *Profile
		bestLiteral, bestLength int
	)
	for _, name := range slices.Sorted(maps.Keys(s.profiles)) {
		prof := s.profiles[name]
		for _, pattern := range prof.SysObjectIDs {
			literal, length := specificity(pattern, sysObjectID)
			if length == 0 {
				continue
			}
			if best == nil || literal > bestLiteral || (literal == bestLiteral && length > bestLength) {
				best, bestLiteral, bestLength = prof, literal, length
			}
		}
	}

	return best, best != nil
}

func (s *Set) loadDefinition(def Definition) (*Profile, error) {
	switch {
	case def.Definition != nil:
		prof := *def.Definition
		prof.Metrics = slices.Clone(prof.Metrics)
		prof.MetricTags = slices.Clone(prof.MetricTags)
		if err := s.applyExtends(&prof, nil); err != nil {
			return nil, err
		}
		return &prof, nil
	case def.DefinitionFile != "":
		return s.loadFile(s.resolvePath(def.DefinitionFile), nil)
	default:
		return nil, fmt.Errorf("either 'definition' or 'definition_file' must be set")
	}
}

func (s *Set) loadFile(path string, stack []string) (*Profile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var prof Profile
	if err := yaml.Unmarshal(content, &prof); err != nil {
		return nil, fmt.Errorf("'%s': %w", path, err)
	}
	prof.SourceFile, _ = filepath.Abs(path)

	if err := s.applyExtends(&prof, stack); err != nil {
		return nil, err
	}

	return &prof, nil
}

func (s *Set) applyExtends(prof *Profile, stack []string) error {
	for _, name := range prof.Extends {
		if slices.Contains(stack, name) {
			return fmt.Errorf("circular extends detected: '%s' already included", name)
		}
		base, err := s.loadFile(s.resolvePath(name), append(slices.Clone(stack), name))
		if err != nil {
			return fmt.Errorf("cannot extend '%s': %w", name, err)
		}
		prof.merge(base)
	}
	return nil
}

func (s *Set) resolvePath(name string) string {
	if filepath.IsAbs(name) || s.dir == "" {
		return name
	}
	return filepath.Join(s.dir, name)
}

func profileName(path string) string {
	base := filepath.Base(filepath.FromSlash(path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
