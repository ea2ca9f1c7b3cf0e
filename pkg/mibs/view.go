// SPDX-License-Identifier: GPL-3.0-or-later

// Package mibs is the symbol to OID lookup service used by metric
// declarations that name MIB objects instead of numeric OIDs.
//
// MIB compilation is out of scope: a View is assembled from pre-compiled
// symbol tables (YAML) that ship with the binary or live in a mibs folder.
package mibs

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v2"

	"github.com/netdata/netdata/go/snmppoll/logger"
	"github.com/netdata/netdata/go/snmppoll/pkg/oid"
)

var log = logger.New().With("component", "snmp/mibs")

var (
	ErrUnknownMIB    = errors.New("unknown MIB")
	ErrUnknownSymbol = errors.New("unknown MIB symbol")
)

//go:embed base.yaml
var baseSymbols []byte

// Symbol is a resolved MIB object.
type Symbol struct {
	MIB    string
	Name   string
	OID    oid.OID
	Syntax string
}

// QualifiedName returns "MIB::name".
func (s Symbol) QualifiedName() string { return s.MIB + "::" + s.Name }

type (
	mibFile struct {
		MIB     string               `yaml:"mib"`
		Symbols map[string]symbolDef `yaml:"symbols"`
	}
	symbolDef struct {
		OID    oid.OID `yaml:"oid"`
		Syntax string  `yaml:"syntax"`
	}
)

// View answers symbol lookups for one mibs folder. It is immutable once built.
type View struct {
	dir  string
	mibs map[string]map[string]Symbol
}

// NewView builds a view from the embedded base symbols plus every
// "*.yaml"/"*.yml" file found (recursively) under dir. An empty dir yields the
// base symbols only.
func NewView(dir string) (*View, error) {
	v := &View{dir: dir, mibs: make(map[string]map[string]Symbol)}

	if err := v.add("base", baseSymbols); err != nil {
		return nil, err
	}
	if dir == "" {
		return v, nil
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("mibs folder: %v", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("mibs folder '%s' is not a directory", dir)
	}

	fsys := os.DirFS(dir)
	files, err := doublestar.Glob(fsys, "**/*.{yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("mibs folder '%s': %v", dir, err)
	}
	sort.Strings(files)

	for _, name := range files {
		bs, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		if err := v.add(name, bs); err != nil {
			return nil, fmt.Errorf("mibs folder '%s': %v", dir, err)
		}
	}

	log.Debugf("loaded %d MIB symbol tables from '%s'", len(files), dir)

	return v, nil
}

func (v *View) add(source string, content []byte) error {
	var files []mibFile
	if err := yaml.Unmarshal(content, &files); err != nil {
		var single mibFile
		if err2 := yaml.Unmarshal(content, &single); err2 != nil {
			return fmt.Errorf("'%s': %v", source, err)
		}
		files = []mibFile{single}
	}

	for _, f := range files {
		if f.MIB == "" {
			return fmt.Errorf("'%s': symbol table without 'mib'", source)
		}
		syms, ok := v.mibs[f.MIB]
		if !ok {
			syms = make(map[string]Symbol, len(f.Symbols))
			v.mibs[f.MIB] = syms
		}
		for name, def := range f.Symbols {
			if def.OID.IsZero() {
				return fmt.Errorf("'%s': %s::%s has no oid", source, f.MIB, name)
			}
			syms[name] = Symbol{MIB: f.MIB, Name: name, OID: def.OID, Syntax: def.Syntax}
		}
	}

	return nil
}

// Dir returns the mibs folder the view was built from.
func (v *View) Dir() string { return v.dir }

// Lookup resolves MIB::name.
func (v *View) Lookup(mib, name string) (Symbol, error) {
	syms, ok := v.mibs[mib]
	if !ok {
		return Symbol{}, fmt.Errorf("%w '%s'", ErrUnknownMIB, mib)
	}
	sym, ok := syms[name]
	if !ok {
		return Symbol{}, fmt.Errorf("%w '%s::%s'", ErrUnknownSymbol, mib, name)
	}
	return sym, nil
}

// Len returns the number of known symbols across all MIBs.
func (v *View) Len() int {
	var n int
	for _, syms := range v.mibs {
		n += len(syms)
	}
	return n
}
