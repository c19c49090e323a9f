//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of GoParsnip.
//
// GoParsnip is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GoParsnip is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GoParsnip. If not, see https://www.gnu.org/licenses/.

// Package registry maps operator type names to factories, per family.
//
// Built-in operators register themselves from init functions. Hosts extend the name space by adding a
// Provider, which is consulted when the static table has no entry. Provider results are cached.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/aaronlmathis/goparsnip/core"
)

// ErrAlreadyRegistered is returned when a (family, name) pair is registered twice.
var ErrAlreadyRegistered = errors.New("already registered")

// Factory builds a node from its document payload. Nested nodes are decoded through dec.
type Factory func(payload any, dec core.Decoder) (any, error)

// Provider resolves names the static table does not know.
type Provider interface {
	Provide(family core.Family, name string) (Factory, bool)
}

// ProviderFunc is a function adapter for the Provider interface.
type ProviderFunc func(family core.Family, name string) (Factory, bool)

// Provide implements the Provider interface for ProviderFunc.
func (f ProviderFunc) Provide(family core.Family, name string) (Factory, bool) {
	return f(family, name)
}

type key struct {
	family core.Family
	name   string
}

// Registry is a concurrency-safe table of factories.
type Registry struct {
	mu        sync.RWMutex
	static    map[key]Factory
	cache     map[key]Factory
	providers []Provider
	group     singleflight.Group
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		static: map[key]Factory{},
		cache:  map[key]Factory{},
	}
}

// Default is the registry populated by the operator packages.
var Default = New()

// Register adds a factory to the static table.
func (r *Registry) Register(family core.Family, name string, f Factory) error {
	if name == "" || f == nil {
		return fmt.Errorf("registry: %s entry needs a name and a factory", family)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{family, name}
	if _, ok := r.static[k]; ok {
		return fmt.Errorf("%s %q: %w", family, name, ErrAlreadyRegistered)
	}
	r.static[k] = f
	return nil
}

// AddProvider appends a host provider. Providers are consulted in the order they were added.
func (r *Registry) AddProvider(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, p)
}

// Lookup resolves name within family. An unresolved name is a decode error.
func (r *Registry) Lookup(family core.Family, name string) (Factory, error) {
	k := key{family, name}
	r.mu.RLock()
	f, ok := r.static[k]
	if !ok {
		f, ok = r.cache[k]
	}
	r.mu.RUnlock()
	if ok {
		return f, nil
	}

	v, err, _ := r.group.Do(string(family)+"/"+name, func() (any, error) {
		r.mu.RLock()
		providers := slices.Clone(r.providers)
		r.mu.RUnlock()
		for _, p := range providers {
			if f, ok := p.Provide(family, name); ok && f != nil {
				r.mu.Lock()
				r.cache[k] = f
				r.mu.Unlock()
				return f, nil
			}
		}
		return nil, core.Decodef("lookup", "unknown %s type %q", family, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(Factory), nil
}

// Has reports whether name resolves within family.
func (r *Registry) Has(family core.Family, name string) bool {
	_, err := r.Lookup(family, name)
	return err == nil
}

// Names lists the statically registered names of family, sorted.
func (r *Registry) Names(family core.Family) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for k := range r.static {
		if k.family == family {
			names = append(names, k.name)
		}
	}
	slices.Sort(names)
	return names
}

// Register adds a factory to the default registry.
func Register(family core.Family, name string, f Factory) error {
	return Default.Register(family, name, f)
}

// MustRegister adds a factory to the default registry and panics on a duplicate.
// Intended for init functions.
func MustRegister(family core.Family, name string, f Factory) {
	if err := Default.Register(family, name, f); err != nil {
		panic(err)
	}
}

// AddProvider appends a host provider to the default registry.
func AddProvider(p Provider) {
	Default.AddProvider(p)
}

// Lookup resolves name within family in the default registry.
func Lookup(family core.Family, name string) (Factory, error) {
	return Default.Lookup(family, name)
}

// Names lists the names of family in the default registry.
func Names(family core.Family) []string {
	return Default.Names(family)
}
