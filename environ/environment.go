// Copyright 2026 The Salome Launcher Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package environ computes the process environment handed to every
// service of a session.  The result is an immutable Environment value;
// nothing in here touches the environment of the running program.
package environ

import (
	"os"
	"sort"
	"strings"
)

// Environment is a resolved, read-only set of environment variables.
// It is built once per session and shared by reference.
type Environment struct {
	vars map[string]string
}

// Get returns the value of a variable, and whether it is set.
func (e *Environment) Get(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	v, ok := e.vars[key]
	return v, ok
}

// Value is like Get, but returns the empty string when unset.
func (e *Environment) Value(key string) string {
	v, _ := e.Get(key)
	return v
}

// Len returns the number of variables.
func (e *Environment) Len() int {
	if e == nil {
		return 0
	}
	return len(e.vars)
}

// Slice returns the environment in KEY=VALUE form, sorted by key, suitable
// for exec.Cmd.Env.  The slice is a fresh copy.
func (e *Environment) Slice() []string {
	if e == nil {
		return nil
	}
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rv := make([]string, 0, len(keys))
	for _, k := range keys {
		rv = append(rv, k+"="+e.vars[k])
	}
	return rv
}

// FromSlice rebuilds an Environment from KEY=VALUE pairs, as stored in a
// session cache file.
func FromSlice(kv []string) *Environment {
	return NewBuilder(kv).Build()
}

// Builder accumulates variables before they are frozen into an
// Environment.  It is not safe for concurrent use.
type Builder struct {
	vars map[string]string
}

// NewBuilder starts from the given KEY=VALUE pairs, usually os.Environ().
// Malformed entries are skipped.
func NewBuilder(base []string) *Builder {
	b := &Builder{vars: make(map[string]string, len(base))}
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		b.vars[k] = v
	}
	return b
}

// Set assigns a variable unconditionally.
func (b *Builder) Set(key, value string) {
	b.vars[key] = value
}

// SetDefault assigns a variable only if it is not already set.
func (b *Builder) SetDefault(key, value string) {
	if _, ok := b.vars[key]; !ok {
		b.vars[key] = value
	}
}

// Get returns the current value of a variable.
func (b *Builder) Get(key string) (string, bool) {
	v, ok := b.vars[key]
	return v, ok
}

// Prepend puts each of dirs in front of the path list held in key, in
// order, so the last one given ends up first.  Directories already
// present in the list are left where they are.  Empty entries are
// ignored.
func (b *Builder) Prepend(key string, dirs ...string) {
	for _, d := range dirs {
		if d == "" {
			continue
		}
		cur := b.vars[key]
		if containsPath(cur, d) {
			continue
		}
		if cur == "" {
			b.vars[key] = d
		} else {
			b.vars[key] = d + string(os.PathListSeparator) + cur
		}
	}
}

func containsPath(list, dir string) bool {
	for _, p := range strings.Split(list, string(os.PathListSeparator)) {
		if p == dir {
			return true
		}
	}
	return false
}

// Merge sets every entry of m, in key order.
func (b *Builder) Merge(m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.vars[k] = m[k]
	}
}

// Build freezes the builder.  Later changes to the builder do not affect
// the returned Environment.
func (b *Builder) Build() *Environment {
	vars := make(map[string]string, len(b.vars))
	for k, v := range b.vars {
		vars[k] = v
	}
	return &Environment{vars: vars}
}
