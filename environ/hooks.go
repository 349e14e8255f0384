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

package environ

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mortbauer/salome-launcher/config"
)

// HookFunc adjusts the environment for one module after its standard
// paths have been added.  The module name is given upper-cased.
type HookFunc func(name string, m config.Module, b *Builder) error

// Registry maps module names to their environment hooks.
type Registry struct {
	hooks map[string]HookFunc
	lock  sync.Mutex
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string]HookFunc)}
}

// Register installs fn as the hook for module name, replacing any
// previous hook.
func (r *Registry) Register(name string, fn HookFunc) {
	r.lock.Lock()
	r.hooks[strings.ToUpper(name)] = fn
	r.lock.Unlock()
}

// Lookup returns the hook for module name, or nil.
func (r *Registry) Lookup(name string) HookFunc {
	if r == nil {
		return nil
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.hooks[strings.ToUpper(name)]
}

// DefaultRegistry carries the hooks for modules that need more than the
// standard layout.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register("SMESH", smeshHook)
}

// smeshHook registers the standard mesher plugin set unless the
// configuration already names one, and puts the SMESH resources on
// SalomeAppConfig so the plugins find their XML.
func smeshHook(name string, m config.Module, b *Builder) error {
	if m.Resources == "" {
		return fmt.Errorf("module %s has no resources directory", name)
	}
	b.SetDefault("SMESH_MeshersList", "StdMeshers")
	b.Prepend("SalomeAppConfig", m.Resources)
	return nil
}
