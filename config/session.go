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

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Module holds the resolved locations of one installed SALOME module.
type Module struct {
	Root          string `json:"root"`
	Bin           string `json:"bin"`
	Lib           string `json:"lib"`
	SitePackages  string `json:"site-packages"`
	SharedModules string `json:"shared_modules"`
	Resources     string `json:"resources"`
	Catalog       string `json:"catalog"`
}

// Configuration is the JSON session configuration: where every module is
// installed and which extra environment entries the session needs.
type Configuration struct {
	Env         map[string]StringList `json:"env,omitempty"`
	EnvScripts  StringList            `json:"env_sh,omitempty"`
	UserCatalog string                `json:"user_catalog,omitempty"`
	Modules     map[string]Module     `json:"modules"`
}

// StringList accepts either a single JSON string or an array of them.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if e := json.Unmarshal(b, &s); e != nil {
			return e
		}
		*l = StringList{s}
		return nil
	}
	var v []string
	if e := json.Unmarshal(b, &v); e != nil {
		return e
	}
	*l = v
	return nil
}

// Names of modules the topology cannot do without.
const (
	ModuleKernel = "KERNEL"
	ModuleGUI    = "GUI"
)

// ModuleNames returns the configured module names, sorted.
func (c *Configuration) ModuleNames() []string {
	names := make([]string, 0, len(c.Modules))
	for n := range c.Modules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Module looks up a module by name, ignoring case.
func (c *Configuration) Module(name string) (Module, bool) {
	if m, ok := c.Modules[name]; ok {
		return m, true
	}
	for n, m := range c.Modules {
		if strings.EqualFold(n, name) {
			return m, true
		}
	}
	return Module{}, false
}

// Catalogs returns every module catalog, in module name order.
func (c *Configuration) Catalogs() []string {
	rv := make([]string, 0, len(c.Modules))
	for _, n := range c.ModuleNames() {
		if cat := c.Modules[n].Catalog; cat != "" {
			rv = append(rv, cat)
		}
	}
	return rv
}

// Validate checks the parts of the configuration a session depends on.
func (c *Configuration) Validate() error {
	if len(c.Modules) == 0 {
		return errors.New("no modules configured")
	}
	if _, ok := c.Module(ModuleKernel); !ok {
		return fmt.Errorf("module %s is not configured", ModuleKernel)
	}
	return nil
}

// Read loads a session configuration from a JSON file.
func Read(path string) (*Configuration, error) {
	b, e := os.ReadFile(path)
	if e != nil {
		return nil, fmt.Errorf("read configuration: %w", e)
	}
	c := &Configuration{}
	if e := json.Unmarshal(b, c); e != nil {
		return nil, fmt.Errorf("decode configuration %q: %w", path, e)
	}
	if c.Modules == nil {
		c.Modules = map[string]Module{}
	}
	return c, nil
}

// Save writes the configuration with sorted keys and four space
// indentation, creating the parent directory if needed.
func Save(c *Configuration, path string) error {
	b, e := json.MarshalIndent(c, "", "    ")
	if e != nil {
		return fmt.Errorf("encode configuration: %w", e)
	}
	b = append(b, '\n')
	if dir := filepath.Dir(path); dir != "" {
		if e := os.MkdirAll(dir, 0o755); e != nil {
			return fmt.Errorf("create configuration directory: %w", e)
		}
	}
	if e := os.WriteFile(path, b, 0o644); e != nil {
		return fmt.Errorf("write configuration: %w", e)
	}
	return nil
}
