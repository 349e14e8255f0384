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
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mortbauer/salome-launcher/config"
)

// Options are the per-session inputs to Resolve that are not part of the
// module configuration.
type Options struct {
	Host     string
	Port     int
	UserPath string // OMNIORB_USER_PATH override
	Logfile  string // sets SALOME_trace to file:<Logfile>

	// Base is the starting environment.  Nil means os.Environ().
	Base []string

	// Hooks supplies per-module adjustments.  Nil means DefaultRegistry.
	Hooks *Registry

	// ConfigDir is used for the default user catalog.  Empty means
	// ConfigDir().
	ConfigDir string
}

// Resolve computes the environment every service of a session runs
// with.  It is deterministic for a given configuration and base.
func Resolve(ctx context.Context, cfg *config.Configuration, opts Options) (*Environment, error) {
	kernel, ok := cfg.Module(config.ModuleKernel)
	if !ok {
		return nil, fmt.Errorf("configuration has no %s module", config.ModuleKernel)
	}
	base := opts.Base
	if base == nil {
		base = os.Environ()
	}
	hooks := opts.Hooks
	if hooks == nil {
		hooks = DefaultRegistry
	}

	b := NewBuilder(base)
	for _, script := range cfg.EnvScripts {
		vars, e := SourceScript(ctx, script, b.Build().Slice())
		if e != nil {
			return nil, e
		}
		b.Merge(vars)
	}
	ApplyNaming(b, opts.UserPath, opts.Host, opts.Port)

	b.SetDefault("SalomeAppConfig", "")
	var roots, resources []string
	for _, name := range cfg.ModuleNames() {
		m := cfg.Modules[name]
		upper := strings.ToUpper(name)
		b.Set(upper+"_ROOT_DIR", m.Root)
		roots = append(roots, m.Root)
		resources = append(resources, m.Resources)

		b.Prepend("LD_LIBRARY_PATH", m.Lib)
		b.Prepend("PATH", m.Bin)
		b.Prepend("PYTHONPATH", m.Bin, m.Lib, m.SitePackages, m.SharedModules)

		if hook := hooks.Lookup(upper); hook != nil {
			if e := hook(upper, m, b); e != nil {
				return nil, fmt.Errorf("environment for module %s: %w", upper, e)
			}
		}
	}

	b.SetDefault("SALOME_BATCH", "0")
	b.Set("SALOMEPATH", strings.Join(roots, string(os.PathListSeparator)))
	b.SetDefault("SALOME_trace", "local")
	if opts.Logfile != "" {
		b.Set("SALOME_trace", "file:"+opts.Logfile)
	}

	catalog := cfg.UserCatalog
	if catalog == "" {
		dir := opts.ConfigDir
		if dir == "" {
			dir = ConfigDir()
		}
		catalog = filepath.Join(dir, "salome", "CatalogResources.xml")
	}
	b.Set("USER_CATALOG_RESOURCES_FILE", catalog)

	if kernel.Resources == "" {
		return nil, fmt.Errorf("module %s has no resources directory", config.ModuleKernel)
	}
	b.Set("CSF_SALOMEDS_ResourcesDefaults", kernel.Resources)
	b.Prepend("SalomeAppConfig", resources...)

	for _, key := range sortedKeys(cfg.Env) {
		b.Prepend(key, cfg.Env[key]...)
	}
	return b.Build(), nil
}

func sortedKeys(m map[string]config.StringList) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SourceScript runs a shell script in a shell started with env, and
// returns the environment the shell ends up with.
func SourceScript(ctx context.Context, path string, env []string) (map[string]string, error) {
	if _, e := os.Stat(path); e != nil {
		return nil, fmt.Errorf("source %s: %w", path, e)
	}
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", `. "$0"; env`, path)
	cmd.Env = env
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, e := cmd.Output()
	if e != nil {
		return nil, fmt.Errorf("source %s: %w: %s", path, e,
			strings.TrimSpace(stderr.String()))
	}
	return parseEnvOutput(out), nil
}

// parseEnvOutput reads the output of env(1).  A line without '=' is
// taken as a continuation of the previous value.
func parseEnvOutput(out []byte) map[string]string {
	rv := make(map[string]string)
	last := ""
	for _, line := range strings.Split(string(out), "\n") {
		k, v, ok := strings.Cut(line, "=")
		if ok && k != "" && !strings.ContainsAny(k, " \t") {
			rv[k] = v
			last = k
			continue
		}
		if last != "" && line != "" {
			rv[last] += "\n" + line
		}
	}
	return rv
}
