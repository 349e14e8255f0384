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
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPythonVersion names the site-packages directory that module
// layouts are expected to use.
const DefaultPythonVersion = "python2.7"

// TemplateOptions tune CreateTemplate.
type TemplateOptions struct {
	PythonVersion string
	Prerequisites []string
}

// CollectModules scans modulesPath for installed modules.  Each
// subdirectory is one module; its name is the part before the first
// underscore (so KERNEL_7.8.0 is module KERNEL).
func CollectModules(modulesPath, pythonVersion string) (map[string]Module, error) {
	if pythonVersion == "" {
		pythonVersion = DefaultPythonVersion
	}
	ents, e := os.ReadDir(modulesPath)
	if e != nil {
		return nil, fmt.Errorf("scan modules: %w", e)
	}
	rv := make(map[string]Module)
	for _, ent := range ents {
		if !ent.IsDir() {
			continue
		}
		name := strings.SplitN(ent.Name(), "_", 2)[0]
		root, e := filepath.Abs(filepath.Join(modulesPath, ent.Name()))
		if e != nil {
			return nil, e
		}
		site := filepath.Join(root, "lib", pythonVersion, "site-packages", "salome")
		resources := filepath.Join(root, "share", "salome", "resources", strings.ToLower(name))
		rv[name] = Module{
			Root:          root,
			Bin:           filepath.Join(root, "bin", "salome"),
			Lib:           filepath.Join(root, "lib", "salome"),
			SitePackages:  site,
			SharedModules: filepath.Join(site, "shared_modules"),
			Resources:     resources,
			Catalog:       filepath.Join(resources, name+"Catalog.xml"),
		}
	}
	return rv, nil
}

// CreateTemplate builds a fresh configuration for the modules installed
// under modulesPath.
func CreateTemplate(modulesPath string, opts TemplateOptions) (*Configuration, error) {
	modules, e := CollectModules(modulesPath, opts.PythonVersion)
	if e != nil {
		return nil, e
	}
	c := &Configuration{
		Env: map[string]StringList{
			"SMESH_MeshersList": Meshers(modules),
			"HOMARD_REP_EXE":    {},
			"HOMARD_EXE":        {},
		},
		Modules: modules,
	}
	for _, p := range opts.Prerequisites {
		extra, e := Prerequisites(p, opts.PythonVersion)
		if e != nil {
			return nil, e
		}
		for k, v := range extra {
			c.Env[k] = append(c.Env[k], v...)
		}
	}
	return c, nil
}

type mesherDoc struct {
	Groups []struct {
		Resources string `xml:"resources,attr"`
	} `xml:"meshers-group"`
}

// Meshers collects the resources attribute of the first meshers-group
// element of every XML file in the modules' resource directories.
// Files that do not parse are skipped.
func Meshers(modules map[string]Module) []string {
	names := make([]string, 0, len(modules))
	for n := range modules {
		names = append(names, n)
	}
	sort.Strings(names)

	rv := []string{}
	for _, n := range names {
		files, _ := filepath.Glob(filepath.Join(modules[n].Resources, "*.xml"))
		sort.Strings(files)
		for _, f := range files {
			b, e := os.ReadFile(f)
			if e != nil {
				continue
			}
			var doc mesherDoc
			if xml.Unmarshal(b, &doc) != nil || len(doc.Groups) == 0 {
				continue
			}
			rv = append(rv, doc.Groups[0].Resources)
		}
	}
	return rv
}

// Prerequisites scans a directory of third party installs and returns
// the LD_LIBRARY_PATH, PATH and PYTHONPATH entries they contribute.
func Prerequisites(prereqPath, pythonVersion string) (map[string][]string, error) {
	if pythonVersion == "" {
		pythonVersion = DefaultPythonVersion
	}
	ents, e := os.ReadDir(prereqPath)
	if e != nil {
		return nil, fmt.Errorf("scan prerequisites: %w", e)
	}
	var libs, paths, pypaths []string
	for _, ent := range ents {
		base, e := filepath.Abs(filepath.Join(prereqPath, ent.Name()))
		if e != nil {
			return nil, e
		}
		libdir := filepath.Join(base, "lib")
		if isDir(libdir) {
			prefix := strings.ToLower(strings.SplitN(ent.Name(), "_", 2)[0])
			subs, _ := os.ReadDir(libdir)
			for _, sub := range subs {
				if sub.IsDir() && strings.Contains(sub.Name(), prefix) {
					libs = append(libs, filepath.Join(libdir, sub.Name()))
				}
			}
			libs = append(libs, libdir)
		}
		if site := filepath.Join(libdir, pythonVersion, "site-packages"); isDir(site) {
			pypaths = append(pypaths, site)
		}
		if bin := filepath.Join(base, "bin"); isDir(bin) {
			paths = append(paths, bin)
		}
	}
	return map[string][]string{
		"LD_LIBRARY_PATH": libs,
		"PATH":            paths,
		"PYTHONPATH":      pypaths,
	}, nil
}

func isDir(p string) bool {
	st, e := os.Stat(p)
	return e == nil && st.IsDir()
}
