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

package launcher

import (
	"fmt"
	"sort"
)

// ServiceSpec describes one child service.  A spec is not modified once
// it has been handed to a Supervisor.
type ServiceSpec struct {
	Name string   `json:"name"`
	Path string   `json:"path"`
	Args []string `json:"args"` // not including the program name
	Rank int      `json:"rank"`

	// Required services abort the session if they fail to start.
	Required bool `json:"required"`

	// Interactive services share our terminal and process group; used
	// when running under a debugger.
	Interactive bool `json:"interactive,omitempty"`

	// Artifacts are files the service is known to create, removed at
	// teardown.
	Artifacts []StagedResource `json:"artifacts,omitempty"`
}

// Validate checks that the spec can be spawned at all.
func (s ServiceSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: %w: missing name", ErrSpawn, ErrBadSpec)
	}
	if s.Path == "" {
		return fmt.Errorf("%w: %w: %s has no program", ErrSpawn, ErrBadSpec, s.Name)
	}
	for _, a := range s.Args {
		for i := 0; i < len(a); i++ {
			if a[i] == 0 {
				return fmt.Errorf("%w: %w: %s has a NUL in its arguments",
					ErrSpawn, ErrBadSpec, s.Name)
			}
		}
	}
	return nil
}

// Argv returns the full argument vector, program first.
func (s ServiceSpec) Argv() []string {
	rv := make([]string, 0, len(s.Args)+1)
	rv = append(rv, s.Path)
	return append(rv, s.Args...)
}

// sortSpecs returns a copy of specs in rank order.  Duplicate names are
// rejected.
func sortSpecs(specs []ServiceSpec) ([]ServiceSpec, error) {
	rv := append([]ServiceSpec(nil), specs...)
	sort.SliceStable(rv, func(i, j int) bool { return rv[i].Rank < rv[j].Rank })
	seen := make(map[string]bool, len(rv))
	for _, s := range rv {
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: duplicate service %s", ErrBadSpec, s.Name)
		}
		seen[s.Name] = true
	}
	return rv, nil
}
