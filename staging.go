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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/mortbauer/salome-launcher/environ"
)

// RemovalKind says how a StagedResource is removed.
type RemovalKind int

const (
	RemoveFile RemovalKind = iota
	RemoveTree
)

func (k RemovalKind) String() string {
	if k == RemoveTree {
		return "tree"
	}
	return "file"
}

// StagedResource is a path created for the session that must not
// outlive it.
type StagedResource struct {
	Path string      `json:"path"`
	Kind RemovalKind `json:"kind"`
}

// Remove deletes the resource.  A path that is already gone is not an
// error, so Remove can be called any number of times.
func (r StagedResource) Remove() error {
	if r.Path == "" {
		return nil
	}
	var e error
	switch r.Kind {
	case RemoveTree:
		e = os.RemoveAll(r.Path)
	default:
		e = os.Remove(r.Path)
	}
	if e != nil && !errors.Is(e, os.ErrNotExist) {
		return e
	}
	return nil
}

// Stager prepares the files the naming service needs before it starts.
type Stager struct {
	// LogRoot holds one omniNames_<port> log directory per session.
	LogRoot string

	// ConfigPath is where the naming config is written.  Children find
	// it through OMNIORB_CONFIG, so this must match their environment.
	ConfigPath string

	Logger *log.Logger
}

// NewStager returns a Stager writing the config named in env.
func NewStager(logRoot string, env *environ.Environment) *Stager {
	return &Stager{
		LogRoot:    logRoot,
		ConfigPath: env.Value(environ.VarConfig),
	}
}

// LogDir is the naming service log directory for port.
func (s *Stager) LogDir(port int) string {
	return filepath.Join(s.LogRoot, "omniNames_"+strconv.Itoa(port))
}

// StageNamingConfig clears and recreates the log directory for port and
// writes the naming config pointing at host:port.  Whatever was created
// is returned even on error, so it can still be cleaned up.
func (s *Stager) StageNamingConfig(host string, port int) (configPath, logDir string, err error) {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	dir := s.LogDir(port)
	if e := os.RemoveAll(dir); e != nil {
		logger.Warn("cannot remove stale log directory", "path", dir,
			"err", fmt.Errorf("%w: %v", ErrStaleResource, e))
	}
	if e := os.MkdirAll(dir, 0o755); e != nil {
		return "", "", fmt.Errorf("%w: create log directory: %v", ErrConfigWrite, e)
	}
	logDir = dir

	if s.ConfigPath == "" {
		return "", logDir, fmt.Errorf("%w: no config path", ErrConfigWrite)
	}
	if e := os.MkdirAll(filepath.Dir(s.ConfigPath), 0o755); e != nil {
		return "", logDir, fmt.Errorf("%w: %v", ErrConfigWrite, e)
	}
	body := environ.FormatNamingConfig(host, port)
	if e := os.WriteFile(s.ConfigPath, []byte(body), 0o644); e != nil {
		return "", logDir, fmt.Errorf("%w: %v", ErrConfigWrite, e)
	}
	logger.Debug("naming config written", "path", s.ConfigPath, "logdir", logDir)
	return s.ConfigPath, logDir, nil
}
