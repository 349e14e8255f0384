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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mortbauer/salome-launcher/config"
)

// SessionRecord is what a running session leaves behind for
// connect-session and status to find.
type SessionRecord struct {
	ID        string                `json:"id"`
	Host      string                `json:"host"`
	Port      int                   `json:"port"`
	PID       int                   `json:"pid"`
	Started   time.Time             `json:"started"`
	StatusURL string                `json:"status_url,omitempty"`
	Config    string                `json:"config,omitempty"` // path it was launched with
	Modules   *config.Configuration `json:"modules,omitempty"`
	Env       []string              `json:"env"`
	Services  []string              `json:"services"`
}

// CachePath is the cache file for the session on host:port.
func CachePath(dir, host string, port int) string {
	return filepath.Join(dir, host+"_"+strconv.Itoa(port)+".json")
}

// WriteSession stores r at path.  The file is replaced atomically so a
// reader never sees half of it.
func WriteSession(path string, r *SessionRecord) error {
	if e := os.MkdirAll(filepath.Dir(path), 0o755); e != nil {
		return fmt.Errorf("create session cache directory: %w", e)
	}
	b, e := json.MarshalIndent(r, "", "    ")
	if e != nil {
		return e
	}
	tmp, e := os.CreateTemp(filepath.Dir(path), ".session-*")
	if e != nil {
		return fmt.Errorf("write session cache: %w", e)
	}
	if _, e = tmp.Write(append(b, '\n')); e == nil {
		e = tmp.Close()
	} else {
		tmp.Close()
	}
	if e == nil {
		e = os.Rename(tmp.Name(), path)
	}
	if e != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write session cache: %w", e)
	}
	return nil
}

// ReadSession loads the record at path.  A missing file is ErrNoSession.
func ReadSession(path string) (*SessionRecord, error) {
	b, e := os.ReadFile(path)
	if errors.Is(e, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if e != nil {
		return nil, e
	}
	r := &SessionRecord{}
	if e := json.Unmarshal(b, r); e != nil {
		return nil, fmt.Errorf("parse session cache %s: %w", path, e)
	}
	return r, nil
}
