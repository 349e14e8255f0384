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
	"time"
)

// State is the supervisor's lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateStaging
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStaging:
		return "staging"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	for st := StateIdle; st <= StateStopped; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// ServiceInfo describes one service in a Snapshot.
type ServiceInfo struct {
	Name     string    `json:"name"`
	Command  []string  `json:"command"`
	Rank     int       `json:"rank"`
	Required bool      `json:"required"`
	PID      int       `json:"pid"`
	Status   Status    `json:"status"`
	Started  time.Time `json:"started"`
	Exit     string    `json:"exit,omitempty"`
}

// Snapshot is a consistent, read-only view of a session.  Each change
// publishes a new Snapshot; old ones are never modified.
type Snapshot struct {
	ID       string        `json:"id"`
	Host     string        `json:"host"`
	Port     int           `json:"port"`
	State    State         `json:"state"`
	Serial   int64         `json:"serial,string"`
	Created  time.Time     `json:"created"`
	Updated  time.Time     `json:"updated"`
	Services []ServiceInfo `json:"services"`

	logs       map[string]*Log
	superseded chan struct{}
}

// Service returns the named service, if present.
func (s *Snapshot) Service(name string) (ServiceInfo, bool) {
	for _, si := range s.Services {
		if si.Name == name {
			return si, true
		}
	}
	return ServiceInfo{}, false
}

// Log returns the output log of the named service, or nil.
func (s *Snapshot) Log(name string) *Log {
	return s.logs[name]
}
