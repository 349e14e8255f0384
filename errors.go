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
)

var (
	ErrPortInUse      = errors.New("Port already in use")
	ErrConfigWrite    = errors.New("Cannot write naming service config")
	ErrConfig         = errors.New("Bad session configuration")
	ErrSpawn          = errors.New("Cannot spawn service")
	ErrUnexpectedExit = errors.New("Service exited unexpectedly")
	ErrStaleResource  = errors.New("Cannot remove stale resource")
	ErrNoSession      = errors.New("No session cache found")
	ErrBadSpec        = errors.New("Bad service specification")
	ErrAlreadyRun     = errors.New("Supervisor already used")
	ErrSessionActive  = errors.New("Session is still running")
)

// Stage names used in StageError.
const (
	StageStaging  = "staging"
	StageStarting = "starting"
	StageRunning  = "running"
)

// StageError is returned by Supervisor.Run when the session could not be
// brought up, or when something went badly wrong while running.  The
// wrapped error is one of the sentinels above, so callers should use
// errors.Is.
type StageError struct {
	Stage   string
	Service string
	Err     error
}

func (e *StageError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("%s %s: %v", e.Stage, e.Service, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// CleanupWarning records one teardown step that did not succeed.  These
// never stop teardown; they are collected and returned together.
type CleanupWarning struct {
	Service string
	Path    string
	Err     error
}

func (w *CleanupWarning) Error() string {
	if w.Service != "" {
		return fmt.Sprintf("cleanup of service %s: %v", w.Service, w.Err)
	}
	return fmt.Sprintf("cleanup of %s: %v", w.Path, w.Err)
}

func (w *CleanupWarning) Unwrap() error {
	return w.Err
}
