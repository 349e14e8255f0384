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

// Package rest serves a read-only JSON view of a running session, and
// provides a client for it.
package rest

import (
	"time"

	launcher "github.com/mortbauer/salome-launcher"
)

const (
	mimeJson = "application/json; charset=UTF-8"

	// A request carrying If-None-Match and PollTimeHeader (seconds) is
	// held until the resource changes or the time runs out.
	PollTimeHeader = "X-Salome-Poll-Time"

	maxPoll = 5 * time.Minute
)

// Source is what the handler reads from.  *launcher.Supervisor
// implements it.
type Source interface {
	Snapshot() *launcher.Snapshot
	Watch(last int64, expire time.Duration) *launcher.Snapshot
}

// Error is the body of every non-200 response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}
