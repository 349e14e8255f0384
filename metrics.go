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
	"time"
)

// MetricsCollector receives supervisor events.
type MetricsCollector interface {
	// StateTransition records a supervisor state change.
	StateTransition(from, to State)

	// ServiceStarted records a successful spawn and how long it took.
	ServiceStarted(service string, d time.Duration)

	// ServiceExited records how a service ended.
	ServiceExited(service string, status Status)

	// ServiceError records a failure, such as "spawn" or "terminate".
	ServiceError(service, kind string)

	// TerminationDuration records how long a service took to stop.
	TerminationDuration(service string, d time.Duration)

	// CleanupWarning records one failed teardown step.
	CleanupWarning(kind string)

	// PollError records a failed or interrupted wait.
	PollError(interrupted bool)
}

type noopMetricsCollector struct{}

func (noopMetricsCollector) StateTransition(from, to State)                      {}
func (noopMetricsCollector) ServiceStarted(service string, d time.Duration)      {}
func (noopMetricsCollector) ServiceExited(service string, status Status)         {}
func (noopMetricsCollector) ServiceError(service, kind string)                   {}
func (noopMetricsCollector) TerminationDuration(service string, d time.Duration) {}
func (noopMetricsCollector) CleanupWarning(kind string)                          {}
func (noopMetricsCollector) PollError(interrupted bool)                          {}

// NewNoopMetricsCollector returns a collector that discards everything.
func NewNoopMetricsCollector() MetricsCollector {
	return noopMetricsCollector{}
}
