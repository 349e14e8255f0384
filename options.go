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
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger.  The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Supervisor) {
		s.logger = l
	}
}

// WithPollInterval sets how long each wait in the monitor loop lasts,
// and so the most a stop request can be delayed.
func WithPollInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		s.pollInterval = d
	}
}

// WithStopTimeout sets how long a service gets between SIGTERM and
// SIGKILL.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		s.stopTimeout = d
	}
}

// WithQuiet suppresses the stderr services print while being stopped.
func WithQuiet(q bool) Option {
	return func(s *Supervisor) {
		s.quiet = q
	}
}

// WithStderr sets where termination output is written.  The default is
// os.Stderr.
func WithStderr(w io.Writer) Option {
	return func(s *Supervisor) {
		s.stderr = w
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(mc MetricsCollector) Option {
	return func(s *Supervisor) {
		s.metrics = mc
	}
}

// WithRunningHook registers fn to be called once the session is
// running.
func WithRunningHook(fn func(*Snapshot)) Option {
	return func(s *Supervisor) {
		s.onRunning = fn
	}
}

// WithLauncher replaces the default Launcher.
func WithLauncher(sp Spawner) Option {
	return func(s *Supervisor) {
		s.spawner = sp
	}
}

// withTeardownObserver is called for every handle and resource as
// teardown reaches it.
func withTeardownObserver(fn func(kind, name string)) Option {
	return func(s *Supervisor) {
		s.observe = fn
	}
}
