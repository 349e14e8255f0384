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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/mortbauer/salome-launcher/environ"
)

const (
	defaultPollInterval = time.Second
	defaultStopTimeout  = 10 * time.Second
)

// SessionConfig is everything a Supervisor needs to run one session.
type SessionConfig struct {
	Host string

	// Port is checked for availability before anything is staged.
	// Zero skips the check.
	Port int

	Services []ServiceSpec
	Env      *environ.Environment

	// Stager writes the naming config.  Nil means nothing is staged.
	Stager *Stager

	// Cache, when set, is completed and written to CacheFile once the
	// session is running, and removed at teardown.
	Cache     *SessionRecord
	CacheFile string
}

// Supervisor runs one session: it stages resources, starts services in
// rank order, waits for any of them to exit or for Stop, and tears
// everything down in reverse.  A Supervisor runs once.
//
// All session state belongs to the goroutine calling Run.  Other
// goroutines may call Stop, State, Snapshot and Watch.
type Supervisor struct {
	cfg   SessionConfig
	specs []ServiceSpec
	id    string

	logger       *log.Logger
	spawner      Spawner
	metrics      MetricsCollector
	pollInterval time.Duration
	stopTimeout  time.Duration
	quiet        bool
	stderr       io.Writer
	onRunning    func(*Snapshot)
	observe      func(kind, name string)

	running atomic.Bool
	used    atomic.Bool
	active  atomic.Bool
	state   atomic.Int32
	snap    atomic.Pointer[Snapshot]

	handles   []*ProcessHandle
	resources []StagedResource
	created   time.Time
	serial    int64
	teardown  sync.Mutex
}

// NewSupervisor validates cfg and returns a Supervisor for it.
func NewSupervisor(cfg SessionConfig, opts ...Option) (*Supervisor, error) {
	specs, e := sortSpecs(cfg.Services)
	if e != nil {
		return nil, e
	}
	for _, spec := range specs {
		if e := spec.Validate(); e != nil {
			return nil, e
		}
	}
	s := &Supervisor{
		cfg:          cfg,
		specs:        specs,
		id:           uuid.New().String(),
		pollInterval: defaultPollInterval,
		stopTimeout:  defaultStopTimeout,
		stderr:       os.Stderr,
		metrics:      NewNoopMetricsCollector(),
		created:      time.Now(),
		serial:       time.Now().UnixNano(),
	}
	s.running.Store(true)
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.spawner == nil {
		s.spawner = &Launcher{Env: cfg.Env, Logger: s.logger}
	}
	if s.pollInterval <= 0 {
		s.pollInterval = defaultPollInterval
	}
	if s.cfg.Stager != nil && s.cfg.Stager.Logger == nil {
		s.cfg.Stager.Logger = s.logger
	}
	s.publish()
	return s, nil
}

// ID returns the session's unique ID.
func (s *Supervisor) ID() string {
	return s.id
}

// State returns the current state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Snapshot returns the latest published view of the session.
func (s *Supervisor) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Watch waits up to expire for a snapshot newer than serial last, and
// returns the latest snapshot either way.
func (s *Supervisor) Watch(last int64, expire time.Duration) *Snapshot {
	snap := s.snap.Load()
	if snap.Serial != last || expire <= 0 {
		return snap
	}
	timer := time.NewTimer(expire)
	defer timer.Stop()
	select {
	case <-snap.superseded:
	case <-timer.C:
	}
	return s.snap.Load()
}

// Stop asks the session to end.  It only clears the running flag; the
// monitor loop notices within one poll interval.  Safe to call from
// any goroutine, any number of times, before or during Run.  A Stop
// before Run means Run stages and spawns nothing.
func (s *Supervisor) Stop() {
	s.running.Store(false)
}

// Run runs the session to completion.  Teardown always happens before
// Run returns, whatever the outcome.  A nil error means the session
// reached Running (or was stopped during startup) and ended normally.
// Failures are *StageError.
func (s *Supervisor) Run(ctx context.Context) (err error) {
	if !s.used.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	s.active.Store(true)
	defer s.active.Store(false)
	unhook := context.AfterFunc(ctx, s.Stop)
	defer unhook()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in supervisor", "panic", r, "stack", string(debug.Stack()))
			err = &StageError{Stage: stageOf(s.State()), Err: fmt.Errorf("panic: %v", r)}
		}
		s.setState(StateStopping)
		if w := s.teardownAll(); w != nil {
			s.logger.Warn("teardown incomplete", "err", w)
		}
		s.setState(StateStopped)
		s.logger.Info("session stopped", "host", s.cfg.Host, "port", s.cfg.Port)
	}()

	if !s.running.Load() {
		s.logger.Info("stop requested before start")
		return nil
	}
	if err = s.stage(); err != nil {
		s.logger.Error("cannot stage session", "err", err)
		return err
	}
	ok, err := s.start()
	if err != nil {
		s.logger.Error("cannot start session", "err", err)
		return err
	}
	if !ok {
		return nil
	}
	s.enterRunning()
	s.monitor()
	return nil
}

func stageOf(st State) string {
	switch st {
	case StateIdle, StateStaging:
		return StageStaging
	case StateStarting:
		return StageStarting
	}
	return StageRunning
}

func (s *Supervisor) setState(st State) {
	old := State(s.state.Swap(int32(st)))
	if old == st {
		return
	}
	s.logger.Debug("state", "from", old, "to", st)
	s.metrics.StateTransition(old, st)
	s.publish()
}

func (s *Supervisor) addResource(r StagedResource) {
	s.resources = append(s.resources, r)
}

// stage checks the port and writes the naming config.
func (s *Supervisor) stage() error {
	s.setState(StateStaging)
	if s.cfg.Port > 0 {
		if e := ReservePort(s.cfg.Host, s.cfg.Port); e != nil {
			return &StageError{Stage: StageStaging, Err: e}
		}
	}
	if s.cfg.Stager == nil {
		return nil
	}
	configPath, logDir, e := s.cfg.Stager.StageNamingConfig(s.cfg.Host, s.cfg.Port)
	if logDir != "" {
		s.addResource(StagedResource{Path: logDir, Kind: RemoveTree})
	}
	if configPath != "" {
		s.addResource(StagedResource{Path: configPath, Kind: RemoveFile})
	}
	if e != nil {
		return &StageError{Stage: StageStaging, Service: ServiceNaming, Err: e}
	}
	return nil
}

// start launches the services in rank order.  It reports false with a
// nil error if Stop was called before everything was up.
func (s *Supervisor) start() (bool, error) {
	s.setState(StateStarting)
	for _, spec := range s.specs {
		if !s.running.Load() {
			s.logger.Info("stop requested during startup")
			return false, nil
		}
		if e := s.checkRequired(); e != nil {
			return false, e
		}
		for _, a := range spec.Artifacts {
			s.addResource(a)
		}
		t0 := time.Now()
		h, e := s.spawner.Launch(spec)
		if e != nil {
			s.metrics.ServiceError(spec.Name, "spawn")
			if spec.Required {
				return false, &StageError{Stage: StageStarting, Service: spec.Name, Err: e}
			}
			s.logger.Warn("optional service did not start", "service", spec.Name, "err", e)
			continue
		}
		s.handles = append(s.handles, h)
		s.metrics.ServiceStarted(spec.Name, time.Since(t0))
		s.logger.Info("service started", "service", spec.Name, "pid", h.PID())
		s.publish()
	}
	if e := s.checkRequired(); e != nil {
		return false, e
	}
	return true, nil
}

// checkRequired fails if a required service already exited.
func (s *Supervisor) checkRequired() error {
	for _, h := range s.handles {
		if !h.spec.Required {
			continue
		}
		if st := h.Status(); st != StatusRunning {
			s.recordExit(h)
			return &StageError{
				Stage:   StageStarting,
				Service: h.Name(),
				Err:     fmt.Errorf("%w: %s", ErrUnexpectedExit, exitText(h)),
			}
		}
	}
	return nil
}

func exitText(h *ProcessHandle) string {
	if e := h.ExitErr(); e != nil {
		return e.Error()
	}
	return h.Status().String()
}

func (s *Supervisor) recordExit(h *ProcessHandle) {
	if h.recorded {
		return
	}
	h.recorded = true
	s.metrics.ServiceExited(h.Name(), h.Status())
}

func (s *Supervisor) enterRunning() {
	if s.cfg.Cache != nil && s.cfg.CacheFile != "" {
		rec := *s.cfg.Cache
		rec.ID = s.id
		rec.Host = s.cfg.Host
		rec.Port = s.cfg.Port
		rec.PID = os.Getpid()
		rec.Started = time.Now()
		rec.Env = s.cfg.Env.Slice()
		rec.Services = nil
		for _, h := range s.handles {
			rec.Services = append(rec.Services, h.Name())
		}
		s.addResource(StagedResource{Path: s.cfg.CacheFile, Kind: RemoveFile})
		if e := WriteSession(s.cfg.CacheFile, &rec); e != nil {
			s.logger.Warn("cannot write session cache", "path", s.cfg.CacheFile, "err", e)
		}
	}
	s.setState(StateRunning)
	if s.onRunning != nil {
		s.onRunning(s.Snapshot())
	}
}

// monitor is the session's only wait.  It returns once running is
// cleared, by Stop or by a service going away.
func (s *Supervisor) monitor() {
	m := newMonitor(s.handles)
	for s.running.Load() {
		gone, e := m.wait(s.pollInterval)
		if e != nil {
			intr := errors.Is(e, unix.EINTR)
			s.metrics.PollError(intr)
			if intr {
				s.logger.Debug("wait interrupted, retrying")
			} else {
				s.logger.Warn("wait failed, retrying", "err", e)
				time.Sleep(s.pollInterval)
			}
			continue
		}
		if gone == nil {
			continue
		}
		s.logger.Info("service went away, ending session",
			"service", gone.Name(), "status", gone.Status())
		s.running.Store(false)
		s.publish()
	}
}

// Teardown terminates every service and removes every staged resource,
// each in reverse order of creation.  Processes all go before any file
// does.  A failed step is recorded and the rest still run; the result
// joins a *CleanupWarning per failure.  Run tears down itself; calling
// Teardown after Run returned is harmless.  While Run is active it
// returns ErrSessionActive and does nothing; use Stop instead.
func (s *Supervisor) Teardown() error {
	if s.active.Load() {
		return ErrSessionActive
	}
	return s.teardownAll()
}

func (s *Supervisor) teardownAll() error {
	s.teardown.Lock()
	defer s.teardown.Unlock()

	var warnings []error
	for i := len(s.handles) - 1; i >= 0; i-- {
		h := s.handles[i]
		if s.observe != nil {
			s.observe("service", h.Name())
		}
		t0 := time.Now()
		wasRunning := h.Status() == StatusRunning
		if e := h.Terminate(s.stopTimeout); e != nil {
			s.logger.Warn("cannot stop service", "service", h.Name(), "err", e)
			s.metrics.CleanupWarning("service")
			s.metrics.ServiceError(h.Name(), "terminate")
			warnings = append(warnings, &CleanupWarning{Service: h.Name(), Err: e})
		}
		if wasRunning {
			s.metrics.TerminationDuration(h.Name(), time.Since(t0))
		}
		s.recordExit(h)
		if out := h.TakeTerminationOutput(); out != "" && !s.quiet {
			fmt.Fprintf(s.stderr, "%s:\n%s\n", h.Name(), out)
		}
	}
	for i := len(s.resources) - 1; i >= 0; i-- {
		r := s.resources[i]
		if s.observe != nil {
			s.observe("resource", r.Path)
		}
		if e := r.Remove(); e != nil {
			s.logger.Warn("cannot remove staged resource", "path", r.Path, "err", e)
			s.metrics.CleanupWarning(r.Kind.String())
			warnings = append(warnings, &CleanupWarning{Path: r.Path, Err: e})
		}
	}
	s.publish()
	return errors.Join(warnings...)
}

// Handles returns the started services in start order.
func (s *Supervisor) Handles() []*ProcessHandle {
	return append([]*ProcessHandle(nil), s.handles...)
}

// Resources returns the staged resources in creation order.
func (s *Supervisor) Resources() []StagedResource {
	return append([]StagedResource(nil), s.resources...)
}

// publish builds a new Snapshot from session state.  Only the Run
// goroutine calls it.
func (s *Supervisor) publish() {
	s.serial++
	snap := &Snapshot{
		ID:         s.id,
		Host:       s.cfg.Host,
		Port:       s.cfg.Port,
		State:      s.State(),
		Serial:     s.serial,
		Created:    s.created,
		Updated:    time.Now(),
		logs:       make(map[string]*Log, len(s.handles)),
		superseded: make(chan struct{}),
	}
	for _, h := range s.handles {
		si := ServiceInfo{
			Name:     h.Name(),
			Command:  h.spec.Argv(),
			Rank:     h.spec.Rank,
			Required: h.spec.Required,
			PID:      h.PID(),
			Status:   h.Status(),
			Started:  h.Started(),
		}
		if e := h.ExitErr(); e != nil {
			si.Exit = e.Error()
		}
		snap.Services = append(snap.Services, si)
		snap.logs[h.Name()] = h.Log()
	}
	if old := s.snap.Swap(snap); old != nil {
		close(old.superseded)
	}
}
