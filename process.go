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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mortbauer/salome-launcher/environ"
)

// Status is the state of a launched process.
type Status int

const (
	StatusRunning Status = iota
	StatusExitedOk
	StatusExitedError
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusExitedOk:
		return "exited"
	case StatusExitedError:
		return "failed"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for st := StatusRunning; st <= StatusExitedError; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// drainTimeout bounds how long teardown waits for a dead child's pipes
// to empty.  A grandchild holding the pipe open must not stall it.
const drainTimeout = 250 * time.Millisecond

// Spawner starts services.  Launcher is the real implementation.
type Spawner interface {
	Launch(spec ServiceSpec) (*ProcessHandle, error)
}

// Launcher starts service processes with the session environment.
type Launcher struct {
	Env *environ.Environment

	// OutputDir, when set, gets a rotating <service>.log per service
	// holding everything the service prints.
	OutputDir string

	Logger *log.Logger
}

// ProcessHandle is one running (or exited) service process.  The
// supervisor that launched it is its only user.
type ProcessHandle struct {
	spec    ServiceSpec
	cmd     *exec.Cmd
	pid     int
	started time.Time
	logger  *log.Logger

	stdout  *os.File // read ends; nil for interactive services
	stderr  *os.File
	outSink *lineSink
	errSink *lineSink
	log     *Log
	file    io.WriteCloser

	done    chan struct{}
	exitErr error // valid once done is closed

	terminated bool
	termOutput bytes.Buffer
	recorded   bool
}

// Launch starts spec.  It never waits for the service to be ready.
func (l *Launcher) Launch(spec ServiceSpec) (*ProcessHandle, error) {
	if e := spec.Validate(); e != nil {
		return nil, e
	}
	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}
	env := l.Env.Slice()
	path, e := lookPath(spec.Path, l.Env.Value("PATH"))
	if e != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, spec.Name, e)
	}

	h := &ProcessHandle{
		spec:   spec,
		logger: logger.With("service", spec.Name),
		log:    NewLog(MaxLogRecords),
		done:   make(chan struct{}),
	}
	if l.OutputDir != "" {
		h.file = &lumberjack.Logger{
			Filename:   filepath.Join(l.OutputDir, spec.Name+".log"),
			MaxSize:    10,
			MaxBackups: 3,
		}
	}

	cmd := &exec.Cmd{
		Path: path,
		Args: spec.Argv(),
		Env:  env,
	}
	var outW, errW *os.File
	if spec.Interactive {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		// os.Pipe sets close-on-exec, so later children never inherit
		// these ends.
		if h.stdout, outW, e = os.Pipe(); e != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, spec.Name, e)
		}
		if h.stderr, errW, e = os.Pipe(); e != nil {
			h.stdout.Close()
			outW.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, spec.Name, e)
		}
		cmd.Stdout = outW
		cmd.Stderr = errW
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		h.outSink = newLineSink(StreamStdout, h.log, h.file)
		h.errSink = newLineSink(StreamStderr, h.log, h.file)
	}

	e = cmd.Start()
	if outW != nil {
		outW.Close()
		errW.Close()
	}
	if e != nil {
		h.closeFiles()
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, spec.Name, e)
	}
	h.cmd = cmd
	h.pid = cmd.Process.Pid
	h.started = time.Now()
	h.logger = h.logger.With("pid", h.pid)

	go func() {
		h.exitErr = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

// lookPath resolves name against the session PATH rather than ours.
func lookPath(name, pathList string) (string, error) {
	if strings.Contains(name, "/") {
		if e := unix.Access(name, unix.X_OK); e != nil {
			return "", &exec.Error{Name: name, Err: e}
		}
		return name, nil
	}
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			dir = "."
		}
		p := filepath.Join(dir, name)
		st, e := os.Stat(p)
		if e != nil || st.IsDir() {
			continue
		}
		if unix.Access(p, unix.X_OK) == nil {
			return p, nil
		}
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// Spec returns the spec the process was started from.
func (h *ProcessHandle) Spec() ServiceSpec {
	return h.spec
}

// Name returns the service name.
func (h *ProcessHandle) Name() string {
	return h.spec.Name
}

// PID returns the process ID.
func (h *ProcessHandle) PID() int {
	return h.pid
}

// Started returns when the process was started.
func (h *ProcessHandle) Started() time.Time {
	return h.started
}

// Log returns the ring of output lines captured from the process.
func (h *ProcessHandle) Log() *Log {
	return h.log
}

// Done is closed once the process has exited and been reaped.
func (h *ProcessHandle) Done() <-chan struct{} {
	return h.done
}

// Status reports whether the process is still running, and if not how
// it ended.
func (h *ProcessHandle) Status() Status {
	select {
	case <-h.done:
	default:
		return StatusRunning
	}
	if h.exitErr != nil {
		return StatusExitedError
	}
	return StatusExitedOk
}

// ExitErr returns the error from waiting on the process, if it has
// exited with one.
func (h *ProcessHandle) ExitErr() error {
	if h.Status() == StatusRunning {
		return nil
	}
	return h.exitErr
}

// signal delivers sig to the service's process group, so anything it
// started goes too.  Interactive services share our group and only get
// the signal themselves.
func (h *ProcessHandle) signal(sig unix.Signal) error {
	pid := -h.pid
	if h.spec.Interactive {
		pid = h.pid
	}
	e := unix.Kill(pid, sig)
	if errors.Is(e, unix.ESRCH) {
		return nil
	}
	return e
}

// Terminate stops the process: SIGTERM, then SIGKILL if it is still
// around after timeout.  It reaps the process, collects what is left in
// its pipes and closes them.  Calling it again does nothing.
func (h *ProcessHandle) Terminate(timeout time.Duration) error {
	if h.terminated {
		return nil
	}
	h.terminated = true

	var err error
	if h.Status() == StatusRunning {
		h.logger.Debug("terminating")
		if e := h.signal(unix.SIGTERM); e != nil {
			err = fmt.Errorf("SIGTERM: %w", e)
		}
		timer := time.NewTimer(timeout)
		select {
		case <-h.done:
		case <-timer.C:
			h.logger.Warn("graceful shutdown timed out, killing")
			if e := h.signal(unix.SIGKILL); e != nil && err == nil {
				err = fmt.Errorf("SIGKILL: %w", e)
			}
			<-h.done
		}
		timer.Stop()
	} else if !h.spec.Interactive {
		// The leader is gone, but its group may not be.
		_ = h.signal(unix.SIGTERM)
	}

	h.drain(drainTimeout)
	h.closeFiles()
	return err
}

// TakeTerminationOutput returns what the process wrote to stderr
// while it was being terminated, and forgets it.
func (h *ProcessHandle) TakeTerminationOutput() string {
	s := strings.TrimSpace(h.termOutput.String())
	h.termOutput.Reset()
	return s
}

// drain reads whatever is still buffered in the output pipes, for at
// most limit.
func (h *ProcessHandle) drain(limit time.Duration) {
	if h.stdout == nil {
		return
	}
	deadline := time.Now().Add(limit)
	open := []*os.File{h.stdout, h.stderr}
	buf := make([]byte, 4096)
	for len(open) != 0 {
		left := time.Until(deadline)
		if left <= 0 {
			break
		}
		fds := make([]unix.PollFd, len(open))
		for i, f := range open {
			fds[i] = unix.PollFd{Fd: int32(f.Fd()), Events: unix.POLLIN}
		}
		n, e := unix.Poll(fds, int(left/time.Millisecond)+1)
		if errors.Is(e, unix.EINTR) {
			continue
		}
		if e != nil || n == 0 {
			break
		}
		var still []*os.File
		for i, f := range open {
			if fds[i].Revents == 0 {
				still = append(still, f)
				continue
			}
			if h.readStream(f, buf, true) {
				still = append(still, f)
			}
		}
		open = still
	}
	h.outSink.Flush()
	h.errSink.Flush()
}

// readStream does one read from f into the matching sink.  It reports
// false once the stream is finished.
func (h *ProcessHandle) readStream(f *os.File, buf []byte, terminating bool) bool {
	n, e := f.Read(buf)
	if n > 0 {
		if f == h.stderr {
			h.errSink.Write(buf[:n])
			if terminating {
				h.termOutput.Write(buf[:n])
			}
		} else {
			h.outSink.Write(buf[:n])
		}
	}
	return e == nil
}

func (h *ProcessHandle) closeFiles() {
	if h.stdout != nil {
		h.stdout.Close()
		h.stdout = nil
	}
	if h.stderr != nil {
		h.stderr.Close()
		h.stderr = nil
	}
	if h.file != nil {
		h.file.Close()
		h.file = nil
	}
}
