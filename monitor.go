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

	"golang.org/x/sys/unix"
)

// monitor multiplexes the output pipes of every running service onto a
// single poll(2).  The only thing it is looking for is the end of a
// service's stdout, which happens when the service exits.
type monitor struct {
	fds     []unix.PollFd
	refs    []pollRef
	handles []*ProcessHandle
	buf     []byte
}

type pollRef struct {
	h      *ProcessHandle
	stdout bool
}

func newMonitor(handles []*ProcessHandle) *monitor {
	m := &monitor{handles: handles, buf: make([]byte, 4096)}
	for _, h := range handles {
		if h.stdout == nil {
			continue
		}
		m.add(h, h.stdout, true)
		m.add(h, h.stderr, false)
	}
	return m
}

func (m *monitor) add(h *ProcessHandle, f interface{ Fd() uintptr }, stdout bool) {
	m.fds = append(m.fds, unix.PollFd{Fd: int32(f.Fd()), Events: unix.POLLIN})
	m.refs = append(m.refs, pollRef{h: h, stdout: stdout})
}

// wait blocks for at most timeout, copying any output to the services'
// logs.  It returns the first service found to have gone away, or nil.
// Errors come straight from poll, EINTR included; the caller decides
// whether to retry.
func (m *monitor) wait(timeout time.Duration) (*ProcessHandle, error) {
	var gone *ProcessHandle
	if len(m.fds) != 0 {
		n, e := unix.Poll(m.fds, int(timeout/time.Millisecond))
		if e != nil {
			return nil, e
		}
		if n > 0 {
			gone = m.service()
		}
	} else {
		time.Sleep(timeout)
	}
	if gone != nil {
		return gone, nil
	}
	// A service can exit while something it started still holds its
	// stdout open, so check the processes themselves as well.
	for _, h := range m.handles {
		if h.Status() != StatusRunning {
			return h, nil
		}
	}
	return nil, nil
}

// service handles the poll results.
func (m *monitor) service() *ProcessHandle {
	var gone *ProcessHandle
	for i := range m.fds {
		pfd := &m.fds[i]
		if pfd.Fd < 0 || pfd.Revents == 0 {
			continue
		}
		ref := m.refs[i]
		f := ref.h.stderr
		if ref.stdout {
			f = ref.h.stdout
		}
		open := false
		if pfd.Revents&unix.POLLIN != 0 {
			open = ref.h.readStream(f, m.buf, false)
		}
		// POLLHUP without POLLIN means the writer is gone and nothing
		// is left to read.
		if !open {
			pfd.Fd = -1
			if ref.stdout && gone == nil {
				gone = ref.h
			}
		}
		pfd.Revents = 0
	}
	return gone
}
