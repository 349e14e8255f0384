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
	"io"
	"sync"
)

// lineSink splits raw child output into lines and hands each complete
// line to a Log and to any number of extra writers, such as a rotating
// per-service file.  A trailing partial line is held until the next
// write or until Flush.
type lineSink struct {
	stream  string
	log     *Log
	writers []io.Writer
	partial []byte
	lock    sync.Mutex
}

func newLineSink(stream string, l *Log, writers ...io.Writer) *lineSink {
	s := &lineSink{stream: stream, log: l}
	for _, w := range writers {
		if w != nil {
			s.writers = append(s.writers, w)
		}
	}
	return s
}

// Write implements io.Writer.
func (s *lineSink) Write(b []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.partial = append(s.partial, b...)
	for {
		i := bytes.IndexByte(s.partial, '\n')
		if i < 0 {
			break
		}
		s.emit(s.partial[:i])
		s.partial = s.partial[i+1:]
	}
	if len(s.partial) == 0 {
		s.partial = nil
	}
	return len(b), nil
}

// Flush emits any held partial line.
func (s *lineSink) Flush() {
	s.lock.Lock()
	if len(s.partial) != 0 {
		s.emit(s.partial)
		s.partial = nil
	}
	s.lock.Unlock()
}

func (s *lineSink) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if s.log != nil {
		s.log.Append(s.stream, string(line))
	}
	for _, w := range s.writers {
		// Write errors on a side file must not disturb the session.
		_, _ = w.Write(append(append([]byte(s.stream+"> "), line...), '\n'))
	}
}
