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
	"strings"
	"sync"
	"time"
)

// MaxLogRecords is how many lines of child output are kept per service.
const MaxLogRecords = 1000

// Output streams.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// LogRecord is one line of child output.
type LogRecord struct {
	ID     int64     `json:"id,string"`
	Time   time.Time `json:"time"`
	Stream string    `json:"stream"`
	Text   string    `json:"text"`
}

// Log is a bounded ring of output lines.  It is safe for concurrent use;
// the supervisor appends while status readers call Records and Watch.
type Log struct {
	records []LogRecord
	next    int // total appended; next%len(records) is the slot to write
	id      int64
	changed chan struct{}
	mx      sync.Mutex
}

// NewLog returns a Log holding up to max records.  A max of zero means
// MaxLogRecords.
func NewLog(max int) *Log {
	if max <= 0 {
		max = MaxLogRecords
	}
	return &Log{
		records: make([]LogRecord, max),
		// Starting from the clock means IDs from a new Log never match
		// an ETag held over from an earlier one.
		id:      time.Now().UnixNano(),
		changed: make(chan struct{}),
	}
}

// Append records one line per newline separated segment of text.
func (l *Log) Append(stream, text string) {
	text = strings.TrimRight(text, "\n")
	now := time.Now()
	l.mx.Lock()
	for _, line := range strings.Split(text, "\n") {
		r := &l.records[l.next%len(l.records)]
		l.id++
		r.ID = l.id
		r.Time = now
		r.Stream = stream
		r.Text = line
		l.next++
	}
	close(l.changed)
	l.changed = make(chan struct{})
	l.mx.Unlock()
}

// Records returns the stored records, oldest first, and the current ID,
// which is suitable as an ETag.  If last equals the current ID nothing
// changed and nil is returned.
func (l *Log) Records(last int64) ([]LogRecord, int64) {
	l.mx.Lock()
	defer l.mx.Unlock()
	if l.id == last {
		return nil, last
	}
	cnt := l.next
	if cnt > len(l.records) {
		cnt = len(l.records)
	}
	rv := make([]LogRecord, 0, cnt)
	for i := l.next - cnt; i < l.next; i++ {
		rv = append(rv, l.records[i%len(l.records)])
	}
	return rv, l.id
}

// Tail returns the text of the last n records, joined by newlines.
func (l *Log) Tail(n int) string {
	recs, _ := l.Records(0)
	if len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	lines := make([]string, 0, len(recs))
	for _, r := range recs {
		lines = append(lines, r.Text)
	}
	return strings.Join(lines, "\n")
}

// Watch blocks until the log ID differs from last, or expire passes,
// and returns the ID then current.  An expire of zero just polls.
func (l *Log) Watch(last int64, expire time.Duration) int64 {
	l.mx.Lock()
	id, ch := l.id, l.changed
	l.mx.Unlock()
	if id != last || expire <= 0 {
		return id
	}
	timer := time.NewTimer(expire)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
	}
	l.mx.Lock()
	defer l.mx.Unlock()
	return l.id
}
