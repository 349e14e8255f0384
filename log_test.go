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
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLog(t *testing.T) {
	Convey("Given a small log", t, func() {
		l := NewLog(3)
		recs, id := l.Records(0)
		So(recs, ShouldBeEmpty)

		Convey("It keeps only the newest records", func() {
			l.Append(StreamStdout, "one\ntwo\n")
			l.Append(StreamStderr, "three")
			l.Append(StreamStdout, "four")
			recs, next := l.Records(id)
			So(next, ShouldNotEqual, id)
			So(len(recs), ShouldEqual, 3)
			So(recs[0].Text, ShouldEqual, "two")
			So(recs[1].Stream, ShouldEqual, StreamStderr)
			So(recs[2].Text, ShouldEqual, "four")
			So(l.Tail(2), ShouldEqual, "three\nfour")

			again, same := l.Records(next)
			So(again, ShouldBeNil)
			So(same, ShouldEqual, next)
		})

		Convey("Watch wakes on append", func() {
			go func() {
				time.Sleep(20 * time.Millisecond)
				l.Append(StreamStdout, "hello")
			}()
			So(l.Watch(id, 5*time.Second), ShouldNotEqual, id)
		})

		Convey("Watch gives up after expire", func() {
			So(l.Watch(id, 10*time.Millisecond), ShouldEqual, id)
		})
	})
}

func TestLineSink(t *testing.T) {
	Convey("Partial lines are held until complete", t, func() {
		l := NewLog(10)
		var file bytes.Buffer
		s := newLineSink(StreamStderr, l, &file)
		s.Write([]byte("par"))
		s.Write([]byte("tial\r\nnext"))
		recs, _ := l.Records(0)
		So(len(recs), ShouldEqual, 1)
		So(recs[0].Text, ShouldEqual, "partial")

		s.Flush()
		recs, _ = l.Records(0)
		So(len(recs), ShouldEqual, 2)
		So(recs[1].Text, ShouldEqual, "next")
		So(file.String(), ShouldEqual, "stderr> partial\nstderr> next\n")
	})
}
