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

//go:build unix

package launcher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mortbauer/salome-launcher/environ"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLaunch(t *testing.T) {
	Convey("Given a launcher", t, func() {
		dir := t.TempDir()
		l := &Launcher{Env: testEnv(), OutputDir: dir, Logger: testLogger(t)}

		Convey("Output is captured and the process reaped", func() {
			h, e := l.Launch(shell("echo", 0, "echo out; echo err >&2; exit 2"))
			So(e, ShouldBeNil)
			So(h.PID(), ShouldBeGreaterThan, 0)
			select {
			case <-h.Done():
			case <-time.After(5 * time.Second):
				t.Fatal("process did not exit")
			}
			So(h.Status(), ShouldEqual, StatusExitedError)
			So(h.Terminate(time.Second), ShouldBeNil)
			So(h.Terminate(time.Second), ShouldBeNil)

			recs, _ := h.Log().Records(0)
			texts := []string{}
			for _, r := range recs {
				texts = append(texts, r.Stream+":"+r.Text)
			}
			So(texts, ShouldContain, "stdout:out")
			So(texts, ShouldContain, "stderr:err")

			b, e := os.ReadFile(filepath.Join(dir, "echo.log"))
			So(e, ShouldBeNil)
			So(string(b), ShouldContainSubstring, "stdout> out")
		})

		Convey("Terminate stops a running process", func() {
			h, e := l.Launch(shell("sleeper", 0, "exec sleep 30"))
			So(e, ShouldBeNil)
			So(h.Status(), ShouldEqual, StatusRunning)
			t0 := time.Now()
			So(h.Terminate(5*time.Second), ShouldBeNil)
			So(time.Since(t0), ShouldBeLessThan, 5*time.Second)
			So(h.Status(), ShouldEqual, StatusExitedError)
		})

		Convey("A process ignoring SIGTERM is killed after the timeout", func() {
			h, e := l.Launch(shell("stubborn", 0, `trap '' TERM; while :; do sleep 0.1; done`))
			So(e, ShouldBeNil)
			time.Sleep(100 * time.Millisecond)
			So(h.Terminate(200*time.Millisecond), ShouldBeNil)
			So(h.Status(), ShouldNotEqual, StatusRunning)
		})

		Convey("Programs are looked up on the session PATH", func() {
			bin := filepath.Join(dir, "bin")
			So(os.MkdirAll(bin, 0o755), ShouldBeNil)
			So(os.WriteFile(filepath.Join(bin, "hello"), []byte("#!/bin/sh\necho hi\n"), 0o755), ShouldBeNil)

			b := environ.NewBuilder(os.Environ())
			b.Prepend("PATH", bin)
			l.Env = b.Build()
			h, e := l.Launch(ServiceSpec{Name: "hello", Path: "hello"})
			So(e, ShouldBeNil)
			<-h.Done()
			So(h.Terminate(time.Second), ShouldBeNil)
			So(h.Status(), ShouldEqual, StatusExitedOk)
			So(h.Log().Tail(1), ShouldEqual, "hi")
		})

		Convey("Unknown programs fail with ErrSpawn", func() {
			_, e := l.Launch(ServiceSpec{Name: "nope", Path: "no-such-program-anywhere"})
			So(errors.Is(e, ErrSpawn), ShouldBeTrue)
			_, e = l.Launch(ServiceSpec{Name: "nope", Path: dir})
			So(errors.Is(e, ErrSpawn), ShouldBeTrue)
			So(strings.Contains(e.Error(), "nope"), ShouldBeTrue)
		})

		Convey("Bad specs fail with ErrBadSpec", func() {
			_, e := l.Launch(ServiceSpec{Name: "nul", Path: "/bin/sh", Args: []string{"a\x00b"}})
			So(errors.Is(e, ErrBadSpec), ShouldBeTrue)
		})
	})
}
