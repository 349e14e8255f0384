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

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Console logging honours the level", t, func() {
		var buf bytes.Buffer
		l, e := New(Options{Level: "warn", Writer: &buf})
		So(e, ShouldBeNil)
		l.Info("hidden")
		l.Warn("shown", "port", 2815)
		So(buf.String(), ShouldNotContainSubstring, "hidden")
		So(buf.String(), ShouldContainSubstring, "shown")
		So(buf.String(), ShouldContainSubstring, "port=2815")
		So(l.Close(), ShouldBeNil)
	})

	Convey("A log file gets JSON records", t, func() {
		path := filepath.Join(t.TempDir(), "sub", "launcher.log")
		l, e := New(Options{File: path})
		So(e, ShouldBeNil)
		l.Info("hello", "service", "naming")
		So(l.Close(), ShouldBeNil)

		b, e := os.ReadFile(path)
		So(e, ShouldBeNil)
		line := strings.TrimSpace(string(b))
		var rec map[string]interface{}
		So(json.Unmarshal([]byte(line), &rec), ShouldBeNil)
		So(rec["msg"], ShouldEqual, "hello")
		So(rec["service"], ShouldEqual, "naming")
	})

	Convey("Unknown levels are rejected", t, func() {
		_, e := New(Options{Level: "chatty"})
		So(e, ShouldNotBeNil)
	})
}
