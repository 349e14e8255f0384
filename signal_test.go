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
	"os"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	. "github.com/smartystreets/goconvey/convey"
)

type stopCounter struct {
	n atomic.Int32
}

func (s *stopCounter) Stop() {
	s.n.Add(1)
}

func TestSignalBridge(t *testing.T) {
	Convey("A stop signal becomes a Stop call", t, func() {
		target := &stopCounter{}
		b := NewSignalBridge(target, testLogger(t))
		b.Install()
		defer b.Close()

		So(unix.Kill(os.Getpid(), unix.SIGHUP), ShouldBeNil)
		deadline := time.Now().Add(5 * time.Second)
		for target.n.Load() == 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		So(target.n.Load(), ShouldEqual, 1)

		b.Close()
		b.Close()
	})
}
