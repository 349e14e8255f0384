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
	"errors"
	"net"
	"strconv"
	"syscall"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestReservePort(t *testing.T) {
	Convey("Reserving a free port succeeds and releases it", t, func() {
		l, e := net.Listen("tcp", "127.0.0.1:0")
		So(e, ShouldBeNil)
		port := l.Addr().(*net.TCPAddr).Port
		So(l.Close(), ShouldBeNil)

		So(ReservePort("127.0.0.1", port), ShouldBeNil)
		// Released, so a second check works too.
		So(ReservePort("127.0.0.1", port), ShouldBeNil)
	})

	Convey("Reserving a bound port fails with ErrPortInUse", t, func() {
		l, e := net.Listen("tcp", "127.0.0.1:0")
		So(e, ShouldBeNil)
		defer l.Close()
		_, p, _ := net.SplitHostPort(l.Addr().String())
		port, _ := strconv.Atoi(p)

		e = ReservePort("127.0.0.1", port)
		So(e, ShouldNotBeNil)
		So(errors.Is(e, ErrPortInUse), ShouldBeTrue)
	})

	Convey("Other bind failures are not reported as in use", t, func() {
		// 192.0.2.1 is reserved for documentation and never local.
		e := ReservePort("192.0.2.1", 2815)
		So(e, ShouldNotBeNil)
		So(errors.Is(e, ErrPortInUse), ShouldBeFalse)
		So(errors.Is(e, syscall.EADDRNOTAVAIL), ShouldBeTrue)

		// Port 1 either binds (privileged) or is refused with EACCES.
		e = ReservePort("127.0.0.1", 1)
		So(errors.Is(e, ErrPortInUse), ShouldBeFalse)
		if e != nil {
			So(errors.Is(e, syscall.EACCES), ShouldBeTrue)
		}
	})
}
