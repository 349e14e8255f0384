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
	"net"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// ReservePort checks that host:port can be bound right now.  The socket
// is bound with SO_REUSEADDR (so a port in TIME_WAIT from a previous
// session still counts as free) and closed again immediately.  This is
// advisory only; nothing stops another process taking the port before
// the naming service binds it.
func ReservePort(host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var serr error
			err := c.Control(func(fd uintptr) {
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET,
					unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return serr
		},
	}
	l, e := lc.Listen(context.Background(), "tcp", addr)
	if e != nil {
		if errors.Is(e, syscall.EADDRINUSE) {
			return fmt.Errorf("%w: %s", ErrPortInUse, addr)
		}
		return fmt.Errorf("reserve %s: %w", addr, e)
	}
	return l.Close()
}
