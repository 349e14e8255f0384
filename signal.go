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
	"os"
	"os/signal"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

// StopSignals are the signals that end a session.
var StopSignals = []os.Signal{unix.SIGTERM, unix.SIGINT, unix.SIGHUP, unix.SIGQUIT}

// Stopper is anything that can be asked to stop.
type Stopper interface {
	Stop()
}

// SignalBridge turns stop signals into Stop requests.  It does nothing
// else; teardown stays with the supervisor.
type SignalBridge struct {
	target Stopper
	logger *log.Logger
	ch     chan os.Signal
	done   chan struct{}
	once   sync.Once
}

// NewSignalBridge returns a bridge for target.  Install must be called
// to start it.
func NewSignalBridge(target Stopper, logger *log.Logger) *SignalBridge {
	if logger == nil {
		logger = log.Default()
	}
	return &SignalBridge{
		target: target,
		logger: logger,
		ch:     make(chan os.Signal, 4),
		done:   make(chan struct{}),
	}
}

// Install starts delivering StopSignals to the target.
func (b *SignalBridge) Install() {
	signal.Notify(b.ch, StopSignals...)
	go b.loop()
}

func (b *SignalBridge) loop() {
	for {
		select {
		case sig := <-b.ch:
			b.logger.Info("received signal, shutting down", "signal", sig)
			b.target.Stop()
		case <-b.done:
			return
		}
	}
}

// Close restores default signal handling.
func (b *SignalBridge) Close() {
	b.once.Do(func() {
		signal.Stop(b.ch)
		close(b.done)
	})
}
