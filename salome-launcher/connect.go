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

package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	launcher "github.com/mortbauer/salome-launcher"
	"github.com/mortbauer/salome-launcher/config"
	"github.com/mortbauer/salome-launcher/environ"
)

func newConnectCommand(settings *config.Settings, logger *log.Logger) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "connect-session [-- command...]",
		Short: "Run a shell or command in a running session's environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := findSession(cmd, host, port)
			if err != nil {
				return err
			}
			shell := os.Getenv("SHELL")
			if shell == "" {
				shell = "/bin/sh"
			}
			argv := []string{shell}
			if len(args) > 0 {
				argv = append(argv, "-c", strings.Join(args, " "))
			}
			logger.Debug("connecting", "session", rec.ID, "argv", argv)

			c := exec.CommandContext(cmd.Context(), argv[0], argv[1:]...)
			c.Env = rec.Env
			c.Stdin = cmd.InOrStdin()
			c.Stdout = cmd.OutOrStdout()
			c.Stderr = cmd.ErrOrStderr()
			err = c.Run()
			var xe *exec.ExitError
			if errors.As(err, &xe) {
				return &exitError{code: xe.ExitCode()}
			}
			return err
		},
	}
	addSessionFlags(cmd, settings, &host, &port)
	return cmd
}

// findSession loads the cache record for host:port, telling the user
// if there is none.
func findSession(cmd *cobra.Command, host string, port int) (*launcher.SessionRecord, error) {
	rec, err := launcher.ReadSession(launcher.CachePath(environ.SessionCacheDir(), host, port))
	if errors.Is(err, launcher.ErrNoSession) {
		fmt.Fprintf(cmd.ErrOrStderr(), "no session found on %s:%d, is the server running?\n", host, port)
		return nil, &exitError{code: 1, err: err}
	}
	return rec, err
}
