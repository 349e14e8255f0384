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

// Command salome-launcher starts, inspects and attaches to SALOME
// sessions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mortbauer/salome-launcher/config"
	"github.com/mortbauer/salome-launcher/environ"
	"github.com/mortbauer/salome-launcher/logging"
)

// Version is set at build time.
var Version = "dev"

// exitError carries an exit status out of a command.  Whatever the user
// needs to know has already been printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitError) Unwrap() error {
	return e.err
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	settings, err := config.Load(ctx, environ.ConfigDir())
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level: settings.LogLevel,
		File:  settings.LogFile,
	})
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "failed to close logger: %v\n", closeErr)
		}
	}()

	cmd := newRootCommand(settings, logger.Logger)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newRootCommand(settings *config.Settings, logger *log.Logger) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "salome-launcher",
		Short:         "Launch and supervise SALOME sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newLaunchCommand(settings, logger),
		newConnectCommand(settings, logger),
		newTemplateCommand(settings, logger),
		newStatusCommand(settings, logger),
	)

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		if logger == nil {
			return errors.New("logger is required")
		}
		if settings == nil {
			return errors.New("settings are required")
		}
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
		logger.With("command", cmd.Name()).Debug("command invocation")
		return nil
	}
	return root
}

// addSessionFlags adds the flags naming a session by host and port.
func addSessionFlags(cmd *cobra.Command, settings *config.Settings, host *string, port *int) {
	cmd.Flags().StringVar(host, "host", settings.Host, "naming service host")
	cmd.Flags().IntVarP(port, "port", "p", settings.Port, "naming service port")
}
