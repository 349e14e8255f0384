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
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	launcher "github.com/mortbauer/salome-launcher"
	"github.com/mortbauer/salome-launcher/config"
	"github.com/mortbauer/salome-launcher/environ"
	"github.com/mortbauer/salome-launcher/rest"
)

type launchOptions struct {
	host         string
	port         int
	modules      string
	services     string
	quiet        bool
	noGUI        bool
	debugger     bool
	outputDir    string
	statusListen string
	traceFile    string
}

func newLaunchCommand(settings *config.Settings, logger *log.Logger) *cobra.Command {
	opts := launchOptions{
		services:     strings.Join(settings.Services, ","),
		quiet:        settings.Quiet,
		outputDir:    settings.OutputDir,
		statusListen: settings.StatusListen,
	}
	cmd := &cobra.Command{
		Use:   "launch-session <config>",
		Short: "Start a session and supervise it until it ends",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := launchSession(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(),
				args[0], settings, opts, logger)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "sorry, couldn't launch because of: %v\n", err)
				return &exitError{code: 1, err: err}
			}
			return nil
		},
	}
	addSessionFlags(cmd, settings, &opts.host, &opts.port)
	f := cmd.Flags()
	f.StringVar(&opts.modules, "modules", "", "comma separated modules to load (default all)")
	f.StringVar(&opts.services, "services", opts.services, "comma separated session services")
	f.BoolVarP(&opts.quiet, "quiet", "q", opts.quiet, "do not print service output on shutdown")
	f.BoolVar(&opts.noGUI, "no-gui", false, "run the session without the GUI")
	f.BoolVar(&opts.debugger, "debugger", false, "run the session server under "+settings.Debugger)
	f.StringVar(&opts.outputDir, "output-dir", opts.outputDir, "write service output to files in this directory")
	f.StringVar(&opts.statusListen, "status-listen", opts.statusListen, "status server address (empty disables)")
	f.StringVar(&opts.traceFile, "trace-file", "", "send SALOME traces to this file")
	return cmd
}

// launchSession runs one session to completion.  Only a failure before
// the session was running is an error.
func launchSession(ctx context.Context, stdout, stderr io.Writer, path string,
	settings *config.Settings, opts launchOptions, logger *log.Logger) error {

	if opts.noGUI && opts.debugger {
		return errors.New("--no-gui and --debugger cannot be combined")
	}
	cfg, err := config.Read(path)
	if err != nil {
		return err
	}
	if abs, e := filepath.Abs(path); e == nil {
		path = abs
	}
	env, err := environ.Resolve(ctx, cfg, environ.Options{
		Host:     opts.host,
		Port:     opts.port,
		UserPath: settings.NamingPath,
		Logfile:  opts.traceFile,
	})
	if err != nil {
		return err
	}

	stager := launcher.NewStager(settings.LogRoot, env)
	mode := launcher.ModeNormal
	switch {
	case opts.noGUI:
		mode = launcher.ModeNoGUI
	case opts.debugger:
		mode = launcher.ModeDebugger
	}
	topo, err := launcher.BuildTopology(cfg, launcher.TopologyOptions{
		Port:      opts.port,
		LogDir:    stager.LogDir(opts.port),
		NotifyDir: settings.NotifyDir,
		Modules:   config.SplitList(opts.modules),
		Services:  config.SplitList(opts.services),
		Mode:      mode,
		Debugger:  settings.Debugger,
	})
	if err != nil {
		return err
	}

	metrics := launcher.NewPrometheusMetricsCollector("")
	record := &launcher.SessionRecord{Config: path, Modules: cfg}
	sup, err := launcher.NewSupervisor(launcher.SessionConfig{
		Host:      opts.host,
		Port:      opts.port,
		Services:  topo.Specs(),
		Env:       env,
		Stager:    stager,
		Cache:     record,
		CacheFile: launcher.CachePath(environ.SessionCacheDir(), opts.host, opts.port),
	},
		launcher.WithLogger(logger),
		launcher.WithPollInterval(settings.PollInterval),
		launcher.WithStopTimeout(settings.StopTimeout),
		launcher.WithQuiet(opts.quiet),
		launcher.WithStderr(stderr),
		launcher.WithMetrics(metrics),
		launcher.WithLauncher(&launcher.Launcher{Env: env, OutputDir: opts.outputDir, Logger: logger}),
		launcher.WithRunningHook(func(*launcher.Snapshot) {
			fmt.Fprintf(stdout, "salome running on %s:%d\n", opts.host, opts.port)
		}),
	)
	if err != nil {
		return err
	}

	if opts.statusListen != "" {
		srv, err := rest.Listen(opts.statusListen, rest.NewHandler(sup, metrics.Handler()))
		if err != nil {
			return fmt.Errorf("status server: %w", err)
		}
		record.StatusURL = srv.URL()
		go func() {
			if e := srv.Serve(); e != nil {
				logger.Warn("status server failed", "err", e)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Shutdown(sctx)
		}()
		logger.Debug("status server listening", "url", record.StatusURL)
	}

	bridge := launcher.NewSignalBridge(sup, logger)
	bridge.Install()
	defer bridge.Close()

	err = sup.Run(ctx)
	var se *launcher.StageError
	if errors.As(err, &se) && se.Stage == launcher.StageRunning {
		logger.Warn("session ended abnormally", "err", err)
		return nil
	}
	return err
}
