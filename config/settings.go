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

// Package config loads the launcher's own settings (TOML) and the JSON
// session configuration describing the installed modules.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultHost         = "127.0.0.1"
	defaultPort         = 2815
	defaultServices     = "CPP,GUI,SPLASH"
	defaultPollInterval = time.Second
	defaultStopTimeout  = 10 * time.Second
	defaultLogLevel     = "info"
	defaultStatusListen = "127.0.0.1:0"
	defaultNotifyDir    = "/tmp"
	defaultLogRoot      = "/tmp/logs"
	defaultDebugger     = "gdb"
)

// Settings are the launcher defaults.  Command line flags override them.
type Settings struct {
	Host          string
	Port          int
	Services      []string
	Quiet         bool
	PollInterval  time.Duration
	StopTimeout   time.Duration
	LogLevel      string
	LogFile       string
	OutputDir     string
	StatusListen  string
	NotifyDir     string
	LogRoot       string
	Debugger      string
	PythonVersion string
	NamingPath    string
}

type fileSettings struct {
	Host          *string `toml:"host"`
	Port          *int    `toml:"port"`
	Services      *string `toml:"services"`
	Quiet         *bool   `toml:"quiet"`
	PollInterval  *string `toml:"poll_interval"`
	StopTimeout   *string `toml:"stop_timeout"`
	LogLevel      *string `toml:"log_level"`
	LogFile       *string `toml:"log_file"`
	OutputDir     *string `toml:"output_dir"`
	StatusListen  *string `toml:"status_listen"`
	NotifyDir     *string `toml:"notify_dir"`
	LogRoot       *string `toml:"log_root"`
	Debugger      *string `toml:"debugger"`
	PythonVersion *string `toml:"python_version"`
	NamingPath    *string `toml:"naming_path"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Host:          defaultHost,
		Port:          defaultPort,
		Services:      SplitList(defaultServices),
		PollInterval:  defaultPollInterval,
		StopTimeout:   defaultStopTimeout,
		LogLevel:      defaultLogLevel,
		StatusListen:  defaultStatusListen,
		NotifyDir:     defaultNotifyDir,
		LogRoot:       defaultLogRoot,
		Debugger:      defaultDebugger,
		PythonVersion: DefaultPythonVersion,
	}
}

// SettingsPaths returns the files Load consults, in overlay order: the
// user file under configDir, then the project file under workDir.
func SettingsPaths(configDir, workDir string) []string {
	return []string{
		filepath.Join(configDir, "salome", "launcher.toml"),
		filepath.Join(workDir, ".salome", "launcher.toml"),
	}
}

// Load builds settings from defaults, the settings files, and finally
// the NSHOST/NSPORT and OMNIORB_USER_PATH environment variables.
func Load(ctx context.Context, configDir string) (*Settings, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	cfg, err := LoadFrom(SettingsPaths(configDir, workDir)...)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	_ = ctx
	return cfg, nil
}

// LoadFrom overlays each existing file onto the defaults.  Missing
// files are skipped.
func LoadFrom(paths ...string) (*Settings, error) {
	cfg := Defaults()
	for _, path := range paths {
		if err := overlayFromFile(&cfg, path); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// ApplyEnv applies environment overrides.
func (s *Settings) ApplyEnv(getenv func(string) string) error {
	if s == nil {
		return errors.New("settings must not be nil")
	}
	if h := strings.TrimSpace(getenv("NSHOST")); h != "" {
		s.Host = h
	}
	if p := strings.TrimSpace(getenv("NSPORT")); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("parse NSPORT: %w", err)
		}
		s.Port = port
	}
	if up := strings.TrimSpace(getenv("OMNIORB_USER_PATH")); up != "" {
		s.NamingPath = up
	}
	return nil
}

func overlayFromFile(cfg *Settings, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat settings file %q: %w", path, err)
	}

	var decoded fileSettings
	if _, err := toml.DecodeFile(path, &decoded); err != nil {
		return fmt.Errorf("decode settings file %q: %w", path, err)
	}

	if decoded.Host != nil {
		cfg.Host = strings.TrimSpace(*decoded.Host)
	}
	if decoded.Port != nil {
		if *decoded.Port <= 0 || *decoded.Port > 65535 {
			return fmt.Errorf("port in %q out of range: %d", path, *decoded.Port)
		}
		cfg.Port = *decoded.Port
	}
	if decoded.Services != nil {
		cfg.Services = SplitList(*decoded.Services)
	}
	if decoded.Quiet != nil {
		cfg.Quiet = *decoded.Quiet
	}
	if decoded.PollInterval != nil {
		d, err := parseDuration(*decoded.PollInterval, "poll_interval", path)
		if err != nil {
			return err
		}
		cfg.PollInterval = d
	}
	if decoded.StopTimeout != nil {
		d, err := parseDuration(*decoded.StopTimeout, "stop_timeout", path)
		if err != nil {
			return err
		}
		cfg.StopTimeout = d
	}
	setString(&cfg.LogLevel, decoded.LogLevel)
	setString(&cfg.LogFile, decoded.LogFile)
	setString(&cfg.OutputDir, decoded.OutputDir)
	// An empty status_listen is meaningful: it turns the status server off.
	if decoded.StatusListen != nil {
		cfg.StatusListen = strings.TrimSpace(*decoded.StatusListen)
	}
	setString(&cfg.NotifyDir, decoded.NotifyDir)
	setString(&cfg.LogRoot, decoded.LogRoot)
	setString(&cfg.Debugger, decoded.Debugger)
	setString(&cfg.PythonVersion, decoded.PythonVersion)
	setString(&cfg.NamingPath, decoded.NamingPath)
	return nil
}

func setString(dst *string, v *string) {
	if v == nil {
		return
	}
	if s := strings.TrimSpace(*v); s != "" {
		*dst = s
	}
}

func parseDuration(value, key, path string) (time.Duration, error) {
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s in %q: %w", key, path, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s in %q must be positive", key, path)
	}
	return parsed, nil
}

// SplitList splits a comma separated list, upper-casing and dropping
// empty entries.
func SplitList(s string) []string {
	var rv []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToUpper(strings.TrimSpace(f)); f != "" {
			rv = append(rv, f)
		}
	}
	return rv
}
