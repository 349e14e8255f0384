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
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mortbauer/salome-launcher/config"
)

// Mode selects one of the session variants.
type Mode int

const (
	ModeNormal Mode = iota
	ModeNoGUI
	ModeDebugger
)

func (m Mode) String() string {
	switch m {
	case ModeNoGUI:
		return "no-gui"
	case ModeDebugger:
		return "debugger"
	}
	return "normal"
}

// Service names, in start order.
const (
	ServiceNaming       = "naming"
	ServiceNotification = "notification"
	ServiceLauncher     = "launcher"
	ServiceSession      = "session"
	ServiceConnection   = "connection-manager"
)

// TopologyOptions parameterize BuildTopology.
type TopologyOptions struct {
	Port      int
	LogDir    string   // naming service log directory
	NotifyDir string   // where notifd writes its IOR and log files
	Modules   []string // modules to load; empty means all
	Services  []string // session services, e.g. CPP,GUI,SPLASH
	Mode      Mode
	Debugger  string // program wrapping the session server in ModeDebugger
}

// Topology is the fixed set of services that make up one session.
type Topology struct {
	Mode     Mode
	Modules  []string
	Services []string

	specs []ServiceSpec
}

// BuildTopology computes the service specs for a session over cfg.
func BuildTopology(cfg *config.Configuration, opts TopologyOptions) (*Topology, error) {
	kernel, ok := cfg.Module(config.ModuleKernel)
	if !ok {
		return nil, fmt.Errorf("%w: no %s module", ErrConfig, config.ModuleKernel)
	}
	gui, ok := cfg.Module(config.ModuleGUI)
	if !ok {
		return nil, fmt.Errorf("%w: no %s module", ErrConfig, config.ModuleGUI)
	}
	if opts.LogDir == "" {
		return nil, fmt.Errorf("%w: no naming log directory", ErrConfig)
	}

	t := &Topology{Mode: opts.Mode}
	if len(opts.Modules) == 0 {
		t.Modules = cfg.ModuleNames()
	} else {
		for _, m := range opts.Modules {
			t.Modules = append(t.Modules, strings.ToUpper(m))
		}
	}
	for _, s := range opts.Services {
		s = strings.ToUpper(s)
		if opts.Mode == ModeNoGUI && s == "GUI" {
			continue
		}
		t.Services = append(t.Services, s)
	}

	notifyDir := opts.NotifyDir
	if notifyDir == "" {
		notifyDir = "/tmp"
	}
	factory := filepath.Join(notifyDir, "rdifact.ior")
	channel := filepath.Join(notifyDir, "rdichan.ior")
	report := filepath.Join(notifyDir, "notifd.report")
	debug := filepath.Join(notifyDir, "notifd.debug")

	catalogs := strings.Join(cfg.Catalogs(), "::")
	common := []string{
		"--with", "Registry", "(", "--salome_session", "theSession", ")",
		"--with", "ModuleCatalog", "(", "-common", catalogs, ")",
		"--with", "SALOMEDS", "(", ")",
		"--with", "Container", "(", "FactoryServer", ")",
	}

	session := ServiceSpec{
		Name:     ServiceSession,
		Path:     filepath.Join(gui.Bin, "SALOME_Session_Server"),
		Args:     append(append([]string{}, common...), "--modules ("+strings.Join(t.Modules, ":")+")"),
		Rank:     3,
		Required: true,
	}
	session.Args = append(session.Args, t.Services...)
	if opts.Mode == ModeDebugger {
		dbg := opts.Debugger
		if dbg == "" {
			dbg = "gdb"
		}
		session = ServiceSpec{
			Name:        session.Name,
			Path:        dbg,
			Args:        append([]string{"--args"}, session.Argv()...),
			Rank:        session.Rank,
			Required:    true,
			Interactive: true,
		}
	}

	t.specs = []ServiceSpec{
		{
			Name: ServiceNaming,
			Path: "omniNames",
			Args: []string{
				"-start", strconv.Itoa(opts.Port),
				"-logdir", opts.LogDir,
				"-errlog", filepath.Join(opts.LogDir, "omniNameErrors.log"),
			},
			Rank:     0,
			Required: true,
		},
		{
			Name: ServiceNotification,
			Path: "notifd",
			Args: []string{
				"-c", filepath.Join(kernel.Resources, "channel.cfg"),
				"-DFactoryIORFileName=" + factory,
				"-DChannelIORFileName=" + channel,
				"-DReportLogFile=" + report,
				"-DDebugLogFile=" + debug,
			},
			Rank:     1,
			Required: true,
			Artifacts: []StagedResource{
				{Path: factory, Kind: RemoveFile},
				{Path: channel, Kind: RemoveFile},
				{Path: report, Kind: RemoveFile},
				{Path: debug, Kind: RemoveFile},
			},
		},
		{
			Name:     ServiceLauncher,
			Path:     filepath.Join(kernel.Bin, "SALOME_LauncherServer"),
			Args:     append([]string{}, common...),
			Rank:     2,
			Required: true,
		},
		session,
		{
			Name: ServiceConnection,
			Path: filepath.Join(kernel.Bin, "SALOME_ConnectionManagerServer"),
			Rank: 4,
		},
	}
	return t, nil
}

// Specs returns the service specs in rank order.  The slice is a copy.
func (t *Topology) Specs() []ServiceSpec {
	return append([]ServiceSpec(nil), t.specs...)
}
