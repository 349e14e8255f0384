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
	"testing"

	"github.com/mortbauer/salome-launcher/config"

	. "github.com/smartystreets/goconvey/convey"
)

func topologyConfig() *config.Configuration {
	return &config.Configuration{Modules: map[string]config.Module{
		"KERNEL": {Bin: "/k/bin", Resources: "/k/res", Catalog: "/k/KERNELCatalog.xml"},
		"GUI":    {Bin: "/g/bin", Catalog: "/g/GUICatalog.xml"},
		"GEOM":   {Catalog: "/geom/GEOMCatalog.xml"},
	}}
}

func TestBuildTopology(t *testing.T) {
	Convey("Given a three module configuration", t, func() {
		opts := TopologyOptions{
			Port:      2815,
			LogDir:    "/tmp/logs/omniNames_2815",
			NotifyDir: "/run/n",
			Services:  []string{"cpp", "GUI", "splash"},
		}

		Convey("The normal topology has five services in rank order", func() {
			top, e := BuildTopology(topologyConfig(), opts)
			So(e, ShouldBeNil)
			specs := top.Specs()
			So(len(specs), ShouldEqual, 5)
			names := []string{}
			for i, s := range specs {
				So(s.Rank, ShouldEqual, i)
				names = append(names, s.Name)
			}
			So(names, ShouldResemble, []string{
				ServiceNaming, ServiceNotification, ServiceLauncher, ServiceSession, ServiceConnection,
			})
			So(specs[4].Required, ShouldBeFalse)
			So(specs[3].Required, ShouldBeTrue)

			So(specs[0].Argv(), ShouldResemble, []string{
				"omniNames", "-start", "2815", "-logdir", opts.LogDir,
				"-errlog", opts.LogDir + "/omniNameErrors.log",
			})
			So(specs[1].Args[1], ShouldEqual, "/k/res/channel.cfg")
			So(specs[1].Args[2], ShouldEqual, "-DFactoryIORFileName=/run/n/rdifact.ior")
			So(len(specs[1].Artifacts), ShouldEqual, 4)

			catalogs := "/geom/GEOMCatalog.xml::/g/GUICatalog.xml::/k/KERNELCatalog.xml"
			So(specs[2].Argv(), ShouldResemble, []string{
				"/k/bin/SALOME_LauncherServer",
				"--with", "Registry", "(", "--salome_session", "theSession", ")",
				"--with", "ModuleCatalog", "(", "-common", catalogs, ")",
				"--with", "SALOMEDS", "(", ")",
				"--with", "Container", "(", "FactoryServer", ")",
			})
			sess := specs[3].Argv()
			So(sess[0], ShouldEqual, "/g/bin/SALOME_Session_Server")
			So(sess[len(sess)-4:], ShouldResemble, []string{
				"--modules (GEOM:GUI:KERNEL)", "CPP", "GUI", "SPLASH",
			})
			So(specs[4].Argv(), ShouldResemble, []string{"/k/bin/SALOME_ConnectionManagerServer"})
		})

		Convey("No-GUI mode drops the GUI service", func() {
			opts.Mode = ModeNoGUI
			opts.Modules = []string{"geom", "smesh"}
			top, e := BuildTopology(topologyConfig(), opts)
			So(e, ShouldBeNil)
			So(top.Services, ShouldResemble, []string{"CPP", "SPLASH"})
			sess := top.Specs()[3].Argv()
			So(sess[len(sess)-3:], ShouldResemble, []string{"--modules (GEOM:SMESH)", "CPP", "SPLASH"})
		})

		Convey("Debugger mode wraps the session server", func() {
			opts.Mode = ModeDebugger
			opts.Debugger = "lldb"
			top, e := BuildTopology(topologyConfig(), opts)
			So(e, ShouldBeNil)
			s := top.Specs()[3]
			So(s.Path, ShouldEqual, "lldb")
			So(s.Args[0], ShouldEqual, "--args")
			So(s.Args[1], ShouldEqual, "/g/bin/SALOME_Session_Server")
			So(s.Interactive, ShouldBeTrue)
		})

		Convey("A configuration without GUI is rejected", func() {
			cfg := topologyConfig()
			delete(cfg.Modules, "GUI")
			_, e := BuildTopology(cfg, opts)
			So(errors.Is(e, ErrConfig), ShouldBeTrue)
		})
	})
}
