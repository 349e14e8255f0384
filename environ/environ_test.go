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

package environ

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mortbauer/salome-launcher/config"

	. "github.com/smartystreets/goconvey/convey"
)

const sep = string(os.PathListSeparator)

func TestBuilder(t *testing.T) {
	Convey("Given a builder with a base environment", t, func() {
		b := NewBuilder([]string{"PATH=/usr/bin", "EMPTY=", "bogus"})

		Convey("Malformed entries are dropped", func() {
			_, ok := b.Get("bogus")
			So(ok, ShouldBeFalse)
			v, ok := b.Get("EMPTY")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "")
		})

		Convey("Prepend skips entries already present", func() {
			b.Prepend("PATH", "/opt/a", "", "/usr/bin", "/opt/b")
			So(b.Build().Value("PATH"), ShouldEqual, "/opt/b"+sep+"/opt/a"+sep+"/usr/bin")
		})

		Convey("SetDefault keeps existing values", func() {
			b.SetDefault("EMPTY", "x")
			b.SetDefault("NEW", "y")
			e := b.Build()
			So(e.Value("EMPTY"), ShouldEqual, "")
			So(e.Value("NEW"), ShouldEqual, "y")
		})

		Convey("Built environments are frozen", func() {
			e := b.Build()
			b.Set("PATH", "changed")
			So(e.Value("PATH"), ShouldEqual, "/usr/bin")
			So(e.Slice(), ShouldResemble, []string{"EMPTY=", "PATH=/usr/bin"})
			So(FromSlice(e.Slice()).Len(), ShouldEqual, 2)
		})
	})
}

func TestNaming(t *testing.T) {
	Convey("Naming variables point at the per port config", t, func() {
		b := NewBuilder(nil)
		ApplyNaming(b, "/u/orb", "127.0.0.1", 2815)
		e := b.Build()
		So(e.Value(VarUserPath), ShouldEqual, "/u/orb")
		So(e.Value(VarConfig), ShouldEqual, "/u/orb/omniORB_127.0.0.1_2815.cfg")
		So(e.Value(VarPort), ShouldEqual, "2815")
		So(e.Value(VarHost), ShouldEqual, "127.0.0.1")
	})

	Convey("A written naming config can be read back", t, func() {
		path := filepath.Join(t.TempDir(), "orb.cfg")
		So(os.WriteFile(path, []byte(FormatNamingConfig("node", 2900)), 0o644), ShouldBeNil)
		info, e := ReadNamingConfig(path)
		So(e, ShouldBeNil)
		So(info, ShouldResemble, NamingInfo{Version: "4", Host: "node", Port: 2900})

		So(os.WriteFile(path, []byte("ORBInitRef NameService=corbaname::old:2811\n"), 0o644), ShouldBeNil)
		info, e = ReadNamingConfig(path)
		So(e, ShouldBeNil)
		So(info.Version, ShouldEqual, "3")
		So(info.Port, ShouldEqual, 2811)

		So(os.WriteFile(path, []byte("traceLevel = 0\n"), 0o644), ShouldBeNil)
		_, e = ReadNamingConfig(path)
		So(e, ShouldNotBeNil)
	})

	Convey("The naming port comes from NSPORT, then the config, then the default", t, func() {
		path := filepath.Join(t.TempDir(), "orb.cfg")
		So(os.WriteFile(path, []byte(FormatNamingConfig("node", 2901)), 0o644), ShouldBeNil)
		env := map[string]string{VarPort: "2999", VarConfig: path}
		get := func(k string) string { return env[k] }
		So(NamingPort(get), ShouldEqual, 2999)
		delete(env, VarPort)
		So(NamingPort(get), ShouldEqual, 2901)
		delete(env, VarConfig)
		So(NamingPort(get), ShouldEqual, DefaultNamingPort)
	})
}

func testConfig(root string) *config.Configuration {
	mod := func(name string) config.Module {
		r := filepath.Join(root, name)
		return config.Module{
			Root:          r,
			Bin:           filepath.Join(r, "bin"),
			Lib:           filepath.Join(r, "lib"),
			SitePackages:  filepath.Join(r, "site"),
			SharedModules: filepath.Join(r, "shared"),
			Resources:     filepath.Join(r, "res"),
		}
	}
	return &config.Configuration{
		Env:     map[string]config.StringList{"EXTRA": {"/x1", "/x2"}},
		Modules: map[string]config.Module{"KERNEL": mod("KERNEL"), "GUI": mod("GUI")},
	}
}

func TestResolve(t *testing.T) {
	Convey("Given a two module configuration", t, func() {
		root := t.TempDir()
		cfg := testConfig(root)
		opts := Options{
			Host:      "127.0.0.1",
			Port:      2815,
			UserPath:  filepath.Join(root, "orb"),
			Base:      []string{"PATH=/usr/bin"},
			Hooks:     NewRegistry(),
			ConfigDir: filepath.Join(root, "cfg"),
		}

		Convey("Module paths and session variables are set", func() {
			e, err := Resolve(context.Background(), cfg, opts)
			So(err, ShouldBeNil)
			k := cfg.Modules["KERNEL"]
			g := cfg.Modules["GUI"]
			So(e.Value("KERNEL_ROOT_DIR"), ShouldEqual, k.Root)
			So(e.Value("GUI_ROOT_DIR"), ShouldEqual, g.Root)
			So(e.Value("PATH"), ShouldEqual, k.Bin+sep+g.Bin+sep+"/usr/bin")
			So(strings.HasPrefix(e.Value("PYTHONPATH"), k.SharedModules+sep+k.SitePackages), ShouldBeTrue)
			So(e.Value("SALOMEPATH"), ShouldEqual, g.Root+sep+k.Root)
			So(e.Value("SALOME_BATCH"), ShouldEqual, "0")
			So(e.Value("SALOME_trace"), ShouldEqual, "local")
			So(e.Value("CSF_SALOMEDS_ResourcesDefaults"), ShouldEqual, k.Resources)
			So(e.Value("USER_CATALOG_RESOURCES_FILE"), ShouldEqual,
				filepath.Join(root, "cfg", "salome", "CatalogResources.xml"))
			So(e.Value("EXTRA"), ShouldEqual, "/x2"+sep+"/x1")
			So(e.Value(VarPort), ShouldEqual, "2815")
		})

		Convey("Resolution is deterministic", func() {
			a, err := Resolve(context.Background(), cfg, opts)
			So(err, ShouldBeNil)
			b, err := Resolve(context.Background(), cfg, opts)
			So(err, ShouldBeNil)
			So(a.Slice(), ShouldResemble, b.Slice())
		})

		Convey("A logfile redirects the trace", func() {
			opts.Logfile = "/tmp/salome.log"
			e, err := Resolve(context.Background(), cfg, opts)
			So(err, ShouldBeNil)
			So(e.Value("SALOME_trace"), ShouldEqual, "file:/tmp/salome.log")
		})

		Convey("Hooks run per module and their errors surface", func() {
			seen := []string{}
			opts.Hooks.Register("gui", func(name string, m config.Module, b *Builder) error {
				seen = append(seen, name)
				b.Set("GUI_HOOKED", "1")
				return nil
			})
			e, err := Resolve(context.Background(), cfg, opts)
			So(err, ShouldBeNil)
			So(seen, ShouldResemble, []string{"GUI"})
			So(e.Value("GUI_HOOKED"), ShouldEqual, "1")

			boom := errors.New("boom")
			opts.Hooks.Register("KERNEL", func(string, config.Module, *Builder) error { return boom })
			_, err = Resolve(context.Background(), cfg, opts)
			So(errors.Is(err, boom), ShouldBeTrue)
		})

		Convey("Shell scripts are sourced first", func() {
			script := filepath.Join(root, "env.sh")
			So(os.WriteFile(script, []byte("export FROM_SCRIPT=yes\nexport NSPORT=1\n"), 0o644), ShouldBeNil)
			cfg.EnvScripts = config.StringList{script}
			e, err := Resolve(context.Background(), cfg, opts)
			So(err, ShouldBeNil)
			So(e.Value("FROM_SCRIPT"), ShouldEqual, "yes")
			So(e.Value(VarPort), ShouldEqual, "2815")
		})

		Convey("A missing KERNEL module is an error", func() {
			delete(cfg.Modules, "KERNEL")
			_, err := Resolve(context.Background(), cfg, opts)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestDefaultHooks(t *testing.T) {
	Convey("The SMESH hook sets a default mesher list", t, func() {
		hook := DefaultRegistry.Lookup("smesh")
		So(hook, ShouldNotBeNil)
		b := NewBuilder(nil)
		So(hook("SMESH", config.Module{Resources: "/s/res"}, b), ShouldBeNil)
		e := b.Build()
		So(e.Value("SMESH_MeshersList"), ShouldEqual, "StdMeshers")
		So(e.Value("SalomeAppConfig"), ShouldEqual, "/s/res")
		So(hook("SMESH", config.Module{}, b), ShouldNotBeNil)
	})
}

func TestParseEnvOutput(t *testing.T) {
	Convey("Multi-line values are kept together", t, func() {
		m := parseEnvOutput([]byte("A=1\nB=line one\nline two\nC=\n"))
		So(m["A"], ShouldEqual, "1")
		So(m["B"], ShouldEqual, "line one\nline two")
		So(m["C"], ShouldEqual, "")
	})
}
