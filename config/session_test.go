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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConfiguration(t *testing.T) {
	Convey("A configuration survives save and read", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "sub", "salome.json")
		c := &Configuration{
			Env: map[string]StringList{"FOO": {"/a", "/b"}},
			Modules: map[string]Module{
				"KERNEL": {Root: "/k", Bin: "/k/bin/salome", Resources: "/k/res", Catalog: "/k/res/KERNELCatalog.xml"},
				"GEOM":   {Root: "/g", Catalog: "/g/res/GEOMCatalog.xml"},
			},
		}
		So(Save(c, path), ShouldBeNil)

		b, e := os.ReadFile(path)
		So(e, ShouldBeNil)
		So(string(b), ShouldContainSubstring, "\n    \"env\"")
		So(strings.Index(string(b), "\"GEOM\""), ShouldBeLessThan, strings.Index(string(b), "\"KERNEL\""))

		r, e := Read(path)
		So(e, ShouldBeNil)
		So(r.Modules["KERNEL"].Bin, ShouldEqual, "/k/bin/salome")
		So(r.ModuleNames(), ShouldResemble, []string{"GEOM", "KERNEL"})
		So(r.Catalogs(), ShouldResemble, []string{"/g/res/GEOMCatalog.xml", "/k/res/KERNELCatalog.xml"})
		So(r.Validate(), ShouldBeNil)
	})

	Convey("Scalar env values and env_sh strings are accepted", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "c.json")
		writeFile(t, path, `{"env": {"HOMARD_EXE": ""}, "env_sh": "/opt/env.sh", "modules": {}}`)
		r, e := Read(path)
		So(e, ShouldBeNil)
		So(r.Env["HOMARD_EXE"], ShouldResemble, StringList{""})
		So(r.EnvScripts, ShouldResemble, StringList{"/opt/env.sh"})
		So(r.Validate(), ShouldNotBeNil)
	})

	Convey("Module lookup ignores case", t, func() {
		c := &Configuration{Modules: map[string]Module{"KERNEL": {Root: "/k"}}}
		m, ok := c.Module("kernel")
		So(ok, ShouldBeTrue)
		So(m.Root, ShouldEqual, "/k")
		_, ok = c.Module("GUI")
		So(ok, ShouldBeFalse)
	})

	Convey("Reading a missing file fails", t, func() {
		_, e := Read(filepath.Join(t.TempDir(), "nope.json"))
		So(e, ShouldNotBeNil)
	})
}
