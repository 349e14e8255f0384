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
	"bytes"
	"go/format"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSourcesFormatted(t *testing.T) {
	Convey("Every source file in the module is gofmt clean", t, func() {
		var files []string
		e := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() && path != "." && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			if !d.IsDir() && strings.HasSuffix(name, ".go") {
				files = append(files, path)
			}
			return nil
		})
		So(e, ShouldBeNil)
		So(len(files), ShouldBeGreaterThan, 0)

		var unformatted []string
		for _, path := range files {
			src, e := os.ReadFile(path)
			So(e, ShouldBeNil)
			out, e := format.Source(src)
			So(e, ShouldBeNil)
			if !bytes.Equal(src, out) {
				unformatted = append(unformatted, path)
			}
		}
		So(unformatted, ShouldBeEmpty)
	})
}
