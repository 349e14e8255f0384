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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

// Names of the variables the naming service and its clients consult.
const (
	VarConfig   = "OMNIORB_CONFIG"
	VarUserPath = "OMNIORB_USER_PATH"
	VarPort     = "NSPORT"
	VarHost     = "NSHOST"

	// DefaultNamingPort is what CORBA clients assume when nothing else
	// says otherwise.
	DefaultNamingPort = 2809

	// MaxMessageSize is the giopMaxMsgSize written to the naming config.
	MaxMessageSize = 2097152000
)

// CacheDir returns the per-user cache root: $XDG_CACHE_HOME, else
// ~/.cache.  On Windows it is %LOCALAPPDATA%.
func CacheDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("LOCALAPPDATA")
	}
	if d := os.Getenv("XDG_CACHE_HOME"); d != "" {
		return d
	}
	if home, e := os.UserHomeDir(); e == nil {
		return filepath.Join(home, ".cache")
	}
	return ".cache"
}

// ConfigDir returns the per-user config root: $XDG_CONFIG_HOME, else
// ~/.config.
func ConfigDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("LOCALAPPDATA")
	}
	if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
		return d
	}
	if home, e := os.UserHomeDir(); e == nil {
		return filepath.Join(home, ".config")
	}
	return ".config"
}

// NamingUserPath is the directory holding generated naming configs.
// An explicit userPath wins over the cache default.
func NamingUserPath(userPath string) string {
	if userPath != "" {
		return userPath
	}
	return filepath.Join(CacheDir(), "omniORB")
}

// NamingConfigPath is the config file for one host:port pair.
func NamingConfigPath(userPath, host string, port int) string {
	return filepath.Join(NamingUserPath(userPath),
		fmt.Sprintf("omniORB_%s_%d.cfg", host, port))
}

// SessionCacheDir is where session cache files live.
func SessionCacheDir() string {
	return filepath.Join(CacheDir(), "salome", "sessions")
}

// ApplyNaming records the naming service location in b.
func ApplyNaming(b *Builder, userPath, host string, port int) {
	up := NamingUserPath(userPath)
	b.Set(VarUserPath, up)
	b.Set(VarConfig, NamingConfigPath(up, host, port))
	b.Set(VarPort, strconv.Itoa(port))
	b.Set(VarHost, host)
}

// FormatNamingConfig renders the naming config file body.
func FormatNamingConfig(host string, port int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "InitRef = NameService=corbaname::%s:%d\n", host, port)
	fmt.Fprintf(&sb, "giopMaxMsgSize = %d\n", MaxMessageSize)
	sb.WriteString("traceLevel = 0\n")
	return sb.String()
}

var initRefRE = regexp.MustCompile(`^(ORB)?InitRef.*corbaname::(.*):(\d+)\s*$`)

// NamingInfo is what can be recovered from a naming config file.
type NamingInfo struct {
	Version string // "3" for ORBInitRef, "4" for InitRef
	Host    string
	Port    int
}

// ReadNamingConfig parses the first InitRef line of a naming config.
func ReadNamingConfig(path string) (NamingInfo, error) {
	f, e := os.Open(path)
	if e != nil {
		return NamingInfo{}, e
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := initRefRE.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		info := NamingInfo{Version: "4", Host: m[2]}
		if m[1] != "" {
			info.Version = "3"
		}
		port, e := strconv.Atoi(m[3])
		if e != nil {
			return NamingInfo{}, fmt.Errorf("bad port in %s: %w", path, e)
		}
		info.Port = port
		return info, nil
	}
	if e := scanner.Err(); e != nil {
		return NamingInfo{}, e
	}
	return NamingInfo{}, fmt.Errorf("no InitRef line in %s", path)
}

// NamingPort works out the naming service port: NSPORT first, then the
// file named by OMNIORB_CONFIG, then DefaultNamingPort.
func NamingPort(getenv func(string) string) int {
	if getenv == nil {
		getenv = os.Getenv
	}
	if p, e := strconv.Atoi(getenv(VarPort)); e == nil {
		return p
	}
	if path := getenv(VarConfig); path != "" {
		if info, e := ReadNamingConfig(path); e == nil {
			return info.Port
		}
	}
	return DefaultNamingPort
}
