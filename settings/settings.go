// Copyright 2026 The jgo-go Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package settings loads jgo's global INI configuration file: default
// link strategy and cache directory, named repository shortcuts, and
// per-registry authentication.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/mavenlaunch/jgo/repository"
)

// Settings is the parsed form of the global settings file. Sections:
// [settings], [repositories], [shortcuts].
type Settings struct {
	LinkStrategy string
	CacheDir     string
	Offline      bool

	// Repositories maps a registry name to its base URL, as declared in
	// [repositories].
	Repositories map[string]string

	// Shortcuts maps a short prefix to a groupId, letting users write
	// "gv:guava:32.1.3-jre" instead of the full groupId.
	Shortcuts map[string]string

	// Auth maps a registry name, taken from an [auth.<name>] section, to
	// its credentials; the repository client looks them up by registry ID.
	Auth map[string]*repository.HTTPAuthentication
}

// DefaultPath returns the conventional location of the global settings
// file: ~/.jgo/settings.ini.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("settings: resolving home directory: %w", err)
	}
	return filepath.Join(home, ".jgo", "settings.ini"), nil
}

// Load parses the settings file at path. A missing file is not an
// error; it yields the zero-value Settings with empty maps.
func Load(path string) (Settings, error) {
	out := Settings{
		Repositories: map[string]string{},
		Shortcuts:    map[string]string{},
		Auth:         map[string]*repository.HTTPAuthentication{},
	}

	opts := ini.LoadOptions{Loose: true}
	f, err := ini.LoadSources(opts, path)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: loading %s: %w", path, err)
	}

	main := f.Section("settings")
	out.LinkStrategy = main.Key("link_strategy").String()
	out.CacheDir = os.ExpandEnv(main.Key("cache_dir").String())
	out.Offline, _ = main.Key("offline").Bool()

	if f.HasSection("repositories") {
		for _, key := range f.Section("repositories").Keys() {
			out.Repositories[key.Name()] = key.String()
		}
	}

	if f.HasSection("shortcuts") {
		for _, key := range f.Section("shortcuts").Keys() {
			out.Shortcuts[key.Name()] = key.String()
		}
	}

	for _, name := range f.SectionStrings() {
		server, ok := strings.CutPrefix(name, "auth.")
		if !ok {
			continue
		}
		sec := f.Section(name)
		out.Auth[server] = &repository.HTTPAuthentication{
			SupportedMethods: authMethodsFor(sec.Key("methods").String()),
			AlwaysAuth:       sec.Key("always_auth").MustBool(true),
			Username:         sec.Key("username").String(),
			Password:         sec.Key("password").String(),
			BearerToken:      sec.Key("token").String(),
		}
	}

	return out, nil
}

// ResolveShortcut expands a declared groupId shortcut prefix, e.g.
// "gv" -> "com.google.guava", returning the input unchanged if no
// shortcut matches.
func (s Settings) ResolveShortcut(groupID string) string {
	if expanded, ok := s.Shortcuts[groupID]; ok {
		return expanded
	}
	return groupID
}

func authMethodsFor(s string) []repository.HTTPAuthMethod {
	if s == "" {
		return []repository.HTTPAuthMethod{repository.AuthBasic}
	}
	var methods []repository.HTTPAuthMethod
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "basic":
			methods = append(methods, repository.AuthBasic)
		case "digest":
			methods = append(methods, repository.AuthDigest)
		case "bearer":
			methods = append(methods, repository.AuthBearer)
		}
	}
	return methods
}
