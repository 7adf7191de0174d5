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

package jarfile_test

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/mavenlaunch/jgo/jarfile"
)

func buildZip(t *testing.T, files map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zw.Create(%q) returned error: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing entry %q returned error: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zw.Close() returned error: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestManifestAttributes(t *testing.T) {
	r := buildZip(t, map[string]string{
		"META-INF/MANIFEST.MF": "Manifest-Version: 1.0\nMain-Class: org.example.Main\nAutomatic-Module-Name: org.example\n\n",
	})

	jar, err := jarfile.Open(r, r.Size())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer jar.Close()

	manifest, err := jar.Manifest()
	if err != nil {
		t.Fatalf("Manifest returned error: %v", err)
	}
	if manifest.MainClass() != "org.example.Main" {
		t.Errorf("MainClass() = %q, want %q", manifest.MainClass(), "org.example.Main")
	}
	if manifest.AutomaticModuleName() != "org.example" {
		t.Errorf("AutomaticModuleName() = %q, want %q", manifest.AutomaticModuleName(), "org.example")
	}
}

func TestClassEntriesExcludesMultiRelease(t *testing.T) {
	r := buildZip(t, map[string]string{
		"org/example/Foo.class":                "x",
		"META-INF/versions/17/org/example/Foo.class": "y",
	})
	jar, err := jarfile.Open(r, r.Size())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer jar.Close()

	entries := jar.ClassEntries(true)
	if len(entries) != 1 || entries[0] != "org/example/Foo.class" {
		t.Errorf("ClassEntries(true) = %v, want [org/example/Foo.class]", entries)
	}

	all := jar.ClassEntries(false)
	if len(all) != 2 {
		t.Errorf("ClassEntries(false) = %v, want 2 entries", all)
	}
}

func TestSimpleClassName(t *testing.T) {
	tests := map[string]string{
		"org/example/Foo.class":       "Foo",
		"org/example/Foo$Inner.class": "Inner",
	}
	for entry, want := range tests {
		if got := jarfile.SimpleClassName(entry); got != want {
			t.Errorf("SimpleClassName(%q) = %q, want %q", entry, got, want)
		}
	}
}

func TestBinaryClassName(t *testing.T) {
	if got := jarfile.BinaryClassName("org/example/Foo.class"); got != "org.example.Foo" {
		t.Errorf("BinaryClassName() = %q, want %q", got, "org.example.Foo")
	}
}

func TestParseManifestContinuationLine(t *testing.T) {
	m, err := jarfile.ParseManifest(strings.NewReader("Main-Class: org.example.\n ReallyLongClassName\n\n"))
	if err != nil {
		t.Fatalf("ParseManifest returned error: %v", err)
	}
	if m.MainClass() != "org.example.ReallyLongClassName" {
		t.Errorf("MainClass() = %q, want %q", m.MainClass(), "org.example.ReallyLongClassName")
	}
}
