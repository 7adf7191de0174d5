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

package bytecode_test

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mavenlaunch/jgo/bytecode"
	"github.com/mavenlaunch/jgo/jarfile"
)

func classFileWithMajor(t *testing.T, major uint16) []byte {
	t.Helper()
	var buf bytes.Buffer
	write := func(v any) {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			t.Fatalf("binary.Write returned error: %v", err)
		}
	}
	write(uint32(0xCAFEBABE))
	write(uint16(0)) // minor
	write(major)
	return buf.Bytes()
}

func TestJavaVersionForMajor(t *testing.T) {
	tests := []struct {
		major int
		want  int
	}{
		{52, 8},
		{55, 11},
		{61, 17},
		{65, 21},
		{59, 15}, // between LTS releases, not rounded here
	}
	for _, tt := range tests {
		got, err := bytecode.JavaVersionForMajor(tt.major)
		if err != nil {
			t.Fatalf("JavaVersionForMajor(%d) returned error: %v", tt.major, err)
		}
		if got != tt.want {
			t.Errorf("JavaVersionForMajor(%d) = %d, want %d", tt.major, got, tt.want)
		}
	}
}

func TestJavaVersionForMajor_Unknown(t *testing.T) {
	if _, err := bytecode.JavaVersionForMajor(10); err == nil {
		t.Error("JavaVersionForMajor(10) expected error, got nil")
	}
}

func TestRoundUpToLTS(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{8, 8},
		{9, 11},
		{11, 11},
		{15, 17},
		{17, 17},
		{19, 21},
		{21, 21},
	}
	for _, tt := range tests {
		if got := bytecode.RoundUpToLTS(tt.in); got != tt.want {
			t.Errorf("RoundUpToLTS(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func buildJAR(t *testing.T, entries map[string][]byte) *jarfile.JAR {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zw.Create(%q) returned error: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("writing entry %q returned error: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zw.Close returned error: %v", err)
	}
	r := bytes.NewReader(buf.Bytes())
	jar, err := jarfile.Open(r, r.Size())
	if err != nil {
		t.Fatalf("jarfile.Open returned error: %v", err)
	}
	return jar
}

func TestScanJAR(t *testing.T) {
	jar := buildJAR(t, map[string][]byte{
		"org/example/Foo.class": classFileWithMajor(t, 55), // Java 11
		"org/example/Bar.class": classFileWithMajor(t, 61), // Java 17
	})
	defer jar.Close()

	result, err := bytecode.ScanJAR(jar)
	if err != nil {
		t.Fatalf("ScanJAR returned error: %v", err)
	}
	if result.MinJavaVersion != 17 {
		t.Errorf("MinJavaVersion = %d, want 17", result.MinJavaVersion)
	}
	if result.ClassesScanned != 2 {
		t.Errorf("ClassesScanned = %d, want 2", result.ClassesScanned)
	}
}

func TestScanJAR_IgnoresMultiReleaseOverlay(t *testing.T) {
	jar := buildJAR(t, map[string][]byte{
		"org/example/Foo.class":                      classFileWithMajor(t, 52), // Java 8
		"META-INF/versions/21/org/example/Foo.class": classFileWithMajor(t, 65), // Java 21 overlay
	})
	defer jar.Close()

	result, err := bytecode.ScanJAR(jar)
	if err != nil {
		t.Fatalf("ScanJAR returned error: %v", err)
	}
	if result.MinJavaVersion != 8 {
		t.Errorf("MinJavaVersion = %d, want 8 (overlay must not raise the baseline)", result.MinJavaVersion)
	}
}

func TestMaxJavaVersion(t *testing.T) {
	results := []bytecode.ScanResult{
		{MinJavaVersion: 8},
		{MinJavaVersion: 17},
		{MinJavaVersion: 11},
	}
	if got := bytecode.MaxJavaVersion(results); got != 17 {
		t.Errorf("MaxJavaVersion() = %d, want 17", got)
	}
}

func TestMaxJavaVersion_Empty(t *testing.T) {
	if got := bytecode.MaxJavaVersion(nil); got != 0 {
		t.Errorf("MaxJavaVersion(nil) = %d, want 0", got)
	}
}
