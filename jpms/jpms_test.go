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

package jpms_test

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mavenlaunch/jgo/jarfile"
	"github.com/mavenlaunch/jgo/jpms"
)

// buildModuleInfo constructs a minimal, synthetic module-info.class with
// a single Module attribute declaring moduleName. It is not a fully
// valid class file (this_class/super_class point nowhere, and the
// Module attribute omits requires/exports/etc.) but it exercises exactly
// the bytes jpms.ModuleName reads.
func buildModuleInfo(t *testing.T, moduleName string) []byte {
	t.Helper()
	var buf bytes.Buffer

	write := func(vs ...any) {
		for _, v := range vs {
			if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
				t.Fatalf("binary.Write returned error: %v", err)
			}
		}
	}

	write(uint32(0xCAFEBABE)) // magic
	write(uint16(0), uint16(0x3D)) // minor, major

	write(uint16(4)) // constant_pool_count (1 unused + 3 entries)

	// #1 CONSTANT_Utf8 = moduleName
	write(byte(1), uint16(len(moduleName)))
	buf.WriteString(moduleName)

	// #2 CONSTANT_Module -> #1
	write(byte(19), uint16(1))

	// #3 CONSTANT_Utf8 = "Module"
	write(byte(1), uint16(len("Module")))
	buf.WriteString("Module")

	write(uint16(0)) // access_flags
	write(uint16(0)) // this_class
	write(uint16(0)) // super_class
	write(uint16(0)) // interfaces_count
	write(uint16(0)) // fields_count
	write(uint16(0)) // methods_count

	write(uint16(1))          // attributes_count
	write(uint16(3))          // attribute_name_index -> "Module"
	write(uint32(2))          // attribute_length
	write(uint16(2))          // module_name_index -> #2

	return buf.Bytes()
}

func TestModuleName(t *testing.T) {
	data := buildModuleInfo(t, "org.example.mod")
	name, err := jpms.ModuleName(data)
	if err != nil {
		t.Fatalf("ModuleName returned error: %v", err)
	}
	if name != "org.example.mod" {
		t.Errorf("ModuleName() = %q, want %q", name, "org.example.mod")
	}
}

func TestMajorVersion(t *testing.T) {
	data := buildModuleInfo(t, "m")
	major, err := jpms.MajorVersion(data)
	if err != nil {
		t.Fatalf("MajorVersion returned error: %v", err)
	}
	if major != 0x3D {
		t.Errorf("MajorVersion() = %d, want %d", major, 0x3D)
	}
}

func buildZipWithModuleInfo(t *testing.T, moduleName string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("module-info.class")
	if err != nil {
		t.Fatalf("zw.Create returned error: %v", err)
	}
	if _, err := w.Write(buildModuleInfo(t, moduleName)); err != nil {
		t.Fatalf("writing module-info.class returned error: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zw.Close returned error: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestClassify_Explicit(t *testing.T) {
	r := buildZipWithModuleInfo(t, "org.example.mod")
	jar, err := jarfile.Open(r, r.Size())
	if err != nil {
		t.Fatalf("jarfile.Open returned error: %v", err)
	}
	defer jar.Close()

	c, err := jpms.Classify(jar)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if c.Kind != jpms.Explicit {
		t.Errorf("Kind = %v, want Explicit", c.Kind)
	}
	if c.ModuleName != "org.example.mod" {
		t.Errorf("ModuleName = %q, want %q", c.ModuleName, "org.example.mod")
	}
}

func TestClassify_Automatic(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("META-INF/MANIFEST.MF")
	if err != nil {
		t.Fatalf("zw.Create returned error: %v", err)
	}
	w.Write([]byte("Manifest-Version: 1.0\nAutomatic-Module-Name: org.example.auto\n\n"))
	if err := zw.Close(); err != nil {
		t.Fatalf("zw.Close returned error: %v", err)
	}

	r := bytes.NewReader(buf.Bytes())
	jar, err := jarfile.Open(r, r.Size())
	if err != nil {
		t.Fatalf("jarfile.Open returned error: %v", err)
	}
	defer jar.Close()

	c, err := jpms.Classify(jar)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if c.Kind != jpms.Automatic || c.ModuleName != "org.example.auto" {
		t.Errorf("Classify() = %+v, want Automatic org.example.auto", c)
	}
}

func TestClassify_NonModular(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("org/example/Foo.class"); err != nil {
		t.Fatalf("zw.Create returned error: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zw.Close returned error: %v", err)
	}

	r := bytes.NewReader(buf.Bytes())
	jar, err := jarfile.Open(r, r.Size())
	if err != nil {
		t.Fatalf("jarfile.Open returned error: %v", err)
	}
	defer jar.Close()

	c, err := jpms.Classify(jar)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if c.Kind != jpms.NonModular {
		t.Errorf("Kind = %v, want NonModular", c.Kind)
	}
}
