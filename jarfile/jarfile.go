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

// Package jarfile provides shared, read-only inspection of JAR (zip)
// archives: manifest parsing, entry listing, and the conventions the
// module classifier and bytecode scanner both need.
package jarfile

import (
	"archive/zip"
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"os"
	"strings"
)

// ErrNotAJAR is returned when a file is not a valid zip/JAR archive.
var ErrNotAJAR = errors.New("jarfile: not a valid JAR archive")

// Manifest is the parsed main section of META-INF/MANIFEST.MF.
type Manifest struct {
	Attributes textproto.MIMEHeader
}

// Get returns a manifest attribute, matching the case-insensitive
// semantics of the Manifest-Version line format (RFC 822 style headers).
func (m Manifest) Get(key string) string {
	if m.Attributes == nil {
		return ""
	}
	return m.Attributes.Get(key)
}

// MainClass returns the Main-Class manifest attribute, if any.
func (m Manifest) MainClass() string { return m.Get("Main-Class") }

// AutomaticModuleName returns the Automatic-Module-Name manifest
// attribute, if any.
func (m Manifest) AutomaticModuleName() string { return m.Get("Automatic-Module-Name") }

// JAR is an opened JAR/zip archive, read-only.
type JAR struct {
	reader *zip.Reader
	closer io.Closer
}

// Open opens the JAR read from r, which holds size bytes, for
// inspection. Callers must call Close.
func Open(r io.ReaderAt, size int64) (*JAR, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAJAR, err)
	}
	return &JAR{reader: zr}, nil
}

// OpenFile opens the JAR file at path on disk for inspection. Callers
// must call Close, which also closes the underlying file handle.
func OpenFile(path string) (*JAR, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("jarfile: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("jarfile: %w", err)
	}
	j, err := Open(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	j.closer = f
	return j, nil
}

// Close releases any resources associated with the JAR.
func (j *JAR) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}

// Entries returns the archive's entry names in zip directory order.
func (j *JAR) Entries() []string {
	names := make([]string, 0, len(j.reader.File))
	for _, f := range j.reader.File {
		names = append(names, f.Name)
	}
	return names
}

// Has reports whether the archive contains an entry with the exact name.
func (j *JAR) Has(name string) bool {
	for _, f := range j.reader.File {
		if f.Name == name {
			return true
		}
	}
	return false
}

// OpenEntry opens a single entry for reading.
func (j *JAR) OpenEntry(name string) (io.ReadCloser, error) {
	for _, f := range j.reader.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("jarfile: entry %q not found", name)
}

// ReadEntry reads an entire entry into memory.
func (j *JAR) ReadEntry(name string) ([]byte, error) {
	rc, err := j.OpenEntry(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Manifest parses META-INF/MANIFEST.MF, if present.
func (j *JAR) Manifest() (Manifest, error) {
	if !j.Has("META-INF/MANIFEST.MF") {
		return Manifest{}, nil
	}
	rc, err := j.OpenEntry("META-INF/MANIFEST.MF")
	if err != nil {
		return Manifest{}, err
	}
	defer rc.Close()
	return ParseManifest(rc)
}

// ParseManifest parses a MANIFEST.MF main section: RFC 822 style
// "Key: Value" headers, with continuation lines starting with a single
// space, terminated by a blank line (the start of the first per-entry
// section, if any).
func ParseManifest(r io.Reader) (Manifest, error) {
	header := textproto.MIMEHeader{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lastKey string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break // end of main section
		}
		if strings.HasPrefix(line, " ") && lastKey != "" {
			existing := header.Get(lastKey)
			header.Set(lastKey, existing+strings.TrimPrefix(line, " "))
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		header.Set(key, value)
		lastKey = key
	}
	if err := scanner.Err(); err != nil {
		return Manifest{}, fmt.Errorf("jarfile: reading manifest: %w", err)
	}

	return Manifest{Attributes: header}, nil
}

// ClassEntries returns the archive's .class entry names, excluding
// multi-release overlay entries under META-INF/versions/<n>/ when
// excludeMultiRelease is true.
func (j *JAR) ClassEntries(excludeMultiRelease bool) []string {
	var out []string
	for _, name := range j.Entries() {
		if !strings.HasSuffix(name, ".class") {
			continue
		}
		if excludeMultiRelease && strings.HasPrefix(name, "META-INF/versions/") {
			continue
		}
		out = append(out, name)
	}
	return out
}

// SimpleClassName returns the simple (unqualified) class name for a
// .class entry path, e.g. "org/example/Foo.class" -> "Foo".
func SimpleClassName(entryName string) string {
	name := strings.TrimSuffix(entryName, ".class")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	// Nested/inner classes use '$'; the simple name is the final segment.
	if idx := strings.LastIndex(name, "$"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// BinaryClassName returns the fully-qualified binary class name for a
// .class entry path, e.g. "org/example/Foo.class" -> "org.example.Foo".
func BinaryClassName(entryName string) string {
	name := strings.TrimSuffix(entryName, ".class")
	return strings.ReplaceAll(name, "/", ".")
}
