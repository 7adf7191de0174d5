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

package jpms

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrNotAModuleDescriptor is returned when module-info.class does not
// carry a parseable Module attribute.
var ErrNotAModuleDescriptor = errors.New("jpms: no Module attribute found")

const (
	tagUTF8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

type cpEntry struct {
	tag   byte
	utf8  string
	index uint16 // for Class/Module/Package/String entries
}

// classReader is a small cursor over a .class file's byte stream.
type classReader struct {
	b   []byte
	pos int
}

func (r *classReader) u1() (byte, error) {
	if r.pos+1 > len(r.b) {
		return 0, fmt.Errorf("jpms: truncated class file")
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *classReader) u2() (uint16, error) {
	if r.pos+2 > len(r.b) {
		return 0, fmt.Errorf("jpms: truncated class file")
	}
	v := binary.BigEndian.Uint16(r.b[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *classReader) u4() (uint32, error) {
	if r.pos+4 > len(r.b) {
		return 0, fmt.Errorf("jpms: truncated class file")
	}
	v := binary.BigEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *classReader) skip(n int) error {
	if r.pos+n > len(r.b) {
		return fmt.Errorf("jpms: truncated class file")
	}
	r.pos += n
	return nil
}

func (r *classReader) bytesN(n int) ([]byte, error) {
	if r.pos+n > len(r.b) {
		return nil, fmt.Errorf("jpms: truncated class file")
	}
	out := r.b[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// constantPool is a class file's constant pool, 1-indexed (index 0 unused).
type constantPool []cpEntry

// parseConstantPool reads the constant pool, honoring the
// two-slot-per-entry quirk of Long/Double constants.
func parseConstantPool(r *classReader, count int) (constantPool, error) {
	pool := make(constantPool, count) // 1-indexed; pool[0] unused
	for i := 1; i < count; i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, err
		}
		switch tag {
		case tagUTF8:
			n, err := r.u2()
			if err != nil {
				return nil, err
			}
			b, err := r.bytesN(int(n))
			if err != nil {
				return nil, err
			}
			pool[i] = cpEntry{tag: tag, utf8: string(b)}
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref,
			tagNameAndType, tagDynamic, tagInvokeDynamic:
			if err := r.skip(4); err != nil {
				return nil, err
			}
			pool[i] = cpEntry{tag: tag}
		case tagLong, tagDouble:
			if err := r.skip(8); err != nil {
				return nil, err
			}
			pool[i] = cpEntry{tag: tag}
			i++ // long/double take two constant pool slots
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			idx, err := r.u2()
			if err != nil {
				return nil, err
			}
			pool[i] = cpEntry{tag: tag, index: idx}
		case tagMethodHandle:
			if err := r.skip(1); err != nil {
				return nil, err
			}
			idx, err := r.u2()
			if err != nil {
				return nil, err
			}
			pool[i] = cpEntry{tag: tag, index: idx}
		default:
			return nil, fmt.Errorf("jpms: unknown constant pool tag %d", tag)
		}
	}
	return pool, nil
}

func (pool constantPool) utf8At(idx uint16) (string, bool) {
	if int(idx) >= len(pool) {
		return "", false
	}
	e := pool[idx]
	if e.tag == tagUTF8 {
		return e.utf8, true
	}
	if e.index != 0 {
		return pool.utf8At(e.index)
	}
	return "", false
}

// MajorVersion returns the major bytecode version of a .class file
// (bytes 6-7 after the 4-byte magic and 2-byte minor version).
func MajorVersion(classFile []byte) (int, error) {
	if len(classFile) < 8 {
		return 0, fmt.Errorf("jpms: class file too short")
	}
	if !bytes.Equal(classFile[0:4], []byte{0xCA, 0xFE, 0xBA, 0xBE}) {
		return 0, fmt.Errorf("jpms: bad magic number")
	}
	return int(binary.BigEndian.Uint16(classFile[6:8])), nil
}

// ModuleName extracts the module name declared by a module-info.class
// file's Module attribute.
func ModuleName(classFile []byte) (string, error) {
	r := &classReader{b: classFile}
	if _, err := r.u4(); err != nil { // magic
		return "", err
	}
	if _, err := r.u2(); err != nil { // minor
		return "", err
	}
	if _, err := r.u2(); err != nil { // major
		return "", err
	}

	cpCount, err := r.u2()
	if err != nil {
		return "", err
	}
	pool, err := parseConstantPool(r, int(cpCount))
	if err != nil {
		return "", err
	}

	if err := r.skip(2); err != nil { // access_flags
		return "", err
	}
	if err := r.skip(2); err != nil { // this_class
		return "", err
	}
	if err := r.skip(2); err != nil { // super_class
		return "", err
	}

	ifaceCount, err := r.u2()
	if err != nil {
		return "", err
	}
	if err := r.skip(int(ifaceCount) * 2); err != nil {
		return "", err
	}

	if err := skipMembers(r); err != nil { // fields
		return "", err
	}
	if err := skipMembers(r); err != nil { // methods
		return "", err
	}

	attrCount, err := r.u2()
	if err != nil {
		return "", err
	}
	for i := 0; i < int(attrCount); i++ {
		nameIdx, err := r.u2()
		if err != nil {
			return "", err
		}
		length, err := r.u4()
		if err != nil {
			return "", err
		}
		data, err := r.bytesN(int(length))
		if err != nil {
			return "", err
		}

		name, _ := pool.utf8At(nameIdx)
		if name != "Module" {
			continue
		}

		ar := &classReader{b: data}
		moduleNameIdx, err := ar.u2()
		if err != nil {
			return "", err
		}
		if int(moduleNameIdx) >= len(pool) {
			return "", fmt.Errorf("%w: module name index out of range", ErrNotAModuleDescriptor)
		}
		modEntry := pool[moduleNameIdx]
		moduleName, ok := pool.utf8At(modEntry.index)
		if !ok {
			return "", fmt.Errorf("%w: unresolved module name constant", ErrNotAModuleDescriptor)
		}
		return moduleName, nil
	}

	return "", ErrNotAModuleDescriptor
}

// skipMembers skips a fields_info or methods_info table: count(2), then
// per-member access_flags(2) name_index(2) descriptor_index(2)
// attributes_count(2) followed by that many attribute entries.
func skipMembers(r *classReader) error {
	count, err := r.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if err := r.skip(6); err != nil { // access_flags, name_index, descriptor_index
			return err
		}
		attrCount, err := r.u2()
		if err != nil {
			return err
		}
		for j := 0; j < int(attrCount); j++ {
			if err := r.skip(2); err != nil { // attribute_name_index
				return err
			}
			length, err := r.u4()
			if err != nil {
				return err
			}
			if err := r.skip(int(length)); err != nil {
				return err
			}
		}
	}
	return nil
}
