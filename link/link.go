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

// Package link materializes cached artifact files into an environment
// directory via hard link, symlink, or copy, with an automatic fallback
// chain between the three.
package link

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Strategy selects how a file is materialized into the workspace.
type Strategy int

// Supported link strategies.
const (
	Auto Strategy = iota
	Hard
	Soft
	Copy
)

// ParseStrategy parses a --link-strategy flag value.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "auto":
		return Auto, nil
	case "hard":
		return Hard, nil
	case "soft":
		return Soft, nil
	case "copy":
		return Copy, nil
	default:
		return Auto, fmt.Errorf("link: unknown strategy %q", s)
	}
}

// Result records which strategy actually materialized a file, for
// diagnostics when Auto falls through its chain.
type Result struct {
	Used Strategy
}

// Link materializes src at dst using strategy. Auto attempts hard link,
// then symlink, then copy, taking the first that succeeds. The
// destination is created atomically: Copy writes to a temp file in the
// same directory and renames it into place.
func Link(strategy Strategy, src, dst string) (Result, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Result{}, fmt.Errorf("link: creating destination directory: %w", err)
	}
	_ = os.Remove(dst) // destinations are recomputed fresh on rebuild

	switch strategy {
	case Hard:
		if err := os.Link(src, dst); err != nil {
			return Result{}, fmt.Errorf("link: hard link %s -> %s: %w", src, dst, err)
		}
		return Result{Used: Hard}, nil

	case Soft:
		if err := os.Symlink(src, dst); err != nil {
			return Result{}, fmt.Errorf("link: symlink %s -> %s: %w", src, dst, err)
		}
		return Result{Used: Soft}, nil

	case Copy:
		if err := copyFile(src, dst); err != nil {
			return Result{}, fmt.Errorf("link: copy %s -> %s: %w", src, dst, err)
		}
		return Result{Used: Copy}, nil

	case Auto:
		if err := os.Link(src, dst); err == nil {
			return Result{Used: Hard}, nil
		}
		_ = os.Remove(dst)
		if err := os.Symlink(src, dst); err == nil {
			return Result{Used: Soft}, nil
		}
		_ = os.Remove(dst)
		if err := copyFile(src, dst); err != nil {
			return Result{}, fmt.Errorf("link: all strategies failed for %s -> %s: %w", src, dst, err)
		}
		return Result{Used: Copy}, nil

	default:
		return Result{}, errors.New("link: unknown strategy")
	}
}

// copyFile copies src to dst atomically via a temp file + rename in dst's
// directory.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if info, statErr := os.Stat(src); statErr == nil {
		_ = os.Chmod(tmpName, info.Mode())
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
