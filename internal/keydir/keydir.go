// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package keydir reads and writes gitolite's keydir/: one .pub file per
// (user, key label) pair, named "<user>[@<label>].pub". File content is the
// key material followed by a comment equal to the filename stem, which is
// the convention gitolite uses to map keys back to users.
package keydir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/toeirei/gitomaster/internal/model"
	"github.com/toeirei/gitomaster/internal/sshkey"
)

// Extension is the suffix of every key file gitolite picks up.
const Extension = ".pub"

// ErrDuplicateKey is returned (wrapped in a *DuplicateKeyError) when two key
// files carry identical key material. gitolite cannot tell two identities
// with the same key apart, so this is always a configuration bug.
var ErrDuplicateKey = errors.New("duplicate key material")

// ErrDuplicateKeyLabel is returned when two key files resolve to the same
// (user, label) pair.
var ErrDuplicateKeyLabel = errors.New("duplicate key label")

// DuplicateKeyError names the offending material and the two files carrying
// it. It wraps ErrDuplicateKey.
type DuplicateKeyError struct {
	Material string
	FileA    string
	FileB    string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%v in %s and %s: %s", ErrDuplicateKey, e.FileA, e.FileB, e.Material)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// Filename returns the key file name for a user and label, e.g.
// "bob@laptop.pub" or "bob.pub" for the default (unlabeled) key.
func Filename(user, label string) string {
	stem := user
	if label != "" {
		stem += "@" + label
	}
	return stem + Extension
}

// WriteKeys writes every key in cfg to dir and returns the set of file
// names written, so the caller can reconcile stale files that are no longer
// represented in the configuration. Existing files are overwritten, never
// removed. After writing, the whole directory is rescanned for duplicate
// key material; a *DuplicateKeyError means the on-disk state must not be
// pushed to gitolite.
func WriteKeys(cfg *model.Config, dir string) (map[string]bool, error) {
	written := make(map[string]bool)
	for _, user := range cfg.Users() {
		for _, label := range user.KeyLabels() {
			material, _ := user.Key(label)
			name := Filename(user.Name(), label)
			stem := strings.TrimSuffix(name, Extension)
			content := material + " " + stem
			if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
				return nil, fmt.Errorf("writing key file %s: %w", name, err)
			}
			written[name] = true
		}
	}
	if err := checkForDuplicateKeys(dir); err != nil {
		return nil, err
	}
	return written, nil
}

// checkForDuplicateKeys compares the material of every .pub file in dir
// (content with the trailing comment stripped) and fails on any collision.
func checkForDuplicateKeys(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	seen := make(map[string]string) // material -> file name
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		material := strings.TrimRight(string(data), "\n")
		if i := strings.LastIndex(material, " "); i >= 0 {
			material = material[:i]
		}
		if prev, ok := seen[material]; ok {
			return &DuplicateKeyError{Material: material, FileA: prev, FileB: entry.Name()}
		}
		seen[material] = entry.Name()
	}
	return nil
}

// ReadKeys scans dir for .pub files and registers each key with the
// matching user in cfg, creating users referenced only by key files. Files
// whose names do not match "<user>[@<label>].pub" are skipped; key
// directories routinely carry unrelated files. Two files resolving to the
// same (user, label), including a label already populated in cfg, fail with
// ErrDuplicateKeyLabel.
func ReadKeys(cfg *model.Config, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		userName, label, ok := splitFilename(entry.Name())
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		material, err := sshkey.Material(string(data))
		if err != nil {
			return fmt.Errorf("key file %s: %w", entry.Name(), err)
		}
		user, err := cfg.EnsureUser(userName)
		if err != nil {
			return fmt.Errorf("key file %s: %w", entry.Name(), err)
		}
		if _, exists := user.Key(label); exists {
			return fmt.Errorf("%w: %s/%s (file %s)", ErrDuplicateKeyLabel, userName, displayLabel(label), entry.Name())
		}
		user.SetKey(label, material)
	}
	return nil
}

// splitFilename decomposes "<user>[@<label>].pub" into its parts. A name
// without the extension, with an empty user, or with more than one '@' does
// not match the pattern.
func splitFilename(name string) (user, label string, ok bool) {
	stem, found := strings.CutSuffix(name, Extension)
	if !found || stem == "" {
		return "", "", false
	}
	parts := strings.Split(stem, "@")
	switch len(parts) {
	case 1:
		user = parts[0]
	case 2:
		user, label = parts[0], parts[1]
		if label == "" {
			return "", "", false
		}
	default:
		return "", "", false
	}
	if user == "" {
		return "", "", false
	}
	return user, label, true
}

func displayLabel(label string) string {
	if label == "" {
		return "(default)"
	}
	return label
}
