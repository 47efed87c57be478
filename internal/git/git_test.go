// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

package git

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsRepository(t *testing.T) {
	dir := t.TempDir()
	s := NewCLISyncer(dir)
	if s.IsRepository() {
		t.Errorf("empty directory reported as a repository")
	}

	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if !s.IsRepository() {
		t.Errorf("directory with .git/ not reported as a repository")
	}
}

func TestIsRepositoryIgnoresGitFile(t *testing.T) {
	// Submodule checkouts carry a .git file, not a directory; the manager
	// clones fresh in that case rather than guessing.
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: elsewhere"), 0o644); err != nil {
		t.Fatal(err)
	}
	if NewCLISyncer(dir).IsRepository() {
		t.Errorf(".git file mistaken for a checkout")
	}
}
