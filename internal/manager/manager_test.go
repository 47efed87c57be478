// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/toeirei/gitomaster/internal/git"
)

// fakeSyncer records the git operations the manager asks for. The working
// tree itself is a plain directory the test seeds by hand.
type fakeSyncer struct {
	dir        string
	cloned     bool
	pullResult bool
	pullErr    error
	removed    []string
	committed  []string
	pushErr    error
	pushed     bool
}

func (f *fakeSyncer) Clone(ctx context.Context, uri string) error {
	f.cloned = true
	return nil
}

func (f *fakeSyncer) Pull(ctx context.Context) (bool, error) {
	return f.pullResult, f.pullErr
}

func (f *fakeSyncer) Remove(ctx context.Context, path string) error {
	f.removed = append(f.removed, path)
	return os.Remove(filepath.Join(f.dir, path))
}

func (f *fakeSyncer) CommitAll(ctx context.Context, message string) error {
	f.committed = append(f.committed, message)
	return nil
}

func (f *fakeSyncer) Push(ctx context.Context) error {
	f.pushed = true
	return f.pushErr
}

// seedWorkingTree lays out a minimal gitolite-admin checkout.
func seedWorkingTree(t *testing.T, conf string, keys map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, ConfDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfDirName, ConfFileName), []byte(conf), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, KeyDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range keys {
		if err := os.WriteFile(filepath.Join(dir, KeyDirName, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

const sampleConf = "repo web\n    RW               = alice\n\n"

func TestLoadParsesConfAndKeys(t *testing.T) {
	dir := seedWorkingTree(t, sampleConf, map[string]string{
		"alice.pub":    "ssh-rsa AAAAB3Nalice alice",
		"bob@work.pub": "ssh-rsa AAAAB3Nbob bob@work",
	})
	syncer := &fakeSyncer{dir: dir}
	mgr := NewWithSyncer("git@example:gitolite-admin", dir, syncer)

	cfg, err := mgr.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if syncer.cloned {
		t.Errorf("Load cloned over an existing checkout")
	}
	if cfg.Repository("web") == nil {
		t.Errorf("conf file not parsed")
	}
	if cfg.User("alice") == nil || cfg.User("bob") == nil {
		t.Fatalf("key files not parsed into users")
	}
	if material, _ := cfg.User("bob").Key("work"); material != "ssh-rsa AAAAB3Nbob" {
		t.Errorf("unexpected bob@work material: %q", material)
	}
}

func TestLoadCachesUntilRemoteChanges(t *testing.T) {
	dir := seedWorkingTree(t, sampleConf, nil)
	syncer := &fakeSyncer{dir: dir}
	mgr := NewWithSyncer("git@example:gitolite-admin", dir, syncer)

	first, err := mgr.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := mgr.Load(context.Background())
	if err != nil {
		t.Fatalf("Load (second): %v", err)
	}
	if first != second {
		t.Errorf("unchanged remote should reuse the cached Config")
	}

	syncer.pullResult = true
	third, err := mgr.Load(context.Background())
	if err != nil {
		t.Fatalf("Load (third): %v", err)
	}
	if third == second {
		t.Errorf("a changed remote must trigger a re-parse")
	}
}

func TestLoadParseFailureKeepsPreviousConfig(t *testing.T) {
	dir := seedWorkingTree(t, sampleConf, nil)
	syncer := &fakeSyncer{dir: dir}
	mgr := NewWithSyncer("git@example:gitolite-admin", dir, syncer)

	cfg, err := mgr.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// The remote delivers a broken config file.
	if err := os.WriteFile(filepath.Join(dir, ConfDirName, ConfFileName), []byte("garbage here\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	syncer.pullResult = true
	if _, err := mgr.Load(context.Background()); err == nil {
		t.Fatal("expected a parse failure")
	}
	if mgr.Config() != cfg {
		t.Errorf("a failed parse must leave the previous Config in place")
	}
}

func TestApplyWritesCommitsAndPushes(t *testing.T) {
	dir := seedWorkingTree(t, sampleConf, map[string]string{
		"stale.pub": "ssh-rsa AAAAB3Nstale stale",
	})
	syncer := &fakeSyncer{dir: dir}
	mgr := NewWithSyncer("git@example:gitolite-admin", dir, syncer)

	cfg, err := mgr.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// stale's key came in via the keydir; dropping the user orphans the
	// file on disk.
	cfg.RemoveUser("stale")
	bob, err := cfg.EnsureUser("bob")
	if err != nil {
		t.Fatal(err)
	}
	bob.SetKey("", "ssh-rsa AAAAB3Nbob")

	if err := mgr.Apply(context.Background(), "add bob"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(syncer.committed) != 1 || syncer.committed[0] != "add bob" {
		t.Errorf("unexpected commits: %v", syncer.committed)
	}
	if !syncer.pushed {
		t.Errorf("Apply did not push")
	}
	if len(syncer.removed) != 1 || filepath.Base(syncer.removed[0]) != "stale.pub" {
		t.Errorf("orphaned key file not removed: %v", syncer.removed)
	}
	if _, err := os.Stat(filepath.Join(dir, KeyDirName, "bob.pub")); err != nil {
		t.Errorf("bob.pub not written: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ConfDirName, ConfFileName))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != sampleConf {
		t.Errorf("conf file rewrite is not canonical:\n got: %q\nwant: %q", data, sampleConf)
	}
}

func TestApplyDefaultMessage(t *testing.T) {
	dir := seedWorkingTree(t, sampleConf, nil)
	syncer := &fakeSyncer{dir: dir}
	mgr := NewWithSyncer("git@example:gitolite-admin", dir, syncer)
	if _, err := mgr.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := mgr.Apply(context.Background(), ""); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(syncer.committed) != 1 || syncer.committed[0] != DefaultCommitMessage {
		t.Errorf("unexpected commits: %v", syncer.committed)
	}
}

func TestApplyBeforeLoad(t *testing.T) {
	mgr := NewWithSyncer("git@example:gitolite-admin", t.TempDir(), &fakeSyncer{})
	if err := mgr.Apply(context.Background(), "x"); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Apply error = %v, want ErrNotLoaded", err)
	}
}

func TestApplyPushRejected(t *testing.T) {
	dir := seedWorkingTree(t, sampleConf, nil)
	syncer := &fakeSyncer{dir: dir, pushErr: git.ErrPushRejected}
	mgr := NewWithSyncer("git@example:gitolite-admin", dir, syncer)
	if _, err := mgr.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := mgr.Apply(context.Background(), "x"); !errors.Is(err, git.ErrPushRejected) {
		t.Errorf("Apply error = %v, want ErrPushRejected", err)
	}
}
