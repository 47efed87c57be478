// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package manager orchestrates the gitolite-admin working tree: pull the
// repository, transcode it into the model, hand the model to callers for
// mutation, and write/commit/push the result. All the grammar and file
// format knowledge lives in the gitolite and keydir packages; this package
// only sequences them.
package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/toeirei/gitomaster/internal/git"
	"github.com/toeirei/gitomaster/internal/gitolite"
	"github.com/toeirei/gitomaster/internal/keydir"
	"github.com/toeirei/gitomaster/internal/logging"
	"github.com/toeirei/gitomaster/internal/model"
)

// Layout of a gitolite-admin repository. gitolite hard-codes these paths,
// so they are not configurable.
const (
	ConfDirName  = "conf"
	ConfFileName = "gitolite.conf"
	KeyDirName   = "keydir"
)

// DefaultCommitMessage is used when Apply is called without a message.
const DefaultCommitMessage = "Changed config through gitomaster."

// ErrNotLoaded is returned by Apply before a successful Load.
var ErrNotLoaded = errors.New("configuration has not been loaded")

// Manager owns one gitolite-admin checkout and the Config parsed from it.
// It is not safe for concurrent use; callers editing the same checkout from
// several goroutines must serialize on the Manager.
type Manager struct {
	uri    string
	dir    string
	syncer git.Syncer
	cfg    *model.Config
}

// New returns a Manager for the given remote URI and working directory,
// synchronizing through the git binary.
func New(uri, dir string) *Manager {
	return NewWithSyncer(uri, dir, git.NewCLISyncer(dir))
}

// NewWithSyncer is New with an explicit Syncer, used by tests and by
// callers that already have a checkout strategy.
func NewWithSyncer(uri, dir string, syncer git.Syncer) *Manager {
	return &Manager{uri: uri, dir: dir, syncer: syncer}
}

// Config returns the currently loaded configuration for mutation, or nil
// before Load.
func (m *Manager) Config() *model.Config { return m.cfg }

// WorkingDir returns the checkout directory.
func (m *Manager) WorkingDir() string { return m.dir }

// Load makes sure the working tree exists and is current, then parses it.
// The cached Config is reused when the remote had nothing new. A parse
// failure leaves the previously loaded Config untouched.
func (m *Manager) Load(ctx context.Context) (*model.Config, error) {
	if !m.hasCheckout() {
		logging.Infof("cloning %s into %s", m.uri, m.dir)
		if err := m.syncer.Clone(ctx, m.uri); err != nil {
			return nil, err
		}
	}
	changed, err := m.syncer.Pull(ctx)
	if err != nil {
		return nil, err
	}
	if changed || m.cfg == nil {
		cfg, err := m.read()
		if err != nil {
			return nil, err
		}
		m.cfg = cfg
	}
	return m.cfg, nil
}

// Apply writes the loaded Config back to the working tree, removes key
// files no longer represented in it, commits and pushes. An empty message
// selects DefaultCommitMessage. A non-fast-forward rejection surfaces as
// git.ErrPushRejected; the caller should Load again and retry its change.
func (m *Manager) Apply(ctx context.Context, message string) error {
	if m.cfg == nil {
		return ErrNotLoaded
	}
	if err := m.write(); err != nil {
		return err
	}
	written, err := keydir.WriteKeys(m.cfg, m.keyDir())
	if err != nil {
		return err
	}
	if err := m.removeOrphans(ctx, written); err != nil {
		return err
	}
	if message == "" {
		message = DefaultCommitMessage
	}
	if err := m.syncer.CommitAll(ctx, message); err != nil {
		return err
	}
	return m.syncer.Push(ctx)
}

func (m *Manager) hasCheckout() bool {
	info, err := os.Stat(filepath.Join(m.dir, ".git"))
	return err == nil && info.IsDir()
}

func (m *Manager) confFile() string {
	return filepath.Join(m.dir, ConfDirName, ConfFileName)
}

func (m *Manager) keyDir() string {
	return filepath.Join(m.dir, KeyDirName)
}

func (m *Manager) read() (*model.Config, error) {
	f, err := os.Open(m.confFile())
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	cfg, err := gitolite.Read(f)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(m.keyDir(), 0o755); err != nil {
		return nil, err
	}
	if err := keydir.ReadKeys(cfg, m.keyDir()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (m *Manager) write() error {
	if err := os.MkdirAll(filepath.Dir(m.confFile()), 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(m.keyDir(), 0o755); err != nil {
		return err
	}
	f, err := os.Create(m.confFile())
	if err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := gitolite.Write(m.cfg, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// removeOrphans deletes tracked key files that WriteKeys did not produce,
// i.e. keys that were removed from the configuration since the last Apply.
func (m *Manager) removeOrphans(ctx context.Context, written map[string]bool) error {
	entries, err := os.ReadDir(m.keyDir())
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, keydir.Extension) || written[name] {
			continue
		}
		logging.Debugf("removing orphaned key file %s", name)
		if err := m.syncer.Remove(ctx, KeyDirName+"/"+name); err != nil {
			return err
		}
	}
	return nil
}
