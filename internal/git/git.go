// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package git synchronizes the configuration working tree with the remote
// gitolite-admin repository. Only the handful of operations the manager
// needs are exposed; everything else git can do stays out of the contract.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrPushRejected is returned when the remote refuses a push because the
// local tree is behind (non-fast-forward). The caller should pull, reapply
// its changes and push again; retrying without that is pointless.
var ErrPushRejected = errors.New("push rejected by remote")

// Syncer is the version-control boundary of the configuration manager.
type Syncer interface {
	// Clone checks out the remote repository into the working directory.
	Clone(ctx context.Context, uri string) error
	// Pull fast-forwards the working directory and reports whether
	// anything changed.
	Pull(ctx context.Context) (bool, error)
	// Remove deletes a tracked file (path relative to the working
	// directory) and stages the deletion.
	Remove(ctx context.Context, path string) error
	// CommitAll stages all changes and commits them. Committing an
	// unchanged tree is a no-op, not an error.
	CommitAll(ctx context.Context, message string) error
	// Push publishes local commits, returning ErrPushRejected on a
	// non-fast-forward rejection.
	Push(ctx context.Context) error
}

// CLISyncer drives the git binary found on PATH. The pack of repositories
// gitolite manages is reachable over SSH either way, so shelling out keeps
// authentication (agent, config, known_hosts) exactly as the operator set
// it up.
type CLISyncer struct {
	dir string
}

// NewCLISyncer returns a Syncer operating on the given working directory.
func NewCLISyncer(dir string) *CLISyncer {
	return &CLISyncer{dir: dir}
}

// IsRepository reports whether the working directory already contains a
// checkout.
func (s *CLISyncer) IsRepository() bool {
	info, err := os.Stat(filepath.Join(s.dir, ".git"))
	return err == nil && info.IsDir()
}

func (s *CLISyncer) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}

// Clone checks out uri into the working directory.
func (s *CLISyncer) Clone(ctx context.Context, uri string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", uri, s.dir)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git clone %s: %w: %s", uri, err, strings.TrimSpace(out.String()))
	}
	return nil
}

// Pull fast-forwards the checkout and reports whether HEAD moved.
func (s *CLISyncer) Pull(ctx context.Context) (bool, error) {
	before, _ := s.run(ctx, "rev-parse", "HEAD")
	out, err := s.run(ctx, "pull", "--ff-only")
	if err != nil {
		return false, fmt.Errorf("git pull: %w: %s", err, strings.TrimSpace(out))
	}
	after, err := s.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return false, fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(before) != strings.TrimSpace(after), nil
}

// Remove deletes and stages a tracked file.
func (s *CLISyncer) Remove(ctx context.Context, path string) error {
	out, err := s.run(ctx, "rm", "-f", "--ignore-unmatch", "--", path)
	if err != nil {
		return fmt.Errorf("git rm %s: %w: %s", path, err, strings.TrimSpace(out))
	}
	return nil
}

// CommitAll stages everything and commits. An unchanged tree commits
// nothing and returns nil.
func (s *CLISyncer) CommitAll(ctx context.Context, message string) error {
	if out, err := s.run(ctx, "add", "-A"); err != nil {
		return fmt.Errorf("git add: %w: %s", err, strings.TrimSpace(out))
	}
	out, err := s.run(ctx, "commit", "-m", message)
	if err != nil {
		if strings.Contains(out, "nothing to commit") {
			return nil
		}
		return fmt.Errorf("git commit: %w: %s", err, strings.TrimSpace(out))
	}
	return nil
}

// Push publishes local commits. Rejections the caller can recover from by
// pulling first are reported as ErrPushRejected.
func (s *CLISyncer) Push(ctx context.Context) error {
	out, err := s.run(ctx, "push")
	if err != nil {
		if strings.Contains(out, "[rejected]") || strings.Contains(out, "non-fast-forward") || strings.Contains(out, "fetch first") {
			return fmt.Errorf("%w: %s", ErrPushRejected, strings.TrimSpace(out))
		}
		return fmt.Errorf("git push: %w: %s", err, strings.TrimSpace(out))
	}
	return nil
}
