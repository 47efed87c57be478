// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

package gitolite

import (
	"errors"
	"strings"
	"testing"

	"github.com/toeirei/gitomaster/internal/model"
)

func TestReadFullConfig(t *testing.T) {
	input := "# gitolite.conf managed by gitomaster\n" +
		"@devs                = alice bob\n" +
		"@devs                = carol\n" + // extends, no duplicates
		"\n" +
		"repo gitolite-admin\n" +
		"    RW+              = @devs\n" +
		"\n" +
		"repo web\n" +
		"    RW               = alice\n" +
		"    R                = @all\n" +
		"\n"

	cfg, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	devs := cfg.Group("@devs")
	if devs == nil {
		t.Fatal("group @devs not parsed")
	}
	members := devs.Members()
	if len(members) != 3 || members[0] != "alice" || members[1] != "bob" || members[2] != "carol" {
		t.Errorf("unexpected @devs members: %v", members)
	}

	admin := cfg.Repository("gitolite-admin")
	if admin == nil {
		t.Fatal("repo gitolite-admin not parsed")
	}
	holders := admin.Holders(model.WritePlus)
	if len(holders) != 1 || holders[0].Name() != "@devs" {
		t.Errorf("unexpected RW+ holders: %v", holders)
	}

	// Subjects auto-create identities per kind: @all became a group,
	// alice a user.
	if cfg.Group(model.EveryoneGroup) == nil {
		t.Errorf("@all was not created as a group")
	}
	if cfg.User("alice") == nil {
		t.Errorf("alice was not created as a user")
	}
}

func TestReadMultiNameRepoBlock(t *testing.T) {
	cfg, err := Read(strings.NewReader("repo a b\n    RW               = alice\n"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	for _, name := range []string{"a", "b"} {
		repo := cfg.Repository(name)
		if repo == nil {
			t.Fatalf("repo %s missing", name)
		}
		holders := repo.Holders(model.Write)
		if len(holders) != 1 || holders[0].Name() != "alice" {
			t.Errorf("repo %s: unexpected RW holders %v", name, holders)
		}
	}
}

func TestReadBlankLineClosesRepoContext(t *testing.T) {
	// After the blank line the group line is a definition again, not a
	// permission line.
	input := "repo web\n    R                = alice\n\n@devs                = bob\n"
	cfg, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.Group("@devs") == nil || !cfg.Group("@devs").HasMember("bob") {
		t.Errorf("group definition after blank line not parsed")
	}
}

func TestReadMalformedLine(t *testing.T) {
	input := "repo web\n    R                = alice\n\nnot a valid line\n"
	_, err := Read(strings.NewReader(input))
	if !errors.Is(err, ErrMalformedLine) {
		t.Fatalf("Read error = %v, want ErrMalformedLine", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error is not a *ParseError: %v", err)
	}
	if pe.Line != 4 {
		t.Errorf("ParseError.Line = %d, want 4", pe.Line)
	}
	if pe.Text != "not a valid line" {
		t.Errorf("ParseError.Text = %q", pe.Text)
	}
}

func TestReadUnknownPermission(t *testing.T) {
	input := "repo web\n    RWX = alice\n"
	_, err := Read(strings.NewReader(input))
	if !errors.Is(err, model.ErrUnknownPermission) {
		t.Fatalf("Read error = %v, want ErrUnknownPermission", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 2 {
		t.Fatalf("expected *ParseError at line 2, got %v", err)
	}
}

func TestReadRepoWithoutName(t *testing.T) {
	_, err := Read(strings.NewReader("repo\n"))
	if !errors.Is(err, ErrMalformedLine) {
		t.Fatalf("Read error = %v, want ErrMalformedLine", err)
	}
}

func TestReadGroupLineOutsideContextNeedsSigil(t *testing.T) {
	_, err := Read(strings.NewReader("devs = alice\n"))
	if !errors.Is(err, ErrMalformedLine) {
		t.Fatalf("Read error = %v, want ErrMalformedLine", err)
	}
}

func TestRoundTrip(t *testing.T) {
	cfg := buildConfig(t)

	var first strings.Builder
	if err := Write(cfg, &first); err != nil {
		t.Fatalf("Write: %v", err)
	}
	parsed, err := Read(strings.NewReader(first.String()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var second strings.Builder
	if err := Write(parsed, &second); err != nil {
		t.Fatalf("Write (reparsed): %v", err)
	}
	if first.String() != second.String() {
		t.Errorf("round trip not stable:\nfirst:  %q\nsecond: %q", first.String(), second.String())
	}
}
