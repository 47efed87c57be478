// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package gitolite reads and writes the gitolite.conf text format. The
// writer emits a canonical form (fixed column layout, stable ordering) so
// that successive rewrites of an unchanged configuration are byte-identical
// and mutations produce minimal diffs.
package gitolite

import (
	"fmt"
	"io"
	"strings"

	"github.com/toeirei/gitomaster/internal/model"
)

// Layout holds the column constants of the canonical form. gitolite itself
// ignores the exact spacing; the constants only pin down the bytes we emit.
type Layout struct {
	// Padding is the column width names and permission tokens are padded
	// to before the " = " separator.
	Padding int
	// Indent is the number of spaces before a permission line.
	Indent int
}

// DefaultLayout is the layout gitolite's own documentation uses.
var DefaultLayout = Layout{Padding: 20, Indent: 4}

// Write serializes cfg to w in canonical form using DefaultLayout.
func Write(cfg *model.Config, w io.Writer) error {
	return WriteLayout(cfg, w, DefaultLayout)
}

// WriteLayout serializes cfg to w: first the group definitions, then one
// block per repository. Empty groups and the implicit everyone group are
// not written. Serialization is pure; writing the same Config twice yields
// identical bytes.
func WriteLayout(cfg *model.Config, w io.Writer, layout Layout) error {
	if err := writeGroups(cfg, w, layout); err != nil {
		return err
	}
	return writeRepositories(cfg, w, layout)
}

func writeGroups(cfg *model.Config, w io.Writer, layout Layout) error {
	wrote := false
	for _, group := range cfg.Groups() {
		members := group.Members()
		if len(members) == 0 || group.Name() == model.EveryoneGroup {
			continue
		}
		line := fmt.Sprintf("%-*s = %s\n", layout.Padding, group.Name(), strings.Join(members, " "))
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
		wrote = true
	}
	if wrote {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func writeRepositories(cfg *model.Config, w io.Writer, layout Layout) error {
	indent := strings.Repeat(" ", layout.Indent)
	for _, repo := range cfg.Repositories() {
		if _, err := fmt.Fprintf(w, "repo %s\n", repo.Name()); err != nil {
			return err
		}
		for _, level := range repo.Permissions() {
			names := make([]string, 0, len(repo.Holders(level)))
			for _, id := range repo.Holders(level) {
				names = append(names, id.Name())
			}
			line := fmt.Sprintf("%s%-*s = %s\n", indent, layout.Padding-layout.Indent, level.Level(), strings.Join(names, " "))
			if _, err := io.WriteString(w, line); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
