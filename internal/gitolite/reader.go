// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

package gitolite

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/toeirei/gitomaster/internal/model"
)

// ErrMalformedLine is returned (wrapped in a *ParseError) when a config line
// matches none of the recognized forms.
var ErrMalformedLine = errors.New("malformed config line")

// ParseError reports a failure at a specific line of a config file. It wraps
// the underlying cause, so errors.Is works against ErrMalformedLine and
// model.ErrUnknownPermission.
type ParseError struct {
	Line int    // 1-based line number
	Text string // the raw offending line
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Read parses a gitolite.conf stream into a fresh Config. Blank lines close
// the current repository context; lines starting with '#' are ignored. The
// returned Config is only handed out on full success, so a parse failure
// never leaves a caller with a half-populated aggregate.
func Read(r io.Reader) (*model.Config, error) {
	cfg := model.NewConfig()
	scanner := bufio.NewScanner(r)

	// Repositories currently being declared; a "repo a b" line puts both
	// in scope until the block ends.
	var current []*model.Repository

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)

		if line == "" {
			current = nil
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch {
		case fields[0] == "repo":
			if len(fields) < 2 {
				return nil, &ParseError{Line: lineNo, Text: raw, Err: ErrMalformedLine}
			}
			current = current[:0]
			for _, name := range fields[1:] {
				repo, err := cfg.EnsureRepository(name)
				if err != nil {
					return nil, &ParseError{Line: lineNo, Text: raw, Err: err}
				}
				current = append(current, repo)
			}

		case len(fields) >= 2 && fields[1] == "=":
			if len(current) > 0 {
				if err := readPermissionLine(cfg, current, fields); err != nil {
					return nil, &ParseError{Line: lineNo, Text: raw, Err: err}
				}
				continue
			}
			if !strings.HasPrefix(fields[0], model.GroupSigil) {
				return nil, &ParseError{Line: lineNo, Text: raw, Err: ErrMalformedLine}
			}
			group, err := cfg.EnsureGroup(fields[0])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Text: raw, Err: err}
			}
			for _, member := range fields[2:] {
				group.AddMember(member)
			}

		default:
			return nil, &ParseError{Line: lineNo, Text: raw, Err: ErrMalformedLine}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readPermissionLine(cfg *model.Config, repos []*model.Repository, fields []string) error {
	level, err := model.ParsePermission(fields[0])
	if err != nil {
		return err
	}
	for _, subject := range fields[2:] {
		id, err := cfg.ResolveIdentity(subject)
		if err != nil {
			return err
		}
		for _, repo := range repos {
			repo.Grant(level, id)
		}
	}
	return nil
}
