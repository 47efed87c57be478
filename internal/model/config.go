// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"fmt"
	"strings"
)

// Config is the aggregate root of a gitolite configuration. It owns the
// complete sets of users, groups and repositories, each keyed by name, and
// preserves creation order so serialization is deterministic.
//
// Users and groups live in separate namespaces split by the group sigil:
// a group name always starts with "@", a user name never does. Ensure
// calls enforce this, so a user "alice" and a group "@alice" can coexist
// but "alice" can never be requested as a group.
type Config struct {
	userOrder []string
	users     map[string]*User

	groupOrder []string
	groups     map[string]*Group

	repoOrder []string
	repos     map[string]*Repository
}

// NewConfig returns an empty configuration.
func NewConfig() *Config {
	return &Config{
		users:  map[string]*User{},
		groups: map[string]*Group{},
		repos:  map[string]*Repository{},
	}
}

// EnsureUser returns the user with the given name, creating and registering
// it first if absent. A sigil-prefixed name is a NameConflict: that
// namespace belongs to groups.
func (c *Config) EnsureUser(name string) (*User, error) {
	if name == "" {
		return nil, fmt.Errorf("user name must not be empty")
	}
	if strings.HasPrefix(name, GroupSigil) {
		return nil, fmt.Errorf("%w: %q is a group name", ErrNameConflict, name)
	}
	if u, ok := c.users[name]; ok {
		return u, nil
	}
	u := newUser(name)
	c.users[name] = u
	c.userOrder = append(c.userOrder, name)
	return u, nil
}

// EnsureGroup returns the group with the given name, creating and
// registering it first if absent. The name must carry the group sigil.
func (c *Config) EnsureGroup(name string) (*Group, error) {
	if !strings.HasPrefix(name, GroupSigil) || len(name) == len(GroupSigil) {
		return nil, fmt.Errorf("%w: group name %q must start with %q", ErrNameConflict, name, GroupSigil)
	}
	if g, ok := c.groups[name]; ok {
		return g, nil
	}
	g := newGroup(name)
	c.groups[name] = g
	c.groupOrder = append(c.groupOrder, name)
	return g, nil
}

// EnsureRepository returns the repository with the given name, creating and
// registering it first if absent. Re-ensuring an existing name extends that
// repository rather than replacing it, which is what the config format's
// "repo a b c" shorthand relies on.
func (c *Config) EnsureRepository(name string) (*Repository, error) {
	if name == "" {
		return nil, fmt.Errorf("repository name must not be empty")
	}
	if r, ok := c.repos[name]; ok {
		return r, nil
	}
	r := newRepository(name)
	c.repos[name] = r
	c.repoOrder = append(c.repoOrder, name)
	return r, nil
}

// ResolveIdentity maps a subject name to its identity, creating it on first
// reference: a sigil-prefixed name yields a group, anything else a user.
// This is the single creation policy both transcoders use.
func (c *Config) ResolveIdentity(name string) (Identity, error) {
	if strings.HasPrefix(name, GroupSigil) {
		return c.EnsureGroup(name)
	}
	return c.EnsureUser(name)
}

// User returns the named user, or nil if unknown.
func (c *Config) User(name string) *User { return c.users[name] }

// Group returns the named group, or nil if unknown.
func (c *Config) Group(name string) *Group { return c.groups[name] }

// Repository returns the named repository, or nil if unknown.
func (c *Config) Repository(name string) *Repository { return c.repos[name] }

// Users returns all users in creation order.
func (c *Config) Users() []*User {
	users := make([]*User, 0, len(c.userOrder))
	for _, name := range c.userOrder {
		users = append(users, c.users[name])
	}
	return users
}

// Groups returns all groups in creation order.
func (c *Config) Groups() []*Group {
	groups := make([]*Group, 0, len(c.groupOrder))
	for _, name := range c.groupOrder {
		groups = append(groups, c.groups[name])
	}
	return groups
}

// Repositories returns all repositories in creation order.
func (c *Config) Repositories() []*Repository {
	repos := make([]*Repository, 0, len(c.repoOrder))
	for _, name := range c.repoOrder {
		repos = append(repos, c.repos[name])
	}
	return repos
}

// RemoveUser unregisters the named user. The caller is responsible for
// revoking the user's grants and group memberships first; dangling names
// are written out as-is.
func (c *Config) RemoveUser(name string) {
	if _, ok := c.users[name]; !ok {
		return
	}
	delete(c.users, name)
	c.userOrder = removeName(c.userOrder, name)
}

// RemoveGroup unregisters the named group.
func (c *Config) RemoveGroup(name string) {
	if _, ok := c.groups[name]; !ok {
		return
	}
	delete(c.groups, name)
	c.groupOrder = removeName(c.groupOrder, name)
}

// RemoveRepository unregisters the named repository and its permissions.
func (c *Config) RemoveRepository(name string) {
	if _, ok := c.repos[name]; !ok {
		return
	}
	delete(c.repos, name)
	c.repoOrder = removeName(c.repoOrder, name)
}

func removeName(order []string, name string) []string {
	for i, n := range order {
		if n == name {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
