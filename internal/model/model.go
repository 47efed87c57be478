// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model holds the in-memory representation of a gitolite
// configuration: users with their SSH keys, groups, repositories and the
// permissions tying them together. The Config aggregate owns all entities;
// everything else references them by name through it. The model is plain
// data with no internal locking; callers that share a Config across
// goroutines must serialize access themselves.
package model

import "fmt"

// GroupSigil is the prefix every group name carries. It is also the
// namespace separator: a name starting with the sigil always denotes a
// group, any other name always denotes a user.
const GroupSigil = "@"

// EveryoneGroup is gitolite's implicit "all users" group. It may be
// populated and referenced in memory but is never written to a config file,
// since membership in it is implicit on the gitolite side.
const EveryoneGroup = GroupSigil + "all"

// Identity is anything that can be granted a permission on a repository or
// listed as a group member: a user or a group.
type Identity interface {
	// Name returns the unique name of the identity. Group names include
	// the leading sigil.
	Name() string
}

// User is a person (or role account) known to the configuration, together
// with the SSH public keys that authenticate them. Keys are addressed by an
// optional label; the empty label is the user's default key. Key material is
// the "<algorithm> <base64>" pair with any comment stripped.
type User struct {
	name     string
	keyOrder []string
	keys     map[string]string
}

func newUser(name string) *User {
	return &User{name: name, keys: map[string]string{}}
}

// Name returns the user's name.
func (u *User) Name() string { return u.name }

// SetKey stores key material under the given label, replacing any previous
// key with the same label. The empty label addresses the default key.
func (u *User) SetKey(label, material string) {
	if _, ok := u.keys[label]; !ok {
		u.keyOrder = append(u.keyOrder, label)
	}
	u.keys[label] = material
}

// Key returns the material stored under label, and whether it exists.
func (u *User) Key(label string) (string, bool) {
	material, ok := u.keys[label]
	return material, ok
}

// RemoveKey deletes the key stored under label. Removing an absent label is
// a no-op.
func (u *User) RemoveKey(label string) {
	if _, ok := u.keys[label]; !ok {
		return
	}
	delete(u.keys, label)
	for i, l := range u.keyOrder {
		if l == label {
			u.keyOrder = append(u.keyOrder[:i], u.keyOrder[i+1:]...)
			break
		}
	}
}

// KeyLabels returns the user's key labels in insertion order.
func (u *User) KeyLabels() []string {
	labels := make([]string, len(u.keyOrder))
	copy(labels, u.keyOrder)
	return labels
}

// Keys returns a label-to-material copy of the user's keys.
func (u *User) Keys() map[string]string {
	keys := make(map[string]string, len(u.keys))
	for label, material := range u.keys {
		keys[label] = material
	}
	return keys
}

// Group is a named, ordered collection of member names. Members may be
// users, other groups (sigil-prefixed) or patterns gitolite resolves later;
// the model stores them as opaque names and preserves insertion order so
// that rewriting a config file produces minimal diffs.
type Group struct {
	name    string
	members []string
}

func newGroup(name string) *Group {
	return &Group{name: name}
}

// Name returns the group's name, including the leading sigil.
func (g *Group) Name() string { return g.name }

// AddMember appends a member name, ignoring names already present.
func (g *Group) AddMember(name string) {
	if g.HasMember(name) {
		return
	}
	g.members = append(g.members, name)
}

// RemoveMember removes a member name. Removing an absent member is a no-op.
func (g *Group) RemoveMember(name string) {
	for i, m := range g.members {
		if m == name {
			g.members = append(g.members[:i], g.members[i+1:]...)
			return
		}
	}
}

// HasMember reports whether the group lists the given name.
func (g *Group) HasMember(name string) bool {
	for _, m := range g.members {
		if m == name {
			return true
		}
	}
	return false
}

// Members returns the member names in insertion order.
func (g *Group) Members() []string {
	members := make([]string, len(g.members))
	copy(members, g.members)
	return members
}

// String returns a short description for log output.
func (g *Group) String() string {
	return fmt.Sprintf("%s (%d members)", g.name, len(g.members))
}
