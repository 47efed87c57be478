// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

package model

// Repository is a named repository and the permissions granted on it. The
// permission table is an ordered multimap: each level keeps the identities
// granted to it in first-grant order, and the levels themselves appear in
// the order they were first granted. Both orders survive a round trip
// through the config file, keeping rewrites diff-friendly.
type Repository struct {
	name      string
	permOrder []Permission
	grants    map[Permission][]Identity
}

func newRepository(name string) *Repository {
	return &Repository{name: name, grants: map[Permission][]Identity{}}
}

// Name returns the repository name.
func (r *Repository) Name() string { return r.name }

// Grant gives id the given permission level on the repository. Granting a
// level an identity already holds is a no-op.
func (r *Repository) Grant(level Permission, id Identity) {
	holders, ok := r.grants[level]
	if !ok {
		r.permOrder = append(r.permOrder, level)
	}
	for _, h := range holders {
		if h.Name() == id.Name() {
			return
		}
	}
	r.grants[level] = append(holders, id)
}

// Revoke removes id from the given permission level. Revoking the last
// holder removes the level from the repository entirely.
func (r *Repository) Revoke(level Permission, id Identity) {
	holders, ok := r.grants[level]
	if !ok {
		return
	}
	for i, h := range holders {
		if h.Name() == id.Name() {
			holders = append(holders[:i], holders[i+1:]...)
			break
		}
	}
	if len(holders) == 0 {
		delete(r.grants, level)
		for i, p := range r.permOrder {
			if p == level {
				r.permOrder = append(r.permOrder[:i], r.permOrder[i+1:]...)
				break
			}
		}
		return
	}
	r.grants[level] = holders
}

// Permissions returns the levels granted on the repository, in first-grant
// order.
func (r *Repository) Permissions() []Permission {
	levels := make([]Permission, len(r.permOrder))
	copy(levels, r.permOrder)
	return levels
}

// Holders returns the identities granted the given level, in first-grant
// order.
func (r *Repository) Holders(level Permission) []Identity {
	holders := make([]Identity, len(r.grants[level]))
	copy(holders, r.grants[level])
	return holders
}
