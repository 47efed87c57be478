// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "fmt"

// Permission is an access level as gitolite spells it in a config file. The
// zero value is not a valid level; always obtain one from the constants below
// or from ParsePermission.
type Permission string

// The permission vocabulary, in serialization order. The order is only used
// to keep written config files stable; it carries no access-control meaning.
const (
	RewindPlus Permission = "RW+D" // read, write, rewind, delete
	Rewind     Permission = "RWD"  // read, write, delete
	WritePlus  Permission = "RW+"  // read, write, rewind
	Write      Permission = "RW"   // read, write
	Create     Permission = "C"    // create wild repos
	Read       Permission = "R"    // read only
	Deny       Permission = "-"    // deny matching refs
)

// AllPermissions lists every recognized level in serialization order.
var AllPermissions = []Permission{RewindPlus, Rewind, WritePlus, Write, Create, Read, Deny}

// ParsePermission resolves a canonical token to its Permission, failing with
// ErrUnknownPermission for any other string.
func ParsePermission(token string) (Permission, error) {
	for _, p := range AllPermissions {
		if string(p) == token {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPermission, token)
}

// Level returns the canonical token used in config files.
func (p Permission) Level() string {
	return string(p)
}
