// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "errors"

// ErrNameConflict is returned when a name is requested as the wrong kind of
// identity, e.g. asking for a group whose name lacks the '@' sigil or a user
// whose name carries it.
var ErrNameConflict = errors.New("name conflicts with identity kind")

// ErrUnknownPermission is returned when a permission token does not match any
// level gitolite recognizes.
var ErrUnknownPermission = errors.New("unknown permission level")
