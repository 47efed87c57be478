// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package sshkey splits and validates raw SSH public key lines as found in
// key files and authorized_keys entries.
package sshkey

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// Parse splits a raw public key string into its three core components:
// algorithm, key data, and comment. It correctly handles leading options in
// the line (e.g., from="...",command="...").
func Parse(rawKey string) (algorithm, keyData, comment string, err error) {
	fields := strings.Fields(rawKey)
	if len(fields) == 0 {
		err = fmt.Errorf("empty line")
		return
	}

	keyStartIndex := -1
	for i, field := range fields {
		if strings.HasPrefix(field, "ssh-") || strings.HasPrefix(field, "ecdsa-") || strings.HasPrefix(field, "sk-") {
			keyStartIndex = i
			break
		}
	}

	if keyStartIndex == -1 {
		err = fmt.Errorf("no valid SSH key type found in line")
		return
	}

	if len(fields) < keyStartIndex+2 {
		err = fmt.Errorf("invalid public key format: missing key data after algorithm")
		return
	}

	algorithm = fields[keyStartIndex]
	keyData = fields[keyStartIndex+1]
	if len(fields) > keyStartIndex+2 {
		comment = strings.Join(fields[keyStartIndex+2:], " ")
	}

	return
}

// Material reduces a raw public key line to its "<algorithm> <data>" pair,
// dropping options and comment. This is the canonical form stored in the
// configuration model and compared for duplicates.
func Material(rawKey string) (string, error) {
	algorithm, keyData, _, err := Parse(rawKey)
	if err != nil {
		return "", err
	}
	return algorithm + " " + keyData, nil
}

// Validate checks that a raw public key line actually decodes as an SSH
// public key, beyond the field-level splitting Parse does.
func Validate(rawKey string) error {
	if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(rawKey)); err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}
	return nil
}
