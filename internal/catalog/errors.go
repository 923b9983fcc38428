// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package catalog

import (
	"errors"
	"fmt"
)

// ErrNoUsers is returned when the catalog holds no active users.
var ErrNoUsers = errors.New("no active users in catalog")

// ErrNoContents is returned when the catalog holds no contents.
var ErrNoContents = errors.New("no contents in catalog")

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// Error wraps a failed catalog operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("catalog: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
