// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package behavior

import "errors"

// ErrDetailUnavailable marks a decision that references data the user
// does not hold, e.g. a review with no current content. The pipeline
// swallows it and emits nothing for the timestamp.
var ErrDetailUnavailable = errors.New("detail unavailable for decided event")
