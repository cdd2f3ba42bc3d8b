// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import "encoding/json"

// Marshal encodes r as the wire-agnostic JSON convenience form
// used by tests and cmd/metricscore-demo. The core's own scope stops
// at the in-memory Report (spec.md §1 "on-disk report serialization
// format" is an external collaborator's concern); this codec exists
// only so callers have something to print without inventing their own
// encoding.
func Marshal(r Report) ([]byte, error) {
	return json.Marshal(r)
}

// MarshalIndent is Marshal with human-readable indentation.
func MarshalIndent(r Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
