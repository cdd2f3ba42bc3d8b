// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Status represents the status of a configuration operation, mirroring
// the teacher's internal/config/types.go Status.
type Status uint8

const (
	StatusOK Status = 1 << iota
	StatusInvalid
)

// Instance is a named, versioned configuration document plus its
// compile status.
type Instance struct {
	Name    string
	Version string
	Doc     *Document
	Status  Status
}

// CompareVersions compares two version strings, following the
// teacher's internal/config/parser.go convention: version strings are
// plain non-negative integers, optionally prefixed with "v".
//
// Returns negative if current < prev, zero if equal, positive if
// current > prev (or if current is non-empty and prev is empty).
func CompareVersions(current, prev string) (int, error) {
	current = strings.TrimPrefix(current, "v")
	prev = strings.TrimPrefix(prev, "v")

	currentNum, err := strconv.Atoi(current)
	if err != nil {
		return 0, fmt.Errorf("invalid version %s: %w", current, err)
	}
	if prev == "" {
		return 1, nil
	}
	prevNum, err := strconv.Atoi(prev)
	if err != nil {
		return 0, fmt.Errorf("invalid version %s: %w", prev, err)
	}
	if currentNum < 0 || prevNum < 0 {
		return 0, fmt.Errorf("version numbers cannot be negative")
	}
	switch {
	case currentNum < prevNum:
		return -1, nil
	case currentNum > prevNum:
		return 1, nil
	default:
		return 0, nil
	}
}
