// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package pipeline

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	camelCaseBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	acronymBoundary   = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	invalidRunes      = regexp.MustCompile(`[^a-z0-9_]+`)
	repeatedUnderline = regexp.MustCompile(`__+`)
)

// NormalizeIdentifier converts name to a lower snake_case identifier usable as a table
// or column name: studentInfo becomes student_info and id.1 becomes id_1.
func NormalizeIdentifier(name string) string {
	identifier := strings.TrimSpace(name)
	identifier = acronymBoundary.ReplaceAllString(identifier, "${1}_${2}")
	identifier = camelCaseBoundary.ReplaceAllString(identifier, "${1}_${2}")
	identifier = strings.ToLower(identifier)
	identifier = invalidRunes.ReplaceAllString(identifier, "_")

	leading := strings.HasPrefix(identifier, "_")
	identifier = repeatedUnderline.ReplaceAllString(identifier, "_")
	identifier = strings.TrimRight(identifier, "_")
	if leading && !strings.HasPrefix(identifier, "_") {
		identifier = "_" + identifier
	}

	switch {
	case identifier == "":
		return "_"
	case identifier[0] >= '0' && identifier[0] <= '9':
		return "_" + identifier
	default:
		return identifier
	}
}

// uniqueIdentifiers normalizes names keeping them distinct: a name colliding with an
// already assigned identifier gets a numeric suffix.
func uniqueIdentifiers(names []string, reserved ...string) []string {
	used := make(map[string]struct{}, len(names)+len(reserved))
	for _, name := range reserved {
		used[name] = struct{}{}
	}

	identifiers := make([]string, len(names))
	for idx, name := range names {
		base := NormalizeIdentifier(name)
		candidate := base
		for suffix := 1; ; suffix++ {
			if _, taken := used[candidate]; !taken {
				break
			}
			candidate = base + "_" + strconv.Itoa(suffix)
		}

		used[candidate] = struct{}{}
		identifiers[idx] = candidate
	}

	return identifiers
}
