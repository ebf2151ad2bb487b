// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package writer implements a destination that prints the received datasets, jobs and
// completed loads to the given io.Writer instance.
// It is primarily useful for debugging purposes, or for checking the normalized rows
// before writing them to a real database.
package writer
