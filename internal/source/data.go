// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package source

// Record maps a column name to the value of a single row. Values are nil, int64, float64,
// bool or string.
type Record map[string]any
