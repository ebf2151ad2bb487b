// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package csvfile implements the resource reading OULAD datasets from CSV files.
// Every file is parsed in memory, its header names the record columns and the cells of
// each column are converted to integers, floats, booleans or kept as strings.
package csvfile
