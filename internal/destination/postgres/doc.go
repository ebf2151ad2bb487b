// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package postgres implements a PostgreSQL destination. Each dataset is stored in its own
// schema and rows are written in bulk with the COPY protocol.
package postgres
