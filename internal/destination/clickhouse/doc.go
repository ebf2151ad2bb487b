// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package clickhouse implements the ClickHouse destination on top of clickhouse-go using
// the HTTP protocol. Every dataset is stored in the configured database as a set of tables
// sharing the dataset name as prefix.
package clickhouse
