// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package config describes the datasets handled by the loader: the built-in OULAD tables
// and the YAML files that can replace them.
package config
