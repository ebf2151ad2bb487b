// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package pipeline moves the records of a resource into a destination dataset.
// Every run extracts all the records first, then normalizes names and infers the table
// schema, and finally hands a single job to the destination and records the load.
package pipeline
