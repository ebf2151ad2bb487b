// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package destination defines the contract between the load pipeline and the databases
// receiving the rows. A destination prepares a dataset, writes the jobs produced by the
// pipeline and keeps track of the completed loads.
package destination
