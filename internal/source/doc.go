// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package source defines the contracts used to implement loader resources.
// A resource is a named, write-disposition tagged producer of records that the pipeline
// drains before handing the rows to a destination.
package source
