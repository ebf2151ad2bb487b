// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package source

import (
	"context"

	"github.com/mia-platform/oulad-loader/internal/config"
)

// Resource defines a named data source that the pipeline can extract records from.
type Resource interface {
	// Name returns the dataset name the records will be loaded into.
	Name() string

	// WriteDisposition returns how the extracted records relate to the ones already loaded.
	WriteDisposition() config.WriteDisposition

	// Extract will be called once per pipeline run. It sends every record on results, in
	// the order they are read, and returns when the source is exhausted or an error occurs.
	// The results channel is owned by the caller and must not be closed.
	Extract(ctx context.Context, results chan<- Record) (err error)
}

// FileResource defines a resource backed by a file. The pipeline uses it to enrich the
// load information with where the records came from.
type FileResource interface {
	Resource

	// Location returns the path of the file read by the resource.
	Location() string

	// Checksum returns the checksum of the file content read by the last Extract call.
	Checksum() string

	// Columns returns the column names, in file order, read by the last Extract call.
	Columns() []string
}
