// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package destination

import (
	"context"
	"time"

	"github.com/mia-platform/oulad-loader/internal/config"
	"github.com/mia-platform/oulad-loader/internal/source"
)

const (
	// LoadsTableName is the table where every destination records its completed loads.
	LoadsTableName = "_loads"

	// LoadStatusLoaded marks a load whose rows have all been written.
	LoadStatusLoaded = "loaded"
)

// Destination writes the normalized rows of a pipeline run into a database.
type Destination interface {
	// Name returns the destination identifier, e.g. "clickhouse".
	Name() string

	// Location returns a printable description of where data is written, without secrets.
	Location() string

	// Initialize prepares dataset so that jobs can be loaded into it. It must be idempotent.
	Initialize(ctx context.Context, dataset string) error

	// Load creates or evolves the job table and writes all the job rows.
	Load(ctx context.Context, job *Job) error

	// CompleteLoad stores load in the loads table of its dataset.
	CompleteLoad(ctx context.Context, load *LoadRecord) error
}

// ClosableDestination defines a destination holding resources that must be released.
type ClosableDestination interface {
	Close(ctx context.Context) error
}

// Job is the unit of work handed to a destination: all the rows extracted from one
// resource, already normalized against Table.
type Job struct {
	LoadID           string
	Dataset          string
	Table            Table
	WriteDisposition config.WriteDisposition
	Rows             []source.Record
}

// LoadRecord describes a completed load as stored in the loads table.
type LoadRecord struct {
	LoadID         string    `json:"load_id"`
	PipelineName   string    `json:"pipeline_name"`
	Dataset        string    `json:"dataset_name"`
	Table          string    `json:"table_name"`
	RowCount       int       `json:"row_count"`
	Status         string    `json:"status"`
	SourceChecksum string    `json:"source_checksum,omitempty"`
	InsertedAt     time.Time `json:"inserted_at"`
}

// Values returns the load fields in the same order as the LoadsTable columns.
func (l *LoadRecord) Values() []any {
	var checksum any
	if l.SourceChecksum != "" {
		checksum = l.SourceChecksum
	}

	return []any{
		l.LoadID,
		l.PipelineName,
		l.Dataset,
		l.Table,
		int64(l.RowCount),
		l.Status,
		checksum,
		l.InsertedAt.UTC(),
	}
}
