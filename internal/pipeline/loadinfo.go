// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// TableMetrics describes what a run wrote into a single table.
type TableMetrics struct {
	Table          string
	Rows           int
	Columns        int
	SourceFile     string
	SourceChecksum string
}

// LoadInfo is the outcome of a successful pipeline run.
type LoadInfo struct {
	PipelineName        string
	DestinationName     string
	DestinationLocation string
	DatasetName         string
	LoadID              string
	StartedAt           time.Time
	FinishedAt          time.Time
	Tables              []TableMetrics
}

// Duration returns how long the run took.
func (l *LoadInfo) Duration() time.Duration {
	return l.FinishedAt.Sub(l.StartedAt)
}

// String returns a human readable summary of the load.
func (l *LoadInfo) String() string {
	builder := new(strings.Builder)
	fmt.Fprintf(builder, "Pipeline %s load step completed in %.2f seconds\n", l.PipelineName, l.Duration().Seconds())
	fmt.Fprintf(builder, "1 load package(s) were loaded to destination %s and into dataset %s\n", l.DestinationName, l.DatasetName)
	fmt.Fprintf(builder, "The %s destination used %s location to store data\n", l.DestinationName, l.DestinationLocation)
	fmt.Fprintf(builder, "Load package %s is LOADED and contains no failed jobs", l.LoadID)
	for _, table := range l.Tables {
		fmt.Fprintf(builder, "\n\tTable %s: %d rows, %d columns", table.Table, table.Rows, table.Columns)
		if table.SourceFile != "" {
			fmt.Fprintf(builder, " from %s", table.SourceFile)
		}
		if table.SourceChecksum != "" {
			fmt.Fprintf(builder, " (xxhash %s)", table.SourceChecksum)
		}
	}

	return builder.String()
}
