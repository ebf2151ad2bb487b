// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package destination

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/mia-platform/oulad-loader/internal/source"
)

// ErrIncompatibleColumn reports a job column whose values cannot be stored in the column
// already existing in the destination table.
var ErrIncompatibleColumn = errors.New("incompatible column type")

// SchemaUpdate holds the changes needed to write a job into an existing table.
type SchemaUpdate struct {
	// Job is the job to write. Its values are converted to the types of the existing
	// columns when needed.
	Job *Job
	// Added holds the job columns missing from the table.
	Added []Column
	// Widened holds the existing bigint columns that must become double.
	Widened []Column
}

// PlanSchemaUpdate compares job with the columns already present in the destination table.
// Integers are written into existing double columns, every value fits an existing text
// column and an existing bigint column is widened when the job needs doubles. Any other
// type change returns ErrIncompatibleColumn.
func PlanSchemaUpdate(job *Job, existing map[string]DataType) (*SchemaUpdate, error) {
	update := &SchemaUpdate{Job: job}
	table := Table{Name: job.Table.Name, Columns: make([]Column, 0, len(job.Table.Columns))}
	conversions := make(map[string]DataType)

	for _, column := range job.Table.Columns {
		current, ok := existing[column.Name]
		switch {
		case !ok:
			update.Added = append(update.Added, column)
		case current == column.Type:
		case current == DataTypeBigInt && column.Type == DataTypeDouble:
			update.Widened = append(update.Widened, column)
		case current == DataTypeDouble && column.Type == DataTypeBigInt, current == DataTypeText:
			conversions[column.Name] = current
			column.Type = current
		default:
			return nil, fmt.Errorf("%w: column %q of table %q is %s and cannot store %s values",
				ErrIncompatibleColumn, column.Name, job.Table.Name, current, column.Type)
		}

		table.Columns = append(table.Columns, column)
	}

	if len(conversions) == 0 {
		return update, nil
	}

	rows := make([]source.Record, 0, len(job.Rows))
	for _, record := range job.Rows {
		row := maps.Clone(record)
		for column, dataType := range conversions {
			row[column] = convertValue(row[column], dataType)
		}
		rows = append(rows, row)
	}

	converted := *job
	converted.Table = table
	converted.Rows = rows
	update.Job = &converted
	return update, nil
}

func convertValue(value any, dataType DataType) any {
	if value == nil {
		return nil
	}

	switch dataType {
	case DataTypeDouble:
		if number, ok := value.(int64); ok {
			return float64(number)
		}
	case DataTypeText:
		switch typed := value.(type) {
		case string:
			return typed
		case time.Time:
			return typed.UTC().Format(time.RFC3339Nano)
		default:
			return fmt.Sprint(typed)
		}
	}

	return value
}
