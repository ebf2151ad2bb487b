// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package pipeline

import (
	"fmt"
	"slices"
	"time"

	"github.com/mia-platform/oulad-loader/internal/destination"
	"github.com/mia-platform/oulad-loader/internal/source"
)

const (
	// LoadIDColumn holds the id of the load that wrote the row.
	LoadIDColumn = "_load_id"
	// RowIDColumn holds a random unique id assigned to every row.
	RowIDColumn = "_row_id"
)

// columnOrder returns every column name found in records. Columns declared by the resource
// keep their order and come first, the others follow in lexical order.
func columnOrder(declared []string, records []source.Record) []string {
	seen := make(map[string]struct{}, len(declared))
	columns := make([]string, 0, len(declared))
	for _, column := range declared {
		if _, ok := seen[column]; ok {
			continue
		}
		seen[column] = struct{}{}
		columns = append(columns, column)
	}

	extra := make([]string, 0)
	for _, record := range records {
		for column := range record {
			if _, ok := seen[column]; ok {
				continue
			}
			seen[column] = struct{}{}
			extra = append(extra, column)
		}
	}
	slices.Sort(extra)

	return append(columns, extra...)
}

// inferType returns the column type able to hold every value. Columns without any value
// are text.
func inferType(values []any) destination.DataType {
	var (
		found   bool
		current destination.DataType
	)

	for _, value := range values {
		var valueType destination.DataType
		switch value.(type) {
		case nil:
			continue
		case int64, int:
			valueType = destination.DataTypeBigInt
		case float64:
			valueType = destination.DataTypeDouble
		case bool:
			valueType = destination.DataTypeBool
		case time.Time:
			valueType = destination.DataTypeTimestamp
		default:
			valueType = destination.DataTypeText
		}

		switch {
		case !found:
			current = valueType
			found = true
		case current == valueType:
		case isNumeric(current) && isNumeric(valueType):
			current = destination.DataTypeDouble
		default:
			current = destination.DataTypeText
		}
	}

	if !found {
		return destination.DataTypeText
	}
	return current
}

func isNumeric(dataType destination.DataType) bool {
	return dataType == destination.DataTypeBigInt || dataType == destination.DataTypeDouble
}

// coerce converts value to the Go type used by the destinations for dataType.
func coerce(value any, dataType destination.DataType) any {
	if value == nil {
		return nil
	}

	switch dataType {
	case destination.DataTypeDouble:
		switch number := value.(type) {
		case int64:
			return float64(number)
		case int:
			return float64(number)
		}
	case destination.DataTypeBigInt:
		if number, ok := value.(int); ok {
			return int64(number)
		}
	case destination.DataTypeText:
		if _, ok := value.(string); !ok {
			return fmt.Sprint(value)
		}
	}

	return value
}

// normalize builds the destination job from the extracted records: names are converted to
// snake_case, the table schema is inferred and the load and row ids are added to every row.
// Data columns are always nullable so that later loads can miss values the first one had.
func (p *Pipeline) normalize(resource source.Resource, loadID string, records []source.Record) *destination.Job {
	var declared []string
	if fileResource, ok := resource.(source.FileResource); ok {
		declared = fileResource.Columns()
	}

	sourceColumns := columnOrder(declared, records)
	identifiers := uniqueIdentifiers(sourceColumns, LoadIDColumn, RowIDColumn)

	columns := make([]destination.Column, 0, len(sourceColumns)+2)
	values := make([]any, len(records))
	for idx, sourceColumn := range sourceColumns {
		for row, record := range records {
			values[row] = record[sourceColumn]
		}

		columns = append(columns, destination.Column{
			Name:     identifiers[idx],
			Type:     inferType(values),
			Nullable: true,
		})
	}
	columns = append(columns,
		destination.Column{Name: LoadIDColumn, Type: destination.DataTypeText},
		destination.Column{Name: RowIDColumn, Type: destination.DataTypeText},
	)

	rows := make([]source.Record, 0, len(records))
	for _, record := range records {
		row := make(source.Record, len(columns))
		for idx, sourceColumn := range sourceColumns {
			row[identifiers[idx]] = coerce(record[sourceColumn], columns[idx].Type)
		}
		row[LoadIDColumn] = loadID
		row[RowIDColumn] = p.newRowID()
		rows = append(rows, row)
	}

	return &destination.Job{
		LoadID:           loadID,
		Dataset:          p.dataset,
		WriteDisposition: resource.WriteDisposition(),
		Table: destination.Table{
			Name:    NormalizeIdentifier(resource.Name()),
			Columns: columns,
		},
		Rows: rows,
	}
}
