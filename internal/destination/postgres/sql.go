// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package postgres

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mia-platform/oulad-loader/internal/destination"
)

const columnsQuery = "SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2"

var columnTypes = map[destination.DataType]string{
	destination.DataTypeText:      "text",
	destination.DataTypeBigInt:    "bigint",
	destination.DataTypeDouble:    "double precision",
	destination.DataTypeBool:      "boolean",
	destination.DataTypeTimestamp: "timestamp with time zone",
}

func parseColumnType(typeName string) (destination.DataType, bool) {
	for dataType, name := range columnTypes {
		if name == typeName {
			return dataType, true
		}
	}

	return destination.DataTypeText, false
}

func columnType(column destination.Column) string {
	dataType, ok := columnTypes[column.Type]
	if !ok {
		return columnTypes[destination.DataTypeText]
	}
	return dataType
}

func columnDefinition(column destination.Column) string {
	definition := pgx.Identifier{column.Name}.Sanitize() + " " + columnType(column)
	if !column.Nullable {
		definition += " NOT NULL"
	}
	return definition
}

func createSchemaStatement(schema string) string {
	return "CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{schema}.Sanitize()
}

func createTableStatement(schema string, table destination.Table) string {
	definitions := make([]string, 0, len(table.Columns))
	for _, column := range table.Columns {
		definitions = append(definitions, columnDefinition(column))
	}

	return "CREATE TABLE IF NOT EXISTS " + pgx.Identifier{schema, table.Name}.Sanitize() +
		" (" + strings.Join(definitions, ", ") + ")"
}

// addColumnsStatement returns the statement adding columns to an existing table. Added
// columns are always nullable because older rows have no value.
func addColumnsStatement(schema, table string, columns []destination.Column) string {
	clauses := make([]string, 0, len(columns))
	for _, column := range columns {
		column.Nullable = true
		clauses = append(clauses, "ADD COLUMN IF NOT EXISTS "+columnDefinition(column))
	}

	return "ALTER TABLE " + pgx.Identifier{schema, table}.Sanitize() + " " + strings.Join(clauses, ", ")
}

// widenColumnsStatement returns the statement changing the type of existing columns.
func widenColumnsStatement(schema, table string, columns []destination.Column) string {
	clauses := make([]string, 0, len(columns))
	for _, column := range columns {
		clauses = append(clauses, "ALTER COLUMN "+pgx.Identifier{column.Name}.Sanitize()+" TYPE "+columnType(column))
	}

	return "ALTER TABLE " + pgx.Identifier{schema, table}.Sanitize() + " " + strings.Join(clauses, ", ")
}

func truncateTableStatement(schema, table string) string {
	return "TRUNCATE TABLE " + pgx.Identifier{schema, table}.Sanitize()
}

func insertStatement(schema string, table destination.Table) string {
	columns := make([]string, 0, len(table.Columns))
	placeholders := make([]string, 0, len(table.Columns))
	for idx, column := range table.Columns {
		columns = append(columns, pgx.Identifier{column.Name}.Sanitize())
		placeholders = append(placeholders, "$"+strconv.Itoa(idx+1))
	}

	return "INSERT INTO " + pgx.Identifier{schema, table.Name}.Sanitize() +
		" (" + strings.Join(columns, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
}
