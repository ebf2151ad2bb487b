// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package clickhouse

import (
	"strings"

	"github.com/mia-platform/oulad-loader/internal/destination"
)

const nullablePrefix = "Nullable("

var columnTypes = map[destination.DataType]string{
	destination.DataTypeText:      "String",
	destination.DataTypeBigInt:    "Int64",
	destination.DataTypeDouble:    "Float64",
	destination.DataTypeBool:      "Bool",
	destination.DataTypeTimestamp: "DateTime64(6,'UTC')",
}

// quoteIdentifier returns name quoted with backticks, escaping backslashes and backticks.
func quoteIdentifier(name string) string {
	replacer := strings.NewReplacer("\\", "\\\\", "`", "\\`")
	return "`" + replacer.Replace(name) + "`"
}

func qualifiedName(database, table string) string {
	return quoteIdentifier(database) + "." + quoteIdentifier(table)
}

// parseColumnType returns the data type of a column as reported by system.columns.
func parseColumnType(typeName string) (destination.DataType, bool) {
	if strings.HasPrefix(typeName, nullablePrefix) && strings.HasSuffix(typeName, ")") {
		typeName = typeName[len(nullablePrefix) : len(typeName)-1]
	}

	if strings.HasPrefix(typeName, "DateTime64(") {
		return destination.DataTypeTimestamp, true
	}
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
		dataType = columnTypes[destination.DataTypeText]
	}

	if column.Nullable {
		return nullablePrefix + dataType + ")"
	}
	return dataType
}

func columnDefinition(column destination.Column) string {
	return quoteIdentifier(column.Name) + " " + columnType(column)
}

func createDatabaseStatement(database string) string {
	return "CREATE DATABASE IF NOT EXISTS " + quoteIdentifier(database)
}

func createTableStatement(database, table string, schema destination.Table) string {
	definitions := make([]string, 0, len(schema.Columns))
	for _, column := range schema.Columns {
		definitions = append(definitions, columnDefinition(column))
	}

	builder := new(strings.Builder)
	builder.WriteString("CREATE TABLE IF NOT EXISTS ")
	builder.WriteString(qualifiedName(database, table))
	builder.WriteString(" (")
	builder.WriteString(strings.Join(definitions, ", "))
	builder.WriteString(") ENGINE = MergeTree ORDER BY tuple()")
	return builder.String()
}

// addColumnsStatement returns the statement adding columns to an existing table. Added
// columns are always nullable because older rows have no value.
func addColumnsStatement(database, table string, columns []destination.Column) string {
	clauses := make([]string, 0, len(columns))
	for _, column := range columns {
		column.Nullable = true
		clauses = append(clauses, "ADD COLUMN IF NOT EXISTS "+columnDefinition(column))
	}

	return "ALTER TABLE " + qualifiedName(database, table) + " " + strings.Join(clauses, ", ")
}

// modifyColumnsStatement returns the statement changing the type of existing columns.
func modifyColumnsStatement(database, table string, columns []destination.Column) string {
	clauses := make([]string, 0, len(columns))
	for _, column := range columns {
		clauses = append(clauses, "MODIFY COLUMN "+columnDefinition(column))
	}

	return "ALTER TABLE " + qualifiedName(database, table) + " " + strings.Join(clauses, ", ")
}

func truncateTableStatement(database, table string) string {
	return "TRUNCATE TABLE IF EXISTS " + qualifiedName(database, table)
}

func insertStatement(database, table string, columns []string) string {
	quoted := make([]string, 0, len(columns))
	for _, column := range columns {
		quoted = append(quoted, quoteIdentifier(column))
	}

	return "INSERT INTO " + qualifiedName(database, table) + " (" + strings.Join(quoted, ", ") + ")"
}
