// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package destination

//go:generate ${TOOLS_BIN}/stringer -type=DataType -trimprefix DataType
type DataType int

const (
	// DataTypeText holds strings and columns without any value.
	DataTypeText DataType = iota
	// DataTypeBigInt holds 64 bit signed integers.
	DataTypeBigInt
	// DataTypeDouble holds 64 bit floating point numbers.
	DataTypeDouble
	// DataTypeBool holds booleans.
	DataTypeBool
	// DataTypeTimestamp holds points in time with microsecond precision.
	DataTypeTimestamp
)

// Column describes a single column of a destination table.
type Column struct {
	Name     string
	Type     DataType
	Nullable bool
}

// Table describes the schema of a destination table. Columns keep the order in which
// they must be created.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the name of every column in order.
func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, column := range t.Columns {
		names = append(names, column.Name)
	}

	return names
}

// ColumnTypes returns the type of every column keyed by name.
func (t Table) ColumnTypes() map[string]DataType {
	types := make(map[string]DataType, len(t.Columns))
	for _, column := range t.Columns {
		types[column.Name] = column.Type
	}

	return types
}

// LoadsTable returns the schema of the table keeping track of the completed loads.
func LoadsTable() Table {
	return Table{
		Name: LoadsTableName,
		Columns: []Column{
			{Name: "load_id", Type: DataTypeText},
			{Name: "pipeline_name", Type: DataTypeText},
			{Name: "dataset_name", Type: DataTypeText},
			{Name: "table_name", Type: DataTypeText},
			{Name: "row_count", Type: DataTypeBigInt},
			{Name: "status", Type: DataTypeText},
			{Name: "source_checksum", Type: DataTypeText, Nullable: true},
			{Name: "inserted_at", Type: DataTypeTimestamp},
		},
	}
}
