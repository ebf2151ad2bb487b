// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package destination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRecordValues(t *testing.T) {
	t.Parallel()

	insertedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	testCases := map[string]struct {
		record   LoadRecord
		expected []any
	}{
		"record with checksum": {
			record: LoadRecord{
				LoadID:         "1717243200.000000",
				PipelineName:   "pipeline",
				Dataset:        "dataset",
				Table:          "courses",
				RowCount:       2,
				Status:         LoadStatusLoaded,
				SourceChecksum: "0123456789abcdef",
				InsertedAt:     insertedAt,
			},
			expected: []any{"1717243200.000000", "pipeline", "dataset", "courses", int64(2), "loaded", "0123456789abcdef", insertedAt.UTC()},
		},
		"record without checksum stores null": {
			record: LoadRecord{
				LoadID:       "1717243200.000000",
				PipelineName: "pipeline",
				Dataset:      "dataset",
				Table:        "vle",
				Status:       LoadStatusLoaded,
				InsertedAt:   insertedAt,
			},
			expected: []any{"1717243200.000000", "pipeline", "dataset", "vle", int64(0), "loaded", nil, insertedAt.UTC()},
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			values := test.record.Values()
			assert.Equal(t, test.expected, values)
			assert.Len(t, values, len(LoadsTable().Columns))
		})
	}
}

func TestTableColumnNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{
		"load_id",
		"pipeline_name",
		"dataset_name",
		"table_name",
		"row_count",
		"status",
		"source_checksum",
		"inserted_at",
	}, LoadsTable().ColumnNames())
	assert.Empty(t, Table{}.ColumnNames())

	assert.Equal(t, "BigInt", DataTypeBigInt.String())
	assert.Equal(t, "DataType(42)", DataType(42).String())
}
