// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

//go:build integration

package clickhouse

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mia-platform/oulad-loader/internal/config"
	"github.com/mia-platform/oulad-loader/internal/destination"
	"github.com/mia-platform/oulad-loader/internal/source"
)

const clickhouseImage = "clickhouse/clickhouse-server:24.8-alpine"

func startClickHouse(t *testing.T) *clickhouseDestination {
	t.Helper()

	ctx := t.Context()
	ctr, err := testcontainers.Run(ctx,
		clickhouseImage,
		testcontainers.WithExposedPorts("8123/tcp"),
		testcontainers.WithEnv(map[string]string{
			"CLICKHOUSE_USER":     "loader",
			"CLICKHOUSE_PASSWORD": "secret",
			"CLICKHOUSE_DB":       "oulad",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/ping").
				WithPort("8123/tcp").
				WithStartupTimeout(60*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := ctr.MappedPort(ctx, "8123/tcp")
	require.NoError(t, err)
	port, err := strconv.Atoi(mappedPort.Port())
	require.NoError(t, err)

	dest := &clickhouseDestination{
		Host:      host,
		HTTPPort:  port,
		Username:  "loader",
		Password:  "secret",
		Database:  "oulad",
		BatchSize: 1,
		Separator: "___",
	}
	client, err := openConn(dest.address(), dest.Username, dest.Password, nil)
	require.NoError(t, err)
	dest.conn = client
	t.Cleanup(func() { _ = dest.Close(t.Context()) })

	return dest
}

func queryValue[T any](t *testing.T, dest *clickhouseDestination, query string) T {
	t.Helper()

	var value T
	client, ok := dest.conn.(*driverConn)
	require.True(t, ok)
	require.NoError(t, client.conn.QueryRow(t.Context(), query).Scan(&value))
	return value
}

func TestLoadIntoClickHouse(t *testing.T) {
	dest := startClickHouse(t)
	ctx := t.Context()

	table := destination.Table{
		Name: "courses",
		Columns: []destination.Column{
			{Name: "code_module", Type: destination.DataTypeText, Nullable: true},
			{Name: "module_presentation_length", Type: destination.DataTypeBigInt, Nullable: true},
			{Name: "_load_id", Type: destination.DataTypeText},
		},
	}
	job := &destination.Job{
		LoadID:           "1.1",
		Dataset:          "oulad_test1",
		Table:            table,
		WriteDisposition: config.WriteDispositionAppend,
		Rows: []source.Record{
			{"code_module": "AAA", "module_presentation_length": int64(268), "_load_id": "1.1"},
			{"code_module": "BBB", "module_presentation_length": nil, "_load_id": "1.1"},
		},
	}

	require.NoError(t, dest.Initialize(ctx, "oulad_test1"))
	require.NoError(t, dest.Initialize(ctx, "oulad_test1"))
	require.NoError(t, dest.Load(ctx, job))
	require.NoError(t, dest.Load(ctx, job))
	require.NoError(t, dest.CompleteLoad(ctx, &destination.LoadRecord{
		LoadID:         "1.1",
		PipelineName:   "test_g1_oulad_pipeline",
		Dataset:        "oulad_test1",
		Table:          "courses",
		RowCount:       2,
		Status:         destination.LoadStatusLoaded,
		SourceChecksum: "0123456789abcdef",
		InsertedAt:     time.Now(),
	}))

	assert.Equal(t, uint64(4), queryValue[uint64](t, dest, "SELECT count() FROM oulad.oulad_test1___courses"))
	assert.Equal(t, uint64(2), queryValue[uint64](t, dest, "SELECT countIf(module_presentation_length IS NULL) FROM oulad.oulad_test1___courses"))

	job.WriteDisposition = config.WriteDispositionReplace
	require.NoError(t, dest.Load(ctx, job))
	assert.Equal(t, uint64(2), queryValue[uint64](t, dest, "SELECT count() FROM oulad.oulad_test1___courses"))

	assert.Equal(t, destination.LoadStatusLoaded, queryValue[string](t, dest, "SELECT status FROM oulad.oulad_test1____loads WHERE table_name = 'courses'"))

	widened := *job
	widened.WriteDisposition = config.WriteDispositionAppend
	widened.Table.Columns = []destination.Column{
		{Name: "code_module", Type: destination.DataTypeText, Nullable: true},
		{Name: "module_presentation_length", Type: destination.DataTypeDouble, Nullable: true},
		{Name: "_load_id", Type: destination.DataTypeText},
	}
	widened.Rows = []source.Record{
		{"code_module": nil, "module_presentation_length": 268.5, "_load_id": "1.2"},
	}
	require.NoError(t, dest.Load(ctx, &widened))

	assert.Equal(t, "Nullable(Float64)", queryValue[string](t, dest,
		"SELECT type FROM system.columns WHERE database = 'oulad' AND table = 'oulad_test1___courses' AND name = 'module_presentation_length'"))
	assert.Equal(t, uint64(1), queryValue[uint64](t, dest, "SELECT countIf(code_module IS NULL) FROM oulad.oulad_test1___courses"))
}
