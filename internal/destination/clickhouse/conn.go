// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package clickhouse

import (
	"context"
	"crypto/tls"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/mia-platform/oulad-loader/internal/info"
)

const columnsQuery = "SELECT name, type FROM system.columns WHERE database = ? AND table = ? ORDER BY position"

// conn is the subset of the ClickHouse client used by the destination.
type conn interface {
	exec(ctx context.Context, statement string) error
	columnTypes(ctx context.Context, database, table string) (map[string]string, error)
	insert(ctx context.Context, query string, rows [][]any) error
	close() error
}

// driverConn implements conn with clickhouse-go speaking the HTTP protocol.
type driverConn struct {
	conn driver.Conn
}

func openConn(address, username, password string, tlsConfig *tls.Config) (*driverConn, error) {
	options := &ch.Options{
		Protocol: ch.HTTP,
		Addr:     []string{address},
		Auth: ch.Auth{
			Username: username,
			Password: password,
		},
		TLS:         tlsConfig,
		DialTimeout: 30 * time.Second,
		ReadTimeout: 5 * time.Minute,
		ClientInfo: ch.ClientInfo{
			Products: []struct {
				Name    string
				Version string
			}{
				{Name: info.AppName, Version: info.Version},
			},
		},
	}

	client, err := ch.Open(options)
	if err != nil {
		return nil, err
	}

	return &driverConn{conn: client}, nil
}

func (c *driverConn) exec(ctx context.Context, statement string) error {
	return c.conn.Exec(ctx, statement)
}

func (c *driverConn) columnTypes(ctx context.Context, database, table string) (map[string]string, error) {
	rows, err := c.conn.Query(ctx, columnsQuery, database, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]string)
	for rows.Next() {
		var name, typeName string
		if err := rows.Scan(&name, &typeName); err != nil {
			return nil, err
		}
		columns[name] = typeName
	}

	return columns, rows.Err()
}

func (c *driverConn) insert(ctx context.Context, query string, rows [][]any) error {
	batch, err := c.conn.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			_ = batch.Abort()
			return err
		}
	}

	return batch.Send()
}

func (c *driverConn) close() error {
	return c.conn.Close()
}
