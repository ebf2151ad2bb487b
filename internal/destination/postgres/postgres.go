// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mia-platform/oulad-loader/internal/config"
	"github.com/mia-platform/oulad-loader/internal/destination"
	"github.com/mia-platform/oulad-loader/internal/logger"
)

const (
	// Name is the identifier of the PostgreSQL destination.
	Name = "postgres"

	loggerName = "oulad-loader:postgres"
)

var (
	_ destination.Destination         = &postgresDestination{}
	_ destination.ClosableDestination = &postgresDestination{}
)

// Error wraps every failure returned by the PostgreSQL destination.
type Error struct {
	err error
}

func (e *Error) Error() string {
	return "postgres: " + e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

// postgresDestination implements destination.Destination on a PostgreSQL database: every
// dataset is a schema and rows are written with the COPY protocol.
type postgresDestination struct {
	Credentials string `env:"DESTINATION__POSTGRES__CREDENTIALS,required"`

	pool *pgxpool.Pool
}

// NewDestination returns a new destination.Destination backed by a connection pool to
// the database named by the DESTINATION__POSTGRES__CREDENTIALS connection string.
func NewDestination(ctx context.Context) (destination.Destination, error) {
	dest := new(postgresDestination)
	if err := env.Parse(dest); err != nil {
		return nil, handleError(err)
	}

	return newDestinationFromConnString(ctx, dest.Credentials)
}

func newDestinationFromConnString(ctx context.Context, connString string) (*postgresDestination, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, handleError(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, handleError(fmt.Errorf("unable to connect to database: %w", err))
	}

	return &postgresDestination{
		Credentials: connString,
		pool:        pool,
	}, nil
}

func (d *postgresDestination) Name() string {
	return Name
}

// Location implements destination.Destination.
func (d *postgresDestination) Location() string {
	connConfig := d.pool.Config().ConnConfig
	return fmt.Sprintf("%s://%s:***@%s:%d/%s", Name, connConfig.User, connConfig.Host, connConfig.Port, connConfig.Database)
}

// Initialize implements destination.Destination.
func (d *postgresDestination) Initialize(ctx context.Context, dataset string) error {
	log := logger.FromContext(ctx).WithName(loggerName)
	log.Debug("initializing dataset", "schema", dataset)

	loads := destination.LoadsTable()
	for _, statement := range []string{
		createSchemaStatement(dataset),
		createTableStatement(dataset, loads),
	} {
		if _, err := d.pool.Exec(ctx, statement); err != nil {
			return handleError(err)
		}
	}

	return nil
}

// Load implements destination.Destination. All the statements of a job run inside a single
// transaction, so a failing job leaves its table untouched.
func (d *postgresDestination) Load(ctx context.Context, job *destination.Job) error {
	log := logger.FromContext(ctx).WithName(loggerName).With("table", job.Table.Name)

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return handleError(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, createTableStatement(job.Dataset, job.Table)); err != nil {
		return handleError(err)
	}

	existing, err := existingColumns(ctx, tx, job.Dataset, job.Table.Name)
	if err != nil {
		return handleError(err)
	}

	update, err := destination.PlanSchemaUpdate(job, existing)
	if err != nil {
		return handleError(err)
	}
	job = update.Job

	statements := make([]string, 0, 3)
	if len(update.Added) > 0 {
		log.Debug("adding columns", "columns", destination.Table{Columns: update.Added}.ColumnNames())
		statements = append(statements, addColumnsStatement(job.Dataset, job.Table.Name, update.Added))
	}
	if len(update.Widened) > 0 {
		log.Debug("widening columns", "columns", destination.Table{Columns: update.Widened}.ColumnNames())
		statements = append(statements, widenColumnsStatement(job.Dataset, job.Table.Name, update.Widened))
	}
	if job.WriteDisposition == config.WriteDispositionReplace {
		log.Debug("truncating table before load")
		statements = append(statements, truncateTableStatement(job.Dataset, job.Table.Name))
	}

	for _, statement := range statements {
		if _, err := tx.Exec(ctx, statement); err != nil {
			return handleError(err)
		}
	}

	columns := job.Table.ColumnNames()
	copied, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{job.Dataset, job.Table.Name},
		columns,
		pgx.CopyFromSlice(len(job.Rows), func(i int) ([]any, error) {
			values := make([]any, 0, len(columns))
			for _, column := range columns {
				values = append(values, job.Rows[i][column])
			}
			return values, nil
		}),
	)
	if err != nil {
		return handleError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return handleError(err)
	}

	log.Debug("rows written", "rows", copied)
	return nil
}

// existingColumns returns the types of the columns of table as stored in the catalog.
func existingColumns(ctx context.Context, tx pgx.Tx, schema, table string) (map[string]destination.DataType, error) {
	rows, err := tx.Query(ctx, columnsQuery, schema, table)
	if err != nil {
		return nil, err
	}

	columns := make(map[string]destination.DataType)
	var name, typeName string
	_, err = pgx.ForEachRow(rows, []any{&name, &typeName}, func() error {
		dataType, ok := parseColumnType(typeName)
		if !ok {
			return fmt.Errorf("%w: column %q of table %q has unsupported type %s", destination.ErrIncompatibleColumn, name, table, typeName)
		}
		columns[name] = dataType
		return nil
	})
	if err != nil {
		return nil, err
	}

	return columns, nil
}

// CompleteLoad implements destination.Destination.
func (d *postgresDestination) CompleteLoad(ctx context.Context, load *destination.LoadRecord) error {
	loads := destination.LoadsTable()
	if _, err := d.pool.Exec(ctx, insertStatement(load.Dataset, loads), load.Values()...); err != nil {
		return handleError(err)
	}

	return nil
}

// Close implements destination.ClosableDestination.
func (d *postgresDestination) Close(_ context.Context) error {
	d.pool.Close()
	return nil
}

func handleError(err error) error {
	var parseErr env.AggregateError
	if errors.As(err, &parseErr) {
		err = parseErr.Errors[0]
	}

	return &Error{
		err: err,
	}
}
