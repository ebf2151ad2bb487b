// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package clickhouse

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mia-platform/oulad-loader/internal/config"
	"github.com/mia-platform/oulad-loader/internal/destination"
	"github.com/mia-platform/oulad-loader/internal/logger"
	"github.com/mia-platform/oulad-loader/internal/source"
)

const (
	// Name is the identifier of the ClickHouse destination.
	Name = "clickhouse"

	loggerName = "oulad-loader:clickhouse"
)

var (
	_ destination.Destination         = &clickhouseDestination{}
	_ destination.ClosableDestination = &clickhouseDestination{}

	errInvalidBatchSize = errors.New("batch size must be greater than zero")
)

// Error wraps every failure returned by the ClickHouse destination.
type Error struct {
	err error
}

func (e *Error) Error() string {
	return "clickhouse: " + e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Is(target error) bool {
	che, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.err.Error() == che.err.Error()
}

// clickhouseDestination implements destination.Destination on a ClickHouse server reached
// through its HTTP interface. Datasets are emulated prefixing the table names with the
// dataset name.
type clickhouseDestination struct {
	Host      string `env:"DESTINATION__CLICKHOUSE__CREDENTIALS__HOST,required"`
	HTTPPort  int    `env:"DESTINATION__CLICKHOUSE__CREDENTIALS__HTTP_PORT" envDefault:"8123"`
	Username  string `env:"DESTINATION__CLICKHOUSE__CREDENTIALS__USERNAME" envDefault:"default"`
	Password  string `env:"DESTINATION__CLICKHOUSE__CREDENTIALS__PASSWORD"`
	Database  string `env:"DESTINATION__CLICKHOUSE__CREDENTIALS__DATABASE" envDefault:"default"`
	Secure    bool   `env:"DESTINATION__CLICKHOUSE__CREDENTIALS__SECURE" envDefault:"false"`
	BatchSize int    `env:"DESTINATION__CLICKHOUSE__BATCH_SIZE" envDefault:"10000"`
	Separator string `env:"DESTINATION__CLICKHOUSE__DATASET_TABLE_SEPARATOR" envDefault:"___"`

	conn conn
}

// NewDestination returns a new destination.Destination configured to connect to a
// ClickHouse server. Its configuration is read from environment variables; the connection
// is opened lazily by the first statement.
func NewDestination() (destination.Destination, error) {
	dest := new(clickhouseDestination)
	if err := env.Parse(dest); err != nil {
		return nil, handleError(err)
	}

	if dest.BatchSize <= 0 {
		return nil, handleError(errInvalidBatchSize)
	}

	var tlsConfig *tls.Config
	if dest.Secure {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client, err := openConn(dest.address(), dest.Username, dest.Password, tlsConfig)
	if err != nil {
		return nil, handleError(err)
	}

	dest.conn = client
	return dest, nil
}

func (d *clickhouseDestination) Name() string {
	return Name
}

// Location implements destination.Destination.
func (d *clickhouseDestination) Location() string {
	return fmt.Sprintf("%s://%s:***@%s/%s", Name, d.Username, d.address(), d.Database)
}

// Initialize implements destination.Destination.
func (d *clickhouseDestination) Initialize(ctx context.Context, dataset string) error {
	log := logger.FromContext(ctx).WithName(loggerName)
	log.Debug("initializing dataset", "database", d.Database, "dataset", dataset)

	if err := d.conn.exec(ctx, createDatabaseStatement(d.Database)); err != nil {
		return handleError(err)
	}

	loads := destination.LoadsTable()
	if err := d.conn.exec(ctx, createTableStatement(d.Database, d.tableName(dataset, loads.Name), loads)); err != nil {
		return handleError(err)
	}

	return nil
}

// Load implements destination.Destination.
func (d *clickhouseDestination) Load(ctx context.Context, job *destination.Job) error {
	log := logger.FromContext(ctx).WithName(loggerName).With("table", job.Table.Name)
	tableName := d.tableName(job.Dataset, job.Table.Name)

	if err := d.conn.exec(ctx, createTableStatement(d.Database, tableName, job.Table)); err != nil {
		return handleError(err)
	}

	typeNames, err := d.conn.columnTypes(ctx, d.Database, tableName)
	if err != nil {
		return handleError(err)
	}

	existing := make(map[string]destination.DataType, len(typeNames))
	for name, typeName := range typeNames {
		dataType, ok := parseColumnType(typeName)
		if !ok {
			return handleError(fmt.Errorf("%w: column %q of table %q has unsupported type %s", destination.ErrIncompatibleColumn, name, tableName, typeName))
		}
		existing[name] = dataType
	}

	update, err := destination.PlanSchemaUpdate(job, existing)
	if err != nil {
		return handleError(err)
	}
	job = update.Job

	statements := make([]string, 0, 3)
	if len(update.Added) > 0 {
		log.Debug("adding columns", "columns", destination.Table{Columns: update.Added}.ColumnNames())
		statements = append(statements, addColumnsStatement(d.Database, tableName, update.Added))
	}
	if len(update.Widened) > 0 {
		log.Debug("widening columns", "columns", destination.Table{Columns: update.Widened}.ColumnNames())
		statements = append(statements, modifyColumnsStatement(d.Database, tableName, update.Widened))
	}
	if job.WriteDisposition == config.WriteDispositionReplace {
		log.Debug("truncating table before load")
		statements = append(statements, truncateTableStatement(d.Database, tableName))
	}

	for _, statement := range statements {
		if err := d.conn.exec(ctx, statement); err != nil {
			return handleError(err)
		}
	}

	columns := job.Table.ColumnNames()
	query := insertStatement(d.Database, tableName, columns)
	for start := 0; start < len(job.Rows); start += d.BatchSize {
		end := min(start+d.BatchSize, len(job.Rows))

		log.Trace("sending batch", "from", start, "to", end)
		if err := d.conn.insert(ctx, query, rowValues(columns, job.Rows[start:end])); err != nil {
			return handleError(err)
		}
	}

	log.Debug("rows written", "rows", len(job.Rows))
	return nil
}

// CompleteLoad implements destination.Destination.
func (d *clickhouseDestination) CompleteLoad(ctx context.Context, load *destination.LoadRecord) error {
	loads := destination.LoadsTable()
	query := insertStatement(d.Database, d.tableName(load.Dataset, loads.Name), loads.ColumnNames())
	if err := d.conn.insert(ctx, query, [][]any{load.Values()}); err != nil {
		return handleError(err)
	}

	return nil
}

// Close implements destination.ClosableDestination.
func (d *clickhouseDestination) Close(_ context.Context) error {
	if err := d.conn.close(); err != nil {
		return handleError(err)
	}

	return nil
}

func (d *clickhouseDestination) address() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.HTTPPort))
}

func (d *clickhouseDestination) tableName(dataset, table string) string {
	return dataset + d.Separator + table
}

// rowValues returns the values of rows ordered as columns.
func rowValues(columns []string, rows []source.Record) [][]any {
	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		line := make([]any, 0, len(columns))
		for _, column := range columns {
			value := row[column]
			if timestamp, ok := value.(time.Time); ok {
				value = timestamp.UTC()
			}
			line = append(line, value)
		}
		values = append(values, line)
	}

	return values
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
