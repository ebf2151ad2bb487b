// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"strconv"
	"strings"

	"github.com/mia-platform/oulad-loader/internal/source"
)

const utf8BOM = "\ufeff"

var (
	// ErrEmptyFile reports a file without even a header row.
	ErrEmptyFile = errors.New("no columns to parse from file")
	// ErrTooManyFields reports a row with more fields than the header declares.
	ErrTooManyFields = errors.New("too many fields")
)

// missingValues holds the cell contents read as an empty value.
var missingValues = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// ParseError reports a malformed CSV file.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	prefix := "parsing"
	if e.File != "" {
		prefix += " " + e.File
	}

	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", prefix, e.Line, e.Err)
	}

	return fmt.Sprintf("%s: %s", prefix, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Table is the in-memory representation of a CSV file. Rows hold already coerced values
// and are aligned with Columns.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Records returns a sequence producing one record per row, in file order.
func (t *Table) Records() iter.Seq[source.Record] {
	return func(yield func(source.Record) bool) {
		for _, row := range t.Rows {
			record := make(source.Record, len(t.Columns))
			for idx, column := range t.Columns {
				record[column] = row[idx]
			}

			if !yield(record) {
				return
			}
		}
	}
}

// ReadTable parses the CSV content of r. The first row is the header; the type of every
// column is chosen looking at all its cells, so a column mixing numbers and text keeps
// every value as a string. Quotes inside unquoted fields are kept as they are.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Err: ErrEmptyFile}
		}
		return nil, wrapReaderError(err)
	}

	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	columns := uniqueColumns(header)
	kinds := make([]cellKind, len(columns))

	rawRows := make([][]string, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapReaderError(err)
		}

		if len(row) > len(columns) {
			line, _ := reader.FieldPos(0)
			return nil, &ParseError{
				Line: line,
				Err:  fmt.Errorf("%w: expected %d, saw %d", ErrTooManyFields, len(columns), len(row)),
			}
		}

		for idx, cell := range row {
			kinds[idx] = kinds[idx].merge(kindOf(cell))
		}
		rawRows = append(rawRows, row)
	}

	rows := make([][]any, 0, len(rawRows))
	for _, raw := range rawRows {
		row := make([]any, len(columns))
		for idx, cell := range raw {
			row[idx] = kinds[idx].convert(cell)
		}
		rows = append(rows, row)
	}

	return &Table{
		Columns: columns,
		Rows:    rows,
	}, nil
}

// uniqueColumns renames repeated header names appending a numeric suffix: a, a.1, a.2.
func uniqueColumns(header []string) []string {
	columns := make([]string, len(header))
	used := make(map[string]struct{}, len(header))
	counts := make(map[string]int, len(header))
	for idx, name := range header {
		candidate := name
		for {
			if _, taken := used[candidate]; !taken {
				break
			}
			counts[name]++
			candidate = name + "." + strconv.Itoa(counts[name])
		}

		used[candidate] = struct{}{}
		columns[idx] = candidate
	}

	return columns
}

type cellKind int

const (
	kindEmpty cellKind = iota
	kindInteger
	kindFloat
	kindBool
	kindString
)

func kindOf(cell string) cellKind {
	if _, missing := missingValues[cell]; missing {
		return kindEmpty
	}

	trimmed := strings.TrimSpace(cell)
	if _, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return kindInteger
	}
	if isFloat(trimmed) {
		return kindFloat
	}
	if _, ok := parseBool(trimmed); ok {
		return kindBool
	}

	return kindString
}

// merge returns the kind able to represent both k and other.
func (k cellKind) merge(other cellKind) cellKind {
	switch {
	case k == other:
		return k
	case k == kindEmpty:
		return other
	case other == kindEmpty:
		return k
	case k == kindInteger && other == kindFloat, k == kindFloat && other == kindInteger:
		return kindFloat
	default:
		return kindString
	}
}

func (k cellKind) convert(cell string) any {
	if _, missing := missingValues[cell]; missing {
		return nil
	}

	trimmed := strings.TrimSpace(cell)
	switch k {
	case kindInteger:
		value, _ := strconv.ParseInt(trimmed, 10, 64)
		return value
	case kindFloat:
		value, _ := strconv.ParseFloat(trimmed, 64)
		return value
	case kindBool:
		value, _ := parseBool(trimmed)
		return value
	default:
		return cell
	}
}

// wrapReaderError converts the errors returned by the csv reader to a ParseError.
func wrapReaderError(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}

	return err
}

func isFloat(cell string) bool {
	// only finite, plain decimal numbers: no hexadecimal mantissas, underscores or infinities
	if strings.ContainsAny(cell, "xX_pP") {
		return false
	}

	value, err := strconv.ParseFloat(cell, 64)
	return err == nil && !math.IsInf(value, 0) && !math.IsNaN(value)
}

func parseBool(cell string) (bool, bool) {
	switch cell {
	case "true", "True", "TRUE":
		return true, true
	case "false", "False", "FALSE":
		return false, true
	default:
		return false, false
	}
}
