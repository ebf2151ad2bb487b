// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package csvfile

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/mia-platform/oulad-loader/internal/config"
	"github.com/mia-platform/oulad-loader/internal/logger"
	"github.com/mia-platform/oulad-loader/internal/source"
)

const (
	loggerName = "oulad-loader:csv"

	// DefaultDataDir is where the OULAD files are mounted inside the loader container.
	DefaultDataDir = "/app/data/oulad_test1"
)

var _ source.FileResource = &Resource{}

// Resource reads the records of a dataset from a CSV file inside a base directory.
type Resource struct {
	dir     string
	dataset config.Dataset

	lock     sync.Mutex
	checksum string
	columns  []string
}

// NewResource returns a resource reading dataset.FileName inside dir.
func NewResource(dir string, dataset config.Dataset) *Resource {
	return &Resource{
		dir:     dir,
		dataset: dataset,
	}
}

// NewResources binds every dataset to a resource reading from dir, keeping their order.
func NewResources(dir string, datasets []config.Dataset) []source.Resource {
	resources := make([]source.Resource, 0, len(datasets))
	for _, dataset := range datasets {
		resources = append(resources, NewResource(dir, dataset))
	}

	return resources
}

func (r *Resource) Name() string {
	return r.dataset.Name
}

func (r *Resource) WriteDisposition() config.WriteDisposition {
	return r.dataset.WriteDisposition
}

func (r *Resource) Location() string {
	return filepath.Join(r.dir, r.dataset.FileName)
}

func (r *Resource) Checksum() string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.checksum
}

func (r *Resource) Columns() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return slices.Clone(r.columns)
}

// Extract reads the whole file and sends its rows on results in file order. The file is
// read again on every call.
func (r *Resource) Extract(ctx context.Context, results chan<- source.Record) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	log := logger.FromContext(ctx).WithName(loggerName).With("resource", r.Name())
	log.Debug("reading file", "path", r.Location())

	table, checksum, err := ReadFile(r.Location())
	if err != nil {
		return err
	}

	r.lock.Lock()
	r.checksum = checksum
	r.columns = table.Columns
	r.lock.Unlock()

	log.Debug("file parsed", "columns", len(table.Columns), "rows", table.Len(), "checksum", checksum)
	for record := range table.Records() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case results <- record:
		}
	}

	return nil
}

// ReadFile parses the CSV file at path and returns its table together with the xxhash
// checksum of the bytes read.
func ReadFile(path string) (*Table, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	hasher := xxhash.New()
	table, err := ReadTable(io.TeeReader(file, hasher))
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			parseErr.File = path
			return nil, "", parseErr
		}

		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}

	return table, hex.EncodeToString(hasher.Sum(nil)), nil
}
