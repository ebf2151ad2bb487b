// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package fake

import (
	"context"
	"sync"
	"testing"

	"github.com/mia-platform/oulad-loader/internal/destination"
)

var (
	_ destination.Destination         = &FakeDestination{}
	_ destination.ClosableDestination = &FakeDestination{}
)

// FakeDestination records every call it receives. Errors can be injected per method.
// Tables keeps the schema of every loaded table, keyed by dataset and table name, evolved
// the same way the real destinations do.
type FakeDestination struct {
	tb   testing.TB
	lock sync.Mutex

	Calls       []string
	Initialized []string
	Jobs        []*destination.Job
	Loads       []*destination.LoadRecord
	Tables      map[string]destination.Table
	Closed      bool

	InitializeErr   error
	LoadErr         error
	CompleteLoadErr error
}

func NewFakeDestination(tb testing.TB) *FakeDestination {
	tb.Helper()
	return &FakeDestination{
		tb:     tb,
		Tables: make(map[string]destination.Table),
	}
}

func (f *FakeDestination) Name() string {
	return "fake"
}

func (f *FakeDestination) Location() string {
	return "memory://fake"
}

func (f *FakeDestination) Initialize(_ context.Context, dataset string) error {
	f.tb.Helper()
	f.lock.Lock()
	defer f.lock.Unlock()

	f.Calls = append(f.Calls, "initialize:"+dataset)
	if f.InitializeErr != nil {
		return f.InitializeErr
	}

	f.Initialized = append(f.Initialized, dataset)
	return nil
}

func (f *FakeDestination) Load(_ context.Context, job *destination.Job) error {
	f.tb.Helper()
	f.lock.Lock()
	defer f.lock.Unlock()

	f.Calls = append(f.Calls, "load:"+job.Table.Name)
	if f.LoadErr != nil {
		return f.LoadErr
	}

	key := job.Dataset + "." + job.Table.Name
	current := f.Tables[key]
	update, err := destination.PlanSchemaUpdate(job, current.ColumnTypes())
	if err != nil {
		return err
	}

	f.Tables[key] = applyUpdate(current, update)
	f.Jobs = append(f.Jobs, update.Job)
	return nil
}

func applyUpdate(table destination.Table, update *destination.SchemaUpdate) destination.Table {
	widened := destination.Table{Columns: update.Widened}.ColumnTypes()
	columns := make([]destination.Column, 0, len(table.Columns)+len(update.Added))
	for _, column := range table.Columns {
		if dataType, ok := widened[column.Name]; ok {
			column.Type = dataType
		}
		columns = append(columns, column)
	}

	return destination.Table{
		Name:    update.Job.Table.Name,
		Columns: append(columns, update.Added...),
	}
}

func (f *FakeDestination) CompleteLoad(_ context.Context, load *destination.LoadRecord) error {
	f.tb.Helper()
	f.lock.Lock()
	defer f.lock.Unlock()

	f.Calls = append(f.Calls, "complete:"+load.Table)
	if f.CompleteLoadErr != nil {
		return f.CompleteLoadErr
	}

	f.Loads = append(f.Loads, load)
	return nil
}

func (f *FakeDestination) Close(_ context.Context) error {
	f.tb.Helper()
	f.lock.Lock()
	defer f.lock.Unlock()

	f.Calls = append(f.Calls, "close")
	f.Closed = true
	return nil
}
