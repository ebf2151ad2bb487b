// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package fake

import (
	"context"
	"testing"

	"github.com/mia-platform/oulad-loader/internal/config"
	"github.com/mia-platform/oulad-loader/internal/source"
)

var _ source.Resource = &FakeResource{}

// FakeResource emits a fixed list of records, or fails with a fixed error.
type FakeResource struct {
	tb          testing.TB
	name        string
	disposition config.WriteDisposition
	records     []source.Record
	err         error

	// Calls counts how many times Extract has been invoked.
	Calls int
}

// NewFakeResource returns a FakeResource named name producing records.
func NewFakeResource(tb testing.TB, name string, records []source.Record) *FakeResource {
	tb.Helper()

	return &FakeResource{
		tb:          tb,
		name:        name,
		disposition: config.WriteDispositionAppend,
		records:     records,
	}
}

// NewFakeResourceWithError returns a FakeResource that sends records and then fails with err.
func NewFakeResourceWithError(tb testing.TB, name string, records []source.Record, err error) *FakeResource {
	tb.Helper()

	resource := NewFakeResource(tb, name, records)
	resource.err = err
	return resource
}

// WithWriteDisposition overrides the default append disposition.
func (f *FakeResource) WithWriteDisposition(disposition config.WriteDisposition) *FakeResource {
	f.disposition = disposition
	return f
}

func (f *FakeResource) Name() string {
	return f.name
}

func (f *FakeResource) WriteDisposition() config.WriteDisposition {
	return f.disposition
}

// Extract sends the configured records until completion or cancellation.
func (f *FakeResource) Extract(ctx context.Context, results chan<- source.Record) error {
	f.tb.Helper()
	f.Calls++

	if ctx.Err() != nil {
		return ctx.Err()
	}

	for _, record := range f.records {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case results <- record:
		}
	}

	return f.err
}
