// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package fake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mia-platform/oulad-loader/internal/config"
	"github.com/mia-platform/oulad-loader/internal/source"
)

func TestFakeResource(t *testing.T) {
	t.Parallel()
	testData := []source.Record{
		{"id": int64(1), "name": "first"},
		{"id": int64(2), "name": "second"},
	}

	ctx, cancel := context.WithTimeout(t.Context(), 1*time.Second)
	defer cancel()

	resource := NewFakeResource(t, "fake", testData)
	assert.Equal(t, "fake", resource.Name())
	assert.Equal(t, config.WriteDispositionAppend, resource.WriteDisposition())

	results := make(chan source.Record)
	go func() {
		err := resource.Extract(ctx, results)
		close(results)
		assert.NoError(t, err)
	}()

	received := make([]source.Record, 0)
	for record := range results {
		received = append(received, record)
	}

	assert.Equal(t, testData, received)
	assert.Equal(t, 1, resource.Calls)
}

func TestFakeResourceWithError(t *testing.T) {
	t.Parallel()

	resource := NewFakeResourceWithError(t, "fake", nil, assert.AnError).
		WithWriteDisposition(config.WriteDispositionReplace)
	assert.Equal(t, config.WriteDispositionReplace, resource.WriteDisposition())

	results := make(chan source.Record)
	defer close(results)
	assert.ErrorIs(t, resource.Extract(t.Context(), results), assert.AnError)
}

func TestFakeResourceCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	results := make(chan source.Record)
	defer close(results)

	resource := NewFakeResource(t, "fake", []source.Record{{"key": "value"}})
	err := resource.Extract(ctx, results)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}
