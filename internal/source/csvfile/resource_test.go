// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package csvfile

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/oulad-loader/internal/config"
	"github.com/mia-platform/oulad-loader/internal/source"
)

func collect(ctx context.Context, t *testing.T, resource source.Resource) ([]source.Record, error) {
	t.Helper()

	results := make(chan source.Record)
	errChan := make(chan error, 1)
	go func() {
		errChan <- resource.Extract(ctx, results)
		close(results)
	}()

	records := make([]source.Record, 0)
	for record := range results {
		records = append(records, record)
	}

	return records, <-errChan
}

func TestResourceExtract(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(t.Context(), 1*time.Second)
	defer cancel()

	resource := NewResource("testdata", config.Dataset{
		Name:             "courses",
		FileName:         "courses.csv",
		WriteDisposition: config.WriteDispositionAppend,
	})

	assert.Equal(t, "courses", resource.Name())
	assert.Equal(t, config.WriteDispositionAppend, resource.WriteDisposition())
	assert.Equal(t, filepath.Join("testdata", "courses.csv"), resource.Location())
	assert.Empty(t, resource.Checksum())
	assert.Empty(t, resource.Columns())

	records, err := collect(ctx, t, resource)
	require.NoError(t, err)
	assert.Equal(t, []source.Record{
		{"code_module": "AAA", "code_presentation": "2013J", "module_presentation_length": int64(268)},
		{"code_module": "AAA", "code_presentation": "2014J", "module_presentation_length": int64(269)},
	}, records)

	checksum := resource.Checksum()
	assert.Len(t, checksum, 16)
	assert.Equal(t, []string{"code_module", "code_presentation", "module_presentation_length"}, resource.Columns())

	// the file is read again on every extraction
	records, err = collect(ctx, t, resource)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, checksum, resource.Checksum())
}

func TestResourceExtractErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		resource := NewResource(t.TempDir(), config.Dataset{Name: "vle", FileName: "vle.csv"})
		records, err := collect(t.Context(), t, resource)
		assert.ErrorIs(t, err, fs.ErrNotExist)
		assert.Empty(t, records)
		assert.Empty(t, resource.Checksum())
	})

	t.Run("malformed file", func(t *testing.T) {
		t.Parallel()

		resource := NewResource("testdata", config.Dataset{Name: "broken", FileName: "too-many-fields.csv"})
		records, err := collect(t.Context(), t, resource)
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, filepath.Join("testdata", "too-many-fields.csv"), parseErr.File)
		assert.Empty(t, records)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		resource := NewResource("testdata", config.Dataset{Name: "courses", FileName: "courses.csv"})
		records, err := collect(ctx, t, resource)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, records)
	})
}

func TestNewResources(t *testing.T) {
	t.Parallel()

	resources := NewResources(DefaultDataDir, config.DefaultDatasets())
	require.Len(t, resources, 6)

	expected := map[string]string{
		"student_info":         "studentInfo.csv",
		"student_assessment":   "studentAssessment.csv",
		"courses":              "courses.csv",
		"vle":                  "vle.csv",
		"student_registration": "studentRegistration.csv",
		"assessments":          "assessments.csv",
	}

	names := make([]string, 0, len(resources))
	for _, resource := range resources {
		names = append(names, resource.Name())
		fileResource, ok := resource.(source.FileResource)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(DefaultDataDir, expected[resource.Name()]), fileResource.Location())
	}

	assert.Equal(t, []string{"student_info", "student_assessment", "courses", "vle", "student_registration", "assessments"}, names)
}
