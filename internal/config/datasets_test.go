// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDatasets(t *testing.T) {
	t.Parallel()

	datasets := DefaultDatasets()
	require.Len(t, datasets, 6)

	names := make([]string, 0, len(datasets))
	for _, dataset := range datasets {
		names = append(names, dataset.Name)
		assert.Equal(t, WriteDispositionAppend, dataset.WriteDisposition)
		assert.NoError(t, dataset.validate())
	}

	assert.Equal(t, []string{
		"student_info",
		"student_assessment",
		"courses",
		"vle",
		"student_registration",
		"assessments",
	}, names)

	// every call returns a fresh copy
	datasets[0].Name = "changed"
	assert.Equal(t, "student_info", DefaultDatasets()[0].Name)
}

func TestNewDatasetsFromPath(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	testCases := map[string]struct {
		path             string
		expectedDatasets []Dataset
		expectedError    error
		expectedMessage  string
	}{
		"valid file with multiple datasets": {
			path: filepath.Join("testdata", "custom.yaml"),
			expectedDatasets: []Dataset{
				{Name: "courses", FileName: "courses.csv", WriteDisposition: WriteDispositionAppend},
				{Name: "vle", FileName: "vle.csv", WriteDisposition: WriteDispositionReplace},
			},
		},
		"missing file": {
			path:          filepath.Join(tempDir, "missing.yaml"),
			expectedError: syscall.ENOENT,
		},
		"invalid yaml": {
			path:          filepath.Join("testdata", "invalid.yaml"),
			expectedError: ErrParsing,
		},
		"missing required fields": {
			path:            filepath.Join("testdata", "missing-fields.yaml"),
			expectedError:   ErrInvalidDataset,
			expectedMessage: "missing required fields: file",
		},
		"unknown fields are rejected": {
			path:            filepath.Join("testdata", "unknown-field.yaml"),
			expectedError:   ErrParsing,
			expectedMessage: "field primaryKey not found",
		},
		"unknown write disposition": {
			path:            filepath.Join("testdata", "invalid-disposition.yaml"),
			expectedError:   ErrInvalidDataset,
			expectedMessage: `unknown value "merge" for field 'writeDisposition'`,
		},
		"duplicated dataset names": {
			path:            filepath.Join("testdata", "duplicated.yaml"),
			expectedError:   ErrInvalidDataset,
			expectedMessage: `duplicated name "courses"`,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			datasets, err := NewDatasetsFromPath(test.path)
			if test.expectedError != nil {
				assert.Empty(t, datasets)
				assert.ErrorIs(t, err, test.expectedError)
				if test.expectedMessage != "" {
					assert.ErrorContains(t, err, test.expectedMessage)
				}
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, test.expectedDatasets, datasets)
		})
	}
}

func TestWriteDispositionValid(t *testing.T) {
	t.Parallel()

	assert.True(t, WriteDispositionAppend.Valid())
	assert.True(t, WriteDispositionReplace.Valid())
	assert.False(t, WriteDisposition("merge").Valid())
	assert.False(t, WriteDisposition("").Valid())
}
