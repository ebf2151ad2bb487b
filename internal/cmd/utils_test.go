// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mia-platform/oulad-loader/internal/destination"
	fakedestination "github.com/mia-platform/oulad-loader/internal/destination/fake"
)

// ouladFiles holds a small valid content for every OULAD file.
var ouladFiles = map[string]string{
	"studentInfo.csv": "code_module,code_presentation,id_student,gender,region,highest_education,imd_band,age_band,num_of_prev_attempts,studied_credits,disability,final_result\n" +
		"AAA,2013J,11391,M,East Anglian Region,HE Qualification,90-100%,55<=,0,240,N,Pass\n",
	"studentAssessment.csv": "id_assessment,id_student,date_submitted,is_banked,score\n" +
		"1752,11391,18,0,78\n1752,28400,22,0,70\n",
	"courses.csv": "code_module,code_presentation,module_presentation_length\n" +
		"AAA,2013J,268\nAAA,2014J,269\n",
	"vle.csv": "id_site,code_module,code_presentation,activity_type,week_from,week_to\n" +
		"546943,AAA,2013J,resource,,\n",
	"studentRegistration.csv": "code_module,code_presentation,id_student,date_registration,date_unregistration\n" +
		"AAA,2013J,11391,-159,\n",
	"assessments.csv": "code_module,code_presentation,id_assessment,assessment_type,date,weight\n" +
		"AAA,2013J,1752,TMA,19,10.0\n",
}

// setupTestFileStructure creates a test file structure under the given baseDir.
func setupTestFileStructure(tb testing.TB, baseDir string) {
	tb.Helper()

	if err := os.MkdirAll(filepath.Join(baseDir, "valid", "subdir"), os.ModePerm); err != nil {
		require.NoError(tb, err)
	}

	if err := os.Symlink(filepath.Join(baseDir, "valid", "subdir"), filepath.Join(baseDir, "valid", "link")); err != nil {
		require.NoError(tb, err)
	}

	if err := os.WriteFile(filepath.Join(baseDir, "valid", "invalid.yaml"), []byte("\tinvalid yaml file"), os.ModePerm); err != nil {
		require.NoError(tb, err)
	}

	if err := os.WriteFile(filepath.Join(baseDir, "valid", "subdir", "file.txt"), []byte("txt file"), os.ModePerm); err != nil {
		require.NoError(tb, err)
	}

	if err := os.Symlink(filepath.Join(baseDir, "valid", "invalid.yaml"), filepath.Join(baseDir, "symlink.file")); err != nil {
		require.NoError(tb, err)
	}

	if err := os.Mkdir(filepath.Join(baseDir, "secret"), os.ModePerm); err != nil {
		require.NoError(tb, err)
	}
	if err := os.Chmod(filepath.Join(baseDir, "secret"), 0o0000); err != nil {
		require.NoError(tb, err)
	}
}

// setupDataDir writes the OULAD files in a new temporary directory, skipping the given ones.
func setupDataDir(tb testing.TB, skip ...string) string {
	tb.Helper()

	dir := tb.TempDir()
	for name, content := range ouladFiles {
		if slices.Contains(skip, name) {
			continue
		}
		require.NoError(tb, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	return dir
}

// return a destination getter always returning dest for testing purposes.
func testDestinationGetter(dest destination.Destination) func(context.Context, string, io.Writer) (destination.Destination, error) {
	return func(context.Context, string, io.Writer) (destination.Destination, error) {
		return dest, nil
	}
}

// loadedTables returns the table names of the load calls received by dest, in order.
func loadedTables(dest *fakedestination.FakeDestination) []string {
	tables := make([]string, 0)
	for _, job := range dest.Jobs {
		tables = append(tables, job.Table.Name)
	}
	return tables
}
