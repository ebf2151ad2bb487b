// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mia-platform/oulad-loader/internal/destination/clickhouse"
	"github.com/mia-platform/oulad-loader/internal/source/csvfile"
)

const (
	dataDirFlagName  = "data-dir"
	dataDirFlagUsage = "Directory containing the OULAD CSV files"

	datasetsPathFlagName  = "datasets-file"
	datasetsPathFlagShort = "f"
	datasetsPathFlagUsage = "Path to a file or directory containing custom dataset definitions. Can be specified multiple times."

	destinationFlagName  = "destination"
	destinationFlagUsage = "Destination where the datasets are loaded (possible values: %s)"
	defaultDestination   = clickhouse.Name

	pipelineNameFlagName  = "pipeline-name"
	pipelineNameFlagUsage = "Name of the pipeline recorded with every load"
	defaultPipelineName   = "test_g1_oulad_pipeline"

	datasetNameFlagName  = "dataset-name"
	datasetNameFlagUsage = "Name of the dataset the tables are loaded into"
	defaultDatasetName   = "oulad_test1"

	devModeFlagName  = "dev-mode"
	devModeFlagUsage = "If set, every run loads into a new dataset suffixed with the current time"
	defaultDevMode   = false

	envFileFlagName  = "env-file"
	envFileFlagUsage = "Path to an env file loaded before reading the destination credentials, ignored if missing"
	defaultEnvFile   = ".env"
)

// flags collects the CLI options of the load command.
type flags struct {
	dataDir      string
	datasetPaths []string
	destination  string
	pipelineName string
	datasetName  string
	devMode      bool
	envFile      string
}

// addFlags registers the CLI flags on cmd.
func (f *flags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dataDir, dataDirFlagName, csvfile.DefaultDataDir, dataDirFlagUsage)
	cmd.Flags().StringArrayVarP(
		&f.datasetPaths,
		datasetsPathFlagName,
		datasetsPathFlagShort,
		nil,
		datasetsPathFlagUsage)

	allDestinations := slices.Sorted(maps.Keys(availableDestinations))
	cmd.Flags().StringVar(&f.destination, destinationFlagName, defaultDestination, fmt.Sprintf(destinationFlagUsage, strings.Join(allDestinations, ", ")))
	cmd.Flags().StringVar(&f.pipelineName, pipelineNameFlagName, defaultPipelineName, pipelineNameFlagUsage)
	cmd.Flags().StringVar(&f.datasetName, datasetNameFlagName, defaultDatasetName, datasetNameFlagUsage)
	cmd.Flags().BoolVar(&f.devMode, devModeFlagName, defaultDevMode, devModeFlagUsage)
	cmd.Flags().StringVar(&f.envFile, envFileFlagName, defaultEnvFile, envFileFlagUsage)

	_ = cmd.RegisterFlagCompletionFunc(destinationFlagName, validArgsFunc(availableDestinations))
}

// toOptions builds an options instance from the parsed flags.
func (f *flags) toOptions() (*options, error) {
	if err := loadEnvFile(f.envFile); err != nil {
		return nil, err
	}

	datasets, err := loadDatasets(f.datasetPaths)
	if err != nil {
		return nil, err
	}

	return &options{
		dataDir:           f.dataDir,
		datasets:          datasets,
		destinationName:   strings.ToLower(f.destination),
		pipelineName:      f.pipelineName,
		datasetName:       f.datasetName,
		devMode:           f.devMode,
		destinationGetter: destinationFromName,
		resourcesGetter:   csvfile.NewResources,
	}, nil
}

// loadEnvFile loads path into the process environment without overriding variables that
// are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("env file %q: %w", path, err)
	}

	return nil
}
