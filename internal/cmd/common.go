// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mia-platform/oulad-loader/internal/config"
	"github.com/mia-platform/oulad-loader/internal/destination"
	"github.com/mia-platform/oulad-loader/internal/destination/clickhouse"
	"github.com/mia-platform/oulad-loader/internal/destination/postgres"
	"github.com/mia-platform/oulad-loader/internal/destination/writer"
)

var (
	errUnknownDestination = errors.New("unknown destination")

	// availableDestinations holds the supported destinations and their description
	// for flag completion and help messages.
	availableDestinations = map[string]string{
		clickhouse.Name: "ClickHouse server reached through its HTTP interface",
		postgres.Name:   "PostgreSQL database, one schema per dataset",
		writer.Name:     "print the normalized rows on the command output",
	}

	// destinationDisplayNames holds the names printed in the progress line.
	destinationDisplayNames = map[string]string{
		clickhouse.Name: "ClickHouse",
		postgres.Name:   "PostgreSQL",
		writer.Name:     "stdout",
	}
)

// handleError will do custom print error handling based on the type of error received.
// It always returns the original error so that the process exits with a non zero code.
func handleError(cmd *cobra.Command, err error) error {
	switch {
	case errors.Is(err, errUnknownDestination):
		cmd.PrintErrln(err)
		_ = cmd.Usage() // do not check error as we cannot do much about it
		return err
	default:
		cmd.PrintErrln(err)
		return err
	}
}

// unwrappedError returns the unwrapped error if available, otherwise it returns the original error.
func unwrappedError(err error) error {
	if unwrapped := errors.Unwrap(err); unwrapped != nil {
		return unwrapped
	}

	return err
}

func validArgsFunc(values map[string]string) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var comps []string
		for name, description := range values {
			if strings.HasPrefix(name, toComplete) {
				comps = append(comps, cobra.CompletionWithDesc(name, description))
			}
		}

		return comps, cobra.ShellCompDirectiveNoFileComp
	}
}

// collectPaths expands every path to the files it contains. Directories are not walked
// recursively.
func collectPaths(paths []string) ([]string, error) {
	collected := make([]string, 0)
	for _, p := range paths {
		cleanedPath := filepath.Clean(p)
		err := filepath.Walk(cleanedPath, func(walkedPath string, info fs.FileInfo, err error) error {
			if err != nil {
				return fmt.Errorf("datasets file %q: %w", walkedPath, unwrappedError(err))
			}

			switch {
			case !info.IsDir(): // it's a file add to the collection
				collected = append(collected, walkedPath)
			case info.IsDir() && cleanedPath != walkedPath: // skip directories if is not the root path
				return filepath.SkipDir
			}

			return nil
		})

		if err != nil {
			return nil, err
		}
	}

	return collected, nil
}

// loadDatasets returns the datasets declared in the files found in paths, or the
// built-in OULAD datasets when no path is given.
func loadDatasets(paths []string) ([]config.Dataset, error) {
	if len(paths) == 0 {
		return config.DefaultDatasets(), nil
	}

	files, err := collectPaths(paths)
	if err != nil {
		return nil, err
	}

	datasets := make([]config.Dataset, 0)
	seen := make(map[string]string)
	for _, file := range files {
		fileDatasets, err := config.NewDatasetsFromPath(file)
		if err != nil {
			return nil, err
		}

		for _, dataset := range fileDatasets {
			if previous, found := seen[dataset.Name]; found {
				return nil, fmt.Errorf("%w: name %q declared in %q and %q", config.ErrInvalidDataset, dataset.Name, previous, file)
			}
			seen[dataset.Name] = file
			datasets = append(datasets, dataset)
		}
	}

	return datasets, nil
}

// destinationFromName returns the destination registered with name.
func destinationFromName(ctx context.Context, name string, out io.Writer) (destination.Destination, error) {
	switch name {
	case clickhouse.Name:
		return clickhouse.NewDestination()
	case postgres.Name:
		return postgres.NewDestination(ctx)
	case writer.Name:
		return writer.NewDestination(out), nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownDestination, name)
	}
}
