// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/mia-platform/oulad-loader/internal/config"
	"github.com/mia-platform/oulad-loader/internal/destination"
	"github.com/mia-platform/oulad-loader/internal/logger"
	"github.com/mia-platform/oulad-loader/internal/pipeline"
	"github.com/mia-platform/oulad-loader/internal/source"
)

const loggerName = "oulad-loader:cmd"

// options configures a load run.
type options struct {
	dataDir         string
	datasets        []config.Dataset
	destinationName string
	pipelineName    string
	datasetName     string
	devMode         bool

	destinationGetter func(context.Context, string, io.Writer) (destination.Destination, error)
	resourcesGetter   func(string, []config.Dataset) []source.Resource

	lock sync.Mutex
}

// validate checks the configured values and reports invalid setups.
func (o *options) validate() error {
	if _, ok := availableDestinations[o.destinationName]; !ok {
		return fmt.Errorf("%w: %s", errUnknownDestination, o.destinationName)
	}

	if len(o.datasets) == 0 {
		return fmt.Errorf("%w: no dataset to load", config.ErrInvalidDataset)
	}

	return nil
}

// execute loads every dataset in order, printing a status line on out after each one.
// The first failure stops the run.
func (o *options) execute(ctx context.Context, out io.Writer) error {
	if !o.lock.TryLock() {
		return nil
	}
	defer o.lock.Unlock()

	log := logger.FromContext(ctx).WithName(loggerName)

	dest, err := o.destinationGetter(ctx, o.destinationName, out)
	if err != nil {
		return err
	}
	if closable, ok := dest.(destination.ClosableDestination); ok {
		defer func() {
			if err := closable.Close(ctx); err != nil {
				log.Warn("error closing destination", "destination", dest.Name(), "error", err)
			}
		}()
	}

	loadPipeline, err := pipeline.New(pipeline.Config{
		PipelineName: o.pipelineName,
		DatasetName:  o.datasetName,
		DevMode:      o.devMode,
	}, dest)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Loading OULAD data into %s...\n", displayName(o.destinationName))
	log.Info("starting load",
		"pipeline", loadPipeline.Name(),
		"destination", dest.Location(),
		"dataset", loadPipeline.DatasetName(),
		"datasets", len(o.datasets),
	)

	for _, resource := range o.resourcesGetter(o.dataDir, o.datasets) {
		loadInfo, err := loadPipeline.Run(ctx, resource)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s loaded: %s\n", resource.Name(), loadInfo)
	}

	return nil
}

func displayName(destinationName string) string {
	if name, ok := destinationDisplayNames[destinationName]; ok {
		return name
	}
	return destinationName
}
