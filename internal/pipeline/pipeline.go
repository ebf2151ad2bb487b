// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mia-platform/oulad-loader/internal/destination"
	"github.com/mia-platform/oulad-loader/internal/logger"
	"github.com/mia-platform/oulad-loader/internal/source"
)

const (
	loggerName = "oulad-loader:pipeline"

	devModeSuffixLayout = "20060102150405"
)

// Config holds the parameters shared by every run of a pipeline.
type Config struct {
	PipelineName string
	DatasetName  string
	// DevMode makes every pipeline instance write into a new dataset, suffixing the
	// dataset name with the creation time.
	DevMode bool
}

type Pipeline struct {
	name        string
	dataset     string
	destination destination.Destination

	now      func() time.Time
	newRowID func() string
}

// New returns a pipeline loading resources into dest.
func New(cfg Config, dest destination.Destination) (*Pipeline, error) {
	return newPipeline(cfg, dest, time.Now)
}

func newPipeline(cfg Config, dest destination.Destination, now func() time.Time) (*Pipeline, error) {
	if strings.TrimSpace(cfg.PipelineName) == "" {
		return nil, fmt.Errorf("%w: pipeline name is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.DatasetName) == "" {
		return nil, fmt.Errorf("%w: dataset name is required", ErrInvalidConfig)
	}
	if dest == nil {
		return nil, fmt.Errorf("%w: destination is required", ErrInvalidConfig)
	}

	dataset := NormalizeIdentifier(cfg.DatasetName)
	if cfg.DevMode {
		dataset += "_" + now().UTC().Format(devModeSuffixLayout)
	}

	return &Pipeline{
		name:        cfg.PipelineName,
		dataset:     dataset,
		destination: dest,
		now:         now,
		newRowID:    uuid.NewString,
	}, nil
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// DatasetName returns the name of the dataset the pipeline writes to, including the
// dev mode suffix when enabled.
func (p *Pipeline) DatasetName() string {
	return p.dataset
}

// Run extracts every record of resource and loads them into the pipeline dataset. The
// destination is not contacted if the extraction fails.
func (p *Pipeline) Run(ctx context.Context, resource source.Resource) (*LoadInfo, error) {
	log := logger.FromContext(ctx).WithName(loggerName).With("pipeline", p.name, "resource", resource.Name())
	startedAt := p.now()

	log.Debug("extracting records")
	records, err := p.extract(ctx, resource)
	if err != nil {
		return nil, p.stepError(StepExtract, resource, err)
	}
	log.Debug("records extracted", "rows", len(records))

	loadID := newLoadID(startedAt)
	job := p.normalize(resource, loadID, records)
	log.Trace("table schema inferred", "table", job.Table.Name, "columns", job.Table.ColumnNames())

	if err := p.destination.Initialize(ctx, p.dataset); err != nil {
		return nil, p.stepError(StepLoad, resource, err)
	}

	if len(job.Rows) > 0 {
		log.Debug("loading rows", "destination", p.destination.Name(), "table", job.Table.Name)
		if err := p.destination.Load(ctx, job); err != nil {
			return nil, p.stepError(StepLoad, resource, err)
		}
	} else {
		log.Info("no records extracted, skipping table load", "table", job.Table.Name)
	}

	metrics := TableMetrics{
		Table:   job.Table.Name,
		Rows:    len(job.Rows),
		Columns: len(job.Table.Columns),
	}
	if fileResource, ok := resource.(source.FileResource); ok {
		metrics.SourceFile = fileResource.Location()
		metrics.SourceChecksum = fileResource.Checksum()
	}

	err = p.destination.CompleteLoad(ctx, &destination.LoadRecord{
		LoadID:         loadID,
		PipelineName:   p.name,
		Dataset:        p.dataset,
		Table:          job.Table.Name,
		RowCount:       metrics.Rows,
		Status:         destination.LoadStatusLoaded,
		SourceChecksum: metrics.SourceChecksum,
		InsertedAt:     p.now(),
	})
	if err != nil {
		return nil, p.stepError(StepLoad, resource, err)
	}

	info := &LoadInfo{
		PipelineName:        p.name,
		DestinationName:     p.destination.Name(),
		DestinationLocation: p.destination.Location(),
		DatasetName:         p.dataset,
		LoadID:              loadID,
		StartedAt:           startedAt,
		FinishedAt:          p.now(),
		Tables:              []TableMetrics{metrics},
	}
	log.Info("load completed", "loadId", loadID, "rows", metrics.Rows)
	return info, nil
}

// extract drains the records produced by resource. The source goroutine always ends
// before extract returns.
func (p *Pipeline) extract(ctx context.Context, resource source.Resource) ([]source.Record, error) {
	log := logger.FromContext(ctx).WithName(loggerName)
	channel := make(chan source.Record)

	extractDone := make(chan error, 1)
	go func() {
		log.Trace("starting extraction goroutine")
		err := resource.Extract(ctx, channel)
		log.Trace("extraction finished, closing data channel")
		close(channel)
		extractDone <- err
	}()

	records := make([]source.Record, 0)
	for record := range channel {
		records = append(records, record)
	}

	if err := <-extractDone; err != nil {
		return nil, err
	}
	return records, nil
}

func (p *Pipeline) stepError(step Step, resource source.Resource, err error) error {
	return &StepError{
		Pipeline: p.name,
		Step:     step,
		Resource: resource.Name(),
		Err:      err,
	}
}

// newLoadID formats t as Unix seconds and microseconds.
func newLoadID(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/int(time.Microsecond))
}
