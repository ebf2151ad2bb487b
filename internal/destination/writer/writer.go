// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/mia-platform/oulad-loader/internal/destination"
)

// Name is the identifier of the writer destination.
const Name = "stdout"

var _ destination.Destination = &writerDestination{}

type writerDestination struct {
	writer io.Writer

	lock sync.Mutex
}

func NewDestination(w io.Writer) destination.Destination {
	return &writerDestination{
		writer: w,
	}
}

func (d *writerDestination) Name() string {
	return Name
}

func (d *writerDestination) Location() string {
	return Name
}

func (d *writerDestination) Initialize(_ context.Context, dataset string) error {
	builder := new(strings.Builder)
	builder.WriteString("Initialize dataset:\n")
	builder.WriteString("\tDataset: " + dataset + "\n")
	builder.WriteString("\n")

	return d.write(builder.String())
}

func (d *writerDestination) Load(_ context.Context, job *destination.Job) error {
	builder := new(strings.Builder)

	builder.WriteString("Load data:\n")
	builder.WriteString("\tLoad ID: " + job.LoadID + "\n")
	builder.WriteString("\tTable: " + job.Dataset + "." + job.Table.Name + "\n")
	builder.WriteString("\tWrite Disposition: " + string(job.WriteDisposition) + "\n")
	builder.WriteString("\tColumns:\n")
	for _, column := range job.Table.Columns {
		builder.WriteString("\t\t" + column.Name + " " + column.Type.String())
		if column.Nullable {
			builder.WriteString(" NULL")
		}
		builder.WriteString("\n")
	}
	builder.WriteString("\tRows: ")

	encoder := json.NewEncoder(builder)
	encoder.SetIndent("\t", "\t")
	if err := encoder.Encode(job.Rows); err != nil {
		return err
	}
	builder.WriteString("\n")

	return d.write(builder.String())
}

func (d *writerDestination) CompleteLoad(_ context.Context, load *destination.LoadRecord) error {
	builder := new(strings.Builder)
	builder.WriteString("Complete load:\n")
	builder.WriteString("\tLoad ID: " + load.LoadID + "\n")
	builder.WriteString("\tTable: " + load.Dataset + "." + load.Table + "\n")
	builder.WriteString("\tRows: " + strconv.Itoa(load.RowCount) + "\n")
	builder.WriteString("\tStatus: " + load.Status + "\n")
	builder.WriteString("\n")

	return d.write(builder.String())
}

func (d *writerDestination) write(text string) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	_, err := fmt.Fprint(d.writer, text)
	return err
}
