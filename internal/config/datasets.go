// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	NameField             = "name"
	FileField             = "file"
	WriteDispositionField = "writeDisposition"
)

var (
	// ErrParsing reports failures that occur while decoding dataset files.
	ErrParsing = errors.New("error parsing")
	// ErrInvalidDataset reports a dataset definition that cannot be loaded.
	ErrInvalidDataset = errors.New("invalid dataset")
)

// WriteDisposition tells the destination how new rows relate to the rows already
// loaded for the same dataset.
type WriteDisposition string

const (
	// WriteDispositionAppend adds the new rows to the existing ones.
	WriteDispositionAppend WriteDisposition = "append"
	// WriteDispositionReplace drops the existing rows before writing the new ones.
	WriteDispositionReplace WriteDisposition = "replace"
)

// Valid reports whether w is a supported write disposition.
func (w WriteDisposition) Valid() bool {
	return w == WriteDispositionAppend || w == WriteDispositionReplace
}

// Dataset binds a dataset name to the CSV file it is read from.
type Dataset struct {
	Name             string           `json:"name" yaml:"name"`
	FileName         string           `json:"file" yaml:"file"`
	WriteDisposition WriteDisposition `json:"writeDisposition,omitempty" yaml:"writeDisposition,omitempty"`
}

// DefaultDatasets returns the OULAD datasets in the order they must be loaded.
func DefaultDatasets() []Dataset {
	return []Dataset{
		{Name: "student_info", FileName: "studentInfo.csv", WriteDisposition: WriteDispositionAppend},
		{Name: "student_assessment", FileName: "studentAssessment.csv", WriteDisposition: WriteDispositionAppend},
		{Name: "courses", FileName: "courses.csv", WriteDisposition: WriteDispositionAppend},
		{Name: "vle", FileName: "vle.csv", WriteDisposition: WriteDispositionAppend},
		{Name: "student_registration", FileName: "studentRegistration.csv", WriteDisposition: WriteDispositionAppend},
		{Name: "assessments", FileName: "assessments.csv", WriteDisposition: WriteDispositionAppend},
	}
}

// NewDatasetsFromPath parses the YAML file at path and returns the datasets it contains,
// one per YAML document, keeping the order in which they appear.
func NewDatasetsFromPath(path string) ([]Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	datasets := make([]Dataset, 0)
	seen := make(map[string]struct{})
	for {
		dataset := new(Dataset)
		if err := decoder.Decode(&dataset); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, fmt.Errorf("%w %q: %w", ErrParsing, path, err)
		}

		// empty documents
		if dataset == nil {
			continue
		}

		if dataset.WriteDisposition == "" {
			dataset.WriteDisposition = WriteDispositionAppend
		}

		if err := dataset.validate(); err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrParsing, path, err)
		}

		if _, found := seen[dataset.Name]; found {
			return nil, fmt.Errorf("%w %q: %w: duplicated name %q", ErrParsing, path, ErrInvalidDataset, dataset.Name)
		}
		seen[dataset.Name] = struct{}{}

		datasets = append(datasets, *dataset)
	}

	return datasets, nil
}

func (d Dataset) validate() error {
	missingFields := []string{}
	if d.Name == "" {
		missingFields = append(missingFields, NameField)
	}
	if d.FileName == "" {
		missingFields = append(missingFields, FileField)
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrInvalidDataset, strings.Join(missingFields, ", "))
	}

	if !d.WriteDisposition.Valid() {
		return fmt.Errorf("%w: unknown value %q for field '%s'", ErrInvalidDataset, d.WriteDisposition, WriteDispositionField)
	}

	return nil
}
