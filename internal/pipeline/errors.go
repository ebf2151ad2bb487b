// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package pipeline

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by New when the pipeline configuration cannot be used.
var ErrInvalidConfig = errors.New("invalid pipeline configuration")

// Step names the phase of a run where an error occurred.
type Step string

const (
	StepExtract Step = "extract"
	StepLoad    Step = "load"
)

// StepError signals that a pipeline step failed for a resource. It wraps the original error
// so callers can still match the source or destination failure.
type StepError struct {
	Pipeline string
	Step     Step
	Resource string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("pipeline %s: %s step failed for resource %q: %s", e.Pipeline, e.Step, e.Resource, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
