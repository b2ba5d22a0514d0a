package controller

import (
	"errors"
)

// ErrCycleInProgress is returned by Cycle when the previous cycle hasn't completed yet.
var ErrCycleInProgress = errors.New("evaluation cycle already in progress")

var _ error = &EvaluationError{}

// EvaluationError is returned when the sensors could not be evaluated against the received weather, e.g. because
// the sunrise or sunset time is malformed. No sensor state is changed.
type EvaluationError struct {
	Sensor string
	Err    error
}

func (e *EvaluationError) Error() string {
	msg := "evaluation failed"
	if e.Sensor != "" {
		msg += " for " + e.Sensor
	}
	return msg + ": " + e.Err.Error()
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) Is(err error) bool {
	var evaluationError *EvaluationError
	return errors.As(err, &evaluationError)
}
