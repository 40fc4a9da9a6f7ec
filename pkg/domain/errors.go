package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// FailureClass determines whether a failed step attempt is retried.
type FailureClass string

const (
	// Transient failures are retried up to the step's MaxRetries.
	Transient FailureClass = "transient"
	// Fatal failures abort the run immediately.
	Fatal FailureClass = "fatal"
)

// ErrorKind labels the root cause recorded in a RunError.
type ErrorKind string

const (
	KindTimeout            ErrorKind = "timeout"
	KindStepError          ErrorKind = "step_error"
	KindMaxRetriesExceeded ErrorKind = "max_retries_exceeded"
	KindCanceled           ErrorKind = "canceled"
	KindStepLimit          ErrorKind = "step_limit"
)

// ErrUnknownStep is returned when a transition targets a step id that the
// compiled graph does not contain. It can only occur through graph
// construction bugs; Compile rejects dangling edges.
var ErrUnknownStep = errors.New("unknown step")

// ErrRunNotFound is returned by run stores when a run ID cannot be found.
var ErrRunNotFound = errors.New("run not found")

// ValidationError reports a malformed graph at compile time. It never
// reaches Run: a graph that fails Compile cannot be executed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid graph: " + e.Reason
}

// Validationf builds a ValidationError with a formatted reason.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// StepError is a classified failure raised by a step implementation.
// Steps wrap their root cause so the executor can decide whether to retry.
type StepError struct {
	Class FailureClass
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step failed (%s): %v", e.Class, e.Cause)
}

func (e *StepError) Unwrap() error { return e.Cause }

// Transientf builds a retryable StepError.
func Transientf(format string, args ...any) *StepError {
	return &StepError{Class: Transient, Cause: fmt.Errorf(format, args...)}
}

// Fatalf builds a non-retryable StepError.
func Fatalf(format string, args ...any) *StepError {
	return &StepError{Class: Fatal, Cause: fmt.Errorf(format, args...)}
}

// TimeoutError is synthesized by the executor when a step attempt exceeds
// its declared timeout. It classifies as Transient unless the step's
// classifier overrides.
type TimeoutError struct {
	StepID  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("step %q exceeded timeout of %s", e.StepID, e.Timeout)
}

// RunError is the terminal error of a failed run. It is returned inside the
// Result, never raised out of Run, and carries the failing step, the number
// of attempts made, and the root cause.
type RunError struct {
	StepID   string
	Attempts int
	Kind     ErrorKind
	Cause    error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run failed at step %q (%s, %d attempt(s)): %v",
		e.StepID, e.Kind, e.Attempts, e.Cause)
}

func (e *RunError) Unwrap() error { return e.Cause }

// runErrorJSON flattens the cause chain to a string so results survive
// store round-trips.
type runErrorJSON struct {
	StepID   string    `json:"step_id"`
	Attempts int       `json:"attempts"`
	Kind     ErrorKind `json:"kind"`
	Cause    string    `json:"cause,omitempty"`
}

func (e *RunError) MarshalJSON() ([]byte, error) {
	out := runErrorJSON{StepID: e.StepID, Attempts: e.Attempts, Kind: e.Kind}
	if e.Cause != nil {
		out.Cause = e.Cause.Error()
	}
	return json.Marshal(out)
}

func (e *RunError) UnmarshalJSON(data []byte) error {
	var in runErrorJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	e.StepID = in.StepID
	e.Attempts = in.Attempts
	e.Kind = in.Kind
	e.Cause = nil
	if in.Cause != "" {
		e.Cause = errors.New(in.Cause)
	}
	return nil
}

// Classify resolves the failure class of err using the default taxonomy:
// timeouts are Transient, StepErrors carry their own class, and anything
// unclassified is Fatal. Steps may override this via StepPolicy.Classify.
func Classify(err error) FailureClass {
	var te *TimeoutError
	if errors.As(err, &te) {
		return Transient
	}
	var se *StepError
	if errors.As(err, &se) {
		return se.Class
	}
	return Fatal
}
