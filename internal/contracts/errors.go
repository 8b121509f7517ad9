package contracts

import (
	"errors"
	"fmt"
)

// Sentinel errors, matched with errors.Is
var (
	ErrDataUnavailable  = errors.New("data unavailable")
	ErrMalformedInput   = errors.New("malformed input")
	ErrWeightValidation = errors.New("weight validation failed")

	// ErrInsufficientData is metric scoped: the metric becomes NaN, the report survives
	ErrInsufficientData = errors.New("insufficient data")
)

// DataUnavailableError is returned when the remote feed yields nothing for a ticker/range
type DataUnavailableError struct {
	Ticker string
	Range  DateRange
	Err    error
}

func (e *DataUnavailableError) Error() string {
	msg := fmt.Sprintf("no price data for %s in %s", e.Ticker, e.Range)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

func (e *DataUnavailableError) Is(target error) bool { return target == ErrDataUnavailable }

// MalformedInputError is returned for CSV parse and shape violations
type MalformedInputError struct {
	Path   string
	Line   int // 1-based, 0 when not tied to a line
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed input %s line %d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed input %s: %s", e.Path, e.Reason)
}

func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }

// WeightErrorKind classifies a weight validation failure
type WeightErrorKind string

const (
	UnknownTicker   WeightErrorKind = "UnknownTicker"
	MissingWeight   WeightErrorKind = "MissingWeight"
	DuplicateWeight WeightErrorKind = "DuplicateWeight"
	InvalidWeight   WeightErrorKind = "InvalidWeight"
	WeightSumError  WeightErrorKind = "WeightSumError"
	MixedSyntax     WeightErrorKind = "MixedSyntax"
	DuplicateTicker WeightErrorKind = "DuplicateTicker"
	EmptyTickers    WeightErrorKind = "EmptyTickers"
)

// WeightValidationError is raised before any I/O for the portfolio it belongs to
type WeightValidationError struct {
	Kind   WeightErrorKind
	Ticker string
	Detail string
}

func (e *WeightValidationError) Error() string {
	if e.Ticker != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Ticker, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *WeightValidationError) Is(target error) bool { return target == ErrWeightValidation }

// WeightErrorKindOf extracts the kind from err, "" when err is not a weight error
func WeightErrorKindOf(err error) WeightErrorKind {
	var werr *WeightValidationError
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return ""
}
