package stroke

import (
	"errors"
	"fmt"
)

// Contract errors report a lifecycle misuse by the caller.
var (
	// ErrContract is wrapped by every lifecycle violation.
	ErrContract = errors.New("stroke: contract violation")

	// ErrAlreadyStarted is returned by StartRecording on a record that has
	// already been started.
	ErrAlreadyStarted = fmt.Errorf("%w: recording already started", ErrContract)

	// ErrNotRecording is returned when samples are appended to a record that
	// is not recording.
	ErrNotRecording = fmt.Errorf("%w: record is not recording", ErrContract)

	// ErrNotFinished is returned by operations that need a finished record.
	ErrNotFinished = fmt.Errorf("%w: record is not finished", ErrContract)
)

// Format errors report stroke data that cannot be decoded.
var (
	// ErrCorrupt is wrapped by every decoding failure.
	ErrCorrupt = errors.New("stroke: corrupt stroke data")

	// ErrVersion is returned when the stroke data does not start with the
	// expected format version tag.
	ErrVersion = fmt.Errorf("%w: unexpected format version", ErrCorrupt)

	// ErrTruncated is returned when the sample rows are not a whole number
	// of 48-byte rows.
	ErrTruncated = fmt.Errorf("%w: partial sample row", ErrCorrupt)

	// ErrStateWidth is returned when a brush state snapshot is not a whole
	// number of float32 values.
	ErrStateWidth = fmt.Errorf("%w: brush state is not a float32 array", ErrCorrupt)

	// ErrBadConfig is returned when a record's brush configuration or state
	// snapshot cannot rebuild a replay engine.
	ErrBadConfig = fmt.Errorf("%w: brush configuration rejected", ErrCorrupt)
)
