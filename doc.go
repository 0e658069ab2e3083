// Package stroke records pointer input into immutable, replayable stroke
// records.
//
// A [Record] captures everything a brush engine needs to paint a stroke
// again: the serialized brush configuration, the engine's internal state
// vector at the start of the stroke, and the timed input samples in the order
// they arrived. A finished record can be rendered later, possibly in another
// process and possibly with a different brush, and reproduces the same dabs
// given the same engine implementation.
//
// # Lifecycle
//
// A record moves through three states and never goes back:
//
//	New --StartRecording--> Recording --StopRecording--> Finished
//
// Typical use while painting:
//
//	rec := stroke.NewRecord()
//	if err := rec.StartRecording(engine); err != nil {
//	    return err
//	}
//	for _, s := range input {
//	    _ = engine.StrokeTo(layer.Backend(), s.X, s.Y, s.Pressure, s.XTilt, s.YTilt, s.DTime)
//	    _ = rec.RecordEvent(s.DTime, s.X, s.Y, s.Pressure, s.XTilt, s.YTilt)
//	}
//	if err := rec.StopRecording(); err != nil {
//	    return err
//	}
//
// And to paint it again, for example after an undo or onto a moved layer:
//
//	err := rec.Render(surface, brush.Factory)
//
// # Stroke Data Format
//
// The samples of a finished record are kept as one binary blob:
//
//	byte 0:     '2' (format version)
//	bytes 1..N: rows of six little-endian float64 values
//	            dtime, x, y, pressure, xtilt, ytilt
//
// There is no length prefix or checksum; N must be a multiple of 48.
// Containers that persist the blob track its boundaries themselves.
//
// # Errors
//
// Misuse of the lifecycle (recording into a finished record, rendering an
// unfinished one) returns an error wrapping [ErrContract]. Malformed stroke
// data returns an error wrapping [ErrCorrupt]. Batch replays can drop corrupt
// records and keep going while still treating contract errors as bugs.
//
// # Thread Safety
//
// A Record is owned by a single goroutine while it is recording. Once
// finished it is immutable and may be rendered from several goroutines onto
// different surfaces at the same time.
package stroke
