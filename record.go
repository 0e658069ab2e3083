package stroke

import (
	"fmt"
	"slices"
	"sync/atomic"
)

// State is the lifecycle state of a Record.
type State uint8

const (
	// StateNew is a record that has not started recording.
	StateNew State = iota

	// StateRecording accepts samples.
	StateRecording

	// StateFinished is immutable and can be rendered.
	StateFinished
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateRecording:
		return "recording"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// serials hands out process-unique record serial numbers.
var serials atomic.Uint64

func nextSerial() uint64 {
	return serials.Add(1)
}

// Record is a replayable record of one paint stroke.
//
// A record is created with NewRecord, filled between StartRecording and
// StopRecording, and is immutable once finished. To change a finished
// stroke, derive a new record (see CopyWithBrushConfig) and replace the old
// one.
//
// Record is not safe for concurrent use while recording. Finished records
// are safe for concurrent reads and renders.
type Record struct {
	serial uint64
	state  State

	brushConfig  []byte
	parentName   string
	brushState   []byte // little-endian float32 values
	strokeData   []byte // FormatVersion + sample rows
	paintingTime float64

	// Set only while recording.
	engine  Engine
	samples []Sample
}

// NewRecord creates an empty record with a new serial number.
func NewRecord() *Record {
	return &Record{serial: nextSerial()}
}

// StartRecording snapshots the engine's configuration and internal state,
// tells the engine a new stroke begins, and starts accepting samples.
//
// The record keeps a reference to e until StopRecording.
func (r *Record) StartRecording(e Engine) error {
	if r.state != StateNew {
		return ErrAlreadyStarted
	}

	cfg := e.Config()
	data, err := cfg.Save()
	if err != nil {
		return fmt.Errorf("stroke: save brush config: %w", err)
	}
	r.brushConfig = data
	r.parentName = cfg.ParentName()
	r.brushState = encodeState(e.State())

	r.engine = e
	r.engine.NewStroke()

	r.samples = make([]Sample, 0, 128)
	r.state = StateRecording
	return nil
}

// RecordEvent appends one input sample. Values are stored verbatim.
func (r *Record) RecordEvent(dtime, x, y, pressure, xtilt, ytilt float64) error {
	if r.state != StateRecording {
		return ErrNotRecording
	}
	r.samples = append(r.samples, Sample{
		DTime:    dtime,
		X:        x,
		Y:        y,
		Pressure: pressure,
		XTilt:    xtilt,
		YTilt:    ytilt,
	})
	return nil
}

// StopRecording serializes the samples, captures the engine's total
// painting time, releases the engine and finishes the record.
//
// Calling StopRecording on a finished record is a no-op.
func (r *Record) StopRecording() error {
	switch r.state {
	case StateFinished:
		return nil
	case StateNew:
		return ErrNotRecording
	}

	r.strokeData = EncodeSamples(r.samples)
	r.paintingTime = r.engine.TotalStrokePaintingTime()

	Logger().Debug("stroke recorded",
		"serial", r.serial,
		"samples", len(r.samples),
		"bytes", len(r.strokeData),
		"painting_time", r.paintingTime)

	r.engine = nil
	r.samples = nil
	r.state = StateFinished
	return nil
}

// IsEmpty reports whether a finished record painted nothing.
// Records that are not finished are never empty.
func (r *Record) IsEmpty() bool {
	return r.state == StateFinished && r.paintingTime == 0
}

// Render replays the record onto s with an engine built by newEngine.
//
// The whole replay is one atomic region on s. The region is closed on every
// exit path, including engine errors.
func (r *Record) Render(s Surface, newEngine EngineFactory) error {
	if r.state != StateFinished {
		return ErrNotFinished
	}
	if newEngine == nil {
		return fmt.Errorf("%w: nil engine factory", ErrContract)
	}

	engine, err := newEngine(r.brushConfig)
	if err != nil {
		return fmt.Errorf("%w: build engine for record %d: %w", ErrBadConfig, r.serial, err)
	}
	state, err := decodeState(r.brushState)
	if err != nil {
		return err
	}
	if err := engine.SetState(state); err != nil {
		return fmt.Errorf("%w: restore brush state for record %d: %w", ErrBadConfig, r.serial, err)
	}
	samples, err := DecodeSamples(r.strokeData)
	if err != nil {
		return err
	}

	s.BeginAtomic()
	defer s.EndAtomic()

	b := s.Backend()
	for i, smp := range samples {
		if err := engine.StrokeTo(b, smp.X, smp.Y, smp.Pressure, smp.XTilt, smp.YTilt, smp.DTime); err != nil {
			return fmt.Errorf("stroke: replay sample %d of record %d: %w", i, r.serial, err)
		}
	}

	Logger().Debug("stroke replayed", "serial", r.serial, "samples", len(samples))
	return nil
}

// CopyWithBrushConfig returns a new finished record that replays the same
// input with a different brush configuration.
//
// The brush state snapshot is carried over unchanged even though its fields
// may not mean quite the same thing to the new configuration. This glitches
// less than starting from a zero state.
func (r *Record) CopyWithBrushConfig(cfg Config) (*Record, error) {
	if r.state != StateFinished {
		return nil, ErrNotFinished
	}
	data, err := cfg.Save()
	if err != nil {
		return nil, fmt.Errorf("stroke: save brush config: %w", err)
	}
	return &Record{
		serial:       nextSerial(),
		state:        StateFinished,
		brushConfig:  data,
		parentName:   cfg.ParentName(),
		brushState:   r.brushState,
		strokeData:   r.strokeData,
		paintingTime: r.paintingTime,
	}, nil
}

// Validate checks that the stored stroke data and brush state decode
// cleanly, without rendering.
func (r *Record) Validate() error {
	if r.state != StateFinished {
		return ErrNotFinished
	}
	if err := checkSampleData(r.strokeData); err != nil {
		return err
	}
	if len(r.brushState)%4 != 0 {
		return fmt.Errorf("%w: %d bytes", ErrStateWidth, len(r.brushState))
	}
	return nil
}

// SerialNumber returns the process-unique serial assigned at construction.
// It identifies a record for debugging only and is not persisted.
func (r *Record) SerialNumber() uint64 {
	return r.serial
}

// State returns the lifecycle state.
func (r *Record) State() State {
	return r.state
}

// BrushConfig returns a copy of the serialized brush configuration.
func (r *Record) BrushConfig() []byte {
	return slices.Clone(r.brushConfig)
}

// ParentBrushName returns the preset name the brush configuration derives
// from.
func (r *Record) ParentBrushName() string {
	return r.parentName
}

// BrushState returns the brush state vector captured at recording start.
func (r *Record) BrushState() ([]float32, error) {
	return decodeState(r.brushState)
}

// StrokeData returns a copy of the encoded samples. It is nil until the
// record is finished.
func (r *Record) StrokeData() []byte {
	return slices.Clone(r.strokeData)
}

// TotalPaintingTime returns the painting time the engine reported when
// recording stopped, in seconds.
func (r *Record) TotalPaintingTime() float64 {
	return r.paintingTime
}

// Samples returns the recorded samples in order. While recording it returns
// a copy of the samples buffered so far.
func (r *Record) Samples() ([]Sample, error) {
	switch r.state {
	case StateRecording:
		return slices.Clone(r.samples), nil
	case StateFinished:
		return DecodeSamples(r.strokeData)
	default:
		return nil, nil
	}
}
