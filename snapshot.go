package stroke

import "slices"

// Snapshot holds the persisted fields of a finished record. Stores and
// archives write these fields and rebuild records with Restore.
type Snapshot struct {
	BrushConfig       []byte
	ParentBrushName   string
	BrushState        []byte
	StrokeData        []byte
	TotalPaintingTime float64
}

// Snapshot returns the persisted fields of a finished record.
func (r *Record) Snapshot() (Snapshot, error) {
	if r.state != StateFinished {
		return Snapshot{}, ErrNotFinished
	}
	return Snapshot{
		BrushConfig:       slices.Clone(r.brushConfig),
		ParentBrushName:   r.parentName,
		BrushState:        slices.Clone(r.brushState),
		StrokeData:        slices.Clone(r.strokeData),
		TotalPaintingTime: r.paintingTime,
	}, nil
}

// Restore rebuilds a finished record from a snapshot. The record gets a new
// serial number.
//
// Restore does not decode the blobs. Corrupt data is reported by Validate
// or when the record is rendered, so a batch replay can drop it.
func Restore(s Snapshot) *Record {
	return &Record{
		serial:       nextSerial(),
		state:        StateFinished,
		brushConfig:  slices.Clone(s.BrushConfig),
		parentName:   s.ParentBrushName,
		brushState:   slices.Clone(s.BrushState),
		strokeData:   slices.Clone(s.StrokeData),
		paintingTime: s.TotalPaintingTime,
	}
}
