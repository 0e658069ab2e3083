package history

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/gogpu/stroke"
)

// ErrIndex is returned for a stroke index outside the layer.
var ErrIndex = errors.New("history: stroke index out of range")

// Layer is an ordered stroke history. It is safe for concurrent use.
type Layer struct {
	ID   uuid.UUID
	Name string

	mu      sync.RWMutex
	dx, dy  float64
	strokes []*stroke.Record
}

// NewLayer creates an empty layer with a random ID.
func NewLayer(name string) *Layer {
	return NewLayerWithID(uuid.New(), name)
}

// NewLayerWithID creates an empty layer with the given ID.
func NewLayerWithID(id uuid.UUID, name string) *Layer {
	return &Layer{ID: id, Name: name}
}

// Add appends a finished record. Empty records are not kept and Add reports
// false for them.
func (l *Layer) Add(rec *stroke.Record) (bool, error) {
	if rec.State() != stroke.StateFinished {
		return false, fmt.Errorf("history: add to layer %s: %w", l.Name, stroke.ErrNotFinished)
	}
	if rec.IsEmpty() {
		return false, nil
	}
	l.mu.Lock()
	l.strokes = append(l.strokes, rec)
	l.mu.Unlock()
	return true, nil
}

// Append appends a finished record without dropping it when empty. Stores
// use it to rebuild a layer exactly as it was saved.
func (l *Layer) Append(rec *stroke.Record) error {
	if rec.State() != stroke.StateFinished {
		return fmt.Errorf("history: append to layer %s: %w", l.Name, stroke.ErrNotFinished)
	}
	l.mu.Lock()
	l.strokes = append(l.strokes, rec)
	l.mu.Unlock()
	return nil
}

// Strokes returns the records in replay order.
func (l *Layer) Strokes() []*stroke.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.strokes)
}

// Len returns the number of records.
func (l *Layer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.strokes)
}

// Translate moves the layer by (dx, dy).
func (l *Layer) Translate(dx, dy float64) {
	l.mu.Lock()
	l.dx += dx
	l.dy += dy
	l.mu.Unlock()
}

// Offset returns the layer translation.
func (l *Layer) Offset() (dx, dy float64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dx, l.dy
}

// SwapBrush replaces stroke i with a copy that replays with cfg.
func (l *Layer) SwapBrush(i int, cfg stroke.Config) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i < 0 || i >= len(l.strokes) {
		return fmt.Errorf("%w: %d of %d", ErrIndex, i, len(l.strokes))
	}
	cp, err := l.strokes[i].CopyWithBrushConfig(cfg)
	if err != nil {
		return err
	}
	l.strokes[i] = cp
	return nil
}

// SwapAllBrushes replaces every stroke with a copy that replays with cfg.
// On error the layer is left unchanged.
func (l *Layer) SwapAllBrushes(cfg stroke.Config) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	swapped := make([]*stroke.Record, len(l.strokes))
	for i, rec := range l.strokes {
		cp, err := rec.CopyWithBrushConfig(cfg)
		if err != nil {
			return fmt.Errorf("history: swap brush of stroke %d: %w", i, err)
		}
		swapped[i] = cp
	}
	l.strokes = swapped
	return nil
}

// Pop removes and returns the last record.
func (l *Layer) Pop() (*stroke.Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.strokes)
	if n == 0 {
		return nil, false
	}
	rec := l.strokes[n-1]
	l.strokes[n-1] = nil
	l.strokes = l.strokes[:n-1]
	return rec, true
}
