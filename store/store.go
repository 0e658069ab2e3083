package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/stroke"
	"github.com/gogpu/stroke/history"
)

var (
	// ErrNotFound is returned when a layer does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrEmptyStroke is returned when appending a record that painted
	// nothing. Layers never keep such records.
	ErrEmptyStroke = errors.New("store: empty stroke")
)

// LayerInfo describes a stored layer without loading its strokes.
type LayerInfo struct {
	ID        uuid.UUID
	Name      string
	DX, DY    float64
	Strokes   int
	UpdatedAt time.Time
}

// Store persists layer stroke histories. Stroke blobs are stored as opaque
// byte fields and decoded only when a layer is replayed.
type Store interface {
	EnsureSchema(ctx context.Context) error
	SaveLayer(ctx context.Context, l *history.Layer) error
	AppendStroke(ctx context.Context, layerID uuid.UUID, rec *stroke.Record) error
	LoadLayer(ctx context.Context, id uuid.UUID) (*history.Layer, error)
	Layers(ctx context.Context) ([]LayerInfo, error)
	DeleteLayer(ctx context.Context, id uuid.UUID) error
	Close() error
}
