// Package archive reads and writes portable stroke archives.
//
// An archive is one msgpack document holding layers and their stroke
// records. Stroke data, brush state and brush configuration are carried as
// msgpack bin fields, so their lengths are delimited by the container.
package archive

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gogpu/stroke"
	"github.com/gogpu/stroke/history"
)

// Format is the tag in the header of every archive.
const Format = "gogpu-stroke-archive"

// Version is the archive version written by Write.
const Version = 1

var (
	// ErrFormat is returned for input that is not a stroke archive.
	ErrFormat = errors.New("archive: not a stroke archive")

	// ErrVersion is returned for archives of an unsupported version.
	ErrVersion = errors.New("archive: unsupported version")
)

type document struct {
	Format  string  `msgpack:"format"`
	Version int     `msgpack:"version"`
	Layers  []layer `msgpack:"layers"`
}

type layer struct {
	ID      string   `msgpack:"id"`
	Name    string   `msgpack:"name"`
	DX      float64  `msgpack:"dx"`
	DY      float64  `msgpack:"dy"`
	Strokes []record `msgpack:"strokes"`
}

type record struct {
	BrushConfig  []byte  `msgpack:"brush_config"`
	ParentName   string  `msgpack:"parent_name"`
	BrushState   []byte  `msgpack:"brush_state"`
	StrokeData   []byte  `msgpack:"stroke_data"`
	PaintingTime float64 `msgpack:"painting_time"`
}

// Write encodes layers to w.
func Write(w io.Writer, layers []*history.Layer) error {
	doc := document{Format: Format, Version: Version, Layers: make([]layer, 0, len(layers))}
	for _, l := range layers {
		dx, dy := l.Offset()
		out := layer{ID: l.ID.String(), Name: l.Name, DX: dx, DY: dy}
		for i, rec := range l.Strokes() {
			snap, err := rec.Snapshot()
			if err != nil {
				return fmt.Errorf("archive: layer %s stroke %d: %w", l.Name, i, err)
			}
			out.Strokes = append(out.Strokes, record{
				BrushConfig:  snap.BrushConfig,
				ParentName:   snap.ParentBrushName,
				BrushState:   snap.BrushState,
				StrokeData:   snap.StrokeData,
				PaintingTime: snap.TotalPaintingTime,
			})
		}
		doc.Layers = append(doc.Layers, out)
	}
	return msgpack.NewEncoder(w).Encode(&doc)
}

// Read decodes an archive. Stroke blobs are restored without validation.
func Read(r io.Reader) ([]*history.Layer, error) {
	var doc document
	if err := msgpack.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if doc.Format != Format {
		return nil, fmt.Errorf("%w: format %q", ErrFormat, doc.Format)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, doc.Version)
	}

	layers := make([]*history.Layer, 0, len(doc.Layers))
	for _, in := range doc.Layers {
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return nil, fmt.Errorf("archive: layer %q id: %w", in.Name, err)
		}
		l := history.NewLayerWithID(id, in.Name)
		l.Translate(in.DX, in.DY)
		for _, rec := range in.Strokes {
			err := l.Append(stroke.Restore(stroke.Snapshot{
				BrushConfig:       rec.BrushConfig,
				ParentBrushName:   rec.ParentName,
				BrushState:        rec.BrushState,
				StrokeData:        rec.StrokeData,
				TotalPaintingTime: rec.PaintingTime,
			}))
			if err != nil {
				return nil, err
			}
		}
		layers = append(layers, l)
	}
	return layers, nil
}
