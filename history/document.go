package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/stroke"
)

// Document is a stack of layers.
type Document struct {
	Layers []*Layer
}

// AddLayer appends a new empty layer.
func (d *Document) AddLayer(name string) *Layer {
	l := NewLayer(name)
	d.Layers = append(d.Layers, l)
	return l
}

// Layer returns the layer with the given ID, or nil.
func (d *Document) Layer(id uuid.UUID) *Layer {
	for _, l := range d.Layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// ReplayAll replays every layer concurrently onto the surface open returns
// for it. Reports are in layer order. The first error cancels the other
// replays at their next stroke boundary.
func (d *Document) ReplayAll(ctx context.Context, rp *Replayer, open func(*Layer) (stroke.Surface, error)) ([]Report, error) {
	reports := make([]Report, len(d.Layers))

	g, ctx := errgroup.WithContext(ctx)
	if rp.Workers > 0 {
		g.SetLimit(rp.Workers)
	}
	for i, l := range d.Layers {
		g.Go(func() error {
			s, err := open(l)
			if err != nil {
				return fmt.Errorf("history: open surface for layer %s: %w", l.Name, err)
			}
			rep, err := rp.Replay(ctx, l, s)
			reports[i] = rep
			return err
		})
	}
	err := g.Wait()
	return reports, err
}
