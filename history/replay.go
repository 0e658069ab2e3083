package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/stroke"
	"github.com/gogpu/stroke/internal/metrics"
	"github.com/gogpu/stroke/surface"
)

// Replayer renders layers with engines built by Factory.
type Replayer struct {
	Factory stroke.EngineFactory

	// Workers limits how many layers Document.ReplayAll renders at once.
	// Zero means no limit.
	Workers int
}

// Dropped describes a record skipped during replay.
type Dropped struct {
	Index  int
	Serial uint64
	Err    error
}

// Report summarizes one layer replay.
type Report struct {
	Layer    string
	Replayed int
	Dropped  []Dropped
	Duration time.Duration
}

// Replay renders the records of l onto s in order, shifted by the layer
// translation.
//
// Records with corrupt data, or with a brush configuration or state the
// factory rejects, are skipped and listed in the report. Contract and engine
// errors stop the replay and are returned with the partial report.
func (rp *Replayer) Replay(ctx context.Context, l *Layer, s stroke.Surface) (Report, error) {
	start := time.Now()
	rep := Report{Layer: l.Name}
	dx, dy := l.Offset()
	target := surface.Translate(s, dx, dy)

	for i, rec := range l.Strokes() {
		if err := ctx.Err(); err != nil {
			rep.Duration = time.Since(start)
			return rep, err
		}

		err := rec.Render(target, rp.Factory)
		switch {
		case err == nil:
			rep.Replayed++
			metrics.IncReplayed()
		case errors.Is(err, stroke.ErrCorrupt):
			stroke.Logger().Warn("history: dropping corrupt stroke",
				"layer", l.Name, "index", i, "serial", rec.SerialNumber(), "error", err)
			rep.Dropped = append(rep.Dropped, Dropped{Index: i, Serial: rec.SerialNumber(), Err: err})
			reason := "corrupt"
			if errors.Is(err, stroke.ErrBadConfig) {
				reason = "config"
			}
			metrics.IncDropped(reason)
		default:
			rep.Duration = time.Since(start)
			return rep, fmt.Errorf("history: layer %s stroke %d: %w", l.Name, i, err)
		}
	}

	rep.Duration = time.Since(start)
	metrics.ObserveReplayDuration(rep.Duration.Seconds())
	stroke.Logger().Debug("history: layer replayed",
		"layer", l.Name, "replayed", rep.Replayed, "dropped", len(rep.Dropped), "duration", rep.Duration)
	return rep, nil
}
