package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/gogpu/stroke"
	"github.com/gogpu/stroke/brush"
	"github.com/gogpu/stroke/history"
	"github.com/gogpu/stroke/internal/config"
	"github.com/gogpu/stroke/internal/inputlog"
	"github.com/gogpu/stroke/internal/logger"
	"github.com/gogpu/stroke/internal/metrics"
	"github.com/gogpu/stroke/store"
	"github.com/gogpu/stroke/store/archive"
	"github.com/gogpu/stroke/store/sqlite"
	"github.com/gogpu/stroke/surface"
)

// command holds the state shared by all subcommands after setup.
type command struct {
	out      io.Writer
	cfg      config.Config
	log      *slog.Logger
	closeLog io.Closer
}

// setup loads the configuration, applies persistent flags and installs the
// logger and metrics.
func (c *command) setup(cmd *cobra.Command, f *GlobalFlags) error {
	v, err := config.New(f.ConfigPath)
	if err != nil {
		return err
	}
	pf := cmd.Root().PersistentFlags()
	for key, name := range map[string]string{
		"db":               "db",
		"log.level":        "log-level",
		"metrics_textfile": "metrics-textfile",
	} {
		if err := v.BindPFlag(key, pf.Lookup(name)); err != nil {
			return err
		}
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}

	log, closer, err := logger.New(cmd.ErrOrStderr(), cfg.Log.Logger())
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.log = log
	c.closeLog = closer
	stroke.SetLogger(log)

	return metrics.Register(prometheus.DefaultRegisterer)
}

// teardown writes the metrics textfile and closes the log file.
func (c *command) teardown() error {
	var errs []error
	if p := c.cfg.MetricsTextfile; p != "" {
		if err := metrics.WriteTextfile(p, prometheus.DefaultGatherer); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if c.closeLog != nil {
		errs = append(errs, c.closeLog.Close())
	}
	return errors.Join(errs...)
}

func (c *command) openStore(ctx context.Context) (*sqlite.DB, error) {
	db, err := sqlite.New(c.cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// newSurface creates the canvas described by f, falling back to the
// configured surface and size.
func (c *command) newSurface(f CanvasFlags) (surface.Surface, error) {
	name := valOr(f.Surface, c.cfg.Surface)
	opts := surface.Options{
		Width:  intOr(f.Width, c.cfg.Width),
		Height: intOr(f.Height, c.cfg.Height),
	}
	if !f.Transparent {
		opts.Background = color.White
	}
	s, err := surface.NewByName(name, opts)
	if err != nil {
		return nil, fmt.Errorf("surface %s: %w", name, err)
	}
	return s, nil
}

// resolveLayer finds a stored layer by ID or by unique name.
func resolveLayer(ctx context.Context, st store.Store, ref string) (store.LayerInfo, error) {
	infos, err := st.Layers(ctx)
	if err != nil {
		return store.LayerInfo{}, err
	}
	if id, err := uuid.Parse(ref); err == nil {
		for _, info := range infos {
			if info.ID == id {
				return info, nil
			}
		}
	}
	var found []store.LayerInfo
	for _, info := range infos {
		if info.Name == ref {
			found = append(found, info)
		}
	}
	switch len(found) {
	case 0:
		return store.LayerInfo{}, fmt.Errorf("%w: layer %q", store.ErrNotFound, ref)
	case 1:
		return found[0], nil
	default:
		return store.LayerInfo{}, fmt.Errorf("layer name %q is ambiguous, use the layer ID", ref)
	}
}

// loadLayer resolves ref and loads the layer with its strokes.
func loadLayer(ctx context.Context, st store.Store, ref string) (*history.Layer, error) {
	info, err := resolveLayer(ctx, st, ref)
	if err != nil {
		return nil, err
	}
	return st.LoadLayer(ctx, info.ID)
}

// loadLayers loads the layers named by refs, or every layer when refs is
// empty.
func loadLayers(ctx context.Context, st store.Store, refs []string) ([]*history.Layer, error) {
	if len(refs) == 0 {
		infos, err := st.Layers(ctx)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			refs = append(refs, info.ID.String())
		}
	}
	layers := make([]*history.Layer, 0, len(refs))
	for _, ref := range refs {
		l, err := loadLayer(ctx, st, ref)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}
	return layers, nil
}

func (c *command) preset(name string) (*brush.Settings, error) {
	return brush.LoadSettings(valOr(name, c.cfg.Preset))
}

func readSamples(path string) ([]stroke.Sample, error) {
	if path == "-" {
		return inputlog.Read(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return inputlog.Read(f)
}

func writeSurface(s surface.Surface, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Record paints the input log live, records it and appends the stroke to
// the layer.
func (c *command) Record(ctx context.Context, f RecordFlags) error {
	samples, err := readSamples(f.Input)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("record: no samples in %s", f.Input)
	}
	settings, err := c.preset(f.Preset)
	if err != nil {
		return err
	}
	canvas, err := c.newSurface(f.Canvas)
	if err != nil {
		return err
	}
	defer func() { _ = canvas.Close() }()

	b := brush.New(settings)
	rec := stroke.NewRecord()
	if err := rec.StartRecording(b); err != nil {
		return err
	}
	if err := paint(canvas, b, rec, samples); err != nil {
		return err
	}
	if err := rec.StopRecording(); err != nil {
		return err
	}
	metrics.ObserveRecorded(rec.ParentBrushName(), len(samples))

	if f.Out != "" {
		if err := writeSurface(canvas, f.Out); err != nil {
			return err
		}
	}
	if rec.IsEmpty() {
		c.log.Info("empty stroke not stored", "input", f.Input, "samples", len(samples))
		_, err := fmt.Fprintln(c.out, "stroke painted nothing, not stored")
		return err
	}

	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	var layerID uuid.UUID
	info, err := resolveLayer(ctx, st, f.Layer)
	switch {
	case errors.Is(err, store.ErrNotFound):
		l := history.NewLayer(f.Layer)
		if _, err := l.Add(rec); err != nil {
			return err
		}
		if err := st.SaveLayer(ctx, l); err != nil {
			return err
		}
		layerID = l.ID
		c.log.Info("layer created", "layer", l.Name, "id", l.ID)
	case err != nil:
		return err
	default:
		if err := st.AppendStroke(ctx, info.ID, rec); err != nil {
			return err
		}
		layerID = info.ID
	}

	c.log.Info("stroke recorded", "layer", f.Layer, "brush", rec.ParentBrushName(),
		"samples", len(samples), "painting_time", rec.TotalPaintingTime())
	_, err = fmt.Fprintf(c.out, "recorded %d samples (%d bytes) with %s into layer %s (%s)\n",
		len(samples), len(rec.StrokeData()), rec.ParentBrushName(), f.Layer, layerID)
	return err
}

// paint drives the brush and the record with the same samples in one atomic
// region.
func paint(canvas stroke.Surface, b *brush.Brush, rec *stroke.Record, samples []stroke.Sample) error {
	canvas.BeginAtomic()
	defer canvas.EndAtomic()
	dst := canvas.Backend()
	for i, s := range samples {
		if err := b.StrokeTo(dst, s.X, s.Y, s.Pressure, s.XTilt, s.YTilt, s.DTime); err != nil {
			return fmt.Errorf("record: sample %d: %w", i, err)
		}
		if err := rec.RecordEvent(s.DTime, s.X, s.Y, s.Pressure, s.XTilt, s.YTilt); err != nil {
			return err
		}
	}
	return nil
}

// Replay renders stored layers.
func (c *command) Replay(ctx context.Context, f ReplayFlags) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	layers, err := loadLayers(ctx, st, f.Layers)
	if err != nil {
		return err
	}
	rp := &history.Replayer{Factory: brush.Factory, Workers: intOr(f.Workers, c.cfg.Workers)}

	if f.SplitDir != "" {
		return c.replaySplit(ctx, rp, layers, f)
	}

	canvas, err := c.newSurface(f.Canvas)
	if err != nil {
		return err
	}
	defer func() { _ = canvas.Close() }()

	for _, l := range layers {
		rep, err := rp.Replay(ctx, l, canvas)
		if perr := c.printReport(rep); perr != nil {
			return perr
		}
		if err != nil {
			return err
		}
	}
	return writeSurface(canvas, f.Out)
}

func (c *command) replaySplit(ctx context.Context, rp *history.Replayer, layers []*history.Layer, f ReplayFlags) error {
	if err := os.MkdirAll(f.SplitDir, 0o755); err != nil {
		return err
	}

	var mu sync.Mutex
	canvases := make(map[uuid.UUID]surface.Surface, len(layers))
	defer func() {
		for _, s := range canvases {
			_ = s.Close()
		}
	}()

	doc := &history.Document{Layers: layers}
	reports, err := doc.ReplayAll(ctx, rp, func(l *history.Layer) (stroke.Surface, error) {
		s, err := c.newSurface(f.Canvas)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		canvases[l.ID] = s
		mu.Unlock()
		return s, nil
	})
	for _, rep := range reports {
		if perr := c.printReport(rep); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}

	ext := extension(valOr(f.Canvas.Surface, c.cfg.Surface))
	names := splitFileNames(layers)
	for _, l := range layers {
		path := filepath.Join(f.SplitDir, names[l.ID]+ext)
		if err := writeSurface(canvases[l.ID], path); err != nil {
			return err
		}
	}
	return nil
}

func (c *command) printReport(rep history.Report) error {
	if rep.Layer == "" && rep.Replayed == 0 && len(rep.Dropped) == 0 {
		return nil
	}
	for _, d := range rep.Dropped {
		if _, err := fmt.Fprintf(c.out, "  dropped stroke %d: %v\n", d.Index, d.Err); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(c.out, "layer %s: %d replayed, %d dropped in %s\n",
		rep.Layer, rep.Replayed, len(rep.Dropped), rep.Duration.Round(time.Microsecond))
	return err
}

// SwapBrush replaces the brush of one stroke or of all strokes in a layer.
func (c *command) SwapBrush(ctx context.Context, f SwapBrushFlags) error {
	settings, err := c.preset(f.Preset)
	if err != nil {
		return err
	}
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	l, err := loadLayer(ctx, st, f.Layer)
	if err != nil {
		return err
	}
	n := 1
	if f.Index < 0 {
		n = l.Len()
		err = l.SwapAllBrushes(settings)
	} else {
		err = l.SwapBrush(f.Index, settings)
	}
	if err != nil {
		return err
	}
	if err := st.SaveLayer(ctx, l); err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.out, "swapped brush of %d stroke(s) in layer %s to %s\n", n, l.Name, settings.ParentName())
	return err
}

// Translate moves a layer.
func (c *command) Translate(ctx context.Context, f TranslateFlags) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	l, err := loadLayer(ctx, st, f.Layer)
	if err != nil {
		return err
	}
	l.Translate(f.DX, f.DY)
	if err := st.SaveLayer(ctx, l); err != nil {
		return err
	}
	dx, dy := l.Offset()
	_, err = fmt.Fprintf(c.out, "layer %s offset %g,%g\n", l.Name, dx, dy)
	return err
}

// Inspect lists layers, or the strokes of one layer.
func (c *command) Inspect(ctx context.Context, f InspectFlags) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if f.Layer == "" {
		infos, err := st.Layers(ctx)
		if err != nil {
			return err
		}
		for _, info := range infos {
			if _, err := fmt.Fprintf(c.out, "%s  %-16s strokes=%d offset=%g,%g updated=%s\n",
				info.ID, info.Name, info.Strokes, info.DX, info.DY, info.UpdatedAt.Format("2006-01-02T15:04:05Z")); err != nil {
				return err
			}
		}
		return nil
	}

	l, err := loadLayer(ctx, st, f.Layer)
	if err != nil {
		return err
	}
	dx, dy := l.Offset()
	if _, err := fmt.Fprintf(c.out, "layer %s (%s) offset=%g,%g strokes=%d\n", l.Name, l.ID, dx, dy, l.Len()); err != nil {
		return err
	}
	for i, rec := range l.Strokes() {
		status := "ok"
		samples := "-"
		if err := rec.Validate(); err != nil {
			status = err.Error()
		} else if ss, err := rec.Samples(); err == nil {
			samples = fmt.Sprint(len(ss))
		}
		if _, err := fmt.Fprintf(c.out, "  #%d brush=%s samples=%s bytes=%d painting=%.3fs %s\n",
			i, rec.ParentBrushName(), samples, len(rec.StrokeData()), rec.TotalPaintingTime(), status); err != nil {
			return err
		}
	}
	return nil
}

// Dump writes the samples of one stroke as CSV.
func (c *command) Dump(ctx context.Context, f DumpFlags) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	l, err := loadLayer(ctx, st, f.Layer)
	if err != nil {
		return err
	}
	strokes := l.Strokes()
	if f.Index < 0 || f.Index >= len(strokes) {
		return fmt.Errorf("%w: %d of %d", history.ErrIndex, f.Index, len(strokes))
	}
	samples, err := strokes[f.Index].Samples()
	if err != nil {
		return err
	}

	if f.Out == "" {
		return inputlog.Write(c.out, samples)
	}
	file, err := os.Create(f.Out)
	if err != nil {
		return err
	}
	if err := inputlog.Write(file, samples); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// Undo removes the last stroke of a layer.
func (c *command) Undo(ctx context.Context, f UndoFlags) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	l, err := loadLayer(ctx, st, f.Layer)
	if err != nil {
		return err
	}
	if _, ok := l.Pop(); !ok {
		_, err := fmt.Fprintf(c.out, "layer %s has no strokes\n", l.Name)
		return err
	}
	if err := st.SaveLayer(ctx, l); err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.out, "layer %s: %d stroke(s) left\n", l.Name, l.Len())
	return err
}

// DeleteLayer removes a layer.
func (c *command) DeleteLayer(ctx context.Context, f DeleteFlags) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	info, err := resolveLayer(ctx, st, f.Layer)
	if err != nil {
		return err
	}
	if err := st.DeleteLayer(ctx, info.ID); err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.out, "deleted layer %s (%s)\n", info.Name, info.ID)
	return err
}

// Export writes layers to an archive.
func (c *command) Export(ctx context.Context, f ArchiveFlags) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	layers, err := loadLayers(ctx, st, f.Layers)
	if err != nil {
		return err
	}
	file, err := os.Create(f.Path)
	if err != nil {
		return err
	}
	if err := archive.Write(file, layers); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.out, "exported %d layer(s) to %s\n", len(layers), f.Path)
	return err
}

// Import loads layers from an archive into the database.
func (c *command) Import(ctx context.Context, f ArchiveFlags) error {
	file, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	layers, err := archive.Read(file)
	_ = file.Close()
	if err != nil {
		return err
	}

	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	for _, l := range layers {
		if err := st.SaveLayer(ctx, l); err != nil {
			return err
		}
		c.log.Debug("layer imported", "layer", l.Name, "id", l.ID, "strokes", l.Len())
	}
	_, err = fmt.Fprintf(c.out, "imported %d layer(s) from %s\n", len(layers), f.Path)
	return err
}

// Presets lists the built-in brushes.
func (c *command) Presets() error {
	for _, name := range brush.Presets() {
		if _, err := fmt.Fprintln(c.out, name); err != nil {
			return err
		}
	}
	return nil
}

func valOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func extension(surfaceName string) string {
	switch surfaceName {
	case "pdf":
		return ".pdf"
	case "image":
		return ".png"
	default:
		return "." + surfaceName
	}
}

// splitFileNames picks one file name per layer. Layers whose sanitized names
// collide, ignoring case, get their ID appended.
func splitFileNames(layers []*history.Layer) map[uuid.UUID]string {
	seen := make(map[string]int, len(layers))
	for _, l := range layers {
		seen[strings.ToLower(fileName(l))]++
	}
	names := make(map[uuid.UUID]string, len(layers))
	for _, l := range layers {
		name := fileName(l)
		if seen[strings.ToLower(name)] > 1 {
			name += "-" + l.ID.String()
		}
		names[l.ID] = name
	}
	return names
}

// fileName makes a layer name safe to use as a file name.
func fileName(l *history.Layer) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r < ' ':
			return '_'
		default:
			return r
		}
	}, l.Name)
	if name == "" || name == "." || name == ".." {
		return l.ID.String()
	}
	return name
}
