package stroke

// Config is a brush configuration that can be captured into a record.
// The serialized form is opaque to this package; only the engine that
// produced it knows how to parse it again.
type Config interface {
	// Save serializes the full configuration.
	Save() ([]byte, error)

	// ParentName returns the name of the preset this configuration derives
	// from, or "" if there is none.
	ParentName() string
}

// Engine is the live brush engine a record borrows while recording.
type Engine interface {
	// Config returns the engine's current configuration.
	Config() Config

	// State returns a copy of the engine's internal state vector.
	State() []float32

	// NewStroke resets the engine's per-stroke counters.
	NewStroke()

	// TotalStrokePaintingTime returns the painting time accumulated since
	// the last NewStroke, in seconds.
	TotalStrokePaintingTime() float64
}

// ReplayEngine is a brush engine rebuilt from a saved configuration to
// replay a record.
type ReplayEngine interface {
	// SetState restores the internal state vector captured at the start of
	// the recording.
	SetState(state []float32) error

	// StrokeTo advances the engine by one input sample, emitting dabs to b.
	StrokeTo(b Backend, x, y, pressure, xtilt, ytilt, dtime float64) error
}

// EngineFactory constructs a fresh replay engine from a configuration
// previously returned by Config.Save.
type EngineFactory func(config []byte) (ReplayEngine, error)

// Dab is a single brush mark. Coordinates are in surface pixels and color
// channels are in [0, 1].
type Dab struct {
	X, Y     float64
	Radius   float64
	R, G, B  float64
	Opaque   float64
	Hardness float64
}

// Backend receives the dabs an engine emits.
type Backend interface {
	// DrawDab paints d and reports whether anything on the target changed.
	DrawDab(d Dab) bool
}

// Surface is a drawing target a record can be rendered onto.
//
// BeginAtomic and EndAtomic bracket a group of changes that the surface
// treats as one drawable, undoable unit. Calls nest; only the outermost pair
// is significant.
type Surface interface {
	BeginAtomic()
	EndAtomic()
	Backend() Backend
}
