package brush

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/gogpu/stroke"
)

// Layout of the state vector.
const (
	stateX = iota
	stateY
	statePressure
	stateRadius
	statePartialDabs
	stateStrokeTime
	stateStarted
	stateRNGSeed
	stateDeclination
	stateAscension

	// StateCount is the length of the state vector.
	StateCount
)

const (
	// restartAfter is the pause in seconds after which motion restarts the
	// stroke instead of drawing a connecting line.
	restartAfter = 5.0

	maxDabsPerStep = 10000
	minRadius      = 0.2
	maxRadius      = 1000.0

	// Seeds stay below 2^24 so a float32 holds them exactly.
	seedMask = 1<<24 - 1
)

var (
	// ErrNonFinite is returned by StrokeTo for NaN or infinite input.
	ErrNonFinite = errors.New("brush: non-finite input")

	// ErrStateSize is returned by SetState for a vector of the wrong length.
	ErrStateSize = errors.New("brush: wrong state vector size")
)

// Brush is a dab engine. It is not safe for concurrent use.
type Brush struct {
	settings *Settings
	state    [StateCount]float32

	paintingTime float64
	idlingTime   float64
}

// New creates a brush for the given settings. The brush keeps s; callers
// must not modify it while the brush is in use.
func New(s *Settings) *Brush {
	b := &Brush{settings: s}
	b.state[stateRNGSeed] = 1
	b.state[stateDeclination] = 90
	return b
}

// Factory builds a replay engine from saved settings. It has the
// stroke.EngineFactory signature.
func Factory(config []byte) (stroke.ReplayEngine, error) {
	s, err := ParseSettings(config)
	if err != nil {
		return nil, err
	}
	return New(s), nil
}

// Settings returns the brush settings.
func (b *Brush) Settings() *Settings { return b.settings }

// Config returns the settings as a stroke.Config.
func (b *Brush) Config() stroke.Config { return b.settings }

// State returns a copy of the state vector.
func (b *Brush) State() []float32 {
	return slices.Clone(b.state[:])
}

// SetState replaces the state vector.
func (b *Brush) SetState(state []float32) error {
	if len(state) != StateCount {
		return fmt.Errorf("%w: got %d values, want %d", ErrStateSize, len(state), StateCount)
	}
	copy(b.state[:], state)
	return nil
}

// NewStroke resets the per-stroke painting and idling counters.
func (b *Brush) NewStroke() {
	b.paintingTime = 0
	b.idlingTime = 0
}

// TotalStrokePaintingTime returns the seconds of motion with pressure since
// the last NewStroke.
func (b *Brush) TotalStrokePaintingTime() float64 { return b.paintingTime }

// IdlingTime returns the seconds of motion without pressure since the last
// NewStroke.
func (b *Brush) IdlingTime() float64 { return b.idlingTime }

// StrokeTo moves the brush to (x, y) over dtime seconds and draws the dabs
// that fall along the way.
func (b *Brush) StrokeTo(dst stroke.Backend, x, y, pressure, xtilt, ytilt, dtime float64) error {
	for _, v := range [...]float64{x, y, pressure, xtilt, ytilt, dtime} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFinite
		}
	}
	pressure = clamp(pressure, 0, 1)
	dtime = max(dtime, 0)

	if pressure > 0 {
		b.paintingTime += dtime
	} else {
		b.idlingTime += dtime
	}

	decl, asc := tiltAngles(xtilt, ytilt)
	st := &b.state

	if st[stateStarted] == 0 || dtime > restartAfter {
		st[stateX], st[stateY] = float32(x), float32(y)
		st[statePressure] = float32(pressure)
		st[stateDeclination], st[stateAscension] = float32(decl), float32(asc)
		st[statePartialDabs] = 0
		st[stateStrokeTime] = 0
		st[stateStarted] = 1
		return nil
	}

	x0, y0 := float64(st[stateX]), float64(st[stateY])
	p0 := float64(st[statePressure])
	decl0 := float64(st[stateDeclination])

	if t := b.settings.Value(SlowTracking, nil); t > 0.001 {
		fac := 1 - math.Exp(-100*dtime/t)
		x = x0 + (x-x0)*fac
		y = y0 + (y-y0)*fac
	}

	radius := float64(st[stateRadius])
	if radius <= 0 {
		radius = b.radius(map[string]float64{InputPressure: p0, InputTiltDeclination: decl0})
	}
	moved := math.Hypot(x-x0, y-y0)/radius*b.settings.Value(DabsPerActualRadius, nil) +
		dtime*b.settings.Value(DabsPerSecond, nil)

	partial := float64(st[statePartialDabs])
	if moved > 0 {
		n := min(int(math.Floor(partial+moved)), maxDabsPerStep)
		for i := range n {
			t := (float64(i+1) - partial) / moved
			b.dab(dst, lerp(x0, x, t), lerp(y0, y, t), lerp(p0, pressure, t), lerp(decl0, decl, t))
		}
		partial += moved
		partial -= math.Floor(partial)
	}

	st[stateX], st[stateY] = float32(x), float32(y)
	st[statePressure] = float32(pressure)
	st[stateDeclination], st[stateAscension] = float32(decl), float32(asc)
	st[statePartialDabs] = float32(partial)
	st[stateStrokeTime] += float32(dtime)
	return nil
}

func (b *Brush) dab(dst stroke.Backend, x, y, pressure, decl float64) {
	in := map[string]float64{
		InputPressure:        pressure,
		InputRandom:          b.random(),
		InputTiltDeclination: decl,
	}
	radius := b.radius(in)
	b.state[stateRadius] = float32(radius)

	if off := b.settings.Value(OffsetByRandom, in); off != 0 {
		x += (b.random()*2 - 1) * off * radius
		y += (b.random()*2 - 1) * off * radius
	}

	opaque := clamp(b.settings.Value(Opaque, in), 0, 1) * pressure
	if opaque <= 0 {
		return
	}
	r, g, bl := hsvToRGB(
		b.settings.Value(ColorH, in),
		b.settings.Value(ColorS, in),
		b.settings.Value(ColorV, in))
	dst.DrawDab(stroke.Dab{
		X:        x,
		Y:        y,
		Radius:   radius,
		R:        r,
		G:        g,
		B:        bl,
		Opaque:   opaque,
		Hardness: clamp(b.settings.Value(Hardness, in), 0, 1),
	})
}

func (b *Brush) radius(in map[string]float64) float64 {
	return clamp(math.Exp(b.settings.Value(RadiusLogarithmic, in)), minRadius, maxRadius)
}

// random returns a value in [0, 1) and advances the seed kept in the state
// vector.
func (b *Brush) random() float64 {
	seed := uint64(b.state[stateRNGSeed])
	r := rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))
	v := r.Float64()
	b.state[stateRNGSeed] = float32(r.Uint64() & seedMask)
	return v
}

// tiltAngles converts tablet tilt to declination and ascension in degrees.
func tiltAngles(xtilt, ytilt float64) (decl, asc float64) {
	decl = clamp(90-math.Hypot(xtilt, ytilt)*60, 0, 90)
	asc = math.Atan2(-xtilt, ytilt) * 180 / math.Pi
	return decl, asc
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
