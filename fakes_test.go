package stroke

import "errors"

// fakeConfig is a Config with fixed bytes.
type fakeConfig struct {
	data   []byte
	parent string
	err    error
}

func (c fakeConfig) Save() ([]byte, error) { return c.data, c.err }
func (c fakeConfig) ParentName() string    { return c.parent }

// fakeEngine is a recording-side Engine that counts calls.
type fakeEngine struct {
	config       fakeConfig
	state        []float32
	paintingTime float64

	newStrokeCalls int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		config: fakeConfig{data: []byte(`{"name":"pen"}`), parent: "classic/pen"},
		state:  []float32{1.5, -2, 0.25, 3},
	}
}

func (e *fakeEngine) Config() Config { return e.config }

func (e *fakeEngine) State() []float32 {
	out := make([]float32, len(e.state))
	copy(out, e.state)
	return out
}

func (e *fakeEngine) NewStroke() {
	e.newStrokeCalls++
	// A real engine resets its running counters here; clobber the state so
	// tests can tell whether it was captured first.
	for i := range e.state {
		e.state[i] = 0
	}
}

func (e *fakeEngine) TotalStrokePaintingTime() float64 { return e.paintingTime }

// strokeCall is one StrokeTo invocation seen by fakeReplay.
type strokeCall struct {
	x, y, pressure, xtilt, ytilt, dtime float64
}

// fakeReplay is a ReplayEngine that records its inputs.
type fakeReplay struct {
	config []byte
	state  []float32
	calls  []strokeCall

	failAt   int // 1-based sample index to fail at, 0 = never
	panicAt  int
	stateErr error
}

var errEngine = errors.New("engine exploded")

func (f *fakeReplay) SetState(state []float32) error {
	if f.stateErr != nil {
		return f.stateErr
	}
	f.state = append([]float32(nil), state...)
	return nil
}

func (f *fakeReplay) StrokeTo(b Backend, x, y, pressure, xtilt, ytilt, dtime float64) error {
	f.calls = append(f.calls, strokeCall{x, y, pressure, xtilt, ytilt, dtime})
	if f.panicAt == len(f.calls) {
		panic("engine panic")
	}
	if f.failAt == len(f.calls) {
		return errEngine
	}
	b.DrawDab(Dab{X: x, Y: y, Radius: 1, Opaque: pressure})
	return nil
}

// factoryFor returns an EngineFactory that always hands out f.
func factoryFor(f *fakeReplay) EngineFactory {
	return func(config []byte) (ReplayEngine, error) {
		f.config = config
		return f, nil
	}
}

// mockSurface counts atomic regions and dabs.
type mockSurface struct {
	beginCalls int
	endCalls   int
	depth      int
	dabs       []Dab
}

func (s *mockSurface) BeginAtomic() {
	s.beginCalls++
	s.depth++
}

func (s *mockSurface) EndAtomic() {
	s.endCalls++
	s.depth--
}

func (s *mockSurface) Backend() Backend { return s }

func (s *mockSurface) DrawDab(d Dab) bool {
	s.dabs = append(s.dabs, d)
	return true
}

// recordSamples records samples with a fake engine and finishes the record.
func recordSamples(t interface {
	Helper()
	Fatalf(string, ...any)
}, paintingTime float64, samples ...Sample) *Record {
	t.Helper()
	e := newFakeEngine()
	rec := NewRecord()
	if err := rec.StartRecording(e); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	for _, s := range samples {
		if err := rec.RecordEvent(s.DTime, s.X, s.Y, s.Pressure, s.XTilt, s.YTilt); err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
	}
	e.paintingTime = paintingTime
	if err := rec.StopRecording(); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	return rec
}
