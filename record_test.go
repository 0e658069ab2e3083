package stroke

import (
	"bytes"
	"errors"
	"math"
	"slices"
	"sync"
	"testing"
)

var threeSamples = []Sample{
	{DTime: 0.0, X: 0, Y: 0, Pressure: 0.5},
	{DTime: 0.01, X: 1, Y: 1, Pressure: 0.6},
	{DTime: 0.01, X: 2, Y: 2, Pressure: 0.0},
}

func TestNewRecord(t *testing.T) {
	rec := NewRecord()
	if rec.State() != StateNew {
		t.Errorf("State() = %v, want new", rec.State())
	}
	if rec.SerialNumber() == 0 {
		t.Error("serial number should be assigned")
	}
	if rec.IsEmpty() {
		t.Error("unfinished record should not report empty")
	}
	if rec.StrokeData() != nil {
		t.Error("StrokeData should be nil before finishing")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateNew, "new"},
		{StateRecording, "recording"},
		{StateFinished, "finished"},
		{State(9), "State(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestStartRecordingCapturesEngine(t *testing.T) {
	e := newFakeEngine()
	rec := NewRecord()
	if err := rec.StartRecording(e); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}

	if rec.State() != StateRecording {
		t.Errorf("State() = %v, want recording", rec.State())
	}
	if e.newStrokeCalls != 1 {
		t.Errorf("NewStroke called %d times, want 1", e.newStrokeCalls)
	}
	if got := string(rec.BrushConfig()); got != `{"name":"pen"}` {
		t.Errorf("BrushConfig() = %q", got)
	}
	if rec.ParentBrushName() != "classic/pen" {
		t.Errorf("ParentBrushName() = %q, want classic/pen", rec.ParentBrushName())
	}

	// The state must be captured before NewStroke resets the engine.
	state, err := rec.BrushState()
	if err != nil {
		t.Fatalf("BrushState: %v", err)
	}
	want := []float32{1.5, -2, 0.25, 3}
	if !slices.Equal(state, want) {
		t.Errorf("BrushState() = %v, want %v", state, want)
	}
}

func TestStartRecordingConfigError(t *testing.T) {
	e := newFakeEngine()
	e.config.err = errors.New("disk full")
	rec := NewRecord()
	if err := rec.StartRecording(e); err == nil {
		t.Fatal("expected error from failing config save")
	}
	if rec.State() != StateNew {
		t.Errorf("State() = %v, want new after failed start", rec.State())
	}
}

func TestStartRecordingTwice(t *testing.T) {
	rec := NewRecord()
	if err := rec.StartRecording(newFakeEngine()); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	err := rec.StartRecording(newFakeEngine())
	if !errors.Is(err, ErrAlreadyStarted) || !errors.Is(err, ErrContract) {
		t.Errorf("second StartRecording = %v, want ErrAlreadyStarted", err)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	rec := recordSamples(t, 0.02, threeSamples...)

	data := rec.StrokeData()
	if len(data) != 1+3*48 {
		t.Fatalf("len(StrokeData()) = %d, want 145", len(data))
	}
	if data[0] != '2' {
		t.Errorf("version byte = %q, want '2'", data[0])
	}

	got, err := DecodeSamples(data)
	if err != nil {
		t.Fatalf("DecodeSamples: %v", err)
	}
	if !slices.Equal(got, threeSamples) {
		t.Errorf("decoded samples = %v, want %v", got, threeSamples)
	}

	fromRecord, err := rec.Samples()
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if !slices.Equal(fromRecord, threeSamples) {
		t.Errorf("Samples() = %v, want %v", fromRecord, threeSamples)
	}
}

func TestRecordRoundTripBitExact(t *testing.T) {
	special := []float64{
		math.Copysign(0, -1),
		math.SmallestNonzeroFloat64,
		math.MaxFloat64,
		math.Inf(1),
		math.Inf(-1),
		math.Float64frombits(0x7ff8000000000123), // NaN with payload
		1.0 / 3.0,
	}
	var in []Sample
	for i, v := range special {
		in = append(in, Sample{DTime: v, X: float64(i), Y: -v, Pressure: v, XTilt: v, YTilt: -v})
	}
	rec := recordSamples(t, 1, in...)

	out, err := rec.Samples()
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d samples, want %d", len(out), len(in))
	}
	for i := range in {
		a, b := in[i], out[i]
		pairs := [][2]float64{
			{a.DTime, b.DTime}, {a.X, b.X}, {a.Y, b.Y},
			{a.Pressure, b.Pressure}, {a.XTilt, b.XTilt}, {a.YTilt, b.YTilt},
		}
		for j, p := range pairs {
			if math.Float64bits(p[0]) != math.Float64bits(p[1]) {
				t.Errorf("sample %d field %d: bits %x, want %x", i, j, math.Float64bits(p[1]), math.Float64bits(p[0]))
			}
		}
	}
}

func TestSamplesWhileRecording(t *testing.T) {
	rec := NewRecord()
	if err := rec.StartRecording(newFakeEngine()); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	_ = rec.RecordEvent(0.1, 1, 2, 0.3, 0.4, 0.5)

	got, err := rec.Samples()
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	want := []Sample{{DTime: 0.1, X: 1, Y: 2, Pressure: 0.3, XTilt: 0.4, YTilt: 0.5}}
	if !slices.Equal(got, want) {
		t.Errorf("Samples() = %v, want %v", got, want)
	}

	got[0].X = 99
	again, _ := rec.Samples()
	if again[0].X != 1 {
		t.Error("Samples() must return a copy of the buffer")
	}
}

func TestStopRecordingIdempotent(t *testing.T) {
	e := newFakeEngine()
	rec := NewRecord()
	if err := rec.StartRecording(e); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	_ = rec.RecordEvent(0, 1, 1, 1, 0, 0)
	e.paintingTime = 0.5

	if err := rec.StopRecording(); err != nil {
		t.Fatalf("first StopRecording: %v", err)
	}
	first := rec.StrokeData()

	e.paintingTime = 9
	if err := rec.StopRecording(); err != nil {
		t.Fatalf("second StopRecording: %v", err)
	}
	if !bytes.Equal(rec.StrokeData(), first) {
		t.Error("second StopRecording changed the stroke data")
	}
	if rec.TotalPaintingTime() != 0.5 {
		t.Errorf("TotalPaintingTime() = %v, want 0.5", rec.TotalPaintingTime())
	}
	if rec.State() != StateFinished {
		t.Errorf("State() = %v, want finished", rec.State())
	}
}

func TestStopRecordingBeforeStart(t *testing.T) {
	err := NewRecord().StopRecording()
	if !errors.Is(err, ErrNotRecording) {
		t.Errorf("StopRecording on new record = %v, want ErrNotRecording", err)
	}
}

func TestRecordEventAfterStop(t *testing.T) {
	rec := recordSamples(t, 0.02, threeSamples...)
	before := rec.StrokeData()

	err := rec.RecordEvent(1, 2, 3, 4, 5, 6)
	if !errors.Is(err, ErrNotRecording) {
		t.Fatalf("RecordEvent after stop = %v, want ErrNotRecording", err)
	}
	if !errors.Is(err, ErrContract) || errors.Is(err, ErrCorrupt) {
		t.Errorf("error %v should be a contract violation only", err)
	}
	if !bytes.Equal(rec.StrokeData(), before) {
		t.Error("failed RecordEvent altered the stroke data")
	}
}

func TestRecordEventBeforeStart(t *testing.T) {
	if err := NewRecord().RecordEvent(0, 0, 0, 0, 0, 0); !errors.Is(err, ErrNotRecording) {
		t.Errorf("RecordEvent on new record = %v, want ErrNotRecording", err)
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name         string
		paintingTime float64
		samples      []Sample
		want         bool
	}{
		{"no samples", 0, nil, true},
		{"samples without painting", 0, threeSamples, true},
		{"painted", 0.02, threeSamples, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := recordSamples(t, tt.paintingTime, tt.samples...)
			if got := rec.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderEmptyRecord(t *testing.T) {
	rec := recordSamples(t, 0)
	if !rec.IsEmpty() {
		t.Fatal("record should be empty")
	}

	s := &mockSurface{}
	f := &fakeReplay{}
	if err := rec.Render(s, factoryFor(f)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if s.beginCalls != 1 || s.endCalls != 1 {
		t.Errorf("atomic region begin=%d end=%d, want 1/1", s.beginCalls, s.endCalls)
	}
	if len(f.calls) != 0 {
		t.Errorf("StrokeTo called %d times, want 0", len(f.calls))
	}
}

func TestRenderReplaysInOrder(t *testing.T) {
	in := []Sample{
		{DTime: 0.001, X: 10, Y: 20, Pressure: 0.3, XTilt: 0.1, YTilt: -0.1},
		{DTime: 0.002, X: 11, Y: 21, Pressure: 0.4, XTilt: 0.2, YTilt: -0.2},
		{DTime: 0.003, X: 12, Y: 22, Pressure: 0.5, XTilt: 0.3, YTilt: -0.3},
	}
	rec := recordSamples(t, 0.006, in...)

	s := &mockSurface{}
	f := &fakeReplay{}
	if err := rec.Render(s, factoryFor(f)); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if got := string(f.config); got != `{"name":"pen"}` {
		t.Errorf("engine built from %q", got)
	}
	if !slices.Equal(f.state, []float32{1.5, -2, 0.25, 3}) {
		t.Errorf("engine state = %v", f.state)
	}
	if len(f.calls) != len(in) {
		t.Fatalf("StrokeTo called %d times, want %d", len(f.calls), len(in))
	}
	for i, s := range in {
		want := strokeCall{s.X, s.Y, s.Pressure, s.XTilt, s.YTilt, s.DTime}
		if f.calls[i] != want {
			t.Errorf("call %d = %+v, want %+v", i, f.calls[i], want)
		}
	}
	if len(s.dabs) != len(in) {
		t.Errorf("surface got %d dabs, want %d", len(s.dabs), len(in))
	}
	if s.depth != 0 {
		t.Errorf("atomic depth = %d after render, want 0", s.depth)
	}
}

func TestRenderNotFinished(t *testing.T) {
	rec := NewRecord()
	if err := rec.StartRecording(newFakeEngine()); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	s := &mockSurface{}
	err := rec.Render(s, factoryFor(&fakeReplay{}))
	if !errors.Is(err, ErrNotFinished) || !errors.Is(err, ErrContract) {
		t.Errorf("Render while recording = %v, want ErrNotFinished", err)
	}
	if s.beginCalls != 0 {
		t.Error("atomic region opened for an unfinished record")
	}
}

func TestRenderNilFactory(t *testing.T) {
	rec := recordSamples(t, 0)
	if err := rec.Render(&mockSurface{}, nil); !errors.Is(err, ErrContract) {
		t.Errorf("Render(nil factory) = %v, want ErrContract", err)
	}
}

func TestRenderEngineErrorClosesAtomic(t *testing.T) {
	rec := recordSamples(t, 0.02, threeSamples...)
	s := &mockSurface{}
	f := &fakeReplay{failAt: 2}

	err := rec.Render(s, factoryFor(f))
	if !errors.Is(err, errEngine) {
		t.Fatalf("Render = %v, want engine error", err)
	}
	if errors.Is(err, ErrCorrupt) || errors.Is(err, ErrContract) {
		t.Errorf("engine error %v should not be classified as corrupt or contract", err)
	}
	if s.beginCalls != 1 || s.endCalls != 1 {
		t.Errorf("atomic region begin=%d end=%d, want 1/1", s.beginCalls, s.endCalls)
	}
	if len(f.calls) != 2 {
		t.Errorf("replay continued after error: %d calls", len(f.calls))
	}
}

func TestRenderUnbuildableEngine(t *testing.T) {
	rec := recordSamples(t, 0.02, threeSamples...)
	errParse := errors.New("parse settings")

	tests := []struct {
		name    string
		factory EngineFactory
	}{
		{"config rejected", func([]byte) (ReplayEngine, error) { return nil, errParse }},
		{"state rejected", factoryFor(&fakeReplay{stateErr: errParse})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &mockSurface{}
			err := rec.Render(s, tt.factory)
			if !errors.Is(err, ErrBadConfig) || !errors.Is(err, ErrCorrupt) {
				t.Fatalf("Render = %v, want ErrBadConfig", err)
			}
			if !errors.Is(err, errParse) {
				t.Errorf("Render = %v, lost the engine's reason", err)
			}
			if s.beginCalls != 0 || len(s.dabs) != 0 {
				t.Errorf("surface touched: begin=%d dabs=%d", s.beginCalls, len(s.dabs))
			}
		})
	}
}

func TestRenderPanicClosesAtomic(t *testing.T) {
	rec := recordSamples(t, 0.02, threeSamples...)
	s := &mockSurface{}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected engine panic to propagate")
			}
		}()
		_ = rec.Render(s, factoryFor(&fakeReplay{panicAt: 1}))
	}()

	if s.depth != 0 {
		t.Errorf("atomic depth = %d after panic, want 0", s.depth)
	}
}

func TestRenderCorruptData(t *testing.T) {
	good := recordSamples(t, 0.02, threeSamples...)
	snap, err := good.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Snapshot)
		want   error
	}{
		{"wrong version", func(s *Snapshot) { s.StrokeData[0] = '1' }, ErrVersion},
		{"empty data", func(s *Snapshot) { s.StrokeData = nil }, ErrVersion},
		{"partial row", func(s *Snapshot) { s.StrokeData = s.StrokeData[:len(s.StrokeData)-1] }, ErrTruncated},
		{"bad state width", func(s *Snapshot) { s.BrushState = s.BrushState[:5] }, ErrStateWidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := snap
			bad.StrokeData = slices.Clone(snap.StrokeData)
			bad.BrushState = slices.Clone(snap.BrushState)
			tt.mutate(&bad)
			rec := Restore(bad)

			s := &mockSurface{}
			f := &fakeReplay{}
			err := rec.Render(s, factoryFor(f))
			if !errors.Is(err, tt.want) || !errors.Is(err, ErrCorrupt) {
				t.Fatalf("Render = %v, want %v", err, tt.want)
			}
			if errors.Is(err, ErrContract) {
				t.Errorf("corrupt data reported as contract violation: %v", err)
			}
			if len(f.calls) != 0 {
				t.Error("corrupt record was partially replayed")
			}
			if s.depth != 0 {
				t.Errorf("atomic depth = %d, want 0", s.depth)
			}
			if verr := rec.Validate(); !errors.Is(verr, tt.want) {
				t.Errorf("Validate() = %v, want %v", verr, tt.want)
			}
		})
	}
}

func TestCopyWithBrushConfig(t *testing.T) {
	orig := recordSamples(t, 0.02, threeSamples...)
	cfg := fakeConfig{data: []byte(`{"name":"charcoal"}`), parent: "classic/charcoal"}

	cp, err := orig.CopyWithBrushConfig(cfg)
	if err != nil {
		t.Fatalf("CopyWithBrushConfig: %v", err)
	}

	if cp.State() != StateFinished {
		t.Errorf("copy State() = %v, want finished", cp.State())
	}
	if cp.SerialNumber() == orig.SerialNumber() {
		t.Error("copy should get its own serial number")
	}
	if string(cp.BrushConfig()) != `{"name":"charcoal"}` || cp.ParentBrushName() != "classic/charcoal" {
		t.Errorf("copy config = %q parent = %q", cp.BrushConfig(), cp.ParentBrushName())
	}
	if string(orig.BrushConfig()) != `{"name":"pen"}` || orig.ParentBrushName() != "classic/pen" {
		t.Error("original config was modified")
	}
	if cp.TotalPaintingTime() != orig.TotalPaintingTime() {
		t.Errorf("painting time %v, want %v", cp.TotalPaintingTime(), orig.TotalPaintingTime())
	}
	if !bytes.Equal(cp.StrokeData(), orig.StrokeData()) {
		t.Error("copy should carry the same stroke data")
	}
	a, _ := orig.BrushState()
	b, _ := cp.BrushState()
	if !slices.Equal(a, b) {
		t.Errorf("brush state %v, want %v", b, a)
	}
}

func TestCopyWithBrushConfigNotFinished(t *testing.T) {
	_, err := NewRecord().CopyWithBrushConfig(fakeConfig{})
	if !errors.Is(err, ErrNotFinished) {
		t.Errorf("CopyWithBrushConfig on new record = %v, want ErrNotFinished", err)
	}
}

func TestSerialNumbersUnique(t *testing.T) {
	const goroutines = 16
	const perGoroutine = 100

	var mu sync.Mutex
	seen := make(map[uint64]bool)
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last uint64
			for range perGoroutine {
				s := NewRecord().SerialNumber()
				if s <= last {
					t.Errorf("serial %d not increasing after %d", s, last)
				}
				last = s
				mu.Lock()
				if seen[s] {
					t.Errorf("duplicate serial %d", s)
				}
				seen[s] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perGoroutine {
		t.Errorf("got %d unique serials, want %d", len(seen), goroutines*perGoroutine)
	}
}

func TestConcurrentRender(t *testing.T) {
	rec := recordSamples(t, 0.02, threeSamples...)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := &mockSurface{}
			f := &fakeReplay{}
			if err := rec.Render(s, factoryFor(f)); err != nil {
				t.Errorf("Render: %v", err)
			}
			if len(f.calls) != len(threeSamples) {
				t.Errorf("got %d calls", len(f.calls))
			}
		}()
	}
	wg.Wait()
}
