package brush

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestCurveEval(t *testing.T) {
	c := Curve{{0, 0}, {0.5, 1}, {1, 0}}
	tests := []struct {
		x, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.25, 0.5},
		{0.5, 1},
		{0.75, 0.5},
		{1, 0},
		{2, 0},
	}
	for _, tt := range tests {
		if got := c.Eval(tt.x); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Eval(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
	if got := (Curve{}).Eval(3); got != 0 {
		t.Errorf("empty curve Eval = %v, want 0", got)
	}
}

func TestParseSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"old version", `{"version":2,"settings":{}}`, ErrUnsupportedVersion},
		{"missing version", `{"settings":{}}`, ErrUnsupportedVersion},
		{"single point curve", `{"version":3,"settings":{"opaque":{"base_value":1,"inputs":{"pressure":[[0,0]]}}}}`, ErrBadCurve},
		{"decreasing curve", `{"version":3,"settings":{"opaque":{"base_value":1,"inputs":{"pressure":[[1,0],[0,1]]}}}}`, ErrBadCurve},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSettings([]byte(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("ParseSettings() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := ParseSettings([]byte("{")); err == nil {
		t.Error("ParseSettings accepted malformed JSON")
	}
}

func TestSettingsSaveRoundTrip(t *testing.T) {
	in := `{"version":3,"parent_brush_name":"x","settings":{"opaque":{"base_value":0.5},"smudge":{"base_value":0.7,"inputs":{"speed1":[[0,0],[4,1]]}}}}`
	s, err := ParseSettings([]byte(in))
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	data, err := s.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	again, err := ParseSettings(data)
	if err != nil {
		t.Fatalf("ParseSettings(saved): %v", err)
	}
	if got := again.Get("smudge"); got != 0.7 {
		t.Errorf("unknown setting lost: smudge = %v", got)
	}
	if c := again.Settings["smudge"].Inputs["speed1"]; len(c) != 2 || c[1] != [2]float64{4, 1} {
		t.Errorf("unknown input lost: %v", c)
	}

	second, _ := again.Save()
	if !bytes.Equal(data, second) {
		t.Errorf("Save is not deterministic:\n%s\n%s", data, second)
	}
}

func TestSettingsParentNameNFC(t *testing.T) {
	s := NewSettings()
	s.Parent = "cafe\u0301"
	if got := s.ParentName(); got != "caf\u00e9" {
		t.Errorf("ParentName() = %q, want NFC form", got)
	}
}

func TestSettingsGetSet(t *testing.T) {
	s := &Settings{Version: SettingsVersion, Settings: map[string]Setting{}}
	if got := s.Get(Hardness); got != 0.8 {
		t.Errorf("default hardness = %v, want 0.8", got)
	}
	if got := s.Get("unknown"); got != 0 {
		t.Errorf("unknown setting = %v, want 0", got)
	}

	if err := s.SetInput(Opaque, InputPressure, Curve{{0, -1}, {1, 0}}); err != nil {
		t.Fatalf("SetInput: %v", err)
	}
	s.Set(Opaque, 0.5)
	if got := s.Get(Opaque); got != 0.5 {
		t.Errorf("Get(opaque) = %v, want 0.5", got)
	}
	if _, ok := s.Settings[Opaque].Inputs[InputPressure]; !ok {
		t.Error("Set dropped the input curve")
	}

	// 0.5 + curve(0.25) = 0.5 - 0.75
	if got := s.Value(Opaque, map[string]float64{InputPressure: 0.25}); math.Abs(got+0.25) > 1e-12 {
		t.Errorf("Value(opaque) = %v, want -0.25", got)
	}

	if err := s.SetInput(Opaque, InputPressure, nil); err != nil {
		t.Fatalf("SetInput(nil): %v", err)
	}
	if got := s.Value(Opaque, map[string]float64{InputPressure: 0.25}); got != 0.5 {
		t.Errorf("Value after removing curve = %v, want 0.5", got)
	}

	if err := s.SetInput(Opaque, InputRandom, Curve{{0, 0}}); !errors.Is(err, ErrBadCurve) {
		t.Errorf("SetInput(bad curve) = %v, want ErrBadCurve", err)
	}
}

func TestSettingsZeroValue(t *testing.T) {
	var s Settings
	s.Set(RadiusLogarithmic, 2)
	if got := s.Get(RadiusLogarithmic); got != 2 {
		t.Errorf("Get(radius) = %v, want 2", got)
	}

	var in Settings
	if err := in.SetInput(Opaque, InputPressure, Curve{{0, 0}, {1, 1}}); err != nil {
		t.Fatalf("SetInput: %v", err)
	}
	if _, ok := in.Settings[Opaque].Inputs[InputPressure]; !ok {
		t.Error("SetInput on zero Settings lost the curve")
	}

	var rm Settings
	if err := rm.SetInput(Hardness, InputPressure, nil); err != nil {
		t.Fatalf("SetInput(nil): %v", err)
	}
	if got := rm.Get(Hardness); got != 0.8 {
		t.Errorf("Get(hardness) = %v, want default 0.8", got)
	}
}

func TestSettingsClone(t *testing.T) {
	s := NewSettings()
	if err := s.SetInput(Opaque, InputPressure, Curve{{0, 0}, {1, 1}}); err != nil {
		t.Fatalf("SetInput: %v", err)
	}
	c := s.Clone()
	c.Set(Opaque, 0.1)
	c.Settings[Opaque].Inputs[InputPressure][1][1] = 5

	if s.Get(Opaque) != 1 {
		t.Error("Clone shares base values")
	}
	if s.Settings[Opaque].Inputs[InputPressure][1][1] != 1 {
		t.Error("Clone shares curves")
	}
}

func TestSettingsNames(t *testing.T) {
	names := NewSettings().Names()
	if len(names) != len(defaults) {
		t.Fatalf("got %d names, want %d", len(names), len(defaults))
	}
	if strings.Join(names[:2], ",") != "color_h,color_s" {
		t.Errorf("names not sorted: %v", names)
	}
}
