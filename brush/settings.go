package brush

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"golang.org/x/text/unicode/norm"
)

// SettingsVersion is the brush file version this package reads and writes.
const SettingsVersion = 3

var (
	// ErrUnsupportedVersion is returned for brush files of another version.
	ErrUnsupportedVersion = errors.New("brush: unsupported settings version")

	// ErrBadCurve is returned for input curves with fewer than two points or
	// decreasing x coordinates.
	ErrBadCurve = errors.New("brush: invalid input curve")
)

// Names of the settings the engine reads.
const (
	Opaque              = "opaque"
	Hardness            = "hardness"
	RadiusLogarithmic   = "radius_logarithmic"
	DabsPerActualRadius = "dabs_per_actual_radius"
	DabsPerSecond       = "dabs_per_second"
	SlowTracking        = "slow_tracking"
	OffsetByRandom      = "offset_by_random"
	ColorH              = "color_h"
	ColorS              = "color_s"
	ColorV              = "color_v"
)

// Names of the inputs curves can map from.
const (
	InputPressure        = "pressure"
	InputRandom          = "random"
	InputTiltDeclination = "tilt_declination"
)

// defaults are the base values of known settings missing from a file.
var defaults = map[string]float64{
	Opaque:              1.0,
	Hardness:            0.8,
	RadiusLogarithmic:   2.0,
	DabsPerActualRadius: 2.0,
	DabsPerSecond:       0,
	SlowTracking:        0,
	OffsetByRandom:      0,
	ColorH:              0,
	ColorS:              0,
	ColorV:              0,
}

// Curve is a piecewise linear mapping given as [x, y] points sorted by x.
type Curve [][2]float64

// Eval returns the curve value at x. Outside the covered range the nearest
// end point's y is returned.
func (c Curve) Eval(x float64) float64 {
	if len(c) == 0 {
		return 0
	}
	if x <= c[0][0] {
		return c[0][1]
	}
	for i := 1; i < len(c); i++ {
		x0, y0 := c[i-1][0], c[i-1][1]
		x1, y1 := c[i][0], c[i][1]
		if x <= x1 {
			if x1 == x0 {
				return y1
			}
			return y0 + (y1-y0)*(x-x0)/(x1-x0)
		}
	}
	return c[len(c)-1][1]
}

func (c Curve) validate() error {
	if len(c) < 2 {
		return fmt.Errorf("%w: %d points", ErrBadCurve, len(c))
	}
	for i, p := range c {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) {
			return fmt.Errorf("%w: NaN at point %d", ErrBadCurve, i)
		}
		if i > 0 && p[0] < c[i-1][0] {
			return fmt.Errorf("%w: x decreases at point %d", ErrBadCurve, i)
		}
	}
	return nil
}

// Setting is one brush setting: a base value plus input curves.
type Setting struct {
	BaseValue float64          `json:"base_value"`
	Inputs    map[string]Curve `json:"inputs,omitempty"`
}

// Settings is a brush configuration. It implements stroke.Config.
type Settings struct {
	Version  int                `json:"version"`
	Comment  string             `json:"comment,omitempty"`
	Parent   string             `json:"parent_brush_name"`
	Settings map[string]Setting `json:"settings"`
}

// NewSettings returns settings with every known setting at its default.
func NewSettings() *Settings {
	s := &Settings{Version: SettingsVersion, Settings: make(map[string]Setting, len(defaults))}
	for name, v := range defaults {
		s.Settings[name] = Setting{BaseValue: v}
	}
	return s
}

// ParseSettings decodes a brush file.
func ParseSettings(data []byte) (*Settings, error) {
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("brush: parse settings: %w", err)
	}
	if s.Version != SettingsVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	if s.Settings == nil {
		s.Settings = make(map[string]Setting)
	}
	for name, st := range s.Settings {
		for input, c := range st.Inputs {
			if err := c.validate(); err != nil {
				return nil, fmt.Errorf("brush: setting %s input %s: %w", name, input, err)
			}
		}
	}
	return &s, nil
}

// Save encodes the settings. Equal settings always produce equal bytes.
func (s *Settings) Save() ([]byte, error) {
	return json.Marshal(s)
}

// ParentName returns the preset name these settings derive from, in NFC.
func (s *Settings) ParentName() string {
	return norm.NFC.String(s.Parent)
}

// Get returns the base value of a setting, or its default if unset.
func (s *Settings) Get(name string) float64 {
	if st, ok := s.Settings[name]; ok {
		return st.BaseValue
	}
	return defaults[name]
}

// Set changes the base value of a setting and keeps its input curves.
func (s *Settings) Set(name string, v float64) {
	st := s.Settings[name]
	st.BaseValue = v
	s.put(name, st)
}

func (s *Settings) put(name string, st Setting) {
	if s.Settings == nil {
		s.Settings = make(map[string]Setting)
	}
	s.Settings[name] = st
}

// SetInput sets the curve mapping input to an offset of the named setting.
// A nil curve removes the mapping.
func (s *Settings) SetInput(name, input string, c Curve) error {
	st, ok := s.Settings[name]
	if !ok {
		st.BaseValue = defaults[name]
	}
	if c == nil {
		delete(st.Inputs, input)
		s.put(name, st)
		return nil
	}
	if err := c.validate(); err != nil {
		return err
	}
	if st.Inputs == nil {
		st.Inputs = make(map[string]Curve)
	}
	st.Inputs[input] = slices.Clone(c)
	s.put(name, st)
	return nil
}

// Value evaluates a setting for the given input values.
func (s *Settings) Value(name string, inputs map[string]float64) float64 {
	st, ok := s.Settings[name]
	if !ok {
		return defaults[name]
	}
	v := st.BaseValue
	// Sorted so the sum is the same on every call.
	for _, input := range slices.Sorted(maps.Keys(st.Inputs)) {
		v += st.Inputs[input].Eval(inputs[input])
	}
	return v
}

// Clone returns a deep copy.
func (s *Settings) Clone() *Settings {
	out := *s
	out.Settings = make(map[string]Setting, len(s.Settings))
	for name, st := range s.Settings {
		if st.Inputs != nil {
			inputs := make(map[string]Curve, len(st.Inputs))
			for k, c := range st.Inputs {
				inputs[k] = slices.Clone(c)
			}
			st.Inputs = inputs
		}
		out.Settings[name] = st
	}
	return &out
}

// Names returns the names of the settings present, sorted.
func (s *Settings) Names() []string {
	return slices.Sorted(maps.Keys(s.Settings))
}
