// Package brush is a small deterministic dab engine for stroke records.
//
// A Brush is configured from Settings, a MyPaint style version 3 JSON brush
// file, and turns pointer motion into round dabs. It implements both sides of
// the stroke engine contract: stroke.Engine for recording and
// stroke.ReplayEngine for replay, so a record made with a Brush replays to
// the same dabs through Factory.
//
// # Settings
//
// Each setting has a base value and optional input curves. An input curve is
// a piecewise linear mapping from an input (pressure, random,
// tilt_declination) to an offset that is added to the base value:
//
//	{
//	  "version": 3,
//	  "parent_brush_name": "pen",
//	  "settings": {
//	    "radius_logarithmic": {
//	      "base_value": 1.2,
//	      "inputs": {"pressure": [[0, -0.5], [1, 0.5]]}
//	    }
//	  }
//	}
//
// Settings the engine does not know are preserved when the file is saved.
//
// # State
//
// The engine keeps everything that affects dab placement in a fixed vector of
// StateCount float32 values. A recording captures this vector; SetState puts
// it back before replay.
package brush
