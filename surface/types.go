// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/stroke"
)

// Options configures surfaces created through the registry.
type Options struct {
	// Width and Height are the canvas size in pixels.
	Width  int
	Height int

	// Background is painted over the whole surface after creation.
	// Nil leaves the surface transparent.
	Background color.Color
}

// dabBounds returns the pixel rectangle covered by a dab.
func dabBounds(d stroke.Dab) image.Rectangle {
	return image.Rect(
		int(math.Floor(d.X-d.Radius)),
		int(math.Floor(d.Y-d.Radius)),
		int(math.Ceil(d.X+d.Radius)),
		int(math.Ceil(d.Y+d.Radius)),
	)
}

// visible reports whether a dab can leave a mark.
func visible(d stroke.Dab) bool {
	return d.Radius > 0 && d.Opaque > 0 &&
		!math.IsNaN(d.X) && !math.IsNaN(d.Y) &&
		!math.IsInf(d.X, 0) && !math.IsInf(d.Y, 0) && !math.IsInf(d.Radius, 0)
}

// falloffRings is the number of concentric circles used to approximate a
// dab with the given hardness. A fully hard dab is one circle.
func falloffRings(hardness float64) int {
	hardness = math.Max(0, math.Min(1, hardness))
	return 1 + int(math.Round((1-hardness)*4))
}
