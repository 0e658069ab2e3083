// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"
	"image/color"
	"io"

	"github.com/gogpu/stroke"
)

// Surface is a replay target created by the registry.
//
// Surfaces are NOT thread-safe. Each surface should be used from a single
// goroutine, or external synchronization must be used.
type Surface interface {
	stroke.Surface

	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// Clear fills the entire surface with the given color.
	Clear(c color.Color)

	// Encode writes the surface in its native file format.
	Encode(w io.Writer) error

	// Close releases all resources associated with the surface.
	// Close is idempotent; multiple calls are safe.
	Close() error
}

// ObservableSurface is an optional interface for surfaces that report the
// area changed by each closed atomic region.
type ObservableSurface interface {
	Surface

	// AddObserver registers fn to be called with the dirty rectangle each
	// time the outermost atomic region closes after drawing.
	AddObserver(fn func(dirty image.Rectangle))
}

// RasterSurface is an optional interface for surfaces with pixel contents.
type RasterSurface interface {
	Surface

	// Snapshot returns a copy of the surface contents.
	Snapshot() *image.RGBA
}
