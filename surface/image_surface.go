// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/stroke"
)

// ImageSurface is a CPU-based surface that renders dabs with gg.
//
// Dabs are drawn as anti-aliased filled circles. Soft dabs are approximated
// by concentric circles whose combined opacity at the center equals the dab
// opacity.
//
// Example:
//
//	s := surface.NewImageSurface(800, 600)
//	defer s.Close()
//
//	s.Clear(color.White)
//	_ = rec.Render(s, brush.Factory)
//	_ = s.SavePNG("out.png")
type ImageSurface struct {
	width  int
	height int
	dc     *gg.Context

	// depth is the atomic region nesting level.
	depth int

	// dirty accumulates the area touched inside the current region.
	dirty     image.Rectangle
	observers []func(image.Rectangle)

	dabs   int
	closed bool
}

// NewImageSurface creates a new transparent surface with the given
// dimensions.
func NewImageSurface(width, height int) *ImageSurface {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}

	return &ImageSurface{
		width:  width,
		height: height,
		dc:     gg.NewContext(width, height),
	}
}

// Width returns the surface width.
func (s *ImageSurface) Width() int {
	return s.width
}

// Height returns the surface height.
func (s *ImageSurface) Height() int {
	return s.height
}

// Bounds returns the surface rectangle.
func (s *ImageSurface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

// Clear fills the entire surface with the given color. The whole surface is
// marked dirty.
func (s *ImageSurface) Clear(c color.Color) {
	if s.closed {
		return
	}
	s.dc.ClearWithColor(gg.FromColor(c))
	s.touch(s.Bounds())
}

// BeginAtomic opens an atomic region. Regions nest.
func (s *ImageSurface) BeginAtomic() {
	s.depth++
}

// EndAtomic closes an atomic region. When the outermost region closes, the
// observers are called once with the area drawn inside it.
func (s *ImageSurface) EndAtomic() {
	if s.depth == 0 {
		stroke.Logger().Warn("surface: EndAtomic without BeginAtomic")
		return
	}
	s.depth--
	if s.depth == 0 {
		s.flushDirty()
	}
}

// AtomicDepth returns the current atomic region nesting level.
func (s *ImageSurface) AtomicDepth() int {
	return s.depth
}

// AddObserver registers fn to be called with each dirty rectangle.
func (s *ImageSurface) AddObserver(fn func(dirty image.Rectangle)) {
	if fn != nil {
		s.observers = append(s.observers, fn)
	}
}

// Backend returns the surface itself.
func (s *ImageSurface) Backend() stroke.Backend {
	return s
}

// DrawDab draws one dab. It reports whether the dab touched the surface.
func (s *ImageSurface) DrawDab(d stroke.Dab) bool {
	if s.closed || !visible(d) {
		return false
	}
	area := dabBounds(d).Intersect(s.Bounds())
	if area.Empty() {
		return false
	}

	n := falloffRings(d.Hardness)
	alpha := 1 - math.Pow(1-math.Min(d.Opaque, 1), 1/float64(n))
	hardness := math.Max(0, math.Min(1, d.Hardness))
	for i := range n {
		r := d.Radius * (1 - float64(i)/float64(n)*(1-hardness))
		s.dc.SetRGBA(d.R, d.G, d.B, alpha)
		s.dc.DrawCircle(d.X, d.Y, r)
		if err := s.dc.Fill(); err != nil {
			stroke.Logger().Debug("surface: dab fill failed", "error", err)
			return false
		}
	}

	s.dabs++
	s.touch(area)
	return true
}

// DabCount returns the number of dabs drawn since creation.
func (s *ImageSurface) DabCount() int {
	return s.dabs
}

// Image returns the surface contents.
func (s *ImageSurface) Image() image.Image {
	return s.dc.Image()
}

// Snapshot returns a copy of the surface contents as an RGBA image.
func (s *ImageSurface) Snapshot() *image.RGBA {
	img := image.NewRGBA(s.Bounds())
	draw.Draw(img, img.Bounds(), s.dc.Image(), image.Point{}, draw.Src)
	return img
}

// Thumbnail returns a copy scaled so that its longer side is maxSide pixels.
// Surfaces already smaller than that are copied unscaled.
func (s *ImageSurface) Thumbnail(maxSide int) *image.RGBA {
	longer := max(s.width, s.height)
	if maxSide <= 0 || longer <= maxSide {
		return s.Snapshot()
	}
	scale := float64(maxSide) / float64(longer)
	w := max(1, int(math.Round(float64(s.width)*scale)))
	h := max(1, int(math.Round(float64(s.height)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), s.dc.Image(), s.Bounds(), xdraw.Src, nil)
	return dst
}

// EncodePNG writes the surface as PNG.
func (s *ImageSurface) EncodePNG(w io.Writer) error {
	return s.dc.EncodePNG(w)
}

// Encode writes the surface as PNG.
func (s *ImageSurface) Encode(w io.Writer) error {
	return s.EncodePNG(w)
}

// SavePNG writes the surface to a PNG file.
func (s *ImageSurface) SavePNG(path string) error {
	return s.dc.SavePNG(path)
}

// Close releases the drawing context.
func (s *ImageSurface) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.dc.Close()
}

func (s *ImageSurface) touch(r image.Rectangle) {
	s.dirty = s.dirty.Union(r)
	if s.depth == 0 {
		s.flushDirty()
	}
}

func (s *ImageSurface) flushDirty() {
	if s.dirty.Empty() {
		return
	}
	dirty := s.dirty
	s.dirty = image.Rectangle{}
	for _, fn := range s.observers {
		fn(dirty)
	}
}
