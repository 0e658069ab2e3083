// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image/color"
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"

	"github.com/gogpu/stroke"
)

// PDFSurface records dabs as vector circles on a single PDF page the size of
// the canvas, one point per pixel.
//
// The document is finalized by the first Encode, WriteTo or SaveToFile;
// dabs drawn after that are ignored.
type PDFSurface struct {
	width  int
	height int
	pdf    *gofpdf.Fpdf

	depth int
	dabs  int
	done  bool
}

// NewPDFSurface creates a surface with a blank page.
func NewPDFSurface(width, height int) *PDFSurface {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: float64(width), Ht: float64(height)},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("strokectl", false)
	pdf.AddPage()

	return &PDFSurface{width: width, height: height, pdf: pdf}
}

// Width returns the page width.
func (s *PDFSurface) Width() int {
	return s.width
}

// Height returns the page height.
func (s *PDFSurface) Height() int {
	return s.height
}

// Clear paints the whole page with c.
func (s *PDFSurface) Clear(c color.Color) {
	if s.done {
		return
	}
	r, g, b, a := c.RGBA()
	if a == 0 {
		return
	}
	// c.RGBA is premultiplied.
	s.pdf.SetAlpha(float64(a)/0xffff, "Normal")
	s.pdf.SetFillColor(int(r*0xff/a), int(g*0xff/a), int(b*0xff/a))
	s.pdf.Rect(0, 0, float64(s.width), float64(s.height), "F")
}

// BeginAtomic opens an atomic region.
func (s *PDFSurface) BeginAtomic() {
	s.depth++
}

// EndAtomic closes an atomic region.
func (s *PDFSurface) EndAtomic() {
	if s.depth > 0 {
		s.depth--
	}
}

// Backend returns the surface itself.
func (s *PDFSurface) Backend() stroke.Backend {
	return s
}

// DrawDab adds a filled circle for the dab.
func (s *PDFSurface) DrawDab(d stroke.Dab) bool {
	if s.done || !visible(d) {
		return false
	}
	if d.X+d.Radius < 0 || d.Y+d.Radius < 0 ||
		d.X-d.Radius > float64(s.width) || d.Y-d.Radius > float64(s.height) {
		return false
	}
	s.pdf.SetAlpha(math.Min(d.Opaque, 1), "Normal")
	s.pdf.SetFillColor(channel(d.R), channel(d.G), channel(d.B))
	s.pdf.Circle(d.X, d.Y, d.Radius, "F")
	s.dabs++
	return true
}

// DabCount returns the number of dabs drawn.
func (s *PDFSurface) DabCount() int {
	return s.dabs
}

// Encode finalizes the document and writes it to w.
func (s *PDFSurface) Encode(w io.Writer) error {
	s.done = true
	return s.pdf.Output(w)
}

// WriteTo finalizes the document and writes it to w.
func (s *PDFSurface) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := s.Encode(cw)
	return cw.n, err
}

// SaveToFile finalizes the document and writes it to path.
func (s *PDFSurface) SaveToFile(path string) error {
	s.done = true
	return s.pdf.OutputFileAndClose(path)
}

// Close finalizes the document without writing it.
func (s *PDFSurface) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	s.pdf.Close()
	return s.pdf.Error()
}

func channel(v float64) int {
	return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
