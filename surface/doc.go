// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides replay targets for stroke records.
//
// A Surface receives dabs from a brush engine through stroke.Backend and
// groups them into atomic regions, one per replayed record. The same record
// can be rendered onto any surface:
//
//   - ImageSurface: CPU raster rendering through gg
//   - PDFSurface: vector output, one translucent circle per dab
//
// # Atomic Regions
//
// BeginAtomic and EndAtomic nest. ImageSurface collects the area touched by
// dabs and reports it to its observers when the outermost region closes, so
// a viewer redraws once per stroke rather than once per dab.
//
// # Registry
//
// Surfaces are created by name through a registry, following the
// database/sql driver pattern:
//
//	surface.Register("tiles", 20, newTileSurface, nil)
//
//	s, err := surface.NewByName("image", surface.Options{Width: 800, Height: 600})
//
// The built-in backends are "image" and "pdf".
//
// # Usage
//
//	s := surface.NewImageSurface(800, 600)
//	defer s.Close()
//
//	s.Clear(color.White)
//	if err := rec.Render(s, brush.Factory); err != nil {
//	    return err
//	}
//	err := s.SavePNG("stroke.png")
package surface
