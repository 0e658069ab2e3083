// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import "github.com/gogpu/stroke"

// Translate returns a surface that shifts every dab by (dx, dy) before
// passing it to s. Atomic regions are forwarded unchanged.
func Translate(s stroke.Surface, dx, dy float64) stroke.Surface {
	if dx == 0 && dy == 0 {
		return s
	}
	return &translated{s: s, dx: dx, dy: dy}
}

type translated struct {
	s      stroke.Surface
	dx, dy float64
}

func (t *translated) BeginAtomic() { t.s.BeginAtomic() }
func (t *translated) EndAtomic()   { t.s.EndAtomic() }

func (t *translated) Backend() stroke.Backend {
	return translatedBackend{b: t.s.Backend(), dx: t.dx, dy: t.dy}
}

type translatedBackend struct {
	b      stroke.Backend
	dx, dy float64
}

func (t translatedBackend) DrawDab(d stroke.Dab) bool {
	d.X += t.dx
	d.Y += t.dy
	return t.b.DrawDab(d)
}
