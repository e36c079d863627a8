// seehuhn.de/go/plot - toolpath generation for pen plotters
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package plot

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Placement positions one drawing on the machine bed. The machine's
// first axis runs along the design Y direction, so the conversion from
// design space to machine space swaps the axes and then adds the
// placement offset.
type Placement struct {
	// OffsetX, OffsetY shift the drawing on the bed, in machine-space
	// millimeters.
	OffsetX, OffsetY float64
}

// Matrix returns the design-to-machine transformation.
func (p Placement) Matrix() matrix.Matrix {
	return matrix.Matrix{0, 1, 1, 0, p.OffsetX, p.OffsetY}
}

// Apply converts one design-space point to machine space.
func (p Placement) Apply(v vec.Vec2) vec.Vec2 {
	m := p.Matrix()
	return vec.Vec2{
		X: m[0]*v.X + m[2]*v.Y + m[4],
		Y: m[1]*v.X + m[3]*v.Y + m[5],
	}
}

// DesignBounds returns the bounding box of the strokes in design
// space, before the axis swap. Placement validation works on these
// bounds, not on machine coordinates.
func DesignBounds(strokes []Stroke) rect.Rect {
	var r rect.Rect
	first := true
	for _, s := range strokes {
		for _, pt := range s.Points {
			if first {
				r = rect.Rect{LLx: pt.X, LLy: pt.Y, URx: pt.X, URy: pt.Y}
				first = false
				continue
			}
			r.LLx = min(r.LLx, pt.X)
			r.LLy = min(r.LLy, pt.Y)
			r.URx = max(r.URx, pt.X)
			r.URy = max(r.URy, pt.Y)
		}
	}
	return r
}
