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
	"math"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

const (
	// pointEqTolerance is the distance below which two points are
	// considered identical during normalization.
	pointEqTolerance = 1e-9

	// closedTolerance is the distance below which the first and last
	// point of a polyline are considered coincident.
	closedTolerance = 1e-3

	// minRegionArea is the smallest polygon area (in mm²) still
	// considered drawable. Smaller pieces are discarded.
	minRegionArea = 0.01

	// defaultCurveFlatness is the curve flattening tolerance in mm
	// used when converting paths to polygons.
	defaultCurveFlatness = 0.05
)

// Polygon is a closed region boundary given as an ordered list of
// vertices in design-space millimetres. The closing edge from the last
// vertex back to the first is implicit; a duplicated closing vertex in
// the input is removed by Normalize.
type Polygon []vec.Vec2

// Normalize returns a copy of the polygon with consecutive duplicate
// vertices and a duplicated closing vertex removed. The result may have
// fewer than 3 vertices; such polygons are degenerate and are skipped
// (with a warning) by all processing stages.
func (p Polygon) Normalize() Polygon {
	out := make(Polygon, 0, len(p))
	for _, v := range p {
		if len(out) > 0 && v.Sub(out[len(out)-1]).Length() < pointEqTolerance {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && out[len(out)-1].Sub(out[0]).Length() < pointEqTolerance {
		out = out[:len(out)-1]
	}
	return out
}

// SignedArea returns the polygon area with sign: positive for
// counter-clockwise vertex order, negative for clockwise.
func (p Polygon) SignedArea() float64 {
	if len(p) < 3 {
		return 0
	}
	sum := 0.0
	for i, a := range p {
		b := p[(i+1)%len(p)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Area returns the absolute polygon area.
func (p Polygon) Area() float64 {
	return math.Abs(p.SignedArea())
}

// Perimeter returns the length of the closed boundary.
func (p Polygon) Perimeter() float64 {
	if len(p) < 2 {
		return 0
	}
	sum := 0.0
	for i, a := range p {
		b := p[(i+1)%len(p)]
		sum += b.Sub(a).Length()
	}
	return sum
}

// Bounds returns the axis-aligned bounding box of the polygon.
// For an empty polygon the zero rectangle is returned.
func (p Polygon) Bounds() rect.Rect {
	if len(p) == 0 {
		return rect.Rect{}
	}
	r := rect.Rect{LLx: p[0].X, LLy: p[0].Y, URx: p[0].X, URy: p[0].Y}
	for _, v := range p[1:] {
		r.LLx = min(r.LLx, v.X)
		r.LLy = min(r.LLy, v.Y)
		r.URx = max(r.URx, v.X)
		r.URy = max(r.URy, v.Y)
	}
	return r
}

// Contains reports whether pt lies inside the polygon under the
// even-odd rule. Points exactly on the boundary may be classified
// either way.
func (p Polygon) Contains(pt vec.Vec2) bool {
	if len(p) < 3 {
		return false
	}
	inside := false
	for i, a := range p {
		b := p[(i+1)%len(p)]
		// Half-open rule: each crossing of the horizontal ray through pt
		// is counted exactly once, including crossings at vertices.
		if (a.Y <= pt.Y) != (b.Y <= pt.Y) {
			x := a.X + (pt.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// ContainsPolygon reports whether every vertex of q lies inside p.
func (p Polygon) ContainsPolygon(q Polygon) bool {
	if len(p) < 3 || len(q) == 0 {
		return false
	}
	for _, v := range q {
		if !p.Contains(v) {
			return false
		}
	}
	return true
}

// Reverse returns a copy with opposite vertex order.
func (p Polygon) Reverse() Polygon {
	out := make(Polygon, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// segIntersect returns the proper intersection point of segments a0–a1
// and b0–b1, together with the parameters along each segment. Parallel
// or non-crossing segments yield ok=false. Crossings at the very ends
// of a segment (within parameter tolerance) are treated as misses so
// that shared vertices of adjacent edges do not count as intersections.
func segIntersect(a0, a1, b0, b1 vec.Vec2) (pt vec.Vec2, ta, tb float64, ok bool) {
	d1 := a1.Sub(a0)
	d2 := b1.Sub(b0)
	denom := d1.X*d2.Y - d1.Y*d2.X
	if math.Abs(denom) < 1e-12 {
		return vec.Vec2{}, 0, 0, false
	}
	w := b0.Sub(a0)
	ta = (w.X*d2.Y - w.Y*d2.X) / denom
	tb = (w.X*d1.Y - w.Y*d1.X) / denom
	const tEps = 1e-9
	if ta <= tEps || ta >= 1-tEps || tb <= tEps || tb >= 1-tEps {
		return vec.Vec2{}, 0, 0, false
	}
	return a0.Add(d1.Mul(ta)), ta, tb, true
}

// segCross reports whether segments a0–a1 and b0–b1 cross, using a
// closed parameter range (endpoint touches count).
func segCross(a0, a1, b0, b1 vec.Vec2) bool {
	d1 := a1.Sub(a0)
	d2 := b1.Sub(b0)
	denom := d1.X*d2.Y - d1.Y*d2.X
	if math.Abs(denom) < 1e-12 {
		return false
	}
	w := b0.Sub(a0)
	ta := (w.X*d2.Y - w.Y*d2.X) / denom
	tb := (w.X*d1.Y - w.Y*d1.X) / denom
	return ta >= 0 && ta <= 1 && tb >= 0 && tb <= 1
}

// PolygonsFromPath converts a path into closed polygons, flattening
// curve segments with the given tolerance (mm). Pass flatness <= 0 to
// use the default. Open subpaths are closed implicitly; subpaths that
// remain degenerate after normalization are dropped with a warning.
func PolygonsFromPath(p path.Path, flatness float64) []Polygon {
	if flatness <= 0 {
		flatness = defaultCurveFlatness
	}

	var polys []Polygon
	var cur Polygon
	var currentPt vec.Vec2
	inSubpath := false

	emit := func(from, to vec.Vec2) {
		cur = append(cur, to)
	}
	flush := func() {
		poly := cur.Normalize()
		if len(poly) >= 3 {
			polys = append(polys, poly)
		} else if len(poly) > 0 {
			logger().Warn("dropping degenerate subpath",
				"points", len(poly))
		}
		cur = nil
	}

	for cmd, pts := range p {
		switch cmd {
		case path.CmdMoveTo:
			if inSubpath {
				flush()
			}
			currentPt = pts[0]
			cur = Polygon{currentPt}
			inSubpath = true

		case path.CmdLineTo:
			if !inSubpath {
				continue
			}
			cur = append(cur, pts[0])
			currentPt = pts[0]

		case path.CmdQuadTo:
			if !inSubpath {
				continue
			}
			flattenQuadratic(currentPt, pts[0], pts[1], flatness, emit)
			currentPt = pts[1]

		case path.CmdCubeTo:
			if !inSubpath {
				continue
			}
			flattenCubic(currentPt, pts[0], pts[1], pts[2], flatness, emit)
			currentPt = pts[2]

		case path.CmdClose:
			if inSubpath {
				flush()
				inSubpath = false
			}
		}
	}
	if inSubpath {
		flush()
	}
	return polys
}

// PolygonsFromData converts path data into closed polygons using direct
// field access (no iterator allocation).
func PolygonsFromData(d *path.Data, flatness float64) []Polygon {
	return PolygonsFromPath(func(yield func(path.Command, []vec.Vec2) bool) {
		coordIdx := 0
		for _, cmd := range d.Cmds {
			var pts []vec.Vec2
			switch cmd {
			case path.CmdMoveTo, path.CmdLineTo:
				pts = d.Coords[coordIdx : coordIdx+1]
				coordIdx++
			case path.CmdQuadTo:
				pts = d.Coords[coordIdx : coordIdx+2]
				coordIdx += 2
			case path.CmdCubeTo:
				pts = d.Coords[coordIdx : coordIdx+3]
				coordIdx += 3
			}
			if !yield(cmd, pts) {
				return
			}
		}
	}, flatness)
}

// flattenQuadratic flattens a quadratic Bézier and calls emit for each
// line segment. p0 is the start point, p1 is control, p2 is endpoint.
func flattenQuadratic(p0, p1, p2 vec.Vec2, flatness float64, emit func(from, to vec.Vec2)) {
	// error vector: e = (P0 - 2*P1 + P2) / 4
	e := p0.Sub(p1.Mul(2)).Add(p2).Mul(0.25)

	n := 1
	errLen := e.Length()
	if errLen > flatness {
		n = int(math.Ceil(math.Sqrt(errLen / flatness)))
	}

	prev := p0
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		omt := 1 - t
		pt := p0.Mul(omt * omt).Add(p1.Mul(2 * omt * t)).Add(p2.Mul(t * t))
		emit(prev, pt)
		prev = pt
	}
}

// flattenCubic flattens a cubic Bézier using Wang's formula for the
// segment count. p0 is start, p1/p2 are controls, p3 is endpoint.
func flattenCubic(p0, p1, p2, p3 vec.Vec2, flatness float64, emit func(from, to vec.Vec2)) {
	d1 := p0.Sub(p1.Mul(2)).Add(p2) // P0 - 2*P1 + P2
	d2 := p1.Sub(p2.Mul(2)).Add(p3) // P1 - 2*P2 + P3

	m := max(d1.Length(), d2.Length())
	n := 1
	if m > 0 {
		// n = ceil(sqrt(3 * m / (4 * ε)))
		nFloat := math.Sqrt(3 * m / (4 * flatness))
		if nFloat > 1 {
			n = int(math.Ceil(nFloat))
		}
	}

	prev := p0
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		omt := 1 - t
		omt2 := omt * omt
		omt3 := omt2 * omt
		t2 := t * t
		t3 := t2 * t
		pt := p0.Mul(omt3).Add(p1.Mul(3 * omt2 * t)).Add(p2.Mul(3 * omt * t2)).Add(p3.Mul(t3))
		emit(prev, pt)
		prev = pt
	}
}
