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

	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"
)

const (
	// cornerScaleLimit caps the 1/sin(θ/2) vertex displacement factor
	// so that near-180° turns do not send the offset point to infinity.
	// The value is empirically tuned; the inward/outward round-trip
	// test validates it.
	cornerScaleLimit = 4.0

	// offsetArcFlatness is the sagitta tolerance in mm for arcs
	// inserted at round joins.
	offsetArcFlatness = 0.05

	// maxLoopSplitDepth bounds the recursion when separating
	// self-intersecting offset rings.
	maxLoopSplitDepth = 16
)

// Offset displaces the boundary of a closed polygon by the signed
// distance: positive grows the region, negative shrinks it. The join
// style controls the geometry at fattening corners; round joins insert
// arcs, miter joins a single clamped miter point, bevel joins connect
// the two offset edges directly.
//
// The result can be empty (the polygon collapsed), a single polygon,
// or several polygons (a concave region pinched apart by an inward
// offset). An empty result is a valid product, not an error. The
// vertex order of the input is preserved in all results.
//
// Offset is a pure function with no shared state and is safe to call
// concurrently.
func Offset(p Polygon, distance float64, join graphics.LineJoinStyle) []Polygon {
	poly := p.Normalize()
	if len(poly) < 3 {
		logger().Warn("offset of degenerate polygon", "points", len(poly))
		return nil
	}
	if distance == 0 {
		out := make(Polygon, len(poly))
		copy(out, poly)
		return []Polygon{out}
	}

	// Work on a counter-clockwise copy so that "outward" has a fixed
	// meaning; restore the input orientation at the end.
	flipped := poly.SignedArea() < 0
	if flipped {
		poly = poly.Reverse()
	}

	ring := dedupeRing(offsetRing(poly, distance, join))
	if len(ring) < 3 {
		logger().Warn("offset collapsed", "distance", distance)
		return nil
	}

	var out []Polygon
	for _, tagged := range splitLoops(ring, 0) {
		// Shrinking past the width of the region turns the ring inside
		// out. Point inversion preserves orientation, so the area sign
		// alone cannot catch a fully inverted loop; its displaced edges
		// running against their source edges can.
		if invertedLoop(tagged, poly) {
			continue
		}
		loop := make(Polygon, len(tagged))
		for k, op := range tagged {
			loop[k] = op.pt
		}
		loop = loop.Normalize()
		// Pinched-off slivers come out with reversed orientation.
		if len(loop) < 3 || loop.SignedArea() <= 0 || loop.Area() < minRegionArea {
			continue
		}
		if flipped {
			loop = loop.Reverse()
		}
		out = append(out, loop)
	}
	if len(out) == 0 {
		logger().Warn("offset collapsed", "distance", distance)
	}
	return out
}

// offsetPoint is one vertex of the raw displaced ring. src is the
// index of the source edge the outgoing ring edge is displaced from;
// join geometry (arc and bevel points) carries src == -1.
type offsetPoint struct {
	pt  vec.Vec2
	src int
}

// offsetRing builds the raw displaced ring for a counter-clockwise
// polygon. The ring may self-intersect; the caller separates loops.
func offsetRing(poly Polygon, d float64, join graphics.LineJoinStyle) []offsetPoint {
	n := len(poly)
	ring := make([]offsetPoint, 0, n+n/2)

	for i := range n {
		prev := poly[(i+n-1)%n]
		v := poly[i]
		next := poly[(i+1)%n]

		t1 := v.Sub(prev)
		t2 := next.Sub(v)
		l1, l2 := t1.Length(), t2.Length()
		if l1 < pointEqTolerance || l2 < pointEqTolerance {
			continue
		}
		t1 = t1.Mul(1 / l1)
		t2 = t2.Mul(1 / l2)

		// Outward edge normals for counter-clockwise orientation.
		n1 := vec.Vec2{X: t1.Y, Y: -t1.X}
		n2 := vec.Vec2{X: t2.Y, Y: -t2.X}

		cosTheta := t1.Dot(t2)
		sinTheta := t1.X*t2.Y - t1.Y*t2.X

		// Fattening corners (displacement on the convex side) get the
		// join geometry; shrinking corners always get the clamped
		// miter point, which is the intersection of the two offset
		// edges.
		fattening := (sinTheta > 0) == (d > 0)

		if fattening && join == graphics.LineJoinRound && math.Abs(sinTheta) > 1e-9 {
			appendCornerArc(&ring, v, n1, n2, d, i)
			continue
		}
		if fattening && join == graphics.LineJoinBevel && math.Abs(sinTheta) > 1e-9 {
			ring = append(ring,
				offsetPoint{v.Add(n1.Mul(d)), -1},
				offsetPoint{v.Add(n2.Mul(d)), i})
			continue
		}

		// Bisector-averaged normal, scaled by 1/sin(θ/2) so the
		// displaced point lies on both offset edges. Clamped so sharp
		// turns do not diverge.
		bisector := n1.Add(n2)
		bl := bisector.Length()
		if bl < pointEqTolerance {
			// Cusp: the path doubles back on itself. Fall back to the
			// two plain offset points.
			ring = append(ring,
				offsetPoint{v.Add(n1.Mul(d)), -1},
				offsetPoint{v.Add(n2.Mul(d)), i})
			continue
		}
		bisector = bisector.Mul(1 / bl)

		sinHalf := math.Sqrt((1 + cosTheta) / 2)
		scale := cornerScaleLimit
		if sinHalf > 1/cornerScaleLimit {
			scale = 1 / sinHalf
		}
		ring = append(ring, offsetPoint{v.Add(bisector.Mul(d*scale)), i})
	}
	return ring
}

// dedupeRing removes consecutive coincident ring points, including the
// wraparound pair. When two points coincide the later one survives, so
// the src tag stays with the outgoing edge it describes.
func dedupeRing(ring []offsetPoint) []offsetPoint {
	out := ring[:0]
	for _, op := range ring {
		if len(out) > 0 && op.pt.Sub(out[len(out)-1].pt).Length() < pointEqTolerance {
			out[len(out)-1] = op
			continue
		}
		out = append(out, op)
	}
	if len(out) > 1 && out[len(out)-1].pt.Sub(out[0].pt).Length() < pointEqTolerance {
		out = out[:len(out)-1]
	}
	return out
}

// invertedLoop reports whether a split-off loop is the inside-out
// image of a collapsed region: its tagged edges run against the source
// edges they were displaced from. Valid loops have none.
func invertedLoop(loop []offsetPoint, src Polygon) bool {
	n := len(src)
	forward, reversed := 0, 0
	for k, op := range loop {
		if op.src < 0 {
			continue
		}
		e := loop[(k+1)%len(loop)].pt.Sub(op.pt)
		s := src[(op.src+1)%n].Sub(src[op.src])
		switch d := e.Dot(s); {
		case d > 0:
			forward++
		case d < 0:
			reversed++
		}
	}
	return reversed > 0 && reversed >= forward
}

// appendCornerArc appends an arc of radius |d| around the corner v,
// sweeping from the offset point of the incoming edge to the offset
// point of the outgoing edge.
func appendCornerArc(ring *[]offsetPoint, v, n1, n2 vec.Vec2, d float64, src int) {
	radius := math.Abs(d)
	start := n1.Mul(d / radius) // unit direction from v to arc start
	end := n2.Mul(d / radius)

	cosSweep := start.Dot(end)
	sweep := math.Acos(max(-1, min(1, cosSweep)))
	if start.X*end.Y-start.Y*end.X < 0 {
		sweep = -sweep
	}

	// Segment count from the sagitta bound, as for stroked arcs.
	angleStep := 2 * math.Acos(1-offsetArcFlatness/radius)
	if angleStep <= 0 || math.IsNaN(angleStep) {
		angleStep = math.Pi / 4
	}
	steps := max(int(math.Ceil(math.Abs(sweep)/angleStep)), 1)

	dt := sweep / float64(steps)
	for i := 0; i <= steps; i++ {
		angle := float64(i) * dt
		cos, sin := math.Cos(angle), math.Sin(angle)
		dir := vec.Vec2{
			X: start.X*cos - start.Y*sin,
			Y: start.X*sin + start.Y*cos,
		}
		tag := -1
		if i == steps {
			tag = src
		}
		*ring = append(*ring, offsetPoint{v.Add(dir.Mul(radius)), tag})
	}
}

// splitLoops separates a self-intersecting ring into simple loops by
// cutting at the first crossing found and recursing on both halves.
// Rings without self-intersections are returned unchanged.
func splitLoops(ring []offsetPoint, depth int) [][]offsetPoint {
	n := len(ring)
	if n < 4 || depth >= maxLoopSplitDepth {
		return [][]offsetPoint{ring}
	}
	for i := 0; i < n; i++ {
		a0 := ring[i].pt
		a1 := ring[(i+1)%n].pt
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent via wraparound
			}
			b0 := ring[j].pt
			b1 := ring[(j+1)%n].pt
			pt, _, _, ok := segIntersect(a0, a1, b0, b1)
			if !ok {
				continue
			}

			// Cut points keep the src tag of the edge they subdivide.

			// Loop 1: pt, ring[i+1 .. j]
			loop1 := make([]offsetPoint, 0, j-i+1)
			loop1 = append(loop1, offsetPoint{pt, ring[i].src})
			loop1 = append(loop1, ring[i+1:j+1]...)

			// Loop 2: pt, ring[j+1 ..], ring[.. i]
			loop2 := make([]offsetPoint, 0, n-(j-i)+1)
			loop2 = append(loop2, offsetPoint{pt, ring[j].src})
			loop2 = append(loop2, ring[j+1:]...)
			loop2 = append(loop2, ring[:i+1]...)

			out := splitLoops(loop1, depth+1)
			return append(out, splitLoops(loop2, depth+1)...)
		}
	}
	return [][]offsetPoint{ring}
}
