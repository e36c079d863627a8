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
	"fmt"
	"math"
	"sort"

	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"
)

// Pattern selects the fill pattern synthesized inside a region.
type Pattern int

const (
	// PatternLines fills with parallel lines at the fill angle.
	PatternLines Pattern = iota

	// PatternGrid fills with two perpendicular line passes.
	PatternGrid

	// PatternCrosshatch fills with line passes at ±45° from the fill
	// angle.
	PatternCrosshatch

	// PatternZigzag fills with parallel lines connected into
	// continuous paths wherever the connector stays inside the region.
	PatternZigzag

	// PatternHoneycomb fills with the edges of a hexagonal lattice.
	PatternHoneycomb

	// PatternConcentric fills with inward offset rings of the region
	// boundary.
	PatternConcentric
)

func (p Pattern) String() string {
	switch p {
	case PatternLines:
		return "lines"
	case PatternGrid:
		return "grid"
	case PatternCrosshatch:
		return "crosshatch"
	case PatternZigzag:
		return "zigzag"
	case PatternHoneycomb:
		return "honeycomb"
	case PatternConcentric:
		return "concentric"
	default:
		return "unknown"
	}
}

const (
	// minDensity prevents unbounded scanline or ring counts when the
	// requested spacing is very small.
	minDensity = 0.1

	// maxScanlines caps the number of scanlines per pass.
	maxScanlines = 10000

	// maxConcentricRings caps the ring count per region.
	maxConcentricRings = 1000
)

// InfillSpec configures fill synthesis for one region.
type InfillSpec struct {
	Pattern Pattern

	// Density is the pattern spacing in mm. Must be > 0; values below
	// 0.1 mm are clamped during generation.
	Density float64

	// Angle is the fill angle in degrees, 0–180.
	Angle float64

	// WallOffset is the clearance in mm kept between the fill and the
	// region boundary. Must be >= 0.
	WallOffset float64
}

// Validate checks the configuration. Invalid values are the only hard
// failures of fill synthesis; all geometric degeneracies yield empty
// results instead.
func (s InfillSpec) Validate() error {
	if s.Density <= 0 {
		return fmt.Errorf("infill density must be positive, got %g", s.Density)
	}
	if s.Angle < 0 || s.Angle > 180 {
		return fmt.Errorf("infill angle must be in [0, 180], got %g", s.Angle)
	}
	if s.WallOffset < 0 {
		return fmt.Errorf("infill wall offset must be >= 0, got %g", s.WallOffset)
	}
	return nil
}

// Region is one fill target: an outer boundary minus its holes.
type Region struct {
	Outer Polygon
	Holes []Polygon
}

// clipRegion is a region after wall-offset preprocessing. The outer
// boundary can have split into several pieces, and holes can have
// grown.
type clipRegion struct {
	outers []Polygon
	holes  []Polygon
}

// contains reports whether pt lies inside some outer piece and outside
// all holes.
func (c *clipRegion) contains(pt vec.Vec2) bool {
	inside := false
	for _, o := range c.outers {
		if o.Contains(pt) {
			inside = true
			break
		}
	}
	if !inside {
		return false
	}
	for _, h := range c.holes {
		if h.Contains(pt) {
			return false
		}
	}
	return true
}

// nearBoundary reports whether pt lies within tol of some boundary
// edge. Connector points produced by clipping sit exactly on the
// boundary, where the half-open containment test is unreliable.
func (c *clipRegion) nearBoundary(pt vec.Vec2, tol float64) bool {
	near := false
	c.edges(func(a, b vec.Vec2) {
		if near {
			return
		}
		ab := b.Sub(a)
		t := pt.Sub(a).Dot(ab) / ab.Dot(ab)
		t = min(max(t, 0), 1)
		if pt.Sub(a.Add(ab.Mul(t))).Length() <= tol {
			near = true
		}
	})
	return near
}

// edges calls f for every boundary edge of the region, outer pieces
// and holes alike.
func (c *clipRegion) edges(f func(a, b vec.Vec2)) {
	each := func(poly Polygon) {
		for i, a := range poly {
			f(a, poly[(i+1)%len(poly)])
		}
	}
	for _, o := range c.outers {
		each(o)
	}
	for _, h := range c.holes {
		each(h)
	}
}

// GenerateInfill synthesizes fill strokes for a region. The returned
// strokes have Kind set to StrokeFill; color and tool assignment is
// the caller's business. An empty result (density larger than the
// shape, region collapsed by the wall offset, degenerate input) is
// valid and comes with a logged warning where appropriate.
func GenerateInfill(reg Region, spec InfillSpec) ([]Stroke, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	density := max(spec.Density, minDensity)

	clip, ok := prepareRegion(reg, spec.WallOffset)
	if !ok {
		return nil, nil
	}

	var strokes []Stroke
	switch spec.Pattern {
	case PatternLines:
		strokes = lineStrokes(clip, density, spec.Angle)
	case PatternGrid:
		strokes = lineStrokes(clip, density, spec.Angle)
		strokes = append(strokes, lineStrokes(clip, density, spec.Angle+90)...)
	case PatternCrosshatch:
		strokes = lineStrokes(clip, density, spec.Angle+45)
		strokes = append(strokes, lineStrokes(clip, density, spec.Angle-45)...)
	case PatternZigzag:
		strokes = zigzagStrokes(clip, density, spec.Angle)
	case PatternHoneycomb:
		strokes = honeycombStrokes(clip, density, spec.Angle)
	case PatternConcentric:
		strokes = concentricStrokes(clip, density)
	default:
		return nil, fmt.Errorf("unknown fill pattern %d", int(spec.Pattern))
	}
	for i := range strokes {
		strokes[i].Kind = StrokeFill
	}
	return strokes, nil
}

// prepareRegion normalizes the region and applies the wall offset:
// the outer boundary shrinks inward, holes grow outward. Returns
// ok=false when nothing fillable remains.
func prepareRegion(reg Region, wallOffset float64) (*clipRegion, bool) {
	outer := reg.Outer.Normalize()
	if len(outer) < 3 {
		logger().Warn("skipping fill of degenerate region",
			"points", len(outer))
		return nil, false
	}
	if outer.Area() < minRegionArea {
		return nil, false
	}

	var clip clipRegion
	if wallOffset > 0 {
		clip.outers = Offset(outer, -wallOffset, graphics.LineJoinRound)
		for _, h := range reg.Holes {
			h = h.Normalize()
			if len(h) < 3 {
				continue
			}
			clip.holes = append(clip.holes, Offset(h, wallOffset, graphics.LineJoinRound)...)
		}
	} else {
		clip.outers = []Polygon{outer}
		for _, h := range reg.Holes {
			h = h.Normalize()
			if len(h) >= 3 {
				clip.holes = append(clip.holes, h)
			}
		}
	}
	if len(clip.outers) == 0 {
		return nil, false
	}
	return &clip, true
}

// scanSegment is one clipped piece of a scanline.
type scanSegment struct {
	a, b vec.Vec2
}

// scanlinePass computes the clipped scanline segments for one pass at
// the given angle. The segments of each scanline are sorted along the
// line direction; scanlines come out in increasing normal order.
func scanlinePass(clip *clipRegion, density, angleDeg float64) [][]scanSegment {
	bounds := clip.outers[0].Bounds()
	for _, o := range clip.outers[1:] {
		b := o.Bounds()
		bounds.LLx = min(bounds.LLx, b.LLx)
		bounds.LLy = min(bounds.LLy, b.LLy)
		bounds.URx = max(bounds.URx, b.URx)
		bounds.URy = max(bounds.URy, b.URy)
	}
	width := bounds.URx - bounds.LLx
	height := bounds.URy - bounds.LLy
	if width <= 0 || height <= 0 {
		return nil
	}

	angle := angleDeg * math.Pi / 180
	dir := vec.Vec2{X: math.Cos(angle), Y: math.Sin(angle)}
	normal := vec.Vec2{X: -dir.Y, Y: dir.X}
	center := vec.Vec2{X: (bounds.LLx + bounds.URx) / 2, Y: (bounds.LLy + bounds.URy) / 2}

	// Project all boundary vertices onto the normal to find the range
	// the pattern has to cover.
	projMin := math.Inf(1)
	projMax := math.Inf(-1)
	clip.edges(func(a, b vec.Vec2) {
		p := a.Sub(center).Dot(normal)
		projMin = min(projMin, p)
		projMax = max(projMax, p)
	})
	if !(projMax > projMin) {
		return nil
	}

	// Scanlines sit at half-spacing from the projection extremes, so a
	// shape of width n*density gets exactly n lines, centered.
	numLines := int((projMax-projMin)/density + 1e-9)
	if numLines <= 0 {
		return nil
	}
	if numLines > maxScanlines {
		logger().Warn("scanline count exceeds limit, skipping fill",
			"lines", numLines, "limit", maxScanlines)
		return nil
	}

	var pass [][]scanSegment
	for i := range numLines {
		offset := projMin + (float64(i)+0.5)*density
		segs := clipScanline(clip, center, dir, normal, offset)
		if len(segs) > 0 {
			pass = append(pass, segs)
		}
	}
	return pass
}

// clipScanline intersects one infinite scanline with all region
// boundaries and pairs the crossings into interior segments. Holes
// contribute crossings like any other boundary, so the even-odd
// pairing keeps segments out of them.
func clipScanline(clip *clipRegion, center, dir, normal vec.Vec2, offset float64) []scanSegment {
	type crossing struct {
		u  float64 // parameter along dir
		pt vec.Vec2
	}
	var crossings []crossing

	clip.edges(func(a, b vec.Vec2) {
		sa := a.Sub(center).Dot(normal) - offset
		sb := b.Sub(center).Dot(normal) - offset
		// Half-open rule so a vertex exactly on the scanline is
		// counted once per passing boundary.
		if (sa > 0) == (sb > 0) {
			return
		}
		t := sa / (sa - sb)
		pt := a.Add(b.Sub(a).Mul(t))
		crossings = append(crossings, crossing{u: pt.Sub(center).Dot(dir), pt: pt})
	})

	if len(crossings) < 2 {
		return nil
	}
	sort.Slice(crossings, func(i, j int) bool {
		return crossings[i].u < crossings[j].u
	})

	var segs []scanSegment
	for i := 0; i+1 < len(crossings); i += 2 {
		a, b := crossings[i], crossings[i+1]
		if b.u-a.u < 1e-6 {
			continue // tangent touch, zero length
		}
		segs = append(segs, scanSegment{a: a.pt, b: b.pt})
	}
	return segs
}

// lineStrokes produces independent parallel line segments.
func lineStrokes(clip *clipRegion, density, angleDeg float64) []Stroke {
	var strokes []Stroke
	for _, segs := range scanlinePass(clip, density, angleDeg) {
		for _, s := range segs {
			strokes = append(strokes, Stroke{
				Points: []vec.Vec2{s.a, s.b},
			})
		}
	}
	return strokes
}

// zigzagStrokes produces parallel lines connected into continuous
// paths. Alternate scanlines are drawn in reverse so the connector to
// the next line is short; a connector is only used when it is no
// longer than twice the spacing and stays inside the region, checked
// by sampling points along it. Otherwise the path is broken and a new
// stroke starts.
func zigzagStrokes(clip *clipRegion, density, angleDeg float64) []Stroke {
	pass := scanlinePass(clip, density, angleDeg)
	if len(pass) == 0 {
		return nil
	}

	connectorOK := func(from, to vec.Vec2) bool {
		if to.Sub(from).Length() > 2*density {
			return false
		}
		const samples = 5
		for i := 1; i < samples; i++ {
			t := float64(i) / samples
			pt := from.Add(to.Sub(from).Mul(t))
			if !clip.contains(pt) && !clip.nearBoundary(pt, 1e-6) {
				return false
			}
		}
		return true
	}

	var strokes []Stroke
	var current []vec.Vec2
	flush := func() {
		if len(current) >= 2 {
			strokes = append(strokes, Stroke{Points: current})
		}
		current = nil
	}

	forward := true
	for _, segs := range pass {
		ordered := make([]scanSegment, len(segs))
		if forward {
			copy(ordered, segs)
		} else {
			for i, s := range segs {
				ordered[len(segs)-1-i] = scanSegment{a: s.b, b: s.a}
			}
		}
		for _, s := range ordered {
			if len(current) > 0 && connectorOK(current[len(current)-1], s.a) {
				current = append(current, s.a, s.b)
			} else {
				flush()
				current = []vec.Vec2{s.a, s.b}
			}
		}
		forward = !forward
	}
	flush()
	return strokes
}

// honeycombStrokes produces the edges of a hexagonal lattice clipped
// to the region. The lattice spacing across flats equals the density;
// an edge is kept when its midpoint lies inside the region or when it
// crosses a region boundary. Edges shared between neighboring cells
// are emitted once.
func honeycombStrokes(clip *clipRegion, density, angleDeg float64) []Stroke {
	bounds := clip.outers[0].Bounds()
	for _, o := range clip.outers[1:] {
		b := o.Bounds()
		bounds.LLx = min(bounds.LLx, b.LLx)
		bounds.LLy = min(bounds.LLy, b.LLy)
		bounds.URx = max(bounds.URx, b.URx)
		bounds.URy = max(bounds.URy, b.URy)
	}
	width := bounds.URx - bounds.LLx
	height := bounds.URy - bounds.LLy
	if width <= 0 || height <= 0 {
		return nil
	}
	center := vec.Vec2{X: (bounds.LLx + bounds.URx) / 2, Y: (bounds.LLy + bounds.URy) / 2}

	// Hexagon side from the across-flats spacing.
	side := density / math.Sqrt(3)
	colStep := 1.5 * side
	rowStep := density

	// Cover the bounding box circumscribed circle so that any lattice
	// rotation still covers the region.
	radius := math.Hypot(width, height)/2 + 2*side
	cols := int(math.Ceil(radius/colStep)) + 1
	rows := int(math.Ceil(radius/rowStep)) + 1

	angle := angleDeg * math.Pi / 180
	cosA, sinA := math.Cos(angle), math.Sin(angle)
	toDesign := func(p vec.Vec2) vec.Vec2 {
		return vec.Vec2{
			X: center.X + p.X*cosA - p.Y*sinA,
			Y: center.Y + p.X*sinA + p.Y*cosA,
		}
	}

	crossesBoundary := func(a, b vec.Vec2) bool {
		hit := false
		clip.edges(func(e0, e1 vec.Vec2) {
			if !hit && segCross(a, b, e0, e1) {
				hit = true
			}
		})
		return hit
	}

	// Hexagon vertices relative to the cell center (flat-top cell).
	var hexDir [6]vec.Vec2
	for k := range 6 {
		a := float64(k) * math.Pi / 3
		hexDir[k] = vec.Vec2{X: side * math.Cos(a), Y: side * math.Sin(a)}
	}

	seen := make(map[[2]int64]bool)
	var strokes []Stroke
	for col := -cols; col <= cols; col++ {
		yShift := 0.0
		if col%2 != 0 {
			yShift = rowStep / 2
		}
		for row := -rows; row <= rows; row++ {
			c := vec.Vec2{X: float64(col) * colStep, Y: float64(row)*rowStep + yShift}
			for k := range 6 {
				a := toDesign(c.Add(hexDir[k]))
				b := toDesign(c.Add(hexDir[(k+1)%6]))

				mid := a.Add(b).Mul(0.5)
				key := [2]int64{int64(math.Round(mid.X * 1e6)), int64(math.Round(mid.Y * 1e6))}
				if seen[key] {
					continue
				}
				seen[key] = true

				if clip.contains(mid) || crossesBoundary(a, b) {
					strokes = append(strokes, Stroke{
						Points: []vec.Vec2{a, b},
					})
				}
			}
		}
	}
	return strokes
}

// concentricStrokes produces inward offset rings of the region
// boundary, spaced by the density, until the region collapses. Rings
// crossing a hole are clipped against it; surviving full rings come
// out as closed strokes, clipped pieces as open strokes.
func concentricStrokes(clip *clipRegion, density float64) []Stroke {
	var strokes []Stroke

	active := clip.outers
	for range maxConcentricRings {
		if len(active) == 0 {
			break
		}
		var next []Polygon
		for _, ring := range active {
			strokes = append(strokes, ringStrokes(ring, clip.holes)...)
			next = append(next, Offset(ring, -density, graphics.LineJoinRound)...)
		}
		active = next
	}
	return strokes
}

// ringStrokes converts one ring polygon into strokes, clipping it
// against the holes. A ring untouched by any hole becomes a single
// closed stroke.
func ringStrokes(ring Polygon, holes []Polygon) []Stroke {
	touched := false
	for _, h := range holes {
		for _, v := range ring {
			if h.Contains(v) {
				touched = true
				break
			}
		}
		if touched {
			break
		}
		for i, a := range ring {
			b := ring[(i+1)%len(ring)]
			for j, ha := range h {
				hb := h[(j+1)%len(h)]
				if segCross(a, b, ha, hb) {
					touched = true
					break
				}
			}
			if touched {
				break
			}
		}
		if touched {
			break
		}
	}
	if !touched {
		return []Stroke{{Points: append(Polygon(nil), ring...), Closed: true}}
	}

	inHole := func(pt vec.Vec2) bool {
		for _, h := range holes {
			if h.Contains(pt) {
				return true
			}
		}
		return false
	}

	// Split each ring edge at hole crossings and keep the pieces whose
	// midpoint is outside all holes, chaining consecutive pieces into
	// open strokes.
	type piece struct {
		a, b vec.Vec2
		keep bool
	}
	var pieces []piece
	for i, a := range ring {
		b := ring[(i+1)%len(ring)]
		cuts := []float64{0, 1}
		for _, h := range holes {
			for j, ha := range h {
				hb := h[(j+1)%len(h)]
				if _, ta, _, ok := segIntersect(a, b, ha, hb); ok {
					cuts = append(cuts, ta)
				}
			}
		}
		sort.Float64s(cuts)
		for k := 0; k+1 < len(cuts); k++ {
			t0, t1 := cuts[k], cuts[k+1]
			if t1-t0 < 1e-9 {
				continue
			}
			p0 := a.Add(b.Sub(a).Mul(t0))
			p1 := a.Add(b.Sub(a).Mul(t1))
			mid := p0.Add(p1).Mul(0.5)
			pieces = append(pieces, piece{a: p0, b: p1, keep: !inHole(mid)})
		}
	}

	// Rotate so the chain starts at a discarded piece; otherwise a run
	// wrapping around the seam would be split in two.
	startIdx := 0
	for i, p := range pieces {
		if !p.keep {
			startIdx = i
			break
		}
	}

	var strokes []Stroke
	var current []vec.Vec2
	flush := func() {
		if len(current) >= 2 {
			strokes = append(strokes, Stroke{Points: current})
		}
		current = nil
	}
	for i := range pieces {
		p := pieces[(startIdx+i)%len(pieces)]
		if !p.keep {
			flush()
			continue
		}
		if len(current) == 0 {
			current = []vec.Vec2{p.a, p.b}
		} else if p.a.Sub(current[len(current)-1]).Length() < pointEqTolerance {
			current = append(current, p.b)
		} else {
			flush()
			current = []vec.Vec2{p.a, p.b}
		}
	}
	flush()
	return strokes
}
