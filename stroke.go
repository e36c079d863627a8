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
	"seehuhn.de/go/geom/vec"
)

// StrokeKind distinguishes contour strokes from fill strokes.
// The emitter can be configured to draw one kind before the other
// within each color.
type StrokeKind int

const (
	StrokeContour StrokeKind = iota
	StrokeFill
)

func (k StrokeKind) String() string {
	switch k {
	case StrokeContour:
		return "contour"
	case StrokeFill:
		return "fill"
	default:
		return "unknown"
	}
}

// Stroke is one continuous drawable path: the pen goes down at the
// first point, draws through all points in order, and lifts after the
// last. Closed strokes are rings (the closing edge back to the first
// point is drawn too); the route optimizer rotates their start vertex
// instead of reversing them.
type Stroke struct {
	Points []vec.Vec2
	Closed bool
	Color  string
	Tool   int
	Kind   StrokeKind
}

// NewStroke builds a stroke from a polyline, detecting closure: if the
// first and last point coincide within tolerance, the duplicate is
// dropped and the stroke becomes a ring.
func NewStroke(points []vec.Vec2) Stroke {
	s := Stroke{Points: points}
	n := len(points)
	if n > 3 && points[n-1].Sub(points[0]).Length() < closedTolerance {
		s.Points = points[:n-1]
		s.Closed = true
	}
	return s
}

// Start returns the first point of the stroke.
func (s *Stroke) Start() vec.Vec2 {
	return s.Points[0]
}

// End returns the point where the pen lifts: the last point for open
// strokes, the first point again for closed rings.
func (s *Stroke) End() vec.Vec2 {
	if s.Closed {
		return s.Points[0]
	}
	return s.Points[len(s.Points)-1]
}

// Length returns the drawn length of the stroke, including the closing
// edge for rings.
func (s *Stroke) Length() float64 {
	sum := 0.0
	for i := 1; i < len(s.Points); i++ {
		sum += s.Points[i].Sub(s.Points[i-1]).Length()
	}
	if s.Closed && len(s.Points) > 1 {
		sum += s.Points[0].Sub(s.Points[len(s.Points)-1]).Length()
	}
	return sum
}

// Reversed returns a copy drawn in the opposite direction. Only
// meaningful for open strokes; reversing a ring does not change its
// geometry.
func (s *Stroke) Reversed() Stroke {
	out := *s
	out.Points = make([]vec.Vec2, len(s.Points))
	for i, p := range s.Points {
		out.Points[len(s.Points)-1-i] = p
	}
	return out
}

// RotatedTo returns a copy of a closed stroke whose start vertex is
// moved to index i by rotation. The cyclic vertex sequence is
// unchanged. For open strokes the stroke is returned as is.
func (s *Stroke) RotatedTo(i int) Stroke {
	if !s.Closed || i == 0 || len(s.Points) == 0 {
		return *s
	}
	i %= len(s.Points)
	out := *s
	out.Points = make([]vec.Vec2, 0, len(s.Points))
	out.Points = append(out.Points, s.Points[i:]...)
	out.Points = append(out.Points, s.Points[:i]...)
	return out
}

// drawnLength returns the total drawn length of a set of strokes.
func drawnLength(strokes []Stroke) float64 {
	sum := 0.0
	for i := range strokes {
		sum += strokes[i].Length()
	}
	return sum
}

// travelLength returns the total pen-up travel for drawing the strokes
// in the given order, starting from start.
func travelLength(strokes []Stroke, start vec.Vec2) float64 {
	sum := 0.0
	pos := start
	for i := range strokes {
		sum += strokes[i].Start().Sub(pos).Length()
		pos = strokes[i].End()
	}
	return sum
}
