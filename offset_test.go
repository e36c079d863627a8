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
	"testing"

	"seehuhn.de/go/pdf/graphics"
)

func TestOffsetInward(t *testing.T) {
	got := Offset(square(0, 0, 10), -2, graphics.LineJoinMiter)
	if len(got) != 1 {
		t.Fatalf("got %d polygons, want 1", len(got))
	}
	if a := got[0].Area(); math.Abs(a-36) > 1e-6 {
		t.Errorf("got area %g, want 36", a)
	}
	b := got[0].Bounds()
	if math.Abs(b.LLx-2) > 1e-6 || math.Abs(b.LLy-2) > 1e-6 ||
		math.Abs(b.URx-8) > 1e-6 || math.Abs(b.URy-8) > 1e-6 {
		t.Errorf("got bounds %v, want (2,2)-(8,8)", b)
	}
}

func TestOffsetOutward(t *testing.T) {
	got := Offset(square(0, 0, 10), 2, graphics.LineJoinRound)
	if len(got) != 1 {
		t.Fatalf("got %d polygons, want 1", len(got))
	}
	b := got[0].Bounds()
	if math.Abs(b.LLx+2) > 1e-6 || math.Abs(b.URx-12) > 1e-6 {
		t.Errorf("got bounds %v, want (-2,-2)-(12,12)", b)
	}
	// area grows by perimeter*d plus the rounded corners, which stay
	// below the full miter squares
	a := got[0].Area()
	if a < 100+80 || a > 100+80+16 {
		t.Errorf("got area %g, want roughly %g", a, 100+80+4*math.Pi)
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	// shrinking then growing by the same distance restores the
	// original bounds; only the corners get rounded
	orig := square(0, 0, 10)
	inner := Offset(orig, -2, graphics.LineJoinRound)
	if len(inner) != 1 {
		t.Fatalf("inward offset: got %d polygons, want 1", len(inner))
	}
	back := Offset(inner[0], 2, graphics.LineJoinRound)
	if len(back) != 1 {
		t.Fatalf("outward offset: got %d polygons, want 1", len(back))
	}
	b := back[0].Bounds()
	for _, d := range []float64{b.LLx - 0, b.LLy - 0, b.URx - 10, b.URy - 10} {
		if math.Abs(d) > 1e-6 {
			t.Fatalf("round trip bounds %v, want (0,0)-(10,10)", b)
		}
	}
	a := back[0].Area()
	if a < 95 || a > 100+1e-6 {
		t.Errorf("round trip area %g, want close to 100", a)
	}
}

func TestOffsetCollapse(t *testing.T) {
	// Shrinking past the half-width leaves nothing. The inside-out
	// ring of a convex shape keeps its orientation, so these cases
	// need the edge-reversal check, not just the area sign.
	cases := []struct {
		poly Polygon
		d    float64
	}{
		{square(0, 0, 10), -6},
		{square(0, 0, 10), -5}, // all corners meet in the center
		{Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 4}, {X: 0, Y: 4}}, -3},
		{square(0, 0, 10).Reverse(), -6},
	}
	for i, c := range cases {
		got := Offset(c.poly, c.d, graphics.LineJoinRound)
		if len(got) != 0 {
			t.Errorf("test %d: got %d polygons, want 0", i, len(got))
		}
	}
}

func TestOffsetZero(t *testing.T) {
	sq := square(0, 0, 10)
	got := Offset(sq, 0, graphics.LineJoinRound)
	if len(got) != 1 {
		t.Fatalf("got %d polygons, want 1", len(got))
	}
	if a := got[0].Area(); math.Abs(a-100) > 1e-9 {
		t.Errorf("got area %g, want 100", a)
	}
}

func TestOffsetDegenerate(t *testing.T) {
	got := Offset(Polygon{{X: 0, Y: 0}, {X: 1, Y: 1}}, -1, graphics.LineJoinRound)
	if len(got) != 0 {
		t.Errorf("got %d polygons, want 0", len(got))
	}
}

func TestOffsetOrientationPreserved(t *testing.T) {
	cw := square(0, 0, 10).Reverse()
	got := Offset(cw, -2, graphics.LineJoinMiter)
	if len(got) != 1 {
		t.Fatalf("got %d polygons, want 1", len(got))
	}
	if got[0].SignedArea() >= 0 {
		t.Error("clockwise input should produce clockwise output")
	}
}

func TestOffsetSplit(t *testing.T) {
	// a dumbbell: two 10x10 squares joined by a 4x2 neck; shrinking
	// by 2 collapses the neck and splits the shape in two
	dumbbell := Polygon{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 4}, {X: 14, Y: 4},
		{X: 14, Y: 0}, {X: 24, Y: 0}, {X: 24, Y: 10}, {X: 14, Y: 10},
		{X: 14, Y: 6}, {X: 10, Y: 6}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}
	got := Offset(dumbbell, -2, graphics.LineJoinRound)
	if len(got) != 2 {
		t.Fatalf("got %d polygons, want 2", len(got))
	}
	for i, p := range got {
		a := p.Area()
		if a < 30 || a > 45 {
			t.Errorf("piece %d: area %g outside expected range", i, a)
		}
	}
}
