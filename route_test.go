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
	"context"
	"fmt"
	"math"
	"slices"
	"testing"

	"seehuhn.de/go/geom/vec"
)

func hline(x0, x1, y float64) Stroke {
	return Stroke{Points: []vec.Vec2{{X: x0, Y: y}, {X: x1, Y: y}}}
}

// canonical returns a direction-independent key for a stroke's
// geometry.
func canonical(s Stroke) string {
	fwd := fmt.Sprint(s.Points)
	rev := fmt.Sprint(s.Reversed().Points)
	if s.Closed {
		// rings additionally ignore the start vertex
		best := ""
		for i := range s.Points {
			r := s.RotatedTo(i)
			for _, k := range []string{fmt.Sprint(r.Points), fmt.Sprint(r.Reversed().Points)} {
				if best == "" || k < best {
					best = k
				}
			}
		}
		return best
	}
	return min(fwd, rev)
}

func TestGreedyPreservesStrokes(t *testing.T) {
	input := []Stroke{
		hline(0, 10, 0),
		hline(5, 15, 20),
		hline(-10, -5, 5),
		{Points: square(30, 30, 5), Closed: true},
		hline(100, 90, 50),
	}
	ordered, stats := GreedyOptimizer{}.Optimize(context.Background(), input, vec.Vec2{})
	if len(ordered) != len(input) {
		t.Fatalf("got %d strokes, want %d", len(ordered), len(input))
	}

	want := make([]string, len(input))
	got := make([]string, len(input))
	for i := range input {
		want[i] = canonical(input[i])
		got[i] = canonical(ordered[i])
	}
	slices.Sort(want)
	slices.Sort(got)
	if !slices.Equal(got, want) {
		t.Error("optimization changed the stroke set")
	}
	if stats.Segments != len(input) {
		t.Errorf("stats report %d segments, want %d", stats.Segments, len(input))
	}
}

func TestGreedyOrder(t *testing.T) {
	input := []Stroke{
		{Points: []vec.Vec2{{X: 100, Y: 0}, {X: 110, Y: 0}}, Color: "far"},
		{Points: []vec.Vec2{{X: 1, Y: 0}, {X: 11, Y: 0}}, Color: "near"},
		{Points: []vec.Vec2{{X: 50, Y: 0}, {X: 60, Y: 0}}, Color: "mid"},
	}
	ordered, stats := GreedyOptimizer{}.Optimize(context.Background(), input, vec.Vec2{})
	var colors []string
	for _, s := range ordered {
		colors = append(colors, s.Color)
	}
	if !slices.Equal(colors, []string{"near", "mid", "far"}) {
		t.Errorf("got order %v", colors)
	}
	if stats.Method != "greedy" || !stats.Optimized {
		t.Errorf("got method %q, optimized %t", stats.Method, stats.Optimized)
	}
}

func TestGreedyReversal(t *testing.T) {
	input := []Stroke{
		{Points: []vec.Vec2{{X: 10, Y: 0}, {X: 0, Y: 1}}},
	}
	ordered, _ := GreedyOptimizer{}.Optimize(context.Background(), input, vec.Vec2{})
	want := vec.Vec2{X: 0, Y: 1}
	if got := ordered[0].Start(); got != want {
		t.Errorf("got start %v, want %v", got, want)
	}
}

func TestRingRotation(t *testing.T) {
	ring := Stroke{Points: square(10, 10, 10), Closed: true}
	ordered, _ := GreedyOptimizer{}.Optimize(context.Background(),
		[]Stroke{ring}, vec.Vec2{X: 21, Y: 21})

	got := ordered[0]
	if !got.Closed {
		t.Fatal("ring lost its closed flag")
	}
	want := vec.Vec2{X: 20, Y: 20}
	if got.Start() != want {
		t.Errorf("got start %v, want %v", got.Start(), want)
	}
	if canonical(got) != canonical(ring) {
		t.Error("rotation changed the ring geometry")
	}
}

func TestRefiningNotWorse(t *testing.T) {
	var input []Stroke
	for i := range 20 {
		x := float64(i*13%20) * 10
		y := float64(i*7%20) * 10
		input = append(input, hline(x, x+5, y))
	}
	start := vec.Vec2{}

	_, greedyStats := GreedyOptimizer{}.Optimize(context.Background(), input, start)
	_, refinedStats := RefiningOptimizer{}.Optimize(context.Background(), input, start)

	if refinedStats.TravelLength > greedyStats.TravelLength+1e-9 {
		t.Errorf("refinement made travel worse: %g > %g",
			refinedStats.TravelLength, greedyStats.TravelLength)
	}
	if math.Abs(refinedStats.DrawnLength-greedyStats.DrawnLength) > 1e-9 {
		t.Errorf("refinement changed the drawn length: %g != %g",
			refinedStats.DrawnLength, greedyStats.DrawnLength)
	}
}

func TestRefiningWithRings(t *testing.T) {
	// Rings reverse to a different start vertex than open strokes do,
	// so the refinement must cost run reversals with the actual
	// post-move endpoints to converge.
	for trial := range 20 {
		var input []Stroke
		n := 3 + trial%11
		for i := range n {
			x := float64((trial*31+i*17)%23) * 7
			y := float64((trial*13+i*29)%19) * 7
			if (trial+i)%3 == 0 {
				input = append(input, Stroke{Points: square(x, y, 5), Closed: true})
			} else {
				input = append(input, hline(x, x+5, y))
			}
		}
		start := vec.Vec2{}

		_, greedyStats := GreedyOptimizer{}.Optimize(context.Background(), input, start)
		refined, refinedStats := RefiningOptimizer{}.Optimize(context.Background(), input, start)

		if refinedStats.TravelLength > greedyStats.TravelLength+1e-9 {
			t.Errorf("trial %d: refinement made travel worse: %g > %g",
				trial, refinedStats.TravelLength, greedyStats.TravelLength)
		}
		want := make([]string, n)
		got := make([]string, n)
		for i := range input {
			want[i] = canonical(input[i])
			got[i] = canonical(refined[i])
		}
		slices.Sort(want)
		slices.Sort(got)
		if !slices.Equal(got, want) {
			t.Errorf("trial %d: refinement changed the stroke set", trial)
		}
	}

	// the zero-value AutoOptimizer takes the same path under a default
	// time budget
	mixed := []Stroke{
		{Points: square(0, 0, 5), Closed: true},
		hline(20, 25, 0),
		{Points: square(40, 0, 5), Closed: true},
		hline(60, 65, 0),
	}
	_, stats := AutoOptimizer{}.Optimize(context.Background(), mixed, vec.Vec2{})
	if stats.Method != "2-opt" || !stats.Optimized {
		t.Errorf("got method %q, optimized %t", stats.Method, stats.Optimized)
	}
}

func TestOptimizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := []Stroke{hline(0, 10, 0), hline(0, 10, 5)}
	ordered, stats := GreedyOptimizer{}.Optimize(ctx, input, vec.Vec2{})
	if stats.Optimized {
		t.Error("cancelled optimization should report Optimized=false")
	}
	if stats.Method != "none" {
		t.Errorf("got method %q, want %q", stats.Method, "none")
	}
	if len(ordered) != len(input) {
		t.Errorf("cancelled optimization dropped strokes: %d != %d",
			len(ordered), len(input))
	}
}

func TestRouteStats(t *testing.T) {
	input := []Stroke{
		hline(0, 10, 0),
		hline(20, 30, 0),
	}
	_, stats := GreedyOptimizer{}.Optimize(context.Background(), input, vec.Vec2{})
	if math.Abs(stats.DrawnLength-20) > 1e-9 {
		t.Errorf("drawn length %g, want 20", stats.DrawnLength)
	}
	if math.Abs(stats.TravelLength-10) > 1e-9 {
		t.Errorf("travel length %g, want 10", stats.TravelLength)
	}
	if stats.PenLifts != 2 {
		t.Errorf("pen lifts %d, want 2", stats.PenLifts)
	}
}

func TestAutoOptimizerDispatch(t *testing.T) {
	small := []Stroke{hline(0, 10, 0), hline(0, 10, 5), hline(0, 10, 10)}
	_, stats := AutoOptimizer{}.Optimize(context.Background(), small, vec.Vec2{})
	if stats.Method != "2-opt" {
		t.Errorf("small input: got method %q, want %q", stats.Method, "2-opt")
	}

	var large []Stroke
	for i := range autoRefineThreshold + 1 {
		large = append(large, hline(0, 1, float64(i)))
	}
	_, stats = AutoOptimizer{}.Optimize(context.Background(), large, vec.Vec2{})
	if stats.Method != "greedy" {
		t.Errorf("large input: got method %q, want %q", stats.Method, "greedy")
	}
}
