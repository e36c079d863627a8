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
	"time"

	"seehuhn.de/go/geom/vec"
)

// RouteStats summarizes the outcome of route optimization.
type RouteStats struct {
	// DrawnLength is the total pen-down distance in mm.
	DrawnLength float64

	// TravelLength is the total pen-up distance in mm, starting from
	// the initial position.
	TravelLength float64

	// Segments is the number of strokes in the route.
	Segments int

	// PenLifts is the number of pen-up moves between strokes.
	PenLifts int

	// Method names the algorithm that produced the route.
	Method string

	// Optimized is false when optimization was skipped or aborted and
	// the input order was kept.
	Optimized bool
}

// An Optimizer reorders strokes to reduce pen-up travel. The stroke
// set is never changed, only the order, the direction of open strokes,
// and the start vertex of closed strokes.
type Optimizer interface {
	Optimize(ctx context.Context, strokes []Stroke, start vec.Vec2) ([]Stroke, RouteStats)
}

// routeStats fills in the statistics for a finished route.
func routeStats(strokes []Stroke, start vec.Vec2, method string, optimized bool) RouteStats {
	return RouteStats{
		DrawnLength:  drawnLength(strokes),
		TravelLength: travelLength(strokes, start),
		Segments:     len(strokes),
		PenLifts:     len(strokes),
		Method:       method,
		Optimized:    optimized,
	}
}

// GreedyOptimizer orders strokes by repeatedly picking the stroke
// whose nearest endpoint is closest to the current pen position. Open
// strokes can be reversed; closed strokes can start at any vertex.
type GreedyOptimizer struct{}

// Optimize implements the [Optimizer] interface.
func (GreedyOptimizer) Optimize(ctx context.Context, strokes []Stroke, start vec.Vec2) ([]Stroke, RouteStats) {
	if len(strokes) == 0 {
		return nil, routeStats(nil, start, "greedy", true)
	}
	ordered := greedyOrder(ctx, strokes, start)
	if ordered == nil {
		// cancelled, keep the input order
		out := append([]Stroke(nil), strokes...)
		return out, routeStats(out, start, "none", false)
	}
	return ordered, routeStats(ordered, start, "greedy", true)
}

// greedyOrder is the nearest-neighbour core shared by the optimizers.
// Returns nil if the context is cancelled.
func greedyOrder(ctx context.Context, strokes []Stroke, start vec.Vec2) []Stroke {
	remaining := append([]Stroke(nil), strokes...)
	ordered := make([]Stroke, 0, len(strokes))
	pos := start

	for len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return nil
		}

		bestIdx := 0
		bestDist := pickDistance(remaining[0], pos)
		for i := 1; i < len(remaining); i++ {
			if d := pickDistance(remaining[i], pos); d < bestDist {
				bestIdx, bestDist = i, d
			}
		}

		s := orientToward(remaining[bestIdx], pos)
		ordered = append(ordered, s)
		pos = s.End()

		remaining[bestIdx] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
	}
	return ordered
}

// pickDistance is the travel cost of starting stroke s from pos,
// allowing reversal for open strokes and any start vertex for rings.
func pickDistance(s Stroke, pos vec.Vec2) float64 {
	if s.Closed {
		best := s.Points[0].Sub(pos).Length()
		for _, v := range s.Points[1:] {
			best = min(best, v.Sub(pos).Length())
		}
		return best
	}
	return min(s.Start().Sub(pos).Length(), s.End().Sub(pos).Length())
}

// orientToward returns s oriented so its start is nearest to pos.
func orientToward(s Stroke, pos vec.Vec2) Stroke {
	if s.Closed {
		bestIdx := 0
		bestDist := s.Points[0].Sub(pos).Length()
		for i, v := range s.Points[1:] {
			if d := v.Sub(pos).Length(); d < bestDist {
				bestIdx, bestDist = i+1, d
			}
		}
		return s.RotatedTo(bestIdx)
	}
	if s.End().Sub(pos).Length() < s.Start().Sub(pos).Length() {
		return s.Reversed()
	}
	return s
}

// RefiningOptimizer runs the greedy ordering and then improves it with
// 2-opt moves until no improvement is found or the time budget runs
// out. With a zero Budget the refinement runs until convergence or
// context cancellation.
type RefiningOptimizer struct {
	Budget time.Duration
}

// Optimize implements the [Optimizer] interface.
func (o RefiningOptimizer) Optimize(ctx context.Context, strokes []Stroke, start vec.Vec2) ([]Stroke, RouteStats) {
	if len(strokes) == 0 {
		return nil, routeStats(nil, start, "2-opt", true)
	}
	if o.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Budget)
		defer cancel()
	}

	ordered := greedyOrder(ctx, strokes, start)
	if ordered == nil {
		out := append([]Stroke(nil), strokes...)
		return out, routeStats(out, start, "none", false)
	}

	ordered, done := twoOpt(ctx, ordered, start)
	method := "2-opt"
	if !done {
		// budget ran out mid-refinement, the greedy order (plus the
		// improvements applied so far) still stands
		logger().Debug("route refinement stopped early",
			"segments", len(ordered))
		method = "2-opt (partial)"
	}
	return ordered, routeStats(ordered, start, method, true)
}

// twoOpt improves the route by reversing sub-sequences whenever that
// shortens the travel. Reversing a run of strokes also reverses each
// stroke in it, so drawn geometry is unchanged. Reports whether the
// refinement ran to convergence.
func twoOpt(ctx context.Context, route []Stroke, start vec.Vec2) ([]Stroke, bool) {
	n := len(route)
	if n < 3 {
		return route, true
	}

	entry := func(i int) vec.Vec2 {
		if i == 0 {
			return start
		}
		return route[i-1].End()
	}

	// Reversing a run enters it at the reversed start of its last
	// stroke and leaves it at the reversed end of its first stroke.
	// For a ring Reversed().Start() is the last vertex, not End(), so
	// the cost must use the actual post-move points or an accepted
	// "improvement" can lengthen the route and the loop cycles.
	revStart := func(s Stroke) vec.Vec2 {
		return s.Points[len(s.Points)-1]
	}
	revEnd := func(s Stroke) vec.Vec2 {
		if s.Closed {
			return s.Points[len(s.Points)-1]
		}
		return s.Points[0]
	}

	improved := true
	for improved {
		improved = false
		for i := 0; i < n-1; i++ {
			if ctx.Err() != nil {
				return route, false
			}
			for j := i + 1; j < n; j++ {
				// current: entry(i) -> route[i].Start ... route[j].End -> next
				// after:   entry(i) -> rev(route[j]).Start ... rev(route[i]).End -> next
				before := entry(i).Sub(route[i].Start()).Length()
				after := entry(i).Sub(revStart(route[j])).Length()
				if j < n-1 {
					before += route[j].End().Sub(route[j+1].Start()).Length()
					after += revEnd(route[i]).Sub(route[j+1].Start()).Length()
				}
				if after < before-1e-9 {
					reverseRun(route[i : j+1])
					improved = true
				}
			}
		}
	}
	return route, true
}

// reverseRun reverses the order of the strokes and the direction of
// each stroke in the run.
func reverseRun(run []Stroke) {
	for i, j := 0, len(run)-1; i < j; i, j = i+1, j-1 {
		run[i], run[j] = run[j], run[i]
	}
	for i := range run {
		run[i] = run[i].Reversed()
	}
}

// autoRefineThreshold is the stroke count above which AutoOptimizer
// switches from 2-opt refinement to plain greedy ordering.
const autoRefineThreshold = 200

// defaultRefineBudget bounds the 2-opt refinement when the caller
// leaves AutoOptimizer.Budget unset.
const defaultRefineBudget = time.Second

// AutoOptimizer picks the optimization strategy by problem size: small
// stroke sets get 2-opt refinement, large ones the plain greedy
// ordering.
type AutoOptimizer struct {
	// Budget limits the refinement time for small stroke sets. The
	// zero value means defaultRefineBudget, not unbounded.
	Budget time.Duration
}

// Optimize implements the [Optimizer] interface.
func (o AutoOptimizer) Optimize(ctx context.Context, strokes []Stroke, start vec.Vec2) ([]Stroke, RouteStats) {
	if len(strokes) <= autoRefineThreshold {
		budget := o.Budget
		if budget <= 0 {
			budget = defaultRefineBudget
		}
		return RefiningOptimizer{Budget: budget}.Optimize(ctx, strokes, start)
	}
	return GreedyOptimizer{}.Optimize(ctx, strokes, start)
}
