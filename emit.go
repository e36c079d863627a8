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
	"io"

	"seehuhn.de/go/geom/vec"
)

// ToolProfile describes one physical pen.
type ToolProfile struct {
	// PenUp and PenDown are the lift-axis heights in mm.
	PenUp   float64
	PenDown float64

	// PumpDistance is the drawn distance in mm after which the ink
	// pump fires. Zero disables pumping for this tool.
	PumpDistance float64

	// PumpHeight is the pump excursion in mm, passed to the pump
	// macro's definition on the controller.
	PumpHeight float64

	// Width is the nominal stroke width in mm. Wall compensation
	// defaults to half of this.
	Width float64
}

// Grouping selects the emission order across tools.
type Grouping int

const (
	// GroupByTool emits all strokes of one tool together, minimizing
	// physical tool changes.
	GroupByTool Grouping = iota

	// GroupByLayer keeps the original per-color order, changing tools
	// as often as needed.
	GroupByLayer
)

// SubOrder selects the contour/fill order within one color.
type SubOrder int

const (
	ContourFirst SubOrder = iota
	FillFirst
)

// MachineConfig collects the machine-level emission parameters.
type MachineConfig struct {
	// DrawFeed and TravelFeed are feed rates in mm/min.
	DrawFeed   float64
	TravelFeed float64

	Tools map[int]ToolProfile

	Grouping Grouping
	SubOrder SubOrder

	Placement Placement

	// Macro numbers are base+tool: grabbing tool 3 invokes macro
	// GrabMacroBase+3, and so on.
	GrabMacroBase  int
	PlaceMacroBase int
	PumpMacroBase  int
}

// NewMachineConfig returns a configuration with usable defaults and no
// tools registered.
func NewMachineConfig() *MachineConfig {
	return &MachineConfig{
		DrawFeed:       1500,
		TravelFeed:     6000,
		Tools:          make(map[int]ToolProfile),
		GrabMacroBase:  100,
		PlaceMacroBase: 200,
		PumpMacroBase:  300,
	}
}

func (c *MachineConfig) validate() error {
	if c.DrawFeed <= 0 || c.TravelFeed <= 0 {
		return fmt.Errorf("feed rates must be positive, got draw=%g travel=%g",
			c.DrawFeed, c.TravelFeed)
	}
	for n, tp := range c.Tools {
		if tp.PumpDistance < 0 {
			return fmt.Errorf("tool %d: pump distance must be >= 0, got %g",
				n, tp.PumpDistance)
		}
		if tp.Width < 0 {
			return fmt.Errorf("tool %d: width must be >= 0, got %g", n, tp.Width)
		}
	}
	return nil
}

// toolProfile returns the profile for tool n, falling back to a plain
// pen when the tool is not registered.
func (c *MachineConfig) toolProfile(n int) ToolProfile {
	if tp, ok := c.Tools[n]; ok {
		return tp
	}
	return ToolProfile{PenUp: 5, PenDown: 0}
}

// EmitProgram writes the motion program for the given strokes. The
// strokes must already be route-optimized; EmitProgram only applies
// the grouping policy, tracks tool, pen and pump state, and converts
// coordinates to machine space.
func EmitProgram(w io.Writer, strokes []Stroke, cfg *MachineConfig) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	e := &emitter{w: w, cfg: cfg, tool: -1}
	e.preamble(strokes)
	for _, s := range groupStrokes(strokes, cfg) {
		e.stroke(s)
	}
	e.finish()
	return e.err
}

// groupStrokes applies the grouping policy and the per-color sub-order
// without dropping or reordering within groups.
func groupStrokes(strokes []Stroke, cfg *MachineConfig) []Stroke {
	var groups [][]Stroke
	if cfg.Grouping == GroupByTool {
		idx := make(map[int]int)
		for _, s := range strokes {
			i, ok := idx[s.Tool]
			if !ok {
				i = len(groups)
				idx[s.Tool] = i
				groups = append(groups, nil)
			}
			groups[i] = append(groups[i], s)
		}
	} else {
		for _, s := range strokes {
			if len(groups) == 0 || groups[len(groups)-1][0].Color != s.Color {
				groups = append(groups, nil)
			}
			groups[len(groups)-1] = append(groups[len(groups)-1], s)
		}
	}

	out := make([]Stroke, 0, len(strokes))
	for _, g := range groups {
		out = append(out, subOrdered(g, cfg.SubOrder)...)
	}
	return out
}

// subOrdered stably partitions one group into contour and fill strokes
// in the configured order.
func subOrdered(group []Stroke, order SubOrder) []Stroke {
	first, second := StrokeContour, StrokeFill
	if order == FillFirst {
		first, second = second, first
	}
	out := make([]Stroke, 0, len(group))
	for _, s := range group {
		if s.Kind == first {
			out = append(out, s)
		}
	}
	for _, s := range group {
		if s.Kind == second {
			out = append(out, s)
		}
	}
	return out
}

// emitter holds the device state during one emission pass. The error
// is sticky, so the state machine can run without per-line checks.
type emitter struct {
	w   io.Writer
	err error
	cfg *MachineConfig

	tool    int // -1 while no tool is held
	tp      ToolProfile
	penDown bool
	pump    float64 // drawn distance since the last pump
}

func (e *emitter) line(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format+"\n", args...)
}

func (e *emitter) preamble(strokes []Stroke) {
	e.line("G21")
	e.line("G90")
	seen := make(map[int]bool)
	for _, s := range strokes {
		if seen[s.Tool] {
			continue
		}
		seen[s.Tool] = true
		tp := e.cfg.toolProfile(s.Tool)
		if tp.PumpDistance > 0 {
			e.line("; tool %d: width %.2fmm, pump every %.2fmm, excursion %.2fmm",
				s.Tool, tp.Width, tp.PumpDistance, tp.PumpHeight)
		} else {
			e.line("; tool %d: width %.2fmm", s.Tool, tp.Width)
		}
	}
}

// ensureTool places the held tool, if any, and grabs tool n. Placing
// always precedes grabbing.
func (e *emitter) ensureTool(n int) {
	if e.tool == n {
		return
	}
	if e.tool >= 0 {
		e.line("M98 P%d", e.cfg.PlaceMacroBase+e.tool)
	}
	e.line("M98 P%d", e.cfg.GrabMacroBase+n)
	e.tool = n
	e.tp = e.cfg.toolProfile(n)
	e.pump = 0
	e.line("G1 F%.2f Z%.2f", e.cfg.TravelFeed, e.tp.PenUp)
	e.penDown = false
}

func (e *emitter) liftPen() {
	if !e.penDown {
		return
	}
	e.line("G1 F%.2f Z%.2f", e.cfg.TravelFeed, e.tp.PenUp)
	e.penDown = false
}

func (e *emitter) lowerPen() {
	if e.penDown {
		return
	}
	e.line("G1 F%.2f Z%.2f", e.cfg.DrawFeed, e.tp.PenDown)
	e.penDown = true
}

func (e *emitter) moveTo(pt vec.Vec2, feed float64) {
	m := e.cfg.Placement.Apply(pt)
	e.line("G1 F%.2f X%.2f Y%.2f", feed, m.X, m.Y)
}

func (e *emitter) firePump() {
	e.line("M98 P%d", e.cfg.PumpMacroBase+e.tool)
	e.pump = 0
}

// drawSegment draws one pen-down segment, splitting it wherever the
// pump accumulator reaches the threshold so the pump fires in place
// with the pen still down.
func (e *emitter) drawSegment(from, to vec.Vec2) vec.Vec2 {
	threshold := e.tp.PumpDistance
	for threshold > 0 {
		segLen := to.Sub(from).Length()
		if e.pump+segLen < threshold {
			break
		}
		t := (threshold - e.pump) / segLen
		mid := from.Add(to.Sub(from).Mul(t))
		e.moveTo(mid, e.cfg.DrawFeed)
		e.firePump()
		from = mid
	}
	// A pump firing exactly at the segment end leaves nothing to draw;
	// do not repeat the move.
	if rem := to.Sub(from).Length(); rem >= pointEqTolerance {
		e.moveTo(to, e.cfg.DrawFeed)
		e.pump += rem
	}
	return to
}

func (e *emitter) stroke(s Stroke) {
	if len(s.Points) < 2 {
		return
	}
	e.ensureTool(s.Tool)

	pts := s.Points
	e.liftPen()
	e.moveTo(pts[0], e.cfg.TravelFeed)
	e.lowerPen()

	pos := pts[0]
	for _, pt := range pts[1:] {
		pos = e.drawSegment(pos, pt)
	}
	if s.Closed {
		pos = e.drawSegment(pos, pts[0])
	}

	// end-of-stroke pump check, before the pen comes up
	if e.tp.PumpDistance > 0 && e.pump >= e.tp.PumpDistance {
		e.firePump()
	}
	e.liftPen()
}

// finish places the held tool and parks. Only the Y axis is parked:
// moving X back to zero would drive the pen holder into the tool rack.
func (e *emitter) finish() {
	e.liftPen()
	if e.tool >= 0 {
		e.line("M98 P%d", e.cfg.PlaceMacroBase+e.tool)
		e.tool = -1
	}
	e.line("G1 F%.2f Y0.00", e.cfg.TravelFeed)
}
