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

// Package plot converts colored vector line-art into ordered motion
// programs for a multi-tool pen plotter.
//
// Processing is a pipeline of pure stages: containment analysis sorts
// the input polygons into solid regions and holes, the offset engine
// compensates for pen width, the fill synthesizer covers solid regions
// with a pattern, the route optimizer orders the resulting strokes to
// minimize pen-up travel, and the emitter writes the final tool-aware,
// pump-aware program text.
package plot

import (
	"context"
	"fmt"
	"io"

	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"
)

// WallMode selects how contours compensate for the pen width.
type WallMode int

const (
	// WallCenter draws contours on the polygon boundary.
	WallCenter WallMode = iota

	// WallInside shifts contours inward by the wall offset.
	WallInside

	// WallOutside shifts contours outward by the wall offset.
	WallOutside
)

// PlanConfig configures one planning pass over a drawing.
type PlanConfig struct {
	Defaults ColorDefaults

	// Colors maps color values to their assignments. Colors missing
	// from the map get a fresh inheriting assignment.
	Colors map[string]*ColorAssignment

	WallMode WallMode

	// WallOffset is the contour compensation distance in mm. Zero
	// means half the contour tool's width.
	WallOffset float64

	// Optimizer orders the strokes. Nil selects [AutoOptimizer].
	Optimizer Optimizer

	Machine *MachineConfig
}

// A Plan is the result of one planning pass: the analyzed containment
// forest and the ordered, drawable stroke sequence.
type Plan struct {
	Analysis *AnalysisResult
	Strokes  []Stroke
	Stats    RouteStats

	machine *MachineConfig
}

// BuildPlan runs the full pipeline over one drawing's polygons. All
// colors are analyzed together, so a hole can belong to a shape of a
// different color than its parent. Degenerate geometry is skipped
// with a warning; the only errors are invalid configuration values
// and context cancellation.
func BuildPlan(ctx context.Context, paths []InputPath, cfg *PlanConfig) (*Plan, error) {
	if cfg.Machine == nil {
		return nil, fmt.Errorf("plan: machine configuration is required")
	}
	if err := cfg.Machine.validate(); err != nil {
		return nil, err
	}

	analysis := Analyze(paths)

	assignment := func(color string) *ColorAssignment {
		if a, ok := cfg.Colors[color]; ok {
			return a
		}
		return NewColorAssignment(color)
	}

	var all []Stroke
	fills := make(map[string][]Stroke)
	for _, id := range analysis.NodeIDs() {
		node := analysis.Node(id)
		a := assignment(node.Color)
		if !a.Visible {
			continue
		}

		switch node.Role() {
		case RoleOuter, RoleNested:
			tool := a.ContourTool(cfg.Defaults)
			all = append(all, contourStrokes(node.Poly, node.Color, tool, cfg)...)

			spec := a.Infill(cfg.Defaults)
			region := Region{Outer: node.Poly, Holes: analysis.HolesOf(id)}
			fill, err := GenerateInfill(region, spec)
			if err != nil {
				return nil, err
			}
			fillTool := a.FillTool(cfg.Defaults)
			for i := range fill {
				fill[i].Color = node.Color
				fill[i].Tool = fillTool
			}
			fills[node.Color] = append(fills[node.Color], fill...)
			all = append(all, fill...)

		case RoleHole:
			// hole boundaries are still drawn as contours
			tool := a.ContourTool(cfg.Defaults)
			all = append(all, contourStrokes(node.Poly, node.Color, tool, cfg)...)
		}
	}

	opt := cfg.Optimizer
	if opt == nil {
		opt = AutoOptimizer{}
	}
	ordered, stats := opt.Optimize(ctx, all, vec.Vec2{})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// per-color fill statistics, in final drawing order
	for color, fill := range fills {
		a := assignment(color)
		a.Fill = fill
		var colorStrokes []Stroke
		for _, s := range ordered {
			if s.Color == color && s.Kind == StrokeFill {
				colorStrokes = append(colorStrokes, s)
			}
		}
		a.Stats = routeStats(colorStrokes, vec.Vec2{}, stats.Method, stats.Optimized)
	}

	return &Plan{
		Analysis: analysis,
		Strokes:  ordered,
		Stats:    stats,
		machine:  cfg.Machine,
	}, nil
}

// contourStrokes produces the wall-compensated contour rings for one
// polygon.
func contourStrokes(poly Polygon, color string, tool int, cfg *PlanConfig) []Stroke {
	var rings []Polygon
	switch cfg.WallMode {
	case WallCenter:
		p := poly.Normalize()
		if len(p) < 3 {
			logger().Warn("skipping degenerate contour",
				"color", color, "points", len(p))
			return nil
		}
		rings = []Polygon{p}
	case WallInside:
		rings = Offset(poly, -contourOffset(tool, cfg), graphics.LineJoinRound)
	case WallOutside:
		rings = Offset(poly, contourOffset(tool, cfg), graphics.LineJoinRound)
	}

	strokes := make([]Stroke, 0, len(rings))
	for _, ring := range rings {
		strokes = append(strokes, Stroke{
			Points: append([]vec.Vec2(nil), ring...),
			Closed: true,
			Color:  color,
			Tool:   tool,
			Kind:   StrokeContour,
		})
	}
	return strokes
}

// contourOffset resolves the wall compensation distance for a tool.
func contourOffset(tool int, cfg *PlanConfig) float64 {
	if cfg.WallOffset > 0 {
		return cfg.WallOffset
	}
	return cfg.Machine.toolProfile(tool).Width / 2
}

// Emit writes the plan's motion program to w.
func (p *Plan) Emit(w io.Writer) error {
	return EmitProgram(w, p.Strokes, p.machine)
}
