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
	"math"
	"strings"
	"testing"
)

func testPlanConfig() *PlanConfig {
	return &PlanConfig{
		Defaults: ColorDefaults{
			ContourTool: 1,
			FillTool:    1,
			Infill:      InfillSpec{Pattern: PatternLines, Density: 2},
		},
		Machine: testMachine(),
	}
}

func TestBuildPlan(t *testing.T) {
	paths := []InputPath{
		{ID: "outer", Color: "black", Poly: square(0, 0, 20)},
		{ID: "hole", Color: "black", Poly: square(8, 8, 4)},
	}
	plan, err := BuildPlan(context.Background(), paths, testPlanConfig())
	if err != nil {
		t.Fatal(err)
	}

	contours, fills := 0, 0
	for _, s := range plan.Strokes {
		switch s.Kind {
		case StrokeContour:
			if !s.Closed {
				t.Error("contour stroke is not closed")
			}
			contours++
		case StrokeFill:
			fills++
		}
		if s.Color != "black" {
			t.Errorf("stroke has color %q", s.Color)
		}
		if s.Tool != 1 {
			t.Errorf("stroke has tool %d", s.Tool)
		}
	}
	// one contour for the outer boundary, one for the hole
	if contours != 2 {
		t.Errorf("got %d contours, want 2", contours)
	}
	if fills == 0 {
		t.Error("no fill strokes generated")
	}
	if plan.Stats.Segments != len(plan.Strokes) {
		t.Errorf("stats report %d segments, want %d",
			plan.Stats.Segments, len(plan.Strokes))
	}

	hole := square(8, 8, 4)
	for i, s := range plan.Strokes {
		if s.Kind != StrokeFill {
			continue
		}
		for j := 0; j+1 < len(s.Points); j++ {
			mid := s.Points[j].Add(s.Points[j+1]).Mul(0.5)
			if hole.Contains(mid) && !onPolygonBoundary(hole, mid) {
				t.Errorf("fill stroke %d runs through the hole", i)
			}
		}
	}
}

func TestBuildPlanVisibility(t *testing.T) {
	paths := []InputPath{
		{ID: "outer", Color: "black", Poly: square(0, 0, 20)},
	}
	cfg := testPlanConfig()
	hidden := NewColorAssignment("black")
	hidden.Visible = false
	cfg.Colors = map[string]*ColorAssignment{"black": hidden}

	plan, err := BuildPlan(context.Background(), paths, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Strokes) != 0 {
		t.Errorf("hidden color produced %d strokes", len(plan.Strokes))
	}
}

func TestBuildPlanWallModes(t *testing.T) {
	paths := []InputPath{
		{ID: "outer", Color: "black", Poly: square(0, 0, 20)},
	}

	boundsFor := func(mode WallMode) (lo, hi float64) {
		cfg := testPlanConfig()
		cfg.WallMode = mode
		cfg.WallOffset = 1
		plan, err := BuildPlan(context.Background(), paths, cfg)
		if err != nil {
			t.Fatal(err)
		}
		for _, s := range plan.Strokes {
			if s.Kind == StrokeContour {
				b := DesignBounds([]Stroke{s})
				return b.LLx, b.URx
			}
		}
		t.Fatal("no contour stroke")
		return 0, 0
	}

	if lo, hi := boundsFor(WallCenter); lo != 0 || hi != 20 {
		t.Errorf("center mode: contour bounds %g..%g, want 0..20", lo, hi)
	}
	if lo, hi := boundsFor(WallInside); math.Abs(lo-1) > 1e-9 || math.Abs(hi-19) > 1e-9 {
		t.Errorf("inside mode: contour bounds %g..%g, want 1..19", lo, hi)
	}
	if lo, hi := boundsFor(WallOutside); math.Abs(lo+1) > 1e-9 || math.Abs(hi-21) > 1e-9 {
		t.Errorf("outside mode: contour bounds %g..%g, want -1..21", lo, hi)
	}
}

func TestBuildPlanDefaultWallOffset(t *testing.T) {
	// with no explicit wall offset, half the tool width is used
	paths := []InputPath{
		{ID: "outer", Color: "black", Poly: square(0, 0, 20)},
	}
	cfg := testPlanConfig()
	cfg.WallMode = WallInside
	cfg.Machine.Tools[1] = ToolProfile{PenUp: 5, Width: 2}

	plan, err := BuildPlan(context.Background(), paths, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range plan.Strokes {
		if s.Kind != StrokeContour {
			continue
		}
		b := DesignBounds([]Stroke{s})
		if math.Abs(b.LLx-1) > 1e-9 || math.Abs(b.URx-19) > 1e-9 {
			t.Errorf("contour bounds %g..%g, want 1..19", b.LLx, b.URx)
		}
	}
}

func TestPlanEmit(t *testing.T) {
	paths := []InputPath{
		{ID: "outer", Color: "black", Poly: square(0, 0, 20)},
	}
	plan, err := BuildPlan(context.Background(), paths, testPlanConfig())
	if err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder
	if err := plan.Emit(&buf); err != nil {
		t.Fatal(err)
	}
	text := buf.String()
	if !strings.HasPrefix(text, "G21\nG90\n") {
		t.Error("program missing preamble")
	}
	if !strings.Contains(text, "M98 P101") {
		t.Error("program never grabs tool 1")
	}
	if !strings.Contains(text, "M98 P201") {
		t.Error("program never places tool 1")
	}
}

func TestBuildPlanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	paths := []InputPath{
		{ID: "outer", Color: "black", Poly: square(0, 0, 20)},
	}
	if _, err := BuildPlan(ctx, paths, testPlanConfig()); err == nil {
		t.Error("expected an error from a cancelled context")
	}
}

func TestBuildPlanMissingMachine(t *testing.T) {
	cfg := testPlanConfig()
	cfg.Machine = nil
	if _, err := BuildPlan(context.Background(), nil, cfg); err == nil {
		t.Error("expected an error for missing machine configuration")
	}
}
