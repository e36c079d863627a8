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

// ColorDefaults holds the drawing-wide fallback settings that colors
// inherit from.
type ColorDefaults struct {
	ContourTool int
	FillTool    int
	Infill      InfillSpec
}

// A ColorAssignment maps one color of the drawing to tools and a fill
// configuration. A fresh assignment inherits everything from the
// drawing defaults; settings become local only when inheritance is
// explicitly detached, at which point the current defaults are copied
// once.
type ColorAssignment struct {
	Color   string
	Visible bool

	// UseDefaults selects between the drawing defaults and the local
	// values below.
	UseDefaults bool

	contourTool int
	fillTool    int
	infill      InfillSpec

	// Fill holds the generated fill strokes, Stats their route
	// statistics. Both are set by the planner.
	Fill  []Stroke
	Stats RouteStats
}

// NewColorAssignment returns a visible assignment inheriting from the
// drawing defaults.
func NewColorAssignment(color string) *ColorAssignment {
	return &ColorAssignment{
		Color:       color,
		Visible:     true,
		UseDefaults: true,
	}
}

// ContourTool resolves the effective contour tool.
func (a *ColorAssignment) ContourTool(def ColorDefaults) int {
	if a.UseDefaults {
		return def.ContourTool
	}
	return a.contourTool
}

// FillTool resolves the effective fill tool.
func (a *ColorAssignment) FillTool(def ColorDefaults) int {
	if a.UseDefaults {
		return def.FillTool
	}
	return a.fillTool
}

// Infill resolves the effective fill configuration.
func (a *ColorAssignment) Infill(def ColorDefaults) InfillSpec {
	if a.UseDefaults {
		return def.Infill
	}
	return a.infill
}

// Detach turns inheritance off, copying the current defaults into the
// assignment. Later changes to the defaults no longer affect it.
func (a *ColorAssignment) Detach(def ColorDefaults) {
	if !a.UseDefaults {
		return
	}
	a.contourTool = def.ContourTool
	a.fillTool = def.FillTool
	a.infill = def.Infill
	a.UseDefaults = false
}

// Inherit turns inheritance back on. The local values are kept but
// shadowed by the defaults until the next Detach overwrites them.
func (a *ColorAssignment) Inherit() {
	a.UseDefaults = true
}

// SetContourTool sets the local contour tool. The assignment must be
// detached first.
func (a *ColorAssignment) SetContourTool(n int) {
	a.contourTool = n
}

// SetFillTool sets the local fill tool.
func (a *ColorAssignment) SetFillTool(n int) {
	a.fillTool = n
}

// SetInfill sets the local fill configuration.
func (a *ColorAssignment) SetInfill(spec InfillSpec) {
	a.infill = spec
}
