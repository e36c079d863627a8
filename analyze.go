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

// Role classifies a path in the containment forest.
type Role int

const (
	// RoleOuter marks a topmost solid region, not nested inside any
	// other region.
	RoleOuter Role = iota

	// RoleHole marks a region subtracted from its immediate parent.
	RoleHole

	// RoleNested marks a solid region found inside a hole.
	RoleNested
)

func (r Role) String() string {
	switch r {
	case RoleOuter:
		return "outer"
	case RoleHole:
		return "hole"
	case RoleNested:
		return "nested-object"
	default:
		return "unknown"
	}
}

// roleForDepth returns the auto-detected role for a forest depth.
// Roles alternate: depth 0 = outer, odd depths = hole, even depths > 0
// = nested object.
func roleForDepth(depth int) Role {
	switch {
	case depth == 0:
		return RoleOuter
	case depth%2 == 1:
		return RoleHole
	default:
		return RoleNested
	}
}

// InputPath is one closed path of a drawing, as handed to Analyze.
type InputPath struct {
	ID    string // stable identifier, unique within the drawing
	Color string // owning color
	Poly  Polygon
}

// PathNode is one polygon in the containment forest.
type PathNode struct {
	ID       string
	Color    string
	Poly     Polygon // normalized
	Parent   string  // ID of the immediate parent, "" for roots
	Children []string

	autoRole Role
	override *Role
}

// AutoRole returns the role detected from the forest depth.
func (n *PathNode) AutoRole() Role { return n.autoRole }

// Overridden reports whether the node's role has been overridden.
func (n *PathNode) Overridden() bool { return n.override != nil }

// Role returns the effective role: the user override if present,
// otherwise the auto-detected role.
func (n *PathNode) Role() Role {
	if n.override != nil {
		return *n.override
	}
	return n.autoRole
}

// AnalysisResult owns the containment forest for one drawing together
// with derived index lists. The index lists are recomputed whenever a
// role override changes; the forest structure itself never changes
// after Analyze.
type AnalysisResult struct {
	nodes map[string]*PathNode
	order []string // node IDs in input order

	// Derived lists of node IDs, by effective role, in input order.
	Outer  []string
	Holes  []string
	Nested []string

	// Skipped lists the IDs of inputs excluded as degenerate.
	Skipped []string
}

// Analyze builds the containment forest over all closed polygons of a
// drawing, across all colors. A polygon A becomes a child of the
// smallest polygon B that contains all of A's vertices and has larger
// area. Degenerate polygons (fewer than 3 distinct vertices) are
// excluded from the forest and reported in Skipped, with a warning.
func Analyze(paths []InputPath) *AnalysisResult {
	res := &AnalysisResult{
		nodes: make(map[string]*PathNode, len(paths)),
	}

	type entry struct {
		node *PathNode
		area float64
	}
	var entries []entry
	for _, in := range paths {
		poly := in.Poly.Normalize()
		if len(poly) < 3 {
			logger().Warn("excluding degenerate path from analysis",
				"id", in.ID, "points", len(poly))
			res.Skipped = append(res.Skipped, in.ID)
			continue
		}
		node := &PathNode{ID: in.ID, Color: in.Color, Poly: poly}
		res.nodes[in.ID] = node
		res.order = append(res.order, in.ID)
		entries = append(entries, entry{node: node, area: poly.Area()})
	}

	// For each node, the immediate parent is the smallest polygon that
	// contains every vertex and has strictly larger area.
	for i := range entries {
		child := entries[i]
		bestArea := 0.0
		bestID := ""
		for j := range entries {
			if i == j {
				continue
			}
			cand := entries[j]
			if cand.area <= child.area {
				continue
			}
			if bestID != "" && cand.area >= bestArea {
				continue
			}
			if cand.node.Poly.ContainsPolygon(child.node.Poly) {
				bestID = cand.node.ID
				bestArea = cand.area
			}
		}
		if bestID != "" {
			child.node.Parent = bestID
			parent := res.nodes[bestID]
			parent.Children = append(parent.Children, child.node.ID)
		}
	}

	for _, id := range res.order {
		node := res.nodes[id]
		node.autoRole = roleForDepth(res.Depth(id))
	}
	res.rebuildIndex()
	return res
}

// Node returns the node with the given ID, or nil.
func (r *AnalysisResult) Node(id string) *PathNode {
	return r.nodes[id]
}

// NodeIDs returns all node IDs in input order.
func (r *AnalysisResult) NodeIDs() []string {
	return r.order
}

// Depth returns the number of ancestors of the given node, or -1 if
// the ID is unknown.
func (r *AnalysisResult) Depth(id string) int {
	node, ok := r.nodes[id]
	if !ok {
		return -1
	}
	depth := 0
	for node.Parent != "" {
		node = r.nodes[node.Parent]
		depth++
	}
	return depth
}

// SetRoleOverride overrides the role of one node and recomputes the
// derived index lists. Pass nil to remove an existing override. The
// forest structure is not altered. Unknown IDs are ignored.
func (r *AnalysisResult) SetRoleOverride(id string, role *Role) {
	node, ok := r.nodes[id]
	if !ok {
		return
	}
	if role == nil {
		node.override = nil
	} else {
		v := *role
		node.override = &v
	}
	r.rebuildIndex()
}

// HolesOf returns the polygons of all children of the given node whose
// effective role is hole, in input order.
func (r *AnalysisResult) HolesOf(id string) []Polygon {
	node, ok := r.nodes[id]
	if !ok {
		return nil
	}
	var holes []Polygon
	for _, childID := range node.Children {
		child := r.nodes[childID]
		if child.Role() == RoleHole {
			holes = append(holes, child.Poly)
		}
	}
	return holes
}

// rebuildIndex recomputes the derived role index lists. This is a
// simple re-filter pass over all nodes in input order.
func (r *AnalysisResult) rebuildIndex() {
	r.Outer = r.Outer[:0]
	r.Holes = r.Holes[:0]
	r.Nested = r.Nested[:0]
	for _, id := range r.order {
		switch r.nodes[id].Role() {
		case RoleOuter:
			r.Outer = append(r.Outer, id)
		case RoleHole:
			r.Holes = append(r.Holes, id)
		case RoleNested:
			r.Nested = append(r.Nested, id)
		}
	}
}
