// Package transform applies the engine-to-interchange coordinate remap
// and finalizes material visibility. This is the only place the
// coordinate convention changes: the engine is Z-up, the interchange
// format Y-up.
package transform

import "eq-zone-gltf/internal/zone"

// Remap converts one Z-up vector to Y-up: (x, y, z) -> (x, z, -y).
func Remap(v [3]float32) [3]float32 {
	return [3]float32{v[0], v[2], -v[1]}
}

// Inverse undoes Remap: (x, y, z) -> (x, -z, y).
func Inverse(v [3]float32) [3]float32 {
	return [3]float32{v[0], -v[2], v[1]}
}

// Classifier decides whether a mesh is an invisible wall: boundary
// collision geometry to keep in the scene but drop from visual export.
// The exact geometric predicate is tunable; the default treats
// untextured transparent geometry, and transparent collidable geometry
// spanning most of the zone's horizontal extent, as walls.
type Classifier func(z *zone.Zone, m *zone.Mesh) bool

// BoundaryCoverage is the fraction of the zone's horizontal extent a
// transparent collidable mesh must span for the default classifier to
// call it a wall.
const BoundaryCoverage = 0.9

// DefaultClassifier implements the stock invisible-wall heuristic.
func DefaultClassifier(z *zone.Zone, m *zone.Mesh) bool {
	if !m.Material.Transparent() {
		return false
	}
	if !m.Material.Textured() {
		return true
	}
	return m.Collidable && horizontalCoverage(z, m) >= BoundaryCoverage
}

// Apply remaps every position, normal and rotation in the zone, and
// clears ExportVisible on meshes classified as invisible walls. It must
// run exactly once, between resolution and encoding. A nil classifier
// selects DefaultClassifier.
func Apply(z *zone.Zone, classify Classifier) {
	if classify == nil {
		classify = DefaultClassifier
	}

	// Classification uses engine-space coordinates; decide before
	// rewriting the geometry.
	walls := make(map[*zone.Mesh]bool)
	for _, obj := range z.Objects {
		for _, m := range obj.Meshes {
			if classify(z, m) {
				walls[m] = true
			}
		}
	}

	// Meshes split from one fragment share a vertex slice; remap each
	// backing slice once.
	visited := make(map[*zone.Vertex]bool)
	for _, obj := range z.Objects {
		for _, m := range obj.Meshes {
			if walls[m] {
				m.ExportVisible = false
			}
			if len(m.Verts) == 0 || visited[&m.Verts[0]] {
				continue
			}
			visited[&m.Verts[0]] = true
			for i := range m.Verts {
				v := &m.Verts[i]
				v.Position = Remap(v.Position)
				v.Normal = Remap(v.Normal)
			}
		}
	}

	for i := range z.Placeables {
		p := &z.Placeables[i]
		p.Position = Remap(p.Position)
		p.Rotation = Remap(p.Rotation)
	}
	for i := range z.Lights {
		z.Lights[i].Position = Remap(z.Lights[i].Position)
	}
}

// horizontalCoverage measures how much of the zone's X/Y footprint a
// mesh's polygons span, in engine space.
func horizontalCoverage(z *zone.Zone, m *zone.Mesh) float32 {
	zoneMin, zoneMax, ok := footprint(z)
	if !ok {
		return 0
	}
	meshMin, meshMax, ok := meshFootprint(m)
	if !ok {
		return 0
	}
	zoneSpanX := zoneMax[0] - zoneMin[0]
	zoneSpanY := zoneMax[1] - zoneMin[1]
	if zoneSpanX <= 0 || zoneSpanY <= 0 {
		return 0
	}
	cx := (meshMax[0] - meshMin[0]) / zoneSpanX
	cy := (meshMax[1] - meshMin[1]) / zoneSpanY
	if cx < cy {
		return cx
	}
	return cy
}

func footprint(z *zone.Zone) (min, max [2]float32, ok bool) {
	for _, obj := range z.Objects {
		for _, m := range obj.Meshes {
			mMin, mMax, mOK := meshFootprint(m)
			if !mOK {
				continue
			}
			if !ok {
				min, max, ok = mMin, mMax, true
				continue
			}
			for i := 0; i < 2; i++ {
				if mMin[i] < min[i] {
					min[i] = mMin[i]
				}
				if mMax[i] > max[i] {
					max[i] = mMax[i]
				}
			}
		}
	}
	return min, max, ok
}

func meshFootprint(m *zone.Mesh) (min, max [2]float32, ok bool) {
	for _, poly := range m.Polys {
		for _, idx := range poly {
			if idx < 0 || idx >= len(m.Verts) {
				continue
			}
			p := m.Verts[idx].Position
			if !ok {
				min = [2]float32{p[0], p[1]}
				max = min
				ok = true
				continue
			}
			for i := 0; i < 2; i++ {
				if p[i] < min[i] {
					min[i] = p[i]
				}
				if p[i] > max[i] {
					max[i] = p[i]
				}
			}
		}
	}
	return min, max, ok
}
