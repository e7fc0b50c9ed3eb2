package gltf

import (
	"fmt"
	"strings"

	"eq-zone-gltf/internal/zone"
)

// mergeByMaterial concatenates meshes that share a material, so each
// material ends up in a single primitive. Visible and collision-only
// meshes never merge with each other. Input order decides output
// order, keeping the result deterministic.
func mergeByMaterial(meshes []*zone.Mesh) []*zone.Mesh {
	var order []string
	groups := make(map[string][]*zone.Mesh)
	for _, m := range meshes {
		k := meshKey(m)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], m)
	}

	out := make([]*zone.Mesh, 0, len(order))
	for _, k := range order {
		group := groups[k]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		merged := &zone.Mesh{
			Material:      group[0].Material,
			Collidable:    group[0].Collidable,
			ExportVisible: group[0].ExportVisible,
		}
		for _, m := range group {
			base := len(merged.Verts)
			merged.Verts = append(merged.Verts, m.Verts...)
			for _, p := range m.Polys {
				merged.Polys = append(merged.Polys, zone.Poly{p[0] + base, p[1] + base, p[2] + base})
			}
		}
		out = append(out, merged)
	}
	return out
}

func meshKey(m *zone.Mesh) string {
	return fmt.Sprintf("%#x|%d|%v|%v|%s",
		m.Material.Flags, m.Material.Param, m.Collidable, m.ExportVisible,
		strings.Join(m.Material.Textures, ","))
}
