package zone

import (
	"sort"
	"strings"

	"eq-zone-gltf/internal/archive"
	"eq-zone-gltf/internal/ter"
)

// ResolveTerrain materializes a parsed terrain model into the zone's
// own geometry. Materials without a diffuse texture are invisible
// boundary geometry; triangles flagged as invisible walls become
// collidable meshes excluded from visual export but retained in the
// mesh table. Iteration is in sorted material order for reproducible
// output.
func ResolveTerrain(m *ter.Model, z *Zone, arc *archive.Archive, pool map[string][]byte, warns *Warnings) {
	materials := make(map[uint32]Material, len(m.Materials)+1)
	materials[ter.InvisibleMaterialID] = Material{Flags: FlagTransparent}
	for index, mat := range m.Materials {
		diffuse, ok := mat.Diffuse()
		if !ok {
			materials[index] = Material{Flags: FlagTransparent}
			continue
		}
		filename := strings.ToLower(diffuse)
		materials[index] = Material{Textures: []string{filename}}
		if _, have := pool[filename]; !have {
			if blob, found := arc.Open(filename); found {
				pool[filename] = blob
			} else {
				warns.Addf("terrain", 0, "texture %s not present in archive", filename)
			}
		}
	}

	verts := make([]Vertex, len(m.Vertices))
	for i, v := range m.Vertices {
		verts[i] = Vertex{Position: v.Position, Normal: v.Normal, UV: v.UV}
	}

	visible := make(map[uint32][]Poly)
	walls := make(map[uint32][]Poly)
	for _, tri := range m.Triangles {
		poly := Poly{int(tri.Index[0]), int(tri.Index[1]), int(tri.Index[2])}
		if tri.InvisibleWall() {
			walls[tri.Material] = append(walls[tri.Material], poly)
		} else {
			visible[tri.Material] = append(visible[tri.Material], poly)
		}
	}

	obj := z.ZoneObject()
	for _, index := range sortedKeys(visible) {
		material, ok := materials[index]
		if !ok {
			warns.Addf("terrain", 0, "triangle material %d not in material table, using default", index)
			material = DefaultMaterial
		}
		obj.AddMesh(&Mesh{Material: material, Verts: verts, Polys: visible[index]})
	}

	wallMaterial := Material{Flags: FlagTransparent}
	for _, index := range sortedKeys(walls) {
		obj.AddMesh(&Mesh{
			Material:   wallMaterial,
			Verts:      verts,
			Polys:      walls[index],
			Collidable: true,
		})
	}
}

func sortedKeys(m map[uint32][]Poly) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
