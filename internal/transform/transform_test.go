package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"eq-zone-gltf/internal/zone"
)

func TestRemapInvolution(t *testing.T) {
	samples := [][3]float32{
		{0, 0, 0},
		{1, 2, 3},
		{-4.5, 17.25, -0.001},
		{1e6, -1e6, 42},
	}
	for _, v := range samples {
		require.Equal(t, [3]float32{v[0], v[2], -v[1]}, Remap(v))
		got := Inverse(Remap(v))
		for i := 0; i < 3; i++ {
			require.InDelta(t, v[i], got[i], 1e-6)
		}
	}
}

func quadMesh(mat zone.Material, collidable bool) *zone.Mesh {
	return &zone.Mesh{
		Material: mat,
		Verts: []zone.Vertex{
			{Position: [3]float32{0, 0, 0}, Normal: [3]float32{0, 0, 1}},
			{Position: [3]float32{100, 0, 0}, Normal: [3]float32{0, 0, 1}},
			{Position: [3]float32{0, 100, 0}, Normal: [3]float32{0, 0, 1}},
			{Position: [3]float32{100, 100, 0}, Normal: [3]float32{0, 0, 1}},
		},
		Polys:      []zone.Poly{{0, 1, 2}, {1, 3, 2}},
		Collidable: collidable,
	}
}

func TestApplyRemapsEverything(t *testing.T) {
	z := zone.New()
	z.ZoneObject().AddMesh(quadMesh(zone.Material{Textures: []string{"grass.bmp"}}, false))
	z.Placeables = append(z.Placeables, zone.Placeable{
		ObjectName: "TREE",
		Position:   [3]float32{1, 2, 3},
		Rotation:   [3]float32{0.1, 0.2, 0.3},
		Scale:      [3]float32{1, 1, 1},
	})
	z.Lights = append(z.Lights, zone.Light{Position: [3]float32{4, 5, 6}})

	Apply(z, nil)

	m := z.ZoneObject().Meshes[0]
	require.Equal(t, [3]float32{100, 0, 0}, m.Verts[1].Position)
	require.Equal(t, [3]float32{0, 0, -100}, m.Verts[2].Position)
	require.Equal(t, [3]float32{0, 1, 0}, m.Verts[0].Normal)
	require.True(t, m.ExportVisible)

	require.Equal(t, [3]float32{1, 3, -2}, z.Placeables[0].Position)
	require.InDelta(t, 0.3, z.Placeables[0].Rotation[1], 1e-6)
	require.InDelta(t, -0.2, z.Placeables[0].Rotation[2], 1e-6)
	require.Equal(t, [3]float32{4, 6, -5}, z.Lights[0].Position)
}

func TestSharedVertexSlicesRemapOnce(t *testing.T) {
	z := zone.New()
	a := quadMesh(zone.Material{Textures: []string{"grass.bmp"}}, true)
	b := &zone.Mesh{Material: a.Material, Verts: a.Verts, Polys: []zone.Poly{{0, 2, 3}}}
	z.ZoneObject().AddMesh(a)
	z.ZoneObject().AddMesh(b)

	Apply(z, nil)

	// A double remap would have produced (0, -100, 0).
	require.Equal(t, [3]float32{0, 0, -100}, a.Verts[2].Position)
}

func TestInvisibleWallFinalization(t *testing.T) {
	z := zone.New()
	// Visible terrain establishes the zone footprint.
	terrain := quadMesh(zone.Material{Textures: []string{"grass.bmp"}}, false)
	z.ZoneObject().AddMesh(terrain)

	// Untextured transparent geometry is always a wall.
	wall := quadMesh(zone.Material{Flags: zone.FlagTransparent}, true)
	z.ZoneObject().AddMesh(wall)

	// Transparent but textured and small: not a wall.
	window := &zone.Mesh{
		Material: zone.Material{Flags: zone.FlagTransparent, Textures: []string{"glass.bmp"}},
		Verts: []zone.Vertex{
			{Position: [3]float32{10, 10, 0}},
			{Position: [3]float32{12, 10, 0}},
			{Position: [3]float32{10, 12, 0}},
		},
		Polys: []zone.Poly{{0, 1, 2}},
	}
	z.ZoneObject().AddMesh(window)

	Apply(z, nil)

	require.True(t, terrain.ExportVisible)
	require.False(t, wall.ExportVisible)
	require.True(t, wall.Collidable) // retained for collision use
	require.True(t, window.ExportVisible)
}

func TestCustomClassifier(t *testing.T) {
	z := zone.New()
	m := quadMesh(zone.Material{Textures: []string{"grass.bmp"}}, false)
	z.ZoneObject().AddMesh(m)

	Apply(z, func(*zone.Zone, *zone.Mesh) bool { return true })
	require.False(t, m.ExportVisible)
}
