package gltf

import (
	"encoding/binary"
	"encoding/json"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"eq-zone-gltf/internal/zone"
)

func testMesh(mat zone.Material) *zone.Mesh {
	return &zone.Mesh{
		Material: mat,
		Verts: []zone.Vertex{
			{Position: [3]float32{0, 0, 0}, Normal: [3]float32{0, 1, 0}, UV: [2]float32{0, 0}},
			{Position: [3]float32{1, 0, 0}, Normal: [3]float32{0, 1, 0}, UV: [2]float32{1, 0}},
			{Position: [3]float32{0, 2, -1}, Normal: [3]float32{0, 1, 0}, UV: [2]float32{0, 1}},
		},
		Polys: []zone.Poly{{0, 1, 2}},
	}
}

func testTextures() map[string]*image.NRGBA {
	return map[string]*image.NRGBA{
		"grass.bmp": image.NewNRGBA(image.Rect(0, 0, 4, 4)),
	}
}

func decodeGLB(t *testing.T, glb []byte) (Document, []byte) {
	t.Helper()
	require.GreaterOrEqual(t, len(glb), 20)
	require.EqualValues(t, glbMagic, binary.LittleEndian.Uint32(glb))
	require.EqualValues(t, glbVersion, binary.LittleEndian.Uint32(glb[4:]))
	require.EqualValues(t, len(glb), binary.LittleEndian.Uint32(glb[8:]))

	jsonLen := int(binary.LittleEndian.Uint32(glb[12:]))
	require.EqualValues(t, chunkJSON, binary.LittleEndian.Uint32(glb[16:]))
	require.Zero(t, jsonLen%4)

	var doc Document
	require.NoError(t, json.Unmarshal(glb[20:20+jsonLen], &doc))

	var bin []byte
	if rest := glb[20+jsonLen:]; len(rest) > 0 {
		binLen := int(binary.LittleEndian.Uint32(rest))
		require.EqualValues(t, chunkBIN, binary.LittleEndian.Uint32(rest[4:]))
		bin = rest[8 : 8+binLen]
	}
	return doc, bin
}

func TestEncodeZoneGeometry(t *testing.T) {
	z := zone.New()
	z.ZoneObject().AddMesh(testMesh(zone.Material{Textures: []string{"grass.bmp"}}))

	glb, err := Encode(z, testTextures(), Options{Name: "qeynos"})
	require.NoError(t, err)

	doc, bin := decodeGLB(t, glb)
	require.Equal(t, "2.0", doc.Asset.Version)
	require.Len(t, doc.Meshes, 1)
	require.Equal(t, "qeynos", doc.Meshes[0].Name)
	require.Len(t, doc.Meshes[0].Primitives, 1)
	require.Len(t, doc.Images, 1)
	require.Equal(t, "image/png", doc.Images[0].MimeType)
	require.NotEmpty(t, bin)

	prim := doc.Meshes[0].Primitives[0]
	require.Contains(t, prim.Attributes, "POSITION")
	require.Contains(t, prim.Attributes, "NORMAL")
	require.Contains(t, prim.Attributes, "TEXCOORD_0")

	pos := doc.Accessors[prim.Attributes["POSITION"]]
	require.Equal(t, 3, pos.Count)
	require.Equal(t, []float32{0, 0, -1}, pos.Min)
	require.Equal(t, []float32{1, 2, 0}, pos.Max)
}

func TestEncodeReversesWinding(t *testing.T) {
	z := zone.New()
	z.ZoneObject().AddMesh(testMesh(zone.Material{}))

	glb, err := Encode(z, nil, Options{Name: "z"})
	require.NoError(t, err)

	doc, bin := decodeGLB(t, glb)
	prim := doc.Meshes[0].Primitives[0]
	acc := doc.Accessors[*prim.Indices]
	view := doc.BufferViews[*acc.BufferView]
	idx := bin[view.ByteOffset : view.ByteOffset+view.ByteLength]
	require.EqualValues(t, 0, binary.LittleEndian.Uint32(idx))
	require.EqualValues(t, 2, binary.LittleEndian.Uint32(idx[4:]))
	require.EqualValues(t, 1, binary.LittleEndian.Uint32(idx[8:]))
}

func TestEncodeFlipsV(t *testing.T) {
	z := zone.New()
	z.ZoneObject().AddMesh(testMesh(zone.Material{Textures: []string{"grass.bmp"}}))

	glb, err := Encode(z, testTextures(), Options{Name: "z"})
	require.NoError(t, err)

	doc, bin := decodeGLB(t, glb)
	prim := doc.Meshes[0].Primitives[0]
	acc := doc.Accessors[prim.Attributes["TEXCOORD_0"]]
	view := doc.BufferViews[*acc.BufferView]
	uv := bin[view.ByteOffset:]
	// first vertex had UV (0, 0), third had (0, 1)
	v0 := math.Float32frombits(binary.LittleEndian.Uint32(uv[1*4:]))
	require.EqualValues(t, 1, v0)
	v2 := math.Float32frombits(binary.LittleEndian.Uint32(uv[5*4:]))
	require.EqualValues(t, 0, v2)
}

func TestEncodeSkipsCollisionMeshes(t *testing.T) {
	z := zone.New()
	z.ZoneObject().AddMesh(testMesh(zone.Material{Textures: []string{"grass.bmp"}}))
	wall := testMesh(zone.Material{Flags: zone.FlagTransparent})
	wall.Collidable = true
	z.ZoneObject().Meshes = append(z.ZoneObject().Meshes, wall)

	glb, err := Encode(z, testTextures(), Options{Name: "z"})
	require.NoError(t, err)
	doc, _ := decodeGLB(t, glb)
	require.Len(t, doc.Meshes[0].Primitives, 1)

	glb, err = Encode(z, testTextures(), Options{Name: "z", ExportCollision: true})
	require.NoError(t, err)
	doc, _ = decodeGLB(t, glb)
	require.Len(t, doc.Meshes[0].Primitives, 2)

	wallMat := doc.Materials[*doc.Meshes[0].Primitives[1].Material]
	require.Equal(t, AlphaBlend, wallMat.AlphaMode)
	require.NotNil(t, wallMat.PBRMetallicRoughness.BaseColorFactor)
}

func TestEncodeMaterialModes(t *testing.T) {
	z := zone.New()
	z.ZoneObject().AddMesh(testMesh(zone.Material{Flags: zone.FlagAlphaMask, Textures: []string{"grass.bmp"}}))
	z.ZoneObject().AddMesh(testMesh(zone.Material{Flags: zone.FlagEmissive, Textures: []string{"grass.bmp"}}))

	glb, err := Encode(z, testTextures(), Options{Name: "z"})
	require.NoError(t, err)
	doc, _ := decodeGLB(t, glb)
	require.Len(t, doc.Materials, 2)

	masked := doc.Materials[0]
	require.Equal(t, AlphaMask, masked.AlphaMode)
	require.NotNil(t, masked.AlphaCutoff)
	require.EqualValues(t, 0.5, *masked.AlphaCutoff)

	emissive := doc.Materials[1]
	require.NotNil(t, emissive.EmissiveFactor)
	require.Equal(t, [3]float32{1, 1, 1}, *emissive.EmissiveFactor)
	require.EqualValues(t, 0, *emissive.PBRMetallicRoughness.MetallicFactor)
	require.EqualValues(t, 1, *emissive.PBRMetallicRoughness.RoughnessFactor)
}

func TestEncodeMaterialNamesDropExtension(t *testing.T) {
	z := zone.New()
	z.ZoneObject().AddMesh(testMesh(zone.Material{Textures: []string{"stone.dds"}}))
	textures := map[string]*image.NRGBA{"stone.dds": image.NewNRGBA(image.Rect(0, 0, 4, 4))}

	glb, err := Encode(z, textures, Options{Name: "z"})
	require.NoError(t, err)
	doc, _ := decodeGLB(t, glb)
	require.Equal(t, "stone", doc.Materials[0].Name)
}

func TestEncodePlaceables(t *testing.T) {
	z := zone.New()
	z.ZoneObject().AddMesh(testMesh(zone.Material{}))
	z.AddObject("TREE").AddMesh(testMesh(zone.Material{}))
	z.Placeables = append(z.Placeables, zone.Placeable{
		ObjectName: "TREE",
		Position:   [3]float32{10, 5, -3},
		Rotation:   [3]float32{0, float32(math.Pi) / 2, 0},
		Scale:      [3]float32{2, 2, 2},
	})

	glb, err := Encode(z, nil, Options{Name: "z"})
	require.NoError(t, err)
	doc, _ := decodeGLB(t, glb)

	require.Len(t, doc.Meshes, 2)
	require.Len(t, doc.Nodes, 2)
	n := doc.Nodes[1]
	require.Equal(t, "TREE.000", n.Name)
	require.Equal(t, [3]float32{10, 5, -3}, *n.Translation)
	require.Equal(t, [3]float32{2, 2, 2}, *n.Scale)
	require.NotNil(t, n.Rotation)
	require.InDelta(t, math.Sqrt2/2, float64((*n.Rotation)[1]), 1e-6)
	require.InDelta(t, math.Sqrt2/2, float64((*n.Rotation)[3]), 1e-6)
}

func TestEncodeSkipsUnplacedObjects(t *testing.T) {
	z := zone.New()
	z.ZoneObject().AddMesh(testMesh(zone.Material{}))
	z.AddObject("ORPHAN").AddMesh(testMesh(zone.Material{}))

	glb, err := Encode(z, nil, Options{Name: "z"})
	require.NoError(t, err)
	doc, _ := decodeGLB(t, glb)
	require.Len(t, doc.Meshes, 1)
}

func TestEncodeLights(t *testing.T) {
	z := zone.New()
	z.ZoneObject().AddMesh(testMesh(zone.Material{}))
	z.Lights = append(z.Lights, zone.Light{
		Position:    [3]float32{1, 2, 3},
		Radius:      50,
		Attenuation: 300,
		Color:       [3]float32{1, 0.5, 0},
	})

	glb, err := Encode(z, nil, Options{Name: "z"})
	require.NoError(t, err)
	doc, _ := decodeGLB(t, glb)

	require.Contains(t, doc.ExtensionsUsed, "KHR_lights_punctual")
	require.NotNil(t, doc.Extensions)
	require.Len(t, doc.Extensions.Lights.Lights, 1)
	l := doc.Extensions.Lights.Lights[0]
	require.Equal(t, "point", l.Type)
	require.EqualValues(t, 3, l.Intensity)
	require.EqualValues(t, 50, l.Range)

	node := doc.Nodes[len(doc.Nodes)-1]
	require.NotNil(t, node.Extensions)
	require.Equal(t, 0, node.Extensions.Light.Light)
	require.Equal(t, [3]float32{1, 2, 3}, *node.Translation)
}

func TestEncodeWebP(t *testing.T) {
	z := zone.New()
	z.ZoneObject().AddMesh(testMesh(zone.Material{Textures: []string{"grass.bmp"}}))

	glb, err := Encode(z, testTextures(), Options{Name: "z", WebP: true})
	require.NoError(t, err)
	doc, _ := decodeGLB(t, glb)

	require.Contains(t, doc.ExtensionsUsed, "EXT_texture_webp")
	require.Contains(t, doc.ExtensionsRequired, "EXT_texture_webp")
	require.Equal(t, "image/webp", doc.Images[0].MimeType)
	require.Nil(t, doc.Textures[0].Source)
	require.NotNil(t, doc.Textures[0].Extensions)
	require.Equal(t, 0, doc.Textures[0].Extensions.WebP.Source)
}

func TestEncodeOptimizeMergesPrimitives(t *testing.T) {
	z := zone.New()
	z.ZoneObject().AddMesh(testMesh(zone.Material{Textures: []string{"grass.bmp"}}))
	z.ZoneObject().AddMesh(testMesh(zone.Material{Textures: []string{"grass.bmp"}}))
	z.ZoneObject().AddMesh(testMesh(zone.Material{Flags: zone.FlagAlphaMask, Textures: []string{"grass.bmp"}}))

	glb, err := Encode(z, testTextures(), Options{Name: "z", Optimize: true})
	require.NoError(t, err)
	doc, _ := decodeGLB(t, glb)

	// two grass meshes merge, the masked one stays separate
	require.Len(t, doc.Meshes[0].Primitives, 2)
	merged := doc.Accessors[doc.Meshes[0].Primitives[0].Attributes["POSITION"]]
	require.Equal(t, 6, merged.Count)
	idx := doc.Accessors[*doc.Meshes[0].Primitives[0].Indices]
	require.Equal(t, 6, idx.Count)
}

func TestEncodeDeterministic(t *testing.T) {
	build := func() []byte {
		z := zone.New()
		z.ZoneObject().AddMesh(testMesh(zone.Material{Textures: []string{"grass.bmp"}}))
		z.ZoneObject().AddMesh(testMesh(zone.Material{Flags: zone.FlagAlphaMask, Textures: []string{"leaf.bmp"}}))
		tex := testTextures()
		tex["leaf.bmp"] = image.NewNRGBA(image.Rect(0, 0, 2, 2))
		glb, err := Encode(z, tex, Options{Name: "z"})
		require.NoError(t, err)
		return glb
	}
	require.Equal(t, build(), build())
}
