package gltf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/HugoSmits86/nativewebp"

	"eq-zone-gltf/internal/zone"
)

// Options controls what the encoder emits.
type Options struct {
	// Name labels the scene and the zone geometry node.
	Name string
	// ExportCollision keeps collision-only meshes (invisible walls) in
	// the output instead of dropping them.
	ExportCollision bool
	// WebP encodes textures as WebP behind EXT_texture_webp instead of
	// PNG.
	WebP bool
	// Optimize merges meshes sharing a material into one primitive.
	Optimize bool
}

const generator = "eq-zone-gltf"

// Encode serializes a transformed zone and its decoded textures into a
// self-contained GLB. Output is deterministic for a given input.
func Encode(z *zone.Zone, textures map[string]*image.NRGBA, opts Options) ([]byte, error) {
	e := &encoder{
		opts:      opts,
		texIndex:  make(map[string]int),
		matIndex:  make(map[string]int),
		meshIndex: make(map[string]int),
	}
	e.doc.Asset = Asset{Version: "2.0", Generator: generator}

	if err := e.encodeTextures(z, textures); err != nil {
		return nil, err
	}
	e.encodeObjects(z)
	e.encodeNodes(z)

	e.doc.Buffers = []Buffer{{ByteLength: e.bin.Len()}}
	scene := 0
	e.doc.Scene = &scene

	return buildGLB(&e.doc, e.bin.Bytes())
}

type encoder struct {
	opts Options
	doc  Document
	bin  bytes.Buffer

	texIndex  map[string]int
	matIndex  map[string]int
	meshIndex map[string]int
}

func (e *encoder) exportable(m *zone.Mesh) bool {
	return (m.ExportVisible || e.opts.ExportCollision) && len(m.Polys) > 0
}

// encodeTextures writes one image per referenced texture name, in
// sorted order, and sets up the shared sampler.
func (e *encoder) encodeTextures(z *zone.Zone, textures map[string]*image.NRGBA) error {
	names := make(map[string]bool)
	for _, obj := range z.Objects {
		for _, m := range obj.Meshes {
			if !e.exportable(m) || !m.Material.Textured() {
				continue
			}
			if name := m.Material.Textures[0]; textures[name] != nil {
				names[name] = true
			}
		}
	}
	if len(names) == 0 {
		return nil
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	linear := FilterLinear
	mipmap := FilterLinearMipmapLinear
	repeat := WrapRepeat
	e.doc.Samplers = []Sampler{{MagFilter: &linear, MinFilter: &mipmap, WrapS: &repeat, WrapT: &repeat}}
	sampler := 0

	for _, name := range sorted {
		var pixels bytes.Buffer
		mime := "image/png"
		if e.opts.WebP {
			mime = "image/webp"
			if err := nativewebp.Encode(&pixels, textures[name], nil); err != nil {
				return fmt.Errorf("gltf: encode %s: %w", name, err)
			}
		} else if err := png.Encode(&pixels, textures[name]); err != nil {
			return fmt.Errorf("gltf: encode %s: %w", name, err)
		}

		view := e.addView(pixels.Bytes(), nil)
		img := len(e.doc.Images)
		e.doc.Images = append(e.doc.Images, Image{Name: name, MimeType: mime, BufferView: &view})

		tex := Texture{Name: name, Sampler: &sampler}
		if e.opts.WebP {
			tex.Extensions = &TextureExtensions{WebP: &WebPSource{Source: img}}
		} else {
			src := img
			tex.Source = &src
		}
		e.texIndex[name] = len(e.doc.Textures)
		e.doc.Textures = append(e.doc.Textures, tex)
	}

	if e.opts.WebP {
		e.doc.ExtensionsUsed = append(e.doc.ExtensionsUsed, extTextureWebP)
		e.doc.ExtensionsRequired = append(e.doc.ExtensionsRequired, extTextureWebP)
	}
	return nil
}

// encodeObjects emits one glTF mesh per exported object, a primitive
// per material run. Objects nothing instantiates are skipped.
func (e *encoder) encodeObjects(z *zone.Zone) {
	used := map[string]bool{"": true}
	for _, p := range z.Placeables {
		used[p.ObjectName] = true
	}

	for i, obj := range z.Objects {
		if i > 0 && !used[obj.Name] {
			continue
		}
		meshes := obj.Meshes
		if e.opts.Optimize {
			meshes = mergeByMaterial(meshes)
		}
		var prims []Primitive
		for _, m := range meshes {
			if e.exportable(m) {
				prims = append(prims, e.encodePrimitive(m))
			}
		}
		if len(prims) == 0 {
			continue
		}
		name := obj.Name
		if name == "" {
			name = e.opts.Name
		}
		e.meshIndex[obj.Name] = len(e.doc.Meshes)
		e.doc.Meshes = append(e.doc.Meshes, Mesh{Name: name, Primitives: prims})
	}
}

func (e *encoder) encodePrimitive(m *zone.Mesh) Primitive {
	positions := make([]float32, 0, len(m.Verts)*3)
	normals := make([]float32, 0, len(m.Verts)*3)
	uvs := make([]float32, 0, len(m.Verts)*2)
	min := [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	max := [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, v := range m.Verts {
		for i := 0; i < 3; i++ {
			if v.Position[i] < min[i] {
				min[i] = v.Position[i]
			}
			if v.Position[i] > max[i] {
				max[i] = v.Position[i]
			}
		}
		positions = append(positions, v.Position[0], v.Position[1], v.Position[2])
		normals = append(normals, v.Normal[0], v.Normal[1], v.Normal[2])
		uvs = append(uvs, v.UV[0], 1-v.UV[1])
	}

	// Winding reverses with the handedness change of the axis remap.
	indices := make([]uint32, 0, len(m.Polys)*3)
	for _, p := range m.Polys {
		indices = append(indices, uint32(p[0]), uint32(p[2]), uint32(p[1]))
	}

	attrs := map[string]int{
		"POSITION": e.addAccessor(positions, TypeVec3, min[:], max[:], TargetArrayBuffer),
		"NORMAL":   e.addAccessor(normals, TypeVec3, nil, nil, TargetArrayBuffer),
	}
	if m.Material.Textured() {
		attrs["TEXCOORD_0"] = e.addAccessor(uvs, TypeVec2, nil, nil, TargetArrayBuffer)
	}
	idx := e.addIndices(indices)
	mat := e.material(m.Material)
	return Primitive{Attributes: attrs, Indices: &idx, Material: &mat}
}

// material returns the index of a document material matching the zone
// material, creating it on first use.
func (e *encoder) material(m zone.Material) int {
	texName := ""
	if m.Textured() {
		texName = m.Textures[0]
	}
	key := fmt.Sprintf("%s|%#x", texName, m.Flags)
	if idx, ok := e.matIndex[key]; ok {
		return idx
	}

	metallic := float32(0)
	roughness := float32(1)
	pbr := &PBRMetallicRoughness{MetallicFactor: &metallic, RoughnessFactor: &roughness}

	name := "default"
	if tex, ok := e.texIndex[texName]; ok {
		pbr.BaseColorTexture = &TextureInfo{Index: tex}
		name = strings.TrimSuffix(texName, filepath.Ext(texName))
	}

	mat := Material{Name: name, PBRMetallicRoughness: pbr}
	switch {
	case m.Flags&zone.FlagAlphaMask != 0:
		mat.AlphaMode = AlphaMask
		cutoff := float32(0.5)
		mat.AlphaCutoff = &cutoff
	case m.Transparent():
		mat.AlphaMode = AlphaBlend
		if pbr.BaseColorTexture == nil {
			pbr.BaseColorFactor = &[4]float32{1, 1, 1, 0.25}
		}
	}
	if m.Flags&zone.FlagEmissive != 0 {
		mat.EmissiveFactor = &[3]float32{1, 1, 1}
	}

	idx := len(e.doc.Materials)
	e.doc.Materials = append(e.doc.Materials, mat)
	e.matIndex[key] = idx
	return idx
}

// encodeNodes builds the scene graph: the zone geometry node, one node
// per placeable instance and one per light.
func (e *encoder) encodeNodes(z *zone.Zone) {
	var roots []int

	if idx, ok := e.meshIndex[""]; ok {
		mesh := idx
		roots = append(roots, len(e.doc.Nodes))
		e.doc.Nodes = append(e.doc.Nodes, Node{Name: e.opts.Name, Mesh: &mesh})
	}

	for i, p := range z.Placeables {
		idx, ok := e.meshIndex[p.ObjectName]
		if !ok {
			continue
		}
		mesh := idx
		n := Node{
			Name:        fmt.Sprintf("%s.%03d", p.ObjectName, i),
			Mesh:        &mesh,
			Translation: &[3]float32{p.Position[0], p.Position[1], p.Position[2]},
		}
		if p.Rotation != ([3]float32{}) {
			q := eulerToQuat(p.Rotation)
			n.Rotation = &q
		}
		if p.Scale != ([3]float32{1, 1, 1}) && p.Scale != ([3]float32{}) {
			n.Scale = &[3]float32{p.Scale[0], p.Scale[1], p.Scale[2]}
		}
		roots = append(roots, len(e.doc.Nodes))
		e.doc.Nodes = append(e.doc.Nodes, n)
	}

	if len(z.Lights) > 0 {
		lights := make([]PunctualLight, 0, len(z.Lights))
		for i, l := range z.Lights {
			intensity := l.Attenuation / 100
			if intensity < 1 {
				intensity = 1
			}
			lights = append(lights, PunctualLight{
				Type:      "point",
				Name:      fmt.Sprintf("light.%03d", i),
				Color:     l.Color,
				Intensity: intensity,
				Range:     l.Radius,
			})
			ref := i
			roots = append(roots, len(e.doc.Nodes))
			e.doc.Nodes = append(e.doc.Nodes, Node{
				Name:        fmt.Sprintf("light.%03d", i),
				Translation: &[3]float32{l.Position[0], l.Position[1], l.Position[2]},
				Extensions:  &NodeExtensions{Light: &LightRef{Light: ref}},
			})
		}
		e.doc.Extensions = &DocumentExtensions{Lights: &LightsPunctual{Lights: lights}}
		e.doc.ExtensionsUsed = append(e.doc.ExtensionsUsed, extLightsPunctual)
	}

	e.doc.Scenes = []Scene{{Name: e.opts.Name, Nodes: roots}}
}

// addView appends data to the binary chunk, 4-aligned, and returns the
// new buffer view index.
func (e *encoder) addView(data []byte, target *int) int {
	for e.bin.Len()%4 != 0 {
		e.bin.WriteByte(0)
	}
	offset := e.bin.Len()
	e.bin.Write(data)
	idx := len(e.doc.BufferViews)
	e.doc.BufferViews = append(e.doc.BufferViews, BufferView{
		Buffer:     0,
		ByteOffset: offset,
		ByteLength: len(data),
		Target:     target,
	})
	return idx
}

func (e *encoder) addAccessor(values []float32, elemType string, min, max []float32, target int) int {
	data := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	t := target
	view := e.addView(data, &t)
	width := 3
	if elemType == TypeVec2 {
		width = 2
	}
	idx := len(e.doc.Accessors)
	e.doc.Accessors = append(e.doc.Accessors, Accessor{
		BufferView:    &view,
		ComponentType: ComponentFloat,
		Count:         len(values) / width,
		Type:          elemType,
		Min:           min,
		Max:           max,
	})
	return idx
}

func (e *encoder) addIndices(indices []uint32) int {
	data := make([]byte, len(indices)*4)
	for i, v := range indices {
		binary.LittleEndian.PutUint32(data[i*4:], v)
	}
	t := TargetElementArrayBuffer
	view := e.addView(data, &t)
	idx := len(e.doc.Accessors)
	e.doc.Accessors = append(e.doc.Accessors, Accessor{
		BufferView:    &view,
		ComponentType: ComponentUnsignedInt,
		Count:         len(indices),
		Type:          TypeScalar,
	})
	return idx
}

// eulerToQuat composes the per-axis rotations x, then y, then z into a
// glTF quaternion (x, y, z, w).
func eulerToQuat(r [3]float32) [4]float32 {
	cx, sx := math.Cos(float64(r[0])/2), math.Sin(float64(r[0])/2)
	cy, sy := math.Cos(float64(r[1])/2), math.Sin(float64(r[1])/2)
	cz, sz := math.Cos(float64(r[2])/2), math.Sin(float64(r[2])/2)
	return [4]float32{
		float32(sx*cy*cz - cx*sy*sz),
		float32(cx*sy*cz + sx*cy*sz),
		float32(cx*cy*sz - sx*sy*cz),
		float32(cx*cy*cz + sx*sy*sz),
	}
}
