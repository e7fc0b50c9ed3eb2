package wld

import (
	"math"
	"strings"

	"eq-zone-gltf/internal/buffer"
)

// Known fragment type codes. Anything else is preserved as Opaque.
const (
	TTextureName      = 0x03
	TTextureBitmap    = 0x04
	TBitmapRef        = 0x05
	TActorDef         = 0x14
	TObjectInstance   = 0x15
	TLightSource      = 0x1B
	TLightSourceRef   = 0x1C
	TLightInfo        = 0x28
	TAmbient          = 0x2A
	TMeshRef          = 0x2D
	TMaterialDef      = 0x30
	TMaterialList     = 0x31
	TMesh             = 0x36
)

// TextureName (0x03) carries the image filenames behind one texture.
type TextureName struct {
	Names []string
}

// TextureBitmap (0x04) binds a texture face to one or more TextureName
// fragments. More than one reference means an animated texture; Params
// then carries the frame delay.
type TextureBitmap struct {
	Flags  uint32
	Params uint32
	Refs   []Ref
}

// Animated reports whether this texture cycles through frames.
func (t *TextureBitmap) Animated() bool {
	return t.Flags&(1<<3) != 0 && len(t.Refs) > 1
}

// BitmapRef (0x05) is an indirection to a TextureBitmap.
type BitmapRef struct {
	Ref Ref
}

// ActorDef (0x14) names a placeable model and references its components
// (mesh references for static objects, skeleton sets for characters).
type ActorDef struct {
	Components []Ref
}

// ObjectInstance (0x15) places a named actor at a transform. Rotation is
// already converted from halfword-circle units to radians, with the
// engine's reversed component order applied. Scale is uniform.
type ObjectInstance struct {
	ActorRef Ref
	Position [3]float32
	Rotation [3]float32
	Scale    [3]float32
}

// LightSource (0x1B) holds color and attenuation for a light.
type LightSource struct {
	Attenuation float32
	Color       [3]float32
}

// LightSourceRef (0x1C) is an indirection to a LightSource.
type LightSourceRef struct {
	Ref Ref
}

// LightInfo (0x28) places a light in the zone.
type LightInfo struct {
	LightRef Ref
	Flags    uint32
	Position [3]float32
	Radius   float32
}

// Ambient (0x2A) assigns a light to a set of BSP regions.
type Ambient struct {
	LightRef Ref
	Flags    uint32
	Regions  []uint32
}

// MeshRef (0x2D) is an indirection to a Mesh.
type MeshRef struct {
	Ref Ref
}

// MaterialDef (0x30) carries the raw render-method flags and the
// reference into the texture chain. Flag interpretation happens during
// resolution, not here.
type MaterialDef struct {
	RawFlags  uint32
	BitmapRef Ref
}

// MaterialList (0x31) is the per-mesh material table. The first payload
// word is a reserved always-zero discriminator, not a count; the real
// count follows it. Naively reading [count][refs...] misparses the
// whole table.
type MaterialList struct {
	Refs []Ref
}

// Poly is one triangle with its collidability flag. The engine marks
// non-collidable polygons with flag word 0x0010.
type Poly struct {
	Collidable bool
	Index      [3]uint16
}

// Mesh (0x36) is zone or object geometry: quantized vertices around a
// center point, per-run material assignments, optional bone bindings.
type Mesh struct {
	MaterialListRef Ref
	AnimationRef    Ref
	Center          [3]float32
	Vertices        [][3]float32
	TexCoords       [][2]float32
	Normals         [][3]float32
	Colors          []uint32
	Polys           []Poly
	BoneRuns        [][2]uint16 // vertex count, bone index
	MaterialRuns    [][2]uint16 // polygon count, material-list index
}

// Opaque preserves payloads of type codes this parser does not
// understand, so unknown fragments never abort the stream.
type Opaque struct {
	Raw []byte
}

func decodePayload(w *WLD, typeCode uint32, payload []byte) any {
	b := buffer.New(payload)
	switch typeCode {
	case TTextureName:
		return decodeTextureName(b)
	case TTextureBitmap:
		return decodeTextureBitmap(b)
	case TBitmapRef:
		return &BitmapRef{Ref: Ref(b.Int32())}
	case TActorDef:
		return decodeActorDef(b)
	case TObjectInstance:
		return decodeObjectInstance(b)
	case TLightSource:
		return decodeLightSource(b)
	case TLightSourceRef:
		return &LightSourceRef{Ref: Ref(b.Int32())}
	case TLightInfo:
		return &LightInfo{
			LightRef: Ref(b.Int32()),
			Flags:    b.Uint32(),
			Position: b.Vec3(),
			Radius:   b.Float32(),
		}
	case TAmbient:
		return decodeAmbient(b)
	case TMeshRef:
		return &MeshRef{Ref: Ref(b.Int32())}
	case TMaterialDef:
		return decodeMaterialDef(b)
	case TMaterialList:
		return decodeMaterialList(b)
	case TMesh:
		return decodeMesh(w, b)
	default:
		raw := make([]byte, len(payload))
		copy(raw, payload)
		return &Opaque{Raw: raw}
	}
}

func decodeTextureName(b *buffer.Buffer) *TextureName {
	count := int(b.Uint32()) + 1
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		n := int(b.Uint16())
		s := string(decodeString(b.Bytes(n)))
		names = append(names, strings.TrimRight(s, "\x00"))
	}
	return &TextureName{Names: names}
}

func decodeTextureBitmap(b *buffer.Buffer) *TextureBitmap {
	t := &TextureBitmap{Flags: b.Uint32()}
	count := int(b.Uint32())
	if t.Flags&(1<<2) != 0 {
		b.Uint32()
	}
	if t.Flags&(1<<3) != 0 {
		t.Params = b.Uint32()
	}
	t.Refs = make([]Ref, count)
	for i := range t.Refs {
		t.Refs[i] = Ref(b.Int32())
	}
	return t
}

func decodeActorDef(b *buffer.Buffer) *ActorDef {
	flags := b.Uint32()
	b.Uint32() // callback name reference
	size1 := int(b.Uint32())
	size2 := int(b.Uint32())
	b.Uint32() // fragment 2
	if flags&1 != 0 {
		b.Uint32()
	}
	if flags&2 != 0 {
		b.Uint32()
	}
	for i := 0; i < size1; i++ {
		n := int(b.Uint32())
		b.Skip(n * 8) // entry pairs (uint32, float32)
	}
	refs := make([]Ref, size2)
	for i := range refs {
		refs[i] = Ref(b.Int32())
	}
	return &ActorDef{Components: refs}
}

func decodeObjectInstance(b *buffer.Buffer) *ObjectInstance {
	o := &ObjectInstance{ActorRef: Ref(b.Int32())}
	b.Uint32() // flags
	b.Uint32() // fragment 1
	o.Position = b.Vec3()
	rot := b.Vec3()
	// Stored in 512ths of a circle with reversed component order.
	const toRadians = 2 * math.Pi / 512.0
	o.Rotation = [3]float32{rot[2] * toRadians, rot[1] * toRadians, rot[0] * toRadians}
	scale := b.Vec3()
	if scale[2] > 0.0001 {
		o.Scale = [3]float32{scale[2], scale[2], scale[2]}
	} else {
		o.Scale = [3]float32{1, 1, 1}
	}
	b.Uint32() // fragment 2
	b.Uint32() // params
	return o
}

func decodeLightSource(b *buffer.Buffer) *LightSource {
	flags := b.Uint32()
	b.Uint32() // params
	l := &LightSource{Attenuation: 200}
	if flags&(1<<4) != 0 {
		if flags&(1<<3) != 0 {
			l.Attenuation = float32(b.Uint32())
		}
		b.Float32() // unknown
		l.Color = b.Vec3()
	} else {
		v := b.Float32()
		l.Color = [3]float32{v, v, v}
	}
	return l
}

func decodeAmbient(b *buffer.Buffer) *Ambient {
	a := &Ambient{LightRef: Ref(b.Int32()), Flags: b.Uint32()}
	count := int(b.Uint32())
	a.Regions = make([]uint32, count)
	for i := range a.Regions {
		a.Regions[i] = b.Uint32()
	}
	return a
}

func decodeMaterialDef(b *buffer.Buffer) *MaterialDef {
	pairFlags := b.Uint32()
	m := &MaterialDef{RawFlags: b.Uint32()}
	b.Skip(12)
	if pairFlags&2 != 0 {
		b.Skip(8)
	}
	m.BitmapRef = Ref(b.Int32())
	return m
}

func decodeMaterialList(b *buffer.Buffer) *MaterialList {
	b.Uint32() // reserved, always zero
	count := int(b.Uint32())
	l := &MaterialList{}
	for i := 0; i < count; i++ {
		if ref := Ref(b.Int32()); ref > 0 {
			l.Refs = append(l.Refs, ref)
		}
	}
	return l
}

func decodeMesh(w *WLD, b *buffer.Buffer) *Mesh {
	m := &Mesh{}
	b.Uint32() // flags
	m.MaterialListRef = Ref(b.Int32())
	m.AnimationRef = Ref(b.Int32())
	b.Skip(8)
	m.Center = b.Vec3()
	b.Skip(12)
	b.Float32() // max distance
	b.Vec3()    // bounding min
	b.Vec3()    // bounding max

	vertCount := int(b.Uint16())
	texCoordCount := int(b.Uint16())
	normalCount := int(b.Uint16())
	colorCount := int(b.Uint16())
	polyCount := int(b.Uint16())
	boneRunCount := int(b.Uint16())
	materialRunCount := int(b.Uint16())
	b.Uint16() // vertex-texture run count
	b.Uint16() // size9
	scale := float32(int32(1) << b.Uint16())

	m.Vertices = make([][3]float32, vertCount)
	for i := range m.Vertices {
		m.Vertices[i] = [3]float32{
			float32(b.Int16())/scale + m.Center[0],
			float32(b.Int16())/scale + m.Center[1],
			float32(b.Int16())/scale + m.Center[2],
		}
	}

	if texCoordCount == 0 {
		m.TexCoords = make([][2]float32, vertCount)
	} else {
		m.TexCoords = make([][2]float32, texCoordCount)
		for i := range m.TexCoords {
			if w.Old {
				m.TexCoords[i] = [2]float32{float32(b.Int16()) / 256, float32(b.Int16()) / 256}
			} else {
				m.TexCoords[i] = b.Vec2()
			}
		}
	}

	m.Normals = make([][3]float32, normalCount)
	for i := range m.Normals {
		m.Normals[i] = [3]float32{
			float32(b.Int8()) / 127,
			float32(b.Int8()) / 127,
			float32(b.Int8()) / 127,
		}
	}

	m.Colors = make([]uint32, colorCount)
	for i := range m.Colors {
		m.Colors[i] = b.Uint32()
	}
	if colorCount == 0 {
		m.Colors = make([]uint32, vertCount)
	}

	m.Polys = make([]Poly, polyCount)
	for i := range m.Polys {
		flags := b.Uint16()
		m.Polys[i] = Poly{
			Collidable: flags != 0x0010,
			Index:      [3]uint16{b.Uint16(), b.Uint16(), b.Uint16()},
		}
	}

	m.BoneRuns = make([][2]uint16, boneRunCount)
	for i := range m.BoneRuns {
		m.BoneRuns[i] = [2]uint16{b.Uint16(), b.Uint16()}
	}

	m.MaterialRuns = make([][2]uint16, materialRunCount)
	for i := range m.MaterialRuns {
		m.MaterialRuns[i] = [2]uint16{b.Uint16(), b.Uint16()}
	}

	return m
}
