// Package ter parses EQG terrain/model geometry (the newer vertex,
// polygon and material binary variant). Two layouts are in the wild;
// version 3 widens the vertex record and drops the trailing sentinel.
package ter

import (
	"errors"
	"fmt"

	"eq-zone-gltf/internal/buffer"
)

// Magic identifies a terrain stream.
const Magic = "EQGT"

var (
	ErrBadMagic           = errors.New("ter: bad magic")
	ErrUnsupportedVersion = errors.New("ter: unsupported version")
	ErrTruncated          = errors.New("ter: truncated stream")
)

// DiffuseProperty is the material property naming the diffuse texture.
// Materials without it do not render (invisible boundary geometry).
const DiffuseProperty = "e_TextureDiffuse0"

// InvisibleMaterialID marks triangles with no material at all.
const InvisibleMaterialID = 0xFFFFFFFF

// Property is one shader parameter of a material.
type Property struct {
	Float  float32
	String string
	Uint   uint32
	Kind   PropertyKind
}

type PropertyKind int

const (
	PropFloat PropertyKind = iota
	PropString
	PropUint
)

// Material is one named shader binding in the terrain stream.
type Material struct {
	Name       string
	Shader     string
	Properties map[string]Property
}

// Diffuse returns the diffuse texture filename, if the material has one.
func (m Material) Diffuse() (string, bool) {
	p, ok := m.Properties[DiffuseProperty]
	if !ok || p.Kind != PropString {
		return "", false
	}
	return p.String, true
}

// Vertex matches the resolved vertex layout: position, normal, uv.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

// Triangle carries its material assignment and engine flags. Flags with
// the low two bits set are invisible-wall polygons: collidable zone
// boundaries excluded from visual export.
type Triangle struct {
	Index    [3]uint32
	Material uint32
	Flags    uint32
}

// InvisibleWall reports whether this triangle is boundary collision
// geometry rather than visible terrain.
func (t Triangle) InvisibleWall() bool { return t.Flags&0x3 != 0 }

// Model is the parsed terrain stream.
type Model struct {
	Version   uint32
	Materials map[uint32]Material
	Vertices  []Vertex
	Triangles []Triangle
}

// Parse decodes a terrain/model blob.
func Parse(data []byte) (*Model, error) {
	b := buffer.New(data)
	if string(b.Bytes(4)) != Magic {
		return nil, ErrBadMagic
	}

	version := b.Uint32()
	strLen := int(b.Uint32())
	matCount := int(b.Uint32())
	vertCount := int(b.Uint32())
	triCount := int(b.Uint32())
	if version != 2 && version != 3 {
		return nil, fmt.Errorf("ter: version %d: %w", version, ErrUnsupportedVersion)
	}

	pool := buffer.New(b.Bytes(strLen))
	if b.Truncated() {
		return nil, fmt.Errorf("ter: string pool: %w", ErrTruncated)
	}

	m := &Model{Version: version, Materials: make(map[uint32]Material, matCount)}

	for i := 0; i < matCount; i++ {
		index := b.Uint32()
		mat := Material{
			Name:       pool.CString(int(b.Uint32())),
			Shader:     pool.CString(int(b.Uint32())),
			Properties: make(map[string]Property),
		}
		propCount := int(b.Uint32())
		for j := 0; j < propCount; j++ {
			name := pool.CString(int(b.Uint32()))
			var p Property
			switch kind := b.Uint32(); kind {
			case 0:
				p = Property{Kind: PropFloat, Float: b.Float32()}
			case 2:
				p = Property{Kind: PropString, String: pool.CString(int(b.Uint32()))}
			case 3:
				p = Property{Kind: PropUint, Uint: b.Uint32()}
			default:
				return nil, fmt.Errorf("ter: material %s property %s has unknown type %d: %w",
					mat.Name, name, kind, ErrUnsupportedVersion)
			}
			mat.Properties[name] = p
		}
		m.Materials[index] = mat
	}

	m.Vertices = make([]Vertex, vertCount)
	for i := range m.Vertices {
		v := Vertex{Position: b.Vec3(), Normal: b.Vec3()}
		if version == 3 {
			b.Skip(12) // color and unused lighting floats
		}
		v.UV = b.Vec2()
		m.Vertices[i] = v
	}

	m.Triangles = make([]Triangle, triCount)
	for i := range m.Triangles {
		// Index order is reversed on the wire.
		c, bb, a := b.Uint32(), b.Uint32(), b.Uint32()
		m.Triangles[i] = Triangle{
			Index:    [3]uint32{a, bb, c},
			Material: b.Uint32(),
			Flags:    b.Uint32(),
		}
	}

	if b.Truncated() {
		return nil, fmt.Errorf("ter: geometry: %w", ErrTruncated)
	}
	if version == 2 {
		if sentinel := b.Uint32(); b.Truncated() || sentinel != 0 {
			return nil, fmt.Errorf("ter: missing trailing sentinel: %w", ErrTruncated)
		}
	}

	return m, nil
}
