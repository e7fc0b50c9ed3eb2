package ter

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type terBuilder struct {
	version uint32
	pool    bytes.Buffer
	offsets map[string]uint32
	body    bytes.Buffer
}

func newTerBuilder(version uint32) *terBuilder {
	b := &terBuilder{version: version, offsets: make(map[string]uint32)}
	b.pool.WriteByte(0)
	return b
}

func (b *terBuilder) str(s string) uint32 {
	if off, ok := b.offsets[s]; ok {
		return off
	}
	off := uint32(b.pool.Len())
	b.pool.WriteString(s)
	b.pool.WriteByte(0)
	b.offsets[s] = off
	return off
}

func (b *terBuilder) u32(v uint32)  { binary.Write(&b.body, binary.LittleEndian, v) }
func (b *terBuilder) f32(v float32) { b.u32(math.Float32bits(v)) }

func (b *terBuilder) bytes(matCount, vertCount, triCount int) []byte {
	var out bytes.Buffer
	le := binary.LittleEndian
	out.WriteString(Magic)
	binary.Write(&out, le, b.version)
	binary.Write(&out, le, uint32(b.pool.Len()))
	binary.Write(&out, le, uint32(matCount))
	binary.Write(&out, le, uint32(vertCount))
	binary.Write(&out, le, uint32(triCount))
	out.Write(b.pool.Bytes())
	out.Write(b.body.Bytes())
	if b.version == 2 {
		binary.Write(&out, le, uint32(0))
	}
	return out.Bytes()
}

func (b *terBuilder) addMaterial(index uint32, name, shader, diffuse string) {
	// String offsets must be interned before the record that uses them.
	nameOff, shaderOff := b.str(name), b.str(shader)
	props := [][2]uint32{}
	if diffuse != "" {
		props = append(props, [2]uint32{b.str(DiffuseProperty), b.str(diffuse)})
	}
	b.u32(index)
	b.u32(nameOff)
	b.u32(shaderOff)
	b.u32(uint32(len(props)))
	for _, p := range props {
		b.u32(p[0])
		b.u32(2) // string property
		b.u32(p[1])
	}
}

func (b *terBuilder) addVertex(x, y, z float32) {
	b.f32(x)
	b.f32(y)
	b.f32(z)
	b.f32(0)
	b.f32(0)
	b.f32(1)
	if b.version == 3 {
		for i := 0; i < 3; i++ {
			b.f32(0)
		}
	}
	b.f32(0.5)
	b.f32(0.5)
}

func (b *terBuilder) addTriangle(a, bb, c, mat, flags uint32) {
	// Wire order is reversed relative to the resolved winding.
	b.u32(c)
	b.u32(bb)
	b.u32(a)
	b.u32(mat)
	b.u32(flags)
}

func buildTerrain(t *testing.T, version uint32) []byte {
	t.Helper()
	b := newTerBuilder(version)
	b.addMaterial(0, "grass", "Opaque_MaxCB1.fx", "grass.dds")
	b.addMaterial(1, "barrier", "Opaque_MaxCB1.fx", "")
	for i := 0; i < 4; i++ {
		b.addVertex(float32(i), float32(i*2), 0)
	}
	b.addTriangle(0, 1, 2, 0, 0)
	b.addTriangle(1, 2, 3, 1, 0x1)
	return b.bytes(2, 4, 2)
}

func TestParseBothVersions(t *testing.T) {
	for _, version := range []uint32{2, 3} {
		m, err := Parse(buildTerrain(t, version))
		require.NoError(t, err, "version %d", version)
		require.Equal(t, version, m.Version)
		require.Len(t, m.Vertices, 4)
		require.Len(t, m.Triangles, 2)

		require.Equal(t, [3]float32{2, 4, 0}, m.Vertices[2].Position)
		require.Equal(t, [2]float32{0.5, 0.5}, m.Vertices[2].UV)

		// Wire index order is un-reversed during parsing.
		require.Equal(t, [3]uint32{0, 1, 2}, m.Triangles[0].Index)

		diffuse, ok := m.Materials[0].Diffuse()
		require.True(t, ok)
		require.Equal(t, "grass.dds", diffuse)
		_, ok = m.Materials[1].Diffuse()
		require.False(t, ok)

		require.False(t, m.Triangles[0].InvisibleWall())
		require.True(t, m.Triangles[1].InvisibleWall())
	}
}

func TestBadMagic(t *testing.T) {
	_, err := Parse([]byte("NOPE\x00\x00\x00\x00"))
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestUnsupportedVersion(t *testing.T) {
	raw := buildTerrain(t, 2)
	binary.LittleEndian.PutUint32(raw[4:], 9)
	_, err := Parse(raw)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestTruncated(t *testing.T) {
	raw := buildTerrain(t, 3)
	_, err := Parse(raw[:len(raw)-10])
	require.ErrorIs(t, err, ErrTruncated)
}
