package buffer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferReads(t *testing.T) {
	raw := make([]byte, 0, 32)
	raw = append(raw, 0x2A)
	raw = binary.LittleEndian.AppendUint16(raw, 0xBEEF)
	raw = binary.LittleEndian.AppendUint32(raw, 0x61580AC9)
	raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(1.5))
	raw = append(raw, 'z', 'o', 'n', 'e', 0, 'x')

	b := New(raw)
	require.Equal(t, byte(0x2A), b.Byte())
	require.Equal(t, uint16(0xBEEF), b.Uint16())
	require.Equal(t, uint32(0x61580AC9), b.Uint32())
	require.Equal(t, float32(1.5), b.Float32())
	require.Equal(t, "zone", b.CString(b.Pos()))
	require.False(t, b.Truncated())
}

func TestBufferClampsAtEnd(t *testing.T) {
	b := New([]byte{1, 2})

	require.Equal(t, uint32(0), b.Uint32())
	require.True(t, b.Truncated())
	require.True(t, b.EOF())

	// Subsequent reads stay clamped.
	require.Equal(t, int16(0), b.Int16())
	require.Equal(t, float32(0), b.Float32())
}

func TestBufferSeekSkip(t *testing.T) {
	b := New([]byte{0, 1, 2, 3, 4, 5, 6, 7})
	b.Skip(4)
	require.Equal(t, 4, b.Pos())
	require.Equal(t, 4, b.Remaining())

	b.Seek(100)
	require.True(t, b.Truncated())
	require.Equal(t, 8, b.Pos())

	b.Seek(0)
	require.Equal(t, [3]float32{}, func() [3]float32 {
		bb := New(make([]byte, 12))
		return bb.Vec3()
	}())
	require.Equal(t, byte(0), b.Bytes(3)[0])
}
