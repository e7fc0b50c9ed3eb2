package archive

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, files []File) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, files))
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	files := []File{
		{Name: "gfaydark.wld", Data: bytes.Repeat([]byte{0xAB, 0xCD}, 7000)},
		{Name: "GRASS.BMP", Data: []byte("not really a bitmap")},
		{Name: "empty.txt", Data: nil},
	}

	arc, err := Read(buildArchive(t, files))
	require.NoError(t, err)
	require.Equal(t, len(files), arc.Len())

	for _, f := range files {
		got, ok := arc.Open(f.Name)
		require.True(t, ok, f.Name)
		require.Equal(t, len(f.Data), len(got))
		require.True(t, bytes.Equal(f.Data, got))
	}

	// Lookup is case-insensitive.
	_, ok := arc.Open("grass.bmp")
	require.True(t, ok)
}

func TestMultiBlockChunk(t *testing.T) {
	// A chunk larger than BlockSize must be split into sub-blocks and
	// concatenated in order before inflation.
	big := make([]byte, BlockSize*3+123)
	for i := range big {
		big[i] = byte(i * 31)
	}

	arc, err := Read(buildArchive(t, []File{{Name: "terrain.ter", Data: big}}))
	require.NoError(t, err)
	got, ok := arc.Open("terrain.ter")
	require.True(t, ok)
	require.True(t, bytes.Equal(big, got))
}

func TestBadMagic(t *testing.T) {
	raw := buildArchive(t, []File{{Name: "a", Data: []byte{1}}})
	binary.LittleEndian.PutUint32(raw[4:], 0xDEADBEEF)
	_, err := Read(raw)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestMissingDirectory(t *testing.T) {
	raw := buildArchive(t, []File{{Name: "a", Data: []byte{1}}})
	// Rewrite the directory entry's reserved checksum so no entry
	// identifies as the filename directory.
	tableOff := binary.LittleEndian.Uint32(raw[0:])
	count := binary.LittleEndian.Uint32(raw[tableOff:])
	for i := uint32(0); i < count; i++ {
		pos := tableOff + 4 + i*12
		if binary.LittleEndian.Uint32(raw[pos:]) == DirectoryCRC {
			binary.LittleEndian.PutUint32(raw[pos:], 0x12345678)
		}
	}
	_, err := Read(raw)
	require.ErrorIs(t, err, ErrMissingDirectory)
}

func TestCorruptChunkFailsScoped(t *testing.T) {
	raw := buildArchive(t, []File{{Name: "a.wld", Data: bytes.Repeat([]byte{7}, 100)}})
	// Clobber the zlib stream of the first chunk (starts after the
	// 8-byte file header plus the sub-block length pair).
	raw[18] ^= 0xFF
	raw[19] ^= 0xFF
	_, err := Read(raw)
	require.ErrorIs(t, err, ErrDecompression)
}

func TestMergeFallback(t *testing.T) {
	primary, err := Read(buildArchive(t, []File{
		{Name: "shared.bmp", Data: []byte("primary")},
		{Name: "only_primary.bmp", Data: []byte("p")},
	}))
	require.NoError(t, err)
	other, err := Read(buildArchive(t, []File{
		{Name: "shared.bmp", Data: []byte("other")},
		{Name: "only_other.bmp", Data: []byte("o")},
	}))
	require.NoError(t, err)

	merged := Merge(primary, other)
	require.Len(t, merged, 2)

	// Own files win, gaps fill from companions.
	blob, ok := merged[0].Open("shared.bmp")
	require.True(t, ok)
	require.Equal(t, "primary", string(blob))
	blob, ok = merged[0].Open("only_other.bmp")
	require.True(t, ok)
	require.Equal(t, "o", string(blob))

	blob, ok = merged[1].Open("shared.bmp")
	require.True(t, ok)
	require.Equal(t, "other", string(blob))
}
