// Package archive reads PFS containers (.s3d / .eqg), the compressed
// archive format holding a zone's raw assets.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/zlib"

	"eq-zone-gltf/internal/buffer"
)

const (
	// Magic is the container signature, "PFS " as a little-endian word.
	Magic = 0x20534650

	// DirectoryCRC is the reserved checksum identifying the filename
	// directory entry. The archive is unusable without it.
	DirectoryCRC = 0x61580AC9

	// BlockSize is the maximum inflated size of one compression
	// sub-block inside a chunk.
	BlockSize = 8192
)

var (
	ErrBadMagic         = errors.New("archive: bad magic")
	ErrMissingDirectory = errors.New("archive: missing filename directory")
	ErrDecompression    = errors.New("archive: decompression failed")
)

// Archive is a read-only mapping from lowercase filename to decompressed
// bytes, built once per input container.
type Archive struct {
	files map[string][]byte
}

// Read parses and decompresses a PFS container.
func Read(data []byte) (*Archive, error) {
	b := buffer.New(data)
	dirOffset := int(b.Uint32())
	if b.Uint32() != Magic {
		return nil, ErrBadMagic
	}

	b.Seek(dirOffset)
	count := int(b.Uint32())
	if b.Truncated() {
		return nil, fmt.Errorf("archive: truncated entry table: %w", ErrBadMagic)
	}

	type chunk struct {
		offset uint32
		data   []byte
	}
	var directory []byte
	chunks := make([]chunk, 0, count)

	for i := 0; i < count; i++ {
		b.Seek(dirOffset + 4 + i*12)
		crc := b.Uint32()
		offset := b.Uint32()
		size := b.Uint32()
		if b.Truncated() {
			return nil, fmt.Errorf("archive: truncated entry %d: %w", i, ErrBadMagic)
		}

		blob, err := inflateChunk(data, int(offset), int(size))
		if err != nil {
			return nil, fmt.Errorf("archive: entry %d (crc %08x): %w", i, crc, err)
		}

		if crc == DirectoryCRC {
			directory = blob
		} else {
			chunks = append(chunks, chunk{offset: offset, data: blob})
		}
	}

	if directory == nil {
		return nil, ErrMissingDirectory
	}

	// Filenames in the directory correspond to entries in data-offset order.
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].offset < chunks[j].offset })

	db := buffer.New(directory)
	nameCount := int(db.Uint32())
	if nameCount != len(chunks) {
		return nil, fmt.Errorf("archive: directory names %d entries, archive holds %d: %w",
			nameCount, len(chunks), ErrMissingDirectory)
	}

	files := make(map[string][]byte, len(chunks))
	for i := range chunks {
		nameLen := int(db.Uint32())
		name := string(bytes.TrimRight(db.Bytes(nameLen), "\x00"))
		if db.Truncated() {
			return nil, fmt.Errorf("archive: truncated filename directory: %w", ErrMissingDirectory)
		}
		files[strings.ToLower(name)] = chunks[i].data
	}

	return &Archive{files: files}, nil
}

// inflateChunk gathers and inflates the zlib sub-blocks of one entry
// until size decompressed bytes have been produced.
func inflateChunk(data []byte, offset, size int) ([]byte, error) {
	b := buffer.New(data)
	b.Seek(offset)

	out := make([]byte, 0, size)
	for len(out) < size {
		deflatedLen := int(b.Uint32())
		b.Uint32() // inflated length of this sub-block
		compressed := b.Bytes(deflatedLen)
		if b.Truncated() {
			return nil, fmt.Errorf("truncated sub-block at %d: %w", offset, ErrDecompression)
		}

		zr, err := zlib.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
		}
		inflated, err := io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
		}
		out = append(out, inflated...)
	}
	return out, nil
}

// Open returns the decompressed bytes for a name, case-insensitively.
func (a *Archive) Open(name string) ([]byte, bool) {
	blob, ok := a.files[strings.ToLower(name)]
	return blob, ok
}

// Names returns all filenames in sorted order.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.files))
	for n := range a.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of files in the archive.
func (a *Archive) Len() int { return len(a.files) }

// Glob returns sorted names with the given prefix and suffix.
func (a *Archive) Glob(prefix, suffix string) []string {
	var out []string
	for _, n := range a.Names() {
		if strings.HasPrefix(n, prefix) && strings.HasSuffix(n, suffix) {
			out = append(out, n)
		}
	}
	return out
}

// Merge builds fallback views over companion archives: each returned
// archive contains its own files plus any missing names filled from the
// other archives. A zone's object archives share textures this way.
func Merge(archives ...*Archive) []*Archive {
	out := make([]*Archive, len(archives))
	for i, a := range archives {
		merged := make(map[string][]byte, a.Len())
		for _, other := range archives {
			if other == a {
				continue
			}
			for name, blob := range other.files {
				merged[name] = blob
			}
		}
		for name, blob := range a.files {
			merged[name] = blob
		}
		out[i] = &Archive{files: merged}
	}
	return out
}
