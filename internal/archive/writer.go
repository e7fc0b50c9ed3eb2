package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zlib"
)

// File is one named entry to place in a written archive.
type File struct {
	Name string
	Data []byte
}

// Write serializes files into a PFS container. Output is deterministic
// for identical input: entries are written in the given order, the
// filename directory last. Entry checksums are IEEE CRC-32 of the name;
// the reader never verifies them, only the reserved directory constant
// matters.
func Write(w io.Writer, files []File) error {
	var body bytes.Buffer
	body.Write(make([]byte, 8)) // header patched below

	type entry struct {
		crc    uint32
		offset uint32
		size   uint32
	}
	entries := make([]entry, 0, len(files)+1)

	for _, f := range files {
		off := uint32(body.Len())
		if err := deflateChunk(&body, f.Data); err != nil {
			return fmt.Errorf("archive: write %s: %w", f.Name, err)
		}
		entries = append(entries, entry{
			crc:    crc32.ChecksumIEEE([]byte(f.Name)),
			offset: off,
			size:   uint32(len(f.Data)),
		})
	}

	// Filename directory, in data-offset (= write) order.
	var dir bytes.Buffer
	binary.Write(&dir, binary.LittleEndian, uint32(len(files)))
	for _, f := range files {
		binary.Write(&dir, binary.LittleEndian, uint32(len(f.Name)+1))
		dir.WriteString(f.Name)
		dir.WriteByte(0)
	}
	dirOff := uint32(body.Len())
	if err := deflateChunk(&body, dir.Bytes()); err != nil {
		return fmt.Errorf("archive: write directory: %w", err)
	}
	entries = append(entries, entry{crc: DirectoryCRC, offset: dirOff, size: uint32(dir.Len())})

	tableOff := uint32(body.Len())
	binary.Write(&body, binary.LittleEndian, uint32(len(entries)))
	for _, e := range entries {
		binary.Write(&body, binary.LittleEndian, e.crc)
		binary.Write(&body, binary.LittleEndian, e.offset)
		binary.Write(&body, binary.LittleEndian, e.size)
	}

	out := body.Bytes()
	binary.LittleEndian.PutUint32(out[0:], tableOff)
	binary.LittleEndian.PutUint32(out[4:], Magic)

	_, err := w.Write(out)
	return err
}

// deflateChunk writes data as a sequence of zlib sub-blocks of at most
// BlockSize inflated bytes each.
func deflateChunk(w *bytes.Buffer, data []byte) error {
	for len(data) > 0 {
		n := len(data)
		if n > BlockSize {
			n = BlockSize
		}
		var compressed bytes.Buffer
		zw := zlib.NewWriter(&compressed)
		if _, err := zw.Write(data[:n]); err != nil {
			zw.Close()
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}

		binary.Write(w, binary.LittleEndian, uint32(compressed.Len()))
		binary.Write(w, binary.LittleEndian, uint32(n))
		w.Write(compressed.Bytes())
		data = data[n:]
	}
	return nil
}
