package gltf

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// GLB container constants.
const (
	glbMagic   = 0x46546C67 // "glTF"
	glbVersion = 2
	chunkJSON  = 0x4E4F534A
	chunkBIN   = 0x004E4942
)

// buildGLB packs a document and its binary chunk into the GLB
// container. The JSON chunk is space-padded, the binary chunk
// zero-padded, both to 4-byte boundaries.
func buildGLB(doc *Document, bin []byte) ([]byte, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("gltf: marshal document: %w", err)
	}
	for len(body)%4 != 0 {
		body = append(body, ' ')
	}
	binPad := (4 - len(bin)%4) % 4

	total := 12 + 8 + len(body)
	if len(bin) > 0 {
		total += 8 + len(bin) + binPad
	}

	var out bytes.Buffer
	out.Grow(total)
	writeU32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		out.Write(b[:])
	}

	writeU32(glbMagic)
	writeU32(glbVersion)
	writeU32(uint32(total))

	writeU32(uint32(len(body)))
	writeU32(chunkJSON)
	out.Write(body)

	if len(bin) > 0 {
		writeU32(uint32(len(bin) + binPad))
		writeU32(chunkBIN)
		out.Write(bin)
		for i := 0; i < binPad; i++ {
			out.WriteByte(0)
		}
	}
	return out.Bytes(), nil
}
