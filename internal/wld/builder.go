package wld

import (
	"bytes"
	"encoding/binary"
)

// Builder assembles a synthetic WLD stream: header, XOR-obfuscated
// string table, and framed fragment records. It exists for test
// fixtures; payload bytes are supplied by the caller.
type Builder struct {
	old     bool
	strings bytes.Buffer
	offsets map[string]int32
	frags   []builtFrag
}

type builtFrag struct {
	typeCode uint32
	nameRef  int32
	payload  []byte
}

func NewBuilder(old bool) *Builder {
	b := &Builder{old: old, offsets: make(map[string]int32)}
	b.strings.WriteByte(0) // offset 0 reads as the empty string
	return b
}

// NameRef interns a name in the string table and returns the negative
// reference fragments use to address it.
func (b *Builder) NameRef(name string) int32 {
	if off, ok := b.offsets[name]; ok {
		return -off
	}
	off := int32(b.strings.Len())
	b.strings.WriteString(name)
	b.strings.WriteByte(0)
	b.offsets[name] = off
	return -off
}

// Add appends a fragment record and returns its 1-based id.
func (b *Builder) Add(typeCode uint32, name string, payload []byte) int {
	nameRef := int32(noName)
	if name != "" {
		nameRef = b.NameRef(name)
	}
	b.frags = append(b.frags, builtFrag{typeCode: typeCode, nameRef: nameRef, payload: payload})
	return len(b.frags)
}

// Bytes serializes the stream.
func (b *Builder) Bytes() []byte {
	var out bytes.Buffer
	le := binary.LittleEndian

	table := decodeString(b.strings.Bytes()) // XOR is its own inverse

	binary.Write(&out, le, uint32(magic))
	version := uint32(0x1000C800)
	if b.old {
		version = oldVersion
	}
	binary.Write(&out, le, version)
	binary.Write(&out, le, uint32(len(b.frags)))
	binary.Write(&out, le, uint64(0))
	binary.Write(&out, le, uint32(len(table)))
	binary.Write(&out, le, uint32(0))
	out.Write(table)

	for _, f := range b.frags {
		binary.Write(&out, le, uint32(len(f.payload)+4))
		binary.Write(&out, le, f.typeCode)
		binary.Write(&out, le, f.nameRef)
		out.Write(f.payload)
	}
	return out.Bytes()
}
