// Package wld parses WLD scene-description streams into a typed,
// cross-referencing fragment graph. References are stored raw and
// resolved later by the zone package once the whole arena is built,
// since forward references are legal and common.
package wld

import (
	"errors"
	"fmt"

	"eq-zone-gltf/internal/buffer"
)

const (
	magic      = 0x54503D02
	oldVersion = 0x00015500

	// noName marks a fragment header without a string-table name.
	noName = 0x1000000
)

var (
	ErrBadMagic          = errors.New("wld: bad magic")
	ErrTruncatedFragment = errors.New("wld: truncated fragment")
)

// stringKey obfuscates every string table and embedded string in a WLD.
var stringKey = [8]byte{0x95, 0x3A, 0xC5, 0x2A, 0x95, 0x7A, 0x95, 0x6A}

// Ref is an unresolved cross-reference: positive values are 1-based
// fragment ids, negative values are string-table offsets of a name,
// zero is null.
type Ref int32

// Fragment is one typed record in the stream. Index is its 0-based
// arena position; references elsewhere address it as Index+1.
type Fragment struct {
	Index int
	Type  uint32
	Name  string
	Data  any
}

// ID returns the 1-based positional id used by references.
func (f *Fragment) ID() int { return f.Index + 1 }

// WLD is the parsed fragment arena for one stream, immutable once built.
type WLD struct {
	Old       bool
	Fragments []Fragment

	strings []byte
	names   map[string]int
	byType  map[uint32][]int
}

// Parse decodes a scene-description blob into the fragment arena.
func Parse(data []byte) (*WLD, error) {
	b := buffer.New(data)
	if b.Uint32() != magic {
		return nil, ErrBadMagic
	}
	w := &WLD{
		names:  make(map[string]int),
		byType: make(map[uint32][]int),
	}
	w.Old = b.Uint32() == oldVersion
	fragCount := int(b.Uint32())
	b.Skip(8)
	hashLen := int(b.Uint32())
	b.Skip(4)
	w.strings = decodeString(b.Bytes(hashLen))
	if b.Truncated() {
		return nil, fmt.Errorf("wld: truncated string table: %w", ErrTruncatedFragment)
	}

	w.Fragments = make([]Fragment, 0, fragCount)
	for i := 0; i < fragCount; i++ {
		size := int(b.Uint32())
		typeCode := b.Uint32()
		nameRef := b.Int32()
		if b.Truncated() || size < 4 || b.Remaining() < size-4 {
			return nil, fmt.Errorf("wld: fragment %d (type %02x): %w", i+1, typeCode, ErrTruncatedFragment)
		}
		payload := b.Bytes(size - 4)

		name := ""
		if nameRef != noName {
			name = w.String(int(-nameRef))
		}

		frag := Fragment{
			Index: i,
			Type:  typeCode,
			Name:  name,
			Data:  decodePayload(w, typeCode, payload),
		}
		w.Fragments = append(w.Fragments, frag)
		if name != "" {
			if _, taken := w.names[name]; !taken {
				w.names[name] = i
			}
		}
		w.byType[typeCode] = append(w.byType[typeCode], i)
	}

	return w, nil
}

// NewGraph assembles an arena from already-decoded fragments, indexing
// them the same way Parse does. Used to build synthetic graphs in
// fixtures and tools.
func NewGraph(frags ...Fragment) *WLD {
	w := &WLD{
		names:  make(map[string]int),
		byType: make(map[uint32][]int),
	}
	for i, f := range frags {
		f.Index = i
		w.Fragments = append(w.Fragments, f)
		if f.Name != "" {
			if _, taken := w.names[f.Name]; !taken {
				w.names[f.Name] = i
			}
		}
		w.byType[f.Type] = append(w.byType[f.Type], i)
	}
	return w
}

// String reads a null-terminated string from the decoded string table.
func (w *WLD) String(off int) string {
	if off < 0 || off >= len(w.strings) {
		return ""
	}
	end := off
	for end < len(w.strings) && w.strings[end] != 0 {
		end++
	}
	return string(w.strings[off:end])
}

// ByType returns fragments of one type code in id order.
func (w *WLD) ByType(typeCode uint32) []*Fragment {
	idx := w.byType[typeCode]
	out := make([]*Fragment, len(idx))
	for i, j := range idx {
		out[i] = &w.Fragments[j]
	}
	return out
}

// Lookup resolves a reference to its fragment. Positional references
// win over names; for name references the first fragment carrying the
// name in id order wins.
func (w *WLD) Lookup(ref Ref) (*Fragment, bool) {
	switch {
	case ref > 0:
		i := int(ref) - 1
		if i >= len(w.Fragments) {
			return nil, false
		}
		return &w.Fragments[i], true
	case ref < 0:
		return w.LookupName(w.String(int(-ref)))
	default:
		return nil, false
	}
}

// LookupName resolves a fragment by string-table name.
func (w *WLD) LookupName(name string) (*Fragment, bool) {
	i, ok := w.names[name]
	if !ok {
		return nil, false
	}
	return &w.Fragments[i], true
}

// RefName returns the name a negative reference points at.
func (w *WLD) RefName(ref Ref) string {
	if ref >= 0 {
		return ""
	}
	return w.String(int(-ref))
}

// decodeString applies the rolling XOR that obfuscates WLD strings.
func decodeString(s []byte) []byte {
	out := make([]byte, len(s))
	for i, c := range s {
		out[i] = c ^ stringKey[i%len(stringKey)]
	}
	return out
}
