// Package zone holds the resolved scene for one zone conversion and the
// resolvers that build it from parsed fragment graphs and terrain
// streams. A Zone is owned by exactly one conversion pipeline.
package zone

// Material flag bits. Bits are independent and combinable.
const (
	FlagAlphaMask   = 0x02
	FlagTransparent = 0x04
	FlagEmissive    = 0x08
	FlagAnimated    = 0x10
)

// Material is a resolved render material. Textures holds archive
// filenames; the first entry is the bound image, the rest are animation
// frames. The zero Material is the opaque untextured sentinel
// substituted for unresolvable references.
type Material struct {
	Flags    uint32
	Textures []string
	Param    uint32
}

// DefaultMaterial is the sentinel used when a reference cannot be
// resolved. Never aborts the containing mesh.
var DefaultMaterial = Material{}

// Transparent reports the invisible/blend flag.
func (m Material) Transparent() bool { return m.Flags&FlagTransparent != 0 }

// Textured reports whether the material binds at least one image.
func (m Material) Textured() bool { return len(m.Textures) > 0 }

// Vertex is the resolved vertex layout shared by both geometry parsers.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
	Bone     float32
}

// Poly is one triangle as indices into the owning mesh's vertex slice.
type Poly [3]int

// Mesh is one material-homogeneous run of resolved geometry.
// Collidable walls stay in the mesh table even when ExportVisible is
// cleared; downstream consumers decide whether to use them.
type Mesh struct {
	Material      Material
	Verts         []Vertex
	Polys         []Poly
	Collidable    bool
	ExportVisible bool
}

// Object is a named, instanceable group of meshes. The zone's own
// geometry lives in the unnamed object at index 0.
type Object struct {
	Name   string
	Meshes []*Mesh
}

func (o *Object) AddMesh(m *Mesh) {
	m.ExportVisible = true
	o.Meshes = append(o.Meshes, m)
}

// Placeable positions a named object in the zone. Rotation is Euler
// radians in engine-native axes until the coordinate transform runs.
type Placeable struct {
	ObjectName string
	Position   [3]float32
	Rotation   [3]float32
	Scale      [3]float32
}

// Light is a resolved point light.
type Light struct {
	Position    [3]float32
	Radius      float32
	Attenuation float32
	Color       [3]float32
	Flags       uint32
}

// Zone is the fully resolved scene prior to transform and encoding.
type Zone struct {
	Objects    []*Object
	Placeables []Placeable
	Lights     []Light

	index map[string]*Object
}

func New() *Zone {
	z := &Zone{index: make(map[string]*Object)}
	z.Objects = append(z.Objects, &Object{}) // zone geometry
	return z
}

// ZoneObject returns the unnamed object holding the zone's own geometry.
func (z *Zone) ZoneObject() *Object { return z.Objects[0] }

// AddObject returns the named object, creating it on first use.
func (z *Zone) AddObject(name string) *Object {
	if obj, ok := z.index[name]; ok {
		return obj
	}
	obj := &Object{Name: name}
	z.Objects = append(z.Objects, obj)
	z.index[name] = obj
	return obj
}

// Object looks up a named object.
func (z *Zone) Object(name string) (*Object, bool) {
	obj, ok := z.index[name]
	return obj, ok
}

// PrunePlaceables drops placeables whose object never resolved across
// any of the zone's fragment streams, warning per dropped instance.
func (z *Zone) PrunePlaceables(warns *Warnings) {
	kept := z.Placeables[:0]
	for _, p := range z.Placeables {
		if _, ok := z.index[p.ObjectName]; !ok {
			warns.Addf("resolve", 0, "placeable references unknown object %q, skipped", p.ObjectName)
			continue
		}
		kept = append(kept, p)
	}
	z.Placeables = kept
}
