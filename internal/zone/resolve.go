package zone

import (
	"strings"

	"eq-zone-gltf/internal/archive"
	"eq-zone-gltf/internal/wld"
)

const (
	actorSuffix = "_ACTORDEF"
	meshSuffix  = "_DMSPRITEDEF"
)

// Resolver walks one WLD fragment graph and materializes meshes,
// instances and lights into a Zone. Resolution order follows fragment
// id order, so output is reproducible for identical input bytes.
// Dangling references downgrade to sentinels with a warning; they never
// abort the containing mesh or the pipeline.
type Resolver struct {
	w     *wld.WLD
	arc   *archive.Archive
	pool  map[string][]byte
	warns *Warnings
}

// NewResolver binds a parsed WLD to the archive its textures live in.
// Texture blobs encountered during material resolution are published
// into pool keyed by lowercase filename, first occurrence winning.
func NewResolver(w *wld.WLD, arc *archive.Archive, pool map[string][]byte, warns *Warnings) *Resolver {
	return &Resolver{w: w, arc: arc, pool: pool, warns: warns}
}

// ZoneMeshes resolves every mesh fragment into the zone's own geometry.
func (r *Resolver) ZoneMeshes(z *Zone) {
	r.resolveMeshes(func(*wld.Fragment) *Object { return z.ZoneObject() })
}

// Objects resolves every mesh fragment into a named, instanceable
// object keyed by the mesh's definition name.
func (r *Resolver) Objects(z *Zone) {
	r.resolveMeshes(func(f *wld.Fragment) *Object {
		return z.AddObject(strings.TrimSuffix(f.Name, meshSuffix))
	})
}

func (r *Resolver) resolveMeshes(target func(*wld.Fragment) *Object) {
	for _, frag := range r.w.ByType(wld.TMesh) {
		mesh := frag.Data.(*wld.Mesh)
		materials := r.materialTable(mesh.MaterialListRef, frag.ID())
		verts := buildVertices(mesh)
		obj := target(frag)

		off := 0
		for _, run := range mesh.MaterialRuns {
			count, matIdx := int(run[0]), int(run[1])
			material := DefaultMaterial
			if matIdx < len(materials) {
				material = materials[matIdx]
			} else {
				r.warns.Addf("resolve", frag.ID(),
					"material index %d out of range (table size %d), using default material",
					matIdx, len(materials))
			}

			end := off + count
			if end > len(mesh.Polys) {
				end = len(mesh.Polys)
			}
			var collidable, visible []Poly
			for _, p := range mesh.Polys[off:end] {
				poly := Poly{int(p.Index[0]), int(p.Index[1]), int(p.Index[2])}
				if p.Collidable {
					collidable = append(collidable, poly)
				} else {
					visible = append(visible, poly)
				}
			}
			if len(collidable) > 0 {
				obj.AddMesh(&Mesh{Material: material, Verts: verts, Polys: collidable, Collidable: true})
			}
			if len(visible) > 0 {
				obj.AddMesh(&Mesh{Material: material, Verts: verts, Polys: visible})
			}
			off = end
		}
	}
}

// Placeables resolves object-instance fragments. The actor-definition
// reference supplies the object name; instances whose reference cannot
// name any object are skipped with a warning.
func (r *Resolver) Placeables(z *Zone) {
	for _, frag := range r.w.ByType(wld.TObjectInstance) {
		inst := frag.Data.(*wld.ObjectInstance)

		name := ""
		if actor, ok := r.w.Lookup(inst.ActorRef); ok {
			name = r.actorObjectName(actor)
		} else {
			// Actor definitions commonly live in a companion stream;
			// keep the name and let the zone-level prune decide.
			name = r.w.RefName(inst.ActorRef)
		}
		if name == "" {
			r.warns.Addf("resolve", frag.ID(), "object instance has dangling actor reference, skipped")
			continue
		}

		z.Placeables = append(z.Placeables, Placeable{
			ObjectName: strings.TrimSuffix(name, actorSuffix),
			Position:   inst.Position,
			Rotation:   inst.Rotation,
			Scale:      inst.Scale,
		})
	}
}

// actorObjectName follows an actor definition to the mesh it binds,
// falling back to the actor's own name.
func (r *Resolver) actorObjectName(actor *wld.Fragment) string {
	if def, ok := actor.Data.(*wld.ActorDef); ok {
		for _, ref := range def.Components {
			comp, ok := r.w.Lookup(ref)
			if !ok {
				continue
			}
			if mr, ok := comp.Data.(*wld.MeshRef); ok {
				if meshFrag, ok := r.w.Lookup(mr.Ref); ok && meshFrag.Name != "" {
					return strings.TrimSuffix(meshFrag.Name, meshSuffix) + actorSuffix
				}
			}
		}
	}
	return actor.Name
}

// Lights resolves light-info fragments through their source chain.
// A broken chain falls back to a white light with default attenuation.
func (r *Resolver) Lights(z *Zone) {
	for _, frag := range r.w.ByType(wld.TLightInfo) {
		info := frag.Data.(*wld.LightInfo)
		source := r.lightSource(info.LightRef, frag.ID())
		z.Lights = append(z.Lights, Light{
			Position:    info.Position,
			Radius:      info.Radius,
			Attenuation: source.Attenuation,
			Color:       source.Color,
			Flags:       info.Flags,
		})
	}
}

func (r *Resolver) lightSource(ref wld.Ref, fragID int) *wld.LightSource {
	fallback := &wld.LightSource{Attenuation: 200, Color: [3]float32{1, 1, 1}}
	frag, ok := r.w.Lookup(ref)
	if !ok {
		r.warns.Addf("resolve", fragID, "light info has dangling source reference, using white")
		return fallback
	}
	if indirect, ok := frag.Data.(*wld.LightSourceRef); ok {
		frag, ok = r.w.Lookup(indirect.Ref)
		if !ok {
			r.warns.Addf("resolve", fragID, "light source indirection dangles, using white")
			return fallback
		}
	}
	source, ok := frag.Data.(*wld.LightSource)
	if !ok {
		r.warns.Addf("resolve", fragID, "light chain ends in fragment type %02x, using white", frag.Type)
		return fallback
	}
	return source
}

// materialTable resolves a material-list reference into per-slot
// materials. Each slot binds exactly one image; additional texture
// names behind it are animation frames.
func (r *Resolver) materialTable(ref wld.Ref, fragID int) []Material {
	frag, ok := r.w.Lookup(ref)
	if !ok {
		r.warns.Addf("resolve", fragID, "mesh has dangling material list reference")
		return nil
	}
	list, ok := frag.Data.(*wld.MaterialList)
	if !ok {
		r.warns.Addf("resolve", fragID, "material list reference points at fragment type %02x", frag.Type)
		return nil
	}
	materials := make([]Material, 0, len(list.Refs))
	for _, mref := range list.Refs {
		materials = append(materials, r.material(mref, fragID))
	}
	return materials
}

func (r *Resolver) material(ref wld.Ref, fragID int) Material {
	frag, ok := r.w.Lookup(ref)
	if !ok {
		r.warns.Addf("resolve", fragID, "dangling material reference, using default material")
		return DefaultMaterial
	}
	def, ok := frag.Data.(*wld.MaterialDef)
	if !ok {
		r.warns.Addf("resolve", frag.ID(), "expected material definition, found type %02x", frag.Type)
		return DefaultMaterial
	}

	m := Material{Flags: materialFlags(def.RawFlags)}

	bitmap := r.textureBitmap(def.BitmapRef)
	if bitmap == nil {
		return m
	}
	if bitmap.Animated() {
		m.Flags |= FlagAnimated
		m.Param = bitmap.Params
	}
	for _, tref := range bitmap.Refs {
		nameFrag, ok := r.w.Lookup(tref)
		if !ok {
			r.warns.Addf("resolve", frag.ID(), "texture list entry dangles, skipped")
			continue
		}
		names, ok := nameFrag.Data.(*wld.TextureName)
		if !ok || len(names.Names) == 0 {
			continue
		}
		filename := strings.ToLower(names.Names[0])
		m.Textures = append(m.Textures, filename)
		r.publishTexture(filename, frag.ID())
	}
	return m
}

// textureBitmap follows the material's indirection chain to the
// texture-bitmap fragment, tolerating either one or two hops.
func (r *Resolver) textureBitmap(ref wld.Ref) *wld.TextureBitmap {
	frag, ok := r.w.Lookup(ref)
	if !ok {
		return nil
	}
	if indirect, ok := frag.Data.(*wld.BitmapRef); ok {
		frag, ok = r.w.Lookup(indirect.Ref)
		if !ok {
			return nil
		}
	}
	bitmap, _ := frag.Data.(*wld.TextureBitmap)
	return bitmap
}

func (r *Resolver) publishTexture(filename string, fragID int) {
	if _, ok := r.pool[filename]; ok {
		return
	}
	blob, ok := r.arc.Open(filename)
	if !ok {
		r.warns.Addf("resolve", fragID, "texture %s not present in archive", filename)
		return
	}
	r.pool[filename] = blob
}

// materialFlags maps the fragment's raw render-method word onto the
// resolved flag bits. Raw zero means untextured invisible geometry.
func materialFlags(raw uint32) uint32 {
	if raw&0xFFFF == 0x14 {
		// Render method 0x14 draws opaque despite its transparency bits.
		return 0
	}
	var flags uint32
	if raw == 0 {
		flags |= FlagTransparent
	}
	if raw&(2|8|16) != 0 {
		flags |= FlagAlphaMask
	}
	if raw&(4|8) != 0 {
		flags |= FlagTransparent
	}
	return flags
}

// buildVertices assembles the resolved vertex stream, spreading the
// mesh's bone runs across their vertex ranges.
func buildVertices(m *wld.Mesh) []Vertex {
	verts := make([]Vertex, len(m.Vertices))
	for i := range verts {
		verts[i].Position = m.Vertices[i]
		if i < len(m.Normals) {
			verts[i].Normal = m.Normals[i]
		}
		if i < len(m.TexCoords) {
			verts[i].UV = m.TexCoords[i]
		}
	}
	i := 0
	for _, run := range m.BoneRuns {
		count, bone := int(run[0]), float32(run[1])
		for j := 0; j < count && i < len(verts); j++ {
			verts[i].Bone = bone
			i++
		}
	}
	return verts
}
