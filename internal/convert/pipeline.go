// Package convert runs the full zone conversion pipeline: archive
// decompression, geometry resolution, coordinate transform and GLB
// encoding.
package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"eq-zone-gltf/internal/archive"
	"eq-zone-gltf/internal/gltf"
	"eq-zone-gltf/internal/ter"
	"eq-zone-gltf/internal/transform"
	"eq-zone-gltf/internal/wld"
	"eq-zone-gltf/internal/zone"
)

var (
	// ErrCharacterArchive marks _chr model archives, which hold
	// animated characters rather than zone geometry.
	ErrCharacterArchive = errors.New("convert: character archives are not supported")

	// ErrNoGeometry means the archive holds neither a fragment graph
	// nor a terrain stream for its zone.
	ErrNoGeometry = errors.New("convert: no zone geometry in archive")
)

// Options controls one zone conversion.
type Options struct {
	ExportCollision bool
	WebP            bool
	OptimizeMeshes  bool
	MaxTextureSize  int
	Workers         int
	Logger          *zap.Logger
}

// Result is the outcome of converting one zone archive.
type Result struct {
	Name     string
	GLB      []byte
	Warnings []zone.Warning
}

// Zone converts a single zone archive (.s3d or .eqg) to GLB bytes.
// Recoverable issues are collected as warnings; an error means the
// zone produced no output at all.
func Zone(path string, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	name := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if strings.HasSuffix(name, "_chr") {
		return nil, fmt.Errorf("%w: %s", ErrCharacterArchive, name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	arc, err := archive.Read(data)
	if err != nil {
		return nil, fmt.Errorf("convert: %s: %w", name, err)
	}

	warns := &zone.Warnings{}
	pool := make(map[string][]byte)
	z := zone.New()

	switch {
	case hasEntry(arc, name+".ter"):
		if err := resolveTerrainZone(arc, name, z, pool, warns); err != nil {
			return nil, err
		}
	case hasEntry(arc, name+".wld"):
		if err := resolveFragmentZone(arc, path, name, z, pool, warns); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoGeometry, name)
	}

	transform.Apply(z, transform.DefaultClassifier)

	textures := decodeTextures(pool, keyedTextures(z), opts, warns)

	glb, err := gltf.Encode(z, textures, gltf.Options{
		Name:            name,
		ExportCollision: opts.ExportCollision,
		WebP:            opts.WebP,
		Optimize:        opts.OptimizeMeshes,
	})
	if err != nil {
		return nil, fmt.Errorf("convert: %s: %w", name, err)
	}

	warns.Log(opts.Logger.With(zap.String("zone", name)))
	return &Result{Name: name, GLB: glb, Warnings: warns.Items()}, nil
}

func hasEntry(arc *archive.Archive, name string) bool {
	_, ok := arc.Open(name)
	return ok
}

// resolveTerrainZone handles the newer archives carrying a terrain
// stream alongside loose texture files.
func resolveTerrainZone(arc *archive.Archive, name string, z *zone.Zone, pool map[string][]byte, warns *zone.Warnings) error {
	raw, _ := arc.Open(name + ".ter")
	model, err := ter.Parse(raw)
	if err != nil {
		return fmt.Errorf("convert: %s.ter: %w", name, err)
	}
	zone.ResolveTerrain(model, z, arc, pool, warns)
	return nil
}

// resolveFragmentZone handles the older archives: the zone's own
// fragment graph plus the optional lights and object graphs. Object
// definitions live in companion _obj archives that share textures with
// the main one; any object stream may carry both definitions and
// instances.
func resolveFragmentZone(arc *archive.Archive, path, name string, z *zone.Zone, pool map[string][]byte, warns *zone.Warnings) error {
	arcs := []*archive.Archive{arc}
	wldNames := []string{"objects.wld"}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), name+"_obj*.s3d"))
	sort.Strings(matches)
	for _, objPath := range matches {
		base := filepath.Base(objPath)
		objData, err := os.ReadFile(objPath)
		if err != nil {
			warns.Addf("archive", 0, "companion %s unreadable: %v", base, err)
			continue
		}
		objArc, err := archive.Read(objData)
		if err != nil {
			warns.Addf("archive", 0, "companion %s unreadable: %v", base, err)
			continue
		}
		arcs = append(arcs, objArc)
		wldNames = append(wldNames, strings.TrimSuffix(base, filepath.Ext(base))+".wld")
	}
	views := archive.Merge(arcs...)

	main, err := parseWLD(arc, name+".wld")
	if err != nil {
		return fmt.Errorf("convert: %s.wld: %w", name, err)
	}
	zone.NewResolver(main, views[0], pool, warns).ZoneMeshes(z)

	if lights, err := parseWLD(arc, "lights.wld"); err != nil {
		warns.Addf("parse", 0, "lights.wld: %v", err)
	} else if lights != nil {
		zone.NewResolver(lights, views[0], pool, warns).Lights(z)
	}

	for i, wldName := range wldNames {
		stream, err := parseWLD(arcs[i], wldName)
		if err != nil {
			warns.Addf("parse", 0, "%s: %v", wldName, err)
			continue
		}
		if stream == nil {
			continue
		}
		r := zone.NewResolver(stream, views[i], pool, warns)
		r.Objects(z)
		r.Placeables(z)
	}

	z.PrunePlaceables(warns)
	return nil
}

// parseWLD opens and parses a fragment graph from the archive. A
// missing entry is not an error, it returns (nil, nil).
func parseWLD(arc *archive.Archive, name string) (*wld.WLD, error) {
	raw, ok := arc.Open(name)
	if !ok {
		return nil, nil
	}
	return wld.Parse(raw)
}

// keyedTextures collects the image names bound to masked materials,
// which get first-pixel color keying during decode.
func keyedTextures(z *zone.Zone) map[string]bool {
	keyed := make(map[string]bool)
	for _, obj := range z.Objects {
		for _, m := range obj.Meshes {
			if m.Material.Flags&zone.FlagAlphaMask != 0 && m.Material.Textured() {
				keyed[m.Material.Textures[0]] = true
			}
		}
	}
	return keyed
}
