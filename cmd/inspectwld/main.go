// inspectwld dumps the fragment table of a WLD stream inside a PFS
// archive. Useful for eyeballing what a zone actually contains before
// and after a conversion goes wrong.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"eq-zone-gltf/internal/archive"
	"eq-zone-gltf/internal/wld"
)

var fragNames = map[uint32]string{
	wld.TTextureName:    "TextureName",
	wld.TTextureBitmap:  "TextureBitmap",
	wld.TBitmapRef:      "BitmapRef",
	wld.TActorDef:       "ActorDef",
	wld.TObjectInstance: "ObjectInstance",
	wld.TLightSource:    "LightSource",
	wld.TLightSourceRef: "LightSourceRef",
	wld.TLightInfo:      "LightInfo",
	wld.TAmbient:        "Ambient",
	wld.TMeshRef:        "MeshRef",
	wld.TMaterialDef:    "MaterialDef",
	wld.TMaterialList:   "MaterialList",
	wld.TMesh:           "Mesh",
}

func main() {
	verbose := flag.Bool("v", false, "List every fragment, not just type counts")
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: inspectwld <archive.s3d> [stream.wld]")
		os.Exit(1)
	}

	path := flag.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		os.Exit(1)
	}
	arc, err := archive.Read(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		os.Exit(1)
	}

	stream := flag.Arg(1)
	if stream == "" {
		name := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		stream = name + ".wld"
	}
	raw, ok := arc.Open(stream)
	if !ok {
		fmt.Fprintf(os.Stderr, "%s: no %s; streams: %v\n", path, stream, arc.Glob("", ".wld"))
		os.Exit(1)
	}

	w, err := wld.Parse(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", stream, err)
		os.Exit(1)
	}

	format := "new"
	if w.Old {
		format = "old"
	}
	fmt.Printf("%s: %d fragments, %s format\n", stream, len(w.Fragments), format)

	counts := make(map[uint32]int)
	for i := range w.Fragments {
		counts[w.Fragments[i].Type]++
	}
	types := make([]uint32, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		fmt.Printf("  0x%02x %-16s %d\n", t, fragName(t), counts[t])
	}

	if *verbose {
		fmt.Println()
		for i := range w.Fragments {
			f := &w.Fragments[i]
			fmt.Printf("  %5d  0x%02x %-16s %s\n", f.ID(), f.Type, fragName(f.Type), f.Name)
		}
	}
}

func fragName(t uint32) string {
	if n, ok := fragNames[t]; ok {
		return n
	}
	return "unknown"
}
