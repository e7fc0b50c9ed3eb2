// lists3d prints the contents of a PFS archive (.s3d/.eqg).
package main

import (
	"flag"
	"fmt"
	"os"

	"eq-zone-gltf/internal/archive"
)

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: lists3d <archive.s3d> [archive...]")
		os.Exit(1)
	}

	exit := 0
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			exit = 1
			continue
		}
		arc, err := archive.Read(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			exit = 1
			continue
		}

		fmt.Printf("%s: %d files\n", path, arc.Len())
		for _, name := range arc.Names() {
			blob, _ := arc.Open(name)
			fmt.Printf("  %10d  %s\n", len(blob), name)
		}
	}
	os.Exit(exit)
}
