package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"eq-zone-gltf/internal/config"
	"eq-zone-gltf/internal/convert"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	dataDir := flag.String("data", "", "Path to EverQuest data directory (default: auto-detect)")
	outputDir := flag.String("output", "", "Output directory (default: <data>/glb)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	collision := flag.Bool("collision", false, "Export collision-only geometry (invisible walls)")
	webp := flag.Bool("webp", false, "Encode textures as WebP (EXT_texture_webp)")
	optimize := flag.Bool("optimize", false, "Merge meshes sharing a material into one primitive")
	maxTex := flag.Int("maxtex", 0, "Downscale textures larger than this many pixels per side")

	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{
		DataDir:         *dataDir,
		OutputDir:       *outputDir,
		Workers:         *workers,
		ExportCollision: *collision,
		WebPTextures:    *webp,
		OptimizeMeshes:  *optimize,
		MaxTextureSize:  *maxTex,
	})

	if cfg.DataDir == "" && flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: cannot find a data directory. Use -data, config.json, or pass archive paths.")
		os.Exit(1)
	}

	paths, err := zonePaths(cfg.DataDir, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Println("No zone archives to convert.")
		os.Exit(0)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	fmt.Printf("EverQuest zone → glTF converter\n")
	fmt.Printf("Zones: %d, Workers: %d\n", len(paths), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	results := convert.Run(paths, cfg.OutputDir, convert.Options{
		ExportCollision: cfg.ExportCollision,
		WebP:            cfg.WebPTextures,
		OptimizeMeshes:  cfg.OptimizeMeshes,
		MaxTextureSize:  cfg.MaxTextureSize,
		Workers:         cfg.Workers,
		Logger:          logger,
	})
	elapsed := time.Since(start)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	success, failed := 0, 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "  %s: %v\n", r.Zone, r.Err)
			continue
		}
		success++
		if r.Warns > 0 {
			fmt.Printf("  %s: %d warnings\n", r.Zone, r.Warns)
		}
	}
	fmt.Printf("Converted: %d/%d\n", success, len(paths))

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := convert.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// zonePaths expands CLI arguments into archive paths. Arguments may be
// paths or bare zone names resolved against the data directory; with
// no arguments every zone archive in the data directory is converted,
// skipping character models and _obj companions.
func zonePaths(dataDir string, args []string) ([]string, error) {
	if len(args) > 0 {
		paths := make([]string, 0, len(args))
		for _, arg := range args {
			if _, err := os.Stat(arg); err == nil {
				paths = append(paths, arg)
				continue
			}
			found := ""
			for _, ext := range []string{".s3d", ".eqg"} {
				p := filepath.Join(dataDir, arg+ext)
				if _, err := os.Stat(p); err == nil {
					found = p
					break
				}
			}
			if found == "" {
				return nil, fmt.Errorf("zone %q not found in %s", arg, dataDir)
			}
			paths = append(paths, found)
		}
		return paths, nil
	}

	var paths []string
	for _, pattern := range []string{"*.s3d", "*.eqg"} {
		matches, err := filepath.Glob(filepath.Join(dataDir, pattern))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			name := strings.TrimSuffix(filepath.Base(m), filepath.Ext(m))
			if strings.HasSuffix(name, "_chr") || strings.HasSuffix(name, "_obj") {
				continue
			}
			paths = append(paths, m)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
