// Package config loads converter settings from an optional JSON file
// and merges CLI flag overrides on top.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config holds all configurable paths and conversion settings.
type Config struct {
	// Paths
	DataDir   string `json:"data_dir"`
	OutputDir string `json:"output_dir"`

	// Conversion settings
	ExportCollision bool `json:"export_collision"`
	WebPTextures    bool `json:"webp_textures"`
	OptimizeMeshes  bool `json:"optimize_meshes"`
	MaxTextureSize  int  `json:"max_texture_size"`
	Workers         int  `json:"workers"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with auto-detected defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.DataDir != "" {
		c.DataDir = flags.DataDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.ExportCollision {
		c.ExportCollision = true
	}
	if flags.WebPTextures {
		c.WebPTextures = true
	}
	if flags.OptimizeMeshes {
		c.OptimizeMeshes = true
	}
	if flags.MaxTextureSize > 0 {
		c.MaxTextureSize = flags.MaxTextureSize
	}

	if c.DataDir == "" {
		c.DataDir = detectDataDir()
	}
	if c.OutputDir == "" {
		c.OutputDir = "glb"
	}
	if c.DataDir != "" && !filepath.IsAbs(c.OutputDir) {
		c.OutputDir = filepath.Join(c.DataDir, c.OutputDir)
	}

	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	DataDir         string
	OutputDir       string
	Workers         int
	ExportCollision bool
	WebPTextures    bool
	OptimizeMeshes  bool
	MaxTextureSize  int
}

// detectDataDir looks for an EverQuest data directory near the
// executable and the working directory, recognized by its archives.
func detectDataDir() string {
	exe, _ := os.Executable()
	cwd, _ := os.Getwd()

	candidates := []string{cwd, filepath.Dir(cwd)}
	if exe != "" {
		dir := filepath.Dir(exe)
		candidates = append(candidates, dir, filepath.Dir(dir))
	}
	for _, dir := range candidates {
		if hasArchives(dir) {
			return dir
		}
	}
	return ""
}

func hasArchives(dir string) bool {
	for _, pattern := range []string{"*.s3d", "*.eqg"} {
		if m, _ := filepath.Glob(filepath.Join(dir, pattern)); len(m) > 0 {
			return true
		}
	}
	return false
}
