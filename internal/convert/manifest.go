package convert

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ManifestEntry represents one converted zone in the output manifest.
type ManifestEntry struct {
	Zone     string `json:"zone"`
	File     string `json:"file"`
	Warnings int    `json:"warnings"`
	Error    string `json:"error,omitempty"`
}

// WriteManifest writes manifest.json summarizing a batch run.
func WriteManifest(path string, results []BatchResult) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Zone:     r.Zone,
			Warnings: r.Warns,
		}
		if r.Output != "" {
			entries[i].File = filepath.Base(r.Output)
		}
		if r.Err != nil {
			entries[i].Error = r.Err.Error()
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
