package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ManifestFile is the name of the project-level manifest file.
	ManifestFile = "biograph.yaml"
	// ManifestEnvVar overrides manifest discovery when set.
	ManifestEnvVar = "BIOGRAPH_MANIFEST"
)

// Loader handles manifest loading with layered precedence.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new manifest loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads the manifest with layered precedence:
//  1. Default config
//  2. Manifest file (explicit path, $BIOGRAPH_MANIFEST, or biograph.yaml
//     discovered in the current or parent directories)
func (l *Loader) Load(path string) (*Config, error) {
	config := DefaultConfig()

	manifestPath := path
	if manifestPath == "" {
		manifestPath = os.Getenv(ManifestEnvVar)
	}
	if manifestPath == "" {
		manifestPath = l.findManifest()
	}
	if manifestPath == "" {
		return nil, fmt.Errorf("no manifest found: expected %s in current or parent directories", ManifestFile)
	}

	loaded, err := LoadFromFile(manifestPath)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Loaded manifest", slog.String("path", manifestPath))
	config.Merge(loaded)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", manifestPath, err)
	}

	return config, nil
}

// findManifest searches for biograph.yaml in current and parent directories.
func (l *Loader) findManifest() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		manifestPath := filepath.Join(dir, ManifestFile)
		if _, err := os.Stat(manifestPath); err == nil {
			return manifestPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
