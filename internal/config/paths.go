package config

import (
	"os"
	"path/filepath"
)

// RatingsPath returns the resolved ratings dataset path
func (d DatasetsConfig) RatingsPath() string { return d.resolve(d.Ratings) }

// CountsPath returns the resolved counts dataset path
func (d DatasetsConfig) CountsPath() string { return d.resolve(d.Counts) }

// RegionsPath returns the resolved region GeoJSON path
func (d DatasetsConfig) RegionsPath() string { return d.resolve(d.Regions) }

// resolve joins relative paths onto DataDir. Empty names stay empty so
// callers can tell an unconfigured dataset apart.
func (d DatasetsConfig) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) || d.DataDir == "" {
		return name
	}
	return filepath.Join(d.DataDir, name)
}

// FileExists reports whether path names an existing file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
