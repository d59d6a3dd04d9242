package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Write stores d as YAML at path, creating parent directories.
func Write(d *Document, path string) error {
	if d.Version == "" {
		d.Version = Version
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Read loads a document from a YAML file.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	if d.Version != "" && d.Version != Version {
		return nil, fmt.Errorf("scene %s: unsupported version %q", path, d.Version)
	}
	return &d, nil
}

// GeneratePath returns a timestamped document path inside dir.
func GeneratePath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("scene_%s.yaml", now.Format("2006-01-02_15-04-05")))
}

// FindLatest returns the most recently modified .yaml or .yml file in dir.
func FindLatest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read scene directory: %w", err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var scenes []candidate
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		scenes = append(scenes, candidate{path: filepath.Join(dir, name), mod: info.ModTime()})
	}

	if len(scenes) == 0 {
		return "", fmt.Errorf("no scene files found in %s", dir)
	}

	// newest first; ties broken by name so the choice is stable
	sort.Slice(scenes, func(i, j int) bool {
		if !scenes[i].mod.Equal(scenes[j].mod) {
			return scenes[i].mod.After(scenes[j].mod)
		}
		return scenes[i].path > scenes[j].path
	})
	return scenes[0].path, nil
}
