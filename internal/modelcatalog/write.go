package modelcatalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DescriptorFileName derives a file name for a descriptor id.
func DescriptorFileName(id string) string {
	name := strings.NewReplacer("/", "-", ":", "-", " ", "-").Replace(id)
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}
	return strings.Trim(name, "-") + ".json"
}

// WriteDescriptor writes d as JSON into dir and returns the file path.
// An id already served by the catalog is rejected unless overwrite is set.
func (c *Catalog) WriteDescriptor(dir string, d *Descriptor, overwrite bool) (string, error) {
	if existing, ok := c.FindModel(d.ID); ok && !overwrite {
		return "", fmt.Errorf("model %q already exists in %s", d.ID, existing.Source)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating models directory: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling descriptor: %w", err)
	}

	path := filepath.Join(dir, DescriptorFileName(d.ID))
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", err
	}
	return path, nil
}
