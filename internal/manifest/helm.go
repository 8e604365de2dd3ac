package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/berthrelease/berth/internal/workspace"
	"github.com/berthrelease/berth/pkg/semver"
)

// HelmHandler writes Chart.yaml's version and dependencies[].version fields.
type HelmHandler struct{}

func (h *HelmHandler) Ecosystem() workspace.Ecosystem { return workspace.EcosystemHelm }
func (h *HelmHandler) ManifestFile() string            { return "Chart.yaml" }

func (h *HelmHandler) manifestPath(pkgPath string) string {
	if filepath.Ext(pkgPath) == ".yaml" || filepath.Ext(pkgPath) == ".yml" {
		return pkgPath
	}
	return filepath.Join(pkgPath, h.ManifestFile())
}

func (h *HelmHandler) readRaw(manifestPath string) (yaml.Node, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return yaml.Node{}, fmt.Errorf("failed to read Chart.yaml %s: %w", manifestPath, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return yaml.Node{}, fmt.Errorf("failed to parse Chart.yaml %s: %w", manifestPath, err)
	}
	return doc, nil
}

func writeYAMLAtomic(manifestPath string, doc *yaml.Node) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal Chart.yaml: %w", err)
	}

	tempPath := manifestPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp Chart.yaml %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, manifestPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp Chart.yaml %s: %w", tempPath, err)
	}
	return nil
}

// mappingValue finds the scalar node mapped to key within a YAML mapping
// node, or nil if absent.
func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func (h *HelmHandler) WriteVersion(pkgPath string, version semver.Version) error {
	manifestPath := h.manifestPath(pkgPath)
	doc, err := h.readRaw(manifestPath)
	if err != nil {
		return err
	}
	root := doc.Content[0]

	if node := mappingValue(root, "version"); node != nil {
		node.Value = version.String()
	}

	return writeYAMLAtomic(manifestPath, &doc)
}

func (h *HelmHandler) WriteDependencyRange(pkgPath string, depName string, newRange string) error {
	manifestPath := h.manifestPath(pkgPath)
	doc, err := h.readRaw(manifestPath)
	if err != nil {
		return err
	}
	root := doc.Content[0]

	deps := mappingValue(root, "dependencies")
	if deps == nil || deps.Kind != yaml.SequenceNode {
		return nil
	}

	for _, dep := range deps.Content {
		nameNode := mappingValue(dep, "name")
		if nameNode == nil || nameNode.Value != depName {
			continue
		}
		if versionNode := mappingValue(dep, "version"); versionNode != nil {
			versionNode.Value = newRange
		}
	}

	return writeYAMLAtomic(manifestPath, &doc)
}
