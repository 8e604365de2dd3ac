package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/berthrelease/berth/pkg/semver"
	"github.com/berthrelease/berth/pkg/types"
)

// Detect scans a directory tree and builds a Workspace from the ecosystem
// markers it finds (go.mod, package.json, pyproject.toml/setup.py,
// Cargo.toml, Chart.yaml, deno.json[c]). Directories already claimed by a
// marker file, and common vendor/build directories, are skipped.
func Detect(rootPath string) (*Workspace, error) {
	ws := New(rootPath)
	seen := make(map[string]bool)

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if strings.HasPrefix(name, ".") && name != "." {
				return filepath.SkipDir
			}
			switch name {
			case "node_modules", "vendor", "__pycache__", "dist", "build", "target":
				return filepath.SkipDir
			}
			return nil
		}

		dir := filepath.Dir(path)
		if seen[dir] {
			return nil
		}

		var pkg *Package
		var detectErr error

		switch info.Name() {
		case "go.mod":
			pkg, detectErr = detectGoPackage(rootPath, dir, path)
		case "package.json":
			pkg, detectErr = detectNPMPackage(rootPath, dir, path)
		case "pyproject.toml":
			pkg, detectErr = detectPythonPackage(rootPath, dir, path)
		case "setup.py":
			pkg, detectErr = detectPythonSetupPackage(rootPath, dir, path)
		case "Chart.yaml":
			pkg, detectErr = detectHelmPackage(rootPath, dir, path)
		case "Cargo.toml":
			pkg, detectErr = detectCargoPackage(rootPath, dir, path)
		case "deno.json", "deno.jsonc":
			pkg, detectErr = detectDenoPackage(rootPath, dir, path)
		}

		if detectErr != nil {
			return nil
		}
		if pkg != nil {
			seen[dir] = true
			if err := ws.Add(pkg); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", rootPath, err)
	}

	return ws, nil
}

// NormalizePackagePath returns pkgPath relative to rootPath, "./"-prefixed.
func NormalizePackagePath(rootPath, pkgPath string) string {
	rel, err := filepath.Rel(rootPath, pkgPath)
	if err != nil || rel == "." {
		return "./"
	}
	return "./" + rel
}

func detectGoPackage(rootPath, dir, goModPath string) (*Package, error) {
	content, err := os.ReadFile(goModPath)
	if err != nil {
		return nil, err
	}

	var moduleName string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "module ") {
			moduleName = strings.TrimSpace(strings.TrimPrefix(line, "module"))
			break
		}
	}
	if moduleName == "" {
		return nil, fmt.Errorf("no module name found in go.mod")
	}

	parts := strings.Split(moduleName, "/")
	return &Package{
		Name:           parts[len(parts)-1],
		Path:           NormalizePackagePath(rootPath, dir),
		Ecosystem:      EcosystemGo,
		CurrentVersion: semver.Zero(),
	}, nil
}

type npmPackageJSON struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Private              bool              `json:"private"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

func detectNPMPackage(rootPath, dir, packageJSONPath string) (*Package, error) {
	content, err := os.ReadFile(packageJSONPath)
	if err != nil {
		return nil, err
	}

	var pj npmPackageJSON
	if err := json.Unmarshal(content, &pj); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}
	if pj.Name == "" {
		return nil, fmt.Errorf("no name found in package.json")
	}

	version, err := semver.Parse(pj.Version)
	if err != nil {
		version = semver.Zero()
	}

	deps := collectNPMDeps(pj.Dependencies, types.DependencyRuntime)
	deps = append(deps, collectNPMDeps(pj.DevDependencies, types.DependencyDev)...)
	deps = append(deps, collectNPMDeps(pj.PeerDependencies, types.DependencyPeer)...)
	deps = append(deps, collectNPMDeps(pj.OptionalDependencies, types.DependencyOptional)...)

	return &Package{
		Name:           pj.Name,
		Path:           NormalizePackagePath(rootPath, dir),
		Ecosystem:      EcosystemNPM,
		Private:        pj.Private,
		CurrentVersion: version,
		Dependencies:   deps,
	}, nil
}

func collectNPMDeps(raw map[string]string, kind types.DependencyKind) []DependencySpec {
	specs := make([]DependencySpec, 0, len(raw))
	for name, rng := range raw {
		specs = append(specs, DependencySpec{
			Name:     name,
			Kind:     kind,
			Range:    rng,
			Operator: rangeOperatorOf(rng),
		})
	}
	return specs
}

// rangeOperatorOf classifies a declared npm-style range string by its
// leading notation, so the version applier can rewrite it preserving the
// operator.
func rangeOperatorOf(rng string) types.RangeOperator {
	switch {
	case strings.HasPrefix(rng, "workspace:"):
		return types.RangeWorkspace
	case strings.HasPrefix(rng, "^"):
		return types.RangeCaret
	case strings.HasPrefix(rng, "~"):
		return types.RangeTilde
	default:
		return types.RangeExact
	}
}

func detectPythonPackage(rootPath, dir, pyprojectPath string) (*Package, error) {
	content, err := os.ReadFile(pyprojectPath)
	if err != nil {
		return nil, err
	}

	var pyproject struct {
		Project struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"project"`
	}
	if err := toml.Unmarshal(content, &pyproject); err != nil {
		return nil, fmt.Errorf("failed to parse pyproject.toml: %w", err)
	}
	if pyproject.Project.Name == "" {
		return nil, fmt.Errorf("no project name found in pyproject.toml")
	}

	version, err := semver.Parse(pyproject.Project.Version)
	if err != nil {
		version = semver.Zero()
	}

	return &Package{
		Name:           pyproject.Project.Name,
		Path:           NormalizePackagePath(rootPath, dir),
		Ecosystem:      EcosystemPython,
		CurrentVersion: version,
	}, nil
}

func detectPythonSetupPackage(rootPath, dir, setupPath string) (*Package, error) {
	content, err := os.ReadFile(setupPath)
	if err != nil {
		return nil, err
	}

	name := extractQuoted(string(content), "name")
	if name == "" {
		name = filepath.Base(dir)
	}

	return &Package{
		Name:           name,
		Path:           NormalizePackagePath(rootPath, dir),
		Ecosystem:      EcosystemPython,
		CurrentVersion: semver.Zero(),
	}, nil
}

func extractQuoted(content, key string) string {
	idx := strings.Index(content, key+"=")
	if idx < 0 {
		idx = strings.Index(content, key+" =")
	}
	if idx < 0 {
		return ""
	}
	rest := content[idx:]
	for _, q := range []byte{'"', '\''} {
		start := strings.IndexByte(rest, q)
		if start < 0 {
			continue
		}
		end := strings.IndexByte(rest[start+1:], q)
		if end < 0 {
			continue
		}
		return rest[start+1 : start+1+end]
	}
	return ""
}

func detectHelmPackage(rootPath, dir, chartPath string) (*Package, error) {
	content, err := os.ReadFile(chartPath)
	if err != nil {
		return nil, err
	}

	var name, version string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "name:") {
			name = strings.TrimSpace(strings.TrimPrefix(line, "name:"))
		}
		if strings.HasPrefix(line, "version:") {
			version = strings.TrimSpace(strings.TrimPrefix(line, "version:"))
		}
	}
	if name == "" {
		return nil, fmt.Errorf("no name found in Chart.yaml")
	}

	v, err := semver.Parse(version)
	if err != nil {
		v = semver.Zero()
	}

	return &Package{
		Name:           name,
		Path:           NormalizePackagePath(rootPath, dir),
		Ecosystem:      EcosystemHelm,
		CurrentVersion: v,
	}, nil
}

func detectCargoPackage(rootPath, dir, cargoPath string) (*Package, error) {
	content, err := os.ReadFile(cargoPath)
	if err != nil {
		return nil, err
	}

	var cargo struct {
		Package struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"package"`
	}
	if err := toml.Unmarshal(content, &cargo); err != nil {
		return nil, fmt.Errorf("failed to parse Cargo.toml: %w", err)
	}
	if cargo.Package.Name == "" {
		return nil, fmt.Errorf("no package name found in Cargo.toml")
	}

	v, err := semver.Parse(cargo.Package.Version)
	if err != nil {
		v = semver.Zero()
	}

	return &Package{
		Name:           cargo.Package.Name,
		Path:           NormalizePackagePath(rootPath, dir),
		Ecosystem:      EcosystemCargo,
		CurrentVersion: v,
	}, nil
}

func detectDenoPackage(rootPath, dir, denoPath string) (*Package, error) {
	content, err := os.ReadFile(denoPath)
	if err != nil {
		return nil, err
	}

	var cfg struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(denoPath), err)
	}

	name := cfg.Name
	if name == "" {
		name = filepath.Base(dir)
	}

	v, err := semver.Parse(cfg.Version)
	if err != nil {
		v = semver.Zero()
	}

	return &Package{
		Name:           name,
		Path:           NormalizePackagePath(rootPath, dir),
		Ecosystem:      EcosystemDeno,
		CurrentVersion: v,
	}, nil
}
