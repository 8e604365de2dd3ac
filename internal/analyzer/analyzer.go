// Package analyzer combines the source-control adapter, workspace model,
// and commit classifier into an explicit per-package version-strategy map.
package analyzer

import (
	"path/filepath"
	"strings"

	"github.com/berthrelease/berth/internal/classifier"
	berrors "github.com/berthrelease/berth/internal/errors"
	"github.com/berthrelease/berth/internal/scm"
	"github.com/berthrelease/berth/internal/workspace"
	"github.com/berthrelease/berth/pkg/types"
)

// Origin distinguishes an explicit (diff-driven) strategy entry from one
// propagated through the dependency graph.
type Origin string

const (
	OriginExplicit   Origin = "explicit"
	OriginPropagated Origin = "propagated"
)

// Strategy is a per-package version-strategy record. BumpLevel is never
// ChangeTypeNone for an entry present in a StrategyMap.
type Strategy struct {
	BumpLevel      types.ChangeType
	DrivingCommits []string
	Origin         Origin
}

// StrategyMap maps package name to its version strategy. A package absent
// from the map is unaffected.
type StrategyMap map[string]*Strategy

// Analyze classifies the commit range as a whole, resolves each diff path
// to an owning package, and emits one explicit strategy entry per
// surviving package.
func Analyze(adapter scm.Adapter, ws *workspace.Workspace, c classifier.Classifier, baseBranch, commitSha string) (StrategyMap, error) {
	messages, err := adapter.Log(baseBranch, commitSha)
	if err != nil {
		return nil, berrors.NewAnalysisError("failed to read commit log", err)
	}

	root := c.ClassifySet(messages)
	if root == types.ChangeTypeNone {
		return StrategyMap{}, nil
	}

	paths, err := adapter.DiffFiles(baseBranch, commitSha)
	if err != nil {
		return nil, berrors.NewAnalysisError("failed to read file diff", err)
	}

	affected := make(map[string]bool)
	for _, path := range paths {
		pkg := ownerOf(ws, path)
		if pkg == nil || pkg.Private {
			continue
		}
		affected[pkg.Name] = true
	}

	strategies := make(StrategyMap, len(affected))
	for name := range affected {
		strategies[name] = &Strategy{
			BumpLevel:      root,
			DrivingCommits: messages,
			Origin:         OriginExplicit,
		}
	}
	return strategies, nil
}

// ownerOf resolves a repository-relative diff path to the workspace package
// whose root is the longest matching prefix, or nil if the path falls
// outside every known package root.
func ownerOf(ws *workspace.Workspace, path string) *workspace.Package {
	var best *workspace.Package
	bestLen := -1

	cleanPath := filepath.ToSlash(path)
	for _, pkg := range ws.All() {
		root := filepath.ToSlash(strings.TrimPrefix(pkg.Path, "./"))
		root = strings.TrimSuffix(root, "/")
		if root == "" || root == "." {
			if bestLen < 0 {
				best = pkg
				bestLen = 0
			}
			continue
		}
		if cleanPath != root && !strings.HasPrefix(cleanPath, root+"/") {
			continue
		}
		if len(root) > bestLen {
			best = pkg
			bestLen = len(root)
		}
	}
	return best
}
