// Package scm implements a go-git-backed source-control adapter exposing
// the diff/log/tag/push operations the change analyzer and release
// recorder drive.
package scm

// Adapter is the source-control contract every analysis and recording
// component depends on. All operations are fallible; relative paths
// returned from DiffFiles are resolved against the workspace root by the
// caller.
type Adapter interface {
	// DiffFiles returns every path that differs between base and head,
	// relative to the repository root.
	DiffFiles(base, head string) ([]string, error)

	// Log returns the commit messages reachable from head but not from
	// base, oldest first.
	Log(base, head string) ([]string, error)

	// ResolveSha resolves a ref (branch, tag, or SHA prefix) to a full SHA.
	ResolveSha(ref string) (string, error)

	// AddPaths stages the given paths (relative to the repository root).
	AddPaths(paths []string) error

	// Commit creates a commit from the current staging area and returns
	// its SHA.
	Commit(message string) (string, error)

	// CreateAnnotatedTag creates an annotated tag at HEAD. Idempotent: if
	// the tag already exists pointing at the current HEAD, it succeeds
	// without creating a duplicate.
	CreateAnnotatedTag(name, message string) error

	// Push pushes the given refs (e.g. "refs/heads/main", "refs/tags/x")
	// to remote.
	Push(remote string, refs []string) error

	// TagExists reports whether a tag exists and, if so, the SHA it
	// points at.
	TagExists(name string) (sha string, exists bool, err error)
}
