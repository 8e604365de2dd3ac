// Package manifest implements version application and dependency-range
// rewriting against each supported ecosystem's manifest file, plus the
// pre-mutation snapshot/restore protocol used to make a failed run leave no
// trace.
//
// Each ecosystem registers a Handler that knows how to write a version and
// rewrite a dependency range in its manifest file. The range rewrite keeps
// two views: the on-disk manifest (workspace-protocol specifiers stay
// literal) and an in-memory packed manifest with every range fully resolved,
// which is what the publish scheduler actually archives.
package manifest
