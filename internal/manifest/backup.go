package manifest

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"time"

	berrors "github.com/berthrelease/berth/internal/errors"
)

// BackupKey identifies one backup-store invocation, unique per run.
// Format mirrors the release-record ID convention: YYYYMMDD-HHMMSS-{random6}.
type BackupKey string

// NewBackupKey generates a fresh backup key from the given timestamp.
func NewBackupKey(timestamp time.Time) (BackupKey, error) {
	dateTime := timestamp.Format("20060102-150405")

	randomBytes := make([]byte, 6)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	for i := range randomBytes {
		randomBytes[i] = charset[int(randomBytes[i])%len(charset)]
	}

	return BackupKey(fmt.Sprintf("%s-%s", dateTime, string(randomBytes))), nil
}

// Store snapshots manifest files before mutation, keyed by a BackupKey, and
// restores or discards them once the run outcome is known.
type Store struct {
	root string
	key  BackupKey
}

// NewStore creates a backup store rooted under root/<key>.
func NewStore(root string, key BackupKey) *Store {
	return &Store{root: root, key: key}
}

func (s *Store) backupPath(manifestPath string) string {
	return filepath.Join(s.root, string(s.key), filepath.Base(manifestPath)+"."+hashPath(manifestPath))
}

// hashPath derives a short, filesystem-safe suffix from a manifest's
// absolute path so that two packages with the same manifest file name
// (e.g. two package.json files) don't collide in the backup directory.
func hashPath(path string) string {
	var h uint32 = 2166136261
	for i := 0; i < len(path); i++ {
		h ^= uint32(path[i])
		h *= 16777619
	}
	return fmt.Sprintf("%08x", h)
}

// Snapshot copies every manifest path into the backup store. Call before
// any manifest mutation.
func (s *Store) Snapshot(manifestPaths []string) error {
	if err := os.MkdirAll(filepath.Join(s.root, string(s.key)), 0755); err != nil {
		return berrors.NewWorkspaceError("", fmt.Sprintf("failed to create backup directory: %v", err))
	}

	for _, path := range manifestPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return berrors.NewWorkspaceError("", fmt.Sprintf("failed to snapshot manifest %s: %v", path, err))
		}
		if err := os.WriteFile(s.backupPath(path), data, 0644); err != nil {
			return berrors.NewWorkspaceError("", fmt.Sprintf("failed to write backup for %s: %v", path, err))
		}
	}
	return nil
}

// Restore copies every backed-up manifest back over its original path.
// Called on failure after manifests were touched, or on success when
// persistVersions is false.
func (s *Store) Restore(manifestPaths []string) error {
	for _, path := range manifestPaths {
		data, err := os.ReadFile(s.backupPath(path))
		if err != nil {
			return berrors.NewWorkspaceError("", fmt.Sprintf("failed to read backup for %s: %v", path, err))
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return berrors.NewWorkspaceError("", fmt.Sprintf("failed to restore manifest %s: %v", path, err))
		}
	}
	return nil
}

// Discard removes the backup store for this key entirely. Called on
// success when persistVersions is true.
func (s *Store) Discard() error {
	if err := os.RemoveAll(filepath.Join(s.root, string(s.key))); err != nil {
		return berrors.NewWorkspaceError("", fmt.Sprintf("failed to discard backup: %v", err))
	}
	return nil
}
