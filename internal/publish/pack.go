package publish

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/berthrelease/berth/internal/manifest"
)

// packArchive walks pkgDir and produces a gzipped tar archive of its
// contents, substituting manifestBytes for the ecosystem's manifest file so
// the archive carries the pack-time resolved manifest rather than the
// on-disk, workspace-protocol one.
func packArchive(pkgDir string, manifestFile string, manifestBytes []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(pkgDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(pkgDir, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		var content []byte
		if rel == manifestFile {
			content = manifestBytes
		} else {
			content, err = os.ReadFile(path)
			if err != nil {
				return err
			}
		}

		hdr := &tar.Header{
			Name: filepath.ToSlash(rel),
			Mode: int64(info.Mode().Perm()),
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		_, err = tw.Write(content)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build archive for %s: %w", pkgDir, err)
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close archive writer: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

// manifestFileFor returns the ecosystem-relative manifest file name a
// package's archive entry should be substituted at.
func manifestFileFor(h manifest.Handler) string {
	return h.ManifestFile()
}
