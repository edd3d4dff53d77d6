package media

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// contentScheme marks opaque picker handles that cannot be attached to a
// multipart request directly.
const contentScheme = "content://"

// Opener resolves an opaque content handle into a readable stream.
type Opener func(uri string) (io.ReadCloser, error)

// Normalizer converts capture handles into uploadable file paths.
type Normalizer struct {
	cacheDir string
	open     Opener
}

// NewNormalizer creates a Normalizer writing converted files into
// cacheDir. A nil opener falls back to opening the handle's path part as
// a regular file.
func NewNormalizer(cacheDir string, open Opener) *Normalizer {
	if cacheDir == "" {
		cacheDir = os.TempDir()
	}
	if open == nil {
		open = func(uri string) (io.ReadCloser, error) {
			return os.Open(strings.TrimPrefix(uri, contentScheme))
		}
	}
	return &Normalizer{cacheDir: cacheDir, open: open}
}

// Normalize returns a path that can be attached to a multipart upload.
// Opaque content handles are copied into the cache directory; direct
// file paths are returned unchanged, so the call is idempotent.
func (n *Normalizer) Normalize(uri string) (string, error) {
	if !strings.HasPrefix(uri, contentScheme) {
		return uri, nil
	}

	src, err := n.open(uri)
	if err != nil {
		return "", fmt.Errorf("failed to open content handle: %w", err)
	}
	defer src.Close()

	dstPath := fmt.Sprintf("%s/converted-%d.jpg", n.cacheDir, time.Now().UnixNano())
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return "", fmt.Errorf("failed to copy content handle: %w", err)
	}
	return dstPath, nil
}
