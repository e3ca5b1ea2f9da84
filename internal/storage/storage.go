// Package storage keeps fetched resources on a virtual filesystem, addressed by their
// ResourceKey.
package storage

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"

	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/opencontainers/go-digest"

	"ocm.software/open-component-model/fontcache/internal/resolution"
)

// ErrDigestMismatch is returned when written content does not match the expected digest.
var ErrDigestMismatch = errors.New("digest verification failed")

// partialSuffix marks content that is still being written. PathEscape always escapes
// ',' so no stored name ends with it.
const partialSuffix = ",partial"

// Store maps resource keys to files below a root directory.
type Store struct {
	fs   vfs.FileSystem
	root string
}

// New creates a Store rooted at root on fs. The root is created lazily on first write.
func New(fs vfs.FileSystem, root string) *Store {
	return &Store{fs: fs, root: root}
}

// Path returns the deterministic location of key. Distinct keys map to distinct files.
func (s *Store) Path(key resolution.ResourceKey) string {
	return path.Join(s.root, url.PathEscape(key.String()))
}

// Write stores the content of r under key and returns its canonical digest and size.
// The content is written to a temporary file that is renamed into place, so a reader never
// observes a partially written resource. If expected is not empty the content is verified
// against it and nothing is stored on mismatch.
func (s *Store) Write(key resolution.ResourceKey, r io.Reader, expected digest.Digest) (_ digest.Digest, _ int64, err error) {
	// MkdirAll is idempotent, concurrent writers of different keys may race on it safely
	if err := s.fs.MkdirAll(s.root, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create storage directory %q: %w", s.root, err)
	}

	target := s.Path(key)
	tmp := target + partialSuffix

	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create %q: %w", tmp, err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, ignoreNotExist(s.fs.Remove(tmp)))
		}
	}()

	reader := r
	var verifier digest.Verifier
	if expected != "" {
		if err := expected.Validate(); err != nil {
			_ = f.Close()
			return "", 0, fmt.Errorf("invalid expected digest %q: %w", expected, err)
		}
		verifier = expected.Verifier()
		reader = io.TeeReader(reader, verifier)
	}

	digester := digest.Canonical.Digester()
	size, err := io.Copy(io.MultiWriter(f, digester.Hash()), reader)
	if err = errors.Join(err, f.Close()); err != nil {
		return "", 0, fmt.Errorf("failed to write %q: %w", tmp, err)
	}

	if verifier != nil && !verifier.Verified() {
		return "", 0, fmt.Errorf("%w: content of %s does not match %s", ErrDigestMismatch, key, expected)
	}

	// not every vfs backend replaces an existing target on rename
	if err = ignoreNotExist(s.fs.Remove(target)); err != nil {
		return "", 0, fmt.Errorf("failed to replace %q: %w", target, err)
	}
	if err = s.fs.Rename(tmp, target); err != nil {
		return "", 0, fmt.Errorf("failed to move %q into place: %w", target, err)
	}

	return digester.Digest(), size, nil
}

// Read returns the content stored under key.
func (s *Store) Read(key resolution.ResourceKey) ([]byte, error) {
	data, err := vfs.ReadFile(s.fs, s.Path(key))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Exists reports whether content is stored under key.
func (s *Store) Exists(key resolution.ResourceKey) bool {
	_, err := s.fs.Stat(s.Path(key))
	return err == nil
}

func ignoreNotExist(err error) error {
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
