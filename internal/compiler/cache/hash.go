// Package cache keeps parse results in memory across runs of the watcher,
// the check command and the editor integration. Entries are keyed by file
// path and validated against a content hash, so an unchanged file is never
// parsed twice.
package cache

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// FileHasher computes content hashes for cache keys
type FileHasher struct{}

// NewFileHasher creates a new file hasher
func NewFileHasher() *FileHasher {
	return &FileHasher{}
}

// HashFile computes the hash of the file contents
func (fh *FileHasher) HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	digest := xxhash.New()
	if _, err := io.Copy(digest, file); err != nil {
		return "", err
	}

	return format(digest.Sum64()), nil
}

// HashContent computes the hash of the given content
func (fh *FileHasher) HashContent(content []byte) string {
	return format(xxhash.Sum64(content))
}

// HashString computes the hash of the given string
func (fh *FileHasher) HashString(content string) string {
	return format(xxhash.Sum64String(content))
}

// format renders a digest as 16 lowercase hex digits.
func format(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
