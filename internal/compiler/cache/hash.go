// Package cache decides when generated output can be left alone: it hashes
// file contents and remembers the source fingerprint of each package
// directory between runs of a long-lived process such as watch mode.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"sort"
)

// FileHasher computes content hashes
type FileHasher struct{}

// NewFileHasher creates a new file hasher
func NewFileHasher() *FileHasher {
	return &FileHasher{}
}

// HashFile computes a SHA-256 hash of the file contents
func (fh *FileHasher) HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashContent computes a SHA-256 hash of the given content
func (fh *FileHasher) HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Unchanged reports whether the file at path already holds content. A
// missing file is reported as changed.
func (fh *FileHasher) Unchanged(path string, content []byte) (bool, error) {
	existing, err := fh.HashFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing == fh.HashContent(content), nil
}

// Fingerprint hashes a set of files into one value. The result does not
// depend on the order of paths.
func (fh *FileHasher) Fingerprint(paths []string) (string, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	hasher := sha256.New()
	for _, p := range sorted {
		h, err := fh.HashFile(p)
		if err != nil {
			return "", err
		}
		io.WriteString(hasher, p)
		io.WriteString(hasher, "\x00")
		io.WriteString(hasher, h)
		io.WriteString(hasher, "\n")
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
