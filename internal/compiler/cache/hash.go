// Package cache keeps compilation results keyed by file path and content
// hash so that unchanged sources are not recompiled.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// HashFile computes a SHA-256 hash of the file contents
func HashFile(path string) (string, error) {
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

// HashString computes a SHA-256 hash of the given string
func HashString(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
