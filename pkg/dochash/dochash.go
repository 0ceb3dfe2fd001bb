package dochash

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// AlgorithmSHA256 is the identifier stored alongside every document hash.
const AlgorithmSHA256 = "SHA-256"

var ErrEmptyContent = errors.New("document content is empty")

// Sum returns the hex-encoded SHA-256 digest of the document's canonical
// content bytes. The digest is computed over the raw UTF-8 content field,
// never over rendered output, so identical content always yields the same
// hash regardless of process or platform.
func Sum(content string) (string, error) {
	if content == "" {
		return "", ErrEmptyContent
	}
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:]), nil
}
