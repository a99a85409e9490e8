package storage

import (
	"encoding/hex"
	"fmt"
	"io"
	"path"

	"golang.org/x/crypto/blake2b"
)

// ContentKey derives a stable, content-addressed storage key from the
// artifact bytes. Identical content always maps to the same key, so repeated
// uploads of the same artifact are idempotent.
func ContentKey(prefix, ext string, r io.Reader) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("content key: %w", err)
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("content key: %w", err)
	}

	name := hex.EncodeToString(h.Sum(nil)[:16]) + ext
	return path.Join(prefix, name), nil
}
