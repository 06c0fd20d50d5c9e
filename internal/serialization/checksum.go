package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// ComputeChecksum computes SHA-256 checksum of data.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ComputeChecksumReader computes SHA-256 checksum from an io.Reader.
func ComputeChecksumReader(r io.Reader) ([32]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return [32]byte{}, err
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// ValidateChecksum compares the checksum of data against a hex digest.
// Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(data []byte, digest string) error {
	stored, err := hex.DecodeString(digest)
	if err != nil || len(stored) != sha256.Size {
		return fmt.Errorf("%w: malformed digest %q", ErrChecksumMismatch, digest)
	}
	if computed := ComputeChecksum(data); string(computed[:]) != string(stored) {
		return ErrChecksumMismatch
	}
	return nil
}

// FileDigest returns the "sha256:<hex>" digest of the file at path.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: caller-chosen checkpoint path
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sum, err := ComputeChecksumReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
