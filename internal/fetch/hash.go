package fetch

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/krankdata/krank/internal/model"
)

// ParseHash splits an algorithm-prefixed digest like "sha256:ab12..."
// into its algorithm and lowercase hex parts.
func ParseHash(s string) (algo, digest string, err error) {
	algo, digest, ok := strings.Cut(s, ":")
	if !ok {
		return "", "", fmt.Errorf("hash %q missing algorithm prefix", s)
	}
	algo = strings.ToLower(algo)
	switch algo {
	case "md5", "sha256":
	default:
		return "", "", fmt.Errorf("unsupported hash algorithm %q", algo)
	}
	return algo, strings.ToLower(digest), nil
}

// HashFile computes the named digest of a file and returns lowercase hex.
func HashFile(path, algo string) (string, error) {
	var h hash.Hash
	switch algo {
	case "md5":
		h = md5.New()
	case "sha256":
		h = sha256.New()
	default:
		return "", fmt.Errorf("unsupported hash algorithm %q", algo)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for hashing: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyFile checks a file against an algorithm-prefixed digest and
// returns an IntegrityError on mismatch.
func VerifyFile(path, want string) error {
	algo, wantDigest, err := ParseHash(want)
	if err != nil {
		return err
	}
	got, err := HashFile(path, algo)
	if err != nil {
		return err
	}
	if got != wantDigest {
		return &model.IntegrityError{
			Path: path,
			Want: want,
			Got:  algo + ":" + got,
		}
	}
	return nil
}
