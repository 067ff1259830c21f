package filetype

import (
	"crypto/md5"  //nolint:gosec // MD5 used for checksum verification, not security
	"crypto/sha1" //nolint:gosec // SHA1 used for checksum verification, not security
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// ChecksumAlgorithm names a supported checksum algorithm
type ChecksumAlgorithm string

const (
	ChecksumMD5    ChecksumAlgorithm = "md5"
	ChecksumSHA1   ChecksumAlgorithm = "sha1"
	ChecksumSHA256 ChecksumAlgorithm = "sha256"
	ChecksumSHA512 ChecksumAlgorithm = "sha512"
	ChecksumCRC32  ChecksumAlgorithm = "crc32" // IEEE polynomial
	ChecksumXXHash ChecksumAlgorithm = "xxhash"
	ChecksumBLAKE3 ChecksumAlgorithm = "blake3"
)

var hashers = []struct {
	algorithm ChecksumAlgorithm
	new       func() hash.Hash
}{
	{ChecksumMD5, md5.New},   //nolint:gosec
	{ChecksumSHA1, sha1.New}, //nolint:gosec
	{ChecksumSHA256, sha256.New},
	{ChecksumSHA512, sha512.New},
	{ChecksumCRC32, func() hash.Hash { return crc32.NewIEEE() }},
	{ChecksumXXHash, func() hash.Hash { return xxhash.New() }},
	{ChecksumBLAKE3, func() hash.Hash { return blake3.New() }},
}

// ChecksumAlgorithms lists every supported algorithm.
func ChecksumAlgorithms() []ChecksumAlgorithm {
	out := make([]ChecksumAlgorithm, len(hashers))
	for i, h := range hashers {
		out[i] = h.algorithm
	}
	return out
}

// ParseChecksumAlgorithm resolves a case-insensitive algorithm name.
func ParseChecksumAlgorithm(name string) (ChecksumAlgorithm, error) {
	algorithm := ChecksumAlgorithm(strings.ToLower(strings.TrimSpace(name)))
	if _, err := NewHasher(algorithm); err != nil {
		return "", err
	}
	return algorithm, nil
}

// NewHasher creates a new hash.Hash for the given algorithm.
func NewHasher(algorithm ChecksumAlgorithm) (hash.Hash, error) {
	for _, h := range hashers {
		if h.algorithm == algorithm {
			return h.new(), nil
		}
	}
	return nil, fmt.Errorf("%w: unsupported checksum algorithm: %s", ErrNotSupported, algorithm)
}

// CalculateChecksum returns the hex digest of everything read from r.
func CalculateChecksum(r io.Reader, algorithm ChecksumAlgorithm) (string, error) {
	sums, err := CalculateChecksums(r, []ChecksumAlgorithm{algorithm})
	if err != nil {
		return "", err
	}
	return sums[algorithm], nil
}

// CalculateChecksums computes several digests of r in a single pass.
func CalculateChecksums(r io.Reader, algorithms []ChecksumAlgorithm) (map[ChecksumAlgorithm]string, error) {
	if len(algorithms) == 0 {
		return nil, errors.New("no checksum algorithms specified")
	}

	hs := make(map[ChecksumAlgorithm]hash.Hash, len(algorithms))
	writers := make([]io.Writer, 0, len(algorithms))
	for _, algorithm := range algorithms {
		if _, dup := hs[algorithm]; dup {
			continue
		}
		h, err := NewHasher(algorithm)
		if err != nil {
			return nil, err
		}
		hs[algorithm] = h
		writers = append(writers, h)
	}

	if _, err := io.Copy(io.MultiWriter(writers...), r); err != nil {
		return nil, fmt.Errorf("failed to calculate checksum: %w", err)
	}

	sums := make(map[ChecksumAlgorithm]string, len(hs))
	for algorithm, h := range hs {
		sums[algorithm] = hex.EncodeToString(h.Sum(nil))
	}
	return sums, nil
}
