// Package digest computes content hashes and splices them into pathnames.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"

	"github.com/fedragon/go-mediaref/internal/config"
	"github.com/fedragon/go-mediaref/internal/errs"
)

// MinLength is the shortest digest a pathname ever carries.
const MinLength = 4

var algorithms = map[string]func() hash.Hash{
	"md5":        md5.New,
	"sha1":       sha1.New,
	"sha224":     sha256.New224,
	"sha256":     sha256.New,
	"sha384":     sha512.New384,
	"sha512":     sha512.New,
	"sha512-224": sha512.New512_224,
	"sha512-256": sha512.New512_256,
	"sha3-224":   sha3.New224,
	"sha3-256":   sha3.New256,
	"sha3-384":   sha3.New384,
	"sha3-512":   sha3.New512,
	"blake2b256": mustKeyless(blake2b.New256),
	"blake2b512": mustKeyless(blake2b.New512),
	"blake2s256": mustKeyless(blake2s.New256),
	"blake3":     func() hash.Hash { return blake3.New(32, nil) },
}

func mustKeyless(newHash func([]byte) (hash.Hash, error)) func() hash.Hash {
	return func() hash.Hash {
		h, err := newHash(nil)
		if err != nil {
			panic(err)
		}
		return h
	}
}

// Algorithms lists the supported algorithm names.
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sum returns the hex digest of data. Algorithm names are case-insensitive.
func Sum(data []byte, algo string) (string, error) {
	newHash, ok := algorithms[strings.ToLower(algo)]
	if !ok {
		return "", fmt.Errorf("%w: %q", errs.ErrUnsupportedDigestAlgorithm, algo)
	}

	h := newHash()
	h.Write(data)

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Truncate keeps the first max(MinLength, length) characters of digest. A zero
// length keeps the whole digest.
func Truncate(digest string, length int) string {
	if length == 0 {
		return digest
	}
	if length < MinLength {
		length = MinLength
	}
	if length > len(digest) {
		return digest
	}
	return digest[:length]
}

// Splice inserts delimiter and digest between the file's base name and its
// extensions: "a/photo.min.jpg" becomes "a/photo-<digest>.min.jpg".
func Splice(pathname, digest, delimiter string) string {
	dir, file := filepath.Split(pathname)

	name, rest, hasExt := strings.Cut(file, ".")
	spliced := name + delimiter + digest
	if hasExt {
		spliced += "." + rest
	}

	return filepath.Join(dir, spliced)
}

// Rename hashes data with opts and returns the spliced pathname together with
// the (possibly truncated) digest.
func Rename(pathname string, data []byte, opts config.HashOptions) (string, string, error) {
	sum, err := Sum(data, opts.Algo)
	if err != nil {
		return "", "", err
	}

	sum = Truncate(sum, opts.Length)

	return Splice(pathname, sum, opts.Delimiter), sum, nil
}
