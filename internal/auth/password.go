package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	argon2idID = "argon2id"

	// Stored hashes asking for more memory than this are rejected as malformed,
	// so hashers cannot be built above it either.
	maxArgon2MemoryKB = 4 * 1024 * 1024
)

// PasswordHasher turns plaintext secrets into self-describing hashes and
// checks plaintexts against them.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, encoded string) bool
	NeedsRehash(encoded string) bool
}

// Argon2Params are the Argon2id cost parameters embedded in every hash.
type Argon2Params struct {
	MemoryKB   uint32
	Time       uint32
	Threads    uint8
	SaltLength uint32
	KeyLength  uint32
}

// DefaultArgon2Params follow the OWASP Argon2id baseline.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{MemoryKB: 64 * 1024, Time: 3, Threads: 2, SaltLength: 16, KeyLength: 32}
}

// Argon2Hasher hashes with Argon2id and verifies Argon2id and legacy bcrypt
// hashes. It is immutable and safe for concurrent use.
type Argon2Hasher struct {
	params Argon2Params
}

// NewArgon2Hasher validates params and builds a hasher.
func NewArgon2Hasher(params Argon2Params) (*Argon2Hasher, error) {
	if params.MemoryKB < 8*1024 || params.Time < 1 || params.Threads < 1 {
		return nil, errors.New("argon2: cost parameters below minimum")
	}
	if params.MemoryKB > maxArgon2MemoryKB {
		return nil, fmt.Errorf("argon2: memory above %d KB", maxArgon2MemoryKB)
	}
	if params.SaltLength < 16 || params.KeyLength < 16 {
		return nil, errors.New("argon2: salt and key length must be >= 16")
	}
	return &Argon2Hasher{params: params}, nil
}

// Hash returns a PHC string: $argon2id$v=19$m=<kb>,t=<n>,p=<n>$<salt>$<key>.
// An error means the process cannot produce randomness and is not a
// property of the input.
func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2: generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.MemoryKB, h.params.Threads, h.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idID,
		argon2.Version,
		h.params.MemoryKB, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plaintext matches encoded. Malformed hashes yield
// false.
func (h *Argon2Hasher) Verify(plaintext, encoded string) bool {
	if isBcrypt(encoded) {
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext)) == nil
	}

	phc, err := decodeArgon2id(encoded)
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(plaintext), phc.salt, phc.params.Time, phc.params.MemoryKB, phc.params.Threads, uint32(len(phc.key)))
	return subtle.ConstantTimeCompare(phc.key, candidate) == 1
}

// NeedsRehash reports whether encoded should be replaced by a fresh hash
// under the current parameters.
func (h *Argon2Hasher) NeedsRehash(encoded string) bool {
	if isBcrypt(encoded) {
		return true
	}
	phc, err := decodeArgon2id(encoded)
	if err != nil {
		return true
	}
	p := phc.params
	return p.MemoryKB < h.params.MemoryKB ||
		p.Time < h.params.Time ||
		p.Threads < h.params.Threads ||
		uint32(len(phc.key)) != h.params.KeyLength
}

type argon2idHash struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

func decodeArgon2id(encoded string) (*argon2idHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}
	if parts[1] != argon2idID {
		return nil, fmt.Errorf("unsupported algorithm %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("parse version: %w", err)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var out argon2idHash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &out.params.MemoryKB, &out.params.Time, &out.params.Threads); err != nil {
		return nil, fmt.Errorf("parse parameters: %w", err)
	}
	if out.params.Time < 1 || out.params.Threads < 1 || out.params.MemoryKB > maxArgon2MemoryKB {
		return nil, errors.New("invalid cost parameters")
	}

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(out.salt) == 0 || len(out.key) == 0 {
		return nil, errors.New("empty salt or key")
	}
	out.params.SaltLength = uint32(len(out.salt))
	out.params.KeyLength = uint32(len(out.key))
	return &out, nil
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}
