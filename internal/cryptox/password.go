package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/rxauth/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm names a password hashing scheme.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// DefaultBcryptCost matches the cost used for existing practitioner hashes.
const DefaultBcryptCost = 12

// bcrypt ignores input past 72 bytes; x/crypto rejects it outright.
const maxBcryptPasswordLen = 72

// argon2id parameters (OWASP recommendation).
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32

	// Upper bounds accepted from a stored digest.
	argon2MaxMemory = 1024 * 1024
	argon2MaxTime   = 16
)

var (
	ErrEmptyPassword     = errors.New("password cannot be empty")
	ErrMalformedDigest   = errors.New("malformed password digest")
	ErrUnknownAlgorithm  = errors.New("unknown password hash algorithm")
	ErrInvalidBcryptCost = errors.New("invalid bcrypt cost")
)

// PasswordHasher hashes new passwords and verifies candidates against a
// stored digest. The digest embeds its own salt and parameters.
type PasswordHasher interface {
	// Hash returns a salted one-way digest of password.
	Hash(password string) (string, error)

	// Verify returns (true, nil) on match, (false, nil) on mismatch and an
	// error only when digest cannot be parsed.
	Verify(password, digest string) (bool, error)
}

// Hasher hashes with the configured algorithm and verifies digests of any
// supported algorithm, selected by the digest prefix.
type Hasher struct {
	algorithm  Algorithm
	bcryptCost int
}

var _ PasswordHasher = (*Hasher)(nil)

// NewHasher validates the algorithm and cost. There is no fallback: an
// unknown algorithm is a configuration error.
func NewHasher(algorithm Algorithm, bcryptCost int) (*Hasher, error) {
	switch algorithm {
	case AlgorithmBcrypt:
		if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("%w: %d", ErrInvalidBcryptCost, bcryptCost)
		}
	case AlgorithmArgon2id:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	return &Hasher{algorithm: algorithm, bcryptCost: bcryptCost}, nil
}

// Algorithm returns the scheme used for new digests.
func (h *Hasher) Algorithm() Algorithm {
	return h.algorithm
}

// CheckLength reports common.ErrPasswordTooLong when password cannot be
// hashed by the configured scheme.
func (h *Hasher) CheckLength(password string) error {
	if h.algorithm == AlgorithmBcrypt && len(password) > maxBcryptPasswordLen {
		return common.ErrPasswordTooLong
	}
	return nil
}

func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if err := h.CheckLength(password); err != nil {
		return "", err
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	if h.algorithm == AlgorithmArgon2id {
		return hashArgon2id(pw)
	}

	digest, err := bcrypt.GenerateFromPassword(pw, h.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(digest), nil
}

func (h *Hasher) Verify(password, digest string) (bool, error) {
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return verifyArgon2id(pw, digest)
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		// Longer input would be silently truncated to a matching prefix.
		if len(pw) > maxBcryptPasswordLen {
			return false, nil
		}
		err := bcrypt.CompareHashAndPassword([]byte(digest), pw)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
			return false, nil
		default:
			return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
		}
	default:
		return false, ErrMalformedDigest
	}
}

// hashArgon2id encodes the digest in PHC format:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func hashArgon2id(password []byte) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2id salt: %w", err)
	}

	key := argon2.IDKey(password, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyArgon2id(password []byte, digest string) (bool, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return false, ErrMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrMalformedDigest
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, ErrMalformedDigest
	}
	// argon2.IDKey panics on zero rounds or lanes.
	if iterations == 0 || iterations > argon2MaxTime ||
		threads == 0 || memory < 8*uint32(threads) || memory > argon2MaxMemory {
		return false, ErrMalformedDigest
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrMalformedDigest
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 || len(expected) > 1024 {
		return false, ErrMalformedDigest
	}

	computed := argon2.IDKey(password, salt, iterations, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
