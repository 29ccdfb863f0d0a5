package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// hashDelimiter separates salt and digest. Neither part is ever produced with it
// because both are hex encoded.
const hashDelimiter = ":"

var ErrMalformedHash = errors.New("malformed password hash")

type ScryptParams struct {
	N       int
	R       int
	P       int
	KeyLen  int
	SaltLen int
}

// DefaultParams match the cost of hashes already stored by the recipe site.
var DefaultParams = ScryptParams{
	N:       16384,
	R:       8,
	P:       1,
	KeyLen:  64,
	SaltLen: 16,
}

// Hasher turns passwords into storable "salt:digest" strings and checks them.
type Hasher struct {
	params ScryptParams
	rand   io.Reader
}

func NewHasher() *Hasher {
	return NewHasherWithParams(DefaultParams)
}

func NewHasherWithParams(params ScryptParams) *Hasher {
	return &Hasher{params: params, rand: rand.Reader}
}

func (h *Hasher) Hash(plain string) (string, error) {
	raw := make([]byte, h.params.SaltLen)
	if _, err := io.ReadFull(h.rand, raw); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	salt := hex.EncodeToString(raw)

	digest, err := h.derive(plain, salt)
	if err != nil {
		return "", err
	}

	return salt + hashDelimiter + hex.EncodeToString(digest), nil
}

// Verify never errors: anything it cannot parse simply does not match.
func (h *Hasher) Verify(plain, stored string) bool {
	parsed, err := ParseHash(stored)
	if err != nil {
		return false
	}

	switch v := parsed.(type) {
	case SaltedHash:
		computed, err := h.derive(plain, v.Salt)
		if err != nil {
			return false
		}
		return subtle.ConstantTimeCompare(computed, v.Digest) == 1
	case LegacyHash:
		sum := sha256.Sum256([]byte(plain))
		return subtle.ConstantTimeCompare(sum[:], v.Digest) == 1
	default:
		return false
	}
}

// derive keys scrypt with the hex salt text itself, not the decoded bytes.
func (h *Hasher) derive(plain, salt string) ([]byte, error) {
	digest, err := scrypt.Key([]byte(plain), []byte(salt), h.params.N, h.params.R, h.params.P, h.params.KeyLen)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return digest, nil
}

// StoredHash is one of SaltedHash or LegacyHash.
type StoredHash interface {
	storedHash()
}

type SaltedHash struct {
	Salt   string
	Digest []byte
}

// LegacyHash is an unsalted single-round sha256 digest from before salting was introduced.
type LegacyHash struct {
	Digest []byte
}

func (SaltedHash) storedHash() {}
func (LegacyHash) storedHash() {}

func ParseHash(stored string) (StoredHash, error) {
	if !strings.Contains(stored, hashDelimiter) {
		digest, err := hex.DecodeString(stored)
		if err != nil || len(digest) != sha256.Size {
			return nil, ErrMalformedHash
		}
		return LegacyHash{Digest: digest}, nil
	}

	parts := strings.Split(stored, hashDelimiter)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, ErrMalformedHash
	}

	digest, err := hex.DecodeString(parts[1])
	if err != nil {
		return nil, ErrMalformedHash
	}

	return SaltedHash{Salt: parts[0], Digest: digest}, nil
}

var defaultHasher = NewHasher()

// HashPassword hashes with the default scrypt parameters.
func HashPassword(plain string) (string, error) {
	return defaultHasher.Hash(plain)
}

// CheckPassword reports whether plain matches the stored hash.
func CheckPassword(stored, plain string) bool {
	return defaultHasher.Verify(plain, stored)
}
