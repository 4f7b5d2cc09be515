// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"

	"github.com/carterperez-dev/defect-tracker/internal/config"
)

const (
	argonKeyLen = 32
	saltLength  = 16
)

var ErrMalformedHash = errors.New("malformed password hash")

// PasswordHasher produces and checks argon2id hashes in the PHC string
// format. Hashes made with a different cost verify fine and are reported
// for rehashing.
type PasswordHasher struct {
	memory      uint32
	iterations  uint32
	parallelism uint8

	dummyOnce sync.Once
	dummyHash string
}

func NewPasswordHasher(cfg config.PasswordConfig) *PasswordHasher {
	return &PasswordHasher{
		memory:      cfg.Memory,
		iterations:  cfg.Iterations,
		parallelism: cfg.Parallelism,
	}
}

func DefaultPasswordHasher() *PasswordHasher {
	return NewPasswordHasher(config.PasswordConfig{
		Memory:      64 * 1024,
		Iterations:  1,
		Parallelism: 4,
	})
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.iterations,
		h.memory,
		h.parallelism,
		argonKeyLen,
	)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory,
		h.iterations,
		h.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. On a match made with
// outdated parameters it also returns a fresh hash to store.
func (h *PasswordHasher) Verify(
	password, encoded string,
) (ok bool, rehash string, err error) {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, "", err
	}

	candidate := argon2.IDKey(
		[]byte(password),
		salt,
		params.iterations,
		params.memory,
		params.parallelism,
		params.keyLen,
	)

	if subtle.ConstantTimeCompare(key, candidate) != 1 {
		return false, "", nil
	}

	if !h.current(params) {
		fresh, hashErr := h.Hash(password)
		if hashErr == nil {
			rehash = fresh
		}
	}

	return true, rehash, nil
}

// VerifyTimingSafe behaves like Verify but, when there is no stored hash,
// still spends one argon2 computation so unknown accounts cost the same
// as known ones.
func (h *PasswordHasher) VerifyTimingSafe(
	password string,
	encoded *string,
) (bool, string, error) {
	if encoded == nil || *encoded == "" {
		//nolint:errcheck // result discarded on purpose
		_, _, _ = h.Verify(password, h.dummy())
		return false, "", nil
	}

	return h.Verify(password, *encoded)
}

func (h *PasswordHasher) dummy() string {
	h.dummyOnce.Do(func() {
		hash, err := h.Hash("dummy-password-for-unknown-accounts")
		if err != nil {
			panic(fmt.Sprintf("security: generate dummy hash: %v", err))
		}
		h.dummyHash = hash
	})
	return h.dummyHash
}

type argonParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	keyLen      uint32
}

func (h *PasswordHasher) current(p *argonParams) bool {
	return p.memory == h.memory &&
		p.iterations == h.iterations &&
		p.parallelism == h.parallelism &&
		p.keyLen == argonKeyLen
}

func decodeHash(encoded string) (*argonParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, fmt.Errorf("version: %w", ErrMalformedHash)
	}
	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("incompatible version %d: %w", version, ErrMalformedHash)
	}

	params := &argonParams{}
	_, err := fmt.Sscanf(
		parts[3],
		"m=%d,t=%d,p=%d",
		&params.memory,
		&params.iterations,
		&params.parallelism,
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("params: %w", ErrMalformedHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("salt: %w", ErrMalformedHash)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("key: %w", ErrMalformedHash)
	}

	//nolint:gosec // G115: argon2id keys are 32 bytes
	params.keyLen = uint32(len(key))

	return params, salt, key, nil
}
