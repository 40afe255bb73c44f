// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth provides password and one-time code hashing using argon2id.
// Legacy bcrypt hashes imported from the previous site are still accepted
// and reported as needing a rehash.
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

// ErrMalformedHash is returned when a stored hash cannot be decoded.
var ErrMalformedHash = errors.New("malformed password hash")

// argonParams is the cost tuple encoded in the third hash segment.
type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

// current parameters (m=19456, t=2, p=1) keep a login under 50ms on a small VPS.
var current = argonParams{memory: 19 * 1024, time: 2, threads: 1}

const (
	keyLen  = 32
	saltLen = 16
)

var b64 = base64.RawStdEncoding

// argonHash is a decoded "$argon2id$v=19$m=..,t=..,p=..$salt$key" string.
type argonHash struct {
	params argonParams
	salt   []byte
	key    []byte
}

func (h argonHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.memory, h.params.time, h.params.threads,
		b64.EncodeToString(h.salt), b64.EncodeToString(h.key))
}

func derive(input string, salt []byte, p argonParams, n uint32) []byte {
	return argon2.IDKey([]byte(input), salt, p.time, p.memory, p.threads, n)
}

func decodeArgon2(encoded string) (argonHash, error) {
	var h argonHash
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return h, ErrMalformedHash
	}
	if fields[1] != "argon2id" {
		return h, fmt.Errorf("%w: algorithm %q", ErrMalformedHash, fields[1])
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return h, fmt.Errorf("%w: version %q", ErrMalformedHash, fields[2])
	}
	p := &h.params
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return h, fmt.Errorf("%w: params: %v", ErrMalformedHash, err)
	}

	var err error
	if h.salt, err = b64.DecodeString(fields[4]); err != nil {
		return h, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	if h.key, err = b64.DecodeString(fields[5]); err != nil || len(h.key) == 0 {
		return h, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	return h, nil
}

// HashArgon2 hashes input with the current parameters and a fresh salt.
func HashArgon2(input string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	h := argonHash{params: current, salt: salt, key: derive(input, salt, current, keyLen)}
	return h.String(), nil
}

// VerifyArgon2 compares input against an encoded argon2id hash using the
// parameters stored in the hash.
func VerifyArgon2(input, encoded string) (bool, error) {
	h, err := decodeArgon2(encoded)
	if err != nil {
		return false, err
	}
	got := derive(input, h.salt, h.params, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(got, h.key) == 1, nil
}

// NeedsRehash reports whether encoded should be replaced on the next
// successful login. Anything not matching the current argon2 parameters does.
func NeedsRehash(encoded string) bool {
	h, err := decodeArgon2(encoded)
	return err != nil || h.params != current
}

// HashPassword creates an Argon2id hash of the password.
func HashPassword(password string) (string, error) {
	return HashArgon2(password)
}

// CheckPassword verifies a password against an Argon2id or legacy bcrypt hash.
func CheckPassword(password, encoded string) (bool, error) {
	if !IsLegacyHash(encoded) {
		return VerifyArgon2(password, encoded)
	}
	switch err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)); {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("verifying bcrypt hash: %w", err)
	}
}

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// IsLegacyHash reports whether encoded is a bcrypt hash.
func IsLegacyHash(encoded string) bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(encoded, p) {
			return true
		}
	}
	return false
}

// GenerateRandomPassword returns n random bytes encoded as URL-safe base64.
func GenerateRandomPassword(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
