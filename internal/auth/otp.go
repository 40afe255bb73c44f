// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// OTPLength is the number of digits in a one-time code.
const OTPLength = 6

var otpMax = big.NewInt(1_000_000)

// GenerateOTP returns a uniformly random zero-padded 6-digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPLength, n.Int64()), nil
}

// HashOTP hashes a one-time code for storage.
func HashOTP(code string) (string, error) {
	return HashArgon2(code)
}

// VerifyOTP checks a submitted code against its stored hash. Input that is
// not exactly six digits never matches.
func VerifyOTP(code, encodedHash string) (bool, error) {
	code = strings.TrimSpace(code)
	if !IsOTPFormat(code) {
		return false, nil
	}
	return VerifyArgon2(code, encodedHash)
}

// IsOTPFormat reports whether s is exactly six ASCII digits.
func IsOTPFormat(s string) bool {
	if len(s) != OTPLength {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// DecoyOTPHash returns a hash no six-digit code can match. It is stored for
// reset requests against unknown addresses so they look like real ones.
func DecoyOTPHash() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating decoy: %w", err)
	}
	return HashArgon2(hex.EncodeToString(b))
}
