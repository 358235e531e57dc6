// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package auth derives and verifies the password verifier and certificate
// hashes a user record carries (spec §3), and optionally screens new
// passwords against the HaveIBeenPwned breach corpus at registration.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/ionovox/server/internal/apperror"
)

const (
	pbkdf2Iterations = 100000
	pbkdf2KeyLength  = 32
	saltLength       = 16
)

// DeriveVerifier hashes password with a fresh random salt and returns the
// self-describing verifier string stored in the user record's password
// verifier field: "$pbkdf2-sha256$i=<iterations>$<salt>$<hash>", base64
// (unpadded) encoded salt and hash.
func DeriveVerifier(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", apperror.Wrap(apperror.KindInternal, "generate password salt", err)
	}
	hash := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLength, sha256.New)
	return fmt.Sprintf("$pbkdf2-sha256$i=%d$%s$%s",
		pbkdf2Iterations,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword reports whether password matches verifier, comparing in
// constant time. A malformed verifier is treated as a mismatch, not an
// error, so a corrupted or foreign-format record never panics the caller.
func VerifyPassword(password, verifier string) bool {
	parts := strings.Split(verifier, "$")
	const wantParts = 5 // "", "pbkdf2-sha256", "i=N", salt, hash
	if len(parts) != wantParts || parts[1] != "pbkdf2-sha256" {
		return false
	}

	var iterations int
	if _, err := fmt.Sscanf(parts[2], "i=%d", &iterations); err != nil || iterations <= 0 {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
