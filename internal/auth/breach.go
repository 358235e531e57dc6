// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package auth

import (
	"context"
	"crypto/sha1" //#nosec G505 -- not used for cryptographic purposes, only k-anonymity HIBP lookup
	"fmt"
	"strconv"
	"strings"

	gopwned "github.com/mavjs/goPwned"

	"github.com/ionovox/server/internal/apperror"
)

// BreachChecker screens a candidate password against the HaveIBeenPwned
// breach corpus via the k-anonymity range API, gated by an API key at
// construction; a nil *BreachChecker (no key configured) always reports
// "not breached" without making a network call.
type BreachChecker struct {
	client *gopwned.Client
}

// NewBreachChecker constructs a checker bound to apiKey. An empty apiKey
// disables the check entirely: CheckBreached on such a checker is a no-op.
func NewBreachChecker(apiKey string) *BreachChecker {
	if apiKey == "" {
		return nil
	}
	return &BreachChecker{client: gopwned.NewClient(nil, apiKey)}
}

// CheckBreached reports whether password appears in a known breach corpus.
// It hashes the password with SHA-1 and submits only the first five hex
// digits to the HIBP range endpoint, matching the candidate's full hash
// against the returned suffix list locally, per HIBP's k-anonymity model.
func (b *BreachChecker) CheckBreached(ctx context.Context, password string) (bool, error) {
	if b == nil {
		return false, nil
	}

	h := sha1.New() //#nosec G401 -- not used for cryptographic purposes, only k-anonymity HIBP lookup
	h.Write([]byte(password))
	hexHash := fmt.Sprintf("%X", h.Sum(nil))
	prefix, suffix := hexHash[:5], hexHash[5:]

	body, err := b.client.GetPwnedPasswords(prefix, false)
	if err != nil {
		if strings.HasPrefix(err.Error(), "Too many requests") {
			return false, apperror.Wrap(apperror.KindRateLimited, "hibp range lookup rate-limited", err)
		}
		return false, apperror.Wrap(apperror.KindInternal, "hibp range lookup failed", err)
	}

	for _, line := range strings.Split(string(body), "\r\n") {
		fields := strings.Split(line, ":")
		if len(fields) != 2 {
			continue
		}
		if fields[0] != suffix {
			continue
		}
		count, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		return count > 0, nil
	}
	return false, nil
}
