// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionovox/server/internal/auth"
)

func TestDeriveVerifierRoundTrips(t *testing.T) {
	verifier, err := auth.DeriveVerifier("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, auth.VerifyPassword("correct horse battery staple", verifier))
	assert.False(t, auth.VerifyPassword("wrong password", verifier))
}

func TestDeriveVerifierSaltsEachCall(t *testing.T) {
	a, err := auth.DeriveVerifier("same password")
	require.NoError(t, err)
	b, err := auth.DeriveVerifier("same password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "two derivations of the same password must not produce identical verifiers")
}

func TestVerifyPasswordRejectsMalformedVerifier(t *testing.T) {
	assert.False(t, auth.VerifyPassword("anything", "not-a-verifier"))
	assert.False(t, auth.VerifyPassword("anything", "$pbkdf2-sha256$i=abc$salt$hash"))
}

func TestCertHashesMatchesCert(t *testing.T) {
	h := auth.CertHashes{Strong: "deadbeef", Weak: "cafef00d"}
	assert.True(t, h.MatchesCert("deadbeef"))
	assert.True(t, h.MatchesCert("cafef00d"))
	assert.False(t, h.MatchesCert("0000"))
	assert.False(t, (auth.CertHashes{}).MatchesCert(""))
}

func TestNewBreachCheckerNoopWithoutAPIKey(t *testing.T) {
	checker := auth.NewBreachChecker("")
	assert.Nil(t, checker)
	breached, err := checker.CheckBreached(nil, "password123") //nolint:staticcheck // nil context is fine: the nil-receiver path never dereferences it
	require.NoError(t, err)
	assert.False(t, breached)
}
