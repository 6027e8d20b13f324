package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

const (
	bearerSeparator = "."
	tokenIDBytes    = 16
	secretBytes     = 32
)

// parseBearer splits "<token_id>.<secret>" on the first separator.
func parseBearer(raw string) (tokenID, secret string, ok bool) {
	raw = strings.TrimSpace(raw)
	tokenID, secret, found := strings.Cut(raw, bearerSeparator)
	if !found || tokenID == "" || secret == "" {
		return "", "", false
	}
	return tokenID, secret, true
}

func formatBearer(tokenID, secret string) string {
	return tokenID + bearerSeparator + secret
}

func hashSecret(secret, pepper string) string {
	sum := sha256.Sum256([]byte(secret + pepper))
	return hex.EncodeToString(sum[:])
}

func secretMatches(secret, storedHash, pepper string) bool {
	computed := hashSecret(secret, pepper)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

func randomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
