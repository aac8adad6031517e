package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex is the one hash used for refresh tokens, user-agents and
// fingerprints. The session store only ever sees hashes, never raw values.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
