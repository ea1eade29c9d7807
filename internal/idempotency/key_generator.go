package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateKey hashes the parts into a fixed-length key. Parts are joined with a unit
// separator so ("a", "bc") and ("ab", "c") differ.
func GenerateKey(parts ...interface{}) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v\x1f", part)
	}

	return hex.EncodeToString(h.Sum(nil))
}
