package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashCode returns the SHA-256 hash of a plaintext redemption code as a hex
// string.  Only this hash is ever persisted; the plaintext lives just long
// enough to be handed to the operator.
func HashCode(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// HashClient returns the salted SHA-256 hash of a client network address.
// The salt keeps raw addresses out of the attempts and spins tables while
// still letting the limiter correlate requests from the same client.
func HashClient(addr, salt string) string {
	sum := sha256.Sum256([]byte(addr + salt))
	return hex.EncodeToString(sum[:])
}
