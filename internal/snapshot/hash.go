package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainState separates state hashes from any other hash in the system.
const DomainState = "atb/state/v1"

func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of a state. Equal states always produce the
// same hash regardless of map iteration order.
func Hash(s State) (string, error) {
	data, err := MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("hash state: %w", err)
	}
	return hashWithDomain(DomainState, data), nil
}
