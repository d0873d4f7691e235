package automatic

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateSeed creates a random 32-byte seed for a reproducible run.
func GenerateSeed() ([32]byte, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return seed, fmt.Errorf("failed to generate seed: %w", err)
	}
	return seed, nil
}

// EncodeSeed writes a seed as URL-safe base64, which avoids / and +.
func EncodeSeed(seed [32]byte) string {
	return base64.RawURLEncoding.EncodeToString(seed[:])
}

// DecodeSeed reads a seed written by EncodeSeed. Standard base64 is
// accepted too.
func DecodeSeed(s string) ([32]byte, error) {
	var seed [32]byte
	decoded, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(s)
		if err != nil {
			return seed, fmt.Errorf("failed to decode seed: %w", err)
		}
	}
	if len(decoded) != len(seed) {
		return seed, fmt.Errorf("invalid seed length: got %d bytes, expected %d", len(decoded), len(seed))
	}
	copy(seed[:], decoded)
	return seed, nil
}
