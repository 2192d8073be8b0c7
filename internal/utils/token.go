package utils

import (
	"encoding/hex" // Hex encoding

	"github.com/google/uuid" // Random v4 UUIDs
)

// GenerateTokenKey returns a random 40 character hex key for opaque login
// tokens: all 16 bytes of one v4 UUID followed by 4 bytes of a second
func GenerateTokenKey() (string, error) {
	first, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	second, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(first[:]) + hex.EncodeToString(second[:4]), nil
}
