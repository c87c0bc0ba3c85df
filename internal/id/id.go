// Package id generates the prefixed entity IDs used across the server,
// for example "evt-V1StGXR8_Z5jdHi6B-myT". The prefix makes an ID
// self-describing in logs and in the store's key space.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate returns a new ID with the given type prefix. It fails only
// when the system cannot supply secure randomness.
func Generate(prefix string) (string, error) {
	suffix, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + suffix, nil
}

// MustGenerate is Generate for callers that cannot meaningfully handle
// an entropy failure, such as seed tooling.
func MustGenerate(prefix string) string {
	generated, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return generated
}
