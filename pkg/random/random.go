// Package random generates alias tokens.
package random

import (
	"fmt"

	nanoid "github.com/jaevor/go-nanoid"
)

// Alphabet used for generated aliases; URL-safe without escaping.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// NewRandomString returns a random alphanumeric string of the given length.
func NewRandomString(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid alias length %d", length)
	}
	gen, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return "", fmt.Errorf("failed to create nanoid generator: %w", err)
	}
	return gen(), nil
}
