package crypto

import (
	"crypto/rand"
	"errors"
)

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	idSize     = 22 // 22 * 6 = 132 bits of entropy
)

var ErrInvalidIDSize = errors.New("id size must be positive")

// NewID returns a random nanoid-style identifier of the default size.
func NewID() (string, error) {
	return NewIDOfSize(idSize)
}

// NewIDOfSize returns a random identifier of size characters drawn from a
// 64-symbol URL-safe alphabet.
func NewIDOfSize(size int) (string, error) {
	if size <= 0 {
		return "", ErrInvalidIDSize
	}

	// 64 symbols map exactly onto 6 bits, so masking never rejects a byte
	const mask = len(idAlphabet) - 1

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	id := make([]byte, size)
	for i, b := range buf {
		id[i] = idAlphabet[int(b)&mask]
	}

	return string(id), nil
}
