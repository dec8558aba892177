package adaptive

import (
	"errors"
	"fmt"
	"strings"
)

// KeySize is the key length accepted by every cipher.
const KeySize = 32

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

var (
	// ErrKeySize is returned for keys that are not KeySize bytes.
	ErrKeySize = fmt.Errorf("adaptive: key must be %d bytes", KeySize)

	// ErrShortCiphertext is returned when input cannot hold a nonce and tag.
	ErrShortCiphertext = errors.New("adaptive: ciphertext too short")
)

// Cipher provides authenticated encryption. Implementations are safe for
// concurrent use.
type Cipher interface {
	// Type returns the cipher type.
	Type() CipherType

	// Encrypt seals plaintext under a fresh random nonce and returns
	// nonce || ciphertext || tag.
	Encrypt(plaintext, additionalData []byte) ([]byte, error)

	// Decrypt opens the output of Encrypt.
	Decrypt(ciphertext, additionalData []byte) ([]byte, error)

	// Overhead is the number of bytes Encrypt adds to its input.
	Overhead() int
}

// ParseCipherType maps a configured algorithm name to a CipherType.
// The empty string selects Preferred().
func ParseCipherType(name string) (CipherType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return Preferred(), nil
	case "aes-gcm", "aes-256-gcm", "aes":
		return CipherAESGCM, nil
	case "chacha20-poly1305", "chacha20":
		return CipherChaCha20, nil
	default:
		return "", fmt.Errorf("adaptive: unknown cipher %q", name)
	}
}

// Preferred returns the faster algorithm for the running CPU.
func Preferred() CipherType {
	if hasAESHardware() {
		return CipherAESGCM
	}
	return CipherChaCha20
}

// New creates a cipher of the preferred type.
func New(key []byte) (Cipher, error) {
	return NewWithType(key, Preferred())
}

// NewWithType creates a cipher of the specified type.
func NewWithType(key []byte, cipherType CipherType) (Cipher, error) {
	switch cipherType {
	case CipherAESGCM:
		return NewAESGCM(key)
	case CipherChaCha20:
		return NewChaCha20(key)
	default:
		return nil, fmt.Errorf("adaptive: unknown cipher %q", cipherType)
	}
}
