package snapshot

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"

	"github.com/yndnr/rostervault/internal/core/domain"
	"github.com/yndnr/rostervault/pkg/crypto/adaptive"
)

const (
	// KeyLength is the required master key length in bytes.
	KeyLength = 32

	subkeyInfo = "rostervault/snapshot/v1"
)

// sealMagic prefixes sealed blobs. zstd frames start with 0x28B52FFD, so
// the two can never be confused.
var sealMagic = []byte("RVENC1\x00")

// additionalData binds ciphertexts to this blob format.
var additionalData = []byte("rostervault-snapshot")

// ParseKey decodes a 32-byte master key given as hex or standard base64.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := hex.DecodeString(s); err == nil && len(b) == KeyLength {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) == KeyLength {
		return b, nil
	}
	return nil, fmt.Errorf("snapshot: encryption key must be %d bytes, hex or base64 encoded", KeyLength)
}

// NewCipher derives the snapshot subkey from masterKey with HKDF-SHA256 and
// returns a cipher of the requested algorithm ("" selects by hardware).
func NewCipher(masterKey []byte, algorithm string) (adaptive.Cipher, error) {
	if len(masterKey) != KeyLength {
		return nil, fmt.Errorf("snapshot: master key must be %d bytes", KeyLength)
	}

	subkey := make([]byte, KeyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, nil, []byte(subkeyInfo)), subkey); err != nil {
		return nil, fmt.Errorf("snapshot: derive subkey: %w", err)
	}
	defer ZeroKey(subkey)

	typ, err := adaptive.ParseCipherType(algorithm)
	if err != nil {
		return nil, err
	}
	return adaptive.NewWithType(subkey, typ)
}

// GenerateKey returns a random master key, hex encoded.
func GenerateKey() (string, error) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("snapshot: generate key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// ZeroKey overwrites key in place.
func ZeroKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}

func isSealed(data []byte) bool {
	return bytes.HasPrefix(data, sealMagic)
}

func seal(c adaptive.Cipher, data []byte) ([]byte, error) {
	ct, err := c.Encrypt(data, additionalData)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encrypt: %w", err)
	}
	out := make([]byte, 0, len(sealMagic)+len(ct))
	out = append(out, sealMagic...)
	return append(out, ct...), nil
}

func open(c adaptive.Cipher, data []byte) ([]byte, error) {
	plain, err := c.Decrypt(data[len(sealMagic):], additionalData)
	if err != nil {
		return nil, domain.ErrCorruptSnapshot.WithDetails("decryption failed, wrong key or tampered data").WithCause(err)
	}
	return plain, nil
}
