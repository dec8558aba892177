// Package adaptive seals data with an AEAD cipher chosen for the host CPU.
//
// Two algorithms are supported, both with 256-bit keys:
//
//   - AES-256-GCM, preferred when the CPU has AES and carry-less multiply
//     instructions
//   - ChaCha20-Poly1305 otherwise
//
// Ciphertexts carry their random nonce as a prefix, so Decrypt needs only
// the key and the additional data used at encryption time.
//
// Usage:
//
//	c, err := adaptive.New(key)
//	sealed, err := c.Encrypt(plaintext, aad)
//	plaintext, err := c.Decrypt(sealed, aad)
package adaptive
