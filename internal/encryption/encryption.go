package encryption

import (
	"bytes"
	"fmt"
	"io"
)

// Encryptor protects credential material at rest. Unlike an interactive
// vault, the launcher must be able to decrypt and refresh tokens without
// prompting, so implementations hold everything they need on disk.
type Encryptor interface {
	// Setup creates key material. Calling it when already configured is an error.
	Setup() error
	// IsConfigured reports whether key material exists.
	IsConfigured() bool
	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error
	// Decrypt reads ciphertext from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error
}

// EncryptBytes is a convenience wrapper for small payloads such as tokens.
func EncryptBytes(e Encryptor, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Encrypt(bytes.NewReader(data), &buf); err != nil {
		return nil, fmt.Errorf("encrypting payload: %w", err)
	}
	return buf.Bytes(), nil
}

// DecryptBytes is the inverse of EncryptBytes.
func DecryptBytes(e Encryptor, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Decrypt(bytes.NewReader(data), &buf); err != nil {
		return nil, fmt.Errorf("decrypting payload: %w", err)
	}
	return buf.Bytes(), nil
}
