package encryption

import (
	"fmt"
	"io"
)

// NoneEncryptor stores tokens in plaintext. It exists for users who keep
// their data directory on an already-encrypted volume and opt out explicitly.
type NoneEncryptor struct{}

var _ Encryptor = (*NoneEncryptor)(nil)

// NewNoneEncryptor creates a new NoneEncryptor.
func NewNoneEncryptor() *NoneEncryptor {
	return &NoneEncryptor{}
}

func (e *NoneEncryptor) Setup() error { return nil }

func (e *NoneEncryptor) IsConfigured() bool { return true }

func (e *NoneEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *NoneEncryptor) Decrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
