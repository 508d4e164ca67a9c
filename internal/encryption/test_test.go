package encryption

import (
	"bytes"
	"testing"

	"github.com/fossabot/DropOut/internal/config"
)

func TestTestEncryptor_Setup(t *testing.T) {
	t.Parallel()
	e := NewTestEncryptor()
	if err := e.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.setupCalled {
		t.Error("Setup() did not record that it was called")
	}
}

func TestTestEncryptor_IsConfigured(t *testing.T) {
	t.Parallel()
	e := NewTestEncryptor()
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false, want true")
	}
}

func TestTestEncryptor_EncryptDecrypt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "simple text", input: []byte("hello world")},
		{name: "empty", input: []byte{}},
		{name: "binary data", input: []byte{0x00, 0xff, 0x01, 0xfe}},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := NewTestEncryptor()

			var encrypted bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &encrypted); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if bytes.Equal(encrypted.Bytes(), tt.input) {
				t.Error("encrypted output is identical to plaintext")
			}

			var decrypted bytes.Buffer
			if err := e.Decrypt(&encrypted, &decrypted); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(decrypted.Bytes(), tt.input) {
				t.Errorf("round trip mismatch: got %d bytes, want %d", decrypted.Len(), len(tt.input))
			}
		})
	}
}

func TestTestEncryptor_Decrypt_BadHeader(t *testing.T) {
	t.Parallel()
	e := NewTestEncryptor()

	var out bytes.Buffer
	if err := e.Decrypt(bytes.NewReader([]byte("not encrypted at all")), &out); err == nil {
		t.Fatal("Decrypt() with a bad header should fail")
	}
}

func TestNoneEncryptor_Passthrough(t *testing.T) {
	t.Parallel()
	e := NewNoneEncryptor()

	input := []byte("plaintext stays plaintext")
	var encrypted bytes.Buffer
	if err := e.Encrypt(bytes.NewReader(input), &encrypted); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if !bytes.Equal(encrypted.Bytes(), input) {
		t.Error("NoneEncryptor must pass data through unchanged")
	}

	var decrypted bytes.Buffer
	if err := e.Decrypt(&encrypted, &decrypted); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(decrypted.Bytes(), input) {
		t.Error("round trip mismatch")
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfgType  string
		wantType any
		wantErr  bool
	}{
		{name: "age", cfgType: "age", wantType: (*AgeEncryptor)(nil)},
		{name: "default is age", cfgType: "", wantType: (*AgeEncryptor)(nil)},
		{name: "none", cfgType: "none", wantType: (*NoneEncryptor)(nil)},
		{name: "test", cfgType: "test", wantType: (*TestEncryptor)(nil)},
		{name: "unknown", cfgType: "pgp", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: tt.cfgType})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewEncryptorFromConfig(%q) expected error", tt.cfgType)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEncryptorFromConfig(%q) error = %v", tt.cfgType, err)
			}
			switch tt.wantType.(type) {
			case *AgeEncryptor:
				if _, ok := e.(*AgeEncryptor); !ok {
					t.Errorf("got %T, want *AgeEncryptor", e)
				}
			case *NoneEncryptor:
				if _, ok := e.(*NoneEncryptor); !ok {
					t.Errorf("got %T, want *NoneEncryptor", e)
				}
			case *TestEncryptor:
				if _, ok := e.(*TestEncryptor); !ok {
					t.Errorf("got %T, want *TestEncryptor", e)
				}
			}
		})
	}
}
