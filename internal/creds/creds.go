// Package creds seals the booking-site credentials at rest. The engine only
// ever sees them as an opaque pair handed to the login collaborator.
package creds

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// DeriveKey stretches the operator passphrase into an AES-256 key.
func DeriveKey(passphrase string, salt []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("credential passphrase is empty")
	}
	if len(salt) < 16 {
		return nil, fmt.Errorf("credential salt too short (%d bytes, want >= 16)", len(salt))
	}
	return scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, 32)
}

type Sealer struct{ aead cipher.AEAD }

func NewSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	a, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: a}, nil
}

func (s *Sealer) Seal(c Credentials) (string, error) {
	plain, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ct := s.aead.Seal(nil, nonce, plain, nil)
	return base64.RawStdEncoding.EncodeToString(append(nonce, ct...)), nil
}

func (s *Sealer) Open(sealed string) (Credentials, error) {
	buf, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return Credentials{}, err
	}
	ns := s.aead.NonceSize()
	if len(buf) < ns {
		return Credentials{}, fmt.Errorf("sealed credentials too short")
	}
	plain, err := s.aead.Open(nil, buf[:ns], buf[ns:], nil)
	if err != nil {
		return Credentials{}, fmt.Errorf("open sealed credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(plain, &c); err != nil {
		return Credentials{}, err
	}
	return c, nil
}
