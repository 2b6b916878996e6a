package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog/log"
)

const (
	// KeySize is the required AES-256 key length in bytes.
	KeySize = 32

	nonceSize = 12
	tagSize   = 16
)

// Cipher encrypts tokens with AES-256-GCM. The encoded form is
// base64(nonce || tag || ciphertext).
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a Cipher from a 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeyLength, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal returns ciphertext || tag
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, nonceSize+len(sealed))
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a blob produced by Encrypt. Any modification of the nonce,
// tag or ciphertext yields ErrDecryptFailed.
func (c *Cipher) Decrypt(blob string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	if len(raw) < nonceSize+tagSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptFailed)
	}

	nonce := raw[:nonceSize]
	tag := raw[nonceSize : nonceSize+tagSize]
	ct := raw[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	return string(plaintext), nil
}

// Signer produces hex HMAC-SHA256 signatures.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer using secret as the HMAC key.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign returns the hex encoded HMAC-SHA256 of data.
func (s *Signer) Sign(data string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks signature against data in constant time.
func (s *Signer) Verify(data, signature string) bool {
	expected := s.Sign(data)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// CipherMode selects how SafeCipher behaves without a key.
type CipherMode int

const (
	// CipherModeStrict refuses to run without a key.
	CipherModeStrict CipherMode = iota
	// CipherModePermissive stores plaintext when no key is configured and
	// passes through values that were never encrypted.
	CipherModePermissive
)

func (m CipherMode) String() string {
	if m == CipherModePermissive {
		return "permissive"
	}
	return "strict"
}

// SafeCipher wraps Cipher with an explicit policy for missing keys and
// legacy plaintext values.
type SafeCipher struct {
	cipher *Cipher
	mode   CipherMode
}

// NewSafeCipher builds a SafeCipher. An empty key is an error in strict
// mode and selects plaintext passthrough in permissive mode.
func NewSafeCipher(key []byte, mode CipherMode) (*SafeCipher, error) {
	if len(key) == 0 {
		if mode == CipherModeStrict {
			return nil, ErrMissingKey
		}
		log.Warn().Msg("token encryption key not set, tokens will be stored in plaintext")
		return &SafeCipher{mode: mode}, nil
	}

	c, err := NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &SafeCipher{cipher: c, mode: mode}, nil
}

// Mode returns the configured cipher mode.
func (s *SafeCipher) Mode() CipherMode {
	return s.mode
}

// Encrypt encrypts plaintext, or returns it unchanged when no key is set.
func (s *SafeCipher) Encrypt(plaintext string) (string, error) {
	if s.cipher == nil {
		return plaintext, nil
	}
	return s.cipher.Encrypt(plaintext)
}

// EncryptOptional encrypts an optional value, keeping nil as nil.
func (s *SafeCipher) EncryptOptional(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}
	enc, err := s.Encrypt(*plaintext)
	if err != nil {
		return nil, err
	}
	return &enc, nil
}

// Decrypt reverses Encrypt. In strict mode every value must authenticate
// as ciphertext. Permissive mode returns values that are not a ciphertext
// envelope, or fail to authenticate, unchanged as legacy plaintext.
func (s *SafeCipher) Decrypt(blob string) (string, error) {
	if s.cipher == nil {
		return blob, nil
	}
	if s.mode == CipherModePermissive && !looksEncrypted(blob) {
		return blob, nil
	}

	plaintext, err := s.cipher.Decrypt(blob)
	if err != nil {
		if s.mode == CipherModePermissive {
			log.Warn().Err(err).Msg("token decryption failed, treating value as plaintext")
			return blob, nil
		}
		return "", err
	}
	return plaintext, nil
}

// DecryptOptional decrypts an optional value, keeping nil as nil.
func (s *SafeCipher) DecryptOptional(blob *string) (*string, error) {
	if blob == nil {
		return nil, nil
	}
	dec, err := s.Decrypt(*blob)
	if err != nil {
		return nil, err
	}
	return &dec, nil
}

func looksEncrypted(s string) bool {
	raw, err := base64.StdEncoding.DecodeString(s)
	return err == nil && len(raw) >= nonceSize+tagSize
}
