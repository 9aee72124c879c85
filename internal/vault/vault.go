/*
Copyright 2025 ATMConnect Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
)

const otpDigits = 6

// Provider is the cryptographic primitive contract everything in the core
// depends on: key material, channel protection, OTP minting/verification,
// hashing and secure randomness. All secret comparison is constant-time.
type Provider interface {
	GenerateKeyPair() (*ecdh.PrivateKey, error)
	Encrypt(plaintext []byte, peerPublicKey []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
	Sign(data []byte) ([]byte, error)
	Verify(data, signature []byte, publicKey *ecdsa.PublicKey) bool
	GenerateOtp() (string, error)
	VerifyOtp(candidate, expected string) bool
	ComputeHash(data []byte) string
	SecureRandom(length int) ([]byte, error)
	PerformKeyExchange(peerPublicKey []byte) ([]byte, error)
	SigningPublicKey() *ecdsa.PublicKey
	ExchangePublicKeyBytes() []byte
}

// Service is the P-256 implementation of Provider. It holds the device-facing
// key material: an ECDSA key for signing payloads and an ECDH key for the
// channel key exchange.
type Service struct {
	signingKey  *ecdsa.PrivateKey
	exchangeKey *ecdh.PrivateKey
}

// NewService generates the service key material. A failure here is a fatal
// startup condition, not a per-call error.
func NewService() (*Service, error) {
	signingKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %v", err)
	}
	exchangeKey, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate exchange key: %v", err)
	}
	return &Service{signingKey: signingKey, exchangeKey: exchangeKey}, nil
}

// GenerateKeyPair mints a fresh P-256 key pair, e.g. for a device enrollment.
func (s *Service) GenerateKeyPair() (*ecdh.PrivateKey, error) {
	return ecdh.P256().GenerateKey(rand.Reader)
}

// Encrypt seals a payload for the holder of peerPublicKey using an ephemeral
// ECDH agreement and AES-GCM. The output is
// ephemeralPublicKey || nonce || ciphertext; the nonce is fresh per call and
// never reused with the same derived key.
func (s *Service) Encrypt(plaintext []byte, peerPublicKey []byte) ([]byte, error) {
	peer, err := ecdh.P256().NewPublicKey(peerPublicKey)
	if err != nil {
		return nil, fmt.Errorf("malformed peer public key: %v", err)
	}
	ephemeral, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	shared, err := ephemeral.ECDH(peer)
	if err != nil {
		return nil, err
	}
	gcm, err := newGCM(shared)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	out := ephemeral.PublicKey().Bytes()
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt opens a payload sealed against this service's exchange key.
func (s *Service) Decrypt(ciphertext []byte) ([]byte, error) {
	pubLen := len(s.exchangeKey.PublicKey().Bytes())
	if len(ciphertext) < pubLen {
		return nil, fmt.Errorf("ciphertext too short")
	}
	ephemeral, err := ecdh.P256().NewPublicKey(ciphertext[:pubLen])
	if err != nil {
		return nil, fmt.Errorf("malformed ephemeral key: %v", err)
	}
	shared, err := s.exchangeKey.ECDH(ephemeral)
	if err != nil {
		return nil, err
	}
	gcm, err := newGCM(shared)
	if err != nil {
		return nil, err
	}
	rest := ciphertext[pubLen:]
	if len(rest) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, sealed := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}

func newGCM(sharedSecret []byte) (cipher.AEAD, error) {
	key := sha256.Sum256(sharedSecret)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Sign produces an ASN.1 ECDSA signature over the SHA-256 digest of data.
func (s *Service) Sign(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	return ecdsa.SignASN1(rand.Reader, s.signingKey, digest[:])
}

// Verify checks an ASN.1 ECDSA signature against publicKey.
func (s *Service) Verify(data, signature []byte, publicKey *ecdsa.PublicKey) bool {
	if publicKey == nil {
		return false
	}
	digest := sha256.Sum256(data)
	return ecdsa.VerifyASN1(publicKey, digest[:], signature)
}

// GenerateOtp mints a 6-digit numeric one-time password from a CSPRNG.
// rand.Int performs rejection sampling, so the distribution is uniform.
func (s *Service) GenerateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// VerifyOtp compares a candidate against the expected OTP in constant time.
// The comparison cost does not depend on the position of the first mismatch.
func (s *Service) VerifyOtp(candidate, expected string) bool {
	if candidate == "" || expected == "" {
		return false
	}
	return hmac.Equal([]byte(candidate), []byte(expected))
}

// ComputeHash returns the hex-encoded SHA-256 digest of data.
func (s *Service) ComputeHash(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// SecureRandom returns length cryptographically secure random bytes.
func (s *Service) SecureRandom(length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("random length must be positive, got %d", length)
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// PerformKeyExchange derives the shared secret between this service's
// exchange key and a peer's public key.
func (s *Service) PerformKeyExchange(peerPublicKey []byte) ([]byte, error) {
	peer, err := ecdh.P256().NewPublicKey(peerPublicKey)
	if err != nil {
		return nil, fmt.Errorf("malformed peer public key: %v", err)
	}
	return s.exchangeKey.ECDH(peer)
}

// SigningPublicKey exposes the verification half of the signing key.
func (s *Service) SigningPublicKey() *ecdsa.PublicKey {
	return &s.signingKey.PublicKey
}

// ExchangePublicKeyBytes exposes the exchange public key in uncompressed
// point form, for handing to a device during pairing.
func (s *Service) ExchangePublicKeyBytes() []byte {
	return s.exchangeKey.PublicKey().Bytes()
}
