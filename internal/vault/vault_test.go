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
	"crypto/ecdh"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustECDHPublicKey(t *testing.T, b []byte) *ecdh.PublicKey {
	t.Helper()
	pub, err := ecdh.P256().NewPublicKey(b)
	require.NoError(t, err)
	return pub
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService()
	require.NoError(t, err)
	return s
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	s := newTestService(t)
	plaintext := []byte("withdrawal confirmation payload")

	ciphertext, err := s.Encrypt(plaintext, s.ExchangePublicKeyBytes())
	assert.NoError(t, err)
	assert.NotContains(t, string(ciphertext), string(plaintext))

	decrypted, err := s.Decrypt(ciphertext)
	assert.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptProducesFreshCiphertext(t *testing.T) {
	s := newTestService(t)
	plaintext := []byte("same payload")

	a, err := s.Encrypt(plaintext, s.ExchangePublicKeyBytes())
	assert.NoError(t, err)
	b, err := s.Encrypt(plaintext, s.ExchangePublicKeyBytes())
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	s := newTestService(t)

	ciphertext, err := s.Encrypt([]byte("payload"), s.ExchangePublicKeyBytes())
	assert.NoError(t, err)

	ciphertext[len(ciphertext)-1] ^= 0xff
	_, err = s.Decrypt(ciphertext)
	assert.Error(t, err)

	_, err = s.Decrypt([]byte("too short"))
	assert.Error(t, err)
}

func TestSignVerify(t *testing.T) {
	s := newTestService(t)
	data := []byte("transaction receipt")

	signature, err := s.Sign(data)
	assert.NoError(t, err)
	assert.True(t, s.Verify(data, signature, s.SigningPublicKey()))
	assert.False(t, s.Verify([]byte("other data"), signature, s.SigningPublicKey()))
	assert.False(t, s.Verify(data, signature, nil))

	other := newTestService(t)
	assert.False(t, s.Verify(data, signature, other.SigningPublicKey()))
}

func TestGenerateOtp(t *testing.T) {
	s := newTestService(t)
	format := regexp.MustCompile(`^\d{6}$`)

	for i := 0; i < 50; i++ {
		otp, err := s.GenerateOtp()
		assert.NoError(t, err)
		assert.Regexp(t, format, otp)
	}
}

func TestVerifyOtp(t *testing.T) {
	s := newTestService(t)

	assert.True(t, s.VerifyOtp("123456", "123456"))
	assert.False(t, s.VerifyOtp("123457", "123456"))
	assert.False(t, s.VerifyOtp("", "123456"))
	assert.False(t, s.VerifyOtp("123456", ""))
	assert.False(t, s.VerifyOtp("", ""))
}

func TestComputeHash(t *testing.T) {
	s := newTestService(t)

	a := s.ComputeHash([]byte("acc_1|200.00|atm_1|dev_1|1700000000"))
	b := s.ComputeHash([]byte("acc_1|200.00|atm_1|dev_1|1700000000"))
	c := s.ComputeHash([]byte("acc_1|200.01|atm_1|dev_1|1700000000"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), a)
}

func TestSecureRandom(t *testing.T) {
	s := newTestService(t)

	a, err := s.SecureRandom(32)
	assert.NoError(t, err)
	assert.Len(t, a, 32)

	b, err := s.SecureRandom(32)
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)

	_, err = s.SecureRandom(0)
	assert.Error(t, err)
	_, err = s.SecureRandom(-5)
	assert.Error(t, err)
}

func TestPerformKeyExchange(t *testing.T) {
	server := newTestService(t)
	device, err := server.GenerateKeyPair()
	require.NoError(t, err)

	serverShared, err := server.PerformKeyExchange(device.PublicKey().Bytes())
	assert.NoError(t, err)

	deviceSide, err := device.ECDH(mustECDHPublicKey(t, server.ExchangePublicKeyBytes()))
	assert.NoError(t, err)
	assert.Equal(t, serverShared, deviceSide)

	_, err = server.PerformKeyExchange([]byte("not a key"))
	assert.Error(t, err)
}
