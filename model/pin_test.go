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

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPin(t *testing.T) {
	pin, err := NewPin("445566")
	assert.NoError(t, err)
	assert.Len(t, pin.Salt(), pinSaltSize)
	assert.Len(t, pin.Hash(), pinKeySize)
}

func TestNewPinRejectsMalformedInput(t *testing.T) {
	for _, candidate := range []string{"", "12345", "1234567", "12a456", "12 456"} {
		_, err := NewPin(candidate)
		assert.Error(t, err, "expected rejection of %q", candidate)
	}
}

func TestNewPinRejectsWeakPins(t *testing.T) {
	for _, candidate := range []string{"123456", "654321", "000000", "777777", "234567", "987654", "121212"} {
		_, err := NewPin(candidate)
		assert.Error(t, err, "expected rejection of weak pin %q", candidate)
	}
}

func TestPinVerify(t *testing.T) {
	pin, err := NewPin("445566")
	assert.NoError(t, err)

	assert.True(t, pin.Verify("445566"))
	assert.False(t, pin.Verify("445567"))
	assert.False(t, pin.Verify(""))
	assert.False(t, pin.Verify("44556"))
	assert.False(t, pin.Verify("44556a"))
}

func TestPinSaltIsUniquePerPin(t *testing.T) {
	a, err := NewPin("445566")
	assert.NoError(t, err)
	b, err := NewPin("445566")
	assert.NoError(t, err)

	assert.NotEqual(t, a.Salt(), b.Salt())
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestReconstructPin(t *testing.T) {
	original, err := NewPin("445566")
	assert.NoError(t, err)

	restored, err := ReconstructPin(original.Hash(), original.Salt())
	assert.NoError(t, err)
	assert.True(t, restored.Verify("445566"))
	assert.False(t, restored.Verify("111222"))

	_, err = ReconstructPin([]byte("short"), original.Salt())
	assert.Error(t, err)
	_, err = ReconstructPin(original.Hash(), []byte("short"))
	assert.Error(t, err)
}
