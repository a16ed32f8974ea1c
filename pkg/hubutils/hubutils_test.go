/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package hubutils

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/identity-hub/pkg/restapi/messages"
)

const (
	testBase58encoded128bitString = "Sr7yHjomhn1aeaFnxREfRN"

	not128BitString = "testString"
)

func Test_GenerateRecordID(t *testing.T) {
	id, err := GenerateRecordID()
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.NoError(t, CheckIfBase58Encoded128BitValue(id))
}

func Test_generateRecordID_Failure(t *testing.T) {
	t.Run("Failure while generating random bytes", func(t *testing.T) {
		id, err := generateRecordID(failingGenerateRandomBytesFunc)
		require.EqualError(t, err, errRandomByteGeneration.Error())
		require.Empty(t, id)
	})
}

func TestCheckIfBase58Encoded128BitValue(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		err := CheckIfBase58Encoded128BitValue(testBase58encoded128bitString)
		require.NoError(t, err)
	})
	t.Run("Failure - not base58 encoded", func(t *testing.T) {
		err := CheckIfBase58Encoded128BitValue("")
		require.Equal(t, messages.ErrNotBase58Encoded, err)
	})
	t.Run("Failure - not 128 bit", func(t *testing.T) {
		err := CheckIfBase58Encoded128BitValue(not128BitString)
		require.Equal(t, messages.ErrNot128BitValue, err)
	})
}

func TestValidateActor(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		require.NoError(t, ValidateActor("did:key:z6MkpTHR8VNsBxYAAWHut2Geadd9jSwuBV8xRoAnwWsdvktH"))
		require.NoError(t, ValidateActor("compliance-officer@example.com"))
	})
	t.Run("Failure - blank", func(t *testing.T) {
		require.Equal(t, messages.ErrBlankActor, ValidateActor(""))
	})
	t.Run("Failure - too long", func(t *testing.T) {
		require.Equal(t, messages.ErrActorTooLong, ValidateActor(strings.Repeat("a", 257)))
	})
	t.Run("Failure - non-printable characters", func(t *testing.T) {
		require.Equal(t, messages.ErrActorNotPrintable, ValidateActor("alice\x00"))
	})
}

func TestValidateDID(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		require.NoError(t, ValidateDID("did:key:z6MkpTHR8VNsBxYAAWHut2Geadd9jSwuBV8xRoAnwWsdvktH"))
		require.NoError(t, ValidateDID("did:example:123456789abcdefghi"))
	})
	t.Run("Failure - missing parts", func(t *testing.T) {
		err := ValidateDID("banana")
		require.Error(t, err)
		require.Contains(t, err.Error(), "must have a scheme, a method and an identifier")

		err = ValidateDID("did:key")
		require.Error(t, err)
		require.Contains(t, err.Error(), "must have a scheme, a method and an identifier")
	})
	t.Run("Failure - wrong scheme", func(t *testing.T) {
		err := ValidateDID("key:did:abc")
		require.Error(t, err)
		require.Contains(t, err.Error(), "must use the did scheme")
	})
	t.Run("Failure - blank method", func(t *testing.T) {
		err := ValidateDID("did::abc")
		require.Error(t, err)
		require.Contains(t, err.Error(), "the method can't be blank")
	})
	t.Run("Failure - blank identifier", func(t *testing.T) {
		err := ValidateDID("did:key:")
		require.Error(t, err)
		require.Contains(t, err.Error(), "the identifier can't be blank")
	})
}

var errRandomByteGeneration = errors.New("failingGenerateRandomBytesFunc always fails")

func failingGenerateRandomBytesFunc(_ []byte) (int, error) {
	return -1, errRandomByteGeneration
}
