/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package hubutils

import (
	"crypto/rand"
	"fmt"
	"strings"
	"unicode"

	"github.com/btcsuite/btcutil/base58"

	"github.com/trustbloc/identity-hub/pkg/restapi/messages"
)

const maxActorLength = 256

type generateRandomBytesFunc func([]byte) (int, error)

// GenerateRecordID generates a record ID using a cryptographically secure random number generator.
func GenerateRecordID() (string, error) {
	return generateRecordID(rand.Read)
}

func generateRecordID(generateRandomBytes generateRandomBytesFunc) (string, error) {
	randomBytes := make([]byte, 16)

	_, err := generateRandomBytes(randomBytes)
	if err != nil {
		return "", err
	}

	base58EncodedID := base58.Encode(randomBytes)

	return base58EncodedID, nil
}

// CheckIfBase58Encoded128BitValue ensures that the given string is a base58-encoded 128-bit value,
// which is the format GenerateRecordID produces.
func CheckIfBase58Encoded128BitValue(id string) error {
	decodedBytes := base58.Decode(id)
	if len(decodedBytes) == 0 {
		return messages.ErrNotBase58Encoded
	}

	if len(decodedBytes) != 16 {
		return messages.ErrNot128BitValue
	}

	return nil
}

// ValidateActor ensures that the given actor reference is usable as the accountable
// party of a command or query: non-blank, within the length limit and printable.
func ValidateActor(actor string) error {
	if actor == "" {
		return messages.ErrBlankActor
	}

	if len(actor) > maxActorLength {
		return messages.ErrActorTooLong
	}

	for _, r := range actor {
		if !unicode.IsPrint(r) {
			return messages.ErrActorNotPrintable
		}
	}

	return nil
}

// ValidateDID ensures that the given string has the did:method:identifier shape.
// It does not resolve the DID.
func ValidateDID(did string) error {
	parts := strings.SplitN(did, ":", 3)

	if len(parts) < 3 {
		return fmt.Errorf(`"%s" is not a valid DID: it must have a scheme, a method and an identifier, `+
			`separated by colons`, did)
	}

	if parts[0] != "did" {
		return fmt.Errorf(`"%s" is not a valid DID: it must use the did scheme`, did)
	}

	if parts[1] == "" {
		return fmt.Errorf(`"%s" is not a valid DID: the method can't be blank`, did)
	}

	if parts[2] == "" {
		return fmt.Errorf(`"%s" is not a valid DID: the identifier can't be blank`, did)
	}

	return nil
}
