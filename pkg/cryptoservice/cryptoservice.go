/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package cryptoservice wraps the aries KMS and crypto primitives behind the few
// operations the identity hub needs: minting did:key identifiers, signing
// credential proofs, and verifying signatures against the public key a did:key
// verification method embeds.
package cryptoservice

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"strings"

	cryptoapi "github.com/hyperledger/aries-framework-go/pkg/crypto"
	"github.com/hyperledger/aries-framework-go/pkg/doc/signature/suite"
	"github.com/hyperledger/aries-framework-go/pkg/doc/signature/suite/ed25519signature2018"
	"github.com/hyperledger/aries-framework-go/pkg/doc/signature/verifier"
	"github.com/hyperledger/aries-framework-go/pkg/kms"
	"github.com/hyperledger/aries-framework-go/pkg/vdr/fingerprint"
	ariesstorage "github.com/hyperledger/aries-framework-go/spi/storage"
)

// SignatureType is the proof type produced by Sign.
const SignatureType = ed25519signature2018.SignatureType

const (
	storeName = "identityhub-keys"

	ed25519VerificationKey2018 = "Ed25519VerificationKey2018"
)

// Service provides signing and verification for identity hub proofs.
type Service struct {
	keyManager  kms.KeyManager
	crypto      cryptoapi.Crypto
	store       ariesstorage.Store
	verifySuite *ed25519signature2018.Suite
}

// New returns a crypto service backed by the given KMS and crypto implementations.
// Verification-method-to-key-ID mappings are kept in a store opened from storeProv,
// so keys minted by NewDIDKey remain usable across restarts alongside the KMS's
// own key store.
func New(keyManager kms.KeyManager, crypto cryptoapi.Crypto, storeProv ariesstorage.Provider) (*Service, error) {
	store, err := storeProv.OpenStore(storeName)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", storeName, err)
	}

	return &Service{
		keyManager:  keyManager,
		crypto:      crypto,
		store:       store,
		verifySuite: ed25519signature2018.New(suite.WithVerifier(ed25519signature2018.NewPublicKeyVerifier())),
	}, nil
}

// NewDIDKey mints a fresh ED25519 key in the KMS and returns its did:key DID
// along with the verification method URL that Sign accepts.
func (s *Service) NewDIDKey() (string, string, error) {
	keyID, pubKeyBytes, err := s.keyManager.CreateAndExportPubKeyBytes(kms.ED25519)
	if err != nil {
		return "", "", fmt.Errorf("failed to create signing key: %w", err)
	}

	didKey, verificationMethod := fingerprint.CreateDIDKey(pubKeyBytes)

	err = s.store.Put(verificationMethod, []byte(keyID))
	if err != nil {
		return "", "", fmt.Errorf("failed to store verification method mapping: %w", err)
	}

	return didKey, verificationMethod, nil
}

// Sign signs data with the KMS key behind the given verification method.
// The verification method must have been returned by NewDIDKey.
func (s *Service) Sign(verificationMethod string, data []byte) ([]byte, error) {
	keyID, err := s.store.Get(verificationMethod)
	if err != nil {
		return nil, fmt.Errorf("no signing key for verification method %s: %w", verificationMethod, err)
	}

	keyHandle, err := s.keyManager.Get(string(keyID))
	if err != nil {
		return nil, fmt.Errorf("failed to get key handle: %w", err)
	}

	signatureBytes, err := s.crypto.Sign(data, keyHandle)
	if err != nil {
		return nil, fmt.Errorf("failed to sign data: %w", err)
	}

	return signatureBytes, nil
}

// Verify checks signatureBytes over data against the Ed25519 public key the
// did:key verification method embeds. No key registry lookup is involved, so
// proofs stay verifiable even for keys this service never minted.
func (s *Service) Verify(verificationMethod string, data, signatureBytes []byte) error {
	didKey := verificationMethod
	if idx := strings.Index(didKey, "#"); idx >= 0 {
		didKey = didKey[:idx]
	}

	pubKeyBytes, err := fingerprint.PubKeyFromDIDKey(didKey)
	if err != nil {
		return fmt.Errorf("failed to extract public key from %s: %w", verificationMethod, err)
	}

	err = s.verifySuite.Verify(&verifier.PublicKey{Type: ed25519VerificationKey2018, Value: pubKeyBytes},
		data, signatureBytes)
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}

	return nil
}

// HashSHA256 returns the SHA-256 digest over the concatenation of the inputs.
func HashSHA256(inputs ...[]byte) []byte {
	var combined []byte

	for _, input := range inputs {
		combined = append(combined, input...)
	}

	digest := sha256.Sum256(combined)

	return digest[:]
}

// RandomBytes returns length cryptographically secure random bytes.
func RandomBytes(length int) ([]byte, error) {
	randomBytes := make([]byte, length)

	_, err := rand.Read(randomBytes)
	if err != nil {
		return nil, err
	}

	return randomBytes, nil
}
