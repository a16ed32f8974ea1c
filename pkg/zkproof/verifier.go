/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkproof

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcutil/base58"

	"github.com/trustbloc/identity-hub/pkg/cryptoservice"
)

// Proof protocol and structural limits for snarkjs-shaped Groth16 material.
const (
	ProofProtocolGroth16 = "groth16"

	minVerificationKeyLength = 10
	minProofDataLength       = 20
	maxPublicSignals         = 10
)

// ProofVerifier checks a zero-knowledge proof against a verification key and
// the proof's public signals. Implementations must be deterministic and free
// of side effects: the engine calls them any number of times for the same
// stored credential.
type ProofVerifier interface {
	VerifyProof(verificationKey string, publicSignals []string, proofData string) (bool, error)
}

// DigestVerifier is the built-in ProofVerifier. Proof generation happens in an
// off-process prover toolchain; this verifier stands in for the pairing check
// of a real SNARK backend by requiring the prover to embed
// ProofBinding(verificationKey, publicSignals) under the "binding" key of the
// proof document. A proof generated for a different circuit or different
// signals cannot carry the right binding. Deployments with a full Groth16
// stack swap this out through WithVerifier.
type DigestVerifier struct{}

// VerifyProof reports whether proofData is structurally sound and bound to the
// given verification key and public signals.
func (DigestVerifier) VerifyProof(verificationKey string, publicSignals []string, proofData string) (bool, error) {
	if err := ValidateVerificationKey(verificationKey); err != nil {
		return false, err
	}

	if err := ValidateProofData(proofData); err != nil {
		return false, err
	}

	if err := ValidatePublicSignals(publicSignals); err != nil {
		return false, err
	}

	var document struct {
		Binding string `json:"binding"`
	}

	if err := json.Unmarshal([]byte(proofData), &document); err != nil {
		return false, fmt.Errorf("proof data is not valid JSON: %w", err)
	}

	if document.Binding == "" {
		return false, nil
	}

	return document.Binding == ProofBinding(verificationKey, publicSignals), nil
}

// ProofBinding computes the digest binding a proof to its verification key and
// public signals: base58(SHA-256(verificationKey ‖ canonical publicSignals)).
// Prover toolchains embed it in the proofs they generate.
func ProofBinding(verificationKey string, publicSignals []string) string {
	canonicalSignals, _ := json.Marshal(publicSignals) //nolint: errcheck

	return base58.Encode(cryptoservice.HashSHA256([]byte(verificationKey), canonicalSignals))
}

// ValidateVerificationKey checks the structural shape of a verification key.
func ValidateVerificationKey(verificationKey string) error {
	if verificationKey == "" {
		return errors.New("verification key cannot be empty")
	}

	if len(verificationKey) < minVerificationKeyLength {
		return fmt.Errorf("verification key too short: %d characters, need at least %d",
			len(verificationKey), minVerificationKeyLength)
	}

	return nil
}

// ValidateProofData checks that proofData looks like a snarkjs Groth16 proof:
// a JSON document carrying the pi_a, pi_b and pi_c components.
func ValidateProofData(proofData string) error {
	if proofData == "" {
		return errors.New("proof cannot be empty")
	}

	if len(proofData) < minProofDataLength {
		return fmt.Errorf("proof too short: %d characters, need at least %d", len(proofData), minProofDataLength)
	}

	if !strings.HasPrefix(proofData, "{") || !strings.HasSuffix(proofData, "}") {
		return errors.New("proof must be a JSON document")
	}

	for _, component := range []string{"pi_a", "pi_b", "pi_c"} {
		if !strings.Contains(proofData, component) {
			return fmt.Errorf("proof is missing the Groth16 %s component", component)
		}
	}

	return nil
}

// bn254ScalarField is the order of the BN254 scalar field. snarkjs emits
// public signals as decimal field elements, so they run up to 77 digits.
var bn254ScalarField, _ = new(big.Int).SetString(
	"21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)

// ValidatePublicSignals checks that every public signal is a decimal field
// element or a 0x-prefixed hex value and that the count is within bounds.
func ValidatePublicSignals(publicSignals []string) error {
	if len(publicSignals) == 0 {
		return errors.New("at least one public signal is required")
	}

	if len(publicSignals) > maxPublicSignals {
		return fmt.Errorf("at most %d public signals are supported, got %d", maxPublicSignals, len(publicSignals))
	}

	for _, signal := range publicSignals {
		if value, ok := new(big.Int).SetString(signal, 10); ok {
			if value.Sign() < 0 || value.Cmp(bn254ScalarField) >= 0 {
				return fmt.Errorf("public signal %q is outside the scalar field", signal)
			}

			continue
		}

		if hexDigits := strings.TrimPrefix(signal, "0x"); hexDigits != signal {
			if _, ok := new(big.Int).SetString(hexDigits, 16); ok {
				continue
			}
		}

		return fmt.Errorf("public signal %q is neither a decimal nor a 0x-prefixed hex value", signal)
	}

	return nil
}
