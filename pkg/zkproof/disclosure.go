/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkproof

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/hyperledger/aries-framework-go/pkg/vdr/fingerprint"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	jose "github.com/square/go-jose"

	"github.com/trustbloc/identity-hub/pkg/cryptoservice"
	"github.com/trustbloc/identity-hub/pkg/hubprovider"
	"github.com/trustbloc/identity-hub/pkg/huberrors"
)

// Disclosure is the payload of a selective disclosure proof. Every public
// input of the source credential appears exactly once: either in Disclosed
// with its value, or in Withheld with a digest binding the hidden value to
// the field name.
type Disclosure struct {
	CredentialID string                 `json:"credentialId"`
	CircuitID    string                 `json:"circuitId"`
	Holder       string                 `json:"holder"`
	Disclosed    map[string]interface{} `json:"disclosed"`
	Withheld     map[string]string      `json:"withheld"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// CreateSelectiveDisclosureProof builds a disclosure over the credential's
// public inputs: fields marked true in disclosureMap are revealed, all
// others are replaced by digests. It returns the disclosure alongside its
// compact JWS serialization, EdDSA-signed with the hub's disclosure key and
// naming that key's did:key verification method in the JWS key ID.
func (e *Engine) CreateSelectiveDisclosureProof(zkCredentialID string, disclosureMap map[string]bool,
	now time.Time) (*Disclosure, string, error) {
	const op = "CreateSelectiveDisclosureProof"

	zkCredential, err := e.GetZKCredential(zkCredentialID)
	if err != nil {
		return nil, "", err
	}

	if zkCredential.ExpiresAt != nil && now.After(*zkCredential.ExpiresAt) {
		return nil, "", e.errs.Errf(op, huberrors.CodeCredentialExpired,
			"zero-knowledge credential %s expired at %s", zkCredentialID, zkCredential.ExpiresAt.Format(time.RFC3339))
	}

	for field := range disclosureMap {
		if _, ok := zkCredential.PublicInputs[field]; !ok {
			return nil, "", e.errs.Errf(op, huberrors.CodeInvalidDisclosure,
				"field %q is not among the credential's public inputs", field)
		}
	}

	disclosure := &Disclosure{
		CredentialID: zkCredential.ID,
		CircuitID:    zkCredential.CircuitID,
		Holder:       zkCredential.Holder,
		Disclosed:    map[string]interface{}{},
		Withheld:     map[string]string{},
		CreatedAt:    now,
	}

	for field, value := range zkCredential.PublicInputs {
		if disclosureMap[field] {
			disclosure.Disclosed[field] = value

			continue
		}

		digest, err := withheldFieldDigest(field, value)
		if err != nil {
			return nil, "", e.errs.Wrap(op, huberrors.CodeInternal, err)
		}

		disclosure.Withheld[field] = digest
	}

	serialized, err := e.signDisclosure(disclosure)
	if err != nil {
		return nil, "", e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	return disclosure, serialized, nil
}

// VerifySelectiveDisclosureProof checks a disclosure proof's signature,
// cross-checks its contents against the stored credential, and enforces that
// every schema-required field is either disclosed or digest-bound. It returns
// the verified disclosure so callers can consume the revealed values.
func (e *Engine) VerifySelectiveDisclosureProof(proofJWS string, schema []string, now time.Time) (*Disclosure, error) {
	const op = "VerifySelectiveDisclosureProof"

	jws, err := jose.ParseSigned(proofJWS)
	if err != nil {
		return nil, e.errs.Errf(op, huberrors.CodeInvalidDisclosure,
			"disclosure proof is not a valid JWS: %s", err.Error())
	}

	if len(jws.Signatures) == 0 {
		return nil, e.errs.Errf(op, huberrors.CodeInvalidDisclosure, "disclosure proof carries no signature")
	}

	header := jws.Signatures[0].Header

	if header.Algorithm != string(jose.EdDSA) {
		return nil, e.errs.Errf(op, huberrors.CodeInvalidDisclosure,
			"unexpected disclosure signature algorithm %q", header.Algorithm)
	}

	if header.KeyID == "" {
		return nil, e.errs.Errf(op, huberrors.CodeInvalidDisclosure,
			"disclosure proof does not name its signing key")
	}

	verificationMethod, err := e.disclosureVerificationMethod(false)
	if err != nil {
		return nil, e.errs.Wrap(op, huberrors.CodeInvalidDisclosure, err)
	}

	if header.KeyID != verificationMethod {
		return nil, e.errs.Errf(op, huberrors.CodeInvalidDisclosure,
			"disclosure proof is not signed with this hub's disclosure key")
	}

	publicKey, err := fingerprint.PubKeyFromDIDKey(didKeyOf(verificationMethod))
	if err != nil {
		return nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	payload, err := jws.Verify(ed25519.PublicKey(publicKey))
	if err != nil {
		return nil, e.errs.Errf(op, huberrors.CodeInvalidDisclosure,
			"disclosure signature does not verify: %s", err.Error())
	}

	disclosure := &Disclosure{}
	if err := json.Unmarshal(payload, disclosure); err != nil {
		return nil, e.errs.Errf(op, huberrors.CodeInvalidDisclosure,
			"disclosure payload is not valid JSON: %s", err.Error())
	}

	zkCredential, err := e.GetZKCredential(disclosure.CredentialID)
	if err != nil {
		return nil, err
	}

	if zkCredential.ExpiresAt != nil && now.After(*zkCredential.ExpiresAt) {
		return nil, e.errs.Errf(op, huberrors.CodeCredentialExpired,
			"zero-knowledge credential %s expired at %s",
			disclosure.CredentialID, zkCredential.ExpiresAt.Format(time.RFC3339))
	}

	if disclosure.Holder != zkCredential.Holder || disclosure.CircuitID != zkCredential.CircuitID {
		return nil, e.errs.Errf(op, huberrors.CodeInvalidDisclosure,
			"disclosure does not match the stored credential")
	}

	if err := e.checkDisclosureAgainstCredential(disclosure, zkCredential); err != nil {
		return nil, err
	}

	for _, field := range schema {
		_, disclosed := disclosure.Disclosed[field]
		_, withheld := disclosure.Withheld[field]

		if !disclosed && !withheld {
			return nil, e.errs.Errf(op, huberrors.CodeInvalidPublicInputs,
				"field %q required by the schema is neither disclosed nor provably withheld", field)
		}
	}

	return disclosure, nil
}

func (e *Engine) checkDisclosureAgainstCredential(disclosure *Disclosure, zkCredential *ZKCredential) error {
	const op = "VerifySelectiveDisclosureProof"

	for field, value := range disclosure.Disclosed {
		stored, ok := zkCredential.PublicInputs[field]
		if !ok || !canonicallyEqual(value, stored) {
			return e.errs.Errf(op, huberrors.CodeInvalidDisclosure,
				"disclosed value for field %q does not match the credential", field)
		}
	}

	for field, digest := range disclosure.Withheld {
		stored, ok := zkCredential.PublicInputs[field]
		if !ok {
			return e.errs.Errf(op, huberrors.CodeInvalidDisclosure,
				"withheld field %q is not among the credential's public inputs", field)
		}

		expected, err := withheldFieldDigest(field, stored)
		if err != nil {
			return e.errs.Wrap(op, huberrors.CodeInternal, err)
		}

		if digest != expected {
			return e.errs.Errf(op, huberrors.CodeInvalidDisclosure,
				"withheld digest for field %q does not match the credential", field)
		}
	}

	return nil
}

// signDisclosure signs the disclosure payload with the hub's disclosure key,
// so verifiers can anchor trust in a single resolvable did:key rather than a
// key minted per envelope.
func (e *Engine) signDisclosure(disclosure *Disclosure) (string, error) {
	payload, err := json.Marshal(disclosure)
	if err != nil {
		return "", err
	}

	verificationMethod, err := e.disclosureVerificationMethod(true)
	if err != nil {
		return "", err
	}

	protected, err := json.Marshal(map[string]string{"alg": string(jose.EdDSA), "kid": verificationMethod})
	if err != nil {
		return "", err
	}

	signingInput := base64.RawURLEncoding.EncodeToString(protected) + "." +
		base64.RawURLEncoding.EncodeToString(payload)

	signature, err := e.signer.Sign(verificationMethod, []byte(signingInput))
	if err != nil {
		return "", err
	}

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}

// disclosureVerificationMethod returns the verification method of the hub's
// disclosure key, loading it from the store or, when mint is set, creating
// and persisting it on first use.
func (e *Engine) disclosureVerificationMethod(mint bool) (string, error) {
	e.signingMutex.Lock()
	defer e.signingMutex.Unlock()

	if e.disclosureVM != "" {
		return e.disclosureVM, nil
	}

	if e.signer == nil {
		return "", errors.New("no disclosure signer is configured")
	}

	stored, err := e.store.Get(hubprovider.DisclosureSigningKeyKey())
	if err == nil {
		e.disclosureVM = string(stored)

		return e.disclosureVM, nil
	}

	if !errors.Is(err, storage.ErrDataNotFound) {
		return "", err
	}

	if !mint {
		return "", errors.New("this hub has not signed any disclosures")
	}

	_, verificationMethod, err := e.signer.NewDIDKey()
	if err != nil {
		return "", err
	}

	if err := e.store.Put(hubprovider.DisclosureSigningKeyKey(), []byte(verificationMethod)); err != nil {
		return "", err
	}

	e.disclosureVM = verificationMethod

	return verificationMethod, nil
}

func didKeyOf(verificationMethod string) string {
	if idx := strings.Index(verificationMethod, "#"); idx >= 0 {
		return verificationMethod[:idx]
	}

	return verificationMethod
}

// withheldFieldDigest binds a hidden value to its field name:
// base58(SHA-256(fieldName ‖ canonical JSON of the value)).
func withheldFieldDigest(fieldName string, value interface{}) (string, error) {
	canonical, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	return base58.Encode(cryptoservice.HashSHA256([]byte(fieldName), canonical)), nil
}

func canonicallyEqual(a, b interface{}) bool {
	aBytes, err := json.Marshal(a)
	if err != nil {
		return false
	}

	bBytes, err := json.Marshal(b)
	if err != nil {
		return false
	}

	return bytes.Equal(aBytes, bBytes)
}
