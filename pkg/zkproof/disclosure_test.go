/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkproof

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hyperledger/aries-framework-go/pkg/vdr/fingerprint"
	jose "github.com/square/go-jose"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/identity-hub/pkg/hubprovider"
	"github.com/trustbloc/identity-hub/pkg/huberrors"
)

// testSigner stands in for the KMS-backed crypto service: it mints real
// ed25519 did:key pairs and keeps the private halves in memory.
type testSigner struct {
	keys map[string]ed25519.PrivateKey
}

func newTestSigner() *testSigner {
	return &testSigner{keys: map[string]ed25519.PrivateKey{}}
}

func (s *testSigner) NewDIDKey() (string, string, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", err
	}

	didKey, verificationMethod := fingerprint.CreateDIDKey(publicKey)

	s.keys[verificationMethod] = privateKey

	return didKey, verificationMethod, nil
}

func (s *testSigner) Sign(verificationMethod string, data []byte) ([]byte, error) {
	privateKey, ok := s.keys[verificationMethod]
	if !ok {
		return nil, fmt.Errorf("no key for verification method %s", verificationMethod)
	}

	return ed25519.Sign(privateKey, data), nil
}

func TestEngine_CreateSelectiveDisclosureProof(t *testing.T) {
	now := time.Now().UTC().Round(time.Second)

	t.Run("success", func(t *testing.T) {
		engine, store := newTestEngine(t, nil)
		registerTestCircuit(t, engine, store, testCircuitID, now)
		zkCredential := issueTestZKCredential(t, engine, store, testIssueRequest(), now)

		disclosure, proofJWS, err := engine.CreateSelectiveDisclosureProof(zkCredential.ID,
			map[string]bool{"minimumAge": true}, now)
		require.NoError(t, err)
		require.Equal(t, zkCredential.ID, disclosure.CredentialID)
		require.Equal(t, testCircuitID, disclosure.CircuitID)
		require.Equal(t, testHolderDID, disclosure.Holder)
		require.True(t, now.Equal(disclosure.CreatedAt))

		require.Len(t, disclosure.Disclosed, 1)
		require.Equal(t, float64(18), disclosure.Disclosed["minimumAge"])

		require.Len(t, disclosure.Withheld, 1)
		require.NotEmpty(t, disclosure.Withheld["currentYear"])

		require.Len(t, strings.Split(proofJWS, "."), 3)
	})
	t.Run("fields not marked for disclosure are withheld", func(t *testing.T) {
		engine, store := newTestEngine(t, nil)
		registerTestCircuit(t, engine, store, testCircuitID, now)
		zkCredential := issueTestZKCredential(t, engine, store, testIssueRequest(), now)

		disclosure, _, err := engine.CreateSelectiveDisclosureProof(zkCredential.ID,
			map[string]bool{"minimumAge": true, "currentYear": false}, now)
		require.NoError(t, err)
		require.Len(t, disclosure.Disclosed, 1)
		require.Len(t, disclosure.Withheld, 1)
	})
	t.Run("unknown disclosure field", func(t *testing.T) {
		engine, store := newTestEngine(t, nil)
		registerTestCircuit(t, engine, store, testCircuitID, now)
		zkCredential := issueTestZKCredential(t, engine, store, testIssueRequest(), now)

		_, _, err := engine.CreateSelectiveDisclosureProof(zkCredential.ID,
			map[string]bool{"salt": true}, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidDisclosure))
		require.Contains(t, err.Error(), "not among the credential's public inputs")
	})
	t.Run("unknown credential", func(t *testing.T) {
		engine, _ := newTestEngine(t, nil)

		_, _, err := engine.CreateSelectiveDisclosureProof("urn:uuid:unknown", nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeZKCredentialNotFound))
	})
	t.Run("expired credential", func(t *testing.T) {
		engine, store := newTestEngine(t, nil)
		registerTestCircuit(t, engine, store, testCircuitID, now)

		expiry := now.Add(time.Hour)
		request := testIssueRequest()
		request.ExpiresAt = &expiry

		zkCredential := issueTestZKCredential(t, engine, store, request, now)

		_, _, err := engine.CreateSelectiveDisclosureProof(zkCredential.ID,
			map[string]bool{"minimumAge": true}, now.Add(2*time.Hour))
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeCredentialExpired))
	})
}

func TestEngine_VerifySelectiveDisclosureProof(t *testing.T) {
	now := time.Now().UTC().Round(time.Second)

	newDisclosedCredential := func(t *testing.T) (*Engine, *hubprovider.Store, *ZKCredential, string) {
		t.Helper()

		engine, store := newTestEngine(t, nil)
		registerTestCircuit(t, engine, store, testCircuitID, now)
		zkCredential := issueTestZKCredential(t, engine, store, testIssueRequest(), now)

		_, proofJWS, err := engine.CreateSelectiveDisclosureProof(zkCredential.ID,
			map[string]bool{"minimumAge": true}, now)
		require.NoError(t, err)

		return engine, store, zkCredential, proofJWS
	}

	t.Run("roundtrip", func(t *testing.T) {
		engine, _, zkCredential, proofJWS := newDisclosedCredential(t)

		disclosure, err := engine.VerifySelectiveDisclosureProof(proofJWS,
			[]string{"minimumAge", "currentYear"}, now)
		require.NoError(t, err)
		require.Equal(t, zkCredential.ID, disclosure.CredentialID)
		require.Equal(t, float64(18), disclosure.Disclosed["minimumAge"])
		require.NotEmpty(t, disclosure.Withheld["currentYear"])
		require.True(t, now.Equal(disclosure.CreatedAt))
	})
	t.Run("schema field neither disclosed nor withheld", func(t *testing.T) {
		engine, _, _, proofJWS := newDisclosedCredential(t)

		_, err := engine.VerifySelectiveDisclosureProof(proofJWS, []string{"minimumAge", "salt"}, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidPublicInputs))
		require.Contains(t, err.Error(), "neither disclosed nor provably withheld")
	})
	t.Run("not a JWS", func(t *testing.T) {
		engine, _ := newTestEngine(t, nil)

		_, err := engine.VerifySelectiveDisclosureProof("not-a-jws", nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidDisclosure))
	})
	t.Run("tampered payload does not verify", func(t *testing.T) {
		engine, _, _, proofJWS := newDisclosedCredential(t)

		segments := strings.Split(proofJWS, ".")
		require.Len(t, segments, 3)

		payload, err := base64.RawURLEncoding.DecodeString(segments[1])
		require.NoError(t, err)

		tampered := map[string]interface{}{}
		require.NoError(t, json.Unmarshal(payload, &tampered))
		tampered["holder"] = "did:example:mallory"

		tamperedPayload, err := json.Marshal(tampered)
		require.NoError(t, err)

		segments[1] = base64.RawURLEncoding.EncodeToString(tamperedPayload)

		_, err = engine.VerifySelectiveDisclosureProof(strings.Join(segments, "."), nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidDisclosure))
		require.Contains(t, err.Error(), "does not verify")
	})
	t.Run("proof that does not name a signing key is rejected", func(t *testing.T) {
		engine, _ := newTestEngine(t, nil)

		_, privateKey, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: privateKey},
			&jose.SignerOptions{})
		require.NoError(t, err)

		jws, err := signer.Sign([]byte(`{}`))
		require.NoError(t, err)

		serialized, err := jws.CompactSerialize()
		require.NoError(t, err)

		_, err = engine.VerifySelectiveDisclosureProof(serialized, nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidDisclosure))
		require.Contains(t, err.Error(), "does not name its signing key")
	})
	t.Run("every envelope is signed with the same hub key", func(t *testing.T) {
		engine, store := newTestEngine(t, nil)
		registerTestCircuit(t, engine, store, testCircuitID, now)
		zkCredential := issueTestZKCredential(t, engine, store, testIssueRequest(), now)

		_, firstJWS, err := engine.CreateSelectiveDisclosureProof(zkCredential.ID,
			map[string]bool{"minimumAge": true}, now)
		require.NoError(t, err)

		_, secondJWS, err := engine.CreateSelectiveDisclosureProof(zkCredential.ID,
			map[string]bool{"currentYear": true}, now)
		require.NoError(t, err)

		firstKid := envelopeKeyID(t, firstJWS)
		require.NotEmpty(t, firstKid)
		require.True(t, strings.HasPrefix(firstKid, "did:key:"))
		require.Equal(t, firstKid, envelopeKeyID(t, secondJWS))
	})
	t.Run("proof signed with a key other than the hub's is rejected", func(t *testing.T) {
		engine, _, _, proofJWS := newDisclosedCredential(t)

		_, attackerKey, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		forged := forgedEnvelope(t, envelopeKeyID(t, proofJWS), attackerKey, []byte(`{}`))

		_, err = engine.VerifySelectiveDisclosureProof(forged, nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidDisclosure))
		require.Contains(t, err.Error(), "does not verify")
	})
	t.Run("proof naming a foreign key is rejected", func(t *testing.T) {
		engine, _, _, _ := newDisclosedCredential(t)

		attackerPub, attackerKey, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		_, attackerVM := fingerprint.CreateDIDKey(attackerPub)

		forged := forgedEnvelope(t, attackerVM, attackerKey, []byte(`{}`))

		_, err = engine.VerifySelectiveDisclosureProof(forged, nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidDisclosure))
		require.Contains(t, err.Error(), "not signed with this hub's disclosure key")
	})
	t.Run("a hub that never signed a disclosure verifies nothing", func(t *testing.T) {
		engine, _ := newTestEngine(t, nil)

		_, attackerKey, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		forged := forgedEnvelope(t, "did:key:z6MkForeign#z6MkForeign", attackerKey, []byte(`{}`))

		_, err = engine.VerifySelectiveDisclosureProof(forged, nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidDisclosure))
		require.Contains(t, err.Error(), "has not signed any disclosures")
	})
	t.Run("engine without a signer cannot create disclosures", func(t *testing.T) {
		store := newTestStore(t)
		engine := NewEngine(store, &issuerDirectory{}, testAdminDID)

		registerTestCircuit(t, engine, store, testCircuitID, now)
		zkCredential := issueTestZKCredential(t, engine, store, testIssueRequest(), now)

		_, _, err := engine.CreateSelectiveDisclosureProof(zkCredential.ID,
			map[string]bool{"minimumAge": true}, now)
		require.Error(t, err)
		require.Contains(t, err.Error(), "no disclosure signer is configured")
	})
	t.Run("non-EdDSA proof is rejected", func(t *testing.T) {
		engine, _ := newTestEngine(t, nil)

		ecdsaKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)

		signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.ES256, Key: ecdsaKey},
			&jose.SignerOptions{EmbedJWK: true})
		require.NoError(t, err)

		jws, err := signer.Sign([]byte(`{}`))
		require.NoError(t, err)

		serialized, err := jws.CompactSerialize()
		require.NoError(t, err)

		_, err = engine.VerifySelectiveDisclosureProof(serialized, nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidDisclosure))
		require.Contains(t, err.Error(), "unexpected disclosure signature algorithm")
	})
	t.Run("credential deleted after disclosure", func(t *testing.T) {
		engine, store, zkCredential, proofJWS := newDisclosedCredential(t)

		require.NoError(t, store.Delete(hubprovider.ZKCredentialKey(zkCredential.ID)))

		_, err := engine.VerifySelectiveDisclosureProof(proofJWS, nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeZKCredentialNotFound))
	})
	t.Run("credential expired since disclosure", func(t *testing.T) {
		engine, store := newTestEngine(t, nil)
		registerTestCircuit(t, engine, store, testCircuitID, now)

		expiry := now.Add(time.Hour)
		request := testIssueRequest()
		request.ExpiresAt = &expiry

		zkCredential := issueTestZKCredential(t, engine, store, request, now)

		_, proofJWS, err := engine.CreateSelectiveDisclosureProof(zkCredential.ID,
			map[string]bool{"minimumAge": true}, now)
		require.NoError(t, err)

		_, err = engine.VerifySelectiveDisclosureProof(proofJWS, nil, now.Add(2*time.Hour))
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeCredentialExpired))
	})
	t.Run("disclosed value no longer matches the credential", func(t *testing.T) {
		engine, store, zkCredential, proofJWS := newDisclosedCredential(t)

		zkCredential.PublicInputs["minimumAge"] = 21
		overwriteZKCredential(t, store, zkCredential)

		_, err := engine.VerifySelectiveDisclosureProof(proofJWS, nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidDisclosure))
		require.Contains(t, err.Error(), "disclosed value")
	})
	t.Run("withheld digest no longer matches the credential", func(t *testing.T) {
		engine, store, zkCredential, proofJWS := newDisclosedCredential(t)

		zkCredential.PublicInputs["currentYear"] = 2025
		overwriteZKCredential(t, store, zkCredential)

		_, err := engine.VerifySelectiveDisclosureProof(proofJWS, nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidDisclosure))
		require.Contains(t, err.Error(), "withheld digest")
	})
	t.Run("holder mismatch with the stored credential", func(t *testing.T) {
		engine, store, zkCredential, proofJWS := newDisclosedCredential(t)

		zkCredential.Holder = "did:example:mallory"
		overwriteZKCredential(t, store, zkCredential)

		_, err := engine.VerifySelectiveDisclosureProof(proofJWS, nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidDisclosure))
		require.Contains(t, err.Error(), "does not match the stored credential")
	})
}

func envelopeKeyID(t *testing.T, proofJWS string) string {
	t.Helper()

	jws, err := jose.ParseSigned(proofJWS)
	require.NoError(t, err)
	require.NotEmpty(t, jws.Signatures)

	return jws.Signatures[0].Header.KeyID
}

// forgedEnvelope builds a compact EdDSA JWS naming kid but signed with the
// given key, the way an attacker without the hub's KMS would have to.
func forgedEnvelope(t *testing.T, kid string, key ed25519.PrivateKey, payload []byte) string {
	t.Helper()

	protected, err := json.Marshal(map[string]string{"alg": string(jose.EdDSA), "kid": kid})
	require.NoError(t, err)

	signingInput := base64.RawURLEncoding.EncodeToString(protected) + "." +
		base64.RawURLEncoding.EncodeToString(payload)

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(ed25519.Sign(key, []byte(signingInput)))
}

func overwriteZKCredential(t *testing.T, store *hubprovider.Store, zkCredential *ZKCredential) {
	t.Helper()

	credentialBytes, err := json.Marshal(zkCredential)
	require.NoError(t, err)
	require.NoError(t, store.Put(hubprovider.ZKCredentialKey(zkCredential.ID), credentialBytes))
}
