/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/identity-hub/pkg/compliance"
	"github.com/trustbloc/identity-hub/pkg/huberrors"
	"github.com/trustbloc/identity-hub/pkg/permission"
	"github.com/trustbloc/identity-hub/pkg/zkproof"
)

const (
	testIssuerDID      = "did:example:university"
	testCredentialType = "UniversityDegreeCredential"

	testCircuitID       = "age-over-18"
	testCircuitType     = "age_verification"
	testVerificationKey = "vk-groth16-bn254-age-over-18"
)

func TestRegistry_IssuerCommands(t *testing.T) {
	now := time.Now().UTC().Round(time.Second)

	t.Run("hub admin registers an issuer", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		issuer, err := registry.RegisterIssuer(testIssuerDID, "Example University",
			[]string{testCredentialType}, testAdminDID, now)
		require.NoError(t, err)
		require.Equal(t, testIssuerDID, issuer.DID)
		require.True(t, issuer.Active)
		require.True(t, strings.HasPrefix(issuer.VerificationMethod, "did:key:z"))

		stored, err := registry.GetIssuer(testIssuerDID)
		require.NoError(t, err)
		require.Equal(t, []string{testCredentialType}, stored.AuthorizedTypes)

		issuers, err := registry.ListIssuers()
		require.NoError(t, err)
		require.Len(t, issuers, 1)

		trail, err := registry.AuditTrail(testAdminDID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 1)
		require.Equal(t, compliance.ActionRegisterIssuer, trail[0].Action)
		require.Equal(t, testIssuerDID, trail[0].Resource)
		require.Equal(t, 30, trail[0].RiskScore)
		require.Equal(t, "Example University", trail[0].Changes["name"])
	})
	t.Run("only the hub admin registers issuers", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.RegisterIssuer(testIssuerDID, "Example University", nil, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInsufficientPermissions))
	})
	t.Run("blank actor is rejected", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.RegisterIssuer(testIssuerDID, "Example University", nil, "", now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidActor))
	})
	t.Run("deactivation blocks later issuance", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		subject := createTestIdentity(t, registry, testBob, now)

		_, err := registry.RegisterIssuer(testIssuerDID, "Example University",
			[]string{testCredentialType}, testAdminDID, now)
		require.NoError(t, err)

		_, err = registry.IssueCredential(testIssuerDID, subject.DID, []string{testCredentialType},
			map[string]interface{}{"degree": "BSc"}, nil, testIssuerDID, now)
		require.NoError(t, err)

		deactivated, err := registry.DeactivateIssuer(testIssuerDID, testAdminDID, now.Add(time.Minute))
		require.NoError(t, err)
		require.False(t, deactivated.Active)

		_, err = registry.IssueCredential(testIssuerDID, subject.DID, []string{testCredentialType},
			map[string]interface{}{"degree": "MSc"}, nil, testIssuerDID, now.Add(2*time.Minute))
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeUnauthorizedIssuer))

		trail, err := registry.AuditTrail(testAdminDID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 2)
		require.Equal(t, compliance.ActionDeactivateIssuer, trail[1].Action)
		require.Equal(t, 50, trail[1].RiskScore)
	})
	t.Run("deactivating twice records one audit entry", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.RegisterIssuer(testIssuerDID, "Example University", nil, testAdminDID, now)
		require.NoError(t, err)

		_, err = registry.DeactivateIssuer(testIssuerDID, testAdminDID, now)
		require.NoError(t, err)

		_, err = registry.DeactivateIssuer(testIssuerDID, testAdminDID, now.Add(time.Minute))
		require.NoError(t, err)

		trail, err := registry.AuditTrail(testAdminDID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 2)
	})
	t.Run("only the hub admin deactivates issuers", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.RegisterIssuer(testIssuerDID, "Example University", nil, testAdminDID, now)
		require.NoError(t, err)

		_, err = registry.DeactivateIssuer(testIssuerDID, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInsufficientPermissions))
	})
}

func TestRegistry_CredentialCommands(t *testing.T) {
	now := time.Now().UTC().Round(time.Second)

	setup := func(t *testing.T) (*Registry, *UniversalIdentity) {
		t.Helper()

		registry, _ := newTestRegistry(t)
		subject := createTestIdentity(t, registry, testBob, now)

		_, err := registry.RegisterIssuer(testIssuerDID, "Example University",
			[]string{testCredentialType}, testAdminDID, now)
		require.NoError(t, err)

		return registry, subject
	}

	t.Run("issuer issues a credential to a registered identity", func(t *testing.T) {
		registry, subject := setup(t)

		cred, err := registry.IssueCredential(testIssuerDID, subject.DID, []string{testCredentialType},
			map[string]interface{}{"degree": "BSc Computer Science"}, nil, testIssuerDID,
			now.Add(time.Minute))
		require.NoError(t, err)
		require.Equal(t, testIssuerDID, cred.Issuer)
		require.Equal(t, subject.DID, cred.CredentialSubject["id"])
		require.Contains(t, cred.Type, "VerifiableCredential")
		require.Contains(t, cred.Type, testCredentialType)
		require.NotNil(t, cred.Proof)

		require.NoError(t, registry.VerifyCredential(cred.ID, now))

		bySubject, err := registry.QueryCredentials("", subject.DID)
		require.NoError(t, err)
		require.Len(t, bySubject, 1)
		require.Equal(t, cred.ID, bySubject[0].ID)

		trail, err := registry.AuditTrail(subject.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 2)
		require.Equal(t, compliance.ActionIssueCredential, trail[1].Action)
		require.Equal(t, testIssuerDID, trail[1].Actor)
		require.Equal(t, cred.ID, trail[1].Resource)
		require.Equal(t, testCredentialType, trail[1].Changes["credentialType"])
		require.Equal(t, subject.DID, trail[1].Changes["subjectDid"])
	})
	t.Run("hub admin may issue in an issuer's name", func(t *testing.T) {
		registry, subject := setup(t)

		cred, err := registry.IssueCredential(testIssuerDID, subject.DID, []string{testCredentialType},
			map[string]interface{}{"degree": "BSc"}, nil, testAdminDID, now)
		require.NoError(t, err)
		require.Equal(t, testIssuerDID, cred.Issuer)
	})
	t.Run("other actors may not issue in an issuer's name", func(t *testing.T) {
		registry, subject := setup(t)

		_, err := registry.IssueCredential(testIssuerDID, subject.DID, []string{testCredentialType},
			map[string]interface{}{"degree": "BSc"}, nil, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInsufficientPermissions))
	})
	t.Run("subject DID must resolve to a registered identity", func(t *testing.T) {
		registry, _ := setup(t)

		_, err := registry.IssueCredential(testIssuerDID, "did:example:ghost", []string{testCredentialType},
			map[string]interface{}{"degree": "BSc"}, nil, testIssuerDID, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeIdentityNotFound))
	})
	t.Run("deactivated subject identity rejects issuance", func(t *testing.T) {
		registry, subject := setup(t)

		_, err := registry.DeactivateIdentity(subject.ID, testBob, now)
		require.NoError(t, err)

		_, err = registry.IssueCredential(testIssuerDID, subject.DID, []string{testCredentialType},
			map[string]interface{}{"degree": "BSc"}, nil, testIssuerDID, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeIdentityInactive))
	})
	t.Run("issuer must be authorized for the requested type", func(t *testing.T) {
		registry, subject := setup(t)

		_, err := registry.IssueCredential(testIssuerDID, subject.DID, []string{"DriversLicenseCredential"},
			map[string]interface{}{"class": "B"}, nil, testIssuerDID, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeUnauthorizedIssuer))
	})
	t.Run("unregistered issuers are not in the allow-list", func(t *testing.T) {
		registry, subject := setup(t)

		_, err := registry.IssueCredential("did:example:diploma-mill", subject.DID,
			[]string{testCredentialType}, map[string]interface{}{"degree": "PhD"}, nil,
			"did:example:diploma-mill", now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeUnauthorizedIssuer))
	})
	t.Run("revocation wins over expiry", func(t *testing.T) {
		registry, subject := setup(t)

		expiration := now.Add(time.Hour)

		cred, err := registry.IssueCredential(testIssuerDID, subject.DID, []string{testCredentialType},
			map[string]interface{}{"degree": "BSc"}, &expiration, testIssuerDID, now)
		require.NoError(t, err)

		record, err := registry.RevokeCredential(cred.ID, "key compromise", testIssuerDID,
			now.Add(30*time.Minute))
		require.NoError(t, err)
		require.True(t, record.Revoked)
		require.Equal(t, "key compromise", record.Reason)

		revoked, err := registry.IsCredentialRevoked(cred.ID)
		require.NoError(t, err)
		require.True(t, revoked)

		err = registry.VerifyCredential(cred.ID, now.Add(2*time.Hour))
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeCredentialRevoked))

		trail, err := registry.AuditTrail(subject.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 3)
		require.Equal(t, compliance.ActionRevokeCredential, trail[2].Action)
		require.Equal(t, "key compromise", trail[2].Changes["reason"])
	})
	t.Run("expired credential fails verification", func(t *testing.T) {
		registry, subject := setup(t)

		expiration := now.Add(time.Hour)

		cred, err := registry.IssueCredential(testIssuerDID, subject.DID, []string{testCredentialType},
			map[string]interface{}{"degree": "BSc"}, &expiration, testIssuerDID, now)
		require.NoError(t, err)

		require.NoError(t, registry.VerifyCredential(cred.ID, now.Add(30*time.Minute)))

		err = registry.VerifyCredential(cred.ID, now.Add(2*time.Hour))
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeCredentialExpired))
	})
	t.Run("only the issuer or the hub admin may revoke", func(t *testing.T) {
		registry, subject := setup(t)

		cred, err := registry.IssueCredential(testIssuerDID, subject.DID, []string{testCredentialType},
			map[string]interface{}{"degree": "BSc"}, nil, testIssuerDID, now)
		require.NoError(t, err)

		_, err = registry.RevokeCredential(cred.ID, "spite", testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInsufficientPermissions))

		_, err = registry.RevokeCredential(cred.ID, "issuer key rotation", testAdminDID, now)
		require.NoError(t, err)
	})
	t.Run("revoking twice preserves the original record", func(t *testing.T) {
		registry, subject := setup(t)

		cred, err := registry.IssueCredential(testIssuerDID, subject.DID, []string{testCredentialType},
			map[string]interface{}{"degree": "BSc"}, nil, testIssuerDID, now)
		require.NoError(t, err)

		first, err := registry.RevokeCredential(cred.ID, "key compromise", testIssuerDID, now.Add(time.Minute))
		require.NoError(t, err)

		second, err := registry.RevokeCredential(cred.ID, "changed my mind", testIssuerDID,
			now.Add(2*time.Minute))
		require.NoError(t, err)
		require.Equal(t, first.Reason, second.Reason)
		require.True(t, first.RevokedAt.Equal(second.RevokedAt))

		trail, err := registry.AuditTrail(subject.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 3)
	})
}

func TestRegistry_CircuitCommands(t *testing.T) {
	now := time.Now().UTC().Round(time.Second)

	t.Run("hub admin registers a circuit", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		circuit, err := registry.RegisterCircuit(testCircuitID, testCircuitType, "",
			testVerificationKey, testAdminDID, now)
		require.NoError(t, err)
		require.True(t, circuit.Active)
		require.Equal(t, testAdminDID, circuit.RegisteredBy)

		stored, err := registry.GetCircuit(testCircuitID)
		require.NoError(t, err)
		require.Equal(t, testVerificationKey, stored.VerificationKey)

		circuits, err := registry.ListCircuits("", 10)
		require.NoError(t, err)
		require.Len(t, circuits, 1)

		trail, err := registry.AuditTrail(testAdminDID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 1)
		require.Equal(t, compliance.ActionRegisterCircuit, trail[0].Action)
		require.Equal(t, testCircuitID, trail[0].Resource)
		require.Equal(t, 35, trail[0].RiskScore)
		require.Equal(t, testCircuitType, trail[0].Changes["circuitType"])
	})
	t.Run("authorized issuer registers a circuit", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.RegisterIssuer(testIssuerDID, "Example University",
			[]string{testCircuitType}, testAdminDID, now)
		require.NoError(t, err)

		circuit, err := registry.RegisterCircuit(testCircuitID, testCircuitType, "",
			testVerificationKey, testIssuerDID, now)
		require.NoError(t, err)
		require.Equal(t, testIssuerDID, circuit.RegisteredBy)

		trail, err := registry.AuditTrail(testIssuerDID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 1)
		require.Equal(t, compliance.ActionRegisterCircuit, trail[0].Action)
	})
	t.Run("identical re-registration is a no-op", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.RegisterCircuit(testCircuitID, testCircuitType, "",
			testVerificationKey, testAdminDID, now)
		require.NoError(t, err)

		again, err := registry.RegisterCircuit(testCircuitID, testCircuitType, "",
			testVerificationKey, testAdminDID, now.Add(time.Minute))
		require.NoError(t, err)
		require.True(t, now.Equal(again.RegisteredAt))

		trail, err := registry.AuditTrail(testAdminDID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 1)
	})
	t.Run("conflicting re-registration is rejected", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.RegisterCircuit(testCircuitID, testCircuitType, "",
			testVerificationKey, testAdminDID, now)
		require.NoError(t, err)

		_, err = registry.RegisterCircuit(testCircuitID, testCircuitType, "",
			"vk-groth16-bn254-age-over-18-v2", testAdminDID, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeCircuitAlreadyExists))
	})
	t.Run("strangers may not register circuits", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.RegisterCircuit(testCircuitID, testCircuitType, "",
			testVerificationKey, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInsufficientPermissions))
	})
	t.Run("deactivation blocks later issuance", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		holder := createTestIdentity(t, registry, testBob, now)

		_, err := registry.RegisterCircuit(testCircuitID, testCircuitType, "",
			testVerificationKey, testAdminDID, now)
		require.NoError(t, err)

		deactivated, err := registry.DeactivateCircuit(testCircuitID, testAdminDID, now.Add(time.Minute))
		require.NoError(t, err)
		require.False(t, deactivated.Active)

		_, err = registry.IssueZKCredential(testZKRequest(holder.DID, "seed-bob-1"), testBob,
			now.Add(2*time.Minute))
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidCircuit))

		trail, err := registry.AuditTrail(testAdminDID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 2)
		require.Equal(t, compliance.ActionDeactivateCircuit, trail[1].Action)
		require.Equal(t, 45, trail[1].RiskScore)
	})
	t.Run("only the hub admin deactivates circuits", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.RegisterIssuer(testIssuerDID, "Example University",
			[]string{testCircuitType}, testAdminDID, now)
		require.NoError(t, err)

		_, err = registry.RegisterCircuit(testCircuitID, testCircuitType, "",
			testVerificationKey, testIssuerDID, now)
		require.NoError(t, err)

		_, err = registry.DeactivateCircuit(testCircuitID, testIssuerDID, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInsufficientPermissions))
	})
}

func TestRegistry_ZKCredentialCommands(t *testing.T) {
	now := time.Now().UTC().Round(time.Second)

	setup := func(t *testing.T) (*Registry, *UniversalIdentity) {
		t.Helper()

		registry, _ := newTestRegistry(t)
		holder := createTestIdentity(t, registry, testBob, now)

		_, err := registry.RegisterCircuit(testCircuitID, testCircuitType, "",
			testVerificationKey, testAdminDID, now)
		require.NoError(t, err)

		return registry, holder
	}

	t.Run("holder obtains a zero-knowledge credential", func(t *testing.T) {
		registry, holder := setup(t)

		later := now.Add(time.Minute)

		cred, err := registry.IssueZKCredential(testZKRequest(holder.DID, "seed-bob-1"), testBob, later)
		require.NoError(t, err)
		require.Equal(t, holder.DID, cred.Holder)
		require.Equal(t, testCircuitID, cred.CircuitID)
		require.NotEmpty(t, cred.Nullifier)
		require.Equal(t, zkproof.PrivacyLevelBasic, cred.PrivacyParameters.PrivacyLevel)

		loaded, err := registry.GetIdentity(holder.ID)
		require.NoError(t, err)
		require.Equal(t, []string{cred.ID}, loaded.ZKCredentials)
		require.True(t, later.Equal(loaded.UpdatedAt))

		verified, err := registry.VerifyZKProof(cred.ID)
		require.NoError(t, err)
		require.True(t, verified)

		list, err := registry.ListZKCredentials(holder.DID, "", "", 10)
		require.NoError(t, err)
		require.Len(t, list, 1)

		trail, err := registry.AuditTrail(holder.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 2)
		require.Equal(t, compliance.ActionIssueZKCredential, trail[1].Action)
		require.Equal(t, cred.ID, trail[1].Resource)
		require.Equal(t, 50, trail[1].RiskScore)
		require.Equal(t, testCircuitID, trail[1].Changes["circuitId"])
		require.Equal(t, zkproof.PrivacyLevelBasic, trail[1].Changes["privacyLevel"])
	})
	t.Run("a nullifier is spent exactly once", func(t *testing.T) {
		registry, holder := setup(t)

		_, err := registry.IssueZKCredential(testZKRequest(holder.DID, "seed-bob-1"), testBob, now)
		require.NoError(t, err)

		_, err = registry.IssueZKCredential(testZKRequest(holder.DID, "seed-bob-1"), testBob,
			now.Add(time.Minute))
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeNullifierAlreadyUsed))

		loaded, err := registry.GetIdentity(holder.ID)
		require.NoError(t, err)
		require.Len(t, loaded.ZKCredentials, 1)

		trail, err := registry.AuditTrail(holder.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 2)
	})
	t.Run("concurrent submissions spend a nullifier exactly once", func(t *testing.T) {
		registry, holder := setup(t)

		const submissions = 8

		results := make(chan error, submissions)

		var wg sync.WaitGroup

		for i := 0; i < submissions; i++ {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, err := registry.IssueZKCredential(testZKRequest(holder.DID, "seed-race-1"), testBob, now)
				results <- err
			}()
		}

		wg.Wait()
		close(results)

		var issued, rejected int

		for err := range results {
			if err == nil {
				issued++

				continue
			}

			require.True(t, huberrors.IsCode(err, huberrors.CodeNullifierAlreadyUsed))
			rejected++
		}

		require.Equal(t, 1, issued)
		require.Equal(t, submissions-1, rejected)

		loaded, err := registry.GetIdentity(holder.ID)
		require.NoError(t, err)
		require.Len(t, loaded.ZKCredentials, 1)

		list, err := registry.ListZKCredentials(holder.DID, "", "", 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})
	t.Run("a fresh seed issues a second credential", func(t *testing.T) {
		registry, holder := setup(t)

		_, err := registry.IssueZKCredential(testZKRequest(holder.DID, "seed-bob-1"), testBob, now)
		require.NoError(t, err)

		_, err = registry.IssueZKCredential(testZKRequest(holder.DID, "seed-bob-2"), testBob, now)
		require.NoError(t, err)

		loaded, err := registry.GetIdentity(holder.ID)
		require.NoError(t, err)
		require.Len(t, loaded.ZKCredentials, 2)
	})
	t.Run("hub admin may request on the holder's behalf", func(t *testing.T) {
		registry, holder := setup(t)

		_, err := registry.IssueZKCredential(testZKRequest(holder.DID, "seed-admin-1"), testAdminDID, now)
		require.NoError(t, err)
	})
	t.Run("strangers may not request for another holder", func(t *testing.T) {
		registry, holder := setup(t)

		_, err := registry.IssueZKCredential(testZKRequest(holder.DID, "seed-mallory-1"), testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInsufficientPermissions))
	})
	t.Run("holder DID must resolve to a registered identity", func(t *testing.T) {
		registry, _ := setup(t)

		_, err := registry.IssueZKCredential(testZKRequest("did:example:ghost", "seed-ghost-1"),
			testAdminDID, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeIdentityNotFound))
	})
	t.Run("deactivated holder identity rejects issuance", func(t *testing.T) {
		registry, holder := setup(t)

		_, err := registry.DeactivateIdentity(holder.ID, testBob, now)
		require.NoError(t, err)

		_, err = registry.IssueZKCredential(testZKRequest(holder.DID, "seed-bob-1"), testBob, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeIdentityInactive))
	})
	t.Run("nil request is rejected", func(t *testing.T) {
		registry, _ := setup(t)

		_, err := registry.IssueZKCredential(nil, testBob, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidConfiguration))
	})
	t.Run("selective disclosure roundtrip", func(t *testing.T) {
		registry, holder := setup(t)

		request := testZKRequest(holder.DID, "seed-bob-1")
		request.SelectiveDisclosure = true

		cred, err := registry.IssueZKCredential(request, testBob, now)
		require.NoError(t, err)

		disclosure, proofJWS, err := registry.CreateDisclosure(cred.ID,
			map[string]bool{"minimumAge": true}, testBob, now)
		require.NoError(t, err)
		require.Equal(t, float64(18), disclosure.Disclosed["minimumAge"])
		require.NotEmpty(t, disclosure.Withheld["currentYear"])
		require.NotEmpty(t, proofJWS)

		verified, err := registry.VerifyDisclosure(proofJWS, []string{"minimumAge", "currentYear"}, now)
		require.NoError(t, err)
		require.Equal(t, cred.ID, verified.CredentialID)
	})
	t.Run("the holder DID itself may disclose", func(t *testing.T) {
		registry, holder := setup(t)

		cred, err := registry.IssueZKCredential(testZKRequest(holder.DID, "seed-bob-1"), testBob, now)
		require.NoError(t, err)

		_, _, err = registry.CreateDisclosure(cred.ID, map[string]bool{"minimumAge": true}, holder.DID, now)
		require.NoError(t, err)
	})
	t.Run("strangers may not disclose", func(t *testing.T) {
		registry, holder := setup(t)

		cred, err := registry.IssueZKCredential(testZKRequest(holder.DID, "seed-bob-1"), testBob, now)
		require.NoError(t, err)

		_, _, err = registry.CreateDisclosure(cred.ID, map[string]bool{"minimumAge": true}, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInsufficientPermissions))
	})
}

func TestRegistry_ComplianceCommands(t *testing.T) {
	now := time.Now().UTC().Round(time.Second)

	gdprUpdate := func() *compliance.Update {
		return &compliance.Update{
			Regulation: compliance.RegulationGDPR,
			GDPR: &compliance.GDPR{
				LawfulBasis:    "consent",
				ConsentGiven:   true,
				RightToErasure: true,
				ConsentDate:    &now,
			},
		}
	}

	t.Run("controller updates compliance data", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		data, err := registry.UpdateCompliance(identity.ID, gdprUpdate(), testAlice, now.Add(time.Minute))
		require.NoError(t, err)
		require.NotNil(t, data.GDPR)
		require.True(t, data.GDPR.ConsentGiven)

		loaded, err := registry.GetCompliance(identity.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded.GDPR)
		require.Equal(t, "consent", loaded.GDPR.LawfulBasis)

		trail, err := registry.AuditTrail(identity.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 2)
		require.Equal(t, compliance.ActionUpdateCompliance, trail[1].Action)
		require.Equal(t, 60, trail[1].RiskScore)
		require.Equal(t, "gdpr", trail[1].Changes["regulation"])
	})
	t.Run("custom regulation update", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		data, err := registry.UpdateCompliance(identity.ID, &compliance.Update{
			Regulation: compliance.RegulationCustom,
			CustomName: "iso27001",
			Custom:     map[string]string{"certified": "true"},
		}, testAlice, now.Add(time.Minute))
		require.NoError(t, err)
		require.Equal(t, "true", data.Custom["iso27001"]["certified"])

		trail, err := registry.AuditTrail(identity.ID, "", 10)
		require.NoError(t, err)
		require.Equal(t, "iso27001", trail[1].Changes["customName"])
	})
	t.Run("update must carry the named regulation record", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.UpdateCompliance(identity.ID, &compliance.Update{
			Regulation: compliance.RegulationGDPR,
		}, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidComplianceType))
	})
	t.Run("nil update is rejected", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.UpdateCompliance(identity.ID, nil, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidComplianceType))
	})
	t.Run("strangers may not update compliance data", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.UpdateCompliance(identity.ID, gdprUpdate(), testBob, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInsufficientPermissions))
	})
	t.Run("granted actor may update compliance data", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.GrantPermission(identity.ID, permission.Wildcard, actionUpdateCompliance,
			testBob, permission.EffectAllow, nil, testAlice, now)
		require.NoError(t, err)

		_, err = registry.UpdateCompliance(identity.ID, gdprUpdate(), testBob, now)
		require.NoError(t, err)
	})
	t.Run("deactivated identity rejects compliance updates", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.DeactivateIdentity(identity.ID, testAlice, now)
		require.NoError(t, err)

		_, err = registry.UpdateCompliance(identity.ID, gdprUpdate(), testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeIdentityInactive))
	})
	t.Run("audit appends to the identity's history", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.UpdateCompliance(identity.ID, gdprUpdate(), testAlice, now)
		require.NoError(t, err)

		auditTime := now.Add(time.Minute)

		result, err := registry.PerformAudit(identity.ID, compliance.AuditGDPR, testAlice, auditTime)
		require.NoError(t, err)
		require.Equal(t, compliance.AuditGDPR, result.AuditType)
		require.NotEmpty(t, result.Status)
		require.NotNil(t, result.NextAuditDue)

		loaded, err := registry.GetCompliance(identity.ID)
		require.NoError(t, err)
		require.Len(t, loaded.AuditResults, 1)
		require.NotNil(t, loaded.LastAudit)
		require.True(t, auditTime.Equal(*loaded.LastAudit))

		trail, err := registry.AuditTrail(identity.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 3)
		require.Equal(t, compliance.ActionPerformAudit, trail[2].Action)
		require.Equal(t, 15, trail[2].RiskScore)
		require.Equal(t, "gdpr", trail[2].Changes["auditType"])
		require.NotEmpty(t, trail[2].Changes["score"])
	})
	t.Run("hub admin may audit any identity", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.PerformAudit(identity.ID, compliance.AuditComprehensive, testAdminDID, now)
		require.NoError(t, err)
	})
	t.Run("unsupported audit type is rejected", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.PerformAudit(identity.ID, "iso27001", testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidAuditType))
	})
	t.Run("strangers may not audit", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.PerformAudit(identity.ID, compliance.AuditGDPR, testBob, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInsufficientPermissions))
	})
}

func TestRegistry_PermissionCommands(t *testing.T) {
	now := time.Now().UTC().Round(time.Second)

	t.Run("grant and evaluate", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		granted, err := registry.GrantPermission(identity.ID, "profile", "read", testBob,
			permission.EffectAllow, nil, testAlice, now.Add(time.Minute))
		require.NoError(t, err)
		require.NotEmpty(t, granted.ID)
		require.Equal(t, testAlice, granted.GrantedBy)
		require.Equal(t, testBob, granted.Grantee())

		allowed, err := registry.EvaluatePermission(identity.ID, testBob, "profile", "read", now)
		require.NoError(t, err)
		require.True(t, allowed)

		denied, err := registry.EvaluatePermission(identity.ID, testBob, "profile", "write", now)
		require.NoError(t, err)
		require.False(t, denied)

		perms, err := registry.ListPermissions(identity.ID)
		require.NoError(t, err)
		require.Len(t, perms, 1)

		trail, err := registry.AuditTrail(identity.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 2)
		require.Equal(t, compliance.ActionGrantPermission, trail[1].Action)
		require.Equal(t, 70, trail[1].RiskScore)
		require.Equal(t, testBob, trail[1].Changes["grantee"])
		require.Equal(t, "read", trail[1].Changes["action"])
	})
	t.Run("deny overrides allow", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.GrantPermission(identity.ID, "profile", "read", testBob,
			permission.EffectAllow, nil, testAlice, now)
		require.NoError(t, err)

		_, err = registry.GrantPermission(identity.ID, "profile", "read", testBob,
			permission.EffectDeny, nil, testAlice, now)
		require.NoError(t, err)

		allowed, err := registry.EvaluatePermission(identity.ID, testBob, "profile", "read", now)
		require.NoError(t, err)
		require.False(t, allowed)
	})
	t.Run("expired grants are treated as absent", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		expiry := now.Add(time.Hour)

		_, err := registry.GrantPermission(identity.ID, "profile", "read", testBob,
			permission.EffectAllow, &expiry, testAlice, now)
		require.NoError(t, err)

		allowed, err := registry.EvaluatePermission(identity.ID, testBob, "profile", "read",
			now.Add(30*time.Minute))
		require.NoError(t, err)
		require.True(t, allowed)

		allowed, err = registry.EvaluatePermission(identity.ID, testBob, "profile", "read",
			now.Add(2*time.Hour))
		require.NoError(t, err)
		require.False(t, allowed)

		perms, err := registry.ListPermissions(identity.ID)
		require.NoError(t, err)
		require.Len(t, perms, 1)
	})
	t.Run("the identity's own DID always passes", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		allowed, err := registry.EvaluatePermission(identity.ID, identity.DID, "anything", "admin", now)
		require.NoError(t, err)
		require.True(t, allowed)
	})
	t.Run("revoke removes the grant", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		granted, err := registry.GrantPermission(identity.ID, "profile", "read", testBob,
			permission.EffectAllow, nil, testAlice, now)
		require.NoError(t, err)

		revoked, err := registry.RevokePermission(identity.ID, granted.ID, testAlice, now.Add(time.Minute))
		require.NoError(t, err)
		require.Equal(t, granted.ID, revoked.ID)

		allowed, err := registry.EvaluatePermission(identity.ID, testBob, "profile", "read",
			now.Add(2*time.Minute))
		require.NoError(t, err)
		require.False(t, allowed)

		perms, err := registry.ListPermissions(identity.ID)
		require.NoError(t, err)
		require.Empty(t, perms)

		trail, err := registry.AuditTrail(identity.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 3)
		require.Equal(t, compliance.ActionRevokePermission, trail[2].Action)
		require.Equal(t, 40, trail[2].RiskScore)
	})
	t.Run("revoking an unknown permission", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.RevokePermission(identity.ID, "no-such-permission", testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodePermissionNotFound))
	})
	t.Run("strangers may not grant", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.GrantPermission(identity.ID, "profile", "read", testBob,
			permission.EffectAllow, nil, testBob, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInsufficientPermissions))
	})
	t.Run("grant authority can be delegated", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.GrantPermission(identity.ID, permission.Wildcard, permission.ActionGrant,
			testBob, permission.EffectAllow, nil, testAlice, now)
		require.NoError(t, err)

		_, err = registry.GrantPermission(identity.ID, "profile", "read", "did:example:carol",
			permission.EffectAllow, nil, testBob, now)
		require.NoError(t, err)

		allowed, err := registry.EvaluatePermission(identity.ID, "did:example:carol", "profile", "read", now)
		require.NoError(t, err)
		require.True(t, allowed)
	})
	t.Run("invalid effect is rejected", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.GrantPermission(identity.ID, "profile", "read", testBob,
			"maybe", nil, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidPermission))
	})
}

func testZKRequest(holder, nullifierSeed string) *zkproof.IssueRequest {
	signals := []string{"18", "2024"}

	return &zkproof.IssueRequest{
		Holder:       holder,
		CircuitID:    testCircuitID,
		PublicInputs: map[string]interface{}{"minimumAge": 18, "currentYear": 2024},
		Proof: &zkproof.Proof{
			Protocol:      zkproof.ProofProtocolGroth16,
			ProofData:     testZKProofData(signals),
			PublicSignals: signals,
		},
		PrivacyParams: &zkproof.PrivacyParameters{NullifierSeed: nullifierSeed},
	}
}

// testZKProofData builds a snarkjs-shaped proof document carrying the binding
// a prover toolchain would embed.
func testZKProofData(signals []string) string {
	return fmt.Sprintf(`{"pi_a":["1","2"],"pi_b":[["3","4"],["5","6"]],"pi_c":["7","8"],"binding":%q}`,
		zkproof.ProofBinding(testVerificationKey, signals))
}
