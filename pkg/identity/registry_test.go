/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mock"
	"github.com/hyperledger/aries-framework-go/pkg/crypto/tinkcrypto"
	"github.com/hyperledger/aries-framework-go/pkg/kms/localkms"
	"github.com/hyperledger/aries-framework-go/pkg/secretlock"
	"github.com/hyperledger/aries-framework-go/pkg/secretlock/noop"
	ariesstorage "github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/identity-hub/pkg/bridge"
	"github.com/trustbloc/identity-hub/pkg/compliance"
	"github.com/trustbloc/identity-hub/pkg/credential"
	"github.com/trustbloc/identity-hub/pkg/cryptoservice"
	"github.com/trustbloc/identity-hub/pkg/huberrors"
	"github.com/trustbloc/identity-hub/pkg/hubprovider"
	"github.com/trustbloc/identity-hub/pkg/hubutils"
	"github.com/trustbloc/identity-hub/pkg/permission"
	"github.com/trustbloc/identity-hub/pkg/zkproof"
)

const (
	testAdminDID = "did:example:admin"
	testAlice    = "did:example:alice"
	testBob      = "did:example:bob"
)

func TestRegistry_CreateIdentity(t *testing.T) {
	now := time.Now().UTC().Round(time.Second)

	t.Run("success", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		identity, err := registry.CreateIdentity(testAlice, []ProtocolIdentity{newOAuth2Binding()},
			SecurityLevelEnhanced, nil, now)
		require.NoError(t, err)
		require.NoError(t, hubutils.CheckIfBase58Encoded128BitValue(identity.ID))
		require.True(t, strings.HasPrefix(identity.DID, "did:key:z"))
		require.True(t, identity.IsActive)
		require.Equal(t, SecurityLevelEnhanced, identity.SecurityLevel)
		require.Equal(t, testAlice, identity.Creator)
		require.True(t, now.Equal(identity.CreatedAt))
		require.True(t, now.Equal(identity.UpdatedAt))
		require.Len(t, identity.Protocols, 1)
		require.Equal(t, "google:123", identity.Protocols[ProtocolOAuth2].Identifier)

		loaded, err := registry.GetIdentity(identity.ID)
		require.NoError(t, err)
		require.Equal(t, identity.DID, loaded.DID)
		require.Equal(t, "google:123", loaded.Protocols[ProtocolOAuth2].Identifier)
		require.Equal(t, []string{"openid", "email"}, loaded.Protocols[ProtocolOAuth2].Claims.Scope)

		byDID, err := registry.GetIdentityByDID(identity.DID)
		require.NoError(t, err)
		require.Equal(t, identity.ID, byDID.ID)

		trail, err := registry.AuditTrail(identity.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 1)
		require.Equal(t, compliance.ActionCreateIdentity, trail[0].Action)
		require.Equal(t, testAlice, trail[0].Actor)
		require.Equal(t, identity.ID, trail[0].Resource)
		require.Equal(t, compliance.ResultSuccess, trail[0].Result)
		require.Equal(t, 10, trail[0].RiskScore)
		require.Equal(t, identity.DID, trail[0].Changes["did"])
		require.Equal(t, "oauth2", trail[0].Changes["protocols"])
	})
	t.Run("identity IDs and DIDs are unique", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		first := createTestIdentity(t, registry, testAlice, now)
		second := createTestIdentity(t, registry, testAlice, now)

		require.NotEqual(t, first.ID, second.ID)
		require.NotEqual(t, first.DID, second.DID)
	})
	t.Run("metadata is stored", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		identity, err := registry.CreateIdentity(testAlice, []ProtocolIdentity{newOAuth2Binding()},
			SecurityLevelBasic, &IdentityMetadata{
				Label:      "work profile",
				TenantID:   "tenant-1",
				Attributes: map[string]string{"department": "engineering"},
			}, now)
		require.NoError(t, err)

		loaded, err := registry.GetIdentity(identity.ID)
		require.NoError(t, err)
		require.Equal(t, "work profile", loaded.Metadata.Label)
		require.Equal(t, "tenant-1", loaded.Metadata.TenantID)
		require.Equal(t, "engineering", loaded.Metadata.Attributes["department"])
	})
	t.Run("empty security level defaults to basic", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		identity, err := registry.CreateIdentity(testAlice, []ProtocolIdentity{newOAuth2Binding()},
			"", nil, now)
		require.NoError(t, err)
		require.Equal(t, SecurityLevelBasic, identity.SecurityLevel)
	})
	t.Run("core record is stored without its assembled parts", func(t *testing.T) {
		registry, store := newTestRegistry(t)

		identity := createTestIdentity(t, registry, testAlice, now)

		raw, err := store.Get(hubprovider.IdentityKey(identity.ID))
		require.NoError(t, err)

		stored := UniversalIdentity{}
		require.NoError(t, json.Unmarshal(raw, &stored))
		require.Empty(t, stored.Protocols)
		require.Empty(t, stored.Permissions)

		protocolRaw, err := store.Get(hubprovider.ProtocolIdentityKey(identity.ID, "oauth2"))
		require.NoError(t, err)
		require.Contains(t, string(protocolRaw), "google:123")
	})
	t.Run("at least one protocol identity is required", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.CreateIdentity(testAlice, nil, SecurityLevelBasic, nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidConfiguration))
	})
	t.Run("unsupported protocol is rejected", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.CreateIdentity(testAlice, []ProtocolIdentity{
			{Protocol: "ldap", Identifier: "cn=alice"},
		}, SecurityLevelBasic, nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidConfiguration))
	})
	t.Run("protocol identity requires an identifier", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.CreateIdentity(testAlice, []ProtocolIdentity{
			{Protocol: ProtocolOAuth2},
		}, SecurityLevelBasic, nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidConfiguration))
	})
	t.Run("duplicate protocol kinds are rejected", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.CreateIdentity(testAlice, []ProtocolIdentity{
			newOAuth2Binding(),
			{Protocol: ProtocolOAuth2, Identifier: "github:456"},
		}, SecurityLevelBasic, nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidConfiguration))
	})
	t.Run("unsupported security level is rejected", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.CreateIdentity(testAlice, []ProtocolIdentity{newOAuth2Binding()},
			"ultra", nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidConfiguration))
	})
	t.Run("blank actor is rejected", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.CreateIdentity("", []ProtocolIdentity{newOAuth2Binding()},
			SecurityLevelBasic, nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidActor))
	})
	t.Run("failure: can't mint a DID key", func(t *testing.T) {
		registry := newStubCryptoRegistry(t, &stubCryptoService{err: errors.New("kms unavailable")})

		_, err := registry.CreateIdentity(testAlice, []ProtocolIdentity{newOAuth2Binding()},
			SecurityLevelBasic, nil, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInternal))
	})
}

func TestRegistry_GetIdentity(t *testing.T) {
	t.Run("unknown identity", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.GetIdentity("AJYHHJx4C8j9Fcnn6jEMqH")
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeIdentityNotFound))
	})
	t.Run("unknown DID", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.GetIdentityByDID("did:key:z6MkUnknown")
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeIdentityNotFound))
	})
	t.Run("failure: store get fails", func(t *testing.T) {
		registry := newMockStoreRegistry(t, &mock.Store{ErrGet: errors.New("get failure")})

		_, err := registry.GetIdentity("AJYHHJx4C8j9Fcnn6jEMqH")
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeStorageFailure))
		require.True(t, huberrors.AsError(err).IsRetryable())
	})
}

func TestRegistry_UpdateIdentity(t *testing.T) {
	now := time.Now().UTC().Round(time.Second)

	t.Run("success", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		later := now.Add(time.Minute)

		updated, err := registry.UpdateIdentity(identity.ID, &UpdateRequest{
			SecurityLevel: SecurityLevelHigh,
			Description:   "primary work identity",
			Attributes:    map[string]string{"tier": "gold"},
		}, testAlice, later)
		require.NoError(t, err)
		require.Equal(t, SecurityLevelHigh, updated.SecurityLevel)
		require.Equal(t, "primary work identity", updated.Metadata.Description)
		require.Equal(t, "gold", updated.Metadata.Attributes["tier"])
		require.True(t, later.Equal(updated.UpdatedAt))
		require.True(t, now.Equal(updated.CreatedAt))

		loaded, err := registry.GetIdentity(identity.ID)
		require.NoError(t, err)
		require.Equal(t, SecurityLevelHigh, loaded.SecurityLevel)
		require.Equal(t, "gold", loaded.Metadata.Attributes["tier"])

		trail, err := registry.AuditTrail(identity.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 2)
		require.Equal(t, compliance.ActionUpdateIdentity, trail[1].Action)
		require.Equal(t, "high", trail[1].Changes["securityLevel"])
		require.Equal(t, "gold", trail[1].Changes["attributes.tier"])
	})
	t.Run("update to current values writes nothing", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		unchanged, err := registry.UpdateIdentity(identity.ID, &UpdateRequest{
			SecurityLevel: SecurityLevelEnhanced,
		}, testAlice, now.Add(time.Minute))
		require.NoError(t, err)
		require.True(t, now.Equal(unchanged.UpdatedAt))

		trail, err := registry.AuditTrail(identity.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 1)
	})
	t.Run("empty update is rejected", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.UpdateIdentity(identity.ID, &UpdateRequest{}, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidConfiguration))
	})
	t.Run("unsupported security level is rejected", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.UpdateIdentity(identity.ID, &UpdateRequest{SecurityLevel: "ultra"}, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidConfiguration))
	})
	t.Run("unknown identity", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.UpdateIdentity("AJYHHJx4C8j9Fcnn6jEMqH", &UpdateRequest{Label: "x"}, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeIdentityNotFound))
	})
	t.Run("deactivated identity rejects updates", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.DeactivateIdentity(identity.ID, testAlice, now)
		require.NoError(t, err)

		_, err = registry.UpdateIdentity(identity.ID, &UpdateRequest{Label: "x"}, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeIdentityInactive))
	})
	t.Run("actor without the update permission is denied", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.UpdateIdentity(identity.ID, &UpdateRequest{Label: "x"}, testBob, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInsufficientPermissions))
	})
	t.Run("granted actor may update", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.GrantPermission(identity.ID, permission.Wildcard, actionUpdate, testBob,
			permission.EffectAllow, nil, testAlice, now)
		require.NoError(t, err)

		updated, err := registry.UpdateIdentity(identity.ID, &UpdateRequest{Label: "renamed by bob"},
			testBob, now.Add(time.Minute))
		require.NoError(t, err)
		require.Equal(t, "renamed by bob", updated.Metadata.Label)
	})
}

func TestRegistry_AddProtocolIdentity(t *testing.T) {
	now := time.Now().UTC().Round(time.Second)

	t.Run("success", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		updated, err := registry.AddProtocolIdentity(identity.ID, &ProtocolIdentity{
			Protocol:   ProtocolWebAuthn,
			Identifier: "credential-id-1",
			IsVerified: true,
		}, testAlice, now.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, updated.Protocols, 2)

		loaded, err := registry.GetIdentity(identity.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Protocols, 2)
		require.Equal(t, "credential-id-1", loaded.Protocols[ProtocolWebAuthn].Identifier)

		trail, err := registry.AuditTrail(identity.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 2)
		require.Equal(t, compliance.ActionAddProtocol, trail[1].Action)
		require.Equal(t, "webauthn", trail[1].Changes["protocol"])
	})
	t.Run("duplicate protocol kind is rejected", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.AddProtocolIdentity(identity.ID, &ProtocolIdentity{
			Protocol:   ProtocolOAuth2,
			Identifier: "github:456",
		}, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeProtocolAlreadyExists))
	})
	t.Run("nil binding is rejected", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.AddProtocolIdentity(identity.ID, nil, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidProtocolData))
	})
	t.Run("unsupported protocol is rejected", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.AddProtocolIdentity(identity.ID, &ProtocolIdentity{
			Protocol:   "kerberos",
			Identifier: "alice@EXAMPLE.COM",
		}, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInvalidProtocolData))
	})
	t.Run("actor without the add_protocol permission is denied", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.AddProtocolIdentity(identity.ID, &ProtocolIdentity{
			Protocol:   ProtocolWebAuthn,
			Identifier: "credential-id-1",
		}, testBob, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInsufficientPermissions))
	})
	t.Run("deactivated identity rejects new bindings", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.DeactivateIdentity(identity.ID, testAlice, now)
		require.NoError(t, err)

		_, err = registry.AddProtocolIdentity(identity.ID, &ProtocolIdentity{
			Protocol:   ProtocolWebAuthn,
			Identifier: "credential-id-1",
		}, testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeIdentityInactive))
	})
}

func TestRegistry_DeactivateIdentity(t *testing.T) {
	now := time.Now().UTC().Round(time.Second)

	t.Run("success", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		later := now.Add(time.Minute)

		deactivated, err := registry.DeactivateIdentity(identity.ID, testAlice, later)
		require.NoError(t, err)
		require.False(t, deactivated.IsActive)
		require.True(t, later.Equal(deactivated.UpdatedAt))

		loaded, err := registry.GetIdentity(identity.ID)
		require.NoError(t, err)
		require.False(t, loaded.IsActive)

		trail, err := registry.AuditTrail(identity.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 2)
		require.Equal(t, compliance.ActionDeactivateIdentity, trail[1].Action)
		require.Equal(t, 55, trail[1].RiskScore)
	})
	t.Run("deactivating twice is a no-op", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.DeactivateIdentity(identity.ID, testAlice, now)
		require.NoError(t, err)

		again, err := registry.DeactivateIdentity(identity.ID, testAlice, now.Add(time.Minute))
		require.NoError(t, err)
		require.False(t, again.IsActive)

		trail, err := registry.AuditTrail(identity.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 2)
	})
	t.Run("hub admin may deactivate any identity", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		deactivated, err := registry.DeactivateIdentity(identity.ID, testAdminDID, now)
		require.NoError(t, err)
		require.False(t, deactivated.IsActive)
	})
	t.Run("actor without the deactivate permission is denied", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.DeactivateIdentity(identity.ID, testBob, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeInsufficientPermissions))
	})
	t.Run("unknown identity", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.DeactivateIdentity("AJYHHJx4C8j9Fcnn6jEMqH", testAlice, now)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeIdentityNotFound))
	})
}

func TestRegistry_ListIdentities(t *testing.T) {
	now := time.Now().UTC().Round(time.Second)

	t.Run("filters by creator and pages by ID", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		createTestIdentity(t, registry, testAlice, now)
		createTestIdentity(t, registry, testAlice, now)
		createTestIdentity(t, registry, testBob, now)

		all, err := registry.ListIdentities("", "", 10)
		require.NoError(t, err)
		require.Len(t, all, 3)

		aliceOwned, err := registry.ListIdentities(testAlice, "", 10)
		require.NoError(t, err)
		require.Len(t, aliceOwned, 2)

		bobOwned, err := registry.ListIdentities(testBob, "", 10)
		require.NoError(t, err)
		require.Len(t, bobOwned, 1)

		none, err := registry.ListIdentities("did:example:nobody", "", 10)
		require.NoError(t, err)
		require.Empty(t, none)

		firstPage, err := registry.ListIdentities("", "", 2)
		require.NoError(t, err)
		require.Len(t, firstPage, 2)
		require.Less(t, firstPage[0].ID, firstPage[1].ID)

		secondPage, err := registry.ListIdentities("", firstPage[1].ID, 2)
		require.NoError(t, err)
		require.Len(t, secondPage, 1)
		require.Less(t, firstPage[1].ID, secondPage[0].ID)
	})
	t.Run("entries carry the core record only", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		createTestIdentity(t, registry, testAlice, now)

		list, err := registry.ListIdentities(testAlice, "", 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Empty(t, list[0].Protocols)
		require.Equal(t, testAlice, list[0].Creator)
	})
	t.Run("failure: store query fails", func(t *testing.T) {
		registry := newMockStoreRegistry(t, &mock.Store{ErrQuery: errors.New("query failure")})

		_, err := registry.ListIdentities("", "", 10)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeStorageFailure))
	})
}

func TestRegistry_TranslateIdentity(t *testing.T) {
	now := time.Now().UTC().Round(time.Second)

	t.Run("oauth2 claims translate to oidc", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		result, err := registry.TranslateIdentity(identity.ID, ProtocolOAuth2, ProtocolOIDC)
		require.NoError(t, err)
		require.Equal(t, "oauth2-to-oidc", result.RuleID)
		require.Equal(t, "google:123", result.Claims["sub"])
		require.Equal(t, "https://accounts.google.com", result.Claims["iss"])
		require.Equal(t, "alice@example.com", result.Claims["email"])
	})
	t.Run("identity has no binding for the source protocol", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.TranslateIdentity(identity.ID, ProtocolSAML, ProtocolOIDC)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeProtocolNotFound))
	})
	t.Run("no rule covers the protocol pair", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.TranslateIdentity(identity.ID, ProtocolOAuth2, ProtocolSAML)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeProtocolMismatch))
	})
	t.Run("deactivated identity is not translated", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.DeactivateIdentity(identity.ID, testAlice, now)
		require.NoError(t, err)

		_, err = registry.TranslateIdentity(identity.ID, ProtocolOAuth2, ProtocolOIDC)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeIdentityInactive))
	})
	t.Run("unknown identity", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		_, err := registry.TranslateIdentity("AJYHHJx4C8j9Fcnn6jEMqH", ProtocolOAuth2, ProtocolOIDC)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeIdentityNotFound))
	})
}

func TestRegistry_AuditTrail(t *testing.T) {
	now := time.Now().UTC().Round(time.Second)

	seed := func(t *testing.T) (*Registry, *UniversalIdentity) {
		t.Helper()

		registry, _ := newTestRegistry(t)
		identity := createTestIdentity(t, registry, testAlice, now)

		_, err := registry.UpdateIdentity(identity.ID, &UpdateRequest{Label: "renamed"},
			testAlice, now.Add(time.Minute))
		require.NoError(t, err)

		_, err = registry.AddProtocolIdentity(identity.ID, &ProtocolIdentity{
			Protocol:   ProtocolWebAuthn,
			Identifier: "credential-id-1",
		}, testAlice, now.Add(2*time.Minute))
		require.NoError(t, err)

		_, err = registry.DeactivateIdentity(identity.ID, testAlice, now.Add(3*time.Minute))
		require.NoError(t, err)

		return registry, identity
	}

	t.Run("entries come back oldest first", func(t *testing.T) {
		registry, identity := seed(t)

		trail, err := registry.AuditTrail(identity.ID, "", 10)
		require.NoError(t, err)
		require.Len(t, trail, 4)

		actions := []string{
			compliance.ActionCreateIdentity,
			compliance.ActionUpdateIdentity,
			compliance.ActionAddProtocol,
			compliance.ActionDeactivateIdentity,
		}

		for i, entry := range trail {
			require.Equal(t, actions[i], entry.Action)
			require.Equal(t, compliance.RiskScore(entry.Action), entry.RiskScore)

			if i > 0 {
				require.False(t, entry.Timestamp.Before(trail[i-1].Timestamp))
			}
		}
	})
	t.Run("pages by entry ID", func(t *testing.T) {
		registry, identity := seed(t)

		firstPage, err := registry.AuditTrail(identity.ID, "", 2)
		require.NoError(t, err)
		require.Len(t, firstPage, 2)
		require.Equal(t, compliance.ActionCreateIdentity, firstPage[0].Action)

		secondPage, err := registry.AuditTrail(identity.ID, firstPage[1].ID, 10)
		require.NoError(t, err)
		require.Len(t, secondPage, 2)
		require.Equal(t, compliance.ActionAddProtocol, secondPage[0].Action)
		require.Equal(t, compliance.ActionDeactivateIdentity, secondPage[1].Action)
	})
	t.Run("unknown scope yields an empty page", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		trail, err := registry.AuditTrail("AJYHHJx4C8j9Fcnn6jEMqH", "", 10)
		require.NoError(t, err)
		require.Empty(t, trail)
	})
	t.Run("stale cursor yields an empty page", func(t *testing.T) {
		registry, identity := seed(t)

		trail, err := registry.AuditTrail(identity.ID, "no-such-entry", 10)
		require.NoError(t, err)
		require.Empty(t, trail)
	})
	t.Run("failure: store query fails", func(t *testing.T) {
		registry := newMockStoreRegistry(t, &mock.Store{ErrQuery: errors.New("query failure")})

		_, err := registry.AuditTrail("AJYHHJx4C8j9Fcnn6jEMqH", "", 10)
		require.Error(t, err)
		require.True(t, huberrors.IsCode(err, huberrors.CodeStorageFailure))
	})
}

type kmsProvider struct {
	storageProvider   ariesstorage.Provider
	secretLockService secretlock.Service
}

func (k kmsProvider) StorageProvider() ariesstorage.Provider {
	return k.storageProvider
}

func (k kmsProvider) SecretLock() secretlock.Service {
	return k.secretLockService
}

type stubCryptoService struct {
	err error
}

func (s *stubCryptoService) NewDIDKey() (string, string, error) {
	if s.err != nil {
		return "", "", s.err
	}

	return "did:key:z6MkStub", "did:key:z6MkStub#z6MkStub", nil
}

func (s *stubCryptoService) Sign(string, []byte) ([]byte, error) {
	return []byte("stub signature"), s.err
}

func (s *stubCryptoService) Verify(string, []byte, []byte) error {
	return s.err
}

// newTestRegistry wires a registry over in-memory storage with a real KMS, so
// issued DIDs and credential proofs are genuine.
func newTestRegistry(t *testing.T) (*Registry, *hubprovider.Store) {
	t.Helper()

	keyManager, err := localkms.New(
		"local-lock://custom/master/key/",
		kmsProvider{storageProvider: mem.NewProvider(), secretLockService: &noop.NoLock{}},
	)
	require.NoError(t, err)

	crypto, err := tinkcrypto.New()
	require.NoError(t, err)

	cryptoSvc, err := cryptoservice.New(keyManager, crypto, mem.NewProvider())
	require.NoError(t, err)

	store, err := hubprovider.NewProvider(mem.NewProvider(), 100).OpenStore()
	require.NoError(t, err)

	credentials := credential.NewEngine(store, cryptoSvc)

	registry := NewRegistry(&Config{
		Store:       store,
		Crypto:      cryptoSvc,
		Translator:  bridge.NewTranslator(),
		Credentials: credentials,
		ZK: zkproof.NewEngine(store, credentials, testAdminDID,
			zkproof.WithDisclosureSigner(cryptoSvc)),
		Permissions: permission.NewEngine(),
		Compliance:  compliance.NewEngine(),
		AdminDID:    testAdminDID,
	})

	return registry, store
}

// newMockStoreRegistry builds a registry over an error-injecting core store
// for exercising storage failure paths.
func newMockStoreRegistry(t *testing.T, coreStore *mock.Store) *Registry {
	t.Helper()

	store, err := hubprovider.NewProvider(&mock.Provider{OpenStoreReturn: coreStore}, 100).OpenStore()
	require.NoError(t, err)

	credentials := credential.NewEngine(store, &stubCryptoService{})

	return NewRegistry(&Config{
		Store:       store,
		Crypto:      &stubCryptoService{},
		Translator:  bridge.NewTranslator(),
		Credentials: credentials,
		ZK: zkproof.NewEngine(store, credentials, testAdminDID,
			zkproof.WithDisclosureSigner(&stubCryptoService{})),
		Permissions: permission.NewEngine(),
		Compliance:  compliance.NewEngine(),
		AdminDID:    testAdminDID,
	})
}

func newStubCryptoRegistry(t *testing.T, crypto *stubCryptoService) *Registry {
	t.Helper()

	store, err := hubprovider.NewProvider(mem.NewProvider(), 100).OpenStore()
	require.NoError(t, err)

	return NewRegistry(&Config{
		Store:       store,
		Crypto:      crypto,
		Translator:  bridge.NewTranslator(),
		Permissions: permission.NewEngine(),
		Compliance:  compliance.NewEngine(),
		AdminDID:    testAdminDID,
	})
}

func newOAuth2Binding() ProtocolIdentity {
	return ProtocolIdentity{
		Protocol:   ProtocolOAuth2,
		Identifier: "google:123",
		Claims: Claims{
			Subject: "google:123",
			Email:   "alice@example.com",
			Name:    "Alice Example",
			Issuer:  "https://accounts.google.com",
			Scope:   []string{"openid", "email"},
		},
		IsVerified: true,
	}
}

func createTestIdentity(t *testing.T, registry *Registry, creator string, now time.Time) *UniversalIdentity {
	t.Helper()

	identity, err := registry.CreateIdentity(creator, []ProtocolIdentity{newOAuth2Binding()},
		SecurityLevelEnhanced, nil, now)
	require.NoError(t, err)

	return identity
}
