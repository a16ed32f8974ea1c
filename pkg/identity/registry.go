/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/trustbloc/edge-core/pkg/log"

	"github.com/trustbloc/identity-hub/pkg/bridge"
	"github.com/trustbloc/identity-hub/pkg/compliance"
	"github.com/trustbloc/identity-hub/pkg/credential"
	"github.com/trustbloc/identity-hub/pkg/huberrors"
	"github.com/trustbloc/identity-hub/pkg/hubprovider"
	"github.com/trustbloc/identity-hub/pkg/hubutils"
	"github.com/trustbloc/identity-hub/pkg/permission"
	"github.com/trustbloc/identity-hub/pkg/zkproof"
)

//nolint: gochecknoglobals
var logger = log.New("identity-registry")

// sortableStampLayout renders timestamps at fixed width so audit entry keys
// order chronologically as strings.
const sortableStampLayout = "2006-01-02T15:04:05.000000000Z"

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Permission actions the registry checks before executing identity-scoped
// commands. An identity's controllers (its creator, or an actor using its
// DID) always pass; other actors need an unexpired allow grant for the
// action and no overriding deny.
const (
	actionUpdate           = "update"
	actionAddProtocol      = "add_protocol"
	actionDeactivate       = "deactivate"
	actionUpdateCompliance = "update_compliance"
	actionPerformAudit     = "perform_audit"
)

// CryptoService mints the DID key material backing new identities.
// *cryptoservice.Service satisfies it.
type CryptoService interface {
	NewDIDKey() (string, string, error)
}

// Config collects the collaborators a Registry coordinates.
type Config struct {
	Store       *hubprovider.Store
	Crypto      CryptoService
	Translator  *bridge.Translator
	Credentials *credential.Engine
	ZK          *zkproof.Engine
	Permissions *permission.Engine
	Compliance  *compliance.Engine
	AdminDID    string
}

// Registry executes every identity hub command and query against one store.
// Mutating commands take the write lock, stage their record changes together
// with exactly one audit entry and commit everything in a single batch, so a
// command is either fully applied or not at all. Queries share the read lock.
type Registry struct {
	mutex       sync.RWMutex
	store       *hubprovider.Store
	crypto      CryptoService
	translator  *bridge.Translator
	credentials *credential.Engine
	zk          *zkproof.Engine
	permissions *permission.Engine
	compliance  *compliance.Engine
	adminDID    string
	errs        *huberrors.Catalog
}

// NewRegistry returns a Registry wired to the given collaborators.
func NewRegistry(config *Config) *Registry {
	return &Registry{
		store:       config.Store,
		crypto:      config.Crypto,
		translator:  config.Translator,
		credentials: config.Credentials,
		zk:          config.ZK,
		permissions: config.Permissions,
		compliance:  config.Compliance,
		adminDID:    config.AdminDID,
		errs:        huberrors.NewCatalog("identity-registry"),
	}
}

// CreateIdentity registers a new universal identity for the actor. At least
// one valid initial protocol identity is required, with at most one binding
// per protocol kind. An empty security level defaults to basic. The identity
// record, its DID index, the protocol bindings and the audit entry commit in
// one batch.
func (r *Registry) CreateIdentity(actor string, initialProtocols []ProtocolIdentity,
	securityLevel SecurityLevel, metadata *IdentityMetadata, now time.Time) (*UniversalIdentity, error) {
	const op = "CreateIdentity"

	if err := hubutils.ValidateActor(actor); err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInvalidActor, err)
	}

	if len(initialProtocols) == 0 {
		return nil, r.errs.Errf(op, huberrors.CodeInvalidConfiguration,
			"at least one initial protocol identity is required")
	}

	if securityLevel == "" {
		securityLevel = SecurityLevelBasic
	}

	if !securityLevel.Valid() {
		return nil, r.errs.Errf(op, huberrors.CodeInvalidConfiguration,
			"unsupported security level %q", securityLevel)
	}

	protocols := make(map[Protocol]ProtocolIdentity, len(initialProtocols))

	for i := range initialProtocols {
		binding := initialProtocols[i]

		if err := binding.validate(); err != nil {
			return nil, r.errs.Wrap(op, huberrors.CodeInvalidConfiguration, err)
		}

		if _, exists := protocols[binding.Protocol]; exists {
			return nil, r.errs.Errf(op, huberrors.CodeInvalidConfiguration,
				"duplicate %s protocol identity", binding.Protocol)
		}

		protocols[binding.Protocol] = binding
	}

	identityID, err := hubutils.GenerateRecordID()
	if err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	did, _, err := r.crypto.NewDIDKey()
	if err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	identity := &UniversalIdentity{
		ID:            identityID,
		DID:           did,
		IsActive:      true,
		Protocols:     protocols,
		SecurityLevel: securityLevel,
		Creator:       actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if metadata != nil {
		identity.Metadata = *metadata
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	operations, err := r.identityOperations(op, identity)
	if err != nil {
		return nil, err
	}

	kinds := make([]string, 0, len(initialProtocols))
	for i := range initialProtocols {
		kinds = append(kinds, string(initialProtocols[i].Protocol))
	}

	entry := compliance.NewEntry(compliance.ActionCreateIdentity, actor, identityID,
		compliance.ResultSuccess, now).WithChanges(map[string]string{
		"did":           did,
		"securityLevel": string(securityLevel),
		"protocols":     strings.Join(kinds, ","),
	})

	if err := r.commit(op, identityID, operations, entry); err != nil {
		return nil, err
	}

	logger.Debugf("created identity %s with DID %s for %s", identityID, did, actor)

	return identity, nil
}

// GetIdentity returns the identity with the given ID, assembled with its
// protocol bindings, permissions and compliance data.
func (r *Registry) GetIdentity(identityID string) (*UniversalIdentity, error) {
	const op = "GetIdentity"

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.loadIdentity(op, identityID)
}

// GetIdentityByDID returns the identity bound to the given DID, assembled the
// same way GetIdentity assembles it.
func (r *Registry) GetIdentityByDID(did string) (*UniversalIdentity, error) {
	const op = "GetIdentityByDID"

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	identityID, err := r.resolveDID(op, did)
	if err != nil {
		return nil, err
	}

	return r.loadIdentity(op, identityID)
}

// UpdateIdentity merges the requested changes into an active identity. The
// actor must control the identity (as its creator or its DID) or hold the
// update permission. Fields
// already holding the requested values count as unchanged; if nothing
// changes, nothing is written. The identity's ID and DID never change.
func (r *Registry) UpdateIdentity(identityID string, updates *UpdateRequest, actor string,
	now time.Time) (*UniversalIdentity, error) {
	const op = "UpdateIdentity"

	if err := hubutils.ValidateActor(actor); err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInvalidActor, err)
	}

	if updates.IsEmpty() {
		return nil, r.errs.Errf(op, huberrors.CodeInvalidConfiguration, "update request carries no changes")
	}

	if updates.SecurityLevel != "" && !updates.SecurityLevel.Valid() {
		return nil, r.errs.Errf(op, huberrors.CodeInvalidConfiguration,
			"unsupported security level %q", updates.SecurityLevel)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	identity, err := r.loadIdentity(op, identityID)
	if err != nil {
		return nil, err
	}

	if !identity.IsActive {
		return nil, r.errs.Errf(op, huberrors.CodeIdentityInactive,
			"identity %s is deactivated", identityID).WithIdentity(identityID)
	}

	if !r.ownerOrPermitted(identity, actor, actionUpdate, now) {
		return nil, r.errs.Errf(op, huberrors.CodeInsufficientPermissions,
			"%s may not update identity %s", actor, identityID).WithIdentity(identityID)
	}

	changes := updates.apply(identity)
	if len(changes) == 0 {
		return identity, nil
	}

	identity.UpdatedAt = now

	identityOperation, err := r.identityOperation(op, identity)
	if err != nil {
		return nil, err
	}

	entry := compliance.NewEntry(compliance.ActionUpdateIdentity, actor, identityID,
		compliance.ResultSuccess, now).WithChanges(changes)

	if err := r.commit(op, identityID, []storage.Operation{identityOperation}, entry); err != nil {
		return nil, err
	}

	logger.Debugf("updated identity %s: %d field(s) changed by %s", identityID, len(changes), actor)

	return identity, nil
}

// AddProtocolIdentity binds a protocol identity to an active identity. The
// actor must control the identity or hold the add_protocol permission. An
// identity holds at most one binding per protocol kind.
func (r *Registry) AddProtocolIdentity(identityID string, binding *ProtocolIdentity, actor string,
	now time.Time) (*UniversalIdentity, error) {
	const op = "AddProtocolIdentity"

	if err := hubutils.ValidateActor(actor); err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInvalidActor, err)
	}

	if binding == nil {
		return nil, r.errs.Errf(op, huberrors.CodeInvalidProtocolData, "protocol identity is required")
	}

	if err := binding.validate(); err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInvalidProtocolData, err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	identity, err := r.loadIdentity(op, identityID)
	if err != nil {
		return nil, err
	}

	if !identity.IsActive {
		return nil, r.errs.Errf(op, huberrors.CodeIdentityInactive,
			"identity %s is deactivated", identityID).WithIdentity(identityID)
	}

	if !r.ownerOrPermitted(identity, actor, actionAddProtocol, now) {
		return nil, r.errs.Errf(op, huberrors.CodeInsufficientPermissions,
			"%s may not add protocol identities to identity %s", actor, identityID).WithIdentity(identityID)
	}

	if _, exists := identity.Protocols[binding.Protocol]; exists {
		return nil, r.errs.Errf(op, huberrors.CodeProtocolAlreadyExists,
			"identity %s already has a %s protocol identity", identityID, binding.Protocol).
			WithIdentity(identityID)
	}

	identity.Protocols[binding.Protocol] = *binding
	identity.UpdatedAt = now

	identityOperation, err := r.identityOperation(op, identity)
	if err != nil {
		return nil, err
	}

	protocolOperation, err := r.protocolOperation(op, identityID, binding)
	if err != nil {
		return nil, err
	}

	entry := compliance.NewEntry(compliance.ActionAddProtocol, actor, identityID,
		compliance.ResultSuccess, now).WithChanges(map[string]string{
		"protocol":   string(binding.Protocol),
		"identifier": binding.Identifier,
	})

	err = r.commit(op, identityID, []storage.Operation{identityOperation, protocolOperation}, entry)
	if err != nil {
		return nil, err
	}

	logger.Debugf("added %s protocol identity to identity %s", binding.Protocol, identityID)

	return identity, nil
}

// DeactivateIdentity soft-deletes an identity: the records stay readable but
// every later mutating command against the identity fails. The actor must
// control the identity, be the hub admin, or hold the deactivate permission.
// Deactivating an already-inactive identity is a no-op.
func (r *Registry) DeactivateIdentity(identityID, actor string, now time.Time) (*UniversalIdentity, error) {
	const op = "DeactivateIdentity"

	if err := hubutils.ValidateActor(actor); err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInvalidActor, err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	identity, err := r.loadIdentity(op, identityID)
	if err != nil {
		return nil, err
	}

	permitted := actor == r.adminDID || r.ownerOrPermitted(identity, actor, actionDeactivate, now)
	if !permitted {
		return nil, r.errs.Errf(op, huberrors.CodeInsufficientPermissions,
			"%s may not deactivate identity %s", actor, identityID).WithIdentity(identityID)
	}

	if !identity.IsActive {
		return identity, nil
	}

	identity.IsActive = false
	identity.UpdatedAt = now

	identityOperation, err := r.identityOperation(op, identity)
	if err != nil {
		return nil, err
	}

	entry := compliance.NewEntry(compliance.ActionDeactivateIdentity, actor, identityID,
		compliance.ResultSuccess, now)

	if err := r.commit(op, identityID, []storage.Operation{identityOperation}, entry); err != nil {
		return nil, err
	}

	logger.Debugf("deactivated identity %s on request of %s", identityID, actor)

	return identity, nil
}

// ListIdentities pages through identity records ordered by ID, optionally
// filtered by creator. Entries carry the core record only; GetIdentity loads
// the protocol bindings, permissions and compliance data of a single
// identity. startAfter is the last ID of the previous page.
func (r *Registry) ListIdentities(creator, startAfter string, limit int) ([]UniversalIdentity, error) {
	const op = "ListIdentities"

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	tagName, tagValue := hubprovider.TagEntityType, hubprovider.EntityTypeIdentity
	if creator != "" {
		tagName, tagValue = hubprovider.TagCreator, creator
	}

	entries, err := r.store.QueryTag(tagName, tagValue)
	if err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeStorageFailure, err)
	}

	limit = clampLimit(limit)
	identities := make([]UniversalIdentity, 0, limit)

	for _, entry := range entries {
		if startAfter != "" && entry.Key <= hubprovider.IdentityKey(startAfter) {
			continue
		}

		identity := UniversalIdentity{}

		if err := json.Unmarshal(entry.Value, &identity); err != nil {
			return nil, r.errs.Wrap(op, huberrors.CodeInternal, err)
		}

		identities = append(identities, identity)

		if len(identities) == limit {
			break
		}
	}

	return identities, nil
}

// TranslateIdentity translates one of an active identity's protocol bindings
// into the target protocol's representation. It reads but never writes.
func (r *Registry) TranslateIdentity(identityID string, sourceProtocol,
	targetProtocol Protocol) (*bridge.Result, error) {
	const op = "TranslateIdentity"

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	identity, err := r.loadIdentity(op, identityID)
	if err != nil {
		return nil, err
	}

	if !identity.IsActive {
		return nil, r.errs.Errf(op, huberrors.CodeIdentityInactive,
			"identity %s is deactivated", identityID).WithIdentity(identityID)
	}

	binding, exists := identity.Protocols[sourceProtocol]
	if !exists {
		return nil, r.errs.Errf(op, huberrors.CodeProtocolNotFound,
			"identity %s has no %s protocol identity", identityID, sourceProtocol).WithIdentity(identityID)
	}

	return r.translator.TranslateIdentity(string(sourceProtocol), binding.Identifier,
		binding.Claims.ToMap(), string(targetProtocol))
}

// AuditTrail pages through the audit entries recorded under the given trail
// scope, oldest first. Identity-scoped commands record under the identity ID;
// hub-scoped commands (issuer and circuit administration) record under the
// acting DID. startAfter is the ID of the last entry of the previous page; an
// unknown scope yields an empty page.
func (r *Registry) AuditTrail(scope, startAfter string, limit int) ([]compliance.AuditEntry, error) {
	const op = "AuditTrail"

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entries, err := r.store.QueryTag(hubprovider.TagIdentityID, scope)
	if err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeStorageFailure, err)
	}

	limit = clampLimit(limit)
	trail := make([]compliance.AuditEntry, 0, limit)
	skipping := startAfter != ""

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Key, hubprovider.AuditEntryKeyPrefix) {
			continue
		}

		auditEntry := compliance.AuditEntry{}

		if err := json.Unmarshal(entry.Value, &auditEntry); err != nil {
			return nil, r.errs.Wrap(op, huberrors.CodeInternal, err)
		}

		if skipping {
			if auditEntry.ID == startAfter {
				skipping = false
			}

			continue
		}

		trail = append(trail, auditEntry)

		if len(trail) == limit {
			break
		}
	}

	return trail, nil
}

// ownerOrPermitted reports whether the actor controls the identity (as its
// creator or acting as its DID) or holds an unexpired allow grant for the
// action with no overriding deny.
func (r *Registry) ownerOrPermitted(identity *UniversalIdentity, actor, action string, now time.Time) bool {
	if actor == identity.Creator {
		return true
	}

	return r.permissions.HasPermission(identity.Permissions, identity.DID, actor, action, now)
}

// canGrant reports whether the actor may grant or revoke permissions on the
// identity: its controllers always may, other actors need grant authority.
func (r *Registry) canGrant(identity *UniversalIdentity, actor string, now time.Time) bool {
	if actor == identity.Creator {
		return true
	}

	return r.permissions.CanGrant(identity.Permissions, identity.DID, actor, now)
}

// controlsDID reports whether the actor is the given DID itself or the
// creator of the identity the DID is bound to.
func (r *Registry) controlsDID(actor, did string) bool {
	if actor == did {
		return true
	}

	indexBytes, err := r.store.Get(hubprovider.DIDIndexKey(did))
	if err != nil {
		return false
	}

	index := didIndexRecord{}
	if err := json.Unmarshal(indexBytes, &index); err != nil {
		return false
	}

	identityBytes, err := r.store.Get(hubprovider.IdentityKey(index.IdentityID))
	if err != nil {
		return false
	}

	identity := UniversalIdentity{}
	if err := json.Unmarshal(identityBytes, &identity); err != nil {
		return false
	}

	return actor == identity.Creator
}

// resolveDID maps a DID to the ID of the identity it is bound to.
func (r *Registry) resolveDID(op, did string) (string, error) {
	indexBytes, err := r.store.Get(hubprovider.DIDIndexKey(did))
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return "", r.errs.Errf(op, huberrors.CodeIdentityNotFound, "no identity bound to DID %s", did)
		}

		return "", r.errs.Wrap(op, huberrors.CodeStorageFailure, err)
	}

	index := didIndexRecord{}

	if err := json.Unmarshal(indexBytes, &index); err != nil {
		return "", r.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	return index.IdentityID, nil
}

// loadIdentity reads the core identity record and assembles its protocol
// bindings, permissions and compliance data from their own key ranges.
func (r *Registry) loadIdentity(op, identityID string) (*UniversalIdentity, error) {
	identity, err := r.identityRecord(op, identityID)
	if err != nil {
		return nil, err
	}

	related, err := r.store.QueryTag(hubprovider.TagIdentityID, identityID)
	if err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeStorageFailure, err).WithIdentity(identityID)
	}

	identity.Protocols = map[Protocol]ProtocolIdentity{}
	identity.Permissions = nil

	for _, entry := range related {
		switch {
		case strings.HasPrefix(entry.Key, hubprovider.ProtocolIdentityKeyPrefix):
			binding := ProtocolIdentity{}

			if err := json.Unmarshal(entry.Value, &binding); err != nil {
				return nil, r.errs.Wrap(op, huberrors.CodeInternal, err).WithIdentity(identityID)
			}

			identity.Protocols[binding.Protocol] = binding
		case strings.HasPrefix(entry.Key, hubprovider.PermissionKeyPrefix):
			grant := permission.Permission{}

			if err := json.Unmarshal(entry.Value, &grant); err != nil {
				return nil, r.errs.Wrap(op, huberrors.CodeInternal, err).WithIdentity(identityID)
			}

			identity.Permissions = append(identity.Permissions, grant)
		}
	}

	complianceBytes, err := r.store.Get(hubprovider.ComplianceKey(identityID))
	if err == nil {
		if err := json.Unmarshal(complianceBytes, &identity.Compliance); err != nil {
			return nil, r.errs.Wrap(op, huberrors.CodeInternal, err).WithIdentity(identityID)
		}
	} else if !errors.Is(err, storage.ErrDataNotFound) {
		return nil, r.errs.Wrap(op, huberrors.CodeStorageFailure, err).WithIdentity(identityID)
	}

	return identity, nil
}

// identityRecord reads the core identity record without assembling related
// records.
func (r *Registry) identityRecord(op, identityID string) (*UniversalIdentity, error) {
	identityBytes, err := r.store.Get(hubprovider.IdentityKey(identityID))
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, r.errs.Errf(op, huberrors.CodeIdentityNotFound,
				"no identity with id %s", identityID).WithIdentity(identityID)
		}

		return nil, r.errs.Wrap(op, huberrors.CodeStorageFailure, err).WithIdentity(identityID)
	}

	identity := &UniversalIdentity{}

	if err := json.Unmarshal(identityBytes, identity); err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInternal, err).WithIdentity(identityID)
	}

	return identity, nil
}

type didIndexRecord struct {
	IdentityID string `json:"identityId"`
}

// identityOperations stages the full record set of a new identity: the core
// record, the DID index and one record per protocol binding.
func (r *Registry) identityOperations(op string, identity *UniversalIdentity) ([]storage.Operation, error) {
	operations := make([]storage.Operation, 0, len(identity.Protocols)+2)

	identityOperation, err := r.identityOperation(op, identity)
	if err != nil {
		return nil, err
	}

	indexBytes, err := json.Marshal(didIndexRecord{IdentityID: identity.ID})
	if err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInternal, err).WithIdentity(identity.ID)
	}

	operations = append(operations, identityOperation, storage.Operation{
		Key:   hubprovider.DIDIndexKey(identity.DID),
		Value: indexBytes,
	})

	for kind := range identity.Protocols {
		binding := identity.Protocols[kind]

		protocolOperation, err := r.protocolOperation(op, identity.ID, &binding)
		if err != nil {
			return nil, err
		}

		operations = append(operations, protocolOperation)
	}

	return operations, nil
}

// identityOperation stages the core identity record. Protocol bindings,
// permissions and compliance data persist in their own key ranges, so they
// are pruned from the stored copy.
func (r *Registry) identityOperation(op string, identity *UniversalIdentity) (storage.Operation, error) {
	record := *identity
	record.Protocols = nil
	record.Permissions = nil
	record.Compliance = compliance.Data{}

	recordBytes, err := json.Marshal(&record)
	if err != nil {
		return storage.Operation{}, r.errs.Wrap(op, huberrors.CodeInternal, err).WithIdentity(identity.ID)
	}

	return storage.Operation{
		Key:   hubprovider.IdentityKey(identity.ID),
		Value: recordBytes,
		Tags: []storage.Tag{
			hubprovider.Tag(hubprovider.TagEntityType, hubprovider.EntityTypeIdentity),
			hubprovider.Tag(hubprovider.TagCreator, identity.Creator),
		},
	}, nil
}

func (r *Registry) protocolOperation(op, identityID string,
	binding *ProtocolIdentity) (storage.Operation, error) {
	bindingBytes, err := json.Marshal(binding)
	if err != nil {
		return storage.Operation{}, r.errs.Wrap(op, huberrors.CodeInternal, err).WithIdentity(identityID)
	}

	return storage.Operation{
		Key:   hubprovider.ProtocolIdentityKey(identityID, string(binding.Protocol)),
		Value: bindingBytes,
		Tags: []storage.Tag{
			hubprovider.Tag(hubprovider.TagIdentityID, identityID),
		},
	}, nil
}

// auditOperation stages one audit trail entry under the given scope. Every
// mutating command commits exactly one of these in its batch.
func (r *Registry) auditOperation(op, scope string, entry compliance.AuditEntry) (storage.Operation, error) {
	entryBytes, err := json.Marshal(entry)
	if err != nil {
		return storage.Operation{}, r.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	stamp := entry.Timestamp.UTC().Format(sortableStampLayout)

	return storage.Operation{
		Key:   hubprovider.AuditEntryKey(scope, stamp, entry.ID),
		Value: entryBytes,
		Tags: []storage.Tag{
			hubprovider.Tag(hubprovider.TagEntityType, hubprovider.EntityTypeAuditEntry),
			hubprovider.Tag(hubprovider.TagIdentityID, scope),
		},
	}, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}

	if limit > maxPageLimit {
		return maxPageLimit
	}

	return limit
}
