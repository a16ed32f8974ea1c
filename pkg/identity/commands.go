/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/trustbloc/identity-hub/pkg/compliance"
	"github.com/trustbloc/identity-hub/pkg/credential"
	"github.com/trustbloc/identity-hub/pkg/huberrors"
	"github.com/trustbloc/identity-hub/pkg/hubprovider"
	"github.com/trustbloc/identity-hub/pkg/hubutils"
	"github.com/trustbloc/identity-hub/pkg/permission"
	"github.com/trustbloc/identity-hub/pkg/zkproof"
)

// RegisterIssuer adds an issuer to the credential issuance allow-list. Only
// the hub admin may register issuers; the audit entry records under the
// admin's DID.
func (r *Registry) RegisterIssuer(did, name string, authorizedTypes []string, actor string,
	now time.Time) (*credential.Issuer, error) {
	const op = "RegisterIssuer"

	if err := hubutils.ValidateActor(actor); err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInvalidActor, err)
	}

	if actor != r.adminDID {
		return nil, r.errs.Errf(op, huberrors.CodeInsufficientPermissions,
			"only the hub admin may register issuers")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	issuer, operations, err := r.credentials.RegisterIssuer(did, name, authorizedTypes, actor, now)
	if err != nil {
		return nil, err
	}

	changes := map[string]string{"name": name}
	if len(authorizedTypes) > 0 {
		changes["authorizedTypes"] = strings.Join(authorizedTypes, ",")
	}

	entry := compliance.NewEntry(compliance.ActionRegisterIssuer, actor, did,
		compliance.ResultSuccess, now).WithChanges(changes)

	if err := r.commit(op, actor, operations, entry); err != nil {
		return nil, err
	}

	logger.Debugf("registered issuer %s (%s)", did, name)

	return issuer, nil
}

// DeactivateIssuer removes an issuer's authority to issue without disturbing
// already-issued credentials. Only the hub admin may deactivate issuers; the
// call is idempotent.
func (r *Registry) DeactivateIssuer(did, actor string, now time.Time) (*credential.Issuer, error) {
	const op = "DeactivateIssuer"

	if err := hubutils.ValidateActor(actor); err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInvalidActor, err)
	}

	if actor != r.adminDID {
		return nil, r.errs.Errf(op, huberrors.CodeInsufficientPermissions,
			"only the hub admin may deactivate issuers")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	issuer, operations, err := r.credentials.DeactivateIssuer(did, now)
	if err != nil {
		return nil, err
	}

	entry := compliance.NewEntry(compliance.ActionDeactivateIssuer, actor, did,
		compliance.ResultSuccess, now)

	if err := r.commit(op, actor, operations, entry); err != nil {
		return nil, err
	}

	return issuer, nil
}

// GetIssuer returns the allow-list entry for the given issuer DID.
func (r *Registry) GetIssuer(did string) (*credential.Issuer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.credentials.GetIssuer(did)
}

// ListIssuers returns every registered issuer ordered by DID.
func (r *Registry) ListIssuers() ([]credential.Issuer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.credentials.ListIssuers()
}

// IssueCredential issues a verifiable credential to a registered identity.
// The actor must be the issuing issuer (or the hub admin acting in its
// stead), and the subject DID must resolve to an active identity. The audit
// entry records under the subject identity.
func (r *Registry) IssueCredential(issuerDID, subjectDID string, credentialType []string,
	subject map[string]interface{}, expiration *time.Time, actor string,
	now time.Time) (*credential.Credential, error) {
	const op = "IssueCredential"

	if err := hubutils.ValidateActor(actor); err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInvalidActor, err)
	}

	if actor != issuerDID && actor != r.adminDID {
		return nil, r.errs.Errf(op, huberrors.CodeInsufficientPermissions,
			"only issuer %s may issue credentials in its name", issuerDID)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	subjectIdentityID, err := r.resolveDID(op, subjectDID)
	if err != nil {
		return nil, err
	}

	subjectIdentity, err := r.identityRecord(op, subjectIdentityID)
	if err != nil {
		return nil, err
	}

	if !subjectIdentity.IsActive {
		return nil, r.errs.Errf(op, huberrors.CodeIdentityInactive,
			"subject identity %s is deactivated", subjectIdentityID).WithIdentity(subjectIdentityID)
	}

	cred, operations, err := r.credentials.IssueVerifiableCredential(issuerDID, subjectDID,
		credentialType, subject, expiration, now)
	if err != nil {
		return nil, err
	}

	entry := compliance.NewEntry(compliance.ActionIssueCredential, actor, cred.ID,
		compliance.ResultSuccess, now).WithChanges(map[string]string{
		"credentialType": strings.Join(credentialType, ","),
		"subjectDid":     subjectDID,
	})

	if err := r.commit(op, subjectIdentityID, operations, entry); err != nil {
		return nil, err
	}

	logger.Debugf("issued credential %s from %s to %s", cred.ID, issuerDID, subjectDID)

	return cred, nil
}

// RevokeCredential marks a credential revoked. Only the issuing issuer or the
// hub admin may revoke; revoking an already-revoked credential is a no-op
// that preserves the original revocation record.
func (r *Registry) RevokeCredential(credentialID, reason, actor string,
	now time.Time) (*credential.RevocationRecord, error) {
	const op = "RevokeCredential"

	if err := hubutils.ValidateActor(actor); err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInvalidActor, err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	cred, err := r.credentials.GetCredential(credentialID)
	if err != nil {
		return nil, err
	}

	if actor != cred.Issuer && actor != r.adminDID {
		return nil, r.errs.Errf(op, huberrors.CodeInsufficientPermissions,
			"only issuer %s or the hub admin may revoke credential %s", cred.Issuer, credentialID)
	}

	record, operations, err := r.credentials.RevokeCredential(credentialID, reason, now)
	if err != nil {
		return nil, err
	}

	entry := compliance.NewEntry(compliance.ActionRevokeCredential, actor, credentialID,
		compliance.ResultSuccess, now).WithChanges(map[string]string{"reason": reason})

	if err := r.commit(op, r.credentialAuditScope(cred), operations, entry); err != nil {
		return nil, err
	}

	return record, nil
}

// VerifyCredential checks a credential's existence, revocation status, expiry
// and proof, in that order. It reads but never writes.
func (r *Registry) VerifyCredential(credentialID string, now time.Time) error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.credentials.VerifyCredential(credentialID, now)
}

// GetCredential returns the credential with the given ID.
func (r *Registry) GetCredential(credentialID string) (*credential.Credential, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.credentials.GetCredential(credentialID)
}

// QueryCredentials returns credentials filtered by issuer and/or subject DID.
func (r *Registry) QueryCredentials(issuerDID, subjectDID string) ([]credential.Credential, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.credentials.QueryCredentials(issuerDID, subjectDID)
}

// IsCredentialRevoked reports whether the credential has been revoked.
func (r *Registry) IsCredentialRevoked(credentialID string) (bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.credentials.IsCredentialRevoked(credentialID)
}

// RegisterCircuit registers a zero-knowledge circuit's verification key. The
// zkproof engine gates who may register; the audit entry records under the
// acting DID. Re-registering an identical circuit is a no-op.
func (r *Registry) RegisterCircuit(circuitID, circuitType, circuitData, verificationKey,
	actor string, now time.Time) (*zkproof.Circuit, error) {
	const op = "RegisterCircuit"

	r.mutex.Lock()
	defer r.mutex.Unlock()

	circuit, operations, err := r.zk.RegisterCircuit(circuitID, circuitType, circuitData,
		verificationKey, actor, now)
	if err != nil {
		return nil, err
	}

	entry := compliance.NewEntry(compliance.ActionRegisterCircuit, actor, circuitID,
		compliance.ResultSuccess, now).WithChanges(map[string]string{"circuitType": circuitType})

	if err := r.commit(op, actor, operations, entry); err != nil {
		return nil, err
	}

	return circuit, nil
}

// DeactivateCircuit blocks new issuance against a circuit. Only the hub admin
// may deactivate circuits; already-issued credentials still verify.
func (r *Registry) DeactivateCircuit(circuitID, actor string, now time.Time) (*zkproof.Circuit, error) {
	const op = "DeactivateCircuit"

	r.mutex.Lock()
	defer r.mutex.Unlock()

	circuit, operations, err := r.zk.DeactivateCircuit(circuitID, actor, now)
	if err != nil {
		return nil, err
	}

	entry := compliance.NewEntry(compliance.ActionDeactivateCircuit, actor, circuitID,
		compliance.ResultSuccess, now)

	if err := r.commit(op, actor, operations, entry); err != nil {
		return nil, err
	}

	return circuit, nil
}

// GetCircuit returns the registered circuit with the given ID.
func (r *Registry) GetCircuit(circuitID string) (*zkproof.Circuit, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.zk.GetCircuit(circuitID)
}

// ListCircuits pages through registered circuits ordered by ID.
func (r *Registry) ListCircuits(startAfter string, limit int) ([]zkproof.Circuit, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.zk.ListCircuits(startAfter, limit)
}

// IssueZKCredential issues a zero-knowledge credential. The holder DID must
// resolve to an active identity and the actor must control it (or be the hub
// admin). The credential, the nullifier mark, the holder's updated identity
// record and the audit entry commit in one batch, so a spent nullifier can
// never leak a persisted credential.
func (r *Registry) IssueZKCredential(request *zkproof.IssueRequest, actor string,
	now time.Time) (*zkproof.ZKCredential, error) {
	const op = "IssueZKCredential"

	if err := hubutils.ValidateActor(actor); err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInvalidActor, err)
	}

	if request == nil {
		return nil, r.errs.Errf(op, huberrors.CodeInvalidConfiguration, "issue request is required")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	holderIdentityID, err := r.resolveDID(op, request.Holder)
	if err != nil {
		return nil, err
	}

	holderIdentity, err := r.identityRecord(op, holderIdentityID)
	if err != nil {
		return nil, err
	}

	if !holderIdentity.IsActive {
		return nil, r.errs.Errf(op, huberrors.CodeIdentityInactive,
			"holder identity %s is deactivated", holderIdentityID).WithIdentity(holderIdentityID)
	}

	permitted := actor == r.adminDID || actor == request.Holder || actor == holderIdentity.Creator
	if !permitted {
		return nil, r.errs.Errf(op, huberrors.CodeInsufficientPermissions,
			"only a controller of holder %s may request this credential", request.Holder).
			WithIdentity(holderIdentityID)
	}

	cred, operations, err := r.zk.IssueZKCredential(request, now)
	if err != nil {
		return nil, err
	}

	holderIdentity.ZKCredentials = append(holderIdentity.ZKCredentials, cred.ID)
	holderIdentity.UpdatedAt = now

	identityOperation, err := r.identityOperation(op, holderIdentity)
	if err != nil {
		return nil, err
	}

	operations = append(operations, identityOperation)

	privacyLevel := ""
	if cred.PrivacyParameters != nil {
		privacyLevel = cred.PrivacyParameters.PrivacyLevel
	}

	entry := compliance.NewEntry(compliance.ActionIssueZKCredential, actor, cred.ID,
		compliance.ResultSuccess, now).WithChanges(map[string]string{
		"circuitId":    request.CircuitID,
		"privacyLevel": privacyLevel,
	})

	if err := r.commit(op, holderIdentityID, operations, entry); err != nil {
		return nil, err
	}

	logger.Debugf("issued zero-knowledge credential %s to %s against circuit %s",
		cred.ID, request.Holder, request.CircuitID)

	return cred, nil
}

// GetZKCredential returns the zero-knowledge credential with the given ID.
func (r *Registry) GetZKCredential(zkCredentialID string) (*zkproof.ZKCredential, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.zk.GetZKCredential(zkCredentialID)
}

// ListZKCredentials pages through zero-knowledge credentials filtered by
// holder and/or circuit.
func (r *Registry) ListZKCredentials(holder, circuitID, startAfter string,
	limit int) ([]zkproof.ZKCredential, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.zk.ListZKCredentials(holder, circuitID, startAfter, limit)
}

// VerifyZKProof re-verifies a stored credential's proof against its circuit's
// registered key. It reads but never writes, so verification is repeatable.
func (r *Registry) VerifyZKProof(zkCredentialID string) (bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.zk.VerifyZKProof(zkCredentialID)
}

// CreateDisclosure builds and signs a selective disclosure of a stored
// zero-knowledge credential. Only a controller of the credential's holder
// (or the hub admin) may disclose. It reads but never writes.
func (r *Registry) CreateDisclosure(zkCredentialID string, disclose map[string]bool, actor string,
	now time.Time) (*zkproof.Disclosure, string, error) {
	const op = "CreateDisclosure"

	if err := hubutils.ValidateActor(actor); err != nil {
		return nil, "", r.errs.Wrap(op, huberrors.CodeInvalidActor, err)
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	cred, err := r.zk.GetZKCredential(zkCredentialID)
	if err != nil {
		return nil, "", err
	}

	if actor != r.adminDID && !r.controlsDID(actor, cred.Holder) {
		return nil, "", r.errs.Errf(op, huberrors.CodeInsufficientPermissions,
			"only a controller of holder %s may disclose credential %s", cred.Holder, zkCredentialID)
	}

	return r.zk.CreateSelectiveDisclosureProof(zkCredentialID, disclose, now)
}

// VerifyDisclosure checks a selective disclosure proof against the stored
// credential and the verifier's required schema fields.
func (r *Registry) VerifyDisclosure(proofJWS string, schema []string,
	now time.Time) (*zkproof.Disclosure, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.zk.VerifySelectiveDisclosureProof(proofJWS, schema, now)
}

// UpdateCompliance overwrites one regulation sub-record of an active
// identity's compliance data. The actor must control the identity or hold
// the update_compliance permission.
func (r *Registry) UpdateCompliance(identityID string, update *compliance.Update, actor string,
	now time.Time) (*compliance.Data, error) {
	const op = "UpdateCompliance"

	if err := hubutils.ValidateActor(actor); err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInvalidActor, err)
	}

	if update == nil {
		return nil, r.errs.Errf(op, huberrors.CodeInvalidComplianceType, "compliance update is required")
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

	if !r.ownerOrPermitted(identity, actor, actionUpdateCompliance, now) {
		return nil, r.errs.Errf(op, huberrors.CodeInsufficientPermissions,
			"%s may not update compliance data of identity %s", actor, identityID).WithIdentity(identityID)
	}

	data := identity.Compliance

	if err := r.compliance.UpdateData(&data, update); err != nil {
		return nil, err
	}

	complianceOperation, err := r.complianceOperation(op, identityID, &data)
	if err != nil {
		return nil, err
	}

	changes := map[string]string{"regulation": string(update.Regulation)}
	if update.CustomName != "" {
		changes["customName"] = update.CustomName
	}

	entry := compliance.NewEntry(compliance.ActionUpdateCompliance, actor, identityID,
		compliance.ResultSuccess, now).WithChanges(changes)

	if err := r.commit(op, identityID, []storage.Operation{complianceOperation}, entry); err != nil {
		return nil, err
	}

	return &data, nil
}

// GetCompliance returns an identity's compliance data. An identity that never
// recorded any yields the zero record.
func (r *Registry) GetCompliance(identityID string) (*compliance.Data, error) {
	const op = "GetCompliance"

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	identity, err := r.loadIdentity(op, identityID)
	if err != nil {
		return nil, err
	}

	return &identity.Compliance, nil
}

// PerformAudit runs a compliance audit over an active identity's recorded
// data and appends the result to its audit history. The actor must control
// the identity, be the hub admin, or hold the perform_audit permission.
func (r *Registry) PerformAudit(identityID string, auditType compliance.AuditType, actor string,
	now time.Time) (*compliance.AuditResult, error) {
	const op = "PerformAudit"

	if err := hubutils.ValidateActor(actor); err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInvalidActor, err)
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

	permitted := actor == r.adminDID || r.ownerOrPermitted(identity, actor, actionPerformAudit, now)
	if !permitted {
		return nil, r.errs.Errf(op, huberrors.CodeInsufficientPermissions,
			"%s may not audit identity %s", actor, identityID).WithIdentity(identityID)
	}

	data := identity.Compliance

	result, err := r.compliance.PerformAudit(&data, auditType, now)
	if err != nil {
		return nil, err
	}

	complianceOperation, err := r.complianceOperation(op, identityID, &data)
	if err != nil {
		return nil, err
	}

	entry := compliance.NewEntry(compliance.ActionPerformAudit, actor, identityID,
		compliance.ResultSuccess, now).WithChanges(map[string]string{
		"auditType": string(auditType),
		"status":    result.Status,
		"score":     strconv.Itoa(result.Score),
	})

	if err := r.commit(op, identityID, []storage.Operation{complianceOperation}, entry); err != nil {
		return nil, err
	}

	return result, nil
}

// GrantPermission grants an actor-scoped permission on an active identity.
// The grantor must control the identity or hold grant authority (the
// grant_permissions or admin action).
func (r *Registry) GrantPermission(identityID, resource, action, grantee string,
	effect permission.Effect, expiresAt *time.Time, actor string,
	now time.Time) (*permission.Permission, error) {
	const op = "GrantPermission"

	if err := hubutils.ValidateActor(actor); err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInvalidActor, err)
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

	if !r.canGrant(identity, actor, now) {
		return nil, r.errs.Errf(op, huberrors.CodeInsufficientPermissions,
			"%s may not grant permissions on identity %s", actor, identityID).WithIdentity(identityID)
	}

	_, granted, err := r.permissions.Grant(identity.Permissions, resource, action, grantee,
		actor, effect, expiresAt, now)
	if err != nil {
		return nil, err
	}

	permissionOperation, err := r.permissionOperation(op, identityID, &granted)
	if err != nil {
		return nil, err
	}

	entry := compliance.NewEntry(compliance.ActionGrantPermission, actor, identityID,
		compliance.ResultSuccess, now).WithChanges(map[string]string{
		"permissionId": granted.ID,
		"resource":     resource,
		"action":       action,
		"grantee":      grantee,
		"effect":       string(effect),
	})

	if err := r.commit(op, identityID, []storage.Operation{permissionOperation}, entry); err != nil {
		return nil, err
	}

	logger.Debugf("granted %s %s on %s of identity %s to %s", effect, action, resource, identityID, grantee)

	return &granted, nil
}

// RevokePermission removes a permission entry from an active identity. The
// actor must control the identity or hold grant authority.
func (r *Registry) RevokePermission(identityID, permissionID, actor string,
	now time.Time) (*permission.Permission, error) {
	const op = "RevokePermission"

	if err := hubutils.ValidateActor(actor); err != nil {
		return nil, r.errs.Wrap(op, huberrors.CodeInvalidActor, err)
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

	if !r.canGrant(identity, actor, now) {
		return nil, r.errs.Errf(op, huberrors.CodeInsufficientPermissions,
			"%s may not revoke permissions on identity %s", actor, identityID).WithIdentity(identityID)
	}

	_, revoked, err := r.permissions.Revoke(identity.Permissions, permissionID)
	if err != nil {
		return nil, err
	}

	// A nil-valued operation deletes the record.
	deleteOperation := storage.Operation{Key: hubprovider.PermissionKey(permissionID)}

	entry := compliance.NewEntry(compliance.ActionRevokePermission, actor, identityID,
		compliance.ResultSuccess, now).WithChanges(map[string]string{
		"permissionId": permissionID,
		"resource":     revoked.Resource,
		"action":       revoked.Action,
	})

	if err := r.commit(op, identityID, []storage.Operation{deleteOperation}, entry); err != nil {
		return nil, err
	}

	return &revoked, nil
}

// ListPermissions returns every permission entry currently recorded on the
// identity, including expired ones. Evaluation treats expired entries as
// absent.
func (r *Registry) ListPermissions(identityID string) ([]permission.Permission, error) {
	const op = "ListPermissions"

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	identity, err := r.loadIdentity(op, identityID)
	if err != nil {
		return nil, err
	}

	return identity.Permissions, nil
}

// EvaluatePermission reports whether the actor may perform the action on the
// resource of the given identity, under deny-overrides-allow semantics.
func (r *Registry) EvaluatePermission(identityID, actor, resource, action string,
	now time.Time) (bool, error) {
	const op = "EvaluatePermission"

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	identity, err := r.loadIdentity(op, identityID)
	if err != nil {
		return false, err
	}

	return r.permissions.Evaluate(identity.Permissions, identity.DID, actor, resource, action, now), nil
}

// commit appends the audit entry to the staged operations and writes them in
// one batch. Commands whose engine reported nothing to write (idempotent
// no-ops) commit nothing, and no audit entry is recorded.
func (r *Registry) commit(op, auditScope string, operations []storage.Operation,
	entry compliance.AuditEntry) error {
	if len(operations) == 0 {
		return nil
	}

	auditOperation, err := r.auditOperation(op, auditScope, entry)
	if err != nil {
		return err
	}

	operations = append(operations, auditOperation)

	if err := r.store.Batch(operations); err != nil {
		return r.errs.Wrap(op, huberrors.CodeStorageFailure, err)
	}

	return nil
}

func (r *Registry) complianceOperation(op, identityID string,
	data *compliance.Data) (storage.Operation, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return storage.Operation{}, r.errs.Wrap(op, huberrors.CodeInternal, err).WithIdentity(identityID)
	}

	return storage.Operation{
		Key:   hubprovider.ComplianceKey(identityID),
		Value: dataBytes,
		Tags: []storage.Tag{
			hubprovider.Tag(hubprovider.TagEntityType, hubprovider.EntityTypeCompliance),
		},
	}, nil
}

func (r *Registry) permissionOperation(op, identityID string,
	grant *permission.Permission) (storage.Operation, error) {
	grantBytes, err := json.Marshal(grant)
	if err != nil {
		return storage.Operation{}, r.errs.Wrap(op, huberrors.CodeInternal, err).WithIdentity(identityID)
	}

	return storage.Operation{
		Key:   hubprovider.PermissionKey(grant.ID),
		Value: grantBytes,
		Tags: []storage.Tag{
			hubprovider.Tag(hubprovider.TagEntityType, hubprovider.EntityTypePermission),
			hubprovider.Tag(hubprovider.TagIdentityID, identityID),
		},
	}, nil
}

// credentialAuditScope picks the audit trail a credential command records
// under: the subject's identity when the subject DID is bound to one, else
// the subject DID itself.
func (r *Registry) credentialAuditScope(cred *credential.Credential) string {
	subjectDID, _ := cred.CredentialSubject["id"].(string)
	if subjectDID == "" {
		return cred.Issuer
	}

	indexBytes, err := r.store.Get(hubprovider.DIDIndexKey(subjectDID))
	if err != nil {
		return subjectDID
	}

	index := didIndexRecord{}
	if err := json.Unmarshal(indexBytes, &index); err != nil {
		return subjectDID
	}

	return index.IdentityID
}
