/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credential issues, revokes and verifies W3C-shaped verifiable
// credentials against an issuer allow-list. Issued credentials never mutate:
// revocation writes a separate status record keyed by credential ID, and
// verification always checks existence, revocation, expiry and proof in that
// fixed order. Mutating operations return the ledger writes they need so the
// caller can commit them in one atomic batch alongside its audit entry.
package credential

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/trustbloc/identity-hub/pkg/cryptoservice"
	"github.com/trustbloc/identity-hub/pkg/hubprovider"
	"github.com/trustbloc/identity-hub/pkg/huberrors"
)

// Credential context and type constants.
const (
	ContextCredentialsV1 = "https://www.w3.org/2018/credentials/v1"
	ContextIdentityHubV1 = "https://w3id.org/identity-hub/credentials/v1"

	TypeVerifiableCredential = "VerifiableCredential"

	statusType   = "RevocationList2020Status"
	proofPurpose = "assertionMethod"
)

// Proof is a linked-data proof attached to an issued credential. ProofValue
// is the base58-encoded signature over the credential serialized without its
// proof.
type Proof struct {
	Type               string    `json:"type"`
	Created            time.Time `json:"created"`
	VerificationMethod string    `json:"verificationMethod"`
	ProofPurpose       string    `json:"proofPurpose"`
	ProofValue         string    `json:"proofValue"`
}

// Status points at the revocation record for a credential.
type Status struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Credential is a W3C-shaped verifiable credential.
type Credential struct {
	Context           []string               `json:"@context"`
	Type              []string               `json:"type"`
	ID                string                 `json:"id"`
	Issuer            string                 `json:"issuer"`
	IssuanceDate      time.Time              `json:"issuanceDate"`
	ExpirationDate    *time.Time             `json:"expirationDate,omitempty"`
	CredentialSubject map[string]interface{} `json:"credentialSubject"`
	Proof             *Proof                 `json:"proof,omitempty"`
	Status            *Status                `json:"status,omitempty"`
}

// RevocationRecord marks a credential revoked. It lives in a separate record
// keyed by credential ID so the credential itself never mutates.
type RevocationRecord struct {
	CredentialID string    `json:"credentialId"`
	Revoked      bool      `json:"revoked"`
	Reason       string    `json:"reason,omitempty"`
	RevokedAt    time.Time `json:"revokedAt"`
}

// CryptoService is the narrow crypto surface the engine needs: minting
// hub-held signing keys for registered issuers and producing/checking proof
// values.
type CryptoService interface {
	NewDIDKey() (string, string, error)
	Sign(verificationMethod string, data []byte) ([]byte, error)
	Verify(verificationMethod string, data, signatureBytes []byte) error
}

// Engine implements the credential operations over the shared identity hub
// store.
type Engine struct {
	store  *hubprovider.Store
	crypto CryptoService
	errs   *huberrors.Catalog
}

// NewEngine returns a credential engine backed by the given store and crypto
// service.
func NewEngine(store *hubprovider.Store, cryptoService CryptoService) *Engine {
	return &Engine{
		store:  store,
		crypto: cryptoService,
		errs:   huberrors.NewCatalog("credential-engine"),
	}
}

// IssueVerifiableCredential builds, signs and prepares storage of a new
// credential. The issuer must be registered, active and authorized for every
// requested type. The returned operations must be committed through one
// batch.
func (e *Engine) IssueVerifiableCredential(issuerDID, subjectDID string, credentialType []string,
	subject map[string]interface{}, expiration *time.Time, now time.Time) (*Credential, []storage.Operation, error) {
	const op = "IssueVerifiableCredential"

	if err := e.validateIssuanceRequest(subjectDID, credentialType, subject); err != nil {
		return nil, nil, err
	}

	issuer, err := e.authorizedIssuer(issuerDID, credentialType)
	if err != nil {
		return nil, nil, err
	}

	credentialID := "urn:uuid:" + uuid.New().String()

	credentialSubject := make(map[string]interface{}, len(subject)+1)
	for k, v := range subject {
		credentialSubject[k] = v
	}

	if _, ok := credentialSubject["id"]; !ok {
		credentialSubject["id"] = subjectDID
	}

	cred := &Credential{
		Context:           []string{ContextCredentialsV1, ContextIdentityHubV1},
		Type:              buildTypeList(credentialType),
		ID:                credentialID,
		Issuer:            issuerDID,
		IssuanceDate:      now,
		ExpirationDate:    expiration,
		CredentialSubject: credentialSubject,
		Status:            &Status{ID: credentialID + "#status", Type: statusType},
	}

	signingInput, err := credentialSigningInput(cred)
	if err != nil {
		return nil, nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	signature, err := e.crypto.Sign(issuer.VerificationMethod, signingInput)
	if err != nil {
		return nil, nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	cred.Proof = &Proof{
		Type:               cryptoservice.SignatureType,
		Created:            now,
		VerificationMethod: issuer.VerificationMethod,
		ProofPurpose:       proofPurpose,
		ProofValue:         base58.Encode(signature),
	}

	credentialBytes, err := json.Marshal(cred)
	if err != nil {
		return nil, nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	tags := []storage.Tag{
		hubprovider.Tag(hubprovider.TagEntityType, hubprovider.EntityTypeCredential),
		hubprovider.Tag(hubprovider.TagIssuer, issuerDID),
		hubprovider.Tag(hubprovider.TagSubject, subjectDID),
	}

	if len(credentialType) > 0 {
		tags = append(tags, hubprovider.Tag(hubprovider.TagCredentialType, credentialType[0]))
	}

	return cred, []storage.Operation{{
		Key:   hubprovider.CredentialKey(credentialID),
		Value: credentialBytes,
		Tags:  tags,
	}}, nil
}

// GetCredential returns the stored credential with the given ID.
func (e *Engine) GetCredential(credentialID string) (*Credential, error) {
	const op = "GetCredential"

	credentialBytes, err := e.store.Get(hubprovider.CredentialKey(credentialID))
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, e.errs.Errf(op, huberrors.CodeCredentialNotFound,
				"no credential with id %s", credentialID)
		}

		return nil, e.errs.Wrap(op, huberrors.CodeStorageFailure, err)
	}

	cred := &Credential{}
	if err := json.Unmarshal(credentialBytes, cred); err != nil {
		return nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	return cred, nil
}

// QueryCredentials returns stored credentials filtered by issuer and/or
// subject DID; blank filters match everything. Results are ordered by
// credential ID.
func (e *Engine) QueryCredentials(issuerDID, subjectDID string) ([]Credential, error) {
	const op = "QueryCredentials"

	tagName, tagValue := hubprovider.TagEntityType, hubprovider.EntityTypeCredential

	switch {
	case issuerDID != "":
		tagName, tagValue = hubprovider.TagIssuer, issuerDID
	case subjectDID != "":
		tagName, tagValue = hubprovider.TagSubject, subjectDID
	}

	entries, err := e.store.QueryTag(tagName, tagValue)
	if err != nil {
		return nil, e.errs.Wrap(op, huberrors.CodeStorageFailure, err)
	}

	credentials := make([]Credential, 0, len(entries))

	for _, entry := range entries {
		var cred Credential
		if err := json.Unmarshal(entry.Value, &cred); err != nil {
			return nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
		}

		if issuerDID != "" && cred.Issuer != issuerDID {
			continue
		}

		if subjectDID != "" && stringClaim(cred.CredentialSubject, "id") != subjectDID {
			continue
		}

		credentials = append(credentials, cred)
	}

	return credentials, nil
}

// RevokeCredential prepares the revocation status record for a credential.
// Revoking an already-revoked credential is a no-op success: the original
// record and its reason are preserved and no operations are returned.
func (e *Engine) RevokeCredential(credentialID, reason string,
	now time.Time) (*RevocationRecord, []storage.Operation, error) {
	const op = "RevokeCredential"

	if _, err := e.GetCredential(credentialID); err != nil {
		return nil, nil, err
	}

	existing, err := e.revocationRecord(credentialID)
	if err != nil {
		return nil, nil, err
	}

	if existing != nil && existing.Revoked {
		return existing, nil, nil
	}

	record := &RevocationRecord{
		CredentialID: credentialID,
		Revoked:      true,
		Reason:       reason,
		RevokedAt:    now,
	}

	recordBytes, err := json.Marshal(record)
	if err != nil {
		return nil, nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	return record, []storage.Operation{{
		Key:   hubprovider.CredentialStatusKey(credentialID),
		Value: recordBytes,
	}}, nil
}

// IsCredentialRevoked reads the credential's status record; absence means
// not revoked.
func (e *Engine) IsCredentialRevoked(credentialID string) (bool, error) {
	record, err := e.revocationRecord(credentialID)
	if err != nil {
		return false, err
	}

	return record != nil && record.Revoked, nil
}

// VerifyCredential checks a stored credential. The checks always run in a
// fixed order - existence, revocation, expiry, proof - so a revoked and
// expired credential reports revoked first.
func (e *Engine) VerifyCredential(credentialID string, now time.Time) error {
	const op = "VerifyCredential"

	cred, err := e.GetCredential(credentialID)
	if err != nil {
		return err
	}

	revoked, err := e.IsCredentialRevoked(credentialID)
	if err != nil {
		return err
	}

	if revoked {
		return e.errs.Errf(op, huberrors.CodeCredentialRevoked, "credential %s is revoked", credentialID)
	}

	if cred.ExpirationDate != nil && now.After(*cred.ExpirationDate) {
		return e.errs.Errf(op, huberrors.CodeCredentialExpired,
			"credential %s expired at %s", credentialID, cred.ExpirationDate.Format(time.RFC3339))
	}

	return e.verifyProof(cred)
}

func (e *Engine) verifyProof(cred *Credential) error {
	const op = "VerifyCredential"

	if cred.Proof == nil || cred.Proof.ProofValue == "" {
		return e.errs.Errf(op, huberrors.CodeInvalidCredentialProof, "credential %s has no proof", cred.ID)
	}

	signature := base58.Decode(cred.Proof.ProofValue)
	if len(signature) == 0 {
		return e.errs.Errf(op, huberrors.CodeInvalidCredentialProof,
			"credential %s proof value is not base58", cred.ID)
	}

	signingInput, err := credentialSigningInput(cred)
	if err != nil {
		return e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	if err := e.crypto.Verify(cred.Proof.VerificationMethod, signingInput, signature); err != nil {
		return e.errs.Wrap(op, huberrors.CodeInvalidCredentialProof, err)
	}

	return nil
}

func (e *Engine) validateIssuanceRequest(subjectDID string, credentialType []string,
	subject map[string]interface{}) error {
	const op = "IssueVerifiableCredential"

	if subjectDID == "" {
		return e.errs.Errf(op, huberrors.CodeInvalidDID, "subject DID is required")
	}

	if len(credentialType) == 0 {
		return e.errs.Errf(op, huberrors.CodeInvalidCredentialType, "at least one credential type is required")
	}

	if len(subject) == 0 {
		return e.errs.Errf(op, huberrors.CodeInvalidCredentialSubject, "credential subject is required")
	}

	return nil
}

// authorizedIssuer resolves the issuer and enforces the allow-list: the
// issuer must be registered, active and authorized for every requested type.
func (e *Engine) authorizedIssuer(issuerDID string, credentialType []string) (*Issuer, error) {
	const op = "IssueVerifiableCredential"

	issuer, err := e.GetIssuer(issuerDID)
	if err != nil {
		if huberrors.IsCode(err, huberrors.CodeIssuerNotFound) {
			return nil, e.errs.Errf(op, huberrors.CodeUnauthorizedIssuer,
				"issuer %s is not in the issuer allow-list", issuerDID)
		}

		return nil, err
	}

	if !issuer.Active {
		return nil, e.errs.Errf(op, huberrors.CodeUnauthorizedIssuer, "issuer %s is deactivated", issuerDID)
	}

	for _, credType := range credentialType {
		if credType == TypeVerifiableCredential {
			continue
		}

		if !issuer.AuthorizedFor(credType) {
			return nil, e.errs.Errf(op, huberrors.CodeUnauthorizedIssuer,
				"issuer %s is not authorized to issue type %q", issuerDID, credType)
		}
	}

	return issuer, nil
}

func (e *Engine) revocationRecord(credentialID string) (*RevocationRecord, error) {
	const op = "IsCredentialRevoked"

	recordBytes, err := e.store.Get(hubprovider.CredentialStatusKey(credentialID))
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, nil
		}

		return nil, e.errs.Wrap(op, huberrors.CodeStorageFailure, err)
	}

	record := &RevocationRecord{}
	if err := json.Unmarshal(recordBytes, record); err != nil {
		return nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	return record, nil
}

// credentialSigningInput serializes the credential without its proof; the
// proof value signs exactly these bytes.
func credentialSigningInput(cred *Credential) ([]byte, error) {
	unsigned := *cred
	unsigned.Proof = nil

	return json.Marshal(&unsigned)
}

// buildTypeList prepends the base credential type, skipping it in the caller
// list to avoid duplicates.
func buildTypeList(credentialType []string) []string {
	types := make([]string, 0, len(credentialType)+1)
	types = append(types, TypeVerifiableCredential)

	for _, credType := range credentialType {
		if credType != TypeVerifiableCredential {
			types = append(types, credType)
		}
	}

	return types
}

func stringClaim(claims map[string]interface{}, key string) string {
	if value, ok := claims[key].(string); ok {
		return value
	}

	return ""
}
