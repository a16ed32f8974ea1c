/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package models defines the request and response bodies of the identity hub
// REST API. Every mutating request arrives wrapped in a Command envelope that
// names the acting DID; payloads are typed per command and validated
// structurally before the registry sees them.
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/trustbloc/identity-hub/pkg/compliance"
	"github.com/trustbloc/identity-hub/pkg/hubutils"
	"github.com/trustbloc/identity-hub/pkg/identity"
	"github.com/trustbloc/identity-hub/pkg/permission"
	"github.com/trustbloc/identity-hub/pkg/zkproof"
)

// Payload is one command-specific request body.
type Payload interface {
	Validate() error
}

// Command is the envelope every command request arrives in: the acting DID
// (the accountable party recorded in the audit trail) plus one payload.
type Command[P Payload] struct {
	Actor   string `json:"actor"`
	Payload P      `json:"payload"`
}

// Validate checks the actor reference, then the payload.
func (c Command[P]) Validate() error {
	if err := hubutils.ValidateActor(c.Actor); err != nil {
		return err
	}

	return c.Payload.Validate()
}

// CreateIdentityRequest carries the initial state of a new universal identity.
type CreateIdentityRequest struct {
	Protocols     []identity.ProtocolIdentity `json:"protocols"`
	SecurityLevel identity.SecurityLevel      `json:"securityLevel,omitempty"`
	Metadata      *identity.IdentityMetadata  `json:"metadata,omitempty"`
}

// Validate implements Payload.
func (r CreateIdentityRequest) Validate() error {
	if len(r.Protocols) == 0 {
		return errors.New("at least one initial protocol identity is required")
	}

	for i, binding := range r.Protocols {
		if binding.Protocol == "" || binding.Identifier == "" {
			return fmt.Errorf("protocol identity %d is missing its protocol or identifier", i)
		}
	}

	return nil
}

// UpdateIdentityRequest carries the identity fields to change.
type UpdateIdentityRequest struct {
	identity.UpdateRequest
}

// Validate implements Payload.
func (r UpdateIdentityRequest) Validate() error {
	if r.IsEmpty() {
		return errors.New("update carries no changes")
	}

	return nil
}

// AddProtocolRequest carries one protocol identity to bind.
type AddProtocolRequest struct {
	identity.ProtocolIdentity
}

// Validate implements Payload.
func (r AddProtocolRequest) Validate() error {
	if r.Protocol == "" {
		return errors.New("protocol is required")
	}

	if r.Identifier == "" {
		return errors.New("identifier is required")
	}

	return nil
}

// TranslateIdentityRequest names the protocol pair to translate between.
type TranslateIdentityRequest struct {
	SourceProtocol identity.Protocol `json:"sourceProtocol"`
	TargetProtocol identity.Protocol `json:"targetProtocol"`
}

// Validate implements Payload.
func (r TranslateIdentityRequest) Validate() error {
	if r.SourceProtocol == "" {
		return errors.New("source protocol is required")
	}

	if r.TargetProtocol == "" {
		return errors.New("target protocol is required")
	}

	return nil
}

// RegisterIssuerRequest adds a credential issuer to the allow-list.
type RegisterIssuerRequest struct {
	DID             string   `json:"did"`
	Name            string   `json:"name"`
	AuthorizedTypes []string `json:"authorizedTypes,omitempty"`
}

// Validate implements Payload.
func (r RegisterIssuerRequest) Validate() error {
	if err := hubutils.ValidateDID(r.DID); err != nil {
		return err
	}

	if r.Name == "" {
		return errors.New("issuer name is required")
	}

	return nil
}

// IssueCredentialRequest carries everything needed to issue a verifiable credential.
type IssueCredentialRequest struct {
	IssuerDID         string                 `json:"issuerDid"`
	SubjectDID        string                 `json:"subjectDid"`
	Type              []string               `json:"type"`
	CredentialSubject map[string]interface{} `json:"credentialSubject"`
	ExpirationDate    *time.Time             `json:"expirationDate,omitempty"`
}

// Validate implements Payload.
func (r IssueCredentialRequest) Validate() error {
	if err := hubutils.ValidateDID(r.IssuerDID); err != nil {
		return err
	}

	if err := hubutils.ValidateDID(r.SubjectDID); err != nil {
		return err
	}

	if len(r.Type) == 0 {
		return errors.New("at least one credential type is required")
	}

	if len(r.CredentialSubject) == 0 {
		return errors.New("credential subject is required")
	}

	return nil
}

// RevokeCredentialRequest carries the reason a credential is being revoked.
// The reason is recorded verbatim on the revocation record and may be blank.
type RevokeCredentialRequest struct {
	Reason string `json:"reason,omitempty"`
}

// Validate implements Payload.
func (r RevokeCredentialRequest) Validate() error {
	return nil
}

// RegisterCircuitRequest registers a zero-knowledge circuit and its verification key.
type RegisterCircuitRequest struct {
	CircuitID       string `json:"circuitId"`
	CircuitType     string `json:"circuitType"`
	CircuitData     string `json:"circuitData,omitempty"`
	VerificationKey string `json:"verificationKey"`
}

// Validate implements Payload.
func (r RegisterCircuitRequest) Validate() error {
	if r.CircuitID == "" {
		return errors.New("circuit ID is required")
	}

	if r.CircuitType == "" {
		return errors.New("circuit type is required")
	}

	if r.VerificationKey == "" {
		return errors.New("verification key is required")
	}

	return nil
}

// IssueZKCredentialRequest carries a proof submission for a zero-knowledge credential.
type IssueZKCredentialRequest struct {
	Holder              string                     `json:"holder"`
	CircuitID           string                     `json:"circuitId"`
	PublicInputs        map[string]interface{}     `json:"publicInputs"`
	Proof               *zkproof.Proof             `json:"proof"`
	PrivacyParams       *zkproof.PrivacyParameters `json:"privacyParams,omitempty"`
	SelectiveDisclosure bool                       `json:"selectiveDisclosure,omitempty"`
	ExpiresAt           *time.Time                 `json:"expiresAt,omitempty"`
}

// Validate implements Payload.
func (r IssueZKCredentialRequest) Validate() error {
	if err := hubutils.ValidateDID(r.Holder); err != nil {
		return err
	}

	if r.CircuitID == "" {
		return errors.New("circuit ID is required")
	}

	if r.Proof == nil {
		return errors.New("proof is required")
	}

	return nil
}

// ToIssueRequest converts the request body into the engine's issue request.
func (r IssueZKCredentialRequest) ToIssueRequest() *zkproof.IssueRequest {
	return &zkproof.IssueRequest{
		Holder:              r.Holder,
		CircuitID:           r.CircuitID,
		PublicInputs:        r.PublicInputs,
		Proof:               r.Proof,
		PrivacyParams:       r.PrivacyParams,
		SelectiveDisclosure: r.SelectiveDisclosure,
		ExpiresAt:           r.ExpiresAt,
	}
}

// CreateDisclosureRequest marks which public inputs to reveal; fields absent
// or set to false are withheld as digests.
type CreateDisclosureRequest struct {
	Disclose map[string]bool `json:"disclose"`
}

// Validate implements Payload.
func (r CreateDisclosureRequest) Validate() error {
	if len(r.Disclose) == 0 {
		return errors.New("disclosure field map is required")
	}

	return nil
}

// VerifyDisclosureRequest carries a selective disclosure proof and the
// verifier's full attribute schema for the credential's circuit.
type VerifyDisclosureRequest struct {
	Proof  string   `json:"proof"`
	Schema []string `json:"schema"`
}

// Validate implements Payload.
func (r VerifyDisclosureRequest) Validate() error {
	if r.Proof == "" {
		return errors.New("disclosure proof is required")
	}

	if len(r.Schema) == 0 {
		return errors.New("schema attribute list is required")
	}

	return nil
}

// UpdateComplianceRequest overwrites one regulation sub-record.
type UpdateComplianceRequest struct {
	compliance.Update
}

// Validate implements Payload.
func (r UpdateComplianceRequest) Validate() error {
	if r.Regulation == "" {
		return errors.New("regulation is required")
	}

	return nil
}

// PerformAuditRequest names the audit to run against an identity's compliance data.
type PerformAuditRequest struct {
	AuditType compliance.AuditType `json:"auditType"`
}

// Validate implements Payload.
func (r PerformAuditRequest) Validate() error {
	if r.AuditType == "" {
		return errors.New("audit type is required")
	}

	return nil
}

// GrantPermissionRequest grants or denies an action on a resource to a grantee.
type GrantPermissionRequest struct {
	Resource  string            `json:"resource"`
	Action    string            `json:"action"`
	Grantee   string            `json:"grantee,omitempty"`
	Effect    permission.Effect `json:"effect"`
	ExpiresAt *time.Time        `json:"expiresAt,omitempty"`
}

// Validate implements Payload.
func (r GrantPermissionRequest) Validate() error {
	if r.Resource == "" {
		return errors.New("resource is required")
	}

	if r.Action == "" {
		return errors.New("action is required")
	}

	if r.Effect == "" {
		return errors.New("effect is required")
	}

	return nil
}

// DeactivateIdentityRequest has no fields; the identity is named in the path.
type DeactivateIdentityRequest struct{}

// Validate implements Payload.
func (r DeactivateIdentityRequest) Validate() error { return nil }

// DeactivateIssuerRequest has no fields; the issuer is named in the path.
type DeactivateIssuerRequest struct{}

// Validate implements Payload.
func (r DeactivateIssuerRequest) Validate() error { return nil }

// DeactivateCircuitRequest has no fields; the circuit is named in the path.
type DeactivateCircuitRequest struct{}

// Validate implements Payload.
func (r DeactivateCircuitRequest) Validate() error { return nil }

// VerifyCredentialRequest has no fields; the credential is named in the path.
type VerifyCredentialRequest struct{}

// Validate implements Payload.
func (r VerifyCredentialRequest) Validate() error { return nil }

// VerifyZKProofRequest has no fields; the credential is named in the path.
type VerifyZKProofRequest struct{}

// Validate implements Payload.
func (r VerifyZKProofRequest) Validate() error { return nil }

// RevokePermissionRequest has no fields; the permission is named in the path.
type RevokePermissionRequest struct{}

// Validate implements Payload.
func (r RevokePermissionRequest) Validate() error { return nil }

// CreateIdentityResponse is returned when a new identity is registered.
type CreateIdentityResponse struct {
	ID            string                 `json:"id"`
	DID           string                 `json:"did"`
	SecurityLevel identity.SecurityLevel `json:"securityLevel"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// IssueCredentialResponse is returned when a credential is issued.
type IssueCredentialResponse struct {
	CredentialID string     `json:"credentialId"`
	Type         []string   `json:"type"`
	IssuedAt     time.Time  `json:"issuedAt"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// IssueZKCredentialResponse is returned when a zero-knowledge credential is
// issued. The nullifier is included so holders can detect seed reuse before
// retrying.
type IssueZKCredentialResponse struct {
	ZKCredentialID string     `json:"zkCredentialId"`
	CircuitID      string     `json:"circuitId"`
	Holder         string     `json:"holder"`
	Nullifier      string     `json:"nullifier"`
	PrivacyLevel   string     `json:"privacyLevel"`
	IssuedAt       time.Time  `json:"issuedAt"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
}

// VerificationResponse reports the outcome of a verification that passed.
// Failed verifications are returned as classified errors instead.
type VerificationResponse struct {
	Verified bool `json:"verified"`
}

// DisclosureResponse pairs a disclosure record with its signed compact serialization.
type DisclosureResponse struct {
	Disclosure *zkproof.Disclosure `json:"disclosure"`
	Proof      string              `json:"proof"`
}

// CredentialStatusResponse reports a credential's revocation state.
type CredentialStatusResponse struct {
	CredentialID string `json:"credentialId"`
	Revoked      bool   `json:"revoked"`
}

// HealthCheckResponse reports service liveness.
type HealthCheckResponse struct {
	Status      string    `json:"status"`
	CurrentTime time.Time `json:"currentTime"`
}

// ErrorResponse is the body returned for failures that carry no
// classification, such as unreadable or malformed requests.
type ErrorResponse struct {
	Message string `json:"message"`
}
