/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operation

import (
	"github.com/trustbloc/identity-hub/pkg/bridge"
	"github.com/trustbloc/identity-hub/pkg/compliance"
	"github.com/trustbloc/identity-hub/pkg/credential"
	"github.com/trustbloc/identity-hub/pkg/huberrors"
	"github.com/trustbloc/identity-hub/pkg/identity"
	"github.com/trustbloc/identity-hub/pkg/permission"
	"github.com/trustbloc/identity-hub/pkg/restapi/models"
	"github.com/trustbloc/identity-hub/pkg/zkproof"
)

// genericError model
//
// swagger:response genericError
type genericError struct { // nolint: unused,deadcode
	// in: body
	Body huberrors.Error
}

// createIdentityReq model
//
// swagger:parameters createIdentityReq
type createIdentityReq struct { // nolint: unused,deadcode
	// in: body
	Command models.Command[models.CreateIdentityRequest]
}

// createIdentityRes model
//
// swagger:response createIdentityRes
type createIdentityRes struct { // nolint: unused,deadcode
	Location string
	// in: body
	Body models.CreateIdentityResponse
}

// updateIdentityReq model
//
// swagger:parameters updateIdentityReq
type updateIdentityReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	IdentityID string `json:"identityID"`
	// in: body
	Command models.Command[models.UpdateIdentityRequest]
}

// deactivateIdentityReq model
//
// swagger:parameters deactivateIdentityReq
type deactivateIdentityReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	IdentityID string `json:"identityID"`
	// in: body
	Command models.Command[models.DeactivateIdentityRequest]
}

// addProtocolReq model
//
// swagger:parameters addProtocolReq
type addProtocolReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	IdentityID string `json:"identityID"`
	// in: body
	Command models.Command[models.AddProtocolRequest]
}

// translateIdentityReq model
//
// swagger:parameters translateIdentityReq
type translateIdentityReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	IdentityID string `json:"identityID"`
	// in: body
	Command models.Command[models.TranslateIdentityRequest]
}

// translateIdentityRes model
//
// swagger:response translateIdentityRes
type translateIdentityRes struct { // nolint: unused,deadcode
	// in: body
	Body bridge.Result
}

// identityRes model
//
// swagger:response identityRes
type identityRes struct { // nolint: unused,deadcode
	// in: body
	Body identity.UniversalIdentity
}

// getIdentityReq model
//
// swagger:parameters getIdentityReq
type getIdentityReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	IdentityID string `json:"identityID"`
}

// getIdentityByDIDReq model
//
// swagger:parameters getIdentityByDIDReq
type getIdentityByDIDReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	DID string `json:"did"`
}

// listIdentitiesReq model
//
// swagger:parameters listIdentitiesReq
type listIdentitiesReq struct { // nolint: unused,deadcode
	// in: query
	Creator string `json:"creator"`
	// in: query
	Limit int `json:"limit"`
	// in: query
	After string `json:"after"`
}

// identityListRes model
//
// swagger:response identityListRes
type identityListRes struct { // nolint: unused,deadcode
	// in: body
	Body []identity.UniversalIdentity
}

// registerIssuerReq model
//
// swagger:parameters registerIssuerReq
type registerIssuerReq struct { // nolint: unused,deadcode
	// in: body
	Command models.Command[models.RegisterIssuerRequest]
}

// deactivateIssuerReq model
//
// swagger:parameters deactivateIssuerReq
type deactivateIssuerReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	IssuerDID string `json:"issuerDID"`
	// in: body
	Command models.Command[models.DeactivateIssuerRequest]
}

// getIssuerReq model
//
// swagger:parameters getIssuerReq
type getIssuerReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	IssuerDID string `json:"issuerDID"`
}

// issuerRes model
//
// swagger:response issuerRes
type issuerRes struct { // nolint: unused,deadcode
	// in: body
	Body credential.Issuer
}

// issuerListRes model
//
// swagger:response issuerListRes
type issuerListRes struct { // nolint: unused,deadcode
	// in: body
	Body []credential.Issuer
}

// issueCredentialReq model
//
// swagger:parameters issueCredentialReq
type issueCredentialReq struct { // nolint: unused,deadcode
	// in: body
	Command models.Command[models.IssueCredentialRequest]
}

// issueCredentialRes model
//
// swagger:response issueCredentialRes
type issueCredentialRes struct { // nolint: unused,deadcode
	Location string
	// in: body
	Body models.IssueCredentialResponse
}

// verifyCredentialReq model
//
// swagger:parameters verifyCredentialReq
type verifyCredentialReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	CredentialID string `json:"credentialID"`
	// in: body
	Command models.Command[models.VerifyCredentialRequest]
}

// revokeCredentialReq model
//
// swagger:parameters revokeCredentialReq
type revokeCredentialReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	CredentialID string `json:"credentialID"`
	// in: body
	Command models.Command[models.RevokeCredentialRequest]
}

// revocationRes model
//
// swagger:response revocationRes
type revocationRes struct { // nolint: unused,deadcode
	// in: body
	Body credential.RevocationRecord
}

// getCredentialReq model
//
// swagger:parameters getCredentialReq
type getCredentialReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	CredentialID string `json:"credentialID"`
}

// queryCredentialsReq model
//
// swagger:parameters queryCredentialsReq
type queryCredentialsReq struct { // nolint: unused,deadcode
	// in: query
	Issuer string `json:"issuer"`
	// in: query
	Subject string `json:"subject"`
}

// getCredentialStatusReq model
//
// swagger:parameters getCredentialStatusReq
type getCredentialStatusReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	CredentialID string `json:"credentialID"`
}

// credentialRes model
//
// swagger:response credentialRes
type credentialRes struct { // nolint: unused,deadcode
	// in: body
	Body credential.Credential
}

// credentialListRes model
//
// swagger:response credentialListRes
type credentialListRes struct { // nolint: unused,deadcode
	// in: body
	Body []credential.Credential
}

// credentialStatusRes model
//
// swagger:response credentialStatusRes
type credentialStatusRes struct { // nolint: unused,deadcode
	// in: body
	Body models.CredentialStatusResponse
}

// registerCircuitReq model
//
// swagger:parameters registerCircuitReq
type registerCircuitReq struct { // nolint: unused,deadcode
	// in: body
	Command models.Command[models.RegisterCircuitRequest]
}

// deactivateCircuitReq model
//
// swagger:parameters deactivateCircuitReq
type deactivateCircuitReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	CircuitID string `json:"circuitID"`
	// in: body
	Command models.Command[models.DeactivateCircuitRequest]
}

// getCircuitReq model
//
// swagger:parameters getCircuitReq
type getCircuitReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	CircuitID string `json:"circuitID"`
}

// listCircuitsReq model
//
// swagger:parameters listCircuitsReq
type listCircuitsReq struct { // nolint: unused,deadcode
	// in: query
	Limit int `json:"limit"`
	// in: query
	After string `json:"after"`
}

// circuitRes model
//
// swagger:response circuitRes
type circuitRes struct { // nolint: unused,deadcode
	// in: body
	Body zkproof.Circuit
}

// circuitListRes model
//
// swagger:response circuitListRes
type circuitListRes struct { // nolint: unused,deadcode
	// in: body
	Body []zkproof.Circuit
}

// issueZKCredentialReq model
//
// swagger:parameters issueZKCredentialReq
type issueZKCredentialReq struct { // nolint: unused,deadcode
	// in: body
	Command models.Command[models.IssueZKCredentialRequest]
}

// issueZKCredentialRes model
//
// swagger:response issueZKCredentialRes
type issueZKCredentialRes struct { // nolint: unused,deadcode
	Location string
	// in: body
	Body models.IssueZKCredentialResponse
}

// verifyZKProofReq model
//
// swagger:parameters verifyZKProofReq
type verifyZKProofReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	ZKCredentialID string `json:"zkCredentialID"`
	// in: body
	Command models.Command[models.VerifyZKProofRequest]
}

// verificationRes model
//
// swagger:response verificationRes
type verificationRes struct { // nolint: unused,deadcode
	// in: body
	Body models.VerificationResponse
}

// createDisclosureReq model
//
// swagger:parameters createDisclosureReq
type createDisclosureReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	ZKCredentialID string `json:"zkCredentialID"`
	// in: body
	Command models.Command[models.CreateDisclosureRequest]
}

// disclosureRes model
//
// swagger:response disclosureRes
type disclosureRes struct { // nolint: unused,deadcode
	// in: body
	Body models.DisclosureResponse
}

// verifyDisclosureReq model
//
// swagger:parameters verifyDisclosureReq
type verifyDisclosureReq struct { // nolint: unused,deadcode
	// in: body
	Command models.Command[models.VerifyDisclosureRequest]
}

// verifyDisclosureRes model
//
// swagger:response verifyDisclosureRes
type verifyDisclosureRes struct { // nolint: unused,deadcode
	// in: body
	Body zkproof.Disclosure
}

// getZKCredentialReq model
//
// swagger:parameters getZKCredentialReq
type getZKCredentialReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	ZKCredentialID string `json:"zkCredentialID"`
}

// listZKCredentialsReq model
//
// swagger:parameters listZKCredentialsReq
type listZKCredentialsReq struct { // nolint: unused,deadcode
	// in: query
	Holder string `json:"holder"`
	// in: query
	Circuit string `json:"circuit"`
	// in: query
	Limit int `json:"limit"`
	// in: query
	After string `json:"after"`
}

// zkCredentialRes model
//
// swagger:response zkCredentialRes
type zkCredentialRes struct { // nolint: unused,deadcode
	// in: body
	Body zkproof.ZKCredential
}

// zkCredentialListRes model
//
// swagger:response zkCredentialListRes
type zkCredentialListRes struct { // nolint: unused,deadcode
	// in: body
	Body []zkproof.ZKCredential
}

// updateComplianceReq model
//
// swagger:parameters updateComplianceReq
type updateComplianceReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	IdentityID string `json:"identityID"`
	// in: body
	Command models.Command[models.UpdateComplianceRequest]
}

// getComplianceReq model
//
// swagger:parameters getComplianceReq
type getComplianceReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	IdentityID string `json:"identityID"`
}

// complianceRes model
//
// swagger:response complianceRes
type complianceRes struct { // nolint: unused,deadcode
	// in: body
	Body compliance.Data
}

// performAuditReq model
//
// swagger:parameters performAuditReq
type performAuditReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	IdentityID string `json:"identityID"`
	// in: body
	Command models.Command[models.PerformAuditRequest]
}

// auditRes model
//
// swagger:response auditRes
type auditRes struct { // nolint: unused,deadcode
	// in: body
	Body compliance.AuditResult
}

// auditTrailReq model
//
// swagger:parameters auditTrailReq
type auditTrailReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	IdentityID string `json:"identityID"`
	// in: query
	Limit int `json:"limit"`
	// in: query
	After string `json:"after"`
}

// auditTrailRes model
//
// swagger:response auditTrailRes
type auditTrailRes struct { // nolint: unused,deadcode
	// in: body
	Body []compliance.AuditEntry
}

// grantPermissionReq model
//
// swagger:parameters grantPermissionReq
type grantPermissionReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	IdentityID string `json:"identityID"`
	// in: body
	Command models.Command[models.GrantPermissionRequest]
}

// revokePermissionReq model
//
// swagger:parameters revokePermissionReq
type revokePermissionReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	IdentityID string `json:"identityID"`
	// in: path
	// required: true
	PermissionID string `json:"permissionID"`
	// in: body
	Command models.Command[models.RevokePermissionRequest]
}

// listPermissionsReq model
//
// swagger:parameters listPermissionsReq
type listPermissionsReq struct { // nolint: unused,deadcode
	// in: path
	// required: true
	IdentityID string `json:"identityID"`
}

// permissionRes model
//
// swagger:response permissionRes
type permissionRes struct { // nolint: unused,deadcode
	// in: body
	Body permission.Permission
}

// permissionListRes model
//
// swagger:response permissionListRes
type permissionListRes struct { // nolint: unused,deadcode
	// in: body
	Body []permission.Permission
}

// healthCheckRes model
//
// swagger:response healthCheckRes
type healthCheckRes struct { // nolint: unused,deadcode
	// in: body
	Body models.HealthCheckResponse
}
