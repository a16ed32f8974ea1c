/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package huberrors

import "fmt"

type descriptor struct {
	message     string
	category    Category
	severity    Severity
	remediation string
}

// Catalog builds classified errors for one component. Each component constructs its
// own catalog at initialization; there is no process-wide mutable registry.
type Catalog struct {
	component string
	registry  map[Code]descriptor
}

// NewCatalog returns a Catalog that stamps every error it builds with the given component name.
func NewCatalog(component string) *Catalog {
	return &Catalog{component: component, registry: newRegistry()}
}

// Err builds the classified error registered for the given code.
func (c *Catalog) Err(operation string, code Code) *Error {
	d := c.describe(code)

	return &Error{
		Code:        code,
		Message:     d.message,
		Category:    d.category,
		Severity:    d.severity,
		Component:   c.component,
		Operation:   operation,
		Remediation: d.remediation,
	}
}

// Errf builds the classified error for the given code with extra detail appended to its message.
func (c *Catalog) Errf(operation string, code Code, format string, args ...interface{}) *Error {
	err := c.Err(operation, code)
	err.Message = fmt.Sprintf("%s: %s", err.Message, fmt.Sprintf(format, args...))

	return err
}

// Wrap builds the classified error for the given code with cause attached for unwrapping.
func (c *Catalog) Wrap(operation string, code Code, cause error) *Error {
	err := c.Err(operation, code)
	err.cause = cause

	return err
}

func (c *Catalog) describe(code Code) descriptor {
	if d, ok := c.registry[code]; ok {
		return d
	}

	return descriptor{
		message:     fmt.Sprintf("unclassified failure (code %d)", code),
		category:    CategoryInternal,
		severity:    SeverityCritical,
		remediation: remediationFor(CategoryInternal),
	}
}

func remediationFor(category Category) string {
	switch category {
	case CategoryValidation:
		return "check the request payload against the API documentation and correct the rejected fields"
	case CategorySecurity:
		return "verify the cryptographic material in the request; if it was produced by your tooling, regenerate it"
	case CategoryCompliance:
		return "review the compliance data recorded for the identity and resubmit the required sub-records"
	case CategoryPermission:
		return "request the missing permission from the identity owner, or retry with an authorized actor"
	case CategoryInteroperability:
		return "confirm both protocol representations are supported and a translation rule exists for the pair"
	case CategoryIntegration:
		return "the downstream collaborator failed; retry after a short delay"
	case CategoryConfiguration:
		return "fix the server or request configuration named in the message and restart the operation"
	default:
		return "retry the operation; if the failure persists, contact the operator with the error code"
	}
}

// newRegistry builds the immutable code registry a catalog serves descriptors from.
//
//nolint:funlen // one entry per registered failure code
func newRegistry() map[Code]descriptor {
	entry := func(msg string, cat Category, sev Severity) descriptor {
		return descriptor{message: msg, category: cat, severity: sev, remediation: remediationFor(cat)}
	}

	r := map[Code]descriptor{
		CodeInvalidIdentity:       entry("invalid identity record", CategoryValidation, SeverityMedium),
		CodeIdentityNotFound:      entry("identity not found", CategoryValidation, SeverityLow),
		CodeIdentityAlreadyExists: entry("identity already exists", CategoryValidation, SeverityMedium),
		CodeIdentityInactive:      entry("identity is deactivated", CategoryValidation, SeverityMedium),
		CodeInvalidDID:            entry("invalid DID", CategoryValidation, SeverityMedium),
		CodeInvalidActor:          entry("invalid actor identifier", CategoryValidation, SeverityMedium),

		CodeProtocolNotSupported:  entry("protocol not supported", CategoryValidation, SeverityMedium),
		CodeProtocolAlreadyExists: entry("protocol identity already exists for this identity", CategoryValidation, SeverityMedium),
		CodeProtocolNotFound:      entry("protocol identity not found", CategoryValidation, SeverityLow),
		CodeInvalidProtocolData:   entry("invalid protocol identity data", CategoryValidation, SeverityMedium),

		CodeInvalidCredential:        entry("invalid credential", CategoryValidation, SeverityMedium),
		CodeInvalidCredentialSubject: entry("invalid credential subject", CategoryValidation, SeverityMedium),
		CodeInvalidCredentialType:    entry("invalid credential type", CategoryValidation, SeverityMedium),
		CodeInvalidCredentialContext: entry("invalid credential context", CategoryValidation, SeverityMedium),
		CodeCredentialNotFound:       entry("credential not found", CategoryValidation, SeverityLow),
		CodeCredentialExpired:        entry("credential has expired", CategorySecurity, SeverityMedium),
		CodeCredentialRevoked:        entry("credential has been revoked", CategorySecurity, SeverityHigh),
		CodeInvalidCredentialStatus:  entry("invalid credential status record", CategoryValidation, SeverityMedium),
		CodeInvalidCredentialProof:   entry("credential proof verification failed", CategorySecurity, SeverityHigh),
		CodeUnauthorizedIssuer:       entry("issuer is not authorized to issue credentials", CategorySecurity, SeverityHigh),
		CodeIssuerAlreadyRegistered:  entry("issuer is already registered", CategoryValidation, SeverityLow),
		CodeIssuerNotFound:           entry("issuer not found", CategoryValidation, SeverityLow),

		CodeZKProofVerificationFailed: entry("zero-knowledge proof verification failed", CategorySecurity, SeverityHigh),
		CodeInvalidVerificationKey:    entry("invalid verification key", CategoryValidation, SeverityHigh),
		CodeCircuitAlreadyExists:      entry("circuit is already registered with a different verification key", CategoryValidation, SeverityHigh),
		CodeCircuitNotFound:           entry("circuit not found", CategoryValidation, SeverityMedium),
		CodeInvalidPublicInputs:       entry("invalid public inputs", CategoryValidation, SeverityMedium),
		CodeInvalidNullifierSeed:      entry("invalid nullifier seed", CategoryValidation, SeverityMedium),
		CodeZKCredentialNotFound:      entry("zero-knowledge credential not found", CategoryValidation, SeverityLow),
		CodeInvalidDisclosure:         entry("invalid selective disclosure proof", CategorySecurity, SeverityMedium),
		CodeNullifierAlreadyUsed:      entry("nullifier has already been used", CategorySecurity, SeverityHigh),
		CodeInvalidCircuit:            entry("invalid circuit", CategoryValidation, SeverityMedium),

		CodeInvalidComplianceType:  entry("invalid compliance regulation type", CategoryCompliance, SeverityMedium),
		CodeComplianceDataNotFound: entry("compliance data not found", CategoryCompliance, SeverityLow),
		CodeInvalidAuditType:       entry("invalid audit type", CategoryCompliance, SeverityMedium),

		CodeInvalidPermission:       entry("invalid permission entry", CategoryValidation, SeverityMedium),
		CodePermissionNotFound:      entry("permission not found", CategoryPermission, SeverityLow),
		CodePermissionExpired:       entry("permission has expired", CategoryPermission, SeverityLow),
		CodeInsufficientPermissions: entry("actor lacks the permission required for this operation", CategoryPermission, SeverityHigh),

		CodeProtocolMismatch:          entry("no translation rule matches the protocol pair", CategoryInteroperability, SeverityMedium),
		CodeInvalidDataFormat:         entry("translated data is missing fields required by the target protocol", CategoryInteroperability, SeverityMedium),
		CodeTranslationFailed:         entry("protocol translation failed", CategoryInteroperability, SeverityMedium),
		CodeUnsupportedTransformation: entry("unsupported transformation type", CategoryInteroperability, SeverityMedium),

		CodeInvalidConfiguration: entry("invalid configuration", CategoryConfiguration, SeverityHigh),
		CodeMissingConfiguration: entry("missing configuration", CategoryConfiguration, SeverityHigh),

		CodeStorageFailure: entry("ledger store operation failed", CategoryIntegration, SeverityHigh),
		CodeInternal:       entry("internal failure", CategoryInternal, SeverityCritical),
	}

	// Per-code remediation overrides where the category default would mislead.
	r[CodeNullifierAlreadyUsed] = descriptor{
		message:     r[CodeNullifierAlreadyUsed].message,
		category:    r[CodeNullifierAlreadyUsed].category,
		severity:    r[CodeNullifierAlreadyUsed].severity,
		remediation: "generate a fresh nullifier seed; each proof nullifier is accepted exactly once",
	}
	r[CodeCredentialRevoked] = descriptor{
		message:     r[CodeCredentialRevoked].message,
		category:    r[CodeCredentialRevoked].category,
		severity:    r[CodeCredentialRevoked].severity,
		remediation: "the credential was revoked by its issuer and can no longer be used; request a new credential",
	}
	r[CodeCredentialExpired] = descriptor{
		message:     r[CodeCredentialExpired].message,
		category:    r[CodeCredentialExpired].category,
		severity:    r[CodeCredentialExpired].severity,
		remediation: "request the issuer to issue a fresh credential; expired credentials are not deleted but never verify",
	}

	return r
}
