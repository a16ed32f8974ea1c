/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package huberrors classifies every identity hub failure along two independent axes
// (category and severity) and attaches a stable numeric code plus a remediation hint,
// so callers never receive an opaque failure when a specific kind is determinable.
package huberrors

import (
	"errors"
	"fmt"
)

// Category is the failure classification axis used to drive retry and HTTP status policy.
type Category string

// Failure categories.
const (
	CategoryValidation       Category = "validation"
	CategorySecurity         Category = "security"
	CategoryCompliance       Category = "compliance"
	CategoryPermission       Category = "permission"
	CategoryInteroperability Category = "interoperability"
	CategoryIntegration      Category = "integration"
	CategoryConfiguration    Category = "configuration"
	CategoryInternal         Category = "internal"
)

// Severity is the failure impact axis.
type Severity string

// Failure severities.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Code is a stable numeric identifier for a specific failure kind,
// intended for client-side handling and metrics.
type Code int

// Identity registry failures (1001-1010).
const (
	CodeInvalidIdentity       Code = 1001
	CodeIdentityNotFound      Code = 1002
	CodeIdentityAlreadyExists Code = 1003
	CodeIdentityInactive      Code = 1004
	CodeInvalidDID            Code = 1005
	CodeInvalidActor          Code = 1006
)

// Protocol identity failures (1101-1106).
const (
	CodeProtocolNotSupported  Code = 1101
	CodeProtocolAlreadyExists Code = 1102
	CodeProtocolNotFound      Code = 1103
	CodeInvalidProtocolData   Code = 1104
)

// Verifiable credential failures (1201-1212).
const (
	CodeInvalidCredential        Code = 1201
	CodeInvalidCredentialSubject Code = 1202
	CodeInvalidCredentialType    Code = 1203
	CodeInvalidCredentialContext Code = 1204
	CodeCredentialNotFound       Code = 1205
	CodeCredentialExpired        Code = 1206
	CodeCredentialRevoked        Code = 1207
	CodeInvalidCredentialStatus  Code = 1208
	CodeInvalidCredentialProof   Code = 1209
	CodeUnauthorizedIssuer       Code = 1210
	CodeIssuerAlreadyRegistered  Code = 1211
	CodeIssuerNotFound           Code = 1212
)

// Zero-knowledge credential failures (1301-1310).
const (
	CodeZKProofVerificationFailed Code = 1301
	CodeInvalidVerificationKey    Code = 1302
	CodeCircuitAlreadyExists      Code = 1303
	CodeCircuitNotFound           Code = 1304
	CodeInvalidPublicInputs       Code = 1305
	CodeInvalidNullifierSeed      Code = 1306
	CodeZKCredentialNotFound      Code = 1307
	CodeInvalidDisclosure         Code = 1308
	CodeNullifierAlreadyUsed      Code = 1309
	CodeInvalidCircuit            Code = 1310
)

// Compliance failures (1401-1409).
const (
	CodeInvalidComplianceType  Code = 1401
	CodeComplianceDataNotFound Code = 1402
	CodeInvalidAuditType       Code = 1403
)

// Permission failures (1501-1507).
const (
	CodeInvalidPermission       Code = 1501
	CodePermissionNotFound      Code = 1502
	CodePermissionExpired       Code = 1503
	CodeInsufficientPermissions Code = 1504
)

// Interoperability failures (1801-1805).
const (
	CodeProtocolMismatch          Code = 1801
	CodeInvalidDataFormat         Code = 1802
	CodeTranslationFailed         Code = 1803
	CodeUnsupportedTransformation Code = 1804
)

// Configuration failures (2201-2203).
const (
	CodeInvalidConfiguration Code = 2201
	CodeMissingConfiguration Code = 2202
)

// Storage and other unclassifiable failures (9001-9999).
const (
	CodeStorageFailure Code = 9001
	CodeInternal       Code = 9999
)

// Error is a classified identity hub failure.
type Error struct {
	Code        Code     `json:"code"`
	Message     string   `json:"message"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Component   string   `json:"component"`
	Operation   string   `json:"operation"`
	IdentityID  string   `json:"identityId,omitempty"`
	Remediation string   `json:"remediation"`

	cause error
}

// Error satisfies the built-in error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s [%d]: %s: %s", e.Category, e.Code, e.Message, e.cause.Error())
	}

	return fmt.Sprintf("%s [%d]: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// IsRetryable reports whether retrying the failed operation without changing the
// request may succeed. Integration and internal failures are retryable by policy;
// validation and permission failures never are - the caller must change its input
// or its rights first.
func (e *Error) IsRetryable() bool {
	switch e.Category {
	case CategoryIntegration, CategoryInternal:
		return true
	default:
		return false
	}
}

// WithIdentity attaches the identity the failure relates to and returns the error.
func (e *Error) WithIdentity(identityID string) *Error {
	e.IdentityID = identityID

	return e
}

// CodeOf extracts the failure code from err, or 0 when err isn't a classified hub error.
func CodeOf(err error) Code {
	var hubErr *Error

	if errors.As(err, &hubErr) {
		return hubErr.Code
	}

	return 0
}

// IsCode reports whether err is a classified hub error carrying the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// AsError extracts the classified hub error from err's chain, or nil when absent.
func AsError(err error) *Error {
	var hubErr *Error

	if errors.As(err, &hubErr) {
		return hubErr
	}

	return nil
}
