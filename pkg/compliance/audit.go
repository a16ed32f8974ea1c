/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package compliance

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the audit trail, one per mutating command.
const (
	ActionCreateIdentity     = "CREATE_IDENTITY"
	ActionUpdateIdentity     = "UPDATE_IDENTITY"
	ActionDeactivateIdentity = "DEACTIVATE_IDENTITY"
	ActionAddProtocol        = "ADD_PROTOCOL"
	ActionRegisterIssuer     = "REGISTER_ISSUER"
	ActionDeactivateIssuer   = "DEACTIVATE_ISSUER"
	ActionIssueCredential    = "ISSUE_CREDENTIAL"
	ActionRevokeCredential   = "REVOKE_CREDENTIAL"
	ActionRegisterCircuit    = "REGISTER_CIRCUIT"
	ActionDeactivateCircuit  = "DEACTIVATE_CIRCUIT"
	ActionIssueZKCredential  = "ISSUE_ZK_CREDENTIAL"
	ActionUpdateCompliance   = "UPDATE_COMPLIANCE"
	ActionPerformAudit       = "PERFORM_AUDIT"
	ActionGrantPermission    = "GRANT_PERMISSION"
	ActionRevokePermission   = "REVOKE_PERMISSION"
)

// Audit entry results.
const (
	ResultSuccess = "success"
	ResultDenied  = "denied"
)

// AuditEntry is one append-only line in an identity's audit trail.
type AuditEntry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	Actor     string            `json:"actor"`
	Resource  string            `json:"resource"`
	Result    string            `json:"result"`
	Changes   map[string]string `json:"changes,omitempty"`
	RiskScore int               `json:"riskScore"`
}

// NewEntry builds the audit entry recorded for one executed command. The
// entry's risk score comes from the fixed per-action catalogue.
func NewEntry(action, actor, resource, result string, now time.Time) AuditEntry {
	return AuditEntry{
		ID:        uuid.New().String(),
		Timestamp: now,
		Action:    action,
		Actor:     actor,
		Resource:  resource,
		Result:    result,
		RiskScore: RiskScore(action),
	}
}

// WithChanges attaches the changed-field summary to the entry and returns it.
func (e AuditEntry) WithChanges(changes map[string]string) AuditEntry {
	e.Changes = changes

	return e
}

// RiskScore rates the inherent risk of an audited action on a 0-100 scale.
// Unknown actions rate 25.
func RiskScore(action string) int {
	switch action {
	case ActionCreateIdentity:
		return 10
	case ActionPerformAudit:
		return 15
	case ActionAddProtocol:
		return 20
	case ActionUpdateIdentity, ActionRegisterIssuer:
		return 30
	case ActionRegisterCircuit:
		return 35
	case ActionIssueCredential, ActionRevokePermission:
		return 40
	case ActionRevokeCredential, ActionDeactivateCircuit:
		return 45
	case ActionIssueZKCredential, ActionDeactivateIssuer:
		return 50
	case ActionDeactivateIdentity:
		return 55
	case ActionUpdateCompliance:
		return 60
	case ActionGrantPermission:
		return 70
	default:
		return 25
	}
}
