/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package identity holds the universal identity model and the Registry that
// coordinates every identity hub engine behind a single store.
package identity

import (
	"fmt"
	"time"

	"github.com/trustbloc/identity-hub/pkg/compliance"
	"github.com/trustbloc/identity-hub/pkg/permission"
)

// Protocol identifies one of the identity protocols a universal identity can
// bind a protocol-native identifier under.
type Protocol string

// Supported protocol kinds.
const (
	ProtocolOAuth2   Protocol = "oauth2"
	ProtocolOIDC     Protocol = "oidc"
	ProtocolSAML     Protocol = "saml"
	ProtocolDID      Protocol = "did"
	ProtocolVC       Protocol = "vc"
	ProtocolVP       Protocol = "vp"
	ProtocolWebAuthn Protocol = "webauthn"
	ProtocolZKProof  Protocol = "zkproof"
)

//nolint: gochecknoglobals
var supportedProtocols = map[Protocol]struct{}{
	ProtocolOAuth2:   {},
	ProtocolOIDC:     {},
	ProtocolSAML:     {},
	ProtocolDID:      {},
	ProtocolVC:       {},
	ProtocolVP:       {},
	ProtocolWebAuthn: {},
	ProtocolZKProof:  {},
}

// Valid reports whether p is one of the supported protocol kinds.
func (p Protocol) Valid() bool {
	_, ok := supportedProtocols[p]

	return ok
}

// SecurityLevel grades the assurance an identity operates at, ordered from
// weakest to strongest.
type SecurityLevel string

// Security levels.
const (
	SecurityLevelBasic       SecurityLevel = "basic"
	SecurityLevelEnhanced    SecurityLevel = "enhanced"
	SecurityLevelHigh        SecurityLevel = "high"
	SecurityLevelCritical    SecurityLevel = "critical"
	SecurityLevelQuantumSafe SecurityLevel = "quantum_safe"
)

//nolint: gochecknoglobals
var securityLevelRank = map[SecurityLevel]int{
	SecurityLevelBasic:       1,
	SecurityLevelEnhanced:    2,
	SecurityLevelHigh:        3,
	SecurityLevelCritical:    4,
	SecurityLevelQuantumSafe: 5,
}

// Valid reports whether l is one of the defined security levels.
func (l SecurityLevel) Valid() bool {
	_, ok := securityLevelRank[l]

	return ok
}

// AtLeast reports whether l grades at or above other. Undefined levels grade
// below every defined one.
func (l SecurityLevel) AtLeast(other SecurityLevel) bool {
	return securityLevelRank[l] >= securityLevelRank[other]
}

// TokenSet carries the protocol tokens minted for a protocol identity.
type TokenSet struct {
	AccessToken      string     `json:"accessToken,omitempty"`
	RefreshToken     string     `json:"refreshToken,omitempty"`
	IDToken          string     `json:"idToken,omitempty"`
	TokenType        string     `json:"tokenType,omitempty"`
	Scope            []string   `json:"scope,omitempty"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	RefreshExpiresAt *time.Time `json:"refreshExpiresAt,omitempty"`
}

// Claims is the typed claim set a protocol identity asserts. Assertions
// shared across protocols get named fields; protocol-specific attributes
// travel in Custom.
type Claims struct {
	Subject string            `json:"subject,omitempty"`
	Email   string            `json:"email,omitempty"`
	Name    string            `json:"name,omitempty"`
	Issuer  string            `json:"issuer,omitempty"`
	Scope   []string          `json:"scope,omitempty"`
	Custom  map[string]string `json:"custom,omitempty"`
}

// ToMap flattens the claim set into the generic claim document the protocol
// bridge translates. Named fields take precedence over same-named custom
// attributes.
func (c *Claims) ToMap() map[string]interface{} {
	claims := make(map[string]interface{}, len(c.Custom)+5)

	for name, value := range c.Custom {
		claims[name] = value
	}

	if c.Subject != "" {
		claims["sub"] = c.Subject
	}

	if c.Email != "" {
		claims["email"] = c.Email
	}

	if c.Name != "" {
		claims["name"] = c.Name
	}

	if c.Issuer != "" {
		claims["issuer"] = c.Issuer
	}

	if len(c.Scope) > 0 {
		claims["scope"] = c.Scope
	}

	return claims
}

// ProtocolIdentity binds one protocol-native identifier and its claims to a
// universal identity. An identity holds at most one binding per protocol kind.
type ProtocolIdentity struct {
	Protocol   Protocol   `json:"protocol"`
	Identifier string     `json:"identifier"`
	Claims     Claims     `json:"claims"`
	Tokens     *TokenSet  `json:"tokens,omitempty"`
	IsVerified bool       `json:"isVerified"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

func (p *ProtocolIdentity) validate() error {
	if !p.Protocol.Valid() {
		return fmt.Errorf("unsupported protocol %q", p.Protocol)
	}

	if p.Identifier == "" {
		return fmt.Errorf("%s protocol identity is missing its identifier", p.Protocol)
	}

	return nil
}

// IdentityMetadata carries the descriptive attributes of an identity.
type IdentityMetadata struct {
	Label       string            `json:"label,omitempty"`
	Description string            `json:"description,omitempty"`
	TenantID    string            `json:"tenantId,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// UniversalIdentity is one identity unified across protocols. The core record
// persists under the identity's ID; protocol bindings, permissions, compliance
// data and the audit trail live in their own key ranges and are assembled onto
// this type on read.
type UniversalIdentity struct {
	ID            string                        `json:"id"`
	DID           string                        `json:"did"`
	IsActive      bool                          `json:"isActive"`
	Protocols     map[Protocol]ProtocolIdentity `json:"protocols,omitempty"`
	SecurityLevel SecurityLevel                 `json:"securityLevel"`
	Permissions   []permission.Permission       `json:"permissions,omitempty"`
	Compliance    compliance.Data               `json:"compliance,omitempty"`
	ZKCredentials []string                      `json:"zkCredentials,omitempty"`
	Metadata      IdentityMetadata              `json:"metadata,omitempty"`
	Creator       string                        `json:"creator"`
	CreatedAt     time.Time                     `json:"createdAt"`
	UpdatedAt     time.Time                     `json:"updatedAt"`
}

// UpdateRequest carries the identity fields UpdateIdentity may change.
// Zero-valued fields are left untouched; attributes merge into the existing
// attribute map key by key. The identity's ID and DID never change.
type UpdateRequest struct {
	SecurityLevel SecurityLevel     `json:"securityLevel,omitempty"`
	Label         string            `json:"label,omitempty"`
	Description   string            `json:"description,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// IsEmpty reports whether the request carries no changes at all.
func (u *UpdateRequest) IsEmpty() bool {
	return u == nil ||
		(u.SecurityLevel == "" && u.Label == "" && u.Description == "" && len(u.Attributes) == 0)
}

// apply merges the request into the identity and reports what actually
// changed. Fields already holding the requested value are not counted.
func (u *UpdateRequest) apply(identity *UniversalIdentity) map[string]string {
	changes := map[string]string{}

	if u.SecurityLevel != "" && u.SecurityLevel != identity.SecurityLevel {
		identity.SecurityLevel = u.SecurityLevel
		changes["securityLevel"] = string(u.SecurityLevel)
	}

	if u.Label != "" && u.Label != identity.Metadata.Label {
		identity.Metadata.Label = u.Label
		changes["label"] = u.Label
	}

	if u.Description != "" && u.Description != identity.Metadata.Description {
		identity.Metadata.Description = u.Description
		changes["description"] = u.Description
	}

	for name, value := range u.Attributes {
		if identity.Metadata.Attributes[name] == value {
			continue
		}

		if identity.Metadata.Attributes == nil {
			identity.Metadata.Attributes = map[string]string{}
		}

		identity.Metadata.Attributes[name] = value
		changes["attributes."+name] = value
	}

	return changes
}
