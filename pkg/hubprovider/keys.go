/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package hubprovider

import (
	"net/url"

	"github.com/hyperledger/aries-framework-go/spi/storage"
)

// StoreName is the name of the single store all identity hub records live in.
const StoreName = "identityhub"

// Key prefixes for the record types in the identity hub store. A record key is its
// prefix followed by the record's natural identifier, which gives every entity type
// its own contiguous key range.
const (
	IdentityKeyPrefix         = "identity:"
	DIDIndexKeyPrefix         = "didindex:"
	ProtocolIdentityKeyPrefix = "protocol:"
	CredentialKeyPrefix       = "credential:"
	CredentialStatusKeyPrefix = "credstatus:"
	IssuerKeyPrefix           = "issuer:"
	ZKCredentialKeyPrefix     = "zkcredential:"
	CircuitKeyPrefix          = "circuit:"
	NullifierKeyPrefix        = "nullifier:"
	ComplianceKeyPrefix       = "compliance:"
	AuditEntryKeyPrefix       = "audit:"
	PermissionKeyPrefix       = "permission:"
	ConfigKeyPrefix           = "config:"
)

// Tag names used as secondary indices on identity hub records.
const (
	TagEntityType     = "entityType"
	TagCreator        = "creator"
	TagIdentityID     = "identityID"
	TagIssuer         = "issuer"
	TagSubject        = "subject"
	TagCredentialType = "credentialType"
	TagHolder         = "holder"
	TagCircuitID      = "circuitID"
)

// Entity type tag values.
const (
	EntityTypeIdentity     = "identity"
	EntityTypeCredential   = "credential"
	EntityTypeIssuer       = "issuer"
	EntityTypeZKCredential = "zkcredential"
	EntityTypeCircuit      = "circuit"
	EntityTypeCompliance   = "compliance"
	EntityTypeAuditEntry   = "audit"
	EntityTypePermission   = "permission"
)

// TagNames returns every tag name identity hub records may carry.
// OpenStore registers these with the underlying provider.
func TagNames() []string {
	return []string{
		TagEntityType,
		TagCreator,
		TagIdentityID,
		TagIssuer,
		TagSubject,
		TagCredentialType,
		TagHolder,
		TagCircuitID,
	}
}

// Tag builds an index tag for a record. The tag value is escaped because the
// underlying storage providers reserve the ':' character in query expressions,
// and values such as DIDs contain it.
func Tag(name, value string) storage.Tag {
	return storage.Tag{Name: name, Value: escapeTagValue(value)}
}

func escapeTagValue(value string) string {
	return url.QueryEscape(value)
}

// IdentityKey returns the store key of the identity record with the given ID.
func IdentityKey(identityID string) string {
	return IdentityKeyPrefix + identityID
}

// DIDIndexKey returns the store key of the DID index record pointing at an identity.
func DIDIndexKey(did string) string {
	return DIDIndexKeyPrefix + did
}

// ProtocolIdentityKey returns the store key of an identity's protocol-specific record.
func ProtocolIdentityKey(identityID, protocol string) string {
	return ProtocolIdentityKeyPrefix + identityID + ":" + protocol
}

// CredentialKey returns the store key of the credential record with the given ID.
func CredentialKey(credentialID string) string {
	return CredentialKeyPrefix + credentialID
}

// CredentialStatusKey returns the store key of a credential's status record.
func CredentialStatusKey(credentialID string) string {
	return CredentialStatusKeyPrefix + credentialID
}

// IssuerKey returns the store key of the issuer allow-list record for the given DID.
func IssuerKey(issuerDID string) string {
	return IssuerKeyPrefix + issuerDID
}

// ZKCredentialKey returns the store key of the zero-knowledge credential record with the given ID.
func ZKCredentialKey(zkCredentialID string) string {
	return ZKCredentialKeyPrefix + zkCredentialID
}

// CircuitKey returns the store key of the circuit record with the given ID.
func CircuitKey(circuitID string) string {
	return CircuitKeyPrefix + circuitID
}

// NullifierKey returns the store key marking a nullifier as used.
func NullifierKey(nullifier string) string {
	return NullifierKeyPrefix + nullifier
}

// ComplianceKey returns the store key of an identity's compliance record.
func ComplianceKey(identityID string) string {
	return ComplianceKeyPrefix + identityID
}

// AuditEntryKey returns the store key of an audit entry. sortableStamp must order
// chronologically as a string so that an identity's audit trail reads back in the
// order it was written.
func AuditEntryKey(identityID, sortableStamp, entryID string) string {
	return AuditEntryKeyPrefix + identityID + ":" + sortableStamp + ":" + entryID
}

// PermissionKey returns the store key of the permission record with the given ID.
func PermissionKey(permissionID string) string {
	return PermissionKeyPrefix + permissionID
}

// DisclosureSigningKeyKey returns the store key naming the hub's disclosure
// signing key, so disclosure envelopes keep the same signer across restarts.
func DisclosureSigningKeyKey() string {
	return ConfigKeyPrefix + "disclosure-signing-key"
}
