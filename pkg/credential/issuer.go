/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/trustbloc/identity-hub/pkg/hubprovider"
	"github.com/trustbloc/identity-hub/pkg/huberrors"
)

// Issuer is an allow-list entry authorizing an identity to issue verifiable
// credentials. The hub mints and holds the signing key referenced by
// VerificationMethod; proofs on credentials issued on the issuer's behalf
// are produced with it.
type Issuer struct {
	DID                string    `json:"did"`
	Name               string    `json:"name"`
	AuthorizedTypes    []string  `json:"authorizedTypes,omitempty"`
	Active             bool      `json:"active"`
	VerificationMethod string    `json:"verificationMethod"`
	RegisteredBy       string    `json:"registeredBy"`
	RegisteredAt       time.Time `json:"registeredAt"`
}

// AuthorizedFor reports whether the issuer may issue the given credential or
// circuit type. An empty AuthorizedTypes list authorizes every type.
func (i *Issuer) AuthorizedFor(credentialType string) bool {
	if len(i.AuthorizedTypes) == 0 {
		return true
	}

	for _, authorized := range i.AuthorizedTypes {
		if authorized == credentialType {
			return true
		}
	}

	return false
}

// RegisterIssuer adds an issuer to the allow-list and mints a hub-held
// signing key for it. The caller gates who may register issuers. The
// returned operations must be committed through one batch.
func (e *Engine) RegisterIssuer(did, name string, authorizedTypes []string, actor string,
	now time.Time) (*Issuer, []storage.Operation, error) {
	const op = "RegisterIssuer"

	if !strings.HasPrefix(did, "did:") {
		return nil, nil, e.errs.Errf(op, huberrors.CodeInvalidDID, "issuer DID %q is not a DID", did)
	}

	if name == "" {
		return nil, nil, e.errs.Errf(op, huberrors.CodeInvalidCredential, "issuer name is required")
	}

	_, err := e.store.Get(hubprovider.IssuerKey(did))
	if err == nil {
		return nil, nil, e.errs.Errf(op, huberrors.CodeIssuerAlreadyRegistered,
			"issuer %s is already registered", did)
	}

	if !errors.Is(err, storage.ErrDataNotFound) {
		return nil, nil, e.errs.Wrap(op, huberrors.CodeStorageFailure, err)
	}

	_, verificationMethod, err := e.crypto.NewDIDKey()
	if err != nil {
		return nil, nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	issuer := &Issuer{
		DID:                did,
		Name:               name,
		AuthorizedTypes:    authorizedTypes,
		Active:             true,
		VerificationMethod: verificationMethod,
		RegisteredBy:       actor,
		RegisteredAt:       now,
	}

	issuerBytes, err := json.Marshal(issuer)
	if err != nil {
		return nil, nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	return issuer, []storage.Operation{{
		Key:   hubprovider.IssuerKey(did),
		Value: issuerBytes,
		Tags: []storage.Tag{
			hubprovider.Tag(hubprovider.TagEntityType, hubprovider.EntityTypeIssuer),
		},
	}}, nil
}

// DeactivateIssuer flips the issuer's active flag off, blocking further
// issuance without disturbing already-issued credentials. Deactivating an
// already-inactive issuer is a no-op.
func (e *Engine) DeactivateIssuer(did string, now time.Time) (*Issuer, []storage.Operation, error) {
	const op = "DeactivateIssuer"

	issuer, err := e.GetIssuer(did)
	if err != nil {
		return nil, nil, err
	}

	if !issuer.Active {
		return issuer, nil, nil
	}

	issuer.Active = false

	issuerBytes, err := json.Marshal(issuer)
	if err != nil {
		return nil, nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	return issuer, []storage.Operation{{
		Key:   hubprovider.IssuerKey(did),
		Value: issuerBytes,
		Tags: []storage.Tag{
			hubprovider.Tag(hubprovider.TagEntityType, hubprovider.EntityTypeIssuer),
		},
	}}, nil
}

// GetIssuer returns the allow-list entry for the given issuer DID.
func (e *Engine) GetIssuer(did string) (*Issuer, error) {
	const op = "GetIssuer"

	issuerBytes, err := e.store.Get(hubprovider.IssuerKey(did))
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, e.errs.Errf(op, huberrors.CodeIssuerNotFound, "issuer %s is not registered", did)
		}

		return nil, e.errs.Wrap(op, huberrors.CodeStorageFailure, err)
	}

	issuer := &Issuer{}
	if err := json.Unmarshal(issuerBytes, issuer); err != nil {
		return nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	return issuer, nil
}

// ListIssuers returns every registered issuer ordered by DID.
func (e *Engine) ListIssuers() ([]Issuer, error) {
	const op = "ListIssuers"

	entries, err := e.store.QueryTag(hubprovider.TagEntityType, hubprovider.EntityTypeIssuer)
	if err != nil {
		return nil, e.errs.Wrap(op, huberrors.CodeStorageFailure, err)
	}

	issuers := make([]Issuer, 0, len(entries))

	for _, entry := range entries {
		var issuer Issuer
		if err := json.Unmarshal(entry.Value, &issuer); err != nil {
			return nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
		}

		issuers = append(issuers, issuer)
	}

	sort.Slice(issuers, func(i, j int) bool { return issuers[i].DID < issuers[j].DID })

	return issuers, nil
}
