/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkproof

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/trustbloc/identity-hub/pkg/cryptoservice"
	"github.com/trustbloc/identity-hub/pkg/hubprovider"
	"github.com/trustbloc/identity-hub/pkg/huberrors"
)

// DeriveNullifier computes the one-way value tying a proof to its privacy
// parameters: base58(SHA-256(nullifierSeed ‖ SHA-256(canonical publicInputs))).
// Go's encoding/json orders map keys, so equal input sets always derive the
// same nullifier regardless of insertion order.
func DeriveNullifier(nullifierSeed string, publicInputs map[string]interface{}) (string, error) {
	if nullifierSeed == "" {
		return "", errors.New("nullifier seed cannot be empty")
	}

	canonicalInputs, err := json.Marshal(publicInputs)
	if err != nil {
		return "", fmt.Errorf("failed to build the public input commitment: %w", err)
	}

	commitment := cryptoservice.HashSHA256(canonicalInputs)

	return base58.Encode(cryptoservice.HashSHA256([]byte(nullifierSeed), commitment)), nil
}

// NullifierSet is the append-only set of used nullifiers. A nullifier's only
// transition is Unused to Used, and it is terminal: once marked, no proof
// deriving the same nullifier is ever accepted again.
type NullifierSet struct {
	store *hubprovider.Store
	errs  *huberrors.Catalog
}

// NewNullifierSet returns a nullifier set over the given store.
func NewNullifierSet(store *hubprovider.Store) *NullifierSet {
	return &NullifierSet{store: store, errs: huberrors.NewCatalog("nullifier-set")}
}

type nullifierRecord struct {
	Nullifier string    `json:"nullifier"`
	UsedAt    time.Time `json:"usedAt"`
}

// IsUsed reports whether the nullifier is marked used. Absence of a record
// means unused.
func (n *NullifierSet) IsUsed(nullifier string) (bool, error) {
	_, err := n.store.Get(hubprovider.NullifierKey(nullifier))
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return false, nil
		}

		return false, n.errs.Wrap("IsUsed", huberrors.CodeStorageFailure, err)
	}

	return true, nil
}

// CheckThenMark fails with NullifierAlreadyUsed if the nullifier is marked
// used, and otherwise returns the operation that marks it. The caller must
// commit the returned operation in the same batch as the state the nullifier
// protects; commands are applied sequentially, so the check and the mark act
// as one atomic transition.
func (n *NullifierSet) CheckThenMark(nullifier string, now time.Time) (storage.Operation, error) {
	const op = "CheckThenMark"

	used, err := n.IsUsed(nullifier)
	if err != nil {
		return storage.Operation{}, err
	}

	if used {
		return storage.Operation{}, n.errs.Errf(op, huberrors.CodeNullifierAlreadyUsed, "nullifier %s", nullifier)
	}

	recordBytes, err := json.Marshal(&nullifierRecord{Nullifier: nullifier, UsedAt: now})
	if err != nil {
		return storage.Operation{}, n.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	return storage.Operation{Key: hubprovider.NullifierKey(nullifier), Value: recordBytes}, nil
}
