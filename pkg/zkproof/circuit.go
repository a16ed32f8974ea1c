/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zkproof

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/trustbloc/identity-hub/pkg/hubprovider"
	"github.com/trustbloc/identity-hub/pkg/huberrors"
)

// Circuit is a registered zero-knowledge circuit: the verification key plus
// the metadata proofs are checked against. Registration is append-only per ID;
// a circuit's verification key never changes once registered.
type Circuit struct {
	ID              string    `json:"id"`
	CircuitType     string    `json:"circuitType"`
	CircuitData     string    `json:"circuitData,omitempty"`
	VerificationKey string    `json:"verificationKey"`
	Active          bool      `json:"active"`
	RegisteredBy    string    `json:"registeredBy"`
	RegisteredAt    time.Time `json:"registeredAt"`
}

// RegisterCircuit registers a circuit's verification key. Only the hub admin
// or a registered active issuer authorized for the circuit type may register.
// Re-registering an existing circuit with the identical key is a no-op;
// re-registering with a different key fails.
func (e *Engine) RegisterCircuit(circuitID, circuitType, circuitData, verificationKey string,
	actor string, now time.Time) (*Circuit, []storage.Operation, error) {
	const op = "RegisterCircuit"

	if err := e.authorizeCircuitRegistration(actor, circuitType); err != nil {
		return nil, nil, err
	}

	if circuitID == "" {
		return nil, nil, e.errs.Errf(op, huberrors.CodeInvalidCircuit, "circuit id is required")
	}

	if err := ValidateVerificationKey(verificationKey); err != nil {
		return nil, nil, e.errs.Wrap(op, huberrors.CodeInvalidVerificationKey, err)
	}

	existing, err := e.GetCircuit(circuitID)
	if err != nil && !huberrors.IsCode(err, huberrors.CodeCircuitNotFound) {
		return nil, nil, err
	}

	if existing != nil {
		if existing.VerificationKey == verificationKey {
			return existing, nil, nil
		}

		return nil, nil, e.errs.Errf(op, huberrors.CodeCircuitAlreadyExists, "circuit %s", circuitID)
	}

	circuit := &Circuit{
		ID:              circuitID,
		CircuitType:     circuitType,
		CircuitData:     circuitData,
		VerificationKey: verificationKey,
		Active:          true,
		RegisteredBy:    actor,
		RegisteredAt:    now,
	}

	circuitBytes, err := json.Marshal(circuit)
	if err != nil {
		return nil, nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	return circuit, []storage.Operation{{
		Key:   hubprovider.CircuitKey(circuitID),
		Value: circuitBytes,
		Tags:  []storage.Tag{hubprovider.Tag(hubprovider.TagEntityType, hubprovider.EntityTypeCircuit)},
	}}, nil
}

// DeactivateCircuit withdraws a circuit from service: no new zero-knowledge
// credentials can be issued against it. Already-issued credentials keep
// verifying against the stored key. Admin only. Deactivating an inactive
// circuit is a no-op.
func (e *Engine) DeactivateCircuit(circuitID, actor string, now time.Time) (*Circuit, []storage.Operation, error) {
	const op = "DeactivateCircuit"

	if actor == "" || actor != e.adminDID {
		return nil, nil, e.errs.Errf(op, huberrors.CodeInsufficientPermissions,
			"only the hub admin may deactivate circuits")
	}

	circuit, err := e.GetCircuit(circuitID)
	if err != nil {
		return nil, nil, err
	}

	if !circuit.Active {
		return circuit, nil, nil
	}

	circuit.Active = false

	circuitBytes, err := json.Marshal(circuit)
	if err != nil {
		return nil, nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	return circuit, []storage.Operation{{
		Key:   hubprovider.CircuitKey(circuitID),
		Value: circuitBytes,
		Tags:  []storage.Tag{hubprovider.Tag(hubprovider.TagEntityType, hubprovider.EntityTypeCircuit)},
	}}, nil
}

// GetCircuit returns the registered circuit with the given ID.
func (e *Engine) GetCircuit(circuitID string) (*Circuit, error) {
	const op = "GetCircuit"

	circuitBytes, err := e.store.Get(hubprovider.CircuitKey(circuitID))
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, e.errs.Errf(op, huberrors.CodeCircuitNotFound, "no circuit with id %s", circuitID)
		}

		return nil, e.errs.Wrap(op, huberrors.CodeStorageFailure, err)
	}

	circuit := &Circuit{}
	if err := json.Unmarshal(circuitBytes, circuit); err != nil {
		return nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	return circuit, nil
}

// ListCircuits returns registered circuits ordered by ID, starting after the
// given circuit ID (exclusive) when set.
func (e *Engine) ListCircuits(startAfter string, limit int) ([]Circuit, error) {
	const op = "ListCircuits"

	entries, err := e.store.QueryTag(hubprovider.TagEntityType, hubprovider.EntityTypeCircuit)
	if err != nil {
		return nil, e.errs.Wrap(op, huberrors.CodeStorageFailure, err)
	}

	limit = clampLimit(limit)
	circuits := make([]Circuit, 0, limit)

	for _, entry := range entries {
		if startAfter != "" && entry.Key <= hubprovider.CircuitKey(startAfter) {
			continue
		}

		var circuit Circuit
		if err := json.Unmarshal(entry.Value, &circuit); err != nil {
			return nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
		}

		circuits = append(circuits, circuit)

		if len(circuits) == limit {
			break
		}
	}

	return circuits, nil
}

// authorizeCircuitRegistration enforces the registration gate: the hub admin
// may register anything; a registered active issuer may register circuits of
// the types it is authorized for.
func (e *Engine) authorizeCircuitRegistration(actor, circuitType string) error {
	const op = "RegisterCircuit"

	if actor == "" {
		return e.errs.Errf(op, huberrors.CodeInvalidActor, "actor is required")
	}

	if e.adminDID != "" && actor == e.adminDID {
		return nil
	}

	issuer, err := e.issuers.GetIssuer(actor)
	if err != nil {
		if huberrors.IsCode(err, huberrors.CodeIssuerNotFound) {
			return e.errs.Errf(op, huberrors.CodeInsufficientPermissions,
				"only the hub admin or a registered issuer may register circuits")
		}

		return err
	}

	if !issuer.Active {
		return e.errs.Errf(op, huberrors.CodeInsufficientPermissions, "issuer %s is deactivated", actor)
	}

	if !issuer.AuthorizedFor(circuitType) {
		return e.errs.Errf(op, huberrors.CodeInsufficientPermissions,
			"issuer %s is not authorized for circuit type %q", actor, circuitType)
	}

	return nil
}
