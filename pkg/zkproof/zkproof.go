/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package zkproof maintains zero-knowledge circuits and credentials. A
// credential is persisted only after its proof verifies against the circuit's
// registered verification key and its derived nullifier is still unused; the
// nullifier is marked used in the same batch, so a proof (or the secret
// behind it) is accepted exactly once. Re-verification of stored credentials
// and selective disclosure never touch nullifier state.
package zkproof

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/trustbloc/identity-hub/pkg/credential"
	"github.com/trustbloc/identity-hub/pkg/hubprovider"
	"github.com/trustbloc/identity-hub/pkg/huberrors"
)

// Commitment schemes and privacy levels carried in PrivacyParameters.
const (
	CommitmentSchemeSHA256 = "sha256"

	PrivacyLevelBasic    = "basic"
	PrivacyLevelEnhanced = "enhanced"
	PrivacyLevelMaximum  = "maximum"
)

// Query paging bounds, shared by the circuit and credential listings.
const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Proof is an opaque zero-knowledge proof: the protocol tag, the proof
// document produced by the prover toolchain, and the public signals it was
// generated for.
type Proof struct {
	Protocol      string   `json:"protocol"`
	ProofData     string   `json:"proofData"`
	PublicSignals []string `json:"publicSignals"`
}

// PrivacyParameters drive nullifier derivation and disclosure behavior.
type PrivacyParameters struct {
	NullifierSeed    string   `json:"nullifierSeed"`
	CommitmentScheme string   `json:"commitmentScheme"`
	AnonymitySet     []string `json:"anonymitySet,omitempty"`
	PrivacyLevel     string   `json:"privacyLevel"`
}

// ZKCredential is a verified zero-knowledge credential. It is immutable after
// creation; the only related state that moves is the nullifier set.
type ZKCredential struct {
	ID                  string                 `json:"id"`
	Holder              string                 `json:"holder"`
	CircuitID           string                 `json:"circuitId"`
	PublicInputs        map[string]interface{} `json:"publicInputs"`
	Proof               *Proof                 `json:"proof"`
	VerificationKey     string                 `json:"verificationKey"`
	Nullifier           string                 `json:"nullifier"`
	PrivacyParameters   *PrivacyParameters     `json:"privacyParameters"`
	SelectiveDisclosure bool                   `json:"selectiveDisclosure"`
	CreatedAt           time.Time              `json:"createdAt"`
	ExpiresAt           *time.Time             `json:"expiresAt,omitempty"`
}

// IssueRequest carries everything IssueZKCredential needs from the holder.
type IssueRequest struct {
	Holder              string
	CircuitID           string
	PublicInputs        map[string]interface{}
	Proof               *Proof
	PrivacyParams       *PrivacyParameters
	SelectiveDisclosure bool
	ExpiresAt           *time.Time
}

// IssuerDirectory resolves registered credential issuers for the circuit
// registration gate. *credential.Engine satisfies it.
type IssuerDirectory interface {
	GetIssuer(did string) (*credential.Issuer, error)
}

// DisclosureSigner mints and uses hub-held signing keys for selective
// disclosure envelopes. *cryptoservice.Service satisfies it.
type DisclosureSigner interface {
	NewDIDKey() (string, string, error)
	Sign(verificationMethod string, data []byte) ([]byte, error)
}

// Engine implements the zero-knowledge credential operations over the shared
// identity hub store.
type Engine struct {
	store        *hubprovider.Store
	issuers      IssuerDirectory
	verifier     ProofVerifier
	nullifiers   *NullifierSet
	signer       DisclosureSigner
	signingMutex sync.Mutex
	disclosureVM string
	adminDID     string
	errs         *huberrors.Catalog
}

// Option configures an Engine.
type Option func(*Engine)

// WithVerifier replaces the built-in digest verifier, for deployments wired
// to a full SNARK verification backend.
func WithVerifier(verifier ProofVerifier) Option {
	return func(e *Engine) {
		e.verifier = verifier
	}
}

// WithDisclosureSigner wires the key service disclosure envelopes are signed
// with. Without one, selective disclosure is unavailable.
func WithDisclosureSigner(signer DisclosureSigner) Option {
	return func(e *Engine) {
		e.signer = signer
	}
}

// NewEngine returns a zero-knowledge credential engine. adminDID names the
// hub administrator for the circuit registration and deactivation gates.
func NewEngine(store *hubprovider.Store, issuers IssuerDirectory, adminDID string, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		issuers:    issuers,
		verifier:   DigestVerifier{},
		nullifiers: NewNullifierSet(store),
		adminDID:   adminDID,
		errs:       huberrors.NewCatalog("zkproof-engine"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Nullifiers exposes the engine's nullifier set for read-only membership
// checks.
func (e *Engine) Nullifiers() *NullifierSet {
	return e.nullifiers
}

// IssueZKCredential verifies a proof and prepares storage of the resulting
// credential. The checks run in a fixed order: circuit existence, nullifier
// freshness, then cryptographic verification. A failed verification persists
// nothing. The returned operations carry both the credential record and the
// nullifier mark and must be committed through one batch.
func (e *Engine) IssueZKCredential(request *IssueRequest, now time.Time) (*ZKCredential, []storage.Operation, error) {
	const op = "IssueZKCredential"

	if err := e.validateIssueRequest(request); err != nil {
		return nil, nil, err
	}

	circuit, err := e.GetCircuit(request.CircuitID)
	if err != nil {
		return nil, nil, err
	}

	if !circuit.Active {
		return nil, nil, e.errs.Errf(op, huberrors.CodeInvalidCircuit, "circuit %s is deactivated", circuit.ID)
	}

	nullifier, err := DeriveNullifier(request.PrivacyParams.NullifierSeed, request.PublicInputs)
	if err != nil {
		return nil, nil, e.errs.Wrap(op, huberrors.CodeInvalidNullifierSeed, err)
	}

	markOperation, err := e.nullifiers.CheckThenMark(nullifier, now)
	if err != nil {
		return nil, nil, err
	}

	verified, err := e.verifier.VerifyProof(circuit.VerificationKey,
		request.Proof.PublicSignals, request.Proof.ProofData)
	if err != nil {
		return nil, nil, e.errs.Wrap(op, huberrors.CodeZKProofVerificationFailed, err)
	}

	if !verified {
		return nil, nil, e.errs.Errf(op, huberrors.CodeZKProofVerificationFailed,
			"proof for circuit %s does not verify against its registered key", circuit.ID)
	}

	zkCredential := &ZKCredential{
		ID:                  "urn:uuid:" + uuid.New().String(),
		Holder:              request.Holder,
		CircuitID:           circuit.ID,
		PublicInputs:        request.PublicInputs,
		Proof:               request.Proof,
		VerificationKey:     circuit.VerificationKey,
		Nullifier:           nullifier,
		PrivacyParameters:   normalizePrivacyParams(request.PrivacyParams),
		SelectiveDisclosure: request.SelectiveDisclosure,
		CreatedAt:           now,
		ExpiresAt:           request.ExpiresAt,
	}

	credentialBytes, err := json.Marshal(zkCredential)
	if err != nil {
		return nil, nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	operations := []storage.Operation{
		{
			Key:   hubprovider.ZKCredentialKey(zkCredential.ID),
			Value: credentialBytes,
			Tags: []storage.Tag{
				hubprovider.Tag(hubprovider.TagEntityType, hubprovider.EntityTypeZKCredential),
				hubprovider.Tag(hubprovider.TagHolder, request.Holder),
				hubprovider.Tag(hubprovider.TagCircuitID, circuit.ID),
			},
		},
		markOperation,
	}

	return zkCredential, operations, nil
}

// GetZKCredential returns the stored zero-knowledge credential with the given ID.
func (e *Engine) GetZKCredential(zkCredentialID string) (*ZKCredential, error) {
	const op = "GetZKCredential"

	credentialBytes, err := e.store.Get(hubprovider.ZKCredentialKey(zkCredentialID))
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, e.errs.Errf(op, huberrors.CodeZKCredentialNotFound,
				"no zero-knowledge credential with id %s", zkCredentialID)
		}

		return nil, e.errs.Wrap(op, huberrors.CodeStorageFailure, err)
	}

	zkCredential := &ZKCredential{}
	if err := json.Unmarshal(credentialBytes, zkCredential); err != nil {
		return nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
	}

	return zkCredential, nil
}

// VerifyZKProof re-verifies a stored credential's proof against its circuit's
// verification key. It reads only: nullifier state is never touched, so the
// call is idempotent and safe to retry.
func (e *Engine) VerifyZKProof(zkCredentialID string) (bool, error) {
	const op = "VerifyZKProof"

	zkCredential, err := e.GetZKCredential(zkCredentialID)
	if err != nil {
		return false, err
	}

	circuit, err := e.GetCircuit(zkCredential.CircuitID)
	if err != nil {
		return false, err
	}

	verified, err := e.verifier.VerifyProof(circuit.VerificationKey,
		zkCredential.Proof.PublicSignals, zkCredential.Proof.ProofData)
	if err != nil {
		return false, e.errs.Wrap(op, huberrors.CodeZKProofVerificationFailed, err)
	}

	return verified, nil
}

// ListZKCredentials returns stored credentials filtered by holder and/or
// circuit; blank filters match everything. Results are ordered by credential
// ID, starting after the given ID (exclusive) when set.
func (e *Engine) ListZKCredentials(holder, circuitID, startAfter string, limit int) ([]ZKCredential, error) {
	const op = "ListZKCredentials"

	tagName, tagValue := hubprovider.TagEntityType, hubprovider.EntityTypeZKCredential

	switch {
	case holder != "":
		tagName, tagValue = hubprovider.TagHolder, holder
	case circuitID != "":
		tagName, tagValue = hubprovider.TagCircuitID, circuitID
	}

	entries, err := e.store.QueryTag(tagName, tagValue)
	if err != nil {
		return nil, e.errs.Wrap(op, huberrors.CodeStorageFailure, err)
	}

	limit = clampLimit(limit)
	credentials := make([]ZKCredential, 0, limit)

	for _, entry := range entries {
		if startAfter != "" && entry.Key <= hubprovider.ZKCredentialKey(startAfter) {
			continue
		}

		var zkCredential ZKCredential
		if err := json.Unmarshal(entry.Value, &zkCredential); err != nil {
			return nil, e.errs.Wrap(op, huberrors.CodeInternal, err)
		}

		if holder != "" && zkCredential.Holder != holder {
			continue
		}

		if circuitID != "" && zkCredential.CircuitID != circuitID {
			continue
		}

		credentials = append(credentials, zkCredential)

		if len(credentials) == limit {
			break
		}
	}

	return credentials, nil
}

func (e *Engine) validateIssueRequest(request *IssueRequest) error {
	const op = "IssueZKCredential"

	if request.Holder == "" {
		return e.errs.Errf(op, huberrors.CodeInvalidIdentity, "holder is required")
	}

	if request.CircuitID == "" {
		return e.errs.Errf(op, huberrors.CodeInvalidCircuit, "circuit id is required")
	}

	if len(request.PublicInputs) == 0 {
		return e.errs.Errf(op, huberrors.CodeInvalidPublicInputs, "public inputs are required")
	}

	if request.Proof == nil {
		return e.errs.Errf(op, huberrors.CodeZKProofVerificationFailed, "proof is required")
	}

	if protocol := request.Proof.Protocol; protocol != "" && protocol != ProofProtocolGroth16 {
		return e.errs.Errf(op, huberrors.CodeZKProofVerificationFailed,
			"unsupported proof protocol %q", protocol)
	}

	if err := ValidateProofData(request.Proof.ProofData); err != nil {
		return e.errs.Wrap(op, huberrors.CodeZKProofVerificationFailed, err)
	}

	if err := ValidatePublicSignals(request.Proof.PublicSignals); err != nil {
		return e.errs.Wrap(op, huberrors.CodeInvalidPublicInputs, err)
	}

	if request.PrivacyParams == nil || request.PrivacyParams.NullifierSeed == "" {
		return e.errs.Errf(op, huberrors.CodeInvalidNullifierSeed,
			"privacy parameters with a nullifier seed are required")
	}

	if scheme := request.PrivacyParams.CommitmentScheme; scheme != "" && scheme != CommitmentSchemeSHA256 {
		return e.errs.Errf(op, huberrors.CodeInvalidNullifierSeed,
			"unsupported commitment scheme %q, only %s is available", scheme, CommitmentSchemeSHA256)
	}

	return nil
}

// normalizePrivacyParams copies the caller's parameters and fills scheme and
// level defaults, so stored credentials always name what protected them.
func normalizePrivacyParams(params *PrivacyParameters) *PrivacyParameters {
	normalized := *params

	if normalized.CommitmentScheme == "" {
		normalized.CommitmentScheme = CommitmentSchemeSHA256
	}

	if normalized.PrivacyLevel == "" {
		normalized.PrivacyLevel = PrivacyLevelBasic
	}

	return &normalized
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageLimit
	case limit > maxPageLimit:
		return maxPageLimit
	default:
		return limit
	}
}
