/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identityhub

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cucumber/godog"

	"github.com/trustbloc/identity-hub/pkg/compliance"
	"github.com/trustbloc/identity-hub/pkg/huberrors"
	"github.com/trustbloc/identity-hub/pkg/identity"
	"github.com/trustbloc/identity-hub/pkg/permission"
	"github.com/trustbloc/identity-hub/pkg/restapi/models"
	"github.com/trustbloc/identity-hub/pkg/zkproof"

	"github.com/trustbloc/identity-hub/test/bdd/pkg/common"
	bddctx "github.com/trustbloc/identity-hub/test/bdd/pkg/context"
)

// Steps drives the identity hub commands and queries the features exercise.
type Steps struct {
	bddContext *bddctx.BDDContext

	identities   []*models.CreateIdentityResponse
	issuerDID    string
	credentialID string
	zkCredential *models.IssueZKCredentialResponse
	circuitKeys  map[string]string
	lastErr      error
}

// NewSteps returns BDD steps bound to the given context.
func NewSteps(bddContext *bddctx.BDDContext) *Steps {
	return &Steps{bddContext: bddContext}
}

// RegisterSteps registers the identity hub steps with the suite.
func (s *Steps) RegisterSteps(suite *godog.Suite) {
	suite.BeforeScenario(func(interface{}) {
		s.identities = nil
		s.issuerDID = ""
		s.credentialID = ""
		s.zkCredential = nil
		s.circuitKeys = map[string]string{}
		s.lastErr = nil
	})

	suite.Step(`^"([^"]*)" registers an identity with an? "([^"]*)" binding for "([^"]*)"`+
		` at security level "([^"]*)"$`, s.registerIdentity)
	suite.Step(`^the new identity has exactly (\d+) protocol binding$`, s.checkProtocolBindingCount)
	suite.Step(`^the identity can be looked up by its DID$`, s.lookUpIdentityByDID)
	suite.Step(`^no two registered identities share a DID$`, s.checkDIDsUnique)

	suite.Step(`^the identity's creator grants "([^"]*)" for action "([^"]*)" to "([^"]*)"$`,
		s.grantPermission)
	suite.Step(`^the identity's creator grants "([^"]*)" for action "([^"]*)" to "([^"]*)"`+
		` expiring in (\d+)ms$`, s.grantPermissionExpiring)
	suite.Step(`^the grant has expired$`, s.waitForGrantExpiry)
	suite.Step(`^"([^"]*)" can update the identity's GDPR compliance record$`, s.updateCompliance)
	suite.Step(`^updating the identity's GDPR compliance record as "([^"]*)" is rejected`+
		` with code (\d+)$`, s.updateComplianceRejected)

	suite.Step(`^the issuer "([^"]*)" named "([^"]*)" is registered$`, s.registerIssuer)
	suite.Step(`^the issuer issues a "([^"]*)" credential to the registered identity$`, s.issueCredential)
	suite.Step(`^the credential verifies successfully$`, s.verifyCredential)
	suite.Step(`^the credential status reports it as not revoked$`, s.checkStatusNotRevoked)
	suite.Step(`^the credential status reports it as revoked$`, s.checkStatusRevoked)
	suite.Step(`^the issuer revokes the credential with reason "([^"]*)"$`, s.revokeCredential)
	suite.Step(`^verifying the credential is rejected with code (\d+)$`, s.verifyCredentialRejected)
	suite.Step(`^revoking the credential again still succeeds$`, s.revokeCredentialAgain)

	suite.Step(`^the circuit "([^"]*)" is registered with verification key "([^"]*)"$`, s.registerCircuit)
	suite.Step(`^"([^"]*)" submits (?:a|another) valid "([^"]*)" proof for the registered identity`+
		` with nullifier seed "([^"]*)"$`, s.submitProof)
	suite.Step(`^a zero-knowledge credential is stored for the holder$`, s.checkZKCredentialStored)
	suite.Step(`^re-verifying the stored credential twice succeeds without consuming the nullifier$`,
		s.reverifyStoredCredential)
	suite.Step(`^the submission is rejected with code (\d+)$`, s.checkSubmissionRejected)
	suite.Step(`^exactly (\d+) zero-knowledge credential exists for the holder$`, s.checkZKCredentialCount)
}

func (s *Steps) registerIdentity(creator, protocol, identifier, securityLevel string) error {
	response, err := s.bddContext.Client.CreateIdentity(creator, &models.CreateIdentityRequest{
		Protocols: []identity.ProtocolIdentity{{
			Protocol:   identity.Protocol(protocol),
			Identifier: identifier,
		}},
		SecurityLevel: identity.SecurityLevel(securityLevel),
		Metadata:      &identity.IdentityMetadata{Label: "bdd"},
	})
	if err != nil {
		return err
	}

	s.identities = append(s.identities, response)

	return nil
}

func (s *Steps) checkProtocolBindingCount(expected int) error {
	registered, err := s.bddContext.Client.ReadIdentity(s.lastIdentity().ID)
	if err != nil {
		return err
	}

	if len(registered.Protocols) != expected {
		return common.UnexpectedValueError(strconv.Itoa(expected), strconv.Itoa(len(registered.Protocols)))
	}

	return nil
}

func (s *Steps) lookUpIdentityByDID() error {
	wanted := s.lastIdentity()

	registered, err := s.bddContext.Client.ReadIdentityByDID(wanted.DID)
	if err != nil {
		return err
	}

	if registered.ID != wanted.ID {
		return common.UnexpectedValueError(wanted.ID, registered.ID)
	}

	return nil
}

func (s *Steps) checkDIDsUnique() error {
	seen := map[string]struct{}{}

	for _, registered := range s.identities {
		if _, clash := seen[registered.DID]; clash {
			return fmt.Errorf("DID %s was handed out twice", registered.DID)
		}

		seen[registered.DID] = struct{}{}
	}

	return nil
}

func (s *Steps) grantPermission(effect, action, grantee string) error {
	return s.grant(effect, action, grantee, nil)
}

func (s *Steps) grantPermissionExpiring(effect, action, grantee string, expiryMillis int) error {
	expiresAt := time.Now().UTC().Add(time.Duration(expiryMillis) * time.Millisecond)

	return s.grant(effect, action, grantee, &expiresAt)
}

func (s *Steps) grant(effect, action, grantee string, expiresAt *time.Time) error {
	created := s.lastIdentity()

	registered, err := s.bddContext.Client.ReadIdentity(created.ID)
	if err != nil {
		return err
	}

	_, err = s.bddContext.Client.GrantPermission(created.ID, registered.Creator,
		&models.GrantPermissionRequest{
			Resource:  permission.Wildcard,
			Action:    action,
			Grantee:   grantee,
			Effect:    permission.Effect(effect),
			ExpiresAt: expiresAt,
		})

	return err
}

func (s *Steps) waitForGrantExpiry() error {
	time.Sleep(150 * time.Millisecond)

	return nil
}

func (s *Steps) updateCompliance(actor string) error {
	_, err := s.bddContext.Client.UpdateCompliance(s.lastIdentity().ID, actor,
		&models.UpdateComplianceRequest{Update: compliance.Update{
			Regulation: compliance.RegulationGDPR,
			GDPR: &compliance.GDPR{
				LawfulBasis:  "consent",
				ConsentGiven: true,
			},
		}})

	return err
}

func (s *Steps) updateComplianceRejected(actor string, code int) error {
	err := s.updateCompliance(actor)

	return expectCode(err, code)
}

func (s *Steps) registerIssuer(issuerDID, name string) error {
	_, err := s.bddContext.Client.RegisterIssuer(bddctx.AdminDID, &models.RegisterIssuerRequest{
		DID:  issuerDID,
		Name: name,
	})
	if err != nil {
		return err
	}

	s.issuerDID = issuerDID

	return nil
}

func (s *Steps) issueCredential(credentialType string) error {
	response, err := s.bddContext.Client.IssueCredential(s.issuerDID, &models.IssueCredentialRequest{
		IssuerDID:  s.issuerDID,
		SubjectDID: s.lastIdentity().DID,
		Type:       []string{credentialType},
		CredentialSubject: map[string]interface{}{
			"id":     s.lastIdentity().DID,
			"degree": "Bachelor of Science",
		},
	})
	if err != nil {
		return err
	}

	s.credentialID = response.CredentialID

	return nil
}

func (s *Steps) verifyCredential() error {
	verified, err := s.bddContext.Client.VerifyCredential(s.credentialID, s.issuerDID)
	if err != nil {
		return err
	}

	if !verified {
		return errors.New("expected the credential to verify")
	}

	return nil
}

func (s *Steps) checkStatusNotRevoked() error {
	return s.checkStatus(false)
}

func (s *Steps) checkStatusRevoked() error {
	return s.checkStatus(true)
}

func (s *Steps) checkStatus(wantRevoked bool) error {
	status, err := s.bddContext.Client.CredentialStatus(s.credentialID)
	if err != nil {
		return err
	}

	if status.Revoked != wantRevoked {
		return common.UnexpectedValueError(strconv.FormatBool(wantRevoked),
			strconv.FormatBool(status.Revoked))
	}

	return nil
}

func (s *Steps) revokeCredential(reason string) error {
	_, err := s.bddContext.Client.RevokeCredential(s.credentialID, reason, s.issuerDID)

	return err
}

func (s *Steps) verifyCredentialRejected(code int) error {
	_, err := s.bddContext.Client.VerifyCredential(s.credentialID, s.issuerDID)

	return expectCode(err, code)
}

func (s *Steps) revokeCredentialAgain() error {
	return s.revokeCredential("already revoked")
}

func (s *Steps) registerCircuit(circuitID, verificationKey string) error {
	_, err := s.bddContext.Client.RegisterCircuit(bddctx.AdminDID, &models.RegisterCircuitRequest{
		CircuitID:       circuitID,
		CircuitType:     "threshold",
		VerificationKey: verificationKey,
	})
	if err != nil {
		return err
	}

	s.circuitKeys[circuitID] = verificationKey

	return nil
}

func (s *Steps) submitProof(actor, circuitID, nullifierSeed string) error {
	publicSignals := []string{"18"}

	// The prover toolchain binds a proof to its circuit's verification key
	// and public signals; the suite builds the same binding directly.
	proofData := fmt.Sprintf(
		`{"pi_a":["%d","2"],"pi_b":[["3","4"],["5","6"]],"pi_c":["7","8"],"binding":%q}`,
		len(s.zkCredentialIDs())+1, zkproof.ProofBinding(s.circuitKeys[circuitID], publicSignals))

	response, err := s.bddContext.Client.IssueZKCredential(actor, &models.IssueZKCredentialRequest{
		Holder:       s.lastIdentity().DID,
		CircuitID:    circuitID,
		PublicInputs: map[string]interface{}{"threshold": 18},
		Proof: &zkproof.Proof{
			Protocol:      zkproof.ProofProtocolGroth16,
			ProofData:     proofData,
			PublicSignals: publicSignals,
		},
		PrivacyParams: &zkproof.PrivacyParameters{
			NullifierSeed:    nullifierSeed,
			CommitmentScheme: zkproof.CommitmentSchemeSHA256,
			PrivacyLevel:     zkproof.PrivacyLevelEnhanced,
		},
	})

	s.lastErr = err

	if err == nil {
		s.zkCredential = response
	}

	return nil
}

func (s *Steps) checkZKCredentialStored() error {
	if s.lastErr != nil {
		return s.lastErr
	}

	if s.zkCredential == nil {
		return errors.New("no zero-knowledge credential was issued")
	}

	stored, err := s.bddContext.Client.ReadZKCredential(s.zkCredential.ZKCredentialID)
	if err != nil {
		return err
	}

	if stored.Holder != s.lastIdentity().DID {
		return common.UnexpectedValueError(s.lastIdentity().DID, stored.Holder)
	}

	return nil
}

func (s *Steps) reverifyStoredCredential() error {
	for i := 0; i < 2; i++ {
		verified, err := s.bddContext.Client.VerifyZKProof(s.zkCredential.ZKCredentialID, bddctx.AdminDID)
		if err != nil {
			return err
		}

		if !verified {
			return fmt.Errorf("re-verification %d did not pass", i+1)
		}
	}

	return nil
}

func (s *Steps) checkSubmissionRejected(code int) error {
	return expectCode(s.lastErr, code)
}

func (s *Steps) checkZKCredentialCount(expected int) error {
	stored, err := s.bddContext.Client.ListZKCredentials(s.lastIdentity().DID, "", "", 0)
	if err != nil {
		return err
	}

	if len(stored) != expected {
		return common.UnexpectedValueError(strconv.Itoa(expected), strconv.Itoa(len(stored)))
	}

	return nil
}

func (s *Steps) zkCredentialIDs() []string {
	if s.zkCredential == nil {
		return nil
	}

	return []string{s.zkCredential.ZKCredentialID}
}

func (s *Steps) lastIdentity() *models.CreateIdentityResponse {
	return s.identities[len(s.identities)-1]
}

func expectCode(err error, code int) error {
	if err == nil {
		return fmt.Errorf("expected a failure with code %d but the call succeeded", code)
	}

	hubErr := huberrors.AsError(err)
	if hubErr == nil {
		return fmt.Errorf("expected a classified failure with code %d but got: %w", code, err)
	}

	if int(hubErr.Code) != code {
		return common.UnexpectedValueError(strconv.Itoa(code), strconv.Itoa(int(hubErr.Code)))
	}

	return nil
}
