/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operation

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/trustbloc/edge-core/pkg/log"

	"github.com/trustbloc/identity-hub/pkg/identity"
	"github.com/trustbloc/identity-hub/pkg/internal/common/support"
	"github.com/trustbloc/identity-hub/pkg/metrics"
	"github.com/trustbloc/identity-hub/pkg/restapi/messages"
	"github.com/trustbloc/identity-hub/pkg/restapi/models"
)

const (
	logModuleName = "restapi"

	identitiesEndpointRoot    = "/identities"
	credentialsEndpointRoot   = "/credentials"
	issuersEndpointRoot       = "/issuers"
	circuitsEndpointRoot      = "/circuits"
	zkCredentialsEndpointRoot = "/zkcredentials"

	identityIDPathVariable     = "identityID"
	didPathVariable            = "did"
	credentialIDPathVariable   = "credentialID"
	issuerDIDPathVariable      = "issuerDID"
	circuitIDPathVariable      = "circuitID"
	zkCredentialIDPathVariable = "zkCredentialID"
	permissionIDPathVariable   = "permissionID"

	createIdentityEndpoint     = identitiesEndpointRoot
	identityEndpoint           = identitiesEndpointRoot + "/{" + identityIDPathVariable + "}"
	identityByDIDEndpoint      = identitiesEndpointRoot + "/did/{" + didPathVariable + "}"
	addProtocolEndpoint        = identityEndpoint + "/protocols"
	translateIdentityEndpoint  = identityEndpoint + "/translate"
	complianceEndpoint         = identityEndpoint + "/compliance"
	performAuditEndpoint       = identityEndpoint + "/audits"
	auditTrailEndpoint         = identityEndpoint + "/audit"
	permissionsEndpoint        = identityEndpoint + "/permissions"
	permissionEndpoint         = permissionsEndpoint + "/{" + permissionIDPathVariable + "}"
	registerIssuerEndpoint     = issuersEndpointRoot
	issuerEndpoint             = issuersEndpointRoot + "/{" + issuerDIDPathVariable + "}"
	issueCredentialEndpoint    = credentialsEndpointRoot
	credentialEndpoint         = credentialsEndpointRoot + "/{" + credentialIDPathVariable + "}"
	verifyCredentialEndpoint   = credentialEndpoint + "/verify"
	revokeCredentialEndpoint   = credentialEndpoint + "/revoke"
	credentialStatusEndpoint   = credentialEndpoint + "/status"
	registerCircuitEndpoint    = circuitsEndpointRoot
	circuitEndpoint            = circuitsEndpointRoot + "/{" + circuitIDPathVariable + "}"
	issueZKCredentialEndpoint  = zkCredentialsEndpointRoot
	zkCredentialEndpoint       = zkCredentialsEndpointRoot + "/{" + zkCredentialIDPathVariable + "}"
	verifyZKProofEndpoint      = zkCredentialEndpoint + "/verify"
	createDisclosureEndpoint   = zkCredentialEndpoint + "/disclosures"
	verifyDisclosureEndpoint   = zkCredentialsEndpointRoot + "/disclosures/verify"
	healthCheckEndpoint        = "/healthcheck"
	metricsEndpoint            = "/metrics"
)

var logger = log.New(logModuleName)

// Operation defines handler logic for the identity hub service.
type Operation struct {
	handlers []Handler
	registry *identity.Registry
	metrics  *metrics.Hub
}

// Handler represents an HTTP handler for each controller API endpoint.
type Handler interface {
	Path() string
	Method() string
	Handle() http.HandlerFunc
}

// Config defines configuration for identity hub operations.
type Config struct {
	Registry *identity.Registry
	Metrics  *metrics.Hub
}

// New returns a new identity hub operations instance.
func New(config *Config) *Operation {
	svc := &Operation{registry: config.Registry, metrics: config.Metrics}

	svc.registerHandler()

	return svc
}

// registerHandler register handlers to be exposed from this service as REST API endpoints.
func (c *Operation) registerHandler() {
	c.handlers = []Handler{
		support.NewHTTPHandler(createIdentityEndpoint, http.MethodPost,
			c.instrument("CreateIdentity", c.createIdentityHandler)),
		support.NewHTTPHandler(identityEndpoint, http.MethodPost,
			c.instrument("UpdateIdentity", c.updateIdentityHandler)),
		support.NewHTTPHandler(identityEndpoint, http.MethodDelete,
			c.instrument("DeactivateIdentity", c.deactivateIdentityHandler)),
		support.NewHTTPHandler(addProtocolEndpoint, http.MethodPost,
			c.instrument("AddProtocolIdentity", c.addProtocolHandler)),
		support.NewHTTPHandler(translateIdentityEndpoint, http.MethodPost,
			c.instrument("TranslateIdentity", c.translateIdentityHandler)),
		support.NewHTTPHandler(registerIssuerEndpoint, http.MethodPost,
			c.instrument("RegisterIssuer", c.registerIssuerHandler)),
		support.NewHTTPHandler(issuerEndpoint, http.MethodDelete,
			c.instrument("DeactivateIssuer", c.deactivateIssuerHandler)),
		support.NewHTTPHandler(issueCredentialEndpoint, http.MethodPost,
			c.instrument("IssueCredential", c.issueCredentialHandler)),
		support.NewHTTPHandler(verifyCredentialEndpoint, http.MethodPost,
			c.instrument("VerifyCredential", c.verifyCredentialHandler)),
		support.NewHTTPHandler(revokeCredentialEndpoint, http.MethodPost,
			c.instrument("RevokeCredential", c.revokeCredentialHandler)),
		support.NewHTTPHandler(registerCircuitEndpoint, http.MethodPost,
			c.instrument("RegisterCircuit", c.registerCircuitHandler)),
		support.NewHTTPHandler(circuitEndpoint, http.MethodDelete,
			c.instrument("DeactivateCircuit", c.deactivateCircuitHandler)),
		support.NewHTTPHandler(issueZKCredentialEndpoint, http.MethodPost,
			c.instrument("IssueZKCredential", c.issueZKCredentialHandler)),
		support.NewHTTPHandler(verifyZKProofEndpoint, http.MethodPost,
			c.instrument("VerifyZKProof", c.verifyZKProofHandler)),
		support.NewHTTPHandler(createDisclosureEndpoint, http.MethodPost,
			c.instrument("CreateDisclosure", c.createDisclosureHandler)),
		support.NewHTTPHandler(verifyDisclosureEndpoint, http.MethodPost,
			c.instrument("VerifyDisclosure", c.verifyDisclosureHandler)),
		support.NewHTTPHandler(complianceEndpoint, http.MethodPost,
			c.instrument("UpdateCompliance", c.updateComplianceHandler)),
		support.NewHTTPHandler(performAuditEndpoint, http.MethodPost,
			c.instrument("PerformAudit", c.performAuditHandler)),
		support.NewHTTPHandler(permissionsEndpoint, http.MethodPost,
			c.instrument("GrantPermission", c.grantPermissionHandler)),
		support.NewHTTPHandler(permissionEndpoint, http.MethodDelete,
			c.instrument("RevokePermission", c.revokePermissionHandler)),
		support.NewHTTPHandler(identityEndpoint, http.MethodGet,
			c.instrument("GetIdentity", c.readIdentityHandler)),
		support.NewHTTPHandler(identityByDIDEndpoint, http.MethodGet,
			c.instrument("GetIdentityByDID", c.readIdentityByDIDHandler)),
		support.NewHTTPHandler(createIdentityEndpoint, http.MethodGet,
			c.instrument("ListIdentities", c.listIdentitiesHandler)),
		support.NewHTTPHandler(credentialEndpoint, http.MethodGet,
			c.instrument("GetCredential", c.readCredentialHandler)),
		support.NewHTTPHandler(issueCredentialEndpoint, http.MethodGet,
			c.instrument("QueryCredentials", c.queryCredentialsHandler)),
		support.NewHTTPHandler(credentialStatusEndpoint, http.MethodGet,
			c.instrument("GetCredentialStatus", c.credentialStatusHandler)),
		support.NewHTTPHandler(issuerEndpoint, http.MethodGet,
			c.instrument("GetIssuer", c.readIssuerHandler)),
		support.NewHTTPHandler(registerIssuerEndpoint, http.MethodGet,
			c.instrument("ListIssuers", c.listIssuersHandler)),
		support.NewHTTPHandler(zkCredentialEndpoint, http.MethodGet,
			c.instrument("GetZKCredential", c.readZKCredentialHandler)),
		support.NewHTTPHandler(issueZKCredentialEndpoint, http.MethodGet,
			c.instrument("ListZKCredentials", c.listZKCredentialsHandler)),
		support.NewHTTPHandler(circuitEndpoint, http.MethodGet,
			c.instrument("GetCircuit", c.readCircuitHandler)),
		support.NewHTTPHandler(registerCircuitEndpoint, http.MethodGet,
			c.instrument("ListCircuits", c.listCircuitsHandler)),
		support.NewHTTPHandler(complianceEndpoint, http.MethodGet,
			c.instrument("GetCompliance", c.readComplianceHandler)),
		support.NewHTTPHandler(auditTrailEndpoint, http.MethodGet,
			c.instrument("AuditTrail", c.auditTrailHandler)),
		support.NewHTTPHandler(permissionsEndpoint, http.MethodGet,
			c.instrument("ListPermissions", c.listPermissionsHandler)),
		support.NewHTTPHandler(healthCheckEndpoint, http.MethodGet,
			c.instrument("HealthCheck", c.healthCheckHandler)),
	}

	if c.metrics != nil {
		c.handlers = append(c.handlers,
			support.NewHTTPHandler(metricsEndpoint, http.MethodGet, c.metrics.Handler().ServeHTTP))
	}
}

// GetRESTHandlers gets all controller API handlers available for this service.
func (c *Operation) GetRESTHandlers() []Handler {
	return c.handlers
}

// instrument wraps a handler so the hub's request metrics see it. Without a
// metrics hub the handler is returned untouched.
func (c *Operation) instrument(operation string, handle http.HandlerFunc) http.HandlerFunc {
	if c.metrics == nil {
		return handle
	}

	return func(rw http.ResponseWriter, req *http.Request) {
		start := time.Now()

		recorder := &statusRecorder{ResponseWriter: rw, status: http.StatusOK}

		handle(recorder, req)

		c.metrics.ObserveRequest(operation, req.Method, recorder.status, time.Since(start))
	}
}

// readCommand reads, unmarshals and validates a command envelope, writing the
// failure response itself when any step rejects the request.
func readCommand[P models.Payload](rw http.ResponseWriter, req *http.Request, command string,
	cmd *models.Command[P]) bool {
	requestBody, err := ioutil.ReadAll(req.Body)
	if err != nil {
		writeRequestReadFailure(rw, command, err)
		return false
	}

	logger.Debugf(messages.CommandReceiveRequest, command, requestBody)

	if errUnmarshal := json.Unmarshal(requestBody, cmd); errUnmarshal != nil {
		writeInvalidCommand(rw, command, errUnmarshal)
		return false
	}

	if errValidate := cmd.Validate(); errValidate != nil {
		writeInvalidCommand(rw, command, errValidate)
		return false
	}

	return true
}

// Create Identity swagger:route POST /identities createIdentityReq
//
// Registers a new universal identity with a freshly minted DID.
//
// Responses:
//    default: genericError
//        201: createIdentityRes
func (c *Operation) createIdentityHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "CreateIdentity"

	var cmd models.Command[models.CreateIdentityRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	newIdentity, err := c.registry.CreateIdentity(cmd.Actor, cmd.Payload.Protocols,
		cmd.Payload.SecurityLevel, cmd.Payload.Metadata, time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	location := req.Host + identitiesEndpointRoot + "/" + url.PathEscape(newIdentity.ID)

	writeCreatedResponse(rw, command, location, models.CreateIdentityResponse{
		ID:            newIdentity.ID,
		DID:           newIdentity.DID,
		SecurityLevel: newIdentity.SecurityLevel,
		CreatedAt:     newIdentity.CreatedAt,
	})
}

// Update Identity swagger:route POST /identities/{identityID} updateIdentityReq
//
// Updates an identity's security level or metadata.
//
// Responses:
//    default: genericError
//        200: identityRes
func (c *Operation) updateIdentityHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "UpdateIdentity"

	identityID, success := unescapePathVar(identityIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	var cmd models.Command[models.UpdateIdentityRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	updated, err := c.registry.UpdateIdentity(identityID, &cmd.Payload.UpdateRequest, cmd.Actor,
		time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	writeCommandSuccess(rw, command, updated)
}

// Deactivate Identity swagger:route DELETE /identities/{identityID} deactivateIdentityReq
//
// Deactivates an identity. Deactivation is permanent and idempotent.
//
// Responses:
//    default: genericError
//        200: identityRes
func (c *Operation) deactivateIdentityHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "DeactivateIdentity"

	identityID, success := unescapePathVar(identityIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	var cmd models.Command[models.DeactivateIdentityRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	deactivated, err := c.registry.DeactivateIdentity(identityID, cmd.Actor, time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	writeCommandSuccess(rw, command, deactivated)
}

// Add Protocol Identity swagger:route POST /identities/{identityID}/protocols addProtocolReq
//
// Binds one more protocol identity to an existing identity.
//
// Responses:
//    default: genericError
//        200: identityRes
func (c *Operation) addProtocolHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "AddProtocolIdentity"

	identityID, success := unescapePathVar(identityIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	var cmd models.Command[models.AddProtocolRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	updated, err := c.registry.AddProtocolIdentity(identityID, &cmd.Payload.ProtocolIdentity, cmd.Actor,
		time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	writeCommandSuccess(rw, command, updated)
}

// Translate Identity swagger:route POST /identities/{identityID}/translate translateIdentityReq
//
// Translates an identity's claims between two bound protocols. Read-only.
//
// Responses:
//    default: genericError
//        200: translateIdentityRes
func (c *Operation) translateIdentityHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "TranslateIdentity"

	identityID, success := unescapePathVar(identityIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	var cmd models.Command[models.TranslateIdentityRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	result, err := c.registry.TranslateIdentity(identityID, cmd.Payload.SourceProtocol,
		cmd.Payload.TargetProtocol)
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	writeCommandSuccess(rw, command, result)
}

// Register Issuer swagger:route POST /issuers registerIssuerReq
//
// Adds a credential issuer to the allow-list. Hub admin only.
//
// Responses:
//    default: genericError
//        201: issuerRes
func (c *Operation) registerIssuerHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "RegisterIssuer"

	var cmd models.Command[models.RegisterIssuerRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	issuer, err := c.registry.RegisterIssuer(cmd.Payload.DID, cmd.Payload.Name,
		cmd.Payload.AuthorizedTypes, cmd.Actor, time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	location := req.Host + issuersEndpointRoot + "/" + url.PathEscape(issuer.DID)

	writeCreatedResponse(rw, command, location, issuer)
}

// Deactivate Issuer swagger:route DELETE /issuers/{issuerDID} deactivateIssuerReq
//
// Removes an issuer from the allow-list. Its issued credentials stay valid.
//
// Responses:
//    default: genericError
//        200: issuerRes
func (c *Operation) deactivateIssuerHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "DeactivateIssuer"

	issuerDID, success := unescapePathVar(issuerDIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	var cmd models.Command[models.DeactivateIssuerRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	issuer, err := c.registry.DeactivateIssuer(issuerDID, cmd.Actor, time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	writeCommandSuccess(rw, command, issuer)
}

// Issue Credential swagger:route POST /credentials issueCredentialReq
//
// Issues a verifiable credential to a registered identity.
//
// Responses:
//    default: genericError
//        201: issueCredentialRes
func (c *Operation) issueCredentialHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "IssueCredential"

	var cmd models.Command[models.IssueCredentialRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	cred, err := c.registry.IssueCredential(cmd.Payload.IssuerDID, cmd.Payload.SubjectDID,
		cmd.Payload.Type, cmd.Payload.CredentialSubject, cmd.Payload.ExpirationDate, cmd.Actor,
		time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	location := req.Host + credentialsEndpointRoot + "/" + url.PathEscape(cred.ID)

	writeCreatedResponse(rw, command, location, models.IssueCredentialResponse{
		CredentialID: cred.ID,
		Type:         cred.Type,
		IssuedAt:     cred.IssuanceDate,
		ExpiresAt:    cred.ExpirationDate,
	})
}

// Verify Credential swagger:route POST /credentials/{credentialID}/verify verifyCredentialReq
//
// Verifies a stored credential's status, expiry and proof. Read-only.
//
// Responses:
//    default: genericError
//        200: verificationRes
func (c *Operation) verifyCredentialHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "VerifyCredential"

	credentialID, success := unescapePathVar(credentialIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	var cmd models.Command[models.VerifyCredentialRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	if err := c.registry.VerifyCredential(credentialID, time.Now().UTC()); err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	writeCommandSuccess(rw, command, models.VerificationResponse{Verified: true})
}

// Revoke Credential swagger:route POST /credentials/{credentialID}/revoke revokeCredentialReq
//
// Revokes a credential. Revocation is permanent and takes precedence over expiry.
//
// Responses:
//    default: genericError
//        200: revocationRes
func (c *Operation) revokeCredentialHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "RevokeCredential"

	credentialID, success := unescapePathVar(credentialIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	var cmd models.Command[models.RevokeCredentialRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	record, err := c.registry.RevokeCredential(credentialID, cmd.Payload.Reason, cmd.Actor,
		time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	writeCommandSuccess(rw, command, record)
}

// Register Circuit swagger:route POST /circuits registerCircuitReq
//
// Registers a zero-knowledge circuit and its verification key.
//
// Responses:
//    default: genericError
//        201: circuitRes
func (c *Operation) registerCircuitHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "RegisterCircuit"

	var cmd models.Command[models.RegisterCircuitRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	circuit, err := c.registry.RegisterCircuit(cmd.Payload.CircuitID, cmd.Payload.CircuitType,
		cmd.Payload.CircuitData, cmd.Payload.VerificationKey, cmd.Actor, time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	location := req.Host + circuitsEndpointRoot + "/" + url.PathEscape(circuit.ID)

	writeCreatedResponse(rw, command, location, circuit)
}

// Deactivate Circuit swagger:route DELETE /circuits/{circuitID} deactivateCircuitReq
//
// Deactivates a circuit so no further credentials can be issued against it.
//
// Responses:
//    default: genericError
//        200: circuitRes
func (c *Operation) deactivateCircuitHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "DeactivateCircuit"

	circuitID, success := unescapePathVar(circuitIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	var cmd models.Command[models.DeactivateCircuitRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	circuit, err := c.registry.DeactivateCircuit(circuitID, cmd.Actor, time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	writeCommandSuccess(rw, command, circuit)
}

// Issue ZK Credential swagger:route POST /zkcredentials issueZKCredentialReq
//
// Issues a zero-knowledge credential after proof verification and nullifier
// double-spend checking.
//
// Responses:
//    default: genericError
//        201: issueZKCredentialRes
func (c *Operation) issueZKCredentialHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "IssueZKCredential"

	var cmd models.Command[models.IssueZKCredentialRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	zkCred, err := c.registry.IssueZKCredential(cmd.Payload.ToIssueRequest(), cmd.Actor,
		time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	location := req.Host + zkCredentialsEndpointRoot + "/" + url.PathEscape(zkCred.ID)

	response := models.IssueZKCredentialResponse{
		ZKCredentialID: zkCred.ID,
		CircuitID:      zkCred.CircuitID,
		Holder:         zkCred.Holder,
		Nullifier:      zkCred.Nullifier,
		IssuedAt:       zkCred.CreatedAt,
		ExpiresAt:      zkCred.ExpiresAt,
	}
	if zkCred.PrivacyParameters != nil {
		response.PrivacyLevel = zkCred.PrivacyParameters.PrivacyLevel
	}

	writeCreatedResponse(rw, command, location, response)
}

// Verify ZK Proof swagger:route POST /zkcredentials/{zkCredentialID}/verify verifyZKProofReq
//
// Re-verifies a stored credential's proof. Read-only and repeatable.
//
// Responses:
//    default: genericError
//        200: verificationRes
func (c *Operation) verifyZKProofHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "VerifyZKProof"

	zkCredentialID, success := unescapePathVar(zkCredentialIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	var cmd models.Command[models.VerifyZKProofRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	verified, err := c.registry.VerifyZKProof(zkCredentialID)
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	writeCommandSuccess(rw, command, models.VerificationResponse{Verified: verified})
}

// Create Disclosure swagger:route POST /zkcredentials/{zkCredentialID}/disclosures createDisclosureReq
//
// Builds a signed selective disclosure of a stored credential. Read-only.
//
// Responses:
//    default: genericError
//        200: disclosureRes
func (c *Operation) createDisclosureHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "CreateDisclosure"

	zkCredentialID, success := unescapePathVar(zkCredentialIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	var cmd models.Command[models.CreateDisclosureRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	disclosure, proof, err := c.registry.CreateDisclosure(zkCredentialID, cmd.Payload.Disclose,
		cmd.Actor, time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	writeCommandSuccess(rw, command, models.DisclosureResponse{Disclosure: disclosure, Proof: proof})
}

// Verify Disclosure swagger:route POST /zkcredentials/disclosures/verify verifyDisclosureReq
//
// Verifies a selective disclosure proof against the stored credential.
//
// Responses:
//    default: genericError
//        200: verifyDisclosureRes
func (c *Operation) verifyDisclosureHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "VerifyDisclosure"

	var cmd models.Command[models.VerifyDisclosureRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	disclosure, err := c.registry.VerifyDisclosure(cmd.Payload.Proof, cmd.Payload.Schema,
		time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	writeCommandSuccess(rw, command, disclosure)
}

// Update Compliance swagger:route POST /identities/{identityID}/compliance updateComplianceReq
//
// Overwrites one regulation sub-record of an identity's compliance data.
//
// Responses:
//    default: genericError
//        200: complianceRes
func (c *Operation) updateComplianceHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "UpdateCompliance"

	identityID, success := unescapePathVar(identityIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	var cmd models.Command[models.UpdateComplianceRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	data, err := c.registry.UpdateCompliance(identityID, &cmd.Payload.Update, cmd.Actor,
		time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	writeCommandSuccess(rw, command, data)
}

// Perform Audit swagger:route POST /identities/{identityID}/audits performAuditReq
//
// Runs a compliance audit against an identity's recorded compliance data.
//
// Responses:
//    default: genericError
//        200: auditRes
func (c *Operation) performAuditHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "PerformAudit"

	identityID, success := unescapePathVar(identityIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	var cmd models.Command[models.PerformAuditRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	result, err := c.registry.PerformAudit(identityID, cmd.Payload.AuditType, cmd.Actor,
		time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	writeCommandSuccess(rw, command, result)
}

// Grant Permission swagger:route POST /identities/{identityID}/permissions grantPermissionReq
//
// Grants or denies an action on a resource to a grantee.
//
// Responses:
//    default: genericError
//        201: permissionRes
func (c *Operation) grantPermissionHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "GrantPermission"

	identityID, success := unescapePathVar(identityIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	var cmd models.Command[models.GrantPermissionRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	grant, err := c.registry.GrantPermission(identityID, cmd.Payload.Resource, cmd.Payload.Action,
		cmd.Payload.Grantee, cmd.Payload.Effect, cmd.Payload.ExpiresAt, cmd.Actor, time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	location := req.Host + identitiesEndpointRoot + "/" + url.PathEscape(identityID) +
		"/permissions/" + url.PathEscape(grant.ID)

	writeCreatedResponse(rw, command, location, grant)
}

// Revoke Permission swagger:route DELETE /identities/{identityID}/permissions/{permissionID} revokePermissionReq
//
// Removes a permission grant. Evaluation reflects the removal immediately.
//
// Responses:
//    default: genericError
//        200: permissionRes
func (c *Operation) revokePermissionHandler(rw http.ResponseWriter, req *http.Request) {
	const command = "RevokePermission"

	identityID, success := unescapePathVar(identityIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	permissionID, success := unescapePathVar(permissionIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	var cmd models.Command[models.RevokePermissionRequest]
	if !readCommand(rw, req, command, &cmd) {
		return
	}

	removed, err := c.registry.RevokePermission(identityID, permissionID, cmd.Actor, time.Now().UTC())
	if err != nil {
		c.writeCommandFailure(rw, command, err)
		return
	}

	writeCommandSuccess(rw, command, removed)
}

// Read Identity swagger:route GET /identities/{identityID} getIdentityReq
//
// Retrieves an identity with its protocol bindings, permissions and compliance data.
//
// Responses:
//    default: genericError
//        200: identityRes
func (c *Operation) readIdentityHandler(rw http.ResponseWriter, req *http.Request) {
	const query = "GetIdentity"

	identityID, success := unescapePathVar(identityIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	record, err := c.registry.GetIdentity(identityID)
	if err != nil {
		c.writeQueryFailure(rw, query, err)
		return
	}

	writeQuerySuccess(rw, query, record)
}

// Read Identity By DID swagger:route GET /identities/did/{did} getIdentityByDIDReq
//
// Retrieves an identity by its DID.
//
// Responses:
//    default: genericError
//        200: identityRes
func (c *Operation) readIdentityByDIDHandler(rw http.ResponseWriter, req *http.Request) {
	const query = "GetIdentityByDID"

	did, success := unescapePathVar(didPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	record, err := c.registry.GetIdentityByDID(did)
	if err != nil {
		c.writeQueryFailure(rw, query, err)
		return
	}

	writeQuerySuccess(rw, query, record)
}

// List Identities swagger:route GET /identities listIdentitiesReq
//
// Lists identity core records, optionally filtered by creator. Paged.
//
// Responses:
//    default: genericError
//        200: identityListRes
func (c *Operation) listIdentitiesHandler(rw http.ResponseWriter, req *http.Request) {
	const query = "ListIdentities"

	limit, startAfter, err := pageParams(req)
	if err != nil {
		writeInvalidQuery(rw, query, err)
		return
	}

	identities, err := c.registry.ListIdentities(req.URL.Query().Get("creator"), startAfter, limit)
	if err != nil {
		c.writeQueryFailure(rw, query, err)
		return
	}

	writeQuerySuccess(rw, query, identities)
}

// Read Credential swagger:route GET /credentials/{credentialID} getCredentialReq
//
// Retrieves a stored verifiable credential.
//
// Responses:
//    default: genericError
//        200: credentialRes
func (c *Operation) readCredentialHandler(rw http.ResponseWriter, req *http.Request) {
	const query = "GetCredential"

	credentialID, success := unescapePathVar(credentialIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	cred, err := c.registry.GetCredential(credentialID)
	if err != nil {
		c.writeQueryFailure(rw, query, err)
		return
	}

	writeQuerySuccess(rw, query, cred)
}

// Query Credentials swagger:route GET /credentials queryCredentialsReq
//
// Lists stored credentials filtered by issuer and/or subject DID.
//
// Responses:
//    default: genericError
//        200: credentialListRes
func (c *Operation) queryCredentialsHandler(rw http.ResponseWriter, req *http.Request) {
	const query = "QueryCredentials"

	credentials, err := c.registry.QueryCredentials(req.URL.Query().Get("issuer"),
		req.URL.Query().Get("subject"))
	if err != nil {
		c.writeQueryFailure(rw, query, err)
		return
	}

	writeQuerySuccess(rw, query, credentials)
}

// Credential Status swagger:route GET /credentials/{credentialID}/status getCredentialStatusReq
//
// Reports a credential's revocation state.
//
// Responses:
//    default: genericError
//        200: credentialStatusRes
func (c *Operation) credentialStatusHandler(rw http.ResponseWriter, req *http.Request) {
	const query = "GetCredentialStatus"

	credentialID, success := unescapePathVar(credentialIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	revoked, err := c.registry.IsCredentialRevoked(credentialID)
	if err != nil {
		c.writeQueryFailure(rw, query, err)
		return
	}

	writeQuerySuccess(rw, query, models.CredentialStatusResponse{
		CredentialID: credentialID,
		Revoked:      revoked,
	})
}

// Read Issuer swagger:route GET /issuers/{issuerDID} getIssuerReq
//
// Retrieves a registered issuer.
//
// Responses:
//    default: genericError
//        200: issuerRes
func (c *Operation) readIssuerHandler(rw http.ResponseWriter, req *http.Request) {
	const query = "GetIssuer"

	issuerDID, success := unescapePathVar(issuerDIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	issuer, err := c.registry.GetIssuer(issuerDID)
	if err != nil {
		c.writeQueryFailure(rw, query, err)
		return
	}

	writeQuerySuccess(rw, query, issuer)
}

// List Issuers swagger:route GET /issuers listIssuersReq
//
// Lists every registered issuer.
//
// Responses:
//    default: genericError
//        200: issuerListRes
func (c *Operation) listIssuersHandler(rw http.ResponseWriter, req *http.Request) {
	const query = "ListIssuers"

	issuers, err := c.registry.ListIssuers()
	if err != nil {
		c.writeQueryFailure(rw, query, err)
		return
	}

	writeQuerySuccess(rw, query, issuers)
}

// Read ZK Credential swagger:route GET /zkcredentials/{zkCredentialID} getZKCredentialReq
//
// Retrieves a stored zero-knowledge credential.
//
// Responses:
//    default: genericError
//        200: zkCredentialRes
func (c *Operation) readZKCredentialHandler(rw http.ResponseWriter, req *http.Request) {
	const query = "GetZKCredential"

	zkCredentialID, success := unescapePathVar(zkCredentialIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	zkCred, err := c.registry.GetZKCredential(zkCredentialID)
	if err != nil {
		c.writeQueryFailure(rw, query, err)
		return
	}

	writeQuerySuccess(rw, query, zkCred)
}

// List ZK Credentials swagger:route GET /zkcredentials listZKCredentialsReq
//
// Lists zero-knowledge credentials filtered by holder and/or circuit. Paged.
//
// Responses:
//    default: genericError
//        200: zkCredentialListRes
func (c *Operation) listZKCredentialsHandler(rw http.ResponseWriter, req *http.Request) {
	const query = "ListZKCredentials"

	limit, startAfter, err := pageParams(req)
	if err != nil {
		writeInvalidQuery(rw, query, err)
		return
	}

	zkCredentials, err := c.registry.ListZKCredentials(req.URL.Query().Get("holder"),
		req.URL.Query().Get("circuit"), startAfter, limit)
	if err != nil {
		c.writeQueryFailure(rw, query, err)
		return
	}

	writeQuerySuccess(rw, query, zkCredentials)
}

// Read Circuit swagger:route GET /circuits/{circuitID} getCircuitReq
//
// Retrieves a registered circuit.
//
// Responses:
//    default: genericError
//        200: circuitRes
func (c *Operation) readCircuitHandler(rw http.ResponseWriter, req *http.Request) {
	const query = "GetCircuit"

	circuitID, success := unescapePathVar(circuitIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	circuit, err := c.registry.GetCircuit(circuitID)
	if err != nil {
		c.writeQueryFailure(rw, query, err)
		return
	}

	writeQuerySuccess(rw, query, circuit)
}

// List Circuits swagger:route GET /circuits listCircuitsReq
//
// Lists registered circuits. Paged.
//
// Responses:
//    default: genericError
//        200: circuitListRes
func (c *Operation) listCircuitsHandler(rw http.ResponseWriter, req *http.Request) {
	const query = "ListCircuits"

	limit, startAfter, err := pageParams(req)
	if err != nil {
		writeInvalidQuery(rw, query, err)
		return
	}

	circuits, err := c.registry.ListCircuits(startAfter, limit)
	if err != nil {
		c.writeQueryFailure(rw, query, err)
		return
	}

	writeQuerySuccess(rw, query, circuits)
}

// Read Compliance swagger:route GET /identities/{identityID}/compliance getComplianceReq
//
// Retrieves an identity's compliance data.
//
// Responses:
//    default: genericError
//        200: complianceRes
func (c *Operation) readComplianceHandler(rw http.ResponseWriter, req *http.Request) {
	const query = "GetCompliance"

	identityID, success := unescapePathVar(identityIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	data, err := c.registry.GetCompliance(identityID)
	if err != nil {
		c.writeQueryFailure(rw, query, err)
		return
	}

	writeQuerySuccess(rw, query, data)
}

// Audit Trail swagger:route GET /identities/{identityID}/audit auditTrailReq
//
// Retrieves the identity's command audit trail in chronological order. Paged.
//
// Responses:
//    default: genericError
//        200: auditTrailRes
func (c *Operation) auditTrailHandler(rw http.ResponseWriter, req *http.Request) {
	const query = "AuditTrail"

	identityID, success := unescapePathVar(identityIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	limit, startAfter, err := pageParams(req)
	if err != nil {
		writeInvalidQuery(rw, query, err)
		return
	}

	trail, err := c.registry.AuditTrail(identityID, startAfter, limit)
	if err != nil {
		c.writeQueryFailure(rw, query, err)
		return
	}

	writeQuerySuccess(rw, query, trail)
}

// List Permissions swagger:route GET /identities/{identityID}/permissions listPermissionsReq
//
// Lists an identity's active permission grants.
//
// Responses:
//    default: genericError
//        200: permissionListRes
func (c *Operation) listPermissionsHandler(rw http.ResponseWriter, req *http.Request) {
	const query = "ListPermissions"

	identityID, success := unescapePathVar(identityIDPathVariable, mux.Vars(req), rw)
	if !success {
		return
	}

	permissions, err := c.registry.ListPermissions(identityID)
	if err != nil {
		c.writeQueryFailure(rw, query, err)
		return
	}

	writeQuerySuccess(rw, query, permissions)
}

// Health Check swagger:route GET /healthcheck healthCheckReq
//
// Reports service liveness.
//
// Responses:
//    default: genericError
//        200: healthCheckRes
func (c *Operation) healthCheckHandler(rw http.ResponseWriter, _ *http.Request) {
	const query = "HealthCheck"

	writeQuerySuccess(rw, query, models.HealthCheckResponse{
		Status:      "success",
		CurrentTime: time.Now().UTC(),
	})
}
