/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package client provides a Go client for the identity hub REST API. Failures
// the server classified are returned as *huberrors.Error values, so callers
// can branch on huberrors.IsCode and rely on the retry policy the hub
// publishes: with WithRetry set, the client retries transport failures and
// retryable (integration/internal) hub failures with exponential backoff and
// gives up immediately on everything else.
package client

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/trustbloc/edge-core/pkg/log"

	"github.com/trustbloc/identity-hub/pkg/bridge"
	"github.com/trustbloc/identity-hub/pkg/compliance"
	"github.com/trustbloc/identity-hub/pkg/credential"
	"github.com/trustbloc/identity-hub/pkg/huberrors"
	"github.com/trustbloc/identity-hub/pkg/identity"
	"github.com/trustbloc/identity-hub/pkg/permission"
	"github.com/trustbloc/identity-hub/pkg/restapi/models"
	"github.com/trustbloc/identity-hub/pkg/zkproof"
)

var logger = log.New("identity-hub-client")

type addHeaders func(req *http.Request) (*http.Header, error)

type marshalFunc func(interface{}) ([]byte, error)

// commandEnvelope mirrors the server's command envelope without its type
// parameter so one marshaling path serves every command.
type commandEnvelope struct {
	Actor   string      `json:"actor"`
	Payload interface{} `json:"payload"`
}

// Client is used to interact with an identity hub server.
type Client struct {
	hubServerURL         string
	httpClient           *http.Client
	marshal              marshalFunc
	headersFunc          addHeaders
	maxRetries           uint64
	retryInitialInterval time.Duration
}

// Option configures the identity hub client.
type Option func(opts *Client)

// WithTLSConfig option is for definition of secured HTTP transport using a tls.Config instance.
func WithTLSConfig(tlsConfig *tls.Config) Option {
	return func(opts *Client) {
		opts.httpClient.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}
}

// WithHeaders option is for setting additional http request headers.
func WithHeaders(addHeadersFunc addHeaders) Option {
	return func(opts *Client) {
		opts.headersFunc = addHeadersFunc
	}
}

// WithRetry option enables retrying of requests that failed at the transport
// level or with a retryable hub failure. Requests are retried up to maxRetries
// times with exponential backoff starting at initialInterval.
func WithRetry(maxRetries uint64, initialInterval time.Duration) Option {
	return func(opts *Client) {
		opts.maxRetries = maxRetries
		opts.retryInitialInterval = initialInterval
	}
}

// ReqOpts is used to interact with an identity hub operation.
type ReqOpts struct {
	addHeadersFunc addHeaders
}

// ReqOption identity hub request option.
type ReqOption func(opts *ReqOpts)

// WithRequestHeader option is for setting additional http request headers.
func WithRequestHeader(addHeadersFunc addHeaders) ReqOption {
	return func(opts *ReqOpts) {
		opts.addHeadersFunc = addHeadersFunc
	}
}

// New returns a new instance of an identity hub client.
func New(hubServerURL string, opts ...Option) *Client {
	c := &Client{hubServerURL: hubServerURL, httpClient: &http.Client{}, marshal: json.Marshal}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CreateIdentity sends the identity hub a request to register a new universal identity.
func (c *Client) CreateIdentity(actor string, request *models.CreateIdentityRequest,
	opts ...ReqOption) (*models.CreateIdentityResponse, error) {
	response := &models.CreateIdentityResponse{}

	err := c.sendCommand(http.MethodPost, "/identities", "CreateIdentity",
		actor, request, http.StatusCreated, response, opts)
	if err != nil {
		return nil, err
	}

	return response, nil
}

// UpdateIdentity sends the identity hub a request to change an identity's
// security level or metadata. The updated identity is returned.
func (c *Client) UpdateIdentity(identityID, actor string, request *models.UpdateIdentityRequest,
	opts ...ReqOption) (*identity.UniversalIdentity, error) {
	updated := &identity.UniversalIdentity{}

	err := c.sendCommand(http.MethodPost, "/identities/"+url.PathEscape(identityID), "UpdateIdentity",
		actor, request, http.StatusOK, updated, opts)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeactivateIdentity sends the identity hub a request to soft-delete an identity.
func (c *Client) DeactivateIdentity(identityID, actor string,
	opts ...ReqOption) (*identity.UniversalIdentity, error) {
	deactivated := &identity.UniversalIdentity{}

	err := c.sendCommand(http.MethodDelete, "/identities/"+url.PathEscape(identityID), "DeactivateIdentity",
		actor, models.DeactivateIdentityRequest{}, http.StatusOK, deactivated, opts)
	if err != nil {
		return nil, err
	}

	return deactivated, nil
}

// AddProtocolIdentity sends the identity hub a request to bind another
// protocol identity to an identity.
func (c *Client) AddProtocolIdentity(identityID, actor string, request *models.AddProtocolRequest,
	opts ...ReqOption) (*identity.UniversalIdentity, error) {
	updated := &identity.UniversalIdentity{}

	err := c.sendCommand(http.MethodPost, "/identities/"+url.PathEscape(identityID)+"/protocols",
		"AddProtocolIdentity", actor, request, http.StatusOK, updated, opts)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// TranslateIdentity sends the identity hub a request to translate an
// identity's claims between two of its bound protocols.
func (c *Client) TranslateIdentity(identityID, actor string, request *models.TranslateIdentityRequest,
	opts ...ReqOption) (*bridge.Result, error) {
	result := &bridge.Result{}

	err := c.sendCommand(http.MethodPost, "/identities/"+url.PathEscape(identityID)+"/translate",
		"TranslateIdentity", actor, request, http.StatusOK, result, opts)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// RegisterIssuer sends the identity hub a request to add an issuer to the allow-list.
func (c *Client) RegisterIssuer(actor string, request *models.RegisterIssuerRequest,
	opts ...ReqOption) (*credential.Issuer, error) {
	issuer := &credential.Issuer{}

	err := c.sendCommand(http.MethodPost, "/issuers", "RegisterIssuer",
		actor, request, http.StatusCreated, issuer, opts)
	if err != nil {
		return nil, err
	}

	return issuer, nil
}

// DeactivateIssuer sends the identity hub a request to deactivate a registered issuer.
func (c *Client) DeactivateIssuer(issuerDID, actor string, opts ...ReqOption) (*credential.Issuer, error) {
	issuer := &credential.Issuer{}

	err := c.sendCommand(http.MethodDelete, "/issuers/"+url.PathEscape(issuerDID), "DeactivateIssuer",
		actor, models.DeactivateIssuerRequest{}, http.StatusOK, issuer, opts)
	if err != nil {
		return nil, err
	}

	return issuer, nil
}

// IssueCredential sends the identity hub a request to issue a verifiable credential.
func (c *Client) IssueCredential(actor string, request *models.IssueCredentialRequest,
	opts ...ReqOption) (*models.IssueCredentialResponse, error) {
	response := &models.IssueCredentialResponse{}

	err := c.sendCommand(http.MethodPost, "/credentials", "IssueCredential",
		actor, request, http.StatusCreated, response, opts)
	if err != nil {
		return nil, err
	}

	return response, nil
}

// VerifyCredential asks the identity hub to verify a stored credential.
// Failed verifications are returned as classified errors.
func (c *Client) VerifyCredential(credentialID, actor string, opts ...ReqOption) (bool, error) {
	response := &models.VerificationResponse{}

	err := c.sendCommand(http.MethodPost, "/credentials/"+url.PathEscape(credentialID)+"/verify",
		"VerifyCredential", actor, models.VerifyCredentialRequest{}, http.StatusOK, response, opts)
	if err != nil {
		return false, err
	}

	return response.Verified, nil
}

// RevokeCredential sends the identity hub a request to revoke a credential.
// Revocation is permanent; revoking an already-revoked credential returns the
// original record unchanged.
func (c *Client) RevokeCredential(credentialID, reason, actor string,
	opts ...ReqOption) (*credential.RevocationRecord, error) {
	record := &credential.RevocationRecord{}

	err := c.sendCommand(http.MethodPost, "/credentials/"+url.PathEscape(credentialID)+"/revoke",
		"RevokeCredential", actor, models.RevokeCredentialRequest{Reason: reason}, http.StatusOK, record, opts)
	if err != nil {
		return nil, err
	}

	return record, nil
}

// RegisterCircuit sends the identity hub a request to register a
// zero-knowledge circuit and its verification key.
func (c *Client) RegisterCircuit(actor string, request *models.RegisterCircuitRequest,
	opts ...ReqOption) (*zkproof.Circuit, error) {
	circuit := &zkproof.Circuit{}

	err := c.sendCommand(http.MethodPost, "/circuits", "RegisterCircuit",
		actor, request, http.StatusCreated, circuit, opts)
	if err != nil {
		return nil, err
	}

	return circuit, nil
}

// DeactivateCircuit sends the identity hub a request to deactivate a circuit,
// blocking new proof submissions against it.
func (c *Client) DeactivateCircuit(circuitID, actor string, opts ...ReqOption) (*zkproof.Circuit, error) {
	circuit := &zkproof.Circuit{}

	err := c.sendCommand(http.MethodDelete, "/circuits/"+url.PathEscape(circuitID), "DeactivateCircuit",
		actor, models.DeactivateCircuitRequest{}, http.StatusOK, circuit, opts)
	if err != nil {
		return nil, err
	}

	return circuit, nil
}

// IssueZKCredential submits a zero-knowledge proof and mints a credential from
// it. The response carries the nullifier derived from the submission's seed.
func (c *Client) IssueZKCredential(actor string, request *models.IssueZKCredentialRequest,
	opts ...ReqOption) (*models.IssueZKCredentialResponse, error) {
	response := &models.IssueZKCredentialResponse{}

	err := c.sendCommand(http.MethodPost, "/zkcredentials", "IssueZKCredential",
		actor, request, http.StatusCreated, response, opts)
	if err != nil {
		return nil, err
	}

	return response, nil
}

// VerifyZKProof asks the identity hub to re-verify a stored zero-knowledge
// credential's proof. Verification is repeatable and never consumes the nullifier.
func (c *Client) VerifyZKProof(zkCredentialID, actor string, opts ...ReqOption) (bool, error) {
	response := &models.VerificationResponse{}

	err := c.sendCommand(http.MethodPost, "/zkcredentials/"+url.PathEscape(zkCredentialID)+"/verify",
		"VerifyZKProof", actor, models.VerifyZKProofRequest{}, http.StatusOK, response, opts)
	if err != nil {
		return false, err
	}

	return response.Verified, nil
}

// CreateDisclosure asks the identity hub to build a selective disclosure from
// a zero-knowledge credential, revealing only the named public inputs.
func (c *Client) CreateDisclosure(zkCredentialID, actor string, request *models.CreateDisclosureRequest,
	opts ...ReqOption) (*models.DisclosureResponse, error) {
	response := &models.DisclosureResponse{}

	err := c.sendCommand(http.MethodPost, "/zkcredentials/"+url.PathEscape(zkCredentialID)+"/disclosures",
		"CreateDisclosure", actor, request, http.StatusOK, response, opts)
	if err != nil {
		return nil, err
	}

	return response, nil
}

// VerifyDisclosure asks the identity hub to verify a selective disclosure
// proof against the verifier's attribute schema.
func (c *Client) VerifyDisclosure(actor string, request *models.VerifyDisclosureRequest,
	opts ...ReqOption) (*zkproof.Disclosure, error) {
	disclosure := &zkproof.Disclosure{}

	err := c.sendCommand(http.MethodPost, "/zkcredentials/disclosures/verify", "VerifyDisclosure",
		actor, request, http.StatusOK, disclosure, opts)
	if err != nil {
		return nil, err
	}

	return disclosure, nil
}

// UpdateCompliance overwrites one regulation sub-record of an identity's
// compliance data. The full compliance data is returned.
func (c *Client) UpdateCompliance(identityID, actor string, request *models.UpdateComplianceRequest,
	opts ...ReqOption) (*compliance.Data, error) {
	data := &compliance.Data{}

	err := c.sendCommand(http.MethodPost, "/identities/"+url.PathEscape(identityID)+"/compliance",
		"UpdateCompliance", actor, request, http.StatusOK, data, opts)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// PerformAudit runs a compliance audit against an identity and returns the scored result.
func (c *Client) PerformAudit(identityID string, auditType compliance.AuditType, actor string,
	opts ...ReqOption) (*compliance.AuditResult, error) {
	result := &compliance.AuditResult{}

	err := c.sendCommand(http.MethodPost, "/identities/"+url.PathEscape(identityID)+"/audits",
		"PerformAudit", actor, models.PerformAuditRequest{AuditType: auditType}, http.StatusOK, result, opts)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GrantPermission grants or denies an action on a resource to a grantee.
func (c *Client) GrantPermission(identityID, actor string, request *models.GrantPermissionRequest,
	opts ...ReqOption) (*permission.Permission, error) {
	grant := &permission.Permission{}

	err := c.sendCommand(http.MethodPost, "/identities/"+url.PathEscape(identityID)+"/permissions",
		"GrantPermission", actor, request, http.StatusCreated, grant, opts)
	if err != nil {
		return nil, err
	}

	return grant, nil
}

// RevokePermission removes a permission grant. The removed grant is returned.
func (c *Client) RevokePermission(identityID, permissionID, actor string,
	opts ...ReqOption) (*permission.Permission, error) {
	removed := &permission.Permission{}

	err := c.sendCommand(http.MethodDelete,
		"/identities/"+url.PathEscape(identityID)+"/permissions/"+url.PathEscape(permissionID),
		"RevokePermission", actor, models.RevokePermissionRequest{}, http.StatusOK, removed, opts)
	if err != nil {
		return nil, err
	}

	return removed, nil
}

// ReadIdentity retrieves an identity with its protocol bindings, permissions
// and compliance data.
func (c *Client) ReadIdentity(identityID string, opts ...ReqOption) (*identity.UniversalIdentity, error) {
	record := &identity.UniversalIdentity{}

	err := c.sendQuery("/identities/"+url.PathEscape(identityID), record, opts)
	if err != nil {
		return nil, err
	}

	return record, nil
}

// ReadIdentityByDID retrieves an identity by its DID.
func (c *Client) ReadIdentityByDID(did string, opts ...ReqOption) (*identity.UniversalIdentity, error) {
	record := &identity.UniversalIdentity{}

	err := c.sendQuery("/identities/did/"+url.PathEscape(did), record, opts)
	if err != nil {
		return nil, err
	}

	return record, nil
}

// ListIdentities lists identity core records, optionally filtered by creator.
// A blank after and zero limit request the first page with the server's
// default page size.
func (c *Client) ListIdentities(creator, after string, limit int,
	opts ...ReqOption) ([]identity.UniversalIdentity, error) {
	values := url.Values{}
	if creator != "" {
		values.Set("creator", creator)
	}

	var identities []identity.UniversalIdentity

	err := c.sendQuery("/identities"+pageQuery(values, after, limit), &identities, opts)
	if err != nil {
		return nil, err
	}

	return identities, nil
}

// ReadCredential retrieves a stored verifiable credential.
func (c *Client) ReadCredential(credentialID string, opts ...ReqOption) (*credential.Credential, error) {
	cred := &credential.Credential{}

	err := c.sendQuery("/credentials/"+url.PathEscape(credentialID), cred, opts)
	if err != nil {
		return nil, err
	}

	return cred, nil
}

// QueryCredentials lists stored credentials filtered by issuer and/or subject DID.
func (c *Client) QueryCredentials(issuerDID, subjectDID string, opts ...ReqOption) ([]credential.Credential, error) {
	values := url.Values{}
	if issuerDID != "" {
		values.Set("issuer", issuerDID)
	}

	if subjectDID != "" {
		values.Set("subject", subjectDID)
	}

	endpoint := "/credentials"
	if len(values) > 0 {
		endpoint += "?" + values.Encode()
	}

	var credentials []credential.Credential

	err := c.sendQuery(endpoint, &credentials, opts)
	if err != nil {
		return nil, err
	}

	return credentials, nil
}

// CredentialStatus reports a credential's revocation state.
func (c *Client) CredentialStatus(credentialID string, opts ...ReqOption) (*models.CredentialStatusResponse, error) {
	status := &models.CredentialStatusResponse{}

	err := c.sendQuery("/credentials/"+url.PathEscape(credentialID)+"/status", status, opts)
	if err != nil {
		return nil, err
	}

	return status, nil
}

// ReadIssuer retrieves a registered issuer.
func (c *Client) ReadIssuer(issuerDID string, opts ...ReqOption) (*credential.Issuer, error) {
	issuer := &credential.Issuer{}

	err := c.sendQuery("/issuers/"+url.PathEscape(issuerDID), issuer, opts)
	if err != nil {
		return nil, err
	}

	return issuer, nil
}

// ListIssuers lists every registered issuer.
func (c *Client) ListIssuers(opts ...ReqOption) ([]credential.Issuer, error) {
	var issuers []credential.Issuer

	err := c.sendQuery("/issuers", &issuers, opts)
	if err != nil {
		return nil, err
	}

	return issuers, nil
}

// ReadZKCredential retrieves a stored zero-knowledge credential.
func (c *Client) ReadZKCredential(zkCredentialID string, opts ...ReqOption) (*zkproof.ZKCredential, error) {
	zkCred := &zkproof.ZKCredential{}

	err := c.sendQuery("/zkcredentials/"+url.PathEscape(zkCredentialID), zkCred, opts)
	if err != nil {
		return nil, err
	}

	return zkCred, nil
}

// ListZKCredentials lists zero-knowledge credentials filtered by holder
// and/or circuit. Paged like ListIdentities.
func (c *Client) ListZKCredentials(holder, circuitID, after string, limit int,
	opts ...ReqOption) ([]zkproof.ZKCredential, error) {
	values := url.Values{}
	if holder != "" {
		values.Set("holder", holder)
	}

	if circuitID != "" {
		values.Set("circuit", circuitID)
	}

	var zkCredentials []zkproof.ZKCredential

	err := c.sendQuery("/zkcredentials"+pageQuery(values, after, limit), &zkCredentials, opts)
	if err != nil {
		return nil, err
	}

	return zkCredentials, nil
}

// ReadCircuit retrieves a registered circuit.
func (c *Client) ReadCircuit(circuitID string, opts ...ReqOption) (*zkproof.Circuit, error) {
	circuit := &zkproof.Circuit{}

	err := c.sendQuery("/circuits/"+url.PathEscape(circuitID), circuit, opts)
	if err != nil {
		return nil, err
	}

	return circuit, nil
}

// ListCircuits lists registered circuits. Paged like ListIdentities.
func (c *Client) ListCircuits(after string, limit int, opts ...ReqOption) ([]zkproof.Circuit, error) {
	var circuits []zkproof.Circuit

	err := c.sendQuery("/circuits"+pageQuery(url.Values{}, after, limit), &circuits, opts)
	if err != nil {
		return nil, err
	}

	return circuits, nil
}

// ReadCompliance retrieves an identity's compliance data.
func (c *Client) ReadCompliance(identityID string, opts ...ReqOption) (*compliance.Data, error) {
	data := &compliance.Data{}

	err := c.sendQuery("/identities/"+url.PathEscape(identityID)+"/compliance", data, opts)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// AuditTrail retrieves an identity's command audit trail in chronological
// order. Paged like ListIdentities.
func (c *Client) AuditTrail(identityID, after string, limit int,
	opts ...ReqOption) ([]compliance.AuditEntry, error) {
	var trail []compliance.AuditEntry

	err := c.sendQuery("/identities/"+url.PathEscape(identityID)+"/audit"+pageQuery(url.Values{}, after, limit),
		&trail, opts)
	if err != nil {
		return nil, err
	}

	return trail, nil
}

// ListPermissions lists an identity's permission grants.
func (c *Client) ListPermissions(identityID string, opts ...ReqOption) ([]permission.Permission, error) {
	var permissions []permission.Permission

	err := c.sendQuery("/identities/"+url.PathEscape(identityID)+"/permissions", &permissions, opts)
	if err != nil {
		return nil, err
	}

	return permissions, nil
}

// HealthCheck reports the identity hub's liveness.
func (c *Client) HealthCheck(opts ...ReqOption) (*models.HealthCheckResponse, error) {
	health := &models.HealthCheckResponse{}

	err := c.sendQuery("/healthcheck", health, opts)
	if err != nil {
		return nil, err
	}

	return health, nil
}

// sendCommand marshals the command envelope, posts it and decodes the
// response into result when the expected status arrives.
func (c *Client) sendCommand(method, endpoint, command, actor string, payload interface{},
	wantStatus int, result interface{}, opts []ReqOption) error {
	reqOpt := &ReqOpts{}

	for _, o := range opts {
		o(reqOpt)
	}

	jsonToSend, err := c.marshal(commandEnvelope{Actor: actor, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal %s command: %w", command, err)
	}

	logger.Debugf("Sending %s command to the identity hub: %s", command, jsonToSend)

	respBytes, err := c.sendForStatus(method, c.hubServerURL+endpoint, jsonToSend,
		c.getHeaderFunc(reqOpt), wantStatus)
	if err != nil {
		return err
	}

	return json.Unmarshal(respBytes, result)
}

// sendQuery issues a GET and decodes the response into result.
func (c *Client) sendQuery(endpoint string, result interface{}, opts []ReqOption) error {
	reqOpt := &ReqOpts{}

	for _, o := range opts {
		o(reqOpt)
	}

	respBytes, err := c.sendForStatus(http.MethodGet, c.hubServerURL+endpoint, nil,
		c.getHeaderFunc(reqOpt), http.StatusOK)
	if err != nil {
		return err
	}

	return json.Unmarshal(respBytes, result)
}

// sendForStatus sends the request, retrying per the client's retry policy,
// until the expected status arrives, a non-retryable failure is returned, or
// the retry budget is exhausted.
func (c *Client) sendForStatus(method, endpoint string, body []byte, headersFunc addHeaders,
	wantStatus int) ([]byte, error) {
	var respBytes []byte

	attempt := func() error {
		statusCode, _, respBody, err := c.sendHTTPRequest(method, endpoint, body, headersFunc)
		if err != nil {
			return err
		}

		respBytes = respBody

		if statusCode == wantStatus {
			return nil
		}

		failure := responseError(statusCode, respBody)

		if hubErr := huberrors.AsError(failure); hubErr != nil && hubErr.IsRetryable() {
			return failure
		}

		return backoff.Permanent(failure)
	}

	err := backoff.Retry(attempt, c.newBackOff())
	if err != nil {
		return nil, err
	}

	return respBytes, nil
}

// responseError turns a non-success response into an error: classified hub
// failures come back as *huberrors.Error, anything else as a generic error
// carrying the status code and body.
func responseError(statusCode int, respBytes []byte) error {
	hubErr := &huberrors.Error{}

	if err := json.Unmarshal(respBytes, hubErr); err == nil && hubErr.Code != 0 {
		return hubErr
	}

	return fmt.Errorf("the identity hub server returned status code %d along with the following message: %s",
		statusCode, respBytes)
}

func (c *Client) newBackOff() backoff.BackOff {
	if c.maxRetries == 0 {
		return &backoff.StopBackOff{}
	}

	expBackOff := backoff.NewExponentialBackOff()

	if c.retryInitialInterval > 0 {
		expBackOff.InitialInterval = c.retryInitialInterval
	}

	return backoff.WithMaxRetries(expBackOff, c.maxRetries)
}

func (c *Client) sendHTTPRequest(method, endpoint string, body []byte,
	addHeadersFunc addHeaders) (int, http.Header, []byte, error) {
	req, errReq := http.NewRequest(method, endpoint, bytes.NewBuffer(body))
	if errReq != nil {
		return -1, nil, nil, errReq
	}

	if addHeadersFunc != nil {
		httpHeaders, err := addHeadersFunc(req)
		if err != nil {
			return -1, nil, nil, fmt.Errorf("add optional request headers error: %w", err)
		}

		if httpHeaders != nil {
			req.Header = httpHeaders.Clone()
		}
	}

	if method == http.MethodPost || method == http.MethodDelete {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req) //nolint: bodyclose
	if err != nil {
		return -1, nil, nil, err
	}

	defer closeReadCloser(resp.Body)

	respBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return -1, nil, nil, err
	}

	logger.Debugf(`sent %s request to %s response status code: %d response body: %s`, method, endpoint,
		resp.StatusCode, respBytes)

	return resp.StatusCode, resp.Header, respBytes, nil
}

func (c *Client) getHeaderFunc(reqOpt *ReqOpts) addHeaders {
	headersFunc := c.headersFunc

	if reqOpt.addHeadersFunc != nil {
		headersFunc = reqOpt.addHeadersFunc
	}

	return headersFunc
}

// pageQuery renders the shared paging parameters next to any filter values
// already present.
func pageQuery(values url.Values, after string, limit int) string {
	if after != "" {
		values.Set("after", after)
	}

	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}

	if len(values) == 0 {
		return ""
	}

	return "?" + values.Encode()
}

func closeReadCloser(respBody io.ReadCloser) {
	err := respBody.Close()
	if err != nil {
		logger.Errorf("Failed to close response body: %s", err)
	}
}
