/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bridge

import (
	"fmt"

	"github.com/piprate/json-gold/ld"
)

// ContextCredentialsV1 is the JSON-LD context every framed vc/vp document
// declares. It is resolved offline against an inline definition.
const ContextCredentialsV1 = "https://www.w3.org/2018/credentials/v1"

const (
	protocolOAuth2   = "oauth2"
	protocolOIDC     = "oidc"
	protocolSAML     = "saml"
	protocolDID      = "did"
	protocolVC       = "vc"
	protocolVP       = "vp"
	protocolWebAuthn = "webauthn"
	protocolZKProof  = "zkproof"
)

// requiredFields lists the claims a document must carry per protocol,
// checked by ValidateProtocolData.
var requiredFields = map[string][]string{ //nolint: gochecknoglobals
	protocolOAuth2:   {"sub"},
	protocolOIDC:     {"sub", "iss"},
	protocolSAML:     {"nameid", "issuer"},
	protocolDID:      {"id"},
	protocolVC:       {"@context", "type", "issuer", "credentialSubject"},
	protocolVP:       {"@context", "type", "verifiableCredential"},
	protocolWebAuthn: {"credentialId", "publicKey"},
	protocolZKProof:  {"proof", "publicSignals"},
}

// DefaultRules returns the built-in translation rule set. Callers may
// register additional rules at construction via WithRules; rules with lower
// priority values take precedence.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:             "oauth2-to-oidc",
			Name:           "OAuth2 token claims to OIDC claims",
			Priority:       10,
			SourceProtocol: protocolOAuth2,
			TargetProtocol: protocolOIDC,
			Conditions: []Condition{
				{Field: "sub", Operator: OperatorExists},
			},
			Transformations: []Transformation{
				{Kind: TransformDirect, SourceField: "sub", TargetField: "sub"},
				{Kind: TransformDirect, SourceField: "issuer", TargetField: "iss", Optional: true},
				{Kind: TransformDirect, SourceField: "scope", TargetField: "scope", Optional: true},
				{Kind: TransformDirect, SourceField: "client_id", TargetField: "azp", Optional: true},
				{Kind: TransformDirect, SourceField: "email", TargetField: "email", Optional: true},
			},
			ErrorPolicy: PolicyContinue,
		},
		{
			ID:             "oidc-to-vc",
			Name:           "OIDC claims to verifiable credential",
			Priority:       10,
			SourceProtocol: protocolOIDC,
			TargetProtocol: protocolVC,
			Conditions: []Condition{
				{Field: "sub", Operator: OperatorExists},
				{Field: "iss", Operator: OperatorExists},
			},
			Transformations: []Transformation{
				{Kind: TransformDirect, SourceField: "sub", TargetField: "id"},
				{Kind: TransformDirect, SourceField: "iss", TargetField: "issuer"},
				{
					Kind:         TransformAggregate,
					SourceFields: []string{"email", "name", "given_name", "family_name"},
					TargetField:  "profile",
					Optional:     true,
				},
				{Kind: TransformCalculated, Function: "current_timestamp", TargetField: "issuanceDate"},
			},
			ErrorPolicy: PolicyContinue,
		},
		{
			ID:             "saml-to-oidc",
			Name:           "SAML assertion attributes to OIDC claims",
			Priority:       10,
			SourceProtocol: protocolSAML,
			TargetProtocol: protocolOIDC,
			Conditions: []Condition{
				{Field: "nameid", Operator: OperatorExists},
			},
			Transformations: []Transformation{
				{Kind: TransformDirect, SourceField: "nameid", TargetField: "sub"},
				{Kind: TransformDirect, SourceField: "issuer", TargetField: "iss", Optional: true},
				{
					Kind:         TransformConcatenate,
					SourceFields: []string{"firstname", "lastname"},
					Separator:    " ",
					TargetField:  "name",
					Optional:     true,
				},
				{
					Kind:        TransformLookup,
					SourceField: "format",
					TargetField: "sub_type",
					Table: map[string]string{
						"urn:oasis:names:tc:SAML:2.0:nameid-format:persistent":   "persistent",
						"urn:oasis:names:tc:SAML:2.0:nameid-format:transient":    "transient",
						"urn:oasis:names:tc:SAML:1.1:nameid-format:emailAddress": "email",
					},
					Optional: true,
				},
			},
			ErrorPolicy: PolicyContinue,
		},
		{
			ID:             "did-to-vc",
			Name:           "DID document to verifiable credential",
			Priority:       10,
			SourceProtocol: protocolDID,
			TargetProtocol: protocolVC,
			Conditions: []Condition{
				{Field: "id", Operator: OperatorRegex, Value: "^did:"},
			},
			Transformations: []Transformation{
				{Kind: TransformDirect, SourceField: "id", TargetField: "id"},
				{Kind: TransformDirect, SourceField: "controller", TargetField: "issuer", Optional: true},
				{Kind: TransformCalculated, Function: "current_timestamp", TargetField: "issuanceDate"},
			},
			ErrorPolicy: PolicyContinue,
		},
		{
			ID:             "vc-to-vp",
			Name:           "Verifiable credential to presentation",
			Priority:       10,
			SourceProtocol: protocolVC,
			TargetProtocol: protocolVP,
			Conditions: []Condition{
				{Field: "credentialSubject", Operator: OperatorExists},
			},
			Transformations: []Transformation{
				{Kind: TransformDirect, SourceField: WholeDocument, TargetField: "verifiableCredential"},
				{Kind: TransformDirect, SourceField: "issuer", TargetField: "holder", Optional: true},
			},
			ErrorPolicy: PolicyContinue,
		},
	}
}

func isLinkedDataProtocol(protocol string) bool {
	return protocol == protocolVC || protocol == protocolVP
}

// frameLinkedData shapes flat translated claims into a credential or
// presentation document and compacts it against the credentials context.
func (t *Translator) frameLinkedData(target string, claims map[string]interface{}) (map[string]interface{}, error) {
	doc := map[string]interface{}{"@context": ContextCredentialsV1}

	switch target {
	case protocolVC:
		subject := make(map[string]interface{})

		for k, v := range claims {
			switch k {
			case "issuer", "issuanceDate", "expirationDate":
				doc[k] = v
			default:
				subject[k] = v
			}
		}

		doc["type"] = []interface{}{"VerifiableCredential"}
		doc["credentialSubject"] = subject
	case protocolVP:
		for k, v := range claims {
			if k == "verifiableCredential" {
				if _, isArray := v.([]interface{}); !isArray {
					v = []interface{}{v}
				}
			}

			doc[k] = v
		}

		doc["type"] = []interface{}{"VerifiablePresentation"}
	}

	compacted, err := t.processor.Compact(doc, ContextCredentialsV1, t.ldOptions)
	if err != nil {
		return nil, fmt.Errorf("compact %s document: %w", target, err)
	}

	// compaction collapses singleton arrays; restore the shapes the W3C data
	// model expects.
	compacted["@context"] = []interface{}{ContextCredentialsV1}

	for _, field := range []string{"type", "verifiableCredential"} {
		if value, ok := compacted[field]; ok {
			if _, isArray := value.([]interface{}); !isArray {
				compacted[field] = []interface{}{value}
			}
		}
	}

	return compacted, nil
}

// inlineContexts holds offline definitions for the context IRIs framed
// documents reference. The @vocab entry keeps protocol-specific claims
// through expansion so compaction never drops them.
var inlineContexts = map[string]map[string]interface{}{ //nolint: gochecknoglobals
	ContextCredentialsV1: {
		"@context": map[string]interface{}{
			"@version":               1.1,
			"@vocab":                 "https://www.w3.org/2018/credentials#",
			"id":                     "@id",
			"type":                   "@type",
			"VerifiableCredential":   "https://www.w3.org/2018/credentials#VerifiableCredential",
			"VerifiablePresentation": "https://www.w3.org/2018/credentials#VerifiablePresentation",
			"credentialSubject":      "https://www.w3.org/2018/credentials#credentialSubject",
			"issuer":                 "https://www.w3.org/2018/credentials#issuer",
			"holder":                 "https://www.w3.org/2018/credentials#holder",
			"issuanceDate": map[string]interface{}{
				"@id":   "https://www.w3.org/2018/credentials#issuanceDate",
				"@type": "http://www.w3.org/2001/XMLSchema#dateTime",
			},
			"expirationDate": map[string]interface{}{
				"@id":   "https://www.w3.org/2018/credentials#expirationDate",
				"@type": "http://www.w3.org/2001/XMLSchema#dateTime",
			},
			"verifiableCredential": map[string]interface{}{
				"@id":        "https://www.w3.org/2018/credentials#verifiableCredential",
				"@container": "@graph",
			},
		},
	},
}

// inlineDocumentLoader serves JSON-LD contexts from inlineContexts without
// any network access.
type inlineDocumentLoader struct{}

func newInlineDocumentLoader() *inlineDocumentLoader {
	return &inlineDocumentLoader{}
}

func (l *inlineDocumentLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	doc, ok := inlineContexts[u]
	if !ok {
		return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed,
			fmt.Sprintf("context %s is not available offline", u))
	}

	return &ld.RemoteDocument{DocumentURL: u, Document: doc}, nil
}
