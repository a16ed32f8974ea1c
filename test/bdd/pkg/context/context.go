/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package context

import (
	"net/http/httptest"

	"github.com/gorilla/mux"
	ariesmemstorage "github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/pkg/crypto/tinkcrypto"
	"github.com/hyperledger/aries-framework-go/pkg/kms/localkms"
	"github.com/hyperledger/aries-framework-go/pkg/secretlock"
	"github.com/hyperledger/aries-framework-go/pkg/secretlock/noop"
	ariesstorage "github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/trustbloc/identity-hub/pkg/bridge"
	hubclient "github.com/trustbloc/identity-hub/pkg/client"
	"github.com/trustbloc/identity-hub/pkg/compliance"
	"github.com/trustbloc/identity-hub/pkg/credential"
	"github.com/trustbloc/identity-hub/pkg/cryptoservice"
	"github.com/trustbloc/identity-hub/pkg/hubprovider"
	"github.com/trustbloc/identity-hub/pkg/identity"
	"github.com/trustbloc/identity-hub/pkg/metrics"
	"github.com/trustbloc/identity-hub/pkg/permission"
	"github.com/trustbloc/identity-hub/pkg/restapi"
	"github.com/trustbloc/identity-hub/pkg/restapi/operation"
	"github.com/trustbloc/identity-hub/pkg/zkproof"
)

// AdminDID is the hub administrator configured for the BDD hub instance.
const AdminDID = "did:example:admin"

const retrievalPageSize = 100

// BDDContext holds the in-process identity hub the suite runs against and the
// client the steps drive it with.
type BDDContext struct {
	HubURL string
	Client *hubclient.Client

	server *httptest.Server
}

// NewBDDContext starts an in-process identity hub backed by in-memory storage
// and returns a context wired to it.
func NewBDDContext() (*BDDContext, error) {
	registry, err := createRegistry()
	if err != nil {
		return nil, err
	}

	hubService, err := restapi.New(&operation.Config{
		Registry: registry,
		Metrics:  metrics.NewHub(),
	})
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	router.UseEncodedPath()

	for _, handler := range hubService.GetOperations() {
		router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())
	}

	server := httptest.NewServer(router)

	return &BDDContext{
		HubURL: server.URL,
		Client: hubclient.New(server.URL),
		server: server,
	}, nil
}

// Destroy shuts the in-process hub down.
func (b *BDDContext) Destroy() {
	b.server.Close()
}

func createRegistry() (*identity.Registry, error) {
	ariesProvider := ariesmemstorage.NewProvider()

	keyManager, err := localkms.New("local-lock://custom/master/key/",
		kmsProvider{storageProvider: ariesProvider, secretLockService: &noop.NoLock{}})
	if err != nil {
		return nil, err
	}

	crypto, err := tinkcrypto.New()
	if err != nil {
		return nil, err
	}

	cryptoSvc, err := cryptoservice.New(keyManager, crypto, ariesProvider)
	if err != nil {
		return nil, err
	}

	store, err := hubprovider.NewProvider(ariesProvider, retrievalPageSize).OpenStore()
	if err != nil {
		return nil, err
	}

	credentials := credential.NewEngine(store, cryptoSvc)

	return identity.NewRegistry(&identity.Config{
		Store:       store,
		Crypto:      cryptoSvc,
		Translator:  bridge.NewTranslator(),
		Credentials: credentials,
		ZK: zkproof.NewEngine(store, credentials, AdminDID,
			zkproof.WithDisclosureSigner(cryptoSvc)),
		Permissions: permission.NewEngine(),
		Compliance:  compliance.NewEngine(),
		AdminDID:    AdminDID,
	}), nil
}

type kmsProvider struct {
	storageProvider   ariesstorage.Provider
	secretLockService secretlock.Service
}

func (k kmsProvider) StorageProvider() ariesstorage.Provider {
	return k.storageProvider
}

func (k kmsProvider) SecretLock() secretlock.Service {
	return k.secretLockService
}
