/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/hyperledger/aries-framework-go-ext/component/storage/mongodb"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/pkg/crypto/tinkcrypto"
	"github.com/hyperledger/aries-framework-go/pkg/kms/localkms"
	"github.com/hyperledger/aries-framework-go/pkg/secretlock"
	"github.com/hyperledger/aries-framework-go/pkg/secretlock/noop"
	ariesstorage "github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"github.com/trustbloc/edge-core/pkg/log"

	"github.com/trustbloc/identity-hub/pkg/bridge"
	"github.com/trustbloc/identity-hub/pkg/compliance"
	"github.com/trustbloc/identity-hub/pkg/credential"
	"github.com/trustbloc/identity-hub/pkg/cryptoservice"
	"github.com/trustbloc/identity-hub/pkg/hubprovider"
	"github.com/trustbloc/identity-hub/pkg/identity"
	"github.com/trustbloc/identity-hub/pkg/metrics"
	"github.com/trustbloc/identity-hub/pkg/permission"
	"github.com/trustbloc/identity-hub/pkg/restapi"
	"github.com/trustbloc/identity-hub/pkg/restapi/operation"
	cmdutils "github.com/trustbloc/identity-hub/pkg/utils/cmd"
	"github.com/trustbloc/identity-hub/pkg/zkproof"
)

const (
	hostURLFlagName      = "host-url"
	hostURLEnvKey        = "IDENTITY_HUB_HOST_URL"
	hostURLFlagShorthand = "u"
	hostURLFlagUsage     = "URL to run the identity hub instance on. Format: HostName:Port." +
		" Alternatively, this can be set with the following environment variable: " + hostURLEnvKey

	databaseTypeFlagName      = "database-type"
	databaseTypeEnvKey        = "IDENTITY_HUB_DATABASE_TYPE"
	databaseTypeFlagShorthand = "t"
	databaseTypeFlagUsage     = "The type of database to use for identity hub state." +
		" Supported options: mem, mongodb. Note that mem does not persist across restarts." +
		" Alternatively, this can be set with the following environment variable: " + databaseTypeEnvKey

	databaseTypeMemOption     = "mem"
	databaseTypeMongoDBOption = "mongodb"

	databaseURLFlagName      = "database-url"
	databaseURLEnvKey        = "IDENTITY_HUB_DATABASE_URL"
	databaseURLFlagShorthand = "l"
	databaseURLFlagUsage     = "The URL of the database. Not needed if using mem." +
		" For MongoDB, use a mongodb:// connection string." +
		" Alternatively, this can be set with the following environment variable: " + databaseURLEnvKey

	databasePrefixFlagName      = "database-prefix"
	databasePrefixEnvKey        = "IDENTITY_HUB_DATABASE_PREFIX"
	databasePrefixFlagShorthand = "p"
	databasePrefixFlagUsage     = "An optional prefix to be used when creating and retrieving underlying databases." +
		" Alternatively, this can be set with the following environment variable: " + databasePrefixEnvKey

	adminDIDFlagName      = "admin-did"
	adminDIDEnvKey        = "IDENTITY_HUB_ADMIN_DID"
	adminDIDFlagShorthand = "a"
	adminDIDFlagUsage     = "The DID allowed to register issuers and zero-knowledge circuits." +
		" Alternatively, this can be set with the following environment variable: " + adminDIDEnvKey

	tlsCertFileFlagName      = "tls-cert-file"
	tlsCertFileEnvKey        = "IDENTITY_HUB_TLS_CERT_FILE"
	tlsCertFileFlagShorthand = "c"
	tlsCertFileFlagUsage     = "TLS certificate file for the identity hub server." +
		" Alternatively, this can be set with the following environment variable: " + tlsCertFileEnvKey

	tlsKeyFileFlagName      = "tls-key-file"
	tlsKeyFileEnvKey        = "IDENTITY_HUB_TLS_KEY_FILE"
	tlsKeyFileFlagShorthand = "k"
	tlsKeyFileFlagUsage     = "TLS key file for the identity hub server." +
		" Alternatively, this can be set with the following environment variable: " + tlsKeyFileEnvKey

	logLevelFlagName  = "log-level"
	logLevelEnvKey    = "IDENTITY_HUB_LOG_LEVEL"
	logLevelFlagUsage = "Sets the logging level." +
		" Possible values are [DEBUG, INFO, WARNING, ERROR, CRITICAL] (default is INFO)." +
		" Alternatively, this can be set with the following environment variable: " + logLevelEnvKey

	masterKeyURI = "local-lock://custom/master/key/"

	retrievalPageSize = 100
)

var logger = log.New("identity-hub-rest")

var errInvalidDatabaseType = fmt.Errorf("database type not set to a valid type." +
	" run start --help to see the available options")

type hubParameters struct {
	srv            server
	hostURL        string
	databaseType   string
	databaseURL    string
	databasePrefix string
	adminDID       string
	tlsCertFile    string
	tlsKeyFile     string
	logLevel       string
}

type server interface {
	ListenAndServe(host, certFile, keyFile string, router http.Handler) error
}

// HTTPServer represents an actual HTTP server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host, certFile, keyFile string, router http.Handler) error {
	if certFile != "" && keyFile != "" {
		return http.ListenAndServeTLS(host, certFile, keyFile, router)
	}

	return http.ListenAndServe(host, router)
}

// GetStartCmd returns the Cobra start command.
func GetStartCmd(srv server) *cobra.Command {
	startCmd := createStartCmd(srv)

	createFlags(startCmd)

	return startCmd
}

func createStartCmd(srv server) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start identity hub",
		Long:  "Start identity hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			parameters, err := getParameters(cmd)
			if err != nil {
				return err
			}

			parameters.srv = srv

			return startHub(parameters)
		},
	}
}

func getParameters(cmd *cobra.Command) (*hubParameters, error) {
	hostURL, err := cmdutils.GetUserSetVar(cmd, hostURLFlagName, hostURLEnvKey, false)
	if err != nil {
		return nil, err
	}

	databaseType, err := cmdutils.GetUserSetVar(cmd, databaseTypeFlagName, databaseTypeEnvKey, false)
	if err != nil {
		return nil, err
	}

	databaseURL, err := cmdutils.GetUserSetVar(cmd, databaseURLFlagName, databaseURLEnvKey, true)
	if err != nil {
		return nil, err
	}

	databasePrefix, err := cmdutils.GetUserSetVar(cmd, databasePrefixFlagName, databasePrefixEnvKey, true)
	if err != nil {
		return nil, err
	}

	adminDID, err := cmdutils.GetUserSetVar(cmd, adminDIDFlagName, adminDIDEnvKey, true)
	if err != nil {
		return nil, err
	}

	tlsCertFile, err := cmdutils.GetUserSetVar(cmd, tlsCertFileFlagName, tlsCertFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	tlsKeyFile, err := cmdutils.GetUserSetVar(cmd, tlsKeyFileFlagName, tlsKeyFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	logLevel, err := cmdutils.GetUserSetVar(cmd, logLevelFlagName, logLevelEnvKey, true)
	if err != nil {
		return nil, err
	}

	return &hubParameters{
		hostURL:        hostURL,
		databaseType:   databaseType,
		databaseURL:    databaseURL,
		databasePrefix: databasePrefix,
		adminDID:       adminDID,
		tlsCertFile:    tlsCertFile,
		tlsKeyFile:     tlsKeyFile,
		logLevel:       logLevel,
	}, nil
}

func createFlags(startCmd *cobra.Command) {
	startCmd.Flags().StringP(hostURLFlagName, hostURLFlagShorthand, "", hostURLFlagUsage)
	startCmd.Flags().StringP(databaseTypeFlagName, databaseTypeFlagShorthand, "", databaseTypeFlagUsage)
	startCmd.Flags().StringP(databaseURLFlagName, databaseURLFlagShorthand, "", databaseURLFlagUsage)
	startCmd.Flags().StringP(databasePrefixFlagName, databasePrefixFlagShorthand, "", databasePrefixFlagUsage)
	startCmd.Flags().StringP(adminDIDFlagName, adminDIDFlagShorthand, "", adminDIDFlagUsage)
	startCmd.Flags().StringP(tlsCertFileFlagName, tlsCertFileFlagShorthand, "", tlsCertFileFlagUsage)
	startCmd.Flags().StringP(tlsKeyFileFlagName, tlsKeyFileFlagShorthand, "", tlsKeyFileFlagUsage)
	startCmd.Flags().StringP(logLevelFlagName, "", "", logLevelFlagUsage)
}

func startHub(parameters *hubParameters) error {
	if parameters.logLevel != "" {
		setLogLevel(parameters.logLevel)
	}

	ariesProvider, err := createAriesProvider(parameters)
	if err != nil {
		return err
	}

	store, err := hubprovider.NewProvider(ariesProvider, retrievalPageSize).OpenStore()
	if err != nil {
		return fmt.Errorf("failed to open identity hub store: %w", err)
	}

	cryptoSvc, err := createCryptoService(ariesProvider)
	if err != nil {
		return err
	}

	credentials := credential.NewEngine(store, cryptoSvc)

	registry := identity.NewRegistry(&identity.Config{
		Store:       store,
		Crypto:      cryptoSvc,
		Translator:  bridge.NewTranslator(),
		Credentials: credentials,
		ZK: zkproof.NewEngine(store, credentials, parameters.adminDID,
			zkproof.WithDisclosureSigner(cryptoSvc)),
		Permissions: permission.NewEngine(),
		Compliance:  compliance.NewEngine(),
		AdminDID:    parameters.adminDID,
	})

	hubService, err := restapi.New(&operation.Config{
		Registry: registry,
		Metrics:  metrics.NewHub(),
	})
	if err != nil {
		return err
	}

	router := mux.NewRouter()
	router.UseEncodedPath()

	for _, handler := range hubService.GetOperations() {
		router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())
	}

	logger.Infof("Starting identity hub rest server on host %s", parameters.hostURL)

	return parameters.srv.ListenAndServe(parameters.hostURL, parameters.tlsCertFile, parameters.tlsKeyFile,
		cors.New(cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type"},
		}).Handler(router))
}

func setLogLevel(userLogLevel string) {
	logLevel, err := log.ParseLevel(userLogLevel)
	if err != nil {
		logger.Warnf("%s is not a valid logging level. It must be one of the following: "+
			"CRITICAL, ERROR, WARNING, INFO, DEBUG. Defaulting to INFO.", userLogLevel)

		logLevel = log.INFO
	}

	log.SetLevel("", logLevel)
}

func createAriesProvider(parameters *hubParameters) (ariesstorage.Provider, error) {
	switch {
	case strings.EqualFold(parameters.databaseType, databaseTypeMemOption):
		logger.Warnf("identity hub state is held in memory only and will not survive a restart")

		return mem.NewProvider(), nil
	case strings.EqualFold(parameters.databaseType, databaseTypeMongoDBOption):
		mongoDBProvider, err := mongodb.NewProvider(parameters.databaseURL,
			mongodb.WithDBPrefix(parameters.databasePrefix))
		if err != nil {
			return nil, fmt.Errorf("failed to create MongoDB storage provider: %w", err)
		}

		return mongoDBProvider, nil
	default:
		return nil, errInvalidDatabaseType
	}
}

func createCryptoService(ariesProvider ariesstorage.Provider) (*cryptoservice.Service, error) {
	keyManager, err := localkms.New(masterKeyURI,
		kmsProvider{storageProvider: ariesProvider, secretLockService: &noop.NoLock{}})
	if err != nil {
		return nil, fmt.Errorf("failed to create KMS: %w", err)
	}

	crypto, err := tinkcrypto.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create crypto: %w", err)
	}

	return cryptoservice.New(keyManager, crypto, ariesProvider)
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
