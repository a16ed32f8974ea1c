/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"net/http"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"github.com/trustbloc/edge-core/pkg/log"
)

type mockServer struct{}

func (s *mockServer) ListenAndServe(host, certFile, keyFile string, handler http.Handler) error {
	return nil
}

func TestStartCmdContents(t *testing.T) {
	startCmd := GetStartCmd(&mockServer{})

	require.Equal(t, "start", startCmd.Use)
	require.Equal(t, "Start identity hub", startCmd.Short)
	require.Equal(t, "Start identity hub", startCmd.Long)

	checkFlagPropertiesCorrect(t, startCmd, hostURLFlagName, hostURLFlagShorthand, hostURLFlagUsage)
	checkFlagPropertiesCorrect(t, startCmd, databaseTypeFlagName, databaseTypeFlagShorthand, databaseTypeFlagUsage)
	checkFlagPropertiesCorrect(t, startCmd, adminDIDFlagName, adminDIDFlagShorthand, adminDIDFlagUsage)
}

func TestStartCmdWithMissingHostArg(t *testing.T) {
	startCmd := GetStartCmd(&mockServer{})

	err := startCmd.Execute()

	require.Equal(t,
		"neither host-url (command line flag) nor IDENTITY_HUB_HOST_URL (environment variable) have been set",
		err.Error())
}

func TestStartCmdWithMissingDatabaseTypeArg(t *testing.T) {
	startCmd := GetStartCmd(&mockServer{})

	startCmd.SetArgs([]string{"--" + hostURLFlagName, "localhost:8080"})

	err := startCmd.Execute()

	require.Equal(t,
		"neither database-type (command line flag) nor IDENTITY_HUB_DATABASE_TYPE (environment variable)"+
			" have been set",
		err.Error())
}

func TestStartHubFailToCreateProvider(t *testing.T) {
	parameters := &hubParameters{srv: &mockServer{}, hostURL: "NotBlank", databaseType: "NotAValidType"}

	err := startHub(parameters)
	require.Equal(t, errInvalidDatabaseType, err)
}

func TestStartCmdValidArgs(t *testing.T) {
	t.Run("database type: mem", func(t *testing.T) {
		startCmd := GetStartCmd(&mockServer{})

		args := []string{
			"--" + hostURLFlagName, "localhost:8080",
			"--" + databaseTypeFlagName, "mem",
			"--" + adminDIDFlagName, "did:example:admin",
		}
		startCmd.SetArgs(args)

		err := startCmd.Execute()

		require.NoError(t, err)
	})
	t.Run("with TLS cert and key files", func(t *testing.T) {
		startCmd := GetStartCmd(&mockServer{})

		args := []string{
			"--" + hostURLFlagName, "localhost:8080",
			"--" + databaseTypeFlagName, "mem",
			"--" + tlsCertFileFlagName, "cert.pem",
			"--" + tlsKeyFileFlagName, "key.pem",
		}
		startCmd.SetArgs(args)

		err := startCmd.Execute()

		require.NoError(t, err)
	})
}

func TestStartCmdValidArgsEnvVars(t *testing.T) {
	setEnvVars(t)

	startCmd := GetStartCmd(&mockServer{})

	err := startCmd.Execute()

	require.NoError(t, err)
}

func TestStartCmdLogLevels(t *testing.T) {
	t.Run(`log level not specified - default to "info"`, func(t *testing.T) {
		startCmd := GetStartCmd(&mockServer{})

		args := []string{"--" + hostURLFlagName, "localhost:8080", "--" + databaseTypeFlagName, "mem"}
		startCmd.SetArgs(args)

		err := startCmd.Execute()
		require.NoError(t, err)
		require.Equal(t, log.INFO, log.GetLevel(""))
	})
	t.Run("log level: debug", func(t *testing.T) {
		startCmd := GetStartCmd(&mockServer{})

		args := []string{
			"--" + hostURLFlagName, "localhost:8080", "--" + databaseTypeFlagName, "mem",
			"--" + logLevelFlagName, "debug",
		}
		startCmd.SetArgs(args)

		err := startCmd.Execute()
		require.NoError(t, err)
		require.Equal(t, log.DEBUG, log.GetLevel(""))
	})
	t.Run("invalid log level - default to info", func(t *testing.T) {
		startCmd := GetStartCmd(&mockServer{})

		args := []string{
			"--" + hostURLFlagName, "localhost:8080", "--" + databaseTypeFlagName, "mem",
			"--" + logLevelFlagName, "mango",
		}
		startCmd.SetArgs(args)

		err := startCmd.Execute()
		require.NoError(t, err)
		require.Equal(t, log.INFO, log.GetLevel(""))
	})
}

func TestCreateAriesProvider(t *testing.T) {
	t.Run("mongodb: invalid connection string", func(t *testing.T) {
		provider, err := createAriesProvider(&hubParameters{
			databaseType: databaseTypeMongoDBOption,
			databaseURL:  "invalid",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to create MongoDB storage provider")
		require.Nil(t, provider)
	})
	t.Run("mongodb: valid connection string", func(t *testing.T) {
		provider, err := createAriesProvider(&hubParameters{
			databaseType: databaseTypeMongoDBOption,
			databaseURL:  "mongodb://localhost:27017",
		})
		require.NoError(t, err)
		require.NotNil(t, provider)
	})
}

func TestHTTPServerListenAndServe(t *testing.T) {
	srv := &HTTPServer{}

	err := srv.ListenAndServe("wrongValue", "", "", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "address wrongValue")
}

func setEnvVars(t *testing.T) {
	t.Helper()

	t.Setenv(hostURLEnvKey, "localhost:8080")
	t.Setenv(databaseTypeEnvKey, "mem")
	t.Setenv(adminDIDEnvKey, "did:example:admin")
}

func checkFlagPropertiesCorrect(t *testing.T, cmd *cobra.Command, flagName, flagShorthand, flagUsage string) {
	t.Helper()

	flag := cmd.Flag(flagName)

	require.NotNil(t, flag)
	require.Equal(t, flagName, flag.Name)
	require.Equal(t, flagShorthand, flag.Shorthand)
	require.Equal(t, flagUsage, flag.Usage)
	require.Equal(t, "", flag.Value.String())

	hasAnnotations := flag.Annotations != nil
	require.False(t, hasAnnotations)

	require.Equal(t, flagUsage, cmd.Flag(flagName).Usage)
}
