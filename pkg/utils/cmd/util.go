/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// GetUserSetVar returns the value set for the given flag, falling back to the given
// environment variable when the flag wasn't used. Explicitly setting the flag or the
// environment variable to an empty string is an error. If isOptional is false, then an
// error is also returned when neither the flag nor the environment variable was set.
func GetUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		if value == "" {
			return "", fmt.Errorf("%s value is empty", flagName)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isSet && value == "" {
		return "", fmt.Errorf("%s value is empty", envKey)
	}

	if isOptional || isSet {
		return value, nil
	}

	return "", fmt.Errorf("neither %s (command line flag) nor %s (environment variable) have been set",
		flagName, envKey)
}
