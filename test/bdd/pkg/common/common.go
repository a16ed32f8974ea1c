/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import "fmt"

// UnexpectedValueError reports a mismatch between an expected and an actual value.
func UnexpectedValueError(expected, actual string) error {
	return fmt.Errorf("expected %s but got %s instead", expected, actual)
}
