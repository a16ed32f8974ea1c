/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operation

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/trustbloc/identity-hub/pkg/restapi/messages"
)

// Unescapes the given path variable from the vars map and writes a response if any failure occurs.
// Returns the unescaped version of the path variable and a bool indicating whether the unescaping was successful.
func unescapePathVar(pathVar string, vars map[string]string, rw http.ResponseWriter) (string, bool) {
	unescapedPathVar, errUnescape := url.PathUnescape(vars[pathVar])
	if errUnescape != nil {
		rw.WriteHeader(http.StatusInternalServerError)

		_, errWrite := rw.Write([]byte(fmt.Sprintf(messages.UnescapeFailure, pathVar, errUnescape)))
		if errWrite != nil {
			logger.Errorf(messages.UnescapeFailure+messages.FailWriteResponse, pathVar, errWrite, errWrite)
		}

		return "", false
	}

	return unescapedPathVar, true
}

// pageParams reads the optional limit and after query parameters shared by the
// paged list endpoints. A missing limit is returned as zero so the caller's
// default page size applies.
func pageParams(req *http.Request) (int, string, error) {
	startAfter := req.URL.Query().Get("after")

	limitParam := req.URL.Query().Get("limit")
	if limitParam == "" {
		return 0, startAfter, nil
	}

	limit, err := strconv.Atoi(limitParam)
	if err != nil {
		return 0, "", fmt.Errorf(`limit "%s" is not an integer`, limitParam)
	}

	return limit, startAfter, nil
}
