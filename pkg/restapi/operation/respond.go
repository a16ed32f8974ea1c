/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operation

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/trustbloc/identity-hub/pkg/huberrors"
	"github.com/trustbloc/identity-hub/pkg/restapi/messages"
	"github.com/trustbloc/identity-hub/pkg/restapi/models"
)

func (c *Operation) writeCommandFailure(rw http.ResponseWriter, command string, err error) {
	c.observeFailure(err)

	hubErr := huberrors.AsError(err)
	if hubErr == nil {
		logger.Errorf(messages.CommandFailure, command, err)
		writeJSONResponse(rw, http.StatusInternalServerError, command,
			models.ErrorResponse{Message: fmt.Sprintf(messages.CommandFailure, command, err)})

		return
	}

	status := statusForError(hubErr)

	if status >= http.StatusInternalServerError {
		logger.Errorf(messages.CommandFailure, command, hubErr)
	} else {
		logger.Infof(messages.CommandFailure, command, hubErr)
	}

	writeJSONResponse(rw, status, command, hubErr)
}

func (c *Operation) writeQueryFailure(rw http.ResponseWriter, query string, err error) {
	c.observeFailure(err)

	hubErr := huberrors.AsError(err)
	if hubErr == nil {
		logger.Errorf(messages.QueryFailure, query, err)
		writeJSONResponse(rw, http.StatusInternalServerError, query,
			models.ErrorResponse{Message: fmt.Sprintf(messages.QueryFailure, query, err)})

		return
	}

	status := statusForError(hubErr)

	if status >= http.StatusInternalServerError {
		logger.Errorf(messages.QueryFailure, query, hubErr)
	} else {
		logger.Infof(messages.QueryFailure, query, hubErr)
	}

	writeJSONResponse(rw, status, query, hubErr)
}

func (c *Operation) observeFailure(err error) {
	if c.metrics != nil {
		c.metrics.ObserveFailure(err)
	}
}

func writeInvalidCommand(rw http.ResponseWriter, command string, err error) {
	logger.Infof(messages.InvalidCommand, command, err)

	writeJSONResponse(rw, http.StatusBadRequest, command,
		models.ErrorResponse{Message: fmt.Sprintf(messages.InvalidCommand, command, err)})
}

func writeInvalidQuery(rw http.ResponseWriter, query string, err error) {
	logger.Infof(messages.InvalidQuery, query, err)

	writeJSONResponse(rw, http.StatusBadRequest, query,
		models.ErrorResponse{Message: fmt.Sprintf(messages.InvalidQuery, query, err)})
}

func writeRequestReadFailure(rw http.ResponseWriter, command string, err error) {
	logger.Errorf(messages.CommandFailReadRequestBody, command, err)

	writeJSONResponse(rw, http.StatusInternalServerError, command,
		models.ErrorResponse{Message: fmt.Sprintf(messages.CommandFailReadRequestBody, command, err)})
}

func writeCommandSuccess(rw http.ResponseWriter, command string, body interface{}) {
	logger.Debugf(messages.CommandSuccess, command)

	writeJSONResponse(rw, http.StatusOK, command, body)
}

func writeQuerySuccess(rw http.ResponseWriter, query string, body interface{}) {
	logger.Debugf(messages.QuerySuccess, query)

	writeJSONResponse(rw, http.StatusOK, query, body)
}

func writeCreatedResponse(rw http.ResponseWriter, command, location string, body interface{}) {
	logger.Debugf(messages.CommandSuccess, command)

	rw.Header().Set("Location", location)

	writeJSONResponse(rw, http.StatusCreated, command, body)
}

func writeJSONResponse(rw http.ResponseWriter, statusCode int, operation string, body interface{}) {
	responseBytes, errMarshal := json.Marshal(body)
	if errMarshal != nil {
		logger.Errorf(messages.FailToMarshalResponse, operation, errMarshal)
		rw.WriteHeader(http.StatusInternalServerError)

		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)

	_, errWrite := rw.Write(responseBytes)
	if errWrite != nil {
		logger.Errorf("%s response:"+messages.FailWriteResponse, operation, errWrite)
	}
}

// statusForError maps a classified failure to an HTTP status. Specific codes are
// matched first so absences map to 404 and duplicates to 409; everything else
// falls through to its category.
func statusForError(hubErr *huberrors.Error) int {
	switch hubErr.Code {
	case huberrors.CodeIdentityNotFound, huberrors.CodeProtocolNotFound,
		huberrors.CodeCredentialNotFound, huberrors.CodeIssuerNotFound,
		huberrors.CodeCircuitNotFound, huberrors.CodeZKCredentialNotFound,
		huberrors.CodeComplianceDataNotFound, huberrors.CodePermissionNotFound:
		return http.StatusNotFound
	case huberrors.CodeIdentityAlreadyExists, huberrors.CodeProtocolAlreadyExists,
		huberrors.CodeIssuerAlreadyRegistered, huberrors.CodeCircuitAlreadyExists,
		huberrors.CodeNullifierAlreadyUsed:
		return http.StatusConflict
	}

	switch hubErr.Category {
	case huberrors.CategoryValidation, huberrors.CategoryConfiguration,
		huberrors.CategoryInteroperability, huberrors.CategoryCompliance:
		return http.StatusBadRequest
	case huberrors.CategoryPermission, huberrors.CategorySecurity:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// statusRecorder remembers the status code a handler wrote so request metrics
// can label it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
