/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package restapi

import (
	"github.com/trustbloc/identity-hub/pkg/restapi/operation"
)

// New returns a new controller instance for the identity hub REST service.
func New(config *operation.Config) (*Controller, error) {
	var allHandlers []operation.Handler

	hubService := operation.New(config)
	allHandlers = append(allHandlers, hubService.GetRESTHandlers()...)

	return &Controller{handlers: allHandlers}, nil
}

// Controller contains handlers for controller.
type Controller struct {
	handlers []operation.Handler
}

// GetOperations returns all controller endpoints.
func (c *Controller) GetOperations() []operation.Handler {
	return c.handlers
}
