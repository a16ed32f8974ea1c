/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package messages

const (
	// ErrNotBase58Encoded is returned when an attempt is made to reference a record
	// with an ID that is not a base58-encoded value.
	ErrNotBase58Encoded = hubError("record ID must be a base58-encoded value")
	// ErrNot128BitValue is returned when an attempt is made to reference a record
	// with an ID that is base58-encoded, but the original value was not 128 bits long.
	ErrNot128BitValue = hubError("record ID is base58-encoded, but original value before encoding was not 128 bits long")
	// ErrBlankActor is returned when a command or query is received without an actor.
	ErrBlankActor = hubError("actor can't be blank")
	// ErrActorTooLong is returned when a command or query actor exceeds the maximum length.
	ErrActorTooLong = hubError("actor exceeds the 256 character maximum")
	// ErrActorNotPrintable is returned when a command or query actor contains non-printable characters.
	ErrActorNotPrintable = hubError("actor contains non-printable characters")

	// FailWriteResponse is logged when a ResponseWriter fails to write.
	FailWriteResponse = ` Failed to write response back to sender: %s.`

	// CommandReceiveRequest is logged when a command request arrives.
	CommandReceiveRequest = "Received %s command. Request body: %s"
	// CommandFailReadRequestBody is used when an incoming command request body can't be read.
	// This should not happen during normal operation.
	CommandFailReadRequestBody = "Received %s command, but failed to read the request body: %s."

	// InvalidCommand is used when a received command fails validation.
	InvalidCommand = "Received invalid %s command: %s."
	// CommandFailure is used when an error occurs while executing a command.
	CommandFailure = `Failure while handling %s command: %s.`
	// CommandSuccess is used when a command completes successfully.
	CommandSuccess = `Successfully handled %s command.`

	// InvalidQuery is used when a received query carries unusable parameters.
	InvalidQuery = "Received invalid %s query: %s."
	// QueryFailure is used when an error occurs while executing a query.
	QueryFailure = `Failure while handling %s query: %s.`
	// QuerySuccess is used when a query completes successfully.
	QuerySuccess = `Successfully handled %s query.`

	// FailToMarshalResponse is used when a response can't be marshalled.
	// This should not happen during normal operation.
	FailToMarshalResponse = "Failed to marshal %s response: %s."

	// UnescapeFailure is used when an error occurs while unescaping a path variable.
	UnescapeFailure = "Unable to unescape %s path variable: %s."
)

type hubError string

// Error returns the associated identity hub error message.
// This satisfies the built-in error interface.
func (e hubError) Error() string { return string(e) }
