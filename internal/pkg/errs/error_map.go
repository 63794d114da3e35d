/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError template, used to
standardize REST responses, error frames, and WebSocket close codes.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
// A non-zero CloseCode marks the error as connection-fatal over WebSocket.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:      {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrInvalidJSONFormat:  {Code: ErrInvalidJSONFormat, Message: "Invalid JSON format", Status: http.StatusBadRequest},
	ErrExtraContentInBody: {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:  {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room, Message, and Notification Business Logic Errors
	ErrRoomNotFound:         {Code: ErrRoomNotFound, Message: "Chat room not found", Status: http.StatusNotFound, CloseCode: CloseNotFound},
	ErrInvalidRoomKey:       {Code: ErrInvalidRoomKey, Message: "Invalid room name format", Status: http.StatusBadRequest, CloseCode: CloseForbidden},
	ErrRoomSetupFailed:      {Code: ErrRoomSetupFailed, Message: "Unable to initialize chat room", Status: http.StatusInternalServerError, CloseCode: CloseSetupFailure},
	ErrNoStaffAvailable:     {Code: ErrNoStaffAvailable, Message: "No support staff is available right now", Status: http.StatusServiceUnavailable, CloseCode: CloseSetupFailure},
	ErrProductNotFound:      {Code: ErrProductNotFound, Message: "Product not found", Status: http.StatusNotFound, CloseCode: CloseNotFound},
	ErrEmptyContent:         {Code: ErrEmptyContent, Message: "Message cannot be empty", Status: http.StatusBadRequest},
	ErrNotParticipant:       {Code: ErrNotParticipant, Message: "You are not a participant in this chat", Status: http.StatusForbidden, CloseCode: CloseForbidden},
	ErrMessageTooLong:       {Code: ErrMessageTooLong, Message: "Message is too long", Status: http.StatusBadRequest},
	ErrNotificationNotFound: {Code: ErrNotificationNotFound, Message: "Notification not found", Status: http.StatusNotFound},

	// 3xxx: Authentication and Authorization Errors
	ErrAuthMissing:  {Code: ErrAuthMissing, Message: "Authentication token is required", Status: http.StatusUnauthorized, CloseCode: CloseAuthFailure},
	ErrAuthInvalid:  {Code: ErrAuthInvalid, Message: "Invalid or expired token", Status: http.StatusUnauthorized, CloseCode: CloseAuthFailure},
	ErrAuthInactive: {Code: ErrAuthInactive, Message: "User account is disabled", Status: http.StatusUnauthorized, CloseCode: CloseAuthFailure},
	ErrForbidden:    {Code: ErrForbidden, Message: "You are not authorized to access this chat", Status: http.StatusForbidden, CloseCode: CloseForbidden},
	ErrAdminOnly:    {Code: ErrAdminOnly, Message: "You must be an administrator to access this page", Status: http.StatusForbidden, CloseCode: CloseAuthFailure},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError, CloseCode: CloseInternalError},
}
