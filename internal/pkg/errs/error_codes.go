/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
and in communication with clients.
*/
package errs

// WebSocket close codes used for connect-time and fatal in-session rejections.
const (
	// CloseInternalError signals a generic fatal error during message processing.
	CloseInternalError = 4000

	// CloseAuthFailure signals a missing, invalid, or expired authentication token.
	CloseAuthFailure = 4001

	// CloseForbidden signals an authorization failure for the requested room or action.
	CloseForbidden = 4003

	// CloseNotFound signals that the requested room or product does not exist.
	CloseNotFound = 4004

	// CloseSetupFailure signals a server-side failure while initializing the session.
	CloseSetupFailure = 4005
)

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates that a request body or frame was not valid JSON.
	ErrInvalidJSONFormat = 1002

	// ErrExtraContentInBody indicates trailing content after a valid JSON body.
	ErrExtraContentInBody = 1003

	// ErrRateLimitExceeded indicates that the request rate exceeded the limit.
	ErrRateLimitExceeded = 1004
)

// 2xxx: Room, Message, and Notification Business Logic Errors
const (
	// ErrRoomNotFound indicates that the referenced chat room does not exist.
	ErrRoomNotFound = 2101

	// ErrInvalidRoomKey indicates that the connection target did not match the
	// expected room name shape.
	ErrInvalidRoomKey = 2102

	// ErrRoomSetupFailed indicates the room could not be resolved or created.
	ErrRoomSetupFailed = 2103

	// ErrNoStaffAvailable indicates no staff or admin user could be assigned.
	ErrNoStaffAvailable = 2104

	// ErrProductNotFound indicates the product scoping the room does not exist.
	ErrProductNotFound = 2105

	// ErrEmptyContent indicates a message whose content is empty after trimming.
	ErrEmptyContent = 2201

	// ErrNotParticipant indicates the sender is not a participant of the room.
	ErrNotParticipant = 2202

	// ErrMessageTooLong indicates the message content exceeded the length cap.
	ErrMessageTooLong = 2203

	// ErrNotificationNotFound indicates the referenced notification does not exist.
	ErrNotificationNotFound = 2301
)

// 3xxx: Authentication and Authorization Errors
const (
	// ErrAuthMissing indicates that no authentication token was supplied.
	ErrAuthMissing = 3001

	// ErrAuthInvalid indicates the token was rejected or has expired.
	ErrAuthInvalid = 3002

	// ErrAuthInactive indicates the resolved account is disabled.
	ErrAuthInactive = 3003

	// ErrForbidden indicates the authenticated user may not access the room.
	ErrForbidden = 3004

	// ErrAdminOnly indicates the action requires staff or admin privileges.
	ErrAdminOnly = 3005
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified server internal error.
	ErrUnknown = 5000
)
