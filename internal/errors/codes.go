// Package errors provides structured error handling for the console.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors: the operation is aborted before any remote call.
	CodeEventIDRequired     Code = "EVENT_ID_REQUIRED"
	CodeOperationRequired   Code = "OPERATION_REQUIRED"
	CodeBundleRequired      Code = "BUNDLE_REQUIRED"
	CodeContactsRequired    Code = "CONTACTS_REQUIRED"
	CodeTemplateRequired    Code = "TEMPLATE_REQUIRED"
	CodeInvitationsRequired Code = "INVITATIONS_REQUIRED"
	CodeQuotaTypeExists     Code = "QUOTA_TYPE_ALREADY_EXISTS"
	CodeStatusNotReachable  Code = "STATUS_NOT_REACHABLE"
	CodeEventDatesRequired  Code = "EVENT_DATES_REQUIRED"
	CodeEventNameRequired   Code = "EVENT_NAME_REQUIRED"
	CodeSponsorNameRequired Code = "SPONSOR_NAME_REQUIRED"
	CodeEventCoreNotLoaded  Code = "EVENT_CORE_NOT_LOADED"
	CodeInvalidEventStatus  Code = "INVALID_EVENT_STATUS"
	CodeInvalidResponse     Code = "INVALID_RESPONSE_FORMAT"

	// Not-found errors: referenced record absent from cache and remote.
	CodeEventNotFound      Code = "EVENT_NOT_FOUND"
	CodeBundleNotFound     Code = "BUNDLE_NOT_FOUND"
	CodeInvitationNotFound Code = "INVITATION_NOT_FOUND"

	// Remote-call failures: the persistence service call itself failed.
	// Optimistic local state is retained; no retry, no rollback.
	CodeRemoteCallFailed Code = "REMOTE_CALL_FAILED"
)
