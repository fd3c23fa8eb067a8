// Package errors provides structured error handling with i18n support.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Argument errors
	CodeArgumentMissing        Code = "ARGUMENT_MISSING"
	CodeArgumentInvalidInteger Code = "ARGUMENT_INVALID_INTEGER"
	CodeArgumentInvalidEmoji   Code = "ARGUMENT_INVALID_EMOJI"

	// Authorization errors
	CodeNotAuthorized Code = "NOT_AUTHORIZED"

	// Guild context errors
	CodeGuildContextMissing Code = "GUILD_CONTEXT_MISSING"

	// Storage errors
	CodeNotFound       Code = "NOT_FOUND"
	CodeStorageFailure Code = "STORAGE_FAILURE"

	// Directory errors
	CodeLookupFailure Code = "LOOKUP_FAILURE"
)
