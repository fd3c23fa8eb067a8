package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeArgumentMissing        = "ARGUMENT_MISSING"
	CodeArgumentInvalidInteger = "ARGUMENT_INVALID_INTEGER"
	CodeArgumentInvalidEmoji   = "ARGUMENT_INVALID_EMOJI"
	CodeNotAuthorized          = "NOT_AUTHORIZED"
	CodeGuildContextMissing    = "GUILD_CONTEXT_MISSING"
	CodeNotFound               = "NOT_FOUND"
	CodeStorageFailure         = "STORAGE_FAILURE"
	CodeLookupFailure          = "LOOKUP_FAILURE"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		// Argument errors
		CodeArgumentMissing:        "Not enough arguments ({{.Expected}} expected)",
		CodeArgumentInvalidInteger: "`{{.Value}}` is not a valid number",
		CodeArgumentInvalidEmoji:   "`{{.Value}}` is not a valid emoji",

		// Authorization errors
		CodeNotAuthorized: "You are not allowed to use this command",

		// Guild context errors
		CodeGuildContextMissing: "There was no guild ID (are you in a PM?)",

		// Storage errors
		CodeNotFound:       "The requested record was not found",
		CodeStorageFailure: "Could not write to storage: {{.Detail}}",

		// Directory errors
		CodeLookupFailure: "Could not look up user {{.UserID}}",
	},
}
