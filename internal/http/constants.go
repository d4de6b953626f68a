package httpx

// Stable error codes returned in the "error" field of JSON error responses.
// Clients match on these; the accompanying messages are free to change.
const (
	CodeInvalidJSON         = "INVALID_JSON"
	CodeMissingCredentials  = "MISSING_CREDENTIALS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeLoginError          = "LOGIN_ERROR"
	CodeMissingEmail        = "MISSING_EMAIL"
	CodeMissingRefreshToken = "MISSING_REFRESH_TOKEN"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeNotAuthenticated    = "NOT_AUTHENTICATED"
	CodeForbidden           = "FORBIDDEN"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeRateLimited         = "RATE_LIMITED"
)
