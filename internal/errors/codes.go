package errors

// Error codes carried in the "error" field of the envelope.
// Clients switch on these values, so they are part of the API.

const (
	// ==================== Validation ====================
	CodeValidationFailed = "Validation Failed" // request body failed validation

	// ==================== Authentication ====================
	CodeAuthenticationFailed = "Authentication Failed" // bad credentials, wrong OTP, missing or revoked bearer token

	// ==================== Authorization ====================
	CodeForbidden = "Forbidden" // authenticated but lacking the required role

	// ==================== Reset flow ====================
	CodeResetPasswordFailed = "Reset Password Failed" // no account for the email
	CodeExpired             = "Expired"               // OTP or reset token past its window
	CodeInvalidToken        = "Invalid Token"         // reset token does not match

	// ==================== Resources ====================
	CodeNotFound = "Not Found"
	CodeConflict = "Conflict"

	// ==================== Throttling ====================
	CodeTooManyRequests = "Too Many Requests"

	// ==================== Internal ====================
	CodeServerError = "Server Error"
)
