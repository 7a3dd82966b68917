package handlers

// API error codes returned in JSON { "success": false, "error": "...", "code": "..." } for stable client handling.
const (
	ErrCodeInvalidRequest     = "invalid_request"
	ErrCodeValidation         = "validation_failed"
	ErrCodeEmailTaken         = "email_taken"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeAccountLocked      = "account_locked"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeNotFound           = "not_found"
	ErrCodeBusy               = "busy"
	ErrCodeInternal           = "internal_error"
)

// User-facing messages. They never say more than the code does.
const (
	msgInvalidRequest     = "Invalid request body."
	msgValidation         = "Please correct the highlighted fields."
	msgEmailTaken         = "A user with this email already exists."
	msgInvalidCredentials = "Invalid email or password."
	msgAccountLocked      = "Too many failed attempts. Please try again later."
	msgBusy               = "The service is busy. Please try again."
	msgInternal           = "Something went wrong. Please try again."
	msgUnauthorized       = "Not signed in."
)
