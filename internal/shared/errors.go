package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Batch precondition errors
	ErrEmptyTemplate     = fmt.Errorf("missing message template")
	ErrTemplateTooLong   = fmt.Errorf("message template too long")
	ErrNotReady          = fmt.Errorf("messaging session not ready")
	ErrSourceUnavailable = fmt.Errorf("contact source not initialized")
	ErrNoContacts        = fmt.Errorf("no contact data found")
	ErrBatchInFlight     = fmt.Errorf("a batch is already in flight")

	// Session errors
	ErrInitFailed     = fmt.Errorf("messaging client initialization failed")
	ErrSendFailed     = fmt.Errorf("message send failed")
	ErrMissingPhone   = fmt.Errorf("missing phone number")
	ErrEncodeFailed   = fmt.Errorf("pairing code encoding failed")
	ErrNotInitialized = fmt.Errorf("messaging client not initialized")

	// HTTP errors
	ErrUnauthorized = fmt.Errorf("missing or invalid API key")
	ErrBadGateway   = fmt.Errorf("unexpected response from backend")
)
