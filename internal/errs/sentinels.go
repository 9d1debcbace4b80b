// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Auth errors. Recoverable and shown inline on the auth form.
var (
	// ErrAccountNotFound indicates no account exists for the normalized email.
	ErrAccountNotFound = errors.New("account not found")

	// ErrWrongSecret indicates the secret did not match the stored hash.
	ErrWrongSecret = errors.New("wrong secret")

	// ErrDuplicateEmail indicates the normalized email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Verification errors.
var (
	// ErrCodeMismatch indicates the entered code does not match the issued one.
	ErrCodeMismatch = errors.New("verification code mismatch")

	// ErrResendCooldown indicates a resend was requested before the cooldown elapsed.
	ErrResendCooldown = errors.New("resend cooldown active")

	// ErrBadStep indicates an operation invalid for the machine's current step.
	ErrBadStep = errors.New("invalid verification step")
)

// ErrCreditExhausted blocks a paid action before any network call is made.
var ErrCreditExhausted = errors.New("credit exhausted")

// Generation errors produced by the staging orchestrator.
var (
	// ErrNoSourceImage indicates generation was requested without a source image.
	ErrNoSourceImage = errors.New("no source image selected")

	// ErrNoImageReturned indicates the service answered without an image payload.
	ErrNoImageReturned = errors.New("no image returned")

	// ErrServiceRefused indicates the service declined the request for policy reasons.
	ErrServiceRefused = errors.New("service refused request")

	// ErrTransientFailure indicates a retryable service or network failure.
	ErrTransientFailure = errors.New("transient service failure")

	// ErrInvalidCredential indicates a missing, expired, or rejected API credential.
	ErrInvalidCredential = errors.New("missing or invalid API credential")

	// ErrGenerationInFlight indicates a second request was made while one is pending.
	ErrGenerationInFlight = errors.New("generation already in flight")
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")
