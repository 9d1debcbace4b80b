// Package sanitize converts internal errors into short user-facing messages.
// Only administrators ever see raw error text; everyone else receives a
// generic retry prompt for technical failures so implementation details do
// not leak through the UI.
package sanitize

import (
	"errors"

	"github.com/brianking74/Property-Stage/internal/errs"
)

// GenericRetry is shown to non-admin viewers for unclassified failures.
const GenericRetry = "Something went wrong. Please try again."

var messages = []struct {
	err error
	msg string
}{
	{errs.ErrAccountNotFound, "Account not found. Please sign up."},
	{errs.ErrWrongSecret, "Incorrect password. Please try again."},
	{errs.ErrDuplicateEmail, "Email already registered. Try logging in."},
	{errs.ErrCodeMismatch, "Invalid verification code. Please try again."},
	{errs.ErrResendCooldown, "Please wait before requesting a new code."},
	{errs.ErrCreditExhausted, "You've run out of credits. Please upgrade to continue staging."},
	{errs.ErrNoSourceImage, "Please upload a property photo first."},
	{errs.ErrNoImageReturned, "The AI model returned text instead of an image. Please try a different style."},
	{errs.ErrServiceRefused, "This photo was declined by the staging service. Please try a different image or style."},
	{errs.ErrInvalidCredential, "Your API key is missing or invalid. Please select a valid key and try again."},
	{errs.ErrGenerationInFlight, "A staging request is already running. Please wait for it to finish."},
	{errs.ErrTransientFailure, GenericRetry},
}

// Sanitize maps err to the message the viewer may see. Admin viewers get the
// raw underlying text for technical failures; everyone else gets
// GenericRetry.
func Sanitize(err error, admin bool) string {
	if err == nil {
		return ""
	}
	if admin && (errors.Is(err, errs.ErrTransientFailure) || !classified(err)) {
		return err.Error()
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return GenericRetry
}

func classified(err error) bool {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return true
		}
	}
	return false
}
