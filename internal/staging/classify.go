package staging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/brianking74/Property-Stage/internal/errs"
)

// classify maps a transport-level failure onto the error taxonomy. The
// original message is kept in the wrap so administrators can still read it.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", errs.ErrTransientFailure, err)
	}

	var ae genai.APIError
	if errors.As(err, &ae) {
		return classifyAPIError(ae)
	}
	var aep *genai.APIError
	if errors.As(err, &aep) {
		return classifyAPIError(*aep)
	}

	msg := err.Error()
	if credentialMessage(msg) {
		return fmt.Errorf("%w: %s", errs.ErrInvalidCredential, msg)
	}
	return fmt.Errorf("%w: %s", errs.ErrTransientFailure, msg)
}

func classifyAPIError(ae genai.APIError) error {
	switch {
	case ae.Code == http.StatusUnauthorized || ae.Code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", errs.ErrInvalidCredential, ae.Message)
	case credentialMessage(ae.Message):
		return fmt.Errorf("%w: %s", errs.ErrInvalidCredential, ae.Message)
	case ae.Code == http.StatusTooManyRequests || ae.Code >= 500:
		return fmt.Errorf("%w: %s", errs.ErrTransientFailure, ae.Message)
	case refusalMessage(ae.Message):
		return fmt.Errorf("%w: %s", errs.ErrServiceRefused, ae.Message)
	default:
		return fmt.Errorf("%w: %s", errs.ErrTransientFailure, ae.Message)
	}
}

// credentialMessage matches the service's known credential-failure phrasings.
func credentialMessage(msg string) bool {
	return strings.Contains(msg, "Requested entity was not found") ||
		strings.Contains(msg, "API key not valid") ||
		strings.Contains(msg, "API key expired")
}

func refusalMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "safety") || strings.Contains(lower, "blocked")
}
