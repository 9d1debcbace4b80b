package staging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/brianking74/Property-Stage/internal/errs"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"deadline", context.DeadlineExceeded, errs.ErrTransientFailure},
		{"canceled", fmt.Errorf("rpc: %w", context.Canceled), errs.ErrTransientFailure},
		{"unauthorized", &genai.APIError{Code: 401, Message: "unauthorized"}, errs.ErrInvalidCredential},
		{"forbidden", &genai.APIError{Code: 403, Message: "forbidden"}, errs.ErrInvalidCredential},
		{"key not valid", &genai.APIError{Code: 400, Message: "API key not valid. Please pass a valid API key."}, errs.ErrInvalidCredential},
		{"entity not found", &genai.APIError{Code: 404, Message: "Requested entity was not found."}, errs.ErrInvalidCredential},
		{"rate limited", &genai.APIError{Code: 429, Message: "quota exceeded"}, errs.ErrTransientFailure},
		{"server error", &genai.APIError{Code: 503, Message: "overloaded"}, errs.ErrTransientFailure},
		{"safety block", &genai.APIError{Code: 400, Message: "Request blocked by safety filters"}, errs.ErrServiceRefused},
		{"other api error", &genai.APIError{Code: 400, Message: "invalid argument"}, errs.ErrTransientFailure},
		{"plain transport error", errors.New("dial tcp: connection refused"), errs.ErrTransientFailure},
		{"plain credential text", errors.New("API key expired"), errs.ErrInvalidCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.in)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("classify(nil) = %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Fatalf("classify(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassifyKeepsOriginalText(t *testing.T) {
	got := classify(&genai.APIError{Code: 503, Message: "model overloaded, retry later"})
	if got == nil || !errors.Is(got, errs.ErrTransientFailure) {
		t.Fatalf("classify = %v", got)
	}
	if want := "model overloaded, retry later"; !strings.Contains(got.Error(), want) {
		t.Errorf("original message lost: %q", got)
	}
}
