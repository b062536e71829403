package contact

import (
	"errors"
	"testing"
)

func TestStatusLine(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   string
	}{
		{"idle", Status{}, ""},
		{"sending", Status{Phase: PhaseSending}, LineSending},
		{"success", Status{Phase: PhaseDone, Result: Success()}, LineSuccess},
		{"provider", Status{Phase: PhaseDone, Result: ProviderError("Over quota")}, "Over quota"},
		{"provider fallback", Status{Phase: PhaseDone, Result: ProviderError("")}, FallbackProviderMessage},
		{"network", Status{Phase: PhaseDone, Result: NetworkError(errors.New("refused"))}, LineNetworkError},
		{"captcha", Status{Phase: PhaseDone, Result: ValidationError(ReasonCaptchaMissing, ErrCaptchaMissing)}, LineCaptchaMissing},
		{"config", Status{Phase: PhaseDone, Result: ValidationError(ReasonMissingConfig, ErrMissingConfig)}, LineMissingConfig},
		{"in flight", Status{Phase: PhaseDone, Result: ValidationError(ReasonInFlight, ErrInFlight)}, LineInFlight},
		{"field", Status{Phase: PhaseDone, Result: ValidationError("Please enter your name.", &FieldError{Field: "name"})}, "Please enter your name."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Line(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	tests := map[Kind]string{
		KindSuccess:         "success",
		KindProviderError:   "provider_error",
		KindValidationError: "validation_error",
		KindNetworkError:    "network_error",
		Kind(0):             "unknown",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
