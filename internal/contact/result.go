package contact

import (
	"errors"
)

// Kind tags a submission outcome.
type Kind int

const (
	KindSuccess Kind = iota + 1
	KindProviderError
	KindValidationError
	KindNetworkError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindProviderError:
		return "provider_error"
	case KindValidationError:
		return "validation_error"
	case KindNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// Validation reasons carried in Result.Message.
const (
	ReasonCaptchaMissing = "captcha missing"
	ReasonMissingConfig  = "missing configuration"
	ReasonInFlight       = "submission already in progress"
)

// Status lines shown under the form.
const (
	LineSending        = "Sending…"
	LineSuccess        = "Message sent successfully. I'll reply soon!"
	LineCaptchaMissing = "Please complete the captcha."
	LineMissingConfig  = "Missing form configuration. Set WEB3FORMS_ACCESS_KEY."
	LineInFlight       = "Your message is still being sent. Please wait."
	LineNetworkError   = "Network error. Please try again."

	// FallbackProviderMessage is used when the relay rejects a submission
	// without saying why.
	FallbackProviderMessage = "Something went wrong. Please try again."
)

var (
	ErrCaptchaMissing = errors.New("captcha token missing")
	ErrMissingConfig  = errors.New("relay access key not configured")
	ErrInFlight       = errors.New("submission already in flight")
	ErrInvalidFields  = errors.New("invalid form fields")
)

// Result is the outcome of one submission attempt. Exactly one Kind holds.
type Result struct {
	Kind Kind
	// Message is the provider message for KindProviderError and the
	// validation reason for KindValidationError.
	Message string
	// Err is the underlying cause. It is logged, never shown to visitors.
	Err error
}

func Success() Result {
	return Result{Kind: KindSuccess}
}

// ProviderError keeps the relay message verbatim, substituting the fallback
// only when it is empty.
func ProviderError(message string) Result {
	if message == "" {
		message = FallbackProviderMessage
	}
	return Result{Kind: KindProviderError, Message: message}
}

func ValidationError(reason string, err error) Result {
	return Result{Kind: KindValidationError, Message: reason, Err: err}
}

func NetworkError(err error) Result {
	return Result{Kind: KindNetworkError, Err: err}
}

func (r Result) IsSuccess() bool {
	return r.Kind == KindSuccess
}

// StatusLine renders the result as the single line shown to the visitor.
func (r Result) StatusLine() string {
	switch r.Kind {
	case KindSuccess:
		return LineSuccess
	case KindProviderError:
		return r.Message
	case KindNetworkError:
		return LineNetworkError
	case KindValidationError:
		switch {
		case errors.Is(r.Err, ErrCaptchaMissing):
			return LineCaptchaMissing
		case errors.Is(r.Err, ErrMissingConfig):
			return LineMissingConfig
		case errors.Is(r.Err, ErrInFlight):
			return LineInFlight
		}
		return r.Message
	}
	return ""
}

// Phase is the display state of a form.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSending
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseSending:
		return "sending"
	case PhaseDone:
		return "done"
	default:
		return "idle"
	}
}

// Status is what the form currently displays. Result is only meaningful
// when Phase is PhaseDone.
type Status struct {
	Phase  Phase
	Result Result
}

func (s Status) Line() string {
	switch s.Phase {
	case PhaseSending:
		return LineSending
	case PhaseDone:
		return s.Result.StatusLine()
	}
	return ""
}
