package contact

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Zachkp/portfolio/internal/logging"
)

const DefaultTimeout = 15 * time.Second

// Options configure a Flow.
type Options struct {
	// AccessKey identifies the site to the relay. Empty is reported to the
	// visitor as a configuration error.
	AccessKey string
	Subject   string
	Timeout   time.Duration
	Validator *validator.Validate
}

// Flow runs contact submissions for one form instance. It allows one
// submission in flight at a time and owns the form's displayed status.
type Flow struct {
	relay     Relay
	accessKey string
	subject   string
	timeout   time.Duration
	validate  *validator.Validate
	form      Form
	logger    *logging.Logger

	mu     sync.Mutex
	status Status
}

func NewFlow(relay Relay, opts Options) *Flow {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Validator == nil {
		opts.Validator = NewValidator()
	}
	return &Flow{
		relay:     relay,
		accessKey: strings.TrimSpace(opts.AccessKey),
		subject:   opts.Subject,
		timeout:   opts.Timeout,
		validate:  opts.Validator,
		logger:    logging.GetLogger(),
	}
}

// Submit checks preconditions, sends at most one relay request and maps its
// outcome. Precondition failures never reach the relay. On success the form
// is cleared.
func (f *Flow) Submit(ctx context.Context, fields Fields, captchaToken string) Result {
	fields = fields.Trimmed()

	if strings.TrimSpace(captchaToken) == "" {
		return f.reject(fields, ValidationError(ReasonCaptchaMissing, ErrCaptchaMissing))
	}
	if f.accessKey == "" {
		f.logger.Error("Contact submission refused: %v", ErrMissingConfig)
		return f.reject(fields, ValidationError(ReasonMissingConfig, ErrMissingConfig))
	}

	f.mu.Lock()
	if f.status.Phase == PhaseSending {
		f.mu.Unlock()
		return ValidationError(ReasonInFlight, ErrInFlight)
	}
	f.form.Set(fields)
	if ferr := validateFields(f.validate, fields); ferr != nil {
		res := ValidationError(ferr.Reason, ferr)
		f.status = Status{Phase: PhaseDone, Result: res}
		f.mu.Unlock()
		return res
	}
	f.status = Status{Phase: PhaseSending}
	f.mu.Unlock()

	res := f.send(ctx, fields, captchaToken)

	f.mu.Lock()
	f.status = Status{Phase: PhaseDone, Result: res}
	if res.IsSuccess() {
		f.form.Clear()
	}
	f.mu.Unlock()

	return res
}

func (f *Flow) send(ctx context.Context, fields Fields, captchaToken string) Result {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	resp, err := f.relay.Submit(ctx, Request{
		Name:         fields.Name,
		Email:        fields.Email,
		Message:      fields.Message,
		Subject:      f.subject,
		CaptchaToken: captchaToken,
		AccessKey:    f.accessKey,
	})
	elapsed := time.Since(start)

	switch {
	case err != nil:
		f.logger.Warn("Contact relay unreachable after %s: %v", elapsed, err)
		return NetworkError(err)
	case resp == nil:
		f.logger.Warn("Contact relay returned no response after %s", elapsed)
		return NetworkError(ErrTransport)
	case resp.Success:
		f.logger.Info("Contact submission delivered in %s", elapsed)
		return Success()
	default:
		f.logger.Warn("Contact relay rejected submission: %q", resp.Message)
		return ProviderError(resp.Message)
	}
}

// reject records a precondition failure unless another submission owns the
// status.
func (f *Flow) reject(fields Fields, res Result) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status.Phase != PhaseSending {
		f.form.Set(fields)
		f.status = Status{Phase: PhaseDone, Result: res}
	}
	return res
}

// Status returns what the form currently displays.
func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Fields returns the values currently held by the form.
func (f *Flow) Fields() Fields {
	return f.form.Fields()
}

// Configured reports whether an access key is present.
func (f *Flow) Configured() bool {
	return f.accessKey != ""
}
