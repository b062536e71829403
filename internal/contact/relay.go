package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// DefaultEndpoint is the Web3Forms submission endpoint.
const DefaultEndpoint = "https://api.web3forms.com/submit"

// CaptchaField is the form field hCaptcha writes its token to, which the
// relay also expects.
const CaptchaField = "h-captcha-response"

const maxResponseBytes = 1 << 20

// ErrTransport marks failures where no usable relay response arrived.
var ErrTransport = errors.New("relay transport failure")

// Request is everything sent to the relay for one submission.
type Request struct {
	Name         string
	Email        string
	Message      string
	Subject      string
	CaptchaToken string
	AccessKey    string
}

// formFields returns the multipart fields in a stable order.
func (r Request) formFields() [][2]string {
	return [][2]string{
		{"name", r.Name},
		{"email", r.Email},
		{"message", r.Message},
		{"subject", r.Subject},
		{CaptchaField, r.CaptchaToken},
		{"access_key", r.AccessKey},
	}
}

// RelayResponse is the JSON body returned by the relay.
type RelayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Relay delivers one submission. Any returned error means no usable
// response was received.
type Relay interface {
	Submit(ctx context.Context, req Request) (*RelayResponse, error)
}

// Web3Forms posts submissions to the Web3Forms API.
type Web3Forms struct {
	endpoint string
	client   *http.Client
}

func NewWeb3Forms(endpoint string, timeout time.Duration) *Web3Forms {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Web3Forms{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (w *Web3Forms) Submit(ctx context.Context, req Request) (*RelayResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, kv := range req.formFields() {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", kv[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build relay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	// The relay reports rejections in the JSON body with non-2xx codes, so
	// the status code is not inspected.
	var result RelayResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: undecodable response (status %d): %v", ErrTransport, resp.StatusCode, err)
	}
	return &result, nil
}
