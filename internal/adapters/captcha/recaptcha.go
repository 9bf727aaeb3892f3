package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Recaptcha verifies tokens against Google's siteverify endpoint.
type Recaptcha struct {
	client    *http.Client
	secret    string
	verifyURL string
	cb        *gobreaker.CircuitBreaker
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func NewRecaptcha(secret, verifyURL string) *Recaptcha {
	settings := gobreaker.Settings{
		Name:        "reCAPTCHA",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Recaptcha{
		client: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		secret:    secret,
		verifyURL: verifyURL,
		cb:        gobreaker.NewCircuitBreaker(settings),
	}
}

// Verify returns false for a rejected token and an error when the provider
// could not be asked.
func (r *Recaptcha) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		return r.siteverify(ctx, token, remoteIP)
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

func (r *Recaptcha) siteverify(ctx context.Context, token, remoteIP string) (bool, error) {
	form := url.Values{}
	form.Set("secret", r.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("failed to create siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to call siteverify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return false, fmt.Errorf("siteverify returned non-successful status code: %d", resp.StatusCode)
	}

	var body siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode siteverify response: %w", err)
	}
	return body.Success, nil
}

// AllowAll accepts every token. Used when no secret is configured.
type AllowAll struct{}

func (AllowAll) Verify(context.Context, string, string) (bool, error) { return true, nil }
