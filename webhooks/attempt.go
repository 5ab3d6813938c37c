package webhooks

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-webhook-dispatch/core"
)

type OutcomeKind string

const (
	OutcomeSuccess        OutcomeKind = "success"
	OutcomeHTTPError      OutcomeKind = "http_error"
	OutcomeTransportError OutcomeKind = "transport_error"
)

// AttemptOutcome is the result of one HTTP request. StatusCode and Body are
// only meaningful when a response was received.
type AttemptOutcome struct {
	Kind       OutcomeKind
	Method     string
	StatusCode int
	Body       string
	Err        error
}

func (o AttemptOutcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}

// ResponseStatus is nil for transport errors.
func (o AttemptOutcome) ResponseStatus() *int {
	if o.Kind == OutcomeTransportError || o.Kind == "" {
		return nil
	}
	status := o.StatusCode
	return &status
}

// ResponseText is the response body, or the error message when no response arrived.
func (o AttemptOutcome) ResponseText() string {
	if o.Kind == OutcomeTransportError {
		if o.Err == nil {
			return "transport error"
		}
		return o.Err.Error()
	}
	return o.Body
}

// ClassifyResponse turns a transport result into an outcome. Any 2xx succeeds.
func ClassifyResponse(method string, res core.TransportResponse, err error) AttemptOutcome {
	method = strings.ToUpper(strings.TrimSpace(method))
	if err != nil {
		return AttemptOutcome{Kind: OutcomeTransportError, Method: method, Err: err}
	}
	outcome := AttemptOutcome{
		Kind:       OutcomeHTTPError,
		Method:     method,
		StatusCode: res.StatusCode,
		Body:       string(res.Body),
	}
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		outcome.Kind = OutcomeSuccess
	}
	return outcome
}

func (d *Dispatcher) attemptOnce(
	ctx context.Context,
	method string,
	targetURL string,
	headers map[string]string,
	query map[string]string,
	body []byte,
) (outcome AttemptOutcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			outcome = AttemptOutcome{
				Kind:   OutcomeTransportError,
				Method: method,
				Err:    fmt.Errorf("webhooks: transport panic: %v", recovered),
			}
		}
	}()
	res, err := d.transport().Do(ctx, core.TransportRequest{
		Method:               method,
		URL:                  targetURL,
		Headers:              headers,
		Query:                query,
		Body:                 body,
		Timeout:              d.Timeout,
		MaxResponseBodyBytes: d.MaxResponseBodyBytes,
	})
	return ClassifyResponse(method, res, err)
}
