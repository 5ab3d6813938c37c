package gojob

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-webhook-dispatch/core"
)

const (
	paramSiteID         = "site_id"
	paramEndpointID     = "endpoint_id"
	paramSubscriptionID = "subscription_id"
	paramEventType      = "event_type"
	paramEvent          = "event"
	paramTable          = "table"
	paramObjectID       = "object_id"
	paramRecord         = "record"
	paramMaxAttempts    = "max_attempts"
	paramAttemptDelays  = "attempt_delays_ms"
)

// Deliverer runs one delivery to completion.
type Deliverer interface {
	Deliver(ctx context.Context, req core.DeliveryRequest) (core.DeliveryResult, error)
}

// EncodeDeliveryJob builds a queue message for req. Only the endpoint id
// travels on the queue; the endpoint (target and secret) is looked up again
// when the job runs so disabled endpoints stop receiving traffic.
func EncodeDeliveryJob(req core.DeliveryRequest) (*core.JobExecutionMessage, error) {
	siteID := strings.TrimSpace(req.SiteID)
	endpointID := strings.TrimSpace(req.Endpoint.ID)
	if siteID == "" {
		return nil, core.BadInputError("gojob: site id is required")
	}
	if endpointID == "" {
		return nil, core.BadInputError("gojob: endpoint id is required")
	}
	params := map[string]any{
		paramSiteID:     siteID,
		paramEndpointID: endpointID,
		paramEventType:  strings.TrimSpace(req.EventType),
		paramTable:      strings.TrimSpace(req.Table),
		paramObjectID:   strings.TrimSpace(req.ObjectID),
	}
	if event := strings.TrimSpace(req.Event); event != "" {
		params[paramEvent] = event
	}
	if req.Subscription != nil && strings.TrimSpace(req.Subscription.ID) != "" {
		params[paramSubscriptionID] = strings.TrimSpace(req.Subscription.ID)
	}
	if req.Record != nil {
		params[paramRecord] = req.Record
	}
	if req.MaxAttempts > 0 {
		params[paramMaxAttempts] = req.MaxAttempts
	}
	if len(req.AttemptDelays) > 0 {
		delays := make([]int64, 0, len(req.AttemptDelays))
		for _, delay := range req.AttemptDelays {
			delays = append(delays, delay.Milliseconds())
		}
		params[paramAttemptDelays] = delays
	}
	return &core.JobExecutionMessage{
		JobID:      JobIDDeliver,
		ScriptPath: JobIDDeliver,
		Parameters: params,
	}, nil
}

// DecodeDeliveryJob reverses EncodeDeliveryJob. The returned request carries
// only the endpoint id; callers must resolve the full endpoint.
func DecodeDeliveryJob(msg *core.JobExecutionMessage) (core.DeliveryRequest, error) {
	if msg == nil {
		return core.DeliveryRequest{}, core.BadInputError("gojob: execution message is required")
	}
	if jobID := strings.TrimSpace(msg.JobID); jobID != JobIDDeliver {
		return core.DeliveryRequest{}, core.BadInputError(fmt.Sprintf("gojob: unexpected job id %q", jobID))
	}
	params := msg.Parameters
	req := core.DeliveryRequest{
		SiteID:    stringParam(params, paramSiteID),
		Endpoint:  core.Endpoint{ID: stringParam(params, paramEndpointID)},
		EventType: stringParam(params, paramEventType),
		Event:     stringParam(params, paramEvent),
		Table:     stringParam(params, paramTable),
		ObjectID:  stringParam(params, paramObjectID),
		Record:    params[paramRecord],
	}
	if req.SiteID == "" {
		return core.DeliveryRequest{}, core.BadInputError("gojob: site_id parameter is required")
	}
	if req.Endpoint.ID == "" {
		return core.DeliveryRequest{}, core.BadInputError("gojob: endpoint_id parameter is required")
	}
	if subscriptionID := stringParam(params, paramSubscriptionID); subscriptionID != "" {
		req.Subscription = &core.Subscription{
			ID:         subscriptionID,
			SiteID:     req.SiteID,
			EndpointID: req.Endpoint.ID,
			EventType:  req.Event,
			IsActive:   true,
		}
	}
	maxAttempts, err := intParam(params, paramMaxAttempts)
	if err != nil {
		return core.DeliveryRequest{}, err
	}
	req.MaxAttempts = maxAttempts
	delays, err := delaysParam(params, paramAttemptDelays)
	if err != nil {
		return core.DeliveryRequest{}, err
	}
	req.AttemptDelays = delays
	return req, nil
}

// DeliveryEnqueuer publishes delivery jobs to a queue.
type DeliveryEnqueuer struct {
	Enqueuer core.JobEnqueuer
}

func (e DeliveryEnqueuer) EnqueueDelivery(ctx context.Context, req core.DeliveryRequest) error {
	if e.Enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	msg, err := EncodeDeliveryJob(req)
	if err != nil {
		return err
	}
	return e.Enqueuer.Enqueue(ctx, msg)
}

// DeliveryJobRunner executes delivery jobs pulled from a queue.
//
// Malformed messages and requests the dispatcher rejects as bad input are
// dead-lettered. Registry and ledger outages are nacked for redelivery. A
// delivery that exhausted its attempts is acked: the ledger row already
// records it as failed.
type DeliveryJobRunner struct {
	Deliverer  Deliverer
	Endpoints  core.EndpointRegistry
	Observer   core.Observer
	RetryDelay time.Duration
}

func NewDeliveryJobRunner(deliverer Deliverer, endpoints core.EndpointRegistry, observer core.Observer) *DeliveryJobRunner {
	return &DeliveryJobRunner{
		Deliverer:  deliverer,
		Endpoints:  endpoints,
		Observer:   observer,
		RetryDelay: 30 * time.Second,
	}
}

// ProcessNext dequeues and runs a single job.
func (r *DeliveryJobRunner) ProcessNext(ctx context.Context, dequeuer core.JobDequeuer) (core.DeliveryResult, error) {
	if dequeuer == nil {
		return core.DeliveryResult{}, fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := dequeuer.Dequeue(ctx)
	if err != nil {
		return core.DeliveryResult{}, err
	}
	return r.Run(ctx, delivery)
}

func (r *DeliveryJobRunner) Run(ctx context.Context, delivery core.JobDelivery) (core.DeliveryResult, error) {
	if r == nil || r.Deliverer == nil || r.Endpoints == nil {
		return core.DeliveryResult{}, fmt.Errorf("gojob: delivery job runner is not configured")
	}
	if delivery == nil {
		return core.DeliveryResult{}, fmt.Errorf("gojob: job delivery is required")
	}

	req, err := DecodeDeliveryJob(delivery.Message())
	if err != nil {
		r.Observer.Error(ctx, "delivery job rejected", map[string]any{"error": err.Error()})
		return core.DeliveryResult{}, r.settle(ctx, delivery, err, true)
	}

	endpoints, err := r.Endpoints.ListActiveEndpoints(ctx, req.SiteID)
	if err != nil {
		return core.DeliveryResult{}, r.settle(ctx, delivery, err, false)
	}
	endpoint, ok := findEndpoint(endpoints, req.Endpoint.ID)
	if !ok {
		r.Observer.Warn(ctx, "delivery job skipped: endpoint no longer eligible", map[string]any{
			"site_id":     req.SiteID,
			"endpoint_id": req.Endpoint.ID,
		})
		return core.DeliveryResult{}, delivery.Ack(ctx)
	}
	req.Endpoint = endpoint

	result, err := r.Deliverer.Deliver(ctx, req)
	if err != nil {
		return result, r.settle(ctx, delivery, err, isBadInput(err))
	}
	return result, delivery.Ack(ctx)
}

func (r *DeliveryJobRunner) settle(ctx context.Context, delivery core.JobDelivery, cause error, deadLetter bool) error {
	opts := core.JobNackOptions{
		Requeue:    !deadLetter,
		DeadLetter: deadLetter,
		Reason:     cause.Error(),
	}
	if !deadLetter {
		opts.Delay = r.RetryDelay
	}
	if err := delivery.Nack(ctx, opts); err != nil {
		return fmt.Errorf("gojob: nack failed: %w (cause: %v)", err, cause)
	}
	return cause
}

func findEndpoint(endpoints []core.Endpoint, id string) (core.Endpoint, bool) {
	for _, endpoint := range endpoints {
		if endpoint.ID == id {
			return endpoint, true
		}
	}
	return core.Endpoint{}, false
}

func isBadInput(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.Category == goerrors.CategoryBadInput || rich.Category == goerrors.CategoryValidation
}

func stringParam(params map[string]any, key string) string {
	value, ok := params[key]
	if !ok || value == nil {
		return ""
	}
	if text, ok := value.(string); ok {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// intParam accepts the numeric shapes a queue backend may hand back after a
// JSON round trip.
func intParam(params map[string]any, key string) (int, error) {
	value, ok := params[key]
	if !ok || value == nil {
		return 0, nil
	}
	n, err := int64Value(key, value)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// delaysParam reads a millisecond schedule. After a JSON round trip the list
// usually arrives as []any of float64 or json.Number.
func delaysParam(params map[string]any, key string) ([]time.Duration, error) {
	value, ok := params[key]
	if !ok || value == nil {
		return nil, nil
	}
	var items []any
	switch typed := value.(type) {
	case []int64:
		for _, item := range typed {
			items = append(items, item)
		}
	case []int:
		for _, item := range typed {
			items = append(items, item)
		}
	case []float64:
		for _, item := range typed {
			items = append(items, item)
		}
	case []any:
		items = typed
	default:
		return nil, core.BadInputError(fmt.Sprintf("gojob: %s must be a list of milliseconds", key))
	}
	delays := make([]time.Duration, 0, len(items))
	for _, item := range items {
		ms, err := int64Value(key, item)
		if err != nil {
			return nil, err
		}
		if ms < 0 {
			return nil, core.BadInputError(fmt.Sprintf("gojob: %s must be >= 0", key))
		}
		delays = append(delays, time.Duration(ms)*time.Millisecond)
	}
	return delays, nil
}

func int64Value(key string, value any) (int64, error) {
	switch typed := value.(type) {
	case int:
		return int64(typed), nil
	case int64:
		return typed, nil
	case float64:
		return int64(typed), nil
	case json.Number:
		n, err := typed.Int64()
		if err != nil {
			return 0, core.BadInputError(fmt.Sprintf("gojob: %s must be an integer", key))
		}
		return n, nil
	default:
		return 0, core.BadInputError(fmt.Sprintf("gojob: %s must be an integer", key))
	}
}
