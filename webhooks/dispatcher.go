package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-webhook-dispatch/core"
	"github.com/goliatone/go-webhook-dispatch/transport"
)

// deliverRequestOperation names the request-level observation. It must not
// collide with the delivery outcome metrics, which carry a different label set.
const deliverRequestOperation = "deliver_request"

var defaultTransport core.TransportAdapter = transport.NewHTTPAdapter(nil)

// Dispatcher runs deliveries against endpoints and mirrors every attempt in
// the delivery ledger. It holds no per-delivery state and is safe for
// concurrent use.
type Dispatcher struct {
	Ledger    core.DeliveryLedgerStore
	Transport core.TransportAdapter
	Observer  core.Observer

	MaxAttempts          int
	AttemptDelays        []time.Duration
	Timeout              time.Duration
	MaxResponseBodyBytes int64

	Now   func() time.Time
	Sleep func(time.Duration)
	NewID func() string
}

func NewDispatcher(ledger core.DeliveryLedgerStore, adapter core.TransportAdapter) *Dispatcher {
	defaults := core.DefaultConfig()
	return &Dispatcher{
		Ledger:               ledger,
		Transport:            adapter,
		MaxAttempts:          defaults.Delivery.MaxAttempts,
		AttemptDelays:        defaults.Delivery.AttemptDelays(),
		Timeout:              defaults.Transport.Timeout,
		MaxResponseBodyBytes: defaults.Transport.MaxResponseBodyBytes,
	}
}

// NewDispatcherFromService wires the ledger, transport, observer and delivery
// settings resolved by the service.
func NewDispatcherFromService(svc *core.Service) (*Dispatcher, error) {
	if svc == nil {
		return nil, core.BadInputError("webhooks: service is required")
	}
	deps := svc.Dependencies()
	if deps.DeliveryLedger == nil {
		return nil, core.BadInputError("webhooks: delivery ledger is required")
	}
	cfg := svc.Config()
	adapter := deps.Transport
	if adapter == nil {
		adapter = transport.NewHTTPAdapterFromConfig(cfg.Transport)
	}
	dispatcher := NewDispatcher(deps.DeliveryLedger, adapter)
	dispatcher.Observer = svc.Observer()
	dispatcher.MaxAttempts = cfg.Delivery.MaxAttempts
	dispatcher.AttemptDelays = cfg.Delivery.AttemptDelays()
	dispatcher.Timeout = cfg.Transport.Timeout
	dispatcher.MaxResponseBodyBytes = cfg.Transport.MaxResponseBodyBytes
	return dispatcher, nil
}

// Deliver runs up to MaxAttempts GET-then-POST cycles for one endpoint. The
// only returned error is a failure to validate the request or to create the
// ledger row; delivery failures are reported through the result.
func (d *Dispatcher) Deliver(ctx context.Context, req core.DeliveryRequest) (core.DeliveryResult, error) {
	if d == nil {
		return core.DeliveryResult{}, core.BadInputError("webhooks: dispatcher is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := d.now()
	eventName := ResolveEventName(req.Event, req.Table, req.EventType)
	fields := map[string]any{
		"site_id":     req.SiteID,
		"endpoint_id": req.Endpoint.ID,
		"event_type":  eventName,
		"table":       req.Table,
		"object_id":   req.ObjectID,
	}

	if err := d.validate(req, eventName); err != nil {
		d.Observer.ObserveOperation(ctx, startedAt, deliverRequestOperation, err, fields)
		return core.DeliveryResult{}, err
	}

	deliveryID := d.newID()
	fields["delivery_id"] = deliveryID
	var subscriptionID *string
	if req.Subscription != nil && strings.TrimSpace(req.Subscription.ID) != "" {
		id := strings.TrimSpace(req.Subscription.ID)
		subscriptionID = &id
	}

	if _, err := d.Ledger.Create(ctx, core.CreateDeliveryInput{
		ID:             deliveryID,
		SiteID:         req.SiteID,
		EndpointID:     req.Endpoint.ID,
		SubscriptionID: subscriptionID,
		EventType:      eventName,
		Payload: map[string]any{
			"id":      req.ObjectID,
			"table":   req.Table,
			"event":   eventName,
			"site_id": req.SiteID,
		},
	}); err != nil {
		wrapped := core.LedgerError(err, "webhooks: create delivery record")
		d.Observer.ObserveOperation(ctx, startedAt, deliverRequestOperation, wrapped, fields)
		return core.DeliveryResult{DeliveryID: deliveryID}, wrapped
	}

	// The row exists; finish the delivery even if the caller goes away.
	runCtx := context.WithoutCancel(ctx)
	delays := d.attemptDelays(req.AttemptDelays)
	state := Start(d.maxAttempts(req.MaxAttempts))
	var last AttemptOutcome
	for {
		last = d.runCycle(runCtx, deliveryID, eventName, req, state.Attempt)
		state = Next(state, last)
		d.recordAttempt(runCtx, deliveryID, state, last, fields)
		if state.Phase != PhaseRetrying {
			break
		}
		d.sleep(DelayFor(delays, state.Attempt))
		state = Resume(state)
	}

	result := core.DeliveryResult{
		Delivered:      state.Phase == PhaseDelivered,
		Attempts:       state.Attempt,
		ResponseStatus: last.ResponseStatus(),
		ResponseBody:   last.ResponseText(),
		DeliveryID:     deliveryID,
	}

	tags := map[string]string{"status": string(state.LedgerStatus()), "event_type": eventName}
	d.Observer.Counter(runCtx, core.MetricDeliveryTotal, 1, tags)
	d.Observer.Histogram(runCtx, core.MetricDeliveryAttempts, float64(result.Attempts), tags)
	d.Observer.Histogram(runCtx, core.MetricDeliveryDurationMS, float64(d.now().Sub(startedAt).Milliseconds()), tags)

	fields["attempts"] = result.Attempts
	fields["delivered"] = result.Delivered
	if result.Delivered {
		d.Observer.Info(runCtx, "webhook delivered", fields)
	} else {
		fields["response_body"] = result.ResponseBody
		d.Observer.Warn(runCtx, "webhook delivery exhausted", fields)
	}
	return result, nil
}

// DeliverTargets delivers base to each target in order. Subscriptions only
// select targets; the event name always comes from base. Ledger creation
// failures are joined and do not stop the remaining targets.
func (d *Dispatcher) DeliverTargets(
	ctx context.Context,
	base core.DeliveryRequest,
	targets []core.DeliveryTarget,
) ([]core.DeliveryResult, error) {
	results := make([]core.DeliveryResult, 0, len(targets))
	var errs []error
	for _, target := range targets {
		req := base
		req.Endpoint = target.Endpoint
		subscription := target.Subscription
		req.Subscription = &subscription
		result, err := d.Deliver(ctx, req)
		if err != nil {
			errs = append(errs, fmt.Errorf("endpoint %s: %w", target.Endpoint.ID, err))
		}
		results = append(results, result)
	}
	return results, errors.Join(errs...)
}

func (d *Dispatcher) runCycle(
	ctx context.Context,
	deliveryID string,
	eventName string,
	req core.DeliveryRequest,
	attempt int,
) AttemptOutcome {
	body, err := json.Marshal(core.Envelope{
		ID:        deliveryID,
		Type:      eventName,
		SiteID:    req.SiteID,
		Table:     req.Table,
		ObjectID:  req.ObjectID,
		Data:      req.Record,
		Attempt:   attempt,
		Timestamp: d.now().UTC().Format(core.EnvelopeTimestampLayout),
	})
	if err != nil {
		return AttemptOutcome{Kind: OutcomeTransportError, Method: http.MethodPost, Err: err}
	}

	headers := map[string]string{
		HeaderEvent:    eventName,
		HeaderDelivery: deliveryID,
	}
	if signature, ok := Sign(req.Endpoint.Secret, body); ok {
		headers[HeaderSignature] = signature
	}
	query := map[string]string{
		"delivery_id": deliveryID,
		"event":       eventName,
		"site_id":     req.SiteID,
		"table":       req.Table,
		"object_id":   req.ObjectID,
	}

	outcome := d.attemptOnce(ctx, http.MethodGet, req.Endpoint.TargetURL, headers, query, nil)
	d.countOutcome(ctx, eventName, outcome)
	if outcome.Succeeded() {
		return outcome
	}

	postHeaders := make(map[string]string, len(headers)+1)
	for key, value := range headers {
		postHeaders[key] = value
	}
	postHeaders[HeaderContentType] = "application/json"
	outcome = d.attemptOnce(ctx, http.MethodPost, req.Endpoint.TargetURL, postHeaders, nil, body)
	d.countOutcome(ctx, eventName, outcome)
	return outcome
}

func (d *Dispatcher) recordAttempt(
	ctx context.Context,
	deliveryID string,
	state State,
	outcome AttemptOutcome,
	fields map[string]any,
) {
	attemptedAt := d.now().UTC()
	text := outcome.ResponseText()
	update := core.UpdateDeliveryInput{
		Status:         state.LedgerStatus(),
		AttemptCount:   state.Attempt,
		LastAttemptAt:  attemptedAt,
		ResponseStatus: outcome.ResponseStatus(),
		ResponseBody:   &text,
	}
	if state.Phase == PhaseDelivered {
		update.DeliveredAt = &attemptedAt
	}
	if err := d.Ledger.Update(ctx, deliveryID, update); err != nil {
		logFields := make(map[string]any, len(fields)+3)
		for key, value := range fields {
			logFields[key] = value
		}
		logFields["attempt"] = state.Attempt
		logFields["status"] = string(update.Status)
		logFields["error"] = err.Error()
		d.Observer.Warn(ctx, "webhook ledger update failed", logFields)
		d.Observer.Counter(ctx, core.MetricLedgerWriteFailures, 1, map[string]string{
			"status": string(update.Status),
		})
	}
}

func (d *Dispatcher) countOutcome(ctx context.Context, eventName string, outcome AttemptOutcome) {
	d.Observer.Counter(ctx, core.MetricAttemptOutcomeTotal, 1, map[string]string{
		"method":     outcome.Method,
		"outcome":    string(outcome.Kind),
		"event_type": eventName,
	})
}

func (d *Dispatcher) validate(req core.DeliveryRequest, eventName string) error {
	if d.Ledger == nil {
		return core.BadInputError("webhooks: delivery ledger is required")
	}
	if strings.TrimSpace(req.SiteID) == "" {
		return core.BadInputError(core.ErrSiteIDRequired.Error())
	}
	if strings.TrimSpace(req.Endpoint.ID) == "" || strings.TrimSpace(req.Endpoint.TargetURL) == "" {
		return core.BadInputError(core.ErrEndpointRequired.Error())
	}
	if strings.TrimSpace(eventName) == "" || strings.HasSuffix(eventName, ".") {
		return core.BadInputError(core.ErrEventTypeRequired.Error())
	}
	if _, err := json.Marshal(req.Record); err != nil {
		return core.BadInputError("webhooks: record is not json encodable: " + err.Error())
	}
	return nil
}

func (d *Dispatcher) maxAttempts(requested int) int {
	if requested > 0 {
		return requested
	}
	if d.MaxAttempts > 0 {
		return d.MaxAttempts
	}
	return core.DefaultConfig().Delivery.MaxAttempts
}

func (d *Dispatcher) attemptDelays(requested []time.Duration) []time.Duration {
	if len(requested) > 0 {
		return requested
	}
	if len(d.AttemptDelays) > 0 {
		return d.AttemptDelays
	}
	return core.DefaultConfig().Delivery.AttemptDelays()
}

func (d *Dispatcher) transport() core.TransportAdapter {
	if d.Transport != nil {
		return d.Transport
	}
	return defaultTransport
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Dispatcher) sleep(delay time.Duration) {
	if delay <= 0 {
		return
	}
	if d.Sleep != nil {
		d.Sleep(delay)
		return
	}
	time.Sleep(delay)
}

func (d *Dispatcher) newID() string {
	if d.NewID != nil {
		if id := strings.TrimSpace(d.NewID()); id != "" {
			return id
		}
	}
	return uuid.NewString()
}
