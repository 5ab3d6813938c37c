package command

import (
	"context"
	"strings"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-webhook-dispatch/core"
	"github.com/goliatone/go-webhook-dispatch/webhooks"
)

type Deliverer interface {
	Deliver(ctx context.Context, req core.DeliveryRequest) (core.DeliveryResult, error)
	DeliverTargets(ctx context.Context, base core.DeliveryRequest, targets []core.DeliveryTarget) ([]core.DeliveryResult, error)
}

type TargetResolver interface {
	ResolveTargets(ctx context.Context, filter core.SubscriptionFilter) ([]core.DeliveryTarget, error)
}

type DeliverCommand struct {
	deliverer Deliverer
}

func NewDeliverCommand(deliverer Deliverer) *DeliverCommand {
	return &DeliverCommand{deliverer: deliverer}
}

func (c *DeliverCommand) Execute(ctx context.Context, msg DeliverMessage) error {
	if c == nil || c.deliverer == nil {
		return commandDependencyError("command: deliverer is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.deliverer.Deliver(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

// DispatchEventCommand resolves subscribers for a record event, hydrates the
// record when needed and delivers to each target in turn.
type DispatchEventCommand struct {
	resolver  TargetResolver
	deliverer Deliverer
	records   core.RecordFetcher
}

func NewDispatchEventCommand(
	resolver TargetResolver,
	deliverer Deliverer,
	records core.RecordFetcher,
) *DispatchEventCommand {
	return &DispatchEventCommand{resolver: resolver, deliverer: deliverer, records: records}
}

func (c *DispatchEventCommand) Execute(ctx context.Context, msg DispatchEventMessage) error {
	if c == nil || c.resolver == nil || c.deliverer == nil {
		return commandDependencyError("command: resolver and deliverer are required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	req := msg.Request
	eventName := webhooks.ResolveEventName(req.Event, req.Table, req.EventType)
	req.Event = eventName

	targets, err := c.resolver.ResolveTargets(ctx, core.SubscriptionFilter{
		SiteID:          req.SiteID,
		EventType:       eventName,
		SubscriptionIDs: msg.SubscriptionIDs,
	})
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		storeResult(ctx, []core.DeliveryResult{})
		return nil
	}

	if req.Record == nil {
		if c.records == nil {
			return commandDependencyError("command: record fetcher is required when no record is supplied")
		}
		record, fetchErr := c.records.FetchByTableAndID(ctx, strings.TrimSpace(req.Table), strings.TrimSpace(req.ObjectID))
		if fetchErr != nil {
			return fetchErr
		}
		req.Record = record
	}

	results, err := c.deliverer.DeliverTargets(ctx, req, targets)
	storeResult(ctx, results)
	return err
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
