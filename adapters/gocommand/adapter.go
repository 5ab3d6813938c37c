package gocommand

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	webhookcommand "github.com/goliatone/go-webhook-dispatch/command"
	"github.com/goliatone/go-webhook-dispatch/core"
	"github.com/goliatone/go-webhook-dispatch/query"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

// AddQueueResolver mirrors registered commands into a go-job queue registry so
// they can also run from a worker.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterCommand(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// Handlers groups the webhook command and query handlers. Nil entries are
// skipped by RegisterHandlers.
type Handlers struct {
	Deliver                 *webhookcommand.DeliverCommand
	DispatchEvent           *webhookcommand.DispatchEventCommand
	ListActiveEndpoints     *query.ListActiveEndpointsQuery
	ListActiveSubscriptions *query.ListActiveSubscriptionsQuery
	ResolveTargets          *query.ResolveTargetsQuery
	FetchRecord             *query.FetchRecordQuery
	GetDelivery             *query.GetDeliveryQuery
	ListDeliveries          *query.ListDeliveriesQuery
}

// Subscriptions is the set of dispatcher subscriptions created by RegisterHandlers.
type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, sub := range s {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
}

// RegisterHandlers subscribes every configured handler on the go-command
// dispatcher and records it in the registry. On failure every subscription
// made so far is released.
func RegisterHandlers(adapter *RegistryAdapter, h Handlers, runnerOpts ...runner.Option) (Subscriptions, error) {
	var subs Subscriptions
	register := func(sub commanddispatcher.Subscription, err error) error {
		if err != nil {
			return err
		}
		subs = append(subs, sub)
		return nil
	}

	var errs []error
	if h.Deliver != nil {
		errs = append(errs, register(RegisterAndSubscribe[webhookcommand.DeliverMessage](adapter, h.Deliver, runnerOpts...)))
	}
	if h.DispatchEvent != nil {
		errs = append(errs, register(RegisterAndSubscribe[webhookcommand.DispatchEventMessage](adapter, h.DispatchEvent, runnerOpts...)))
	}
	if h.ListActiveEndpoints != nil {
		errs = append(errs, register(RegisterAndSubscribeQuery[query.ListActiveEndpointsMessage, []core.Endpoint](adapter, h.ListActiveEndpoints, runnerOpts...)))
	}
	if h.ListActiveSubscriptions != nil {
		errs = append(errs, register(RegisterAndSubscribeQuery[query.ListActiveSubscriptionsMessage, []core.Subscription](adapter, h.ListActiveSubscriptions, runnerOpts...)))
	}
	if h.ResolveTargets != nil {
		errs = append(errs, register(RegisterAndSubscribeQuery[query.ResolveTargetsMessage, []core.DeliveryTarget](adapter, h.ResolveTargets, runnerOpts...)))
	}
	if h.FetchRecord != nil {
		errs = append(errs, register(RegisterAndSubscribeQuery[query.FetchRecordMessage, map[string]any](adapter, h.FetchRecord, runnerOpts...)))
	}
	if h.GetDelivery != nil {
		errs = append(errs, register(RegisterAndSubscribeQuery[query.GetDeliveryMessage, core.DeliveryRecord](adapter, h.GetDelivery, runnerOpts...)))
	}
	if h.ListDeliveries != nil {
		errs = append(errs, register(RegisterAndSubscribeQuery[query.ListDeliveriesMessage, core.DeliveryPage](adapter, h.ListDeliveries, runnerOpts...)))
	}
	if err := errors.Join(errs...); err != nil {
		subs.Unsubscribe()
		return nil, err
	}
	return subs, nil
}
