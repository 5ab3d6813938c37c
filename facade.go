package dispatch

import (
	"fmt"

	webhookcommand "github.com/goliatone/go-webhook-dispatch/command"
	"github.com/goliatone/go-webhook-dispatch/core"
	webhookquery "github.com/goliatone/go-webhook-dispatch/query"
	"github.com/goliatone/go-webhook-dispatch/webhooks"
)

type Commands struct {
	Deliver       *webhookcommand.DeliverCommand
	DispatchEvent *webhookcommand.DispatchEventCommand
}

type Queries struct {
	ListActiveEndpoints     *webhookquery.ListActiveEndpointsQuery
	ListActiveSubscriptions *webhookquery.ListActiveSubscriptionsQuery
	ResolveTargets          *webhookquery.ResolveTargetsQuery
	FetchRecord             *webhookquery.FetchRecordQuery
	GetDelivery             *webhookquery.GetDeliveryQuery
	ListDeliveries          *webhookquery.ListDeliveriesQuery
}

// Facade owns the dispatcher and resolver built from a Service and exposes
// them as go-command handlers.
type Facade struct {
	service    *core.Service
	dispatcher *webhooks.Dispatcher
	resolver   *webhooks.Resolver
	commands   Commands
	queries    Queries
}

func NewFacade(service *core.Service) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("dispatch: service is required")
	}
	dispatcher, err := webhooks.NewDispatcherFromService(service)
	if err != nil {
		return nil, err
	}
	resolver, err := webhooks.NewResolverFromService(service)
	if err != nil {
		return nil, err
	}
	deps := service.Dependencies()

	facade := &Facade{
		service:    service,
		dispatcher: dispatcher,
		resolver:   resolver,
	}
	facade.commands = Commands{
		Deliver:       webhookcommand.NewDeliverCommand(dispatcher),
		DispatchEvent: webhookcommand.NewDispatchEventCommand(resolver, dispatcher, deps.RecordFetcher),
	}
	facade.queries = Queries{
		ListActiveEndpoints:     webhookquery.NewListActiveEndpointsQuery(resolver),
		ListActiveSubscriptions: webhookquery.NewListActiveSubscriptionsQuery(resolver),
		ResolveTargets:          webhookquery.NewResolveTargetsQuery(resolver),
		FetchRecord:             webhookquery.NewFetchRecordQuery(deps.RecordFetcher),
		GetDelivery:             webhookquery.NewGetDeliveryQuery(deps.DeliveryReader),
		ListDeliveries:          webhookquery.NewListDeliveriesQuery(deps.DeliveryReader),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() *core.Service {
	if f == nil {
		return nil
	}
	return f.service
}

func (f *Facade) Dispatcher() *webhooks.Dispatcher {
	if f == nil {
		return nil
	}
	return f.dispatcher
}

func (f *Facade) Resolver() *webhooks.Resolver {
	if f == nil {
		return nil
	}
	return f.resolver
}
