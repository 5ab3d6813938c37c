// Package dispatch delivers record-change events to subscribed webhook
// endpoints. It re-exports the core types and wires the delivery engine,
// commands and queries behind a Facade.
package dispatch

import "github.com/goliatone/go-webhook-dispatch/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Endpoint = core.Endpoint
type Subscription = core.Subscription
type SubscriptionFilter = core.SubscriptionFilter
type DeliveryTarget = core.DeliveryTarget
type DeliveryRequest = core.DeliveryRequest
type DeliveryResult = core.DeliveryResult
type DeliveryRecord = core.DeliveryRecord
type DeliveryFilter = core.DeliveryFilter
type DeliveryPage = core.DeliveryPage

type EndpointRegistry = core.EndpointRegistry
type SubscriptionRegistry = core.SubscriptionRegistry
type DeliveryLedgerStore = core.DeliveryLedgerStore
type RecordFetcher = core.RecordFetcher

var (
	WithLogger               = core.WithLogger
	WithLoggerProvider       = core.WithLoggerProvider
	WithMetricsRecorder      = core.WithMetricsRecorder
	WithErrorFactory         = core.WithErrorFactory
	WithErrorMapper          = core.WithErrorMapper
	WithPersistenceClient    = core.WithPersistenceClient
	WithRepositoryFactory    = core.WithRepositoryFactory
	WithConfigProvider       = core.WithConfigProvider
	WithOptionsResolver      = core.WithOptionsResolver
	WithTransport            = core.WithTransport
	WithEndpointRegistry     = core.WithEndpointRegistry
	WithSubscriptionRegistry = core.WithSubscriptionRegistry
	WithDeliveryLedger       = core.WithDeliveryLedger
	WithDeliveryReader       = core.WithDeliveryReader
	WithRecordFetcher        = core.WithRecordFetcher
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

// Setup builds the service and the Facade over it in one call.
func Setup(cfg Config, opts ...Option) (*Facade, error) {
	svc, err := core.Setup(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return NewFacade(svc)
}
