package core

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// StoreProvider exposes the persistence-backed collaborators of the delivery engine.
type StoreProvider interface {
	EndpointRegistry() EndpointRegistry
	SubscriptionRegistry() SubscriptionRegistry
	DeliveryLedger() DeliveryLedgerStore
	DeliveryReader() DeliveryReader
	RecordFetcher() RecordFetcher
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

// Service holds the resolved configuration and collaborators. It performs no
// delivery work itself; webhooks.Dispatcher and webhooks.Resolver are built on it.
type Service struct {
	config               Config
	logger               Logger
	loggerProvider       LoggerProvider
	metricsRecorder      MetricsRecorder
	errorFactory         ErrorFactory
	errorMapper          ErrorMapper
	persistenceClient    any
	transport            TransportAdapter
	endpointRegistry     EndpointRegistry
	subscriptionRegistry SubscriptionRegistry
	deliveryLedger       DeliveryLedgerStore
	deliveryReader       DeliveryReader
	recordFetcher        RecordFetcher
}

type ServiceDependencies struct {
	Logger               Logger
	LoggerProvider       LoggerProvider
	MetricsRecorder      MetricsRecorder
	ErrorFactory         ErrorFactory
	ErrorMapper          ErrorMapper
	PersistenceClient    any
	Transport            TransportAdapter
	EndpointRegistry     EndpointRegistry
	SubscriptionRegistry SubscriptionRegistry
	DeliveryLedger       DeliveryLedgerStore
	DeliveryReader       DeliveryReader
	RecordFetcher        RecordFetcher
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("webhooks", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("webhooks"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.repositoryFactory != nil {
		var stores StoreProvider
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			built, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			stores = built
		} else if direct, ok := builder.repositoryFactory.(StoreProvider); ok {
			stores = direct
		}
		if stores != nil {
			if builder.endpointRegistry == nil {
				builder.endpointRegistry = stores.EndpointRegistry()
			}
			if builder.subscriptionRegistry == nil {
				builder.subscriptionRegistry = stores.SubscriptionRegistry()
			}
			if builder.deliveryLedger == nil {
				builder.deliveryLedger = stores.DeliveryLedger()
			}
			if builder.deliveryReader == nil {
				builder.deliveryReader = stores.DeliveryReader()
			}
			if builder.recordFetcher == nil {
				builder.recordFetcher = stores.RecordFetcher()
			}
		}
	}
	if builder.deliveryReader == nil {
		if reader, ok := builder.deliveryLedger.(DeliveryReader); ok {
			builder.deliveryReader = reader
		}
	}

	return &Service{
		config:               finalConfig,
		logger:               logger,
		loggerProvider:       provider,
		metricsRecorder:      builder.metricsRecorder,
		errorFactory:         builder.errorFactory,
		errorMapper:          builder.errorMapper,
		persistenceClient:    builder.persistenceClient,
		transport:            builder.transport,
		endpointRegistry:     builder.endpointRegistry,
		subscriptionRegistry: builder.subscriptionRegistry,
		deliveryLedger:       builder.deliveryLedger,
		deliveryReader:       builder.deliveryReader,
		recordFetcher:        builder.recordFetcher,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Observer() Observer {
	if s == nil {
		return NewObserver(nil, nil)
	}
	return NewObserver(s.logger, s.metricsRecorder)
}

// MapError applies the configured error mapper.
func (s *Service) MapError(err error) error {
	if s == nil {
		return err
	}
	return mapBuildError(s.errorMapper, err)
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:               s.logger,
		LoggerProvider:       s.loggerProvider,
		MetricsRecorder:      s.metricsRecorder,
		ErrorFactory:         s.errorFactory,
		ErrorMapper:          s.errorMapper,
		PersistenceClient:    s.persistenceClient,
		Transport:            s.transport,
		EndpointRegistry:     s.endpointRegistry,
		SubscriptionRegistry: s.subscriptionRegistry,
		DeliveryLedger:       s.deliveryLedger,
		DeliveryReader:       s.deliveryReader,
		RecordFetcher:        s.recordFetcher,
	}
}
