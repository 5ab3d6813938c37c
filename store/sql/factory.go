package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-webhook-dispatch/core"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db            *bun.DB
	endpointCache repositorycache.CacheService

	endpointStore     *EndpointStore
	cachedEndpoints   *CachedEndpointRegistry
	subscriptionStore *SubscriptionStore
	deliveryStore     *DeliveryStore
	recordStore       *RecordStore
}

type FactoryOption func(*RepositoryFactory)

// WithEndpointCache serves EndpointRegistry through a CachedEndpointRegistry.
func WithEndpointCache(cacheService repositorycache.CacheService) FactoryOption {
	return func(f *RepositoryFactory) {
		f.endpointCache = cacheService
	}
}

func NewRepositoryFactory(opts ...FactoryOption) *RepositoryFactory {
	factory := &RepositoryFactory{}
	for _, opt := range opts {
		if opt != nil {
			opt(factory)
		}
	}
	return factory
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.endpointStore != nil && f.deliveryStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) EndpointRegistry() core.EndpointRegistry {
	if f == nil {
		return nil
	}
	if f.cachedEndpoints != nil {
		return f.cachedEndpoints
	}
	return f.endpointStore
}

func (f *RepositoryFactory) SubscriptionRegistry() core.SubscriptionRegistry {
	if f == nil {
		return nil
	}
	return f.subscriptionStore
}

func (f *RepositoryFactory) DeliveryLedger() core.DeliveryLedgerStore {
	if f == nil {
		return nil
	}
	return f.deliveryStore
}

func (f *RepositoryFactory) DeliveryReader() core.DeliveryReader {
	if f == nil {
		return nil
	}
	return f.deliveryStore
}

func (f *RepositoryFactory) RecordFetcher() core.RecordFetcher {
	if f == nil {
		return nil
	}
	return f.recordStore
}

func (f *RepositoryFactory) EndpointStore() *EndpointStore {
	if f == nil {
		return nil
	}
	return f.endpointStore
}

func (f *RepositoryFactory) SubscriptionStore() *SubscriptionStore {
	if f == nil {
		return nil
	}
	return f.subscriptionStore
}

func (f *RepositoryFactory) DeliveryStore() *DeliveryStore {
	if f == nil {
		return nil
	}
	return f.deliveryStore
}

func (f *RepositoryFactory) initStores() error {
	endpointStore, err := NewEndpointStore(f.db)
	if err != nil {
		return err
	}
	f.endpointStore = endpointStore
	if f.endpointCache != nil {
		cached, cacheErr := NewCachedEndpointRegistry(endpointStore, f.endpointCache)
		if cacheErr != nil {
			return cacheErr
		}
		f.cachedEndpoints = cached
	}
	subscriptionStore, err := NewSubscriptionStore(f.db)
	if err != nil {
		return err
	}
	f.subscriptionStore = subscriptionStore
	deliveryStore, err := NewDeliveryStore(f.db)
	if err != nil {
		return err
	}
	f.deliveryStore = deliveryStore
	recordStore, err := NewRecordStore(f.db)
	if err != nil {
		return err
	}
	f.recordStore = recordStore
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
