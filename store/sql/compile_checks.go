package sqlstore

import "github.com/goliatone/go-webhook-dispatch/core"

var (
	_ core.EndpointRegistry       = (*EndpointStore)(nil)
	_ core.EndpointRegistry       = (*CachedEndpointRegistry)(nil)
	_ core.SubscriptionRegistry   = (*SubscriptionStore)(nil)
	_ core.DeliveryLedgerStore    = (*DeliveryStore)(nil)
	_ core.DeliveryReader         = (*DeliveryStore)(nil)
	_ core.RecordFetcher          = (*RecordStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
