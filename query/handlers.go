package query

import (
	"context"
	"strings"

	"github.com/goliatone/go-webhook-dispatch/core"
)

// Resolver is the read side of webhooks.Resolver.
type Resolver interface {
	ListActiveEndpoints(ctx context.Context, siteID string) ([]core.Endpoint, error)
	ListActiveSubscriptions(ctx context.Context, filter core.SubscriptionFilter) ([]core.Subscription, error)
	ResolveTargets(ctx context.Context, filter core.SubscriptionFilter) ([]core.DeliveryTarget, error)
}

type ListActiveEndpointsQuery struct {
	resolver Resolver
}

func NewListActiveEndpointsQuery(resolver Resolver) *ListActiveEndpointsQuery {
	return &ListActiveEndpointsQuery{resolver: resolver}
}

func (q *ListActiveEndpointsQuery) Query(ctx context.Context, msg ListActiveEndpointsMessage) ([]core.Endpoint, error) {
	if q == nil || q.resolver == nil {
		return nil, queryDependencyError("query: resolver is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.resolver.ListActiveEndpoints(ctx, strings.TrimSpace(msg.SiteID))
}

type ListActiveSubscriptionsQuery struct {
	resolver Resolver
}

func NewListActiveSubscriptionsQuery(resolver Resolver) *ListActiveSubscriptionsQuery {
	return &ListActiveSubscriptionsQuery{resolver: resolver}
}

func (q *ListActiveSubscriptionsQuery) Query(
	ctx context.Context,
	msg ListActiveSubscriptionsMessage,
) ([]core.Subscription, error) {
	if q == nil || q.resolver == nil {
		return nil, queryDependencyError("query: resolver is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.resolver.ListActiveSubscriptions(ctx, msg.Filter)
}

type ResolveTargetsQuery struct {
	resolver Resolver
}

func NewResolveTargetsQuery(resolver Resolver) *ResolveTargetsQuery {
	return &ResolveTargetsQuery{resolver: resolver}
}

func (q *ResolveTargetsQuery) Query(ctx context.Context, msg ResolveTargetsMessage) ([]core.DeliveryTarget, error) {
	if q == nil || q.resolver == nil {
		return nil, queryDependencyError("query: resolver is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.resolver.ResolveTargets(ctx, msg.Filter)
}

type FetchRecordQuery struct {
	fetcher core.RecordFetcher
}

func NewFetchRecordQuery(fetcher core.RecordFetcher) *FetchRecordQuery {
	return &FetchRecordQuery{fetcher: fetcher}
}

func (q *FetchRecordQuery) Query(ctx context.Context, msg FetchRecordMessage) (map[string]any, error) {
	if q == nil || q.fetcher == nil {
		return nil, queryDependencyError("query: record fetcher is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.fetcher.FetchByTableAndID(ctx, strings.TrimSpace(msg.Table), strings.TrimSpace(msg.ID))
}

type GetDeliveryQuery struct {
	reader core.DeliveryReader
}

func NewGetDeliveryQuery(reader core.DeliveryReader) *GetDeliveryQuery {
	return &GetDeliveryQuery{reader: reader}
}

func (q *GetDeliveryQuery) Query(ctx context.Context, msg GetDeliveryMessage) (core.DeliveryRecord, error) {
	if q == nil || q.reader == nil {
		return core.DeliveryRecord{}, queryDependencyError("query: delivery reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.DeliveryRecord{}, err
	}
	return q.reader.Get(ctx, strings.TrimSpace(msg.DeliveryID))
}

type ListDeliveriesQuery struct {
	reader core.DeliveryReader
}

func NewListDeliveriesQuery(reader core.DeliveryReader) *ListDeliveriesQuery {
	return &ListDeliveriesQuery{reader: reader}
}

func (q *ListDeliveriesQuery) Query(ctx context.Context, msg ListDeliveriesMessage) (core.DeliveryPage, error) {
	if q == nil || q.reader == nil {
		return core.DeliveryPage{}, queryDependencyError("query: delivery reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.DeliveryPage{}, err
	}
	return q.reader.List(ctx, msg.Filter)
}
