package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-webhook-dispatch/core"
	"github.com/goliatone/go-webhook-dispatch/webhooks"
)

var (
	_ gocmd.Querier[ListActiveEndpointsMessage, []core.Endpoint]         = (*ListActiveEndpointsQuery)(nil)
	_ gocmd.Querier[ListActiveSubscriptionsMessage, []core.Subscription] = (*ListActiveSubscriptionsQuery)(nil)
	_ gocmd.Querier[ResolveTargetsMessage, []core.DeliveryTarget]        = (*ResolveTargetsQuery)(nil)
	_ gocmd.Querier[FetchRecordMessage, map[string]any]                  = (*FetchRecordQuery)(nil)
	_ gocmd.Querier[GetDeliveryMessage, core.DeliveryRecord]             = (*GetDeliveryQuery)(nil)
	_ gocmd.Querier[ListDeliveriesMessage, core.DeliveryPage]            = (*ListDeliveriesQuery)(nil)
	_ Resolver                                                           = (*webhooks.Resolver)(nil)
)
