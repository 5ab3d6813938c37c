package query

import (
	"strings"

	"github.com/goliatone/go-webhook-dispatch/core"
)

const (
	TypeListActiveEndpoints     = "webhooks.query.endpoints.active"
	TypeListActiveSubscriptions = "webhooks.query.subscriptions.active"
	TypeResolveTargets          = "webhooks.query.targets.resolve"
	TypeFetchRecord             = "webhooks.query.record.fetch"
	TypeGetDelivery             = "webhooks.query.delivery.get"
	TypeListDeliveries          = "webhooks.query.delivery.list"
)

type ListActiveEndpointsMessage struct {
	SiteID string
}

func (ListActiveEndpointsMessage) Type() string { return TypeListActiveEndpoints }

func (m ListActiveEndpointsMessage) Validate() error {
	if strings.TrimSpace(m.SiteID) == "" {
		return queryValidationError("site_id", "site id is required")
	}
	return nil
}

type ListActiveSubscriptionsMessage struct {
	Filter core.SubscriptionFilter
}

func (ListActiveSubscriptionsMessage) Type() string { return TypeListActiveSubscriptions }

func (m ListActiveSubscriptionsMessage) Validate() error {
	return validateSubscriptionFilter(m.Filter)
}

type ResolveTargetsMessage struct {
	Filter core.SubscriptionFilter
}

func (ResolveTargetsMessage) Type() string { return TypeResolveTargets }

func (m ResolveTargetsMessage) Validate() error {
	return validateSubscriptionFilter(m.Filter)
}

type FetchRecordMessage struct {
	Table string
	ID    string
}

func (FetchRecordMessage) Type() string { return TypeFetchRecord }

func (m FetchRecordMessage) Validate() error {
	if strings.TrimSpace(m.Table) == "" {
		return queryValidationError("table", "table is required")
	}
	if strings.TrimSpace(m.ID) == "" {
		return queryValidationError("id", "record id is required")
	}
	return nil
}

type GetDeliveryMessage struct {
	DeliveryID string
}

func (GetDeliveryMessage) Type() string { return TypeGetDelivery }

func (m GetDeliveryMessage) Validate() error {
	if strings.TrimSpace(m.DeliveryID) == "" {
		return queryValidationError("delivery_id", "delivery id is required")
	}
	return nil
}

type ListDeliveriesMessage struct {
	Filter core.DeliveryFilter
}

func (ListDeliveriesMessage) Type() string { return TypeListDeliveries }

func (m ListDeliveriesMessage) Validate() error {
	if strings.TrimSpace(m.Filter.SiteID) == "" {
		return queryValidationError("site_id", "site id is required")
	}
	if m.Filter.Page < 0 {
		return queryValidationError("page", "page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return queryValidationError("per_page", "per_page must be >= 0")
	}
	if m.Filter.From != nil && m.Filter.To != nil && m.Filter.To.Before(*m.Filter.From) {
		return queryValidationError("to", "to must not be before from")
	}
	return nil
}

func validateSubscriptionFilter(filter core.SubscriptionFilter) error {
	if strings.TrimSpace(filter.SiteID) == "" {
		return queryValidationError("site_id", "site id is required")
	}
	if len(filter.NormalizedEventTypes()) == 0 {
		return queryValidationError("event_type", "at least one event type is required")
	}
	return nil
}
