package webhooks

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-webhook-dispatch/core"
)

// Resolver answers which endpoints should receive an event. Registry failures
// are returned as errors and are never collapsed into an empty result.
type Resolver struct {
	Endpoints     core.EndpointRegistry
	Subscriptions core.SubscriptionRegistry
	Observer      core.Observer
}

func NewResolver(endpoints core.EndpointRegistry, subscriptions core.SubscriptionRegistry) *Resolver {
	return &Resolver{Endpoints: endpoints, Subscriptions: subscriptions}
}

func NewResolverFromService(svc *core.Service) (*Resolver, error) {
	if svc == nil {
		return nil, core.BadInputError("webhooks: service is required")
	}
	deps := svc.Dependencies()
	resolver := NewResolver(deps.EndpointRegistry, deps.SubscriptionRegistry)
	resolver.Observer = svc.Observer()
	return resolver, nil
}

func (r *Resolver) ListActiveEndpoints(ctx context.Context, siteID string) (endpoints []core.Endpoint, err error) {
	startedAt := time.Now()
	siteID = strings.TrimSpace(siteID)
	defer func() {
		r.observe(ctx, startedAt, "resolve_endpoints", err, map[string]any{
			"site_id": siteID,
			"count":   len(endpoints),
		})
	}()

	if r == nil || r.Endpoints == nil {
		return nil, core.BadInputError("webhooks: endpoint registry is required")
	}
	if siteID == "" {
		return nil, core.BadInputError(core.ErrSiteIDRequired.Error())
	}
	found, err := r.Endpoints.ListActiveEndpoints(ctx, siteID)
	if err != nil {
		return nil, core.RegistryError(err, "webhooks: list active endpoints")
	}
	endpoints = make([]core.Endpoint, 0, len(found))
	for _, endpoint := range found {
		if endpoint.Eligible() && endpoint.SiteID == siteID {
			endpoints = append(endpoints, endpoint)
		}
	}
	return endpoints, nil
}

func (r *Resolver) ListActiveSubscriptions(
	ctx context.Context,
	filter core.SubscriptionFilter,
) (subscriptions []core.Subscription, err error) {
	startedAt := time.Now()
	filter.SiteID = strings.TrimSpace(filter.SiteID)
	eventTypes := filter.NormalizedEventTypes()
	defer func() {
		r.observe(ctx, startedAt, "resolve_subscriptions", err, map[string]any{
			"site_id":    filter.SiteID,
			"event_type": strings.Join(eventTypes, ","),
			"count":      len(subscriptions),
		})
	}()

	if r == nil || r.Subscriptions == nil {
		return nil, core.BadInputError("webhooks: subscription registry is required")
	}
	if filter.SiteID == "" {
		return nil, core.BadInputError(core.ErrSiteIDRequired.Error())
	}
	if len(eventTypes) == 0 {
		return nil, core.BadInputError(core.ErrEventTypeRequired.Error())
	}
	normalized := core.SubscriptionFilter{
		SiteID:          filter.SiteID,
		EventTypes:      eventTypes,
		SubscriptionIDs: filter.NormalizedSubscriptionIDs(),
	}
	found, err := r.Subscriptions.ListActiveSubscriptions(ctx, normalized)
	if err != nil {
		return nil, core.RegistryError(err, "webhooks: list active subscriptions")
	}

	allowedTypes := toSet(normalized.EventTypes)
	allowedIDs := toSet(normalized.SubscriptionIDs)
	subscriptions = make([]core.Subscription, 0, len(found))
	for _, subscription := range found {
		if !subscription.IsActive || subscription.SiteID != normalized.SiteID {
			continue
		}
		if _, ok := allowedTypes[subscription.EventType]; !ok {
			continue
		}
		if len(allowedIDs) > 0 {
			if _, ok := allowedIDs[subscription.ID]; !ok {
				continue
			}
		}
		subscriptions = append(subscriptions, subscription)
	}
	return subscriptions, nil
}

// ResolveTargets pairs each active subscription with its eligible endpoint.
// Subscriptions pointing at ineligible or unknown endpoints are dropped.
func (r *Resolver) ResolveTargets(ctx context.Context, filter core.SubscriptionFilter) ([]core.DeliveryTarget, error) {
	subscriptions, err := r.ListActiveSubscriptions(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(subscriptions) == 0 {
		return []core.DeliveryTarget{}, nil
	}
	endpoints, err := r.ListActiveEndpoints(ctx, filter.SiteID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]core.Endpoint, len(endpoints))
	for _, endpoint := range endpoints {
		byID[endpoint.ID] = endpoint
	}

	targets := make([]core.DeliveryTarget, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		endpoint, ok := byID[subscription.EndpointID]
		if !ok {
			continue
		}
		targets = append(targets, core.DeliveryTarget{Endpoint: endpoint, Subscription: subscription})
	}
	r.observer().Counter(ctx, core.MetricResolveTotal, int64(len(targets)), map[string]string{
		"site_id": strings.TrimSpace(filter.SiteID),
	})
	return targets, nil
}

func (r *Resolver) observe(ctx context.Context, startedAt time.Time, operation string, err error, fields map[string]any) {
	r.observer().ObserveOperation(ctx, startedAt, operation, err, fields)
}

func (r *Resolver) observer() core.Observer {
	if r == nil {
		return core.Observer{}
	}
	return r.Observer
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}
