package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-webhook-dispatch/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SubscriptionStore struct {
	db   *bun.DB
	repo repository.Repository[*subscriptionRecord]
}

func NewSubscriptionStore(db *bun.DB) (*SubscriptionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*subscriptionRecord](db, subscriptionHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid subscription repository wiring: %w", err)
		}
	}
	return &SubscriptionStore{db: db, repo: repo}, nil
}

func (s *SubscriptionStore) Create(ctx context.Context, subscription core.Subscription) (core.Subscription, error) {
	if s == nil || s.db == nil {
		return core.Subscription{}, fmt.Errorf("sqlstore: subscription store is not configured")
	}
	subscription.SiteID = strings.TrimSpace(subscription.SiteID)
	subscription.EndpointID = strings.TrimSpace(subscription.EndpointID)
	subscription.EventType = strings.TrimSpace(subscription.EventType)
	if subscription.SiteID == "" || subscription.EndpointID == "" {
		return core.Subscription{}, fmt.Errorf("sqlstore: site id and endpoint id are required")
	}
	if subscription.EventType == "" {
		return core.Subscription{}, fmt.Errorf("sqlstore: event type is required")
	}
	if strings.TrimSpace(subscription.ID) == "" {
		subscription.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record := &subscriptionRecord{
		ID:         strings.TrimSpace(subscription.ID),
		SiteID:     subscription.SiteID,
		EndpointID: subscription.EndpointID,
		EventType:  subscription.EventType,
		IsActive:   subscription.IsActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.Subscription{}, err
	}
	return record.toDomain(), nil
}

// ListActiveSubscriptions matches active subscriptions on site and any of the
// filter event types, optionally narrowed to explicit subscription ids.
func (s *SubscriptionStore) ListActiveSubscriptions(
	ctx context.Context,
	filter core.SubscriptionFilter,
) ([]core.Subscription, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: subscription store is not configured")
	}
	siteID := strings.TrimSpace(filter.SiteID)
	eventTypes := filter.NormalizedEventTypes()
	if siteID == "" {
		return nil, fmt.Errorf("sqlstore: site id is required")
	}
	if len(eventTypes) == 0 {
		return nil, fmt.Errorf("sqlstore: at least one event type is required")
	}
	ids := filter.NormalizedSubscriptionIDs()

	records, _, err := s.repo.List(ctx,
		repository.SelectBy("site_id", "=", siteID),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.
				Where("?TableAlias.is_active = ?", true).
				Where("?TableAlias.event_type IN (?)", bun.In(eventTypes))
			if len(ids) > 0 {
				q = q.Where("?TableAlias.id IN (?)", bun.In(ids))
			}
			return q
		}),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Subscription, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}
