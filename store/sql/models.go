package sqlstore

import (
	"time"

	"github.com/goliatone/go-webhook-dispatch/core"
	"github.com/uptrace/bun"
)

type endpointRecord struct {
	bun.BaseModel `bun:"table:webhook_endpoints,alias:we"`

	ID              string    `bun:"id,pk"`
	SiteID          string    `bun:"site_id,notnull"`
	Name            string    `bun:"name,notnull"`
	Description     string    `bun:"description,notnull"`
	TargetURL       string    `bun:"target_url,notnull"`
	Secret          *string   `bun:"secret"`
	IsActive        bool      `bun:"is_active,notnull"`
	HandshakeStatus string    `bun:"handshake_status,notnull"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type subscriptionRecord struct {
	bun.BaseModel `bun:"table:webhook_subscriptions,alias:ws"`

	ID         string    `bun:"id,pk"`
	SiteID     string    `bun:"site_id,notnull"`
	EndpointID string    `bun:"endpoint_id,notnull"`
	EventType  string    `bun:"event_type,notnull"`
	IsActive   bool      `bun:"is_active,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type deliveryRecord struct {
	bun.BaseModel `bun:"table:webhook_deliveries,alias:wd"`

	ID             string         `bun:"id,pk"`
	SiteID         string         `bun:"site_id,notnull"`
	EndpointID     string         `bun:"endpoint_id,notnull"`
	SubscriptionID *string        `bun:"subscription_id"`
	EventType      string         `bun:"event_type,notnull"`
	Payload        map[string]any `bun:"payload,type:jsonb,notnull"`
	Status         string         `bun:"status,notnull"`
	AttemptCount   int            `bun:"attempt_count,notnull"`
	LastAttemptAt  *time.Time     `bun:"last_attempt_at,nullzero"`
	ResponseStatus *int           `bun:"response_status"`
	ResponseBody   *string        `bun:"response_body"`
	DeliveredAt    *time.Time     `bun:"delivered_at,nullzero"`
	CreatedAt      time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *endpointRecord) toDomain() core.Endpoint {
	if r == nil {
		return core.Endpoint{}
	}
	return core.Endpoint{
		ID:              r.ID,
		SiteID:          r.SiteID,
		Name:            r.Name,
		Description:     r.Description,
		TargetURL:       r.TargetURL,
		Secret:          cloneString(r.Secret),
		IsActive:        r.IsActive,
		HandshakeStatus: core.HandshakeStatus(r.HandshakeStatus),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (r *subscriptionRecord) toDomain() core.Subscription {
	if r == nil {
		return core.Subscription{}
	}
	return core.Subscription{
		ID:         r.ID,
		SiteID:     r.SiteID,
		EndpointID: r.EndpointID,
		EventType:  r.EventType,
		IsActive:   r.IsActive,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (r *deliveryRecord) toDomain() core.DeliveryRecord {
	if r == nil {
		return core.DeliveryRecord{}
	}
	out := core.DeliveryRecord{
		ID:             r.ID,
		SiteID:         r.SiteID,
		EndpointID:     r.EndpointID,
		SubscriptionID: cloneString(r.SubscriptionID),
		EventType:      r.EventType,
		Payload:        copyAnyMap(r.Payload),
		Status:         core.DeliveryStatus(r.Status),
		AttemptCount:   r.AttemptCount,
		LastAttemptAt:  cloneTime(r.LastAttemptAt),
		ResponseBody:   cloneString(r.ResponseBody),
		DeliveredAt:    cloneTime(r.DeliveredAt),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.ResponseStatus != nil {
		status := *r.ResponseStatus
		out.ResponseStatus = &status
	}
	return out
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := value.UTC()
	return &copied
}
