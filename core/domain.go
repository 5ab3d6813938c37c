package core

import (
	"errors"
	"slices"
	"strings"
	"time"
)

var (
	ErrEndpointRequired  = errors.New("core: endpoint is required")
	ErrEventTypeRequired = errors.New("core: event type is required")
	ErrSiteIDRequired    = errors.New("core: site id is required")
	ErrDeliveryNotFound  = errors.New("core: delivery not found")
	ErrRecordNotFound    = errors.New("core: record not found")
)

type HandshakeStatus string

const (
	HandshakeStatusVerified HandshakeStatus = "verified"
	HandshakeStatusNone     HandshakeStatus = "none"
	HandshakeStatusPending  HandshakeStatus = "pending"
	HandshakeStatusRejected HandshakeStatus = "rejected"
)

// EligibleHandshakeStatuses lists the handshake states that still receive
// traffic. Unverified endpoints are included so setup and testing flows work
// before a handshake completes.
func EligibleHandshakeStatuses() []HandshakeStatus {
	return []HandshakeStatus{
		HandshakeStatusVerified,
		HandshakeStatusNone,
		HandshakeStatusPending,
	}
}

func (s HandshakeStatus) Eligible() bool {
	return slices.Contains(EligibleHandshakeStatuses(), HandshakeStatus(strings.TrimSpace(strings.ToLower(string(s)))))
}

type Endpoint struct {
	ID              string
	SiteID          string
	Name            string
	Description     string
	TargetURL       string
	Secret          *string
	IsActive        bool
	HandshakeStatus HandshakeStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (e Endpoint) Eligible() bool {
	return e.IsActive && e.HandshakeStatus.Eligible()
}

type Subscription struct {
	ID         string
	SiteID     string
	EndpointID string
	EventType  string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type SubscriptionFilter struct {
	SiteID          string
	EventType       string
	EventTypes      []string
	SubscriptionIDs []string
}

// NormalizedEventTypes merges EventType and EventTypes, trimming blanks and duplicates.
func (f SubscriptionFilter) NormalizedEventTypes() []string {
	candidates := make([]string, 0, len(f.EventTypes)+1)
	candidates = append(candidates, f.EventType)
	candidates = append(candidates, f.EventTypes...)
	return compactStrings(candidates)
}

func (f SubscriptionFilter) NormalizedSubscriptionIDs() []string {
	return compactStrings(f.SubscriptionIDs)
}

// DeliveryTarget pairs an eligible endpoint with the subscription that matched it.
type DeliveryTarget struct {
	Endpoint     Endpoint
	Subscription Subscription
}

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusRetrying  DeliveryStatus = "retrying"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryStatusDelivered || s == DeliveryStatusFailed
}

type DeliveryRecord struct {
	ID             string
	SiteID         string
	EndpointID     string
	SubscriptionID *string
	EventType      string
	Payload        map[string]any
	Status         DeliveryStatus
	AttemptCount   int
	LastAttemptAt  *time.Time
	ResponseStatus *int
	ResponseBody   *string
	DeliveredAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type CreateDeliveryInput struct {
	ID             string
	SiteID         string
	EndpointID     string
	SubscriptionID *string
	EventType      string
	Payload        map[string]any
}

// UpdateDeliveryInput is the post-attempt mutation of a ledger row.
type UpdateDeliveryInput struct {
	Status         DeliveryStatus
	AttemptCount   int
	LastAttemptAt  time.Time
	ResponseStatus *int
	ResponseBody   *string
	DeliveredAt    *time.Time
}

type DeliveryFilter struct {
	SiteID     string
	EndpointID string
	Status     DeliveryStatus
	From       *time.Time
	To         *time.Time
	Page       int
	PerPage    int
}

type DeliveryPage struct {
	Items   []DeliveryRecord
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

// Envelope is the JSON document sent to receivers. Field order is the wire order.
type Envelope struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	SiteID    string `json:"site_id"`
	Table     string `json:"table"`
	ObjectID  string `json:"object_id"`
	Data      any    `json:"data"`
	Attempt   int    `json:"attempt"`
	Timestamp string `json:"timestamp"`
}

// EnvelopeTimestampLayout is ISO-8601 UTC with millisecond precision.
const EnvelopeTimestampLayout = "2006-01-02T15:04:05.000Z"

type DeliveryRequest struct {
	SiteID        string
	Endpoint      Endpoint
	Subscription  *Subscription
	EventType     string
	Table         string
	ObjectID      string
	Record        any
	MaxAttempts   int
	AttemptDelays []time.Duration
	// Event overrides the derived event name when set.
	Event string
}

type DeliveryResult struct {
	Delivered      bool
	Attempts       int
	ResponseStatus *int
	ResponseBody   string
	DeliveryID     string
}

func compactStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
