package command

import (
	"strings"

	"github.com/goliatone/go-webhook-dispatch/core"
)

const (
	TypeDeliver       = "webhooks.command.deliver"
	TypeDispatchEvent = "webhooks.command.dispatch_event"
)

// DeliverMessage delivers one event to one endpoint.
type DeliverMessage struct {
	Request core.DeliveryRequest
}

func (DeliverMessage) Type() string { return TypeDeliver }

func (m DeliverMessage) Validate() error {
	if strings.TrimSpace(m.Request.SiteID) == "" {
		return commandValidationError("site_id", "site id is required")
	}
	if strings.TrimSpace(m.Request.Endpoint.ID) == "" {
		return commandValidationError("endpoint.id", "endpoint id is required")
	}
	if strings.TrimSpace(m.Request.Endpoint.TargetURL) == "" {
		return commandValidationError("endpoint.target_url", "endpoint target url is required")
	}
	return validateEvent(m.Request)
}

// DispatchEventMessage fans a record event out to every active subscriber of
// the site. The record is loaded by table and object id when Request.Record
// is nil.
type DispatchEventMessage struct {
	Request         core.DeliveryRequest
	SubscriptionIDs []string
}

func (DispatchEventMessage) Type() string { return TypeDispatchEvent }

func (m DispatchEventMessage) Validate() error {
	if strings.TrimSpace(m.Request.SiteID) == "" {
		return commandValidationError("site_id", "site id is required")
	}
	if strings.TrimSpace(m.Request.Table) == "" {
		return commandValidationError("table", "table is required")
	}
	if strings.TrimSpace(m.Request.ObjectID) == "" {
		return commandValidationError("object_id", "object id is required")
	}
	return validateEvent(m.Request)
}

func validateEvent(req core.DeliveryRequest) error {
	if strings.TrimSpace(req.Event) != "" {
		return nil
	}
	if strings.TrimSpace(req.EventType) == "" {
		return commandValidationError("event_type", "event type or event name is required")
	}
	return nil
}
