package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-webhook-dispatch/webhooks"
)

var (
	_ gocmd.Commander[DeliverMessage]       = (*DeliverCommand)(nil)
	_ gocmd.Commander[DispatchEventMessage] = (*DispatchEventCommand)(nil)

	_ Deliverer      = (*webhooks.Dispatcher)(nil)
	_ TargetResolver = (*webhooks.Resolver)(nil)
)
