package gocommand

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	webhookcommand "github.com/goliatone/go-webhook-dispatch/command"
	"github.com/goliatone/go-webhook-dispatch/core"
	"github.com/goliatone/go-webhook-dispatch/query"
)

type okMessage struct{}

func (okMessage) Type() string { return "webhooks.test.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "webhooks.test.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type queueMessage struct{}

func (queueMessage) Type() string { return "webhooks.test.queue" }

type stubDeliverer struct {
	delivered []core.DeliveryRequest
}

func (s *stubDeliverer) Deliver(_ context.Context, req core.DeliveryRequest) (core.DeliveryResult, error) {
	s.delivered = append(s.delivered, req)
	return core.DeliveryResult{Delivered: true, Attempts: 1, DeliveryID: "del-1"}, nil
}

func (s *stubDeliverer) DeliverTargets(
	context.Context,
	core.DeliveryRequest,
	[]core.DeliveryTarget,
) ([]core.DeliveryResult, error) {
	return nil, nil
}

type stubDeliveryReader struct{}

func (stubDeliveryReader) Get(_ context.Context, id string) (core.DeliveryRecord, error) {
	return core.DeliveryRecord{ID: id, Status: core.DeliveryStatusFailed, AttemptCount: 5}, nil
}

func (stubDeliveryReader) List(context.Context, core.DeliveryFilter) (core.DeliveryPage, error) {
	return core.DeliveryPage{}, nil
}

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
	if err := ValidateMessageContract(webhookcommand.DeliverMessage{}); err == nil {
		t.Fatalf("expected empty deliver message to fail validation")
	}
}

func TestRegisterHandlers_DispatchAndQuery(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	deliverer := &stubDeliverer{}

	subs, err := RegisterHandlers(adapter, Handlers{
		Deliver:     webhookcommand.NewDeliverCommand(deliverer),
		GetDelivery: query.NewGetDeliveryQuery(stubDeliveryReader{}),
	})
	if err != nil {
		t.Fatalf("register handlers: %v", err)
	}
	defer subs.Unsubscribe()
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subs))
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	err = Dispatch(context.Background(), webhookcommand.DeliverMessage{Request: core.DeliveryRequest{
		SiteID:    "site-1",
		Endpoint:  core.Endpoint{ID: "ep-1", TargetURL: "https://example.com/hook"},
		EventType: "created",
		Table:     "leads",
	}})
	if err != nil {
		t.Fatalf("dispatch deliver: %v", err)
	}
	if len(deliverer.delivered) != 1 || deliverer.delivered[0].Endpoint.ID != "ep-1" {
		t.Fatalf("expected one delivery through the dispatcher, got %#v", deliverer.delivered)
	}

	record, err := Query[query.GetDeliveryMessage, core.DeliveryRecord](
		context.Background(),
		query.GetDeliveryMessage{DeliveryID: "del-9"},
	)
	if err != nil {
		t.Fatalf("query delivery: %v", err)
	}
	if record.ID != "del-9" || record.Status != core.DeliveryStatusFailed {
		t.Fatalf("unexpected delivery record: %#v", record)
	}
}

func TestRegisterHandlers_RequiresRegistry(t *testing.T) {
	var adapter *RegistryAdapter
	_, err := RegisterHandlers(adapter, Handlers{Deliver: webhookcommand.NewDeliverCommand(&stubDeliverer{})})
	if err == nil {
		t.Fatalf("expected missing registry error")
	}
}

func TestQueueResolverHookWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	queueRegistry := jobqueuecommand.NewRegistry()

	cmd := command.CommandFunc[queueMessage](func(context.Context, queueMessage) error { return nil })

	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if !adapter.HasResolver("queue") {
		t.Fatalf("expected queue resolver to be registered")
	}
	if err := adapter.RegisterCommand(cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if _, ok := queueRegistry.Get("webhooks.test.queue"); !ok {
		t.Fatalf("expected command to be mirrored into queue registry")
	}
}
