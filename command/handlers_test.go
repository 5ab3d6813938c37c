package command

import (
	"context"
	"errors"
	"testing"

	gocmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-webhook-dispatch/core"
)

type stubDeliverer struct {
	deliverFn        func(ctx context.Context, req core.DeliveryRequest) (core.DeliveryResult, error)
	deliverTargetsFn func(ctx context.Context, base core.DeliveryRequest, targets []core.DeliveryTarget) ([]core.DeliveryResult, error)
}

func (s stubDeliverer) Deliver(ctx context.Context, req core.DeliveryRequest) (core.DeliveryResult, error) {
	if s.deliverFn == nil {
		return core.DeliveryResult{}, nil
	}
	return s.deliverFn(ctx, req)
}

func (s stubDeliverer) DeliverTargets(
	ctx context.Context,
	base core.DeliveryRequest,
	targets []core.DeliveryTarget,
) ([]core.DeliveryResult, error) {
	if s.deliverTargetsFn == nil {
		return nil, nil
	}
	return s.deliverTargetsFn(ctx, base, targets)
}

type stubResolver struct {
	resolveFn func(ctx context.Context, filter core.SubscriptionFilter) ([]core.DeliveryTarget, error)
}

func (s stubResolver) ResolveTargets(ctx context.Context, filter core.SubscriptionFilter) ([]core.DeliveryTarget, error) {
	return s.resolveFn(ctx, filter)
}

type stubRecordFetcher struct {
	calls int
	row   map[string]any
	err   error
}

func (s *stubRecordFetcher) FetchByTableAndID(context.Context, string, string) (map[string]any, error) {
	s.calls++
	return s.row, s.err
}

func TestDeliverCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	expected := core.DeliveryResult{Delivered: true, Attempts: 1, DeliveryID: "del-1"}
	called := false
	cmd := NewDeliverCommand(stubDeliverer{
		deliverFn: func(_ context.Context, req core.DeliveryRequest) (core.DeliveryResult, error) {
			called = true
			if req.Endpoint.ID != "ep-1" || req.EventType != "update" {
				t.Fatalf("unexpected delivery request: %#v", req)
			}
			return expected, nil
		},
	})
	collector := gocmd.NewResult[core.DeliveryResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, DeliverMessage{Request: core.DeliveryRequest{
		SiteID:    "site-1",
		Endpoint:  core.Endpoint{ID: "ep-1", TargetURL: "https://example.com/hook"},
		EventType: "update",
		Table:     "leads",
	}})
	if err != nil {
		t.Fatalf("execute deliver: %v", err)
	}
	if !called {
		t.Fatalf("expected deliverer invocation")
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.DeliveryID != "del-1" || !result.Delivered {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestDeliverMessage_ValidateReturnsRichError(t *testing.T) {
	err := (DeliverMessage{}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.ErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.ErrorBadInput, rich.TextCode)
	}
}

func TestDeliverCommand_NilDelivererReturnsRichError(t *testing.T) {
	var cmd *DeliverCommand
	err := cmd.Execute(context.Background(), DeliverMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal || rich.TextCode != core.ErrorInternal {
		t.Fatalf("expected internal dependency error, got %q %q", rich.Category, rich.TextCode)
	}
}

func TestDispatchEventCommand_ResolvesHydratesAndDelivers(t *testing.T) {
	records := &stubRecordFetcher{row: map[string]any{"id": "L1", "name": "Ada"}}
	var resolvedFilter core.SubscriptionFilter
	targets := []core.DeliveryTarget{
		{Endpoint: core.Endpoint{ID: "ep-1"}, Subscription: core.Subscription{ID: "sub-1"}},
		{Endpoint: core.Endpoint{ID: "ep-2"}, Subscription: core.Subscription{ID: "sub-2"}},
	}
	cmd := NewDispatchEventCommand(
		stubResolver{resolveFn: func(_ context.Context, filter core.SubscriptionFilter) ([]core.DeliveryTarget, error) {
			resolvedFilter = filter
			return targets, nil
		}},
		stubDeliverer{deliverTargetsFn: func(_ context.Context, base core.DeliveryRequest, got []core.DeliveryTarget) ([]core.DeliveryResult, error) {
			if base.Event != "lead.updated" {
				t.Fatalf("expected resolved event name, got %q", base.Event)
			}
			record, _ := base.Record.(map[string]any)
			if record["name"] != "Ada" {
				t.Fatalf("expected hydrated record, got %#v", base.Record)
			}
			if len(got) != 2 {
				t.Fatalf("expected 2 targets, got %d", len(got))
			}
			return []core.DeliveryResult{{Delivered: true}, {Delivered: false}}, nil
		}},
		records,
	)
	collector := gocmd.NewResult[[]core.DeliveryResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, DispatchEventMessage{
		Request: core.DeliveryRequest{
			SiteID:    "site-1",
			EventType: "UPDATE",
			Table:     "leads",
			ObjectID:  "L1",
		},
		SubscriptionIDs: []string{"sub-1", "sub-2"},
	})
	if err != nil {
		t.Fatalf("execute dispatch event: %v", err)
	}
	if resolvedFilter.SiteID != "site-1" || resolvedFilter.EventType != "lead.updated" || len(resolvedFilter.SubscriptionIDs) != 2 {
		t.Fatalf("unexpected resolver filter: %#v", resolvedFilter)
	}
	if records.calls != 1 {
		t.Fatalf("expected one record fetch, got %d", records.calls)
	}
	results, ok := collector.Load()
	if !ok || len(results) != 2 {
		t.Fatalf("expected 2 stored results, got %#v", results)
	}
}

func TestDispatchEventCommand_NoTargetsSkipsRecordFetch(t *testing.T) {
	records := &stubRecordFetcher{}
	cmd := NewDispatchEventCommand(
		stubResolver{resolveFn: func(context.Context, core.SubscriptionFilter) ([]core.DeliveryTarget, error) {
			return nil, nil
		}},
		stubDeliverer{deliverTargetsFn: func(context.Context, core.DeliveryRequest, []core.DeliveryTarget) ([]core.DeliveryResult, error) {
			t.Fatalf("expected no deliveries without targets")
			return nil, nil
		}},
		records,
	)
	err := cmd.Execute(context.Background(), DispatchEventMessage{Request: core.DeliveryRequest{
		SiteID: "site-1", EventType: "created", Table: "leads", ObjectID: "L1",
	}})
	if err != nil {
		t.Fatalf("execute dispatch event: %v", err)
	}
	if records.calls != 0 {
		t.Fatalf("expected no record fetch, got %d", records.calls)
	}
}

func TestDispatchEventCommand_PropagatesResolverFailure(t *testing.T) {
	registryErr := errors.New("registry down")
	cmd := NewDispatchEventCommand(
		stubResolver{resolveFn: func(context.Context, core.SubscriptionFilter) ([]core.DeliveryTarget, error) {
			return nil, registryErr
		}},
		stubDeliverer{},
		&stubRecordFetcher{},
	)
	err := cmd.Execute(context.Background(), DispatchEventMessage{Request: core.DeliveryRequest{
		SiteID: "site-1", EventType: "created", Table: "leads", ObjectID: "L1",
	}})
	if !errors.Is(err, registryErr) {
		t.Fatalf("expected resolver error, got %v", err)
	}
}

func TestDispatchEventMessage_Validate(t *testing.T) {
	cases := map[string]DispatchEventMessage{
		"site":   {Request: core.DeliveryRequest{Table: "leads", ObjectID: "L1", EventType: "created"}},
		"table":  {Request: core.DeliveryRequest{SiteID: "site-1", ObjectID: "L1", EventType: "created"}},
		"object": {Request: core.DeliveryRequest{SiteID: "site-1", Table: "leads", EventType: "created"}},
		"event":  {Request: core.DeliveryRequest{SiteID: "site-1", Table: "leads", ObjectID: "L1"}},
	}
	for name, msg := range cases {
		if err := msg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	valid := DispatchEventMessage{Request: core.DeliveryRequest{SiteID: "site-1", Table: "leads", ObjectID: "L1", Event: "lead.synced"}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected explicit event to satisfy validation, got %v", err)
	}
}
