package webhooks

import (
	"context"
	"sync"

	"github.com/goliatone/go-webhook-dispatch/core"
)

type ledgerStub struct {
	mu        sync.Mutex
	created   []core.CreateDeliveryInput
	updates   []core.UpdateDeliveryInput
	createErr error
	updateErr error
}

func (s *ledgerStub) Create(_ context.Context, in core.CreateDeliveryInput) (core.DeliveryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return core.DeliveryRecord{}, s.createErr
	}
	s.created = append(s.created, in)
	return core.DeliveryRecord{
		ID:         in.ID,
		SiteID:     in.SiteID,
		EndpointID: in.EndpointID,
		EventType:  in.EventType,
		Payload:    in.Payload,
		Status:     core.DeliveryStatusPending,
	}, nil
}

func (s *ledgerStub) Update(_ context.Context, _ string, in core.UpdateDeliveryInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, in)
	return s.updateErr
}

func (s *ledgerStub) statuses() []core.DeliveryStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.DeliveryStatus, 0, len(s.updates))
	for _, update := range s.updates {
		out = append(out, update.Status)
	}
	return out
}

type transportStub struct {
	mu       sync.Mutex
	requests []core.TransportRequest
	do       func(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error)
}

func (*transportStub) Kind() string { return "stub" }

func (s *transportStub) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.do == nil {
		return core.TransportResponse{StatusCode: 200}, nil
	}
	return s.do(ctx, req)
}

func (s *transportStub) methods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.requests))
	for _, req := range s.requests {
		out = append(out, req.Method)
	}
	return out
}

type metricsStub struct {
	mu       sync.Mutex
	counters map[string]int64
}

func (m *metricsStub) IncCounter(_ context.Context, name string, value int64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = map[string]int64{}
	}
	m.counters[name] += value
}

func (*metricsStub) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func (m *metricsStub) count(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

type endpointRegistryStub struct {
	endpoints []core.Endpoint
	err       error
	calls     int
}

func (s *endpointRegistryStub) ListActiveEndpoints(context.Context, string) ([]core.Endpoint, error) {
	s.calls++
	return s.endpoints, s.err
}

type subscriptionRegistryStub struct {
	subscriptions []core.Subscription
	err           error
	lastFilter    core.SubscriptionFilter
}

func (s *subscriptionRegistryStub) ListActiveSubscriptions(_ context.Context, filter core.SubscriptionFilter) ([]core.Subscription, error) {
	s.lastFilter = filter
	return s.subscriptions, s.err
}
