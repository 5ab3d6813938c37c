package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// EndpointRegistry returns endpoints eligible for delivery. Implementations
// must return an error, never an empty result, when the query fails.
type EndpointRegistry interface {
	ListActiveEndpoints(ctx context.Context, siteID string) ([]Endpoint, error)
}

type SubscriptionRegistry interface {
	ListActiveSubscriptions(ctx context.Context, filter SubscriptionFilter) ([]Subscription, error)
}

// DeliveryLedgerStore persists one row per delivery. Inserts and updates are
// keyed by the delivery id and must be atomic.
type DeliveryLedgerStore interface {
	Create(ctx context.Context, in CreateDeliveryInput) (DeliveryRecord, error)
	Update(ctx context.Context, id string, in UpdateDeliveryInput) error
}

type DeliveryReader interface {
	Get(ctx context.Context, id string) (DeliveryRecord, error)
	List(ctx context.Context, filter DeliveryFilter) (DeliveryPage, error)
}

type RecordFetcher interface {
	FetchByTableAndID(ctx context.Context, table string, id string) (map[string]any, error)
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}
