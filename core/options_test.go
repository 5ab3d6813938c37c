package core

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

type fixedConfigProvider struct {
	cfg Config
	err error
}

func (p *fixedConfigProvider) Load(context.Context, Config) (Config, error) {
	return p.cfg, p.err
}

type fixedOptionsResolver struct {
	cfg Config
}

func (r *fixedOptionsResolver) Resolve(Config, Config, Config) (Config, error) {
	return r.cfg, nil
}

func TestNewService_DefaultDependencies(t *testing.T) {
	svc, err := NewService(Config{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	deps := svc.Dependencies()
	if deps.Logger == nil {
		t.Fatalf("expected default logger")
	}
	if deps.LoggerProvider == nil {
		t.Fatalf("expected default logger provider")
	}
	if deps.ErrorFactory == nil {
		t.Fatalf("expected default error factory")
	}
	if deps.ErrorMapper == nil {
		t.Fatalf("expected default error mapper")
	}
	if _, ok := deps.MetricsRecorder.(NopMetricsRecorder); !ok {
		t.Fatalf("expected nop metrics recorder, got %T", deps.MetricsRecorder)
	}
	cfg := svc.Config()
	if cfg.ServiceName != "webhooks" {
		t.Fatalf("expected default service_name=webhooks, got %q", cfg.ServiceName)
	}
	if cfg.Delivery.MaxAttempts != 5 || len(cfg.Delivery.AttemptDelaysMS) != 5 {
		t.Fatalf("expected default delivery schedule, got %#v", cfg.Delivery)
	}
}

func TestNewService_WithXOverrides(t *testing.T) {
	customLogger := newCaptureLogger()
	customProvider := namedProvider{logger: customLogger}
	sentinel := errors.New("sentinel")
	customMapper := func(error) *goerrors.Error {
		return goerrors.Wrap(sentinel, goerrors.CategoryOperation, "mapped")
	}
	metrics := &captureMetricsRecorder{}
	persistenceClient := &struct{ Name string }{Name: "persistence"}

	svc, err := NewService(Config{ServiceName: "runtime"},
		WithLogger(customLogger),
		WithLoggerProvider(customProvider),
		WithErrorMapper(customMapper),
		WithMetricsRecorder(metrics),
		WithPersistenceClient(persistenceClient),
		WithDeliveryLedger(stubLedger{}),
		WithRecordFetcher(stubRecords{}),
		WithOptionsResolver(&fixedOptionsResolver{cfg: func() Config {
			cfg := DefaultConfig()
			cfg.ServiceName = "resolved"
			return cfg
		}()}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	deps := svc.Dependencies()
	if deps.Logger != Logger(customLogger) {
		t.Fatalf("expected custom logger override")
	}
	if deps.MetricsRecorder != MetricsRecorder(metrics) {
		t.Fatalf("expected custom metrics recorder")
	}
	if deps.PersistenceClient != persistenceClient {
		t.Fatalf("expected custom persistence client override")
	}
	if deps.DeliveryLedger == nil || deps.RecordFetcher == nil {
		t.Fatalf("expected ledger and record fetcher overrides")
	}
	if deps.DeliveryReader != nil {
		t.Fatalf("expected no delivery reader for a write-only ledger")
	}
	if got := svc.Config().ServiceName; got != "resolved" {
		t.Fatalf("expected options resolver output config, got %q", got)
	}
	if mapped := svc.MapError(errors.New("boom")); !errors.Is(mapped, sentinel) {
		t.Fatalf("expected custom error mapper, got %v", mapped)
	}
}

func TestNewService_RepositoryFactoryFillsMissingStores(t *testing.T) {
	explicitRecords := &stubRecords{}
	factory := &stubStoreFactory{stores: stubStores{
		ledger:  stubReadableLedger{},
		reader:  stubReadableLedger{},
		records: stubRecords{},
	}}
	client := &struct{}{}

	svc, err := NewService(Config{},
		WithPersistenceClient(client),
		WithRepositoryFactory(factory),
		WithRecordFetcher(explicitRecords),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if factory.client != client {
		t.Fatalf("expected persistence client to reach the store factory")
	}
	deps := svc.Dependencies()
	if deps.DeliveryLedger == nil || deps.DeliveryReader == nil {
		t.Fatalf("expected stores from factory, got %#v", deps)
	}
	if deps.RecordFetcher != RecordFetcher(explicitRecords) {
		t.Fatalf("expected explicit record fetcher to win over factory")
	}
}

func TestNewService_RepositoryFactoryErrorIsMapped(t *testing.T) {
	_, err := NewService(Config{}, WithRepositoryFactory(&stubStoreFactory{err: errors.New("sqlstore: bun db is required")}))
	if err == nil {
		t.Fatalf("expected factory error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != ErrorBadInput {
		t.Fatalf("expected mapped bad input error, got %v", err)
	}
}

func TestNewService_ReaderDerivedFromLedger(t *testing.T) {
	svc, err := NewService(Config{}, WithDeliveryLedger(stubReadableLedger{}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if svc.Dependencies().DeliveryReader == nil {
		t.Fatalf("expected ledger to double as delivery reader")
	}
}

func TestNewService_ConfigLayeringPrecedence(t *testing.T) {
	provider := NewCfgxConfigProvider(StaticConfigLoader{Values: map[string]any{
		"service_name": "from-config",
		"delivery": map[string]any{
			"max_attempts":      3,
			"attempt_delays_ms": []int{10, 20},
		},
	}})

	svc, err := NewService(Config{ServiceName: "from-runtime"}, WithConfigProvider(provider))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cfg := svc.Config()
	if cfg.ServiceName != "from-runtime" {
		t.Fatalf("expected runtime value to override config/default, got %q", cfg.ServiceName)
	}
	if cfg.Delivery.MaxAttempts != 3 {
		t.Fatalf("expected config layer max_attempts, got %d", cfg.Delivery.MaxAttempts)
	}
	if len(cfg.Delivery.AttemptDelaysMS) != 2 || cfg.Delivery.AttemptDelaysMS[1] != 20 {
		t.Fatalf("expected config layer delays, got %#v", cfg.Delivery.AttemptDelaysMS)
	}
}

func TestNewService_ConfigProviderErrorIsReturned(t *testing.T) {
	_, err := NewService(Config{}, WithConfigProvider(&fixedConfigProvider{err: errors.New("config source unavailable")}))
	if err == nil {
		t.Fatalf("expected config provider error")
	}
}

func TestNewService_LoggerProviderTakesPrecedence(t *testing.T) {
	direct := newCaptureLogger()
	named := newCaptureLogger()

	svc, err := NewService(Config{},
		WithLogger(direct),
		WithLoggerProvider(namedProvider{logger: named}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.Observer().Info(context.Background(), "hello", nil)
	if len(named.snapshot()) != 1 {
		t.Fatalf("expected provider logger to receive the entry")
	}
	if len(direct.snapshot()) != 0 {
		t.Fatalf("expected direct logger to be bypassed")
	}
}
