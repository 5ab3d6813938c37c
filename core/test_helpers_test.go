package core

import (
	"context"
	"sync"
)

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type capturedHistogram struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedCounter
	histograms []capturedHistogram
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: CloneTags(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedHistogram{name: name, value: value, tags: CloneTags(tags)})
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFields(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFields(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFields(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]capturedLog, len(*l.records))
	copy(out, *l.records)
	return out
}

// plainLogger lacks WithFields so fields travel as key/value args.
type plainLogger struct {
	inner *captureLogger
}

func (l plainLogger) Trace(msg string, args ...any)      { l.inner.Trace(msg, args...) }
func (l plainLogger) Debug(msg string, args ...any)      { l.inner.Debug(msg, args...) }
func (l plainLogger) Info(msg string, args ...any)       { l.inner.Info(msg, args...) }
func (l plainLogger) Warn(msg string, args ...any)       { l.inner.Warn(msg, args...) }
func (l plainLogger) Error(msg string, args ...any)      { l.inner.Error(msg, args...) }
func (l plainLogger) Fatal(msg string, args ...any)      { l.inner.Fatal(msg, args...) }
func (l plainLogger) WithContext(context.Context) Logger { return l }

type namedProvider struct {
	logger Logger
}

func (p namedProvider) GetLogger(string) Logger {
	return p.logger
}

type stubStores struct {
	endpoints     EndpointRegistry
	subscriptions SubscriptionRegistry
	ledger        DeliveryLedgerStore
	reader        DeliveryReader
	records       RecordFetcher
}

func (s stubStores) EndpointRegistry() EndpointRegistry         { return s.endpoints }
func (s stubStores) SubscriptionRegistry() SubscriptionRegistry { return s.subscriptions }
func (s stubStores) DeliveryLedger() DeliveryLedgerStore        { return s.ledger }
func (s stubStores) DeliveryReader() DeliveryReader             { return s.reader }
func (s stubStores) RecordFetcher() RecordFetcher               { return s.records }

type stubStoreFactory struct {
	stores StoreProvider
	err    error
	client any
}

func (f *stubStoreFactory) BuildStores(client any) (StoreProvider, error) {
	f.client = client
	return f.stores, f.err
}

type stubLedger struct{}

func (stubLedger) Create(_ context.Context, in CreateDeliveryInput) (DeliveryRecord, error) {
	return DeliveryRecord{ID: in.ID, Status: DeliveryStatusPending}, nil
}

func (stubLedger) Update(context.Context, string, UpdateDeliveryInput) error { return nil }

type stubReadableLedger struct {
	stubLedger
}

func (stubReadableLedger) Get(_ context.Context, id string) (DeliveryRecord, error) {
	return DeliveryRecord{ID: id}, nil
}

func (stubReadableLedger) List(context.Context, DeliveryFilter) (DeliveryPage, error) {
	return DeliveryPage{}, nil
}

type stubRecords struct{}

func (stubRecords) FetchByTableAndID(context.Context, string, string) (map[string]any, error) {
	return map[string]any{}, nil
}
