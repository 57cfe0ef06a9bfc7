package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bumpbot/config"
	domainerrors "bumpbot/domain/errors"
	"bumpbot/events"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const meterName = "bumpbot"

// MetricsProvider manages OpenTelemetry metrics for the bot
type MetricsProvider struct {
	config        config.MetricsConfig
	environment   string
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	// Metric instruments
	bumpsDetectedCounter     metric.Int64Counter
	bumpsUnattributedCounter metric.Int64Counter
	registrationsCounter     metric.Int64Counter
	rewardsCounter           metric.Int64Counter
	consoleCommandsCounter   metric.Int64Counter
	offersResolvedCounter    metric.Int64Counter
	offerOpenDurationHist    metric.Float64Histogram
	storeCallsCounter        metric.Int64Counter
	storeCallDurationHist    metric.Float64Histogram
	natsPublishedCounter     metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg config.MetricsConfig, environment string) *MetricsProvider {
	return &MetricsProvider{
		config:      cfg,
		environment: environment,
	}
}

// Initialize sets up the exporter selected by the configuration
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.Enabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	var exporter sdkmetric.Exporter
	var err error
	switch mp.config.ExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(dialCtx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.ExporterType)
	}

	interval := mp.config.ExportInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return mp.initializeWithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
}

// initializeWithReader builds the meter provider around reader. Callers hold mp.mu.
func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.ServiceName),
			attribute.String("environment", mp.environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter(meterName)

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.bumpsDetectedCounter, BumpsDetectedTotal, "Bumps attributed to a member"},
		{&mp.bumpsUnattributedCounter, BumpsUnattributedTotal, "Bump confirmations with no invoker in the history window"},
		{&mp.registrationsCounter, RegistrationsTotal, "Game username registrations and updates"},
		{&mp.rewardsCounter, RewardsDispatchedTotal, "Reward dispatches"},
		{&mp.consoleCommandsCounter, ConsoleCommandsTotal, "Console reward commands sent"},
		{&mp.offersResolvedCounter, RoleOffersResolvedTotal, "Role offers reaching a terminal state"},
		{&mp.storeCallsCounter, StoreCallsTotal, "Identity store calls"},
		{&mp.natsPublishedCounter, NATSMessagesPublishedTotal, "Domain events published to NATS"},
	}
	for _, c := range counters {
		*c.target, err = mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit("1"),
		)
		if err != nil {
			return fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
	}

	mp.offerOpenDurationHist, err = mp.meter.Float64Histogram(
		RoleOfferOpenDuration,
		metric.WithDescription("Time a role offer stayed open in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 15, 30, 60, 90, 120, 180),
	)
	if err != nil {
		return fmt.Errorf("failed to create offer duration histogram: %w", err)
	}

	mp.storeCallDurationHist, err = mp.meter.Float64Histogram(
		StoreCallDuration,
		metric.WithDescription("Duration of identity store calls in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create store duration histogram: %w", err)
	}

	return nil
}

// ObservePendingOffers reports the live role offer count through pending on
// every collection
func (mp *MetricsProvider) ObservePendingOffers(pending func() int) error {
	if !mp.isEnabled() {
		return nil
	}

	gauge, err := mp.meter.Int64ObservableGauge(
		RoleOffersPending,
		metric.WithDescription("Role offers awaiting a decision"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create pending offers gauge: %w", err)
	}

	_, err = mp.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(gauge, int64(pending()))
		return nil
	}, gauge)
	if err != nil {
		return fmt.Errorf("failed to register pending offers callback: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the exporter
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// HandleEvent records the metrics for a domain event
func (mp *MetricsProvider) HandleEvent(ctx context.Context, event events.Event) {
	if !mp.isEnabled() {
		return
	}

	switch e := event.(type) {
	case events.BumpDetectedEvent:
		mp.bumpsDetectedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(LabelSource, string(e.Source)),
		))
	case events.BumpUnattributedEvent:
		mp.bumpsUnattributedCounter.Add(ctx, 1)
	case events.MemberRegisteredEvent:
		mp.registrationsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool(LabelUpdated, e.Updated),
		))
	case events.RewardDispatchedEvent:
		mp.rewardsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(LabelReason, e.Reason),
			attribute.Bool(LabelAnnounced, e.Announced),
		))
		mp.consoleCommandsCounter.Add(ctx, int64(e.CommandsSent))
	case events.RoleOfferResolvedEvent:
		attrs := metric.WithAttributes(attribute.String(LabelOutcome, e.Outcome))
		mp.offersResolvedCounter.Add(ctx, 1, attrs)
		mp.offerOpenDurationHist.Record(ctx, e.OpenFor.Seconds(), attrs)
	}
}

// RecordStoreCall records an identity store call with its duration
func (mp *MetricsProvider) RecordStoreCall(ctx context.Context, operation string, duration time.Duration, err error) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelOperation, operation),
		attribute.String(LabelErrorType, classifyStoreError(err)),
	)
	mp.storeCallsCounter.Add(ctx, 1, attrs)
	mp.storeCallDurationHist.Record(ctx, duration.Seconds(), attrs)
}

// RecordNATSMessagePublished records a domain event exported to NATS
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, eventType),
		),
	)
}

func classifyStoreError(err error) string {
	if err == nil {
		return ErrorTypeNone
	}
	var storeErr *domainerrors.StoreError
	if errors.As(err, &storeErr) {
		switch {
		case storeErr.StatusCode >= 500:
			return ErrorTypeServer
		case storeErr.StatusCode >= 400:
			return ErrorTypeClient
		}
	}
	return ErrorTypeNetwork
}

// isEnabled checks if metrics are enabled and initialized
func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg config.MetricsConfig, environment string) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg, environment)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
