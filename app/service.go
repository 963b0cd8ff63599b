package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gridhub/aggcoord/config"
	"github.com/gridhub/aggcoord/core/cimxml"
	"github.com/gridhub/aggcoord/core/coordinator"
	"github.com/gridhub/aggcoord/core/dispatch"
	"github.com/gridhub/aggcoord/core/market"
	coremetrics "github.com/gridhub/aggcoord/core/metrics"
	"github.com/gridhub/aggcoord/core/model"
	"github.com/gridhub/aggcoord/infra/blob"
	"github.com/gridhub/aggcoord/infra/databricks"
	"github.com/gridhub/aggcoord/infra/logger"
	"github.com/gridhub/aggcoord/infra/metadata"
	"github.com/gridhub/aggcoord/infra/metrics"
	"github.com/gridhub/aggcoord/infra/mqtt"
	"github.com/gridhub/aggcoord/internal/eventbus"
)

// Service wires the coordinator, the dispatch engine and their collaborators.
type Service struct {
	Coordinator *coordinator.Service
	Engine      *dispatch.Engine
	Builder     *cimxml.Builder

	store       *metadata.Store
	publisher   *mqtt.Publisher
	bus         eventbus.EventBus
	sink        coremetrics.Sink
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	log := logger.New("service")

	store, err := metadata.New(ctx, cfg.Metadata)
	if err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}

	compute, err := databricks.New(cfg.Databricks)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("databricks client: %w", err)
	}

	publisher, err := mqtt.NewPublisher(cfg.MQTT)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("mqtt publisher: %w", err)
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			store.Close()
			publisher.Close()
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.Sink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = coremetrics.NewMultiSink(sinks...)
	}

	registry := market.NewGLNRegistry(cfg.Market)
	ownership := market.NewOwnershipResolver(cfg.Ownership)

	engine := dispatch.NewEngine(publisher, sink, logger.New("dispatch-engine"),
		dispatch.HourlyConsumptionStrategy{Recipients: registry},
		dispatch.FlexConsumptionStrategy{Recipients: registry, Ownership: ownership},
		dispatch.HourlyProductionStrategy{Recipients: registry},
		dispatch.AdjustedHourlyProductionStrategy{Recipients: registry, Ownership: ownership},
		dispatch.TotalConsumptionStrategy{Recipients: registry},
		dispatch.ExchangeStrategy{Recipients: registry},
	)

	bus := eventbus.New()
	processor := &resultProcessor{engine: engine, meta: store, log: logger.New("result-processor")}
	coord := coordinator.NewService(cfg.Coordinator, compute, store, blob.NewStore(), processor, bus, logger.New("coordinator"))

	return &Service{
		Coordinator: coord,
		Engine:      engine,
		Builder:     cimxml.NewBuilder(cfg.Market.SenderGLN, sink),
		store:       store,
		publisher:   publisher,
		bus:         bus,
		sink:        sink,
		log:         log,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// StartJob triggers one aggregation run and supervises it to completion.
func (s *Service) StartJob(ctx context.Context, processType model.ProcessType, begin, end time.Time, persist bool) (string, error) {
	return s.Coordinator.StartAggregationJob(ctx, processType, begin, end, persist)
}

// HandleResult processes one raw result file.
func (s *Service) HandleResult(ctx context.Context, inputPath, resultID, processType string, start, end time.Time) error {
	return s.Coordinator.HandleResult(ctx, inputPath, resultID, processType, start, end)
}

// Run starts the background collectors and blocks until the context is
// canceled.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.bus, s.sink)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	s.publisher.Close()
	s.store.Close()
	return nil
}
