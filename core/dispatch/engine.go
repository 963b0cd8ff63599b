package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/gridhub/aggcoord/core/logger"
	"github.com/gridhub/aggcoord/core/metrics"
	"github.com/gridhub/aggcoord/core/model"
)

// Engine routes a result set to the strategy registered for its result name
// and hands each prepared message to the transport. A failed recipient lookup
// aborts the whole category: no partial silent drop.
type Engine struct {
	strategies map[string]Strategy
	publisher  MessagePublisher
	sink       metrics.Sink
	log        logger.Logger
}

// NewEngine creates an Engine with the given strategies. A nil sink defaults
// to NopSink.
func NewEngine(publisher MessagePublisher, sink metrics.Sink, log logger.Logger, strategies ...Strategy) *Engine {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	byName := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		byName[s.FriendlyName()] = s
	}
	return &Engine{strategies: byName, publisher: publisher, sink: sink, log: log}
}

// Dispatch prepares and publishes the messages for one result category.
func (e *Engine) Dispatch(ctx context.Context, resultName string, rows []model.ResultRow, processType model.ProcessType, intervalStart, intervalEnd time.Time) error {
	strategy, ok := e.strategies[resultName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownResultName, resultName)
	}

	msgs, err := strategy.PrepareMessages(rows, processType, intervalStart, intervalEnd)
	if err != nil {
		e.log.Errorf("prepare %s messages: %v", resultName, err)
		return err
	}

	for _, msg := range msgs {
		if err := e.publisher.Publish(ctx, msg); err != nil {
			return fmt.Errorf("publish %s message for area %s: %w", resultName, msg.GridArea, err)
		}
		if err := e.sink.RecordMessage(metrics.MessageEvent{
			Category: resultName,
			GridArea: msg.GridArea,
			Receiver: msg.ReceiverID,
			Time:     time.Now().UTC(),
		}); err != nil {
			e.log.Warnf("record message metric: %v", err)
		}
	}
	e.log.Infof("dispatched %d %s messages from %d rows", len(msgs), resultName, len(rows))
	return nil
}
