package dispatch

import (
	"fmt"
	"time"

	"github.com/gridhub/aggcoord/core/model"
)

// TotalConsumptionStrategy groups by grid area and fans each group out to two
// recipients: the grid operator and the data hub itself.
type TotalConsumptionStrategy struct {
	Recipients RecipientResolver
}

func (TotalConsumptionStrategy) FriendlyName() string { return model.ResultTotalConsumption }

func (s TotalConsumptionStrategy) PrepareMessages(rows []model.ResultRow, processType model.ProcessType, intervalStart, intervalEnd time.Time) ([]model.OutboundMessage, error) {
	if rows == nil {
		return nil, ErrNilResults
	}

	var msgs []model.OutboundMessage
	for _, g := range groupRows(rows, func(r model.ResultRow) string { return r.GridArea }) {
		first := g.first()
		operator, err := s.Recipients.GridOperatorGLN(first.GridArea)
		if err != nil {
			return nil, fmt.Errorf("resolve grid operator for area %s: %w", first.GridArea, err)
		}
		for _, receiver := range []string{operator, s.Recipients.DataHubGLN()} {
			msgs = append(msgs, model.OutboundMessage{
				AggregationType:     model.ResultTotalConsumption,
				GridArea:            first.GridArea,
				EvaluationPointType: model.PointTypeConsumption,
				SettlementMethod:    model.SettlementIgnored,
				ProcessType:         processType.String(),
				Quantities:          g.quantities(),
				TimeIntervalStart:   intervalStart,
				TimeIntervalEnd:     intervalEnd,
				SenderID:            s.Recipients.SenderGLN(),
				ReceiverID:          receiver,
				AggregatedQuality:   first.Quality,
			})
		}
	}
	return msgs, nil
}
