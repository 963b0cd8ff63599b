package dispatch

import (
	"fmt"
	"time"

	"github.com/gridhub/aggcoord/core/model"
)

// HourlyConsumptionStrategy prepares one message per (energy supplier, grid
// area) group, addressed to the supplier, settled as non-profiled.
type HourlyConsumptionStrategy struct {
	Recipients RecipientResolver
}

func (HourlyConsumptionStrategy) FriendlyName() string { return model.ResultHourlyConsumption }

func (s HourlyConsumptionStrategy) PrepareMessages(rows []model.ResultRow, processType model.ProcessType, intervalStart, intervalEnd time.Time) ([]model.OutboundMessage, error) {
	if rows == nil {
		return nil, ErrNilResults
	}

	var msgs []model.OutboundMessage
	for _, g := range groupRows2(rows,
		func(r model.ResultRow) string { return r.EnergySupplierID },
		func(r model.ResultRow) string { return r.GridArea },
	) {
		first := g.first()
		receiver, err := s.Recipients.PartyGLN(first.EnergySupplierID)
		if err != nil {
			return nil, fmt.Errorf("resolve receiver for supplier %s: %w", first.EnergySupplierID, err)
		}
		msgs = append(msgs, model.OutboundMessage{
			AggregationType:      model.ResultHourlyConsumption,
			GridArea:             first.GridArea,
			BalanceResponsibleID: first.BalanceResponsibleID,
			EnergySupplierID:     first.EnergySupplierID,
			EvaluationPointType:  model.PointTypeConsumption,
			SettlementMethod:     model.SettlementNonProfiled,
			ProcessType:          processType.String(),
			Quantities:           g.quantities(),
			TimeIntervalStart:    intervalStart,
			TimeIntervalEnd:      intervalEnd,
			SenderID:             s.Recipients.SenderGLN(),
			ReceiverID:           receiver,
			AggregatedQuality:    first.Quality,
		})
	}
	return msgs, nil
}
