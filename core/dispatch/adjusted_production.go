package dispatch

import (
	"fmt"
	"time"

	"github.com/gridhub/aggcoord/core/model"
)

// AdjustedHourlyProductionStrategy emits a message only for groups whose
// supplier is the system-correction owner effective at the interval start.
// The message goes to the grid operator for the area.
type AdjustedHourlyProductionStrategy struct {
	Recipients RecipientResolver
	Ownership  OwnershipResolver
}

func (AdjustedHourlyProductionStrategy) FriendlyName() string {
	return model.ResultAdjustedHourlyProduction
}

func (s AdjustedHourlyProductionStrategy) PrepareMessages(rows []model.ResultRow, processType model.ProcessType, intervalStart, intervalEnd time.Time) ([]model.OutboundMessage, error) {
	if rows == nil {
		return nil, ErrNilResults
	}

	var msgs []model.OutboundMessage
	for _, g := range groupRows2(rows,
		func(r model.ResultRow) string { return r.EnergySupplierID },
		func(r model.ResultRow) string { return r.GridArea },
	) {
		first := g.first()
		owner, err := s.Ownership.SystemCorrectionOwner(first.GridArea, intervalStart)
		if err != nil {
			return nil, fmt.Errorf("system correction owner for area %s: %w", first.GridArea, err)
		}
		if owner != first.EnergySupplierID {
			continue
		}
		receiver, err := s.Recipients.GridOperatorGLN(first.GridArea)
		if err != nil {
			return nil, fmt.Errorf("resolve grid operator for area %s: %w", first.GridArea, err)
		}
		msgs = append(msgs, model.OutboundMessage{
			AggregationType:      model.ResultAdjustedHourlyProduction,
			GridArea:             first.GridArea,
			BalanceResponsibleID: first.BalanceResponsibleID,
			EnergySupplierID:     first.EnergySupplierID,
			EvaluationPointType:  model.PointTypeProduction,
			SettlementMethod:     model.SettlementIgnored,
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
