package dispatch

import (
	"fmt"
	"time"

	"github.com/gridhub/aggcoord/core/model"
)

// FlexConsumptionStrategy prepares one flex-settled message per (energy
// supplier, grid area) group. Groups whose supplier owns the grid loss for
// the area are suppressed: that volume is settled through the grid-loss
// correction instead.
type FlexConsumptionStrategy struct {
	Recipients RecipientResolver
	Ownership  OwnershipResolver
}

func (FlexConsumptionStrategy) FriendlyName() string { return model.ResultFlexConsumption }

func (s FlexConsumptionStrategy) PrepareMessages(rows []model.ResultRow, processType model.ProcessType, intervalStart, intervalEnd time.Time) ([]model.OutboundMessage, error) {
	if rows == nil {
		return nil, ErrNilResults
	}

	var msgs []model.OutboundMessage
	for _, g := range groupRows2(rows,
		func(r model.ResultRow) string { return r.EnergySupplierID },
		func(r model.ResultRow) string { return r.GridArea },
	) {
		first := g.first()
		owner, err := s.Ownership.GridLossOwner(first.GridArea)
		if err != nil {
			return nil, fmt.Errorf("grid loss owner for area %s: %w", first.GridArea, err)
		}
		if owner == first.EnergySupplierID {
			continue
		}
		receiver, err := s.Recipients.PartyGLN(first.EnergySupplierID)
		if err != nil {
			return nil, fmt.Errorf("resolve receiver for supplier %s: %w", first.EnergySupplierID, err)
		}
		msgs = append(msgs, model.OutboundMessage{
			AggregationType:      model.ResultFlexConsumption,
			GridArea:             first.GridArea,
			BalanceResponsibleID: first.BalanceResponsibleID,
			EnergySupplierID:     first.EnergySupplierID,
			EvaluationPointType:  model.PointTypeConsumption,
			SettlementMethod:     model.SettlementFlexSettled,
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
