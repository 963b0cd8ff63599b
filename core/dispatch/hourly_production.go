package dispatch

import (
	"fmt"
	"time"

	"github.com/gridhub/aggcoord/core/model"
)

// HourlyProductionStrategy groups by (grid area, balance responsible,
// supplier) and fans each group out to two recipients: both the balance
// responsible party and the supplier receive the production result.
type HourlyProductionStrategy struct {
	Recipients RecipientResolver
}

func (HourlyProductionStrategy) FriendlyName() string { return model.ResultHourlyProduction }

func (s HourlyProductionStrategy) PrepareMessages(rows []model.ResultRow, processType model.ProcessType, intervalStart, intervalEnd time.Time) ([]model.OutboundMessage, error) {
	if rows == nil {
		return nil, ErrNilResults
	}

	var msgs []model.OutboundMessage
	for _, g := range groupRows(rows, func(r model.ResultRow) string {
		return r.GridArea + "\x00" + r.BalanceResponsibleID + "\x00" + r.EnergySupplierID
	}) {
		first := g.first()
		for _, party := range []string{first.BalanceResponsibleID, first.EnergySupplierID} {
			receiver, err := s.Recipients.PartyGLN(party)
			if err != nil {
				return nil, fmt.Errorf("resolve receiver for party %s: %w", party, err)
			}
			msgs = append(msgs, model.OutboundMessage{
				AggregationType:      model.ResultHourlyProduction,
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
	}
	return msgs, nil
}
