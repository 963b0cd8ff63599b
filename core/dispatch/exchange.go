package dispatch

import (
	"fmt"
	"time"

	"github.com/gridhub/aggcoord/core/model"
)

// ExchangeStrategy prepares one message per grid area covering the energy
// exchanged with neighbouring areas. Quantities may be negative for net
// export. The grid operator is the recipient.
type ExchangeStrategy struct {
	Recipients RecipientResolver
}

func (ExchangeStrategy) FriendlyName() string { return model.ResultExchange }

func (s ExchangeStrategy) PrepareMessages(rows []model.ResultRow, processType model.ProcessType, intervalStart, intervalEnd time.Time) ([]model.OutboundMessage, error) {
	if rows == nil {
		return nil, ErrNilResults
	}

	var msgs []model.OutboundMessage
	for _, g := range groupRows(rows, func(r model.ResultRow) string { return r.GridArea }) {
		first := g.first()
		receiver, err := s.Recipients.GridOperatorGLN(first.GridArea)
		if err != nil {
			return nil, fmt.Errorf("resolve grid operator for area %s: %w", first.GridArea, err)
		}
		msgs = append(msgs, model.OutboundMessage{
			AggregationType:     model.ResultExchange,
			GridArea:            first.GridArea,
			EvaluationPointType: model.PointTypeExchange,
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
	return msgs, nil
}
