package dispatch

import (
	"context"
	"time"

	"github.com/gridhub/aggcoord/core/model"
)

// Strategy prepares outbound messages for one result category. Strategies are
// pure, single-pass transformations over an in-memory row set and hold no
// shared mutable state, so one instance is safe for concurrent jobs.
type Strategy interface {
	// FriendlyName is the result-name identifier the strategy handles.
	FriendlyName() string
	PrepareMessages(rows []model.ResultRow, processType model.ProcessType, intervalStart, intervalEnd time.Time) ([]model.OutboundMessage, error)
}

// RecipientResolver maps market participant ids to GLN routing identifiers
// and exposes the fixed system identifiers.
type RecipientResolver interface {
	PartyGLN(partyID string) (string, error)
	GridOperatorGLN(gridArea string) (string, error)
	SenderGLN() string
	DataHubGLN() string
}

// OwnershipResolver answers grid-loss and system-correction responsibility
// questions used as inclusion filters.
type OwnershipResolver interface {
	GridLossOwner(gridArea string) (string, error)
	SystemCorrectionOwner(gridArea string, at time.Time) (string, error)
}

// MessagePublisher hands a fully formed message to the transport.
type MessagePublisher interface {
	Publish(ctx context.Context, msg model.OutboundMessage) error
}
