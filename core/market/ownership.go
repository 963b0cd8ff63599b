package market

import (
	"sort"
	"sync/atomic"
	"time"
)

// OwnershipPeriod assigns an owner to a grid area from ValidFrom onwards,
// until superseded by a later period.
type OwnershipPeriod struct {
	ValidFrom time.Time `json:"valid_from"`
	Owner     string    `json:"owner"`
}

// OwnershipConfig declares grid-loss and system-correction responsibility per
// grid area. Grid-loss ownership is static; system-correction ownership can
// change at a boundary instant.
type OwnershipConfig struct {
	GridLoss         map[string]string            `json:"grid_loss"`
	SystemCorrection map[string][]OwnershipPeriod `json:"system_correction"`
}

type ownershipTable struct {
	gridLoss         map[string]string
	systemCorrection map[string][]OwnershipPeriod
}

// OwnershipResolver answers which party absorbs grid-loss or
// system-correction responsibility for a grid area. Used only as a filter
// predicate by dispatch strategies.
type OwnershipResolver struct {
	table atomic.Pointer[ownershipTable]
}

// NewOwnershipResolver builds a resolver from the configuration.
func NewOwnershipResolver(cfg OwnershipConfig) *OwnershipResolver {
	r := &OwnershipResolver{}
	r.Replace(cfg.GridLoss, cfg.SystemCorrection)
	return r
}

// Replace swaps in a new ownership table. System-correction periods are kept
// sorted by ValidFrom so point-in-time queries are a scan from the back.
func (r *OwnershipResolver) Replace(gridLoss map[string]string, systemCorrection map[string][]OwnershipPeriod) {
	t := &ownershipTable{
		gridLoss:         map[string]string{},
		systemCorrection: map[string][]OwnershipPeriod{},
	}
	for k, v := range gridLoss {
		t.gridLoss[k] = v
	}
	for area, periods := range systemCorrection {
		sorted := make([]OwnershipPeriod, len(periods))
		copy(sorted, periods)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ValidFrom.Before(sorted[j].ValidFrom) })
		t.systemCorrection[area] = sorted
	}
	r.table.Store(t)
}

// GridLossOwner returns the party responsible for grid loss in the area.
func (r *OwnershipResolver) GridLossOwner(gridArea string) (string, error) {
	if owner, ok := r.table.Load().gridLoss[gridArea]; ok {
		return owner, nil
	}
	return "", &UnknownPartyError{Party: gridArea}
}

// SystemCorrectionOwner returns the owner effective at the given instant: the
// latest period whose ValidFrom is not after at.
func (r *OwnershipResolver) SystemCorrectionOwner(gridArea string, at time.Time) (string, error) {
	periods := r.table.Load().systemCorrection[gridArea]
	for i := len(periods) - 1; i >= 0; i-- {
		if !periods[i].ValidFrom.After(at) {
			return periods[i].Owner, nil
		}
	}
	return "", &UnknownPartyError{Party: gridArea}
}
