package market

import (
	"sync/atomic"
)

// Config declares the registered market participants and the fixed system
// identifiers.
type Config struct {
	SenderGLN  string            `json:"sender_gln"`
	DataHubGLN string            `json:"datahub_gln"`
	Parties    map[string]string `json:"parties"`        // participant id -> GLN
	GridAreas  map[string]string `json:"grid_operators"` // grid area -> operator GLN
}

type glnTable struct {
	parties   map[string]string
	gridAreas map[string]string
}

// GLNRegistry resolves market participant ids to GLN routing identifiers.
// Lookups are pure and side-effect free; the table can be replaced atomically
// while readers are active.
type GLNRegistry struct {
	sender  string
	datahub string
	table   atomic.Pointer[glnTable]
}

// NewGLNRegistry builds a registry from the configuration.
func NewGLNRegistry(cfg Config) *GLNRegistry {
	r := &GLNRegistry{sender: cfg.SenderGLN, datahub: cfg.DataHubGLN}
	r.Replace(cfg.Parties, cfg.GridAreas)
	return r
}

// Replace swaps in a new lookup table. Concurrent readers keep seeing the old
// table until the swap completes; the maps must not be mutated afterwards.
func (r *GLNRegistry) Replace(parties, gridAreas map[string]string) {
	t := &glnTable{parties: map[string]string{}, gridAreas: map[string]string{}}
	for k, v := range parties {
		t.parties[k] = v
	}
	for k, v := range gridAreas {
		t.gridAreas[k] = v
	}
	r.table.Store(t)
}

// PartyGLN resolves a supplier or balance responsible id to its GLN.
func (r *GLNRegistry) PartyGLN(partyID string) (string, error) {
	if gln, ok := r.table.Load().parties[partyID]; ok {
		return gln, nil
	}
	return "", &UnknownPartyError{Party: partyID}
}

// GridOperatorGLN resolves a grid area to the GLN of its operator.
func (r *GLNRegistry) GridOperatorGLN(gridArea string) (string, error) {
	if gln, ok := r.table.Load().gridAreas[gridArea]; ok {
		return gln, nil
	}
	return "", &UnknownPartyError{Party: gridArea}
}

// SenderGLN returns the fixed system sender identifier.
func (r *GLNRegistry) SenderGLN() string { return r.sender }

// DataHubGLN returns the routing identifier of the market data hub itself.
func (r *GLNRegistry) DataHubGLN() string { return r.datahub }
