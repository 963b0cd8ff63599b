package model

import "time"

// MarketEvaluationPointType categorizes the metering points covered by a
// message, using CIM point type codes.
type MarketEvaluationPointType string

const (
	PointTypeConsumption MarketEvaluationPointType = "E17"
	PointTypeProduction  MarketEvaluationPointType = "E18"
	PointTypeExchange    MarketEvaluationPointType = "E20"
)

// SettlementMethod selects the billing method for consumption, using CIM
// settlement codes. Production and exchange results carry no method.
type SettlementMethod string

const (
	SettlementFlexSettled SettlementMethod = "D01"
	SettlementNonProfiled SettlementMethod = "E02"
	SettlementIgnored     SettlementMethod = ""
)

// OutboundMessage is one market message prepared by a dispatch strategy for a
// single recipient. It is fully formed before handoff to the transport and
// never mutated afterwards.
type OutboundMessage struct {
	AggregationType      string                    `json:"aggregation_type"`
	GridArea             string                    `json:"grid_area"`
	BalanceResponsibleID string                    `json:"balance_responsible_id"`
	EnergySupplierID     string                    `json:"energy_supplier_id"`
	EvaluationPointType  MarketEvaluationPointType `json:"evaluation_point_type"`
	SettlementMethod     SettlementMethod          `json:"settlement_method,omitempty"`
	ProcessType          string                    `json:"process_type"`
	Quantities           []float64                 `json:"quantities"`
	TimeIntervalStart    time.Time                 `json:"time_interval_start"`
	TimeIntervalEnd      time.Time                 `json:"time_interval_end"`
	SenderID             string                    `json:"sender_id"`
	ReceiverID           string                    `json:"receiver_id"`
	AggregatedQuality    string                    `json:"aggregated_quality,omitempty"`
}
