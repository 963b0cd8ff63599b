package model

import "time"

// Result-name identifiers produced by the external aggregation engine. Each
// name maps to one dispatch strategy.
const (
	ResultHourlyConsumption        = "hourly_consumption"
	ResultFlexConsumption          = "flex_consumption"
	ResultHourlyProduction         = "hourly_production"
	ResultAdjustedHourlyProduction = "adjusted_hourly_production"
	ResultTotalConsumption         = "total_consumption"
	ResultExchange                 = "exchange"
)

// ResultRow is one line of raw aggregation output read from storage. Rows are
// immutable once decoded; grouping only partitions references to them.
type ResultRow struct {
	JobID                string    `json:"job_id"`
	SnapshotID           string    `json:"snapshot_id"`
	ResultID             string    `json:"result_id"`
	ResultName           string    `json:"result_name"`
	GridArea             string    `json:"grid_area"`
	InGridArea           string    `json:"in_grid_area,omitempty"`
	OutGridArea          string    `json:"out_grid_area,omitempty"`
	BalanceResponsibleID string    `json:"balance_responsible_id"`
	EnergySupplierID     string    `json:"energy_supplier_id"`
	StartDateTime        time.Time `json:"start_datetime"`
	EndDateTime          time.Time `json:"end_datetime"`
	Resolution           string    `json:"resolution"`
	SumQuantity          float64   `json:"sum_quantity"`
	Quality              string    `json:"quality"`
	MeteringPointType    string    `json:"metering_point_type"`
	SettlementMethod     string    `json:"settlement_method"`
}
