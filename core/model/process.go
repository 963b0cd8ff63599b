package model

import (
	"fmt"
	"strings"
)

// ProcessType identifies the settlement process an aggregation run belongs to.
type ProcessType int

const (
	ProcessUnknown ProcessType = iota
	Aggregation
	BalanceFixing
	WholesaleFixing
	CorrectionSettlement
)

var processNames = map[ProcessType]string{
	Aggregation:          "Aggregation",
	BalanceFixing:        "BalanceFixing",
	WholesaleFixing:      "WholesaleFixing",
	CorrectionSettlement: "CorrectionSettlement",
}

// Business codes used on the wire (EDI document codes).
var processCodes = map[ProcessType]string{
	Aggregation:          "D03",
	BalanceFixing:        "D04",
	WholesaleFixing:      "D05",
	CorrectionSettlement: "D32",
}

func (p ProcessType) String() string {
	if n, ok := processNames[p]; ok {
		return n
	}
	return "Unknown"
}

// Code returns the EDI business code for the process type.
func (p ProcessType) Code() string {
	if c, ok := processCodes[p]; ok {
		return c
	}
	return ""
}

// ParseProcessType accepts either the process name or its business code,
// case-insensitively.
func ParseProcessType(s string) (ProcessType, error) {
	for p, n := range processNames {
		if strings.EqualFold(s, n) || strings.EqualFold(s, processCodes[p]) {
			return p, nil
		}
	}
	return ProcessUnknown, fmt.Errorf("unknown process type %q", s)
}
