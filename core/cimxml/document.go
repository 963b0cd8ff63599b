package cimxml

import "encoding/xml"

// Fixed CIM codes for the notify-aggregated-timeseries document family.
const (
	Namespace          = "urn:ediel.org:measure:notifyaggregatedtimeseries:0:1"
	DocumentType       = "E31"
	BusinessSectorCode = "23" // electricity
	CodingSchemeGLN    = "A10"
	CodingSchemeArea   = "NDK"
	SenderRole         = "DGL"
	ReceiverRole       = "MDR"
	ProductCode        = "8716867000030"
	QuantityUnit       = "KWH"
	SeriesVersion      = "1"
)

// PartyID is a participant identifier qualified by its coding scheme.
type PartyID struct {
	CodingScheme string `xml:"codingScheme,attr"`
	Value        string `xml:",chardata"`
}

// Point is one observation inside a Period. Positions are contiguous integers
// starting at 1, assigned by ascending observation start time.
type Point struct {
	Position int     `xml:"position"`
	Quantity float64 `xml:"quantity"`
	Quality  string  `xml:"quality"`
}

// TimeInterval declares the period bounds, taken from the request context.
type TimeInterval struct {
	Start string `xml:"start"`
	End   string `xml:"end"`
}

// Period carries the resolution, declared interval and ordered points of a
// Series.
type Period struct {
	Resolution   string       `xml:"resolution"`
	TimeInterval TimeInterval `xml:"timeInterval"`
	Points       []Point      `xml:"Point"`
}

// Series is one result-name subgroup within a document. It carries exactly
// one Period.
type Series struct {
	MRID              string  `xml:"mRID"`
	Version           string  `xml:"version"`
	MeteringPointType string  `xml:"marketEvaluationPoint.type"`
	SettlementMethod  string  `xml:"marketEvaluationPoint.settlementMethod,omitempty"`
	GridArea          PartyID `xml:"meteringGridArea_Domain.mRID"`
	Product           string  `xml:"product"`
	QuantityUnit      string  `xml:"quantity_Measure_Unit.name"`
	Period            Period  `xml:"Period"`
}

// MarketDocument is one CIM notify-aggregated-timeseries document, built for
// a single grid area. Never mutated after construction.
type MarketDocument struct {
	XMLName         xml.Name `xml:"NotifyAggregatedTimeSeries_MarketDocument"`
	Namespace       string   `xml:"xmlns,attr"`
	MRID            string   `xml:"mRID"`
	Type            string   `xml:"type"`
	ProcessType     string   `xml:"process.processType"`
	BusinessSector  string   `xml:"businessSector.type"`
	Sender          PartyID  `xml:"sender_MarketParticipant.mRID"`
	SenderRole      string   `xml:"sender_MarketParticipant.marketRole.type"`
	Receiver        PartyID  `xml:"receiver_MarketParticipant.mRID"`
	ReceiverRole    string   `xml:"receiver_MarketParticipant.marketRole.type"`
	CreatedDateTime string   `xml:"createdDateTime"`
	Series          []Series `xml:"Series"`
}
