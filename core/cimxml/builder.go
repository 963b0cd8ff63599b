package cimxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gridhub/aggcoord/core/metrics"
	"github.com/gridhub/aggcoord/core/model"
)

// RequestContext carries the header fields sourced from the coordinator
// request rather than from row data.
type RequestContext struct {
	ProcessType   model.ProcessType
	ReceiverGLN   string
	IntervalStart time.Time
	IntervalEnd   time.Time
}

// Builder turns flat result rows into CIM market documents, one per grid
// area. Clock and id generation are injectable so output is deterministic
// under test.
type Builder struct {
	SenderGLN string
	Sink      metrics.Sink
	Now       func() time.Time
	NewID     func() string
}

// NewBuilder creates a Builder with the real clock and random UUIDs. A nil
// sink defaults to NopSink.
func NewBuilder(senderGLN string, sink metrics.Sink) *Builder {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Builder{
		SenderGLN: senderGLN,
		Sink:      sink,
		Now:       func() time.Time { return time.Now().UTC() },
		NewID:     uuid.NewString,
	}
}

// BuildDocuments groups rows by grid area, then by result name, and emits one
// document per grid-area group with one Series per result-name subgroup.
// Group order follows first appearance in the input.
func (b *Builder) BuildDocuments(rows []model.ResultRow, reqCtx RequestContext) ([]MarketDocument, error) {
	if rows == nil {
		return nil, fmt.Errorf("result row sequence is nil")
	}

	var docs []MarketDocument
	for _, areaGroup := range groupBy(rows, func(r model.ResultRow) string { return r.GridArea }) {
		doc := MarketDocument{
			Namespace:       Namespace,
			MRID:            b.NewID(),
			Type:            DocumentType,
			ProcessType:     reqCtx.ProcessType.Code(),
			BusinessSector:  BusinessSectorCode,
			Sender:          PartyID{CodingScheme: CodingSchemeGLN, Value: b.SenderGLN},
			SenderRole:      SenderRole,
			Receiver:        PartyID{CodingScheme: CodingSchemeGLN, Value: reqCtx.ReceiverGLN},
			ReceiverRole:    ReceiverRole,
			CreatedDateTime: b.Now().UTC().Format(time.RFC3339),
		}
		for _, nameGroup := range groupBy(areaGroup, func(r model.ResultRow) string { return r.ResultName }) {
			doc.Series = append(doc.Series, b.buildSeries(nameGroup, reqCtx))
		}
		b.record(doc, areaGroup)
		docs = append(docs, doc)
	}
	return docs, nil
}

// record emits one DocumentEvent per built document.
func (b *Builder) record(doc MarketDocument, rows []model.ResultRow) {
	if b.Sink == nil {
		return
	}
	_ = b.Sink.RecordDocument(metrics.DocumentEvent{
		GridArea:    rows[0].GridArea,
		SeriesCount: len(doc.Series),
		PointCount:  len(rows),
		Time:        b.Now().UTC(),
	})
}

// buildSeries emits one Series with exactly one Period. Points are positioned
// 1..N by ascending observation start time; the sort is stable so equal
// timestamps keep input order.
func (b *Builder) buildSeries(rows []model.ResultRow, reqCtx RequestContext) Series {
	first := rows[0]
	ordered := make([]model.ResultRow, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartDateTime.Before(ordered[j].StartDateTime)
	})

	points := make([]Point, len(ordered))
	for i, r := range ordered {
		points[i] = Point{Position: i + 1, Quantity: r.SumQuantity, Quality: r.Quality}
	}

	return Series{
		MRID:              b.NewID(),
		Version:           SeriesVersion,
		MeteringPointType: first.MeteringPointType,
		SettlementMethod:  first.SettlementMethod,
		GridArea:          PartyID{CodingScheme: CodingSchemeArea, Value: first.GridArea},
		Product:           ProductCode,
		QuantityUnit:      QuantityUnit,
		Period: Period{
			Resolution: first.Resolution,
			TimeInterval: TimeInterval{
				Start: reqCtx.IntervalStart.UTC().Format("2006-01-02T15:04Z"),
				End:   reqCtx.IntervalEnd.UTC().Format("2006-01-02T15:04Z"),
			},
			Points: points,
		},
	}
}

// WriteDocument serializes one document as indented XML with a header.
func WriteDocument(w io.Writer, doc MarketDocument) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode market document %s: %w", doc.MRID, err)
	}
	return enc.Close()
}

// groupBy partitions rows by key, preserving first-seen order.
func groupBy(rows []model.ResultRow, key func(model.ResultRow) string) [][]model.ResultRow {
	index := make(map[string]int, len(rows))
	var groups [][]model.ResultRow
	for _, r := range rows {
		k := key(r)
		if i, ok := index[k]; ok {
			groups[i] = append(groups[i], r)
		} else {
			index[k] = len(groups)
			groups = append(groups, []model.ResultRow{r})
		}
	}
	return groups
}
