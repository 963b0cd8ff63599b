package dispatch

import (
	"sort"

	"github.com/gridhub/aggcoord/core/model"
)

// rowGroup is one partition of the input rows. The representative row (the
// first in input order) sources the key fields shared by the group.
type rowGroup struct {
	rows []model.ResultRow
}

func (g rowGroup) first() model.ResultRow { return g.rows[0] }

// groupRows partitions rows by the key function, preserving first-seen group
// order and input order within each group. Rows are never copied or mutated,
// only referenced.
func groupRows(rows []model.ResultRow, key func(model.ResultRow) string) []rowGroup {
	index := make(map[string]int, len(rows))
	var groups []rowGroup
	for _, r := range rows {
		k := key(r)
		if i, ok := index[k]; ok {
			groups[i].rows = append(groups[i].rows, r)
		} else {
			index[k] = len(groups)
			groups = append(groups, rowGroup{rows: []model.ResultRow{r}})
		}
	}
	return groups
}

// groupRows2 partitions rows by the outer key, then each partition by the
// inner key.
func groupRows2(rows []model.ResultRow, outer, inner func(model.ResultRow) string) []rowGroup {
	var groups []rowGroup
	for _, g := range groupRows(rows, outer) {
		groups = append(groups, groupRows(g.rows, inner)...)
	}
	return groups
}

// quantities returns the group's quantities ordered by observation start
// time. The sort is stable so rows sharing a start time keep input order.
func (g rowGroup) quantities() []float64 {
	ordered := make([]model.ResultRow, len(g.rows))
	copy(ordered, g.rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartDateTime.Before(ordered[j].StartDateTime)
	})
	qs := make([]float64, len(ordered))
	for i, r := range ordered {
		qs[i] = r.SumQuantity
	}
	return qs
}
