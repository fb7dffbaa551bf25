package pipeline

import (
	"fmt"
	"slices"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
)

type ResolveResult struct {
	Table           entity.Table
	OutOfOrder      entity.Diagnostic
	Duplicates      entity.Diagnostic
	DuplicateGroups int
	AlreadySorted   bool
}

// ResolveOrder reports rows whose timestamp is earlier than their
// predecessor in file order, stable-sorts by timestamp, then collapses every
// run of identical timestamps onto its first row.
func ResolveOrder(t entity.Table) ResolveResult {
	rows := make([]entity.Row, len(t.Rows))
	copy(rows, t.Rows)

	ooo := entity.Diagnostic{Kind: entity.DiagnosticOutOfOrder}
	for i := 1; i < len(rows); i++ {
		if rows[i].Timestamp.Before(rows[i-1].Timestamp) {
			ooo.Rows = append(ooo.Rows, anomaly(entity.DiagnosticOutOfOrder, rows[i]))
		}
	}
	ooo.Count = len(ooo.Rows)
	if ooo.Count > 0 {
		ooo.Message = fmt.Sprintf("data is not in strict chronological order: %d rows out of sequence", ooo.Count)
	}

	slices.SortStableFunc(rows, func(a, b entity.Row) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	dups := entity.Diagnostic{Kind: entity.DiagnosticDuplicateTimestamp}
	kept := make([]entity.Row, 0, len(rows))
	groups := 0

	for i := 0; i < len(rows); {
		j := i + 1
		for j < len(rows) && rows[j].Timestamp.Equal(rows[i].Timestamp) {
			j++
		}

		kept = append(kept, rows[i])
		if j-i > 1 {
			groups++
			for k := i; k < j; k++ {
				a := anomaly(entity.DiagnosticDuplicateTimestamp, rows[k])
				a.Group = groups
				a.Action = entity.ActionRemoved
				if k == i {
					a.Action = entity.ActionKept
				}
				dups.Rows = append(dups.Rows, a)
			}
		}
		i = j
	}

	dups.Count = len(dups.Rows)
	if dups.Count > 0 {
		dups.Message = fmt.Sprintf("%d rows share a timestamp across %d groups; kept the first of each, removed %d",
			dups.Count, groups, dups.Count-groups)
	}

	return ResolveResult{
		Table:           entity.Table{Columns: t.Columns, Rows: kept},
		OutOfOrder:      ooo,
		Duplicates:      dups,
		DuplicateGroups: groups,
		AlreadySorted:   ooo.Count == 0,
	}
}

func anomaly(kind entity.DiagnosticKind, row entity.Row) entity.Anomaly {
	return entity.Anomaly{
		Kind:      kind,
		Position:  row.Position,
		Timestamp: row.Timestamp,
		Values:    row.Texts(),
	}
}
