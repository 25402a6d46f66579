package progress

// CollapseMode selects which leading slots a timeline hides.
type CollapseMode int

const (
	CollapseNone CollapseMode = iota
	// CollapseToToday hides slots dated before today.
	CollapseToToday
	// CollapseToDone hides leading slots already filled by logged progress.
	CollapseToDone
)

// Row is one visible timeline line. An ellipsis row stands in for hidden slots.
type Row struct {
	Slot     Slot
	Ellipsis bool
}

// Rows lays out the report's slots under mode. Only the first hidden slot
// produces an ellipsis row.
func (r Report) Rows(mode CollapseMode) []Row {
	rows := make([]Row, 0, len(r.Slots))
	showEllipsis := true
	remainingDone := 0.0
	if r.Task.CountPerDay > 0 {
		remainingDone = r.Task.CountAccum / r.Task.CountPerDay
	}

	for _, slot := range r.Slots {
		remainingDone--
		hide := (mode == CollapseToToday && slot.Date.Before(r.Today)) ||
			(mode == CollapseToDone && remainingDone > 0)

		if hide {
			if showEllipsis {
				showEllipsis = false
				rows = append(rows, Row{Ellipsis: true})
			}
			continue
		}
		rows = append(rows, Row{Slot: slot})
	}
	return rows
}
