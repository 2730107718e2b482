package scheduling

// MaxConflictExamples caps how many example collisions a conflict
// report carries back to the caller.
const MaxConflictExamples = 5

// ConflictReport summarizes date+time collisions between candidate
// slots and a therapist's existing slots. Total counts every collision;
// Examples holds at most MaxConflictExamples of them.
type ConflictReport struct {
	Total    int       `json:"total"`
	Examples []SlotKey `json:"examples"`
}

// HasConflicts reports whether any collision was found.
func (r ConflictReport) HasConflicts() bool {
	return r.Total > 0
}

// FindConflicts compares each candidate's normalized date and start
// time against the existing slots. A match on both fields is a
// conflict; any conflict rejects the whole bulk-add, so the caller
// never partially inserts.
func FindConflicts(candidates, existing []SlotKey) ConflictReport {
	taken := make(map[SlotKey]bool, len(existing))
	for _, e := range existing {
		taken[SlotKey{Date: NormalizeDate(e.Date), StartTime: e.StartTime}] = true
	}

	var report ConflictReport
	for _, c := range candidates {
		key := SlotKey{Date: NormalizeDate(c.Date), StartTime: c.StartTime}
		if taken[key] {
			report.Total++
			if len(report.Examples) < MaxConflictExamples {
				report.Examples = append(report.Examples, key)
			}
		}
	}
	return report
}
