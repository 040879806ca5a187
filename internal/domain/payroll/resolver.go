package payroll

// ResolveAssignments returns the assignments whose effective interval
// contains the period and whose paycode is not archived. An empty result
// is valid; an employee can simply have no compensation.
func ResolveAssignments(assignments []Assignment, paycodes map[string]Paycode, p Period) []Assignment {
	var out []Assignment
	for _, a := range assignments {
		if !a.ActiveIn(p) {
			continue
		}
		pc, ok := paycodes[a.PaycodeID]
		if !ok || pc.Archived {
			continue
		}
		out = append(out, a)
	}
	return out
}

// ValidateNoOverlap rejects a candidate assignment whose effective
// interval intersects an existing assignment of the same employee and
// paycode. Intervals are half-open in period granularity.
func ValidateNoOverlap(existing []Assignment, candidate Assignment) error {
	for _, a := range existing {
		if a.ID == candidate.ID {
			continue
		}
		if a.EmployeeID != candidate.EmployeeID || a.PaycodeID != candidate.PaycodeID {
			continue
		}
		if a.Overlaps(candidate) {
			return ErrAssignmentOverlap
		}
	}
	return nil
}
