// Package dashboard builds the cash reports and overview counters shown
// on the admin dashboard. Aggregation is pure: it walks the fetched
// shift/payment/allocation tree and never touches the store itself.
package dashboard

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clinicore/clinicore/internal/domain/shift"
)

// FilterAll disables department filtering.
const FilterAll = "all"

// DepartmentTotal is one row of a department breakdown.
type DepartmentTotal struct {
	DepartmentID string          `json:"department_id"`
	Name         string          `json:"name"`
	Collected    decimal.Decimal `json:"collected"`
	Count        int             `json:"count"`
}

// ShiftSummary is the per-shift rollup emitted by Aggregate. Only
// shifts with at least one in-window transaction appear.
type ShiftSummary struct {
	ShiftID          string            `json:"shift_id"`
	StaffName        string            `json:"staff_name"`
	StartedAt        string            `json:"started_at"`
	EndedAt          string            `json:"ended_at,omitempty"`
	Active           bool              `json:"active"`
	TotalCollected   decimal.Decimal   `json:"total_collected"`
	TotalRefunded    decimal.Decimal   `json:"total_refunded"`
	TransactionCount int               `json:"transaction_count"`
	Breakdown        []DepartmentTotal `json:"breakdown"`
}

// Totals is the overall rollup across all emitted shifts.
type Totals struct {
	TotalCollected   decimal.Decimal   `json:"total_collected"`
	TotalRefunded    decimal.Decimal   `json:"total_refunded"`
	NetCash          decimal.Decimal   `json:"net_cash"`
	TransactionCount int               `json:"transaction_count"`
	Breakdown        []DepartmentTotal `json:"department_breakdown"`
	Shifts           []ShiftSummary    `json:"shifts"`
}

type bucket struct {
	name      string
	collected decimal.Decimal
	count     int
}

// Aggregate rolls the fetched shifts up into per-shift summaries, an
// overall department breakdown and grand totals. departmentID narrows
// the report to one department; "" or "all" keeps everything.
//
// Cash not covered by an allocation (a payment with none, or the
// remainder of a partially allocated one) counts toward shift and
// overall totals but never gets a department row, and is skipped
// entirely under a department filter since it cannot match one.
// Shifts with no in-window transactions are dropped. The function is
// a pure function of its input.
func Aggregate(shifts []*shift.Shift, departmentID string) Totals {
	filtered := departmentID != "" && departmentID != FilterAll

	overall := Totals{
		TotalCollected: decimal.Zero,
		TotalRefunded:  decimal.Zero,
		NetCash:        decimal.Zero,
	}
	overallDepts := make(map[string]*bucket)

	for _, sh := range shifts {
		shiftTotal := decimal.Zero
		shiftCount := 0
		shiftDepts := make(map[string]*bucket)

		for _, p := range sh.Payments {
			allocated := decimal.Zero
			for _, a := range p.Allocations {
				allocated = allocated.Add(a.Amount)
				deptID := a.DepartmentID.String()
				if filtered && deptID != departmentID {
					continue
				}
				shiftTotal = shiftTotal.Add(a.Amount)
				shiftCount++
				addTo(shiftDepts, deptID, a.DepartmentName, a.Amount)
				addTo(overallDepts, deptID, a.DepartmentName, a.Amount)
			}
			// The unallocated remainder keeps the report in step with
			// the drawer total the shift recorded at payment time.
			if remainder := p.Amount.Sub(allocated); remainder.IsPositive() && !filtered {
				shiftTotal = shiftTotal.Add(remainder)
				shiftCount++
			}
		}

		if shiftCount == 0 {
			continue
		}

		summary := ShiftSummary{
			ShiftID:          sh.ID.String(),
			StaffName:        sh.StaffName,
			StartedAt:        sh.StartedAt.UTC().Format(time.RFC3339),
			Active:           sh.Active,
			TotalCollected:   shiftTotal,
			TotalRefunded:    sh.TotalRefunded,
			TransactionCount: shiftCount,
			Breakdown:        sortedBreakdown(shiftDepts),
		}
		if sh.EndedAt != nil {
			summary.EndedAt = sh.EndedAt.UTC().Format(time.RFC3339)
		}

		overall.Shifts = append(overall.Shifts, summary)
		overall.TotalCollected = overall.TotalCollected.Add(shiftTotal)
		overall.TotalRefunded = overall.TotalRefunded.Add(sh.TotalRefunded)
		overall.TransactionCount += shiftCount
	}

	overall.NetCash = overall.TotalCollected.Sub(overall.TotalRefunded)
	overall.Breakdown = sortedBreakdown(overallDepts)
	return overall
}

func addTo(m map[string]*bucket, id, name string, amount decimal.Decimal) {
	b, ok := m[id]
	if !ok {
		b = &bucket{name: name, collected: decimal.Zero}
		m[id] = b
	}
	b.collected = b.collected.Add(amount)
	b.count++
}

func sortedBreakdown(m map[string]*bucket) []DepartmentTotal {
	rows := make([]DepartmentTotal, 0, len(m))
	for id, b := range m {
		rows = append(rows, DepartmentTotal{
			DepartmentID: id,
			Name:         b.name,
			Collected:    b.collected,
			Count:        b.count,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Collected.Equal(rows[j].Collected) {
			return rows[i].Collected.GreaterThan(rows[j].Collected)
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}
