/*
Package report writes the run summary: one row per person with hours, time cost,
fixed expenses and rates.
*/
package report

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"teamwork-invoicer/src/pkg/billing"
	tw "teamwork-invoicer/src/pkg/teamwork"
)

var Headers = []string{"ID", "NAME", "HOURS", "COST", "EXPENSES", "RATES"}

type Header struct {
	CreatedAt time.Time
	Domain    string
	StartDate time.Time
	EndDate   time.Time
	Projects  []tw.ID
}

type Row struct {
	PersonID tw.ID
	Name     string
	Hours    decimal.Decimal
	Cost     decimal.Decimal
	Expenses decimal.Decimal
	Rates    string
}

// Cells renders the row as printed, numbers with two decimals.
func (r Row) Cells() []string {
	return []string{
		string(r.PersonID), r.Name,
		r.Hours.StringFixed(2), r.Cost.StringFixed(2), r.Expenses.StringFixed(2),
		r.Rates,
	}
}

/*
Build makes one row per known person in first-seen order.

People with zero hours, zero cost and zero expenses are left out.
*/
func Build(dir *billing.Directory, totals *billing.Totals) (rows []Row) {
	sixty := decimal.NewFromInt(60)
	for _, personID := range dir.IDs() {
		name, _ := dir.Name(personID)
		row := Row{
			PersonID: personID,
			Name:     name,
			Hours:    decimal.NewFromInt(totals.Minutes[personID]).Div(sixty).Round(2),
			Cost:     totals.Cost[personID].Round(2),
			Expenses: totals.Expenses[name].Round(2),
		}
		if row.Hours.IsZero() && row.Cost.IsZero() && row.Expenses.IsZero() {
			continue
		}
		row.Rates = RatesText(totals.Rates(personID))
		rows = append(rows, row)
	}
	return rows
}

/*
RatesText is "all projects: R usd/hour" when every project has the same rate,
otherwise "project ID:P: R usd/hour" per project joined with ", ".
*/
func RatesText(rates []billing.ProjectRate) string {
	if len(rates) == 0 {
		return ""
	}
	uniform := true
	for _, r := range rates[1:] {
		if !r.Rate.Equal(rates[0].Rate) {
			uniform = false
			break
		}
	}
	if uniform {
		return "all projects: " + rates[0].Rate.StringFixed(2) + " usd/hour"
	}
	parts := make([]string, len(rates))
	for i, r := range rates {
		parts[i] = "project ID:" + string(r.ProjectID) + ": " + r.Rate.StringFixed(2) + " usd/hour"
	}
	return strings.Join(parts, ", ")
}

func projectList(ids []tw.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
