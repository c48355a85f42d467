package billing

import (
	"context"

	tw "teamwork-invoicer/src/pkg/teamwork"
)

type LostExpense struct {
	ProjectID tw.ID
	PersonID  tw.ID // empty when the expense name matches nobody
	Expense   tw.Expense
}

type LostTimeEntry struct {
	ProjectID tw.ID
	Entry     tw.TimeEntry
}

/*
Lost lists the items of the run's date range that are still not invoiced after the run.
*/
type Lost struct {
	Expenses    []LostExpense
	TimeEntries []LostTimeEntry
}

func (l Lost) Empty() bool {
	return len(l.Expenses) == 0 && len(l.TimeEntries) == 0
}

/*
CheckLost re-reads expenses and time entries of every processed project and reports,
per person and for manual follow-up, whatever this run did not invoice.

Items are collected across all projects before reporting. Fetch failures are logged
and the project is skipped.
*/
func (r *Runner) CheckLost(ctx context.Context, result *Result) (lost Lost) {
	r.log.Info("Checking for items left uninvoiced in %d projects", len(result.Projects))

	for _, projectID := range result.Projects {
		expenses, e := r.api.ListExpenses(ctx, projectID)
		if e != nil {
			r.log.Error("Lost items check: unable to get expenses of project %s", projectID)
		}
		for _, expense := range expenses {
			if expense.InvoiceID != "" || result.ExpenseInvoiced(expense.ID) {
				continue
			}
			day, dayErr := expense.Day()
			if dayErr == nil && !r.inRange(day) {
				continue
			}
			personID, _ := result.Directory.ID(expense.Name)
			lost.Expenses = append(lost.Expenses, LostExpense{ProjectID: projectID, PersonID: personID, Expense: expense})
		}

		entries, e := r.api.ListTimeEntries(ctx, projectID, r.cfg.StartDate, r.cfg.EndDate)
		if e != nil {
			r.log.Error("Lost items check: unable to get time entries of project %s", projectID)
		}
		kept, unreadable := r.billableEntries(entries)
		for _, entry := range append(kept, unreadable...) {
			if result.TimeEntryInvoiced(entry.ID) {
				continue
			}
			lost.TimeEntries = append(lost.TimeEntries, LostTimeEntry{ProjectID: projectID, Entry: entry})
		}
	}

	for _, personID := range result.Directory.IDs() {
		name, _ := result.Directory.Name(personID)
		for _, item := range lost.Expenses {
			if item.PersonID != personID {
				continue
			}
			r.log.Error(
				"Not invoiced: person_id %s name %s expense_id %s project %s date %s cost %s",
				personID, name, item.Expense.ID, item.ProjectID, item.Expense.Date, item.Expense.Cost.String(),
			)
		}
		for _, item := range lost.TimeEntries {
			if item.Entry.PersonID != personID {
				continue
			}
			r.log.Error(
				"Not invoiced: time entry of person_id %s name %s time_entry_id %s project %s date %s time %s",
				personID, name, item.Entry.ID, item.ProjectID, item.Entry.Date, item.Entry.HoursDecimal.String(),
			)
		}
	}

	for _, item := range lost.Expenses {
		if item.PersonID == "" {
			r.log.Error(
				"Not invoiced: expense_id %s project %s of unknown person '%s' date %s cost %s",
				item.Expense.ID, item.ProjectID, item.Expense.Name, item.Expense.Date, item.Expense.Cost.String(),
			)
		}
	}
	for _, item := range lost.TimeEntries {
		if _, known := result.Directory.Name(item.Entry.PersonID); !known {
			r.log.Error(
				"Not invoiced: time entry of unknown person_id %s name %s time_entry_id %s project %s date %s time %s",
				item.Entry.PersonID, item.Entry.PersonName(), item.Entry.ID, item.ProjectID, item.Entry.Date, item.Entry.HoursDecimal.String(),
			)
		}
	}

	if lost.Empty() {
		r.log.Info("No uninvoiced items left")
	}
	return lost
}
