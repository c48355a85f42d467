package billing

import (
	"context"

	"github.com/tuumbleweed/xerr"

	tw "teamwork-invoicer/src/pkg/teamwork"
)

/*
invoiceExpenses bills the fixed expenses of a project.

billing is false when Teamwork refused a fixed-expense invoice with a non-2xx status;
the remaining fixed-expense invoices of the project are not attempted then.
*/
func (r *Runner) invoiceExpenses(ctx context.Context, projectID tw.ID, result *Result) (billing bool, e *xerr.Error) {
	r.log.Info("Getting fixed expenses of project %s", projectID)
	expenses, e := r.api.ListExpenses(ctx, projectID)
	if e != nil {
		r.log.Error("API error (get expenses, project %s)! Aborting.", projectID)
		return false, e
	}

	byPerson := newGroup[tw.ID]()
	for _, expense := range expenses {
		if expense.InvoiceID != "" {
			continue
		}
		day, dayErr := expense.Day()
		if dayErr != nil {
			r.log.Error("Expense %s of project %s has an unreadable date '%s', skipped", expense.ID, projectID, expense.Date)
			continue
		}
		if !r.inRange(day) {
			continue
		}

		personID, known := result.Directory.ID(expense.Name)
		if !known {
			r.log.Error(
				"Unable to identify the person of a fixed expense. Project %s. Expense: name %s, date %s, description %s, created by %s, cost %s.",
				r.api.ProjectURL(projectID), expense.Name, expense.Date, expense.Description, expense.CreatedByUserLastname, expense.Cost.String(),
			)
			continue
		}

		byPerson.add(personID, expense.ID)
		result.Totals.AddExpense(expense.Name, expense.Cost.Decimal)
	}

	for _, personID := range byPerson.keys {
		name, _ := result.Directory.Name(personID)
		number := "Fix_" + name
		ids := byPerson.items[personID]

		created, e := r.api.CreateInvoice(ctx, projectID, r.shell(number))
		if e != nil {
			if created.HTTPStatus != 0 && !okStatus(created.HTTPStatus) {
				r.log.Error("API error (create invoice for fixed expenses for %s in project %s, status %d)!", number, projectID, created.HTTPStatus)
				return false, nil
			}
			r.log.Error("API error (create invoice for fixed expenses for %s in project %s)! Aborting.", number, projectID)
			return false, e
		}
		if created.Status != tw.StatusOK {
			return false, fatal(r.log, "API error (create invoice for fixed expenses for %s in project %s, STATUS '%s')! Aborting.", number, projectID, created.Status)
		}

		status, e := r.api.AddLineItems(ctx, created.ID, tw.LineItemsExpenses, ids)
		if e != nil {
			r.log.Error("API error (add fixed expenses %v to invoice %s, project %s, person %s, STATUS '%s')! Aborting.", ids, created.ID, projectID, name, status)
			return false, e
		}

		for _, id := range ids {
			result.invoicedExpenses[id] = true
		}
		result.Invoices = append(result.Invoices, CreatedInvoice{
			ProjectID: projectID, PersonID: personID, ID: created.ID, Number: number,
			Kind: tw.LineItemsExpenses, Items: ids,
		})
		r.log.Info("Invoice %s (%s) created with %d fixed expenses", created.ID, number, len(ids))
	}
	return true, nil
}
