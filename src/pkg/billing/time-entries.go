package billing

import (
	"context"

	"github.com/tuumbleweed/xerr"

	"teamwork-invoicer/src/pkg/pdf"
	tw "teamwork-invoicer/src/pkg/teamwork"
)

/*
billableEntries keeps the entries that are billable, carry no invoice and fall into
[from, to] by their calendar day. Entries with an unreadable date are returned separately.
*/
func (r *Runner) billableEntries(entries []tw.TimeEntry) (kept, unreadable []tw.TimeEntry) {
	for _, entry := range entries {
		if !entry.Uninvoiced() {
			continue
		}
		day, dayErr := entry.Day()
		if dayErr != nil {
			unreadable = append(unreadable, entry)
			continue
		}
		if r.inRange(day) {
			kept = append(kept, entry)
		}
	}
	return kept, unreadable
}

func (r *Runner) invoiceTime(ctx context.Context, projectID tw.ID, rates tw.Rates, result *Result) (e *xerr.Error) {
	r.log.Info("Getting time entries of project %s", projectID)
	entries, e := r.api.ListTimeEntries(ctx, projectID, r.cfg.StartDate, r.cfg.EndDate)
	if e != nil {
		r.log.Error("API error (get time entries, project %s)! Aborting.", projectID)
		return e
	}

	kept, unreadable := r.billableEntries(entries)
	for _, entry := range unreadable {
		r.log.Error("Time entry %s of project %s has an unreadable date '%s', skipped", entry.ID, projectID, entry.Date)
	}

	byPerson := newGroup[tw.TimeEntry]()
	for _, entry := range kept {
		rate, found := rates.Rate(entry.PersonID)
		if !found {
			return fatal(r.log, "No rate for person %s (%s) in project %s, time entry %s! Aborting.", entry.PersonID, entry.PersonName(), projectID, entry.ID)
		}
		minutes := entry.TotalMinutes()
		result.Totals.AddTime(entry.PersonID, minutes, EntryCost(minutes, rate))
		byPerson.add(entry.PersonID, entry)
	}
	r.log.Debug("Project %s: %d of %d time entries are billable", projectID, len(kept), len(entries))

	r.log.Info("Creating time invoices of project %s", projectID)
	for _, personID := range byPerson.keys {
		personEntries := byPerson.items[personID]
		name := personEntries[0].PersonName()
		ids := make([]tw.ID, len(personEntries))
		for i, entry := range personEntries {
			ids[i] = entry.ID
		}

		created, e := r.api.CreateInvoice(ctx, projectID, r.shell(name))
		if e != nil {
			r.log.Error("API error (create invoice for time entries, project %s, person %s, status %d)! Aborting.", projectID, name, created.HTTPStatus)
			return e
		}
		if created.Status != tw.StatusOK {
			return fatal(r.log, "API error (create invoice for time entries, project %s, person %s, STATUS '%s')! Aborting.", projectID, name, created.Status)
		}

		status, e := r.api.AddLineItems(ctx, created.ID, tw.LineItemsTimelogs, ids)
		if e != nil {
			r.log.Error("API error (add time logs %v to invoice %s, project %s, STATUS '%s')! Aborting.", ids, created.ID, projectID, status)
			return e
		}
		for _, id := range ids {
			result.invoicedTime[id] = true
		}

		invoice := CreatedInvoice{
			ProjectID: projectID, PersonID: personID, ID: created.ID, Number: name,
			Kind: tw.LineItemsTimelogs, Items: ids,
		}
		r.log.Info("Invoice %s (%s) created with %d time entries", created.ID, name, len(ids))

		if r.renderer != nil && r.cfg.PDFDir != "" {
			invoice.PDFPath = r.renderPDF(ctx, projectID, name, personEntries, rates)
		}
		result.Invoices = append(result.Invoices, invoice)

		e = r.wait(ctx)
		if e != nil {
			return e
		}
	}
	return nil
}

/*
renderPDF builds the invoice document. Failures are logged and never abort the run.
*/
func (r *Runner) renderPDF(ctx context.Context, projectID tw.ID, name string, entries []tw.TimeEntry, rates tw.Rates) (path string) {
	doc := pdf.Invoice{
		Name:     name,
		Project:  string(projectID),
		Date:     r.Now().UTC(),
		Currency: r.cfg.Currency,
	}
	for _, entry := range entries {
		date, dateErr := entry.Timestamp()
		if dateErr != nil {
			r.log.Error("PDF save error (project %s, person %s): time entry %s has date '%s'", projectID, name, entry.ID, entry.Date)
			return ""
		}
		rate, _ := rates.Rate(entry.PersonID)
		doc.Items = append(doc.Items, pdf.LineItem{
			Date:    date,
			Name:    name,
			Task:    entry.TodoItemName,
			Comment: entry.Description,
			Hours:   entry.HoursDecimal.Decimal,
			Cost:    entry.HoursDecimal.Mul(rate),
		})
	}

	path, e := r.renderer.Render(ctx, doc, r.cfg.PDFDir)
	if e != nil {
		r.log.Error("PDF save error (project %s, person %s): %v", projectID, name, e)
		return ""
	}
	r.log.Info("PDF saved to '%s'", path)
	return path
}
