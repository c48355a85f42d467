/*
Package billing turns fixed expenses and billable time entries of Teamwork projects
into invoices, and keeps the totals the report is built from.

For every project, in order:
 1. people are added to the Directory
 2. uninvoiced expenses in the date range are grouped per person
 3. one "Fix_{name}" invoice per person gets the expenses attached
 4. rates are loaded
 5. uninvoiced billable time entries in the date range are priced and grouped per person
 6. one "{first} {last}" invoice per person gets the time logs attached, plus an optional PDF

A project that refuses fixed-expense invoices (non-2xx) is skipped from step 4 on.
Every other API failure aborts the run.
*/
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/tuumbleweed/xerr"

	"teamwork-invoicer/src/pkg/pdf"
	tw "teamwork-invoicer/src/pkg/teamwork"
	"teamwork-invoicer/src/pkg/util"
)

// API is the part of the Teamwork client the runner needs.
type API interface {
	ListPeople(ctx context.Context, projectID tw.ID) ([]tw.Person, *xerr.Error)
	ListExpenses(ctx context.Context, projectID tw.ID) ([]tw.Expense, *xerr.Error)
	ListRates(ctx context.Context, projectID tw.ID) (tw.Rates, *xerr.Error)
	ListTimeEntries(ctx context.Context, projectID tw.ID, from, to time.Time) ([]tw.TimeEntry, *xerr.Error)
	CreateInvoice(ctx context.Context, projectID tw.ID, shell tw.InvoiceShell) (tw.InvoiceResult, *xerr.Error)
	AddLineItems(ctx context.Context, invoiceID tw.ID, kind tw.LineItemKind, ids []tw.ID) (string, *xerr.Error)
	ProjectURL(projectID tw.ID) string
}

// Logger is implemented by logging.Logger.
type Logger interface {
	Info(format string, args ...any)
	Debug(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type Config struct {
	StartDate time.Time
	EndDate   time.Time
	Currency  string
	PDFDir    string
	Delay     time.Duration
}

type Runner struct {
	api      API
	log      Logger
	renderer pdf.Renderer
	cfg      Config

	// replaceable in tests
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

/*
NewRunner wires a runner. renderer may be nil; PDFs are rendered only when both
renderer and cfg.PDFDir are set.
*/
func NewRunner(api API, log Logger, renderer pdf.Renderer, cfg Config) *Runner {
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &Runner{
		api:      api,
		log:      log,
		renderer: renderer,
		cfg:      cfg,
		Sleep:    util.SleepContext,
		Now:      time.Now,
	}
}

// CreatedInvoice records one invoice made during the run.
type CreatedInvoice struct {
	ProjectID tw.ID
	PersonID  tw.ID
	ID        tw.ID
	Number    string
	Kind      tw.LineItemKind
	Items     []tw.ID
	PDFPath   string
}

/*
Result is everything the run produced. It is returned even when the run aborts,
holding whatever was done up to that point.
*/
type Result struct {
	Directory *Directory
	Totals    *Totals
	Projects  []tw.ID
	Invoices  []CreatedInvoice

	// projects whose fixed-expense invoice was refused
	SkippedProjects []tw.ID

	invoicedExpenses map[tw.ID]bool
	invoicedTime     map[tw.ID]bool
}

func newResult() *Result {
	return &Result{
		Directory:        NewDirectory(),
		Totals:           NewTotals(),
		invoicedExpenses: map[tw.ID]bool{},
		invoicedTime:     map[tw.ID]bool{},
	}
}

// ExpenseInvoiced reports whether the expense was attached to an invoice in this run.
func (r *Result) ExpenseInvoiced(id tw.ID) bool { return r.invoicedExpenses[id] }

// TimeEntryInvoiced reports whether the time entry was attached to an invoice in this run.
func (r *Result) TimeEntryInvoiced(id tw.ID) bool { return r.invoicedTime[id] }

/*
Run processes the projects strictly in order.
*/
func (r *Runner) Run(ctx context.Context, projectIDs []tw.ID) (result *Result, e *xerr.Error) {
	result = newResult()
	for _, projectID := range projectIDs {
		result.Projects = append(result.Projects, projectID)
		r.log.Info("Project %s", projectID)

		e = r.processProject(ctx, projectID, result)
		if e != nil {
			return result, e
		}

		e = r.wait(ctx)
		if e != nil {
			return result, e
		}
	}
	r.log.Info("Processed %d projects, created %d invoices", len(result.Projects), len(result.Invoices))
	return result, nil
}

func (r *Runner) processProject(ctx context.Context, projectID tw.ID, result *Result) (e *xerr.Error) {
	r.log.Info("Getting people of project %s", projectID)
	people, e := r.api.ListPeople(ctx, projectID)
	if e != nil {
		r.log.Error("API error (get people, project %s)! Aborting.", projectID)
		return e
	}
	for _, person := range people {
		result.Directory.Add(person)
	}

	billing, e := r.invoiceExpenses(ctx, projectID, result)
	if e != nil {
		return e
	}
	if !billing {
		result.SkippedProjects = append(result.SkippedProjects, projectID)
		r.log.Warn("Project %s does not accept invoices, skipping its time entries", projectID)
		return nil
	}

	r.log.Info("Getting rates of project %s", projectID)
	rates, e := r.api.ListRates(ctx, projectID)
	if e != nil {
		r.log.Error("API error (get rates, project %s)! Aborting.", projectID)
		return e
	}
	for personID, rate := range rates {
		result.Totals.SetRate(personID, projectID, rate)
	}

	return r.invoiceTime(ctx, projectID, rates, result)
}

func (r *Runner) inRange(day time.Time) bool {
	return !day.Before(r.cfg.StartDate) && !day.After(r.cfg.EndDate)
}

func (r *Runner) shell(number string) tw.InvoiceShell {
	return tw.InvoiceShell{
		Number:       number,
		CurrencyCode: r.cfg.Currency,
		DisplayDate:  r.Now().UTC().Format("20060102"),
	}
}

func (r *Runner) wait(ctx context.Context) (e *xerr.Error) {
	sleepErr := r.Sleep(ctx, r.cfg.Delay)
	if sleepErr != nil {
		return xerr.NewError(sleepErr, "run interrupted", nil)
	}
	return nil
}

func fatal(log Logger, format string, args ...any) *xerr.Error {
	msg := fmt.Sprintf(format, args...)
	log.Error("%s", msg)
	return xerr.NewError(fmt.Errorf("%s", msg), "billing aborted", nil)
}

func okStatus(code int) bool {
	return code >= 200 && code < 300
}
