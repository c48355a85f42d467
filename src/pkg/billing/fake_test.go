package billing_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tuumbleweed/xerr"

	"teamwork-invoicer/src/pkg/billing"
	"teamwork-invoicer/src/pkg/logging"
	"teamwork-invoicer/src/pkg/pdf"
	tw "teamwork-invoicer/src/pkg/teamwork"
)

type attached struct {
	invoiceID tw.ID
	kind      tw.LineItemKind
	ids       []tw.ID
}

/*
fakeAPI serves canned data and records invoices. Unlike the sandbox it applies no
server side filtering, so the runner's own filters are exercised.
*/
type fakeAPI struct {
	people      map[tw.ID][]tw.Person
	expenses    map[tw.ID][]tw.Expense
	rates       map[tw.ID]tw.Rates
	timeEntries map[tw.ID][]tw.TimeEntry

	rejectInvoices map[tw.ID]int     // project -> HTTP status returned on invoice creation
	invoiceStatus  map[string]string // invoice number -> STATUS override
	lineItemStatus map[tw.LineItemKind]string // STATUS returned when attaching items of a kind

	nextID   int
	shells   map[tw.ID]tw.InvoiceShell
	created  []tw.ID
	attached []attached
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		people:         map[tw.ID][]tw.Person{},
		expenses:       map[tw.ID][]tw.Expense{},
		rates:          map[tw.ID]tw.Rates{},
		timeEntries:    map[tw.ID][]tw.TimeEntry{},
		rejectInvoices: map[tw.ID]int{},
		invoiceStatus:  map[string]string{},
		lineItemStatus: map[tw.LineItemKind]string{},
		nextID:         500,
		shells:         map[tw.ID]tw.InvoiceShell{},
	}
}

func (f *fakeAPI) ListPeople(_ context.Context, projectID tw.ID) ([]tw.Person, *xerr.Error) {
	return f.people[projectID], nil
}

func (f *fakeAPI) ListExpenses(_ context.Context, projectID tw.ID) ([]tw.Expense, *xerr.Error) {
	return f.expenses[projectID], nil
}

func (f *fakeAPI) ListRates(_ context.Context, projectID tw.ID) (tw.Rates, *xerr.Error) {
	return f.rates[projectID], nil
}

func (f *fakeAPI) ListTimeEntries(_ context.Context, projectID tw.ID, _, _ time.Time) ([]tw.TimeEntry, *xerr.Error) {
	return f.timeEntries[projectID], nil
}

func (f *fakeAPI) CreateInvoice(_ context.Context, projectID tw.ID, shell tw.InvoiceShell) (tw.InvoiceResult, *xerr.Error) {
	if status, reject := f.rejectInvoices[projectID]; reject {
		return tw.InvoiceResult{HTTPStatus: status}, xerr.NewError(fmt.Errorf("status is %d", status), "API error", projectID)
	}
	id := tw.ID(strconv.Itoa(f.nextID))
	f.nextID++
	f.shells[id] = shell
	f.created = append(f.created, id)

	status := tw.StatusOK
	if override, found := f.invoiceStatus[shell.Number]; found {
		status = override
	}
	return tw.InvoiceResult{HTTPStatus: http.StatusCreated, Status: status, ID: id}, nil
}

func (f *fakeAPI) AddLineItems(_ context.Context, invoiceID tw.ID, kind tw.LineItemKind, ids []tw.ID) (string, *xerr.Error) {
	if status, found := f.lineItemStatus[kind]; found && status != tw.StatusOK {
		return status, xerr.NewError(fmt.Errorf("STATUS is '%s'", status), "Line items were not added", invoiceID)
	}
	f.attached = append(f.attached, attached{invoiceID: invoiceID, kind: kind, ids: append([]tw.ID(nil), ids...)})
	return tw.StatusOK, nil
}

func (f *fakeAPI) ProjectURL(projectID tw.ID) string {
	return "https://test123.teamwork.com/#/projects/" + string(projectID)
}

// attachedFor returns every id attached with kind to invoices numbered number.
func (f *fakeAPI) attachedFor(number string, kind tw.LineItemKind) (ids []tw.ID) {
	for _, a := range f.attached {
		if a.kind == kind && f.shells[a.invoiceID].Number == number {
			ids = append(ids, a.ids...)
		}
	}
	return ids
}

func person(id, first, last string) tw.Person {
	return tw.Person{ID: tw.ID(id), FirstName: first, LastName: last}
}

func timeEntry(id, personID, first, last, day string, hours, minutes tw.Count) tw.TimeEntry {
	return tw.TimeEntry{
		ID: tw.ID(id), PersonID: tw.ID(personID), PersonFirstName: first, PersonLastName: last,
		Date: day + "T10:00:00Z", Hours: hours, Minutes: minutes, IsBillable: "1",
		HoursDecimal: tw.NewAmount(decimal.NewFromInt(int64(hours)).Add(decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)))),
	}
}

func expense(id, name, day, cost string) tw.Expense {
	return tw.Expense{ID: tw.ID(id), Name: name, Date: day, Cost: tw.NewAmount(decimal.RequireFromString(cost))}
}

func rates(pairs ...string) tw.Rates {
	r := tw.Rates{}
	for i := 0; i+1 < len(pairs); i += 2 {
		r[tw.ID(pairs[i])] = decimal.RequireFromString(pairs[i+1])
	}
	return r
}

type harness struct {
	api    billing.API
	runner *billing.Runner
	errors *bytes.Buffer
}

func newHarness(api billing.API) harness {
	return newRenderingHarness(api, nil, "")
}

func newRenderingHarness(api billing.API, renderer pdf.Renderer, pdfDir string) harness {
	errs := &bytes.Buffer{}
	runner := billing.NewRunner(api, logging.New(nil, errs), renderer, billing.Config{
		StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		PDFDir:    pdfDir,
	})
	runner.Sleep = func(context.Context, time.Duration) error { return nil }
	runner.Now = func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC) }
	return harness{api: api, runner: runner, errors: errs}
}

// fakeRenderer records what it was asked to render and fails when err is set.
type fakeRenderer struct {
	err   error
	calls []pdf.Invoice
}

func (f *fakeRenderer) Render(_ context.Context, invoice pdf.Invoice, dir string) (string, *xerr.Error) {
	f.calls = append(f.calls, invoice)
	if f.err != nil {
		return "", xerr.NewError(f.err, "Failed to save PDF", dir)
	}
	return filepath.Join(dir, pdf.FileName(invoice)), nil
}

func (h harness) errorLines() []string {
	text := strings.TrimSpace(h.errors.String())
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
