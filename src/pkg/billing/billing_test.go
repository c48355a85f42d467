package billing_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"teamwork-invoicer/src/pkg/billing"
	"teamwork-invoicer/src/pkg/logging"
	"teamwork-invoicer/src/pkg/sandbox"
	tw "teamwork-invoicer/src/pkg/teamwork"
)

func TestAliceTanTimeInvoice(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.people["1"] = []tw.Person{person("10", "Alice", "Tan")}
	api.rates["1"] = rates("10", "30")
	api.timeEntries["1"] = []tw.TimeEntry{
		timeEntry("101", "10", "Alice", "Tan", "2024-02-05", 1, 0),
		timeEntry("102", "10", "Alice", "Tan", "2024-02-06", 0, 30),
	}
	h := newHarness(api)

	result, e := h.runner.Run(context.Background(), []tw.ID{"1"})
	if e != nil {
		t.Fatalf("run failed: %v", e)
	}

	ids := api.attachedFor("Alice Tan", tw.LineItemsTimelogs)
	if len(ids) != 2 || ids[0] != "101" || ids[1] != "102" {
		t.Fatalf("expected one invoice with 101,102, got %v", ids)
	}
	if len(api.created) != 1 {
		t.Fatalf("expected exactly one invoice, got %d", len(api.created))
	}
	if got := result.Totals.Cost["10"].StringFixed(2); got != "45.00" {
		t.Fatalf("cost = %s, want 45.00", got)
	}
	if got := result.Totals.Minutes["10"]; got != 90 {
		t.Fatalf("minutes = %d, want 90", got)
	}
	shell := api.shells[api.created[0]]
	if shell.CurrencyCode != "USD" || shell.DisplayDate != "20240301" || shell.FixedCost != "" {
		t.Fatalf("unexpected invoice shell %+v", shell)
	}
	if lines := h.errorLines(); len(lines) != 0 {
		t.Fatalf("unexpected errors %v", lines)
	}
}

func TestOnlyUninvoicedBillableEntriesInRangeAreAttached(t *testing.T) {
	t.Parallel()

	invoicedNo := timeEntry("201", "10", "Alice", "Tan", "2024-02-05", 1, 0)
	invoicedNo.InvoiceNo = "INV-1"
	withStatus := timeEntry("202", "10", "Alice", "Tan", "2024-02-05", 1, 0)
	withStatus.InvoiceStatus = "draft"
	notBillable := timeEntry("203", "10", "Alice", "Tan", "2024-02-05", 1, 0)
	notBillable.IsBillable = "0"
	before := timeEntry("204", "10", "Alice", "Tan", "2024-01-31", 1, 0)
	after := timeEntry("205", "10", "Alice", "Tan", "2024-03-01", 1, 0)
	firstDay := timeEntry("206", "10", "Alice", "Tan", "2024-02-01", 0, 15)
	lastDay := timeEntry("207", "11", "Bob", "Ray", "2024-02-29", 0, 45)

	api := newFakeAPI()
	api.people["1"] = []tw.Person{person("10", "Alice", "Tan"), person("11", "Bob", "Ray")}
	api.rates["1"] = rates("10", "40", "11", "20")
	api.timeEntries["1"] = []tw.TimeEntry{invoicedNo, withStatus, notBillable, before, after, firstDay, lastDay}
	h := newHarness(api)

	result, e := h.runner.Run(context.Background(), []tw.ID{"1"})
	if e != nil {
		t.Fatalf("run failed: %v", e)
	}

	seen := map[tw.ID]int{}
	for _, a := range api.attached {
		for _, id := range a.ids {
			seen[id]++
		}
	}
	if len(seen) != 2 || seen["206"] != 1 || seen["207"] != 1 {
		t.Fatalf("unexpected attachments %v", seen)
	}
	if result.Totals.Cost["10"].StringFixed(2) != "10.00" || result.Totals.Cost["11"].StringFixed(2) != "15.00" {
		t.Fatalf("unexpected costs %v", result.Totals.Cost)
	}
}

func TestCostIsSumOfRoundedEntries(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.people["1"] = []tw.Person{person("10", "Alice", "Tan")}
	api.rates["1"] = rates("10", "10")
	api.timeEntries["1"] = []tw.TimeEntry{
		timeEntry("301", "10", "Alice", "Tan", "2024-02-05", 0, 7),
		timeEntry("302", "10", "Alice", "Tan", "2024-02-06", 0, 7),
		timeEntry("303", "10", "Alice", "Tan", "2024-02-07", 0, 7),
	}
	h := newHarness(api)

	result, e := h.runner.Run(context.Background(), []tw.ID{"1"})
	if e != nil {
		t.Fatalf("run failed: %v", e)
	}
	// 7 minutes at 10/hour is 1.1666.. -> 1.17, three times -> 3.51 (not 3.50)
	if got := result.Totals.Cost["10"].StringFixed(2); got != "3.51" {
		t.Fatalf("cost = %s, want 3.51", got)
	}
}

func TestEntryCost(t *testing.T) {
	t.Parallel()

	cases := []struct {
		minutes int64
		rate    string
		want    string
	}{
		{60, "30", "30.00"},
		{30, "30", "15.00"},
		{7, "10", "1.17"},
		{1, "0.5", "0.01"},
		{0, "99", "0.00"},
	}
	for _, tc := range cases {
		got := billing.EntryCost(tc.minutes, decimal.RequireFromString(tc.rate)).StringFixed(2)
		if got != tc.want {
			t.Fatalf("EntryCost(%d, %s) = %s, want %s", tc.minutes, tc.rate, got, tc.want)
		}
	}
}

func TestUnmatchedExpenseLogsOneError(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.people["1"] = []tw.Person{person("10", "Alice", "Tan")}
	api.expenses["1"] = []tw.Expense{
		expense("401", "Alice Tan", "20240210", "12.50"),
		expense("402", "Ghost Person", "20240211", "99.00"),
	}
	api.rates["1"] = rates("10", "30")
	h := newHarness(api)

	result, e := h.runner.Run(context.Background(), []tw.ID{"1"})
	if e != nil {
		t.Fatalf("run failed: %v", e)
	}

	lines := h.errorLines()
	if len(lines) != 1 {
		t.Fatalf("expected exactly one error line, got %v", lines)
	}
	if !strings.Contains(lines[0], "Ghost Person") || !strings.Contains(lines[0], "#/projects/1") {
		t.Fatalf("error line lacks expense details: %s", lines[0])
	}
	if got := api.attachedFor("Fix_Alice Tan", tw.LineItemsExpenses); len(got) != 1 || got[0] != "401" {
		t.Fatalf("unexpected fixed expense attachments %v", got)
	}
	if _, found := result.Totals.Expenses["Ghost Person"]; found {
		t.Fatalf("unmatched expense must not contribute to totals")
	}
	if got := result.Totals.Expenses["Alice Tan"].StringFixed(2); got != "12.50" {
		t.Fatalf("expenses = %s, want 12.50", got)
	}
}

func TestExpensesFilteredByInvoiceAndDate(t *testing.T) {
	t.Parallel()

	invoiced := expense("501", "Alice Tan", "20240210", "5")
	invoiced.InvoiceID = "77"

	api := newFakeAPI()
	api.people["1"] = []tw.Person{person("10", "Alice", "Tan")}
	api.expenses["1"] = []tw.Expense{
		invoiced,
		expense("502", "Alice Tan", "20240131", "5"),
		expense("503", "Alice Tan", "20240229", "7.255"),
	}
	h := newHarness(api)

	result, e := h.runner.Run(context.Background(), []tw.ID{"1"})
	if e != nil {
		t.Fatalf("run failed: %v", e)
	}
	if got := api.attachedFor("Fix_Alice Tan", tw.LineItemsExpenses); len(got) != 1 || got[0] != "503" {
		t.Fatalf("unexpected fixed expense attachments %v", got)
	}
	if got := result.Totals.Expenses["Alice Tan"].StringFixed(2); got != "7.26" {
		t.Fatalf("expenses = %s, want 7.26", got)
	}
}

func TestRefusedFixedExpenseInvoiceSkipsProject(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	for _, project := range []tw.ID{"2", "3"} {
		api.people[project] = []tw.Person{person("10", "Alice", "Tan")}
		api.expenses[project] = []tw.Expense{expense("6"+string(project), "Alice Tan", "20240210", "10")}
		api.rates[project] = rates("10", "30")
		api.timeEntries[project] = []tw.TimeEntry{timeEntry("7"+string(project), "10", "Alice", "Tan", "2024-02-05", 1, 0)}
	}
	api.rejectInvoices["2"] = http.StatusForbidden
	h := newHarness(api)

	result, e := h.runner.Run(context.Background(), []tw.ID{"2", "3"})
	if e != nil {
		t.Fatalf("a refused fixed expense invoice must not abort the run: %v", e)
	}
	if len(result.SkippedProjects) != 1 || result.SkippedProjects[0] != "2" {
		t.Fatalf("unexpected skipped projects %v", result.SkippedProjects)
	}
	for _, inv := range result.Invoices {
		if inv.ProjectID == "2" {
			t.Fatalf("no invoice expected for project 2, got %+v", inv)
		}
	}
	if len(result.Invoices) != 2 {
		t.Fatalf("project 3 should get a fixed and a time invoice, got %+v", result.Invoices)
	}
	if _, found := result.Totals.Minutes["10"]; !found || result.Totals.Minutes["10"] != 60 {
		t.Fatalf("only project 3 time should count, got %d minutes", result.Totals.Minutes["10"])
	}
	if len(h.errorLines()) != 1 {
		t.Fatalf("expected one error line for the refused invoice, got %v", h.errorLines())
	}
}

func TestTimeInvoiceStatusNotOKAborts(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.people["1"] = []tw.Person{person("10", "Alice", "Tan")}
	api.rates["1"] = rates("10", "30")
	api.timeEntries["1"] = []tw.TimeEntry{timeEntry("101", "10", "Alice", "Tan", "2024-02-05", 1, 0)}
	api.invoiceStatus["Alice Tan"] = "Error"
	h := newHarness(api)

	_, e := h.runner.Run(context.Background(), []tw.ID{"1", "2"})
	if e == nil {
		t.Fatalf("expected the run to abort")
	}
	if len(api.attached) != 0 {
		t.Fatalf("nothing should be attached to a failed invoice")
	}
}

func TestMissingRateAborts(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.people["1"] = []tw.Person{person("10", "Alice", "Tan")}
	api.rates["1"] = rates()
	api.timeEntries["1"] = []tw.TimeEntry{timeEntry("101", "10", "Alice", "Tan", "2024-02-05", 1, 0)}
	h := newHarness(api)

	if _, e := h.runner.Run(context.Background(), []tw.ID{"1"}); e == nil {
		t.Fatalf("expected missing rate to abort the run")
	}
	if len(api.created) != 0 {
		t.Fatalf("no invoice expected")
	}
}

func TestDirectoryFirstSeenWins(t *testing.T) {
	t.Parallel()

	dir := billing.NewDirectory()
	dir.Add(person("10", "Alice", "Tan"))
	dir.Add(person("11", "Alice", "Tan"))
	dir.Add(person("10", "Alicia", "Tan"))
	dir.Add(person("12", "Bob", "Ray"))

	if name, _ := dir.Name("10"); name != "Alice Tan" {
		t.Fatalf("id 10 resolves to %q", name)
	}
	if id, _ := dir.ID("Alice Tan"); id != "10" {
		t.Fatalf("Alice Tan resolves to %q", id)
	}
	if id, _ := dir.ID("Alicia Tan"); id != "10" {
		t.Fatalf("Alicia Tan resolves to %q", id)
	}
	ids := dir.IDs()
	if len(ids) != 3 || ids[0] != "10" || ids[1] != "11" || ids[2] != "12" {
		t.Fatalf("unexpected order %v", ids)
	}
}

func TestCheckLostAcrossProjects(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.people["1"] = []tw.Person{person("10", "Alice", "Tan")}
	api.people["2"] = []tw.Person{person("11", "Bob", "Ray")}
	api.rates["1"] = rates("10", "30")
	api.rates["2"] = rates("11", "30")
	api.timeEntries["1"] = []tw.TimeEntry{timeEntry("101", "10", "Alice", "Tan", "2024-02-05", 1, 0)}
	api.timeEntries["2"] = []tw.TimeEntry{timeEntry("201", "11", "Bob", "Ray", "2024-02-05", 1, 0)}
	api.rejectInvoices["2"] = http.StatusForbidden
	api.expenses["2"] = []tw.Expense{expense("801", "Bob Ray", "20240207", "3")}
	h := newHarness(api)

	result, e := h.runner.Run(context.Background(), []tw.ID{"1", "2"})
	if e != nil {
		t.Fatalf("run failed: %v", e)
	}
	before := len(h.errorLines())

	lost := h.runner.CheckLost(context.Background(), result)
	if len(lost.Expenses) != 1 || lost.Expenses[0].Expense.ID != "801" || lost.Expenses[0].PersonID != "11" {
		t.Fatalf("unexpected lost expenses %+v", lost.Expenses)
	}
	if len(lost.TimeEntries) != 1 || lost.TimeEntries[0].Entry.ID != "201" {
		t.Fatalf("unexpected lost time entries %+v", lost.TimeEntries)
	}
	if got := len(h.errorLines()) - before; got != 2 {
		t.Fatalf("expected two follow-up lines, got %d", got)
	}
}

func TestPDFFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	for _, project := range []tw.ID{"1", "2"} {
		api.people[project] = []tw.Person{person("10", "Alice", "Tan")}
		api.rates[project] = rates("10", "30")
		api.timeEntries[project] = []tw.TimeEntry{timeEntry("1"+string(project), "10", "Alice", "Tan", "2024-02-05", 1, 0)}
	}
	renderer := &fakeRenderer{err: errors.New("disk full")}
	h := newRenderingHarness(api, renderer, t.TempDir())

	result, e := h.runner.Run(context.Background(), []tw.ID{"1", "2"})
	if e != nil {
		t.Fatalf("a PDF failure must not abort the run: %v", e)
	}
	if len(result.Invoices) != 2 || len(renderer.calls) != 2 {
		t.Fatalf("expected 2 invoices and 2 render calls, got %d and %d", len(result.Invoices), len(renderer.calls))
	}
	for _, inv := range result.Invoices {
		if inv.PDFPath != "" {
			t.Fatalf("failed render should leave no path, got %+v", inv)
		}
	}
	lines := h.errorLines()
	if len(lines) != 2 {
		t.Fatalf("expected one error line per failed PDF, got %v", lines)
	}
	for _, line := range lines {
		if !strings.Contains(line, "PDF save error") {
			t.Fatalf("unexpected error line %q", line)
		}
	}
}

func TestRenderedPDFPathIsRecorded(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.people["1"] = []tw.Person{person("10", "Alice", "Tan")}
	api.rates["1"] = rates("10", "30")
	api.timeEntries["1"] = []tw.TimeEntry{
		timeEntry("101", "10", "Alice", "Tan", "2024-02-05", 1, 0),
		timeEntry("102", "10", "Alice", "Tan", "2024-02-06", 0, 30),
	}
	renderer := &fakeRenderer{}
	dir := t.TempDir()
	h := newRenderingHarness(api, renderer, dir)

	result, e := h.runner.Run(context.Background(), []tw.ID{"1"})
	if e != nil {
		t.Fatalf("run failed: %v", e)
	}
	if len(result.Invoices) != 1 || !strings.HasPrefix(result.Invoices[0].PDFPath, dir) {
		t.Fatalf("expected a PDF path under %s, got %+v", dir, result.Invoices)
	}
	if len(renderer.calls) != 1 || len(renderer.calls[0].Items) != 2 {
		t.Fatalf("expected one document with two lines, got %+v", renderer.calls)
	}
	doc := renderer.calls[0]
	if doc.Name != "Alice Tan" || doc.Currency != "USD" || doc.Total().StringFixed(2) != "45.00" {
		t.Fatalf("unexpected document %+v", doc)
	}
	if lines := h.errorLines(); len(lines) != 0 {
		t.Fatalf("unexpected errors %v", lines)
	}
}

func TestFixedExpenseLineItemsNotOKAborts(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.people["1"] = []tw.Person{person("10", "Alice", "Tan")}
	api.expenses["1"] = []tw.Expense{expense("601", "Alice Tan", "20240210", "10")}
	api.rates["1"] = rates("10", "30")
	api.timeEntries["1"] = []tw.TimeEntry{timeEntry("101", "10", "Alice", "Tan", "2024-02-05", 1, 0)}
	api.lineItemStatus[tw.LineItemsExpenses] = "Error"
	h := newHarness(api)

	result, e := h.runner.Run(context.Background(), []tw.ID{"1", "2"})
	if e == nil {
		t.Fatalf("expected the run to abort")
	}
	if len(api.created) != 1 || len(api.attached) != 0 {
		t.Fatalf("expected one shell and nothing attached, got %v created, %v attached", api.created, api.attached)
	}
	if len(result.Invoices) != 0 || result.ExpenseInvoiced("601") {
		t.Fatalf("expense must not be recorded as invoiced, got %+v", result.Invoices)
	}
	lines := h.errorLines()
	if len(lines) != 1 || !strings.Contains(lines[0], "add fixed expenses") || !strings.Contains(lines[0], "STATUS 'Error'") {
		t.Fatalf("unexpected error lines %v", lines)
	}
}

func TestRefusedTimeInvoiceAborts(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	for _, project := range []tw.ID{"1", "2"} {
		api.people[project] = []tw.Person{person("10", "Alice", "Tan")}
		api.rates[project] = rates("10", "30")
		api.timeEntries[project] = []tw.TimeEntry{timeEntry("1"+string(project), "10", "Alice", "Tan", "2024-02-05", 1, 0)}
	}
	api.rejectInvoices["1"] = http.StatusInternalServerError
	h := newHarness(api)

	result, e := h.runner.Run(context.Background(), []tw.ID{"1", "2"})
	if e == nil {
		t.Fatalf("a refused time invoice must abort the run")
	}
	if len(result.SkippedProjects) != 0 {
		t.Fatalf("time invoice failures do not skip, got %v", result.SkippedProjects)
	}
	if len(api.created) != 0 || len(result.Invoices) != 0 {
		t.Fatalf("project 2 must not be reached, got %v created", api.created)
	}
	lines := h.errorLines()
	if len(lines) != 1 || !strings.Contains(lines[0], "create invoice for time entries") || !strings.Contains(lines[0], "status 500") {
		t.Fatalf("unexpected error lines %v", lines)
	}
}

func TestRefusedFixedExpenseInvoiceLogsOnceThroughClient(t *testing.T) {
	t.Parallel()

	fixture := sandbox.Fixture{
		People:          map[tw.ID][]tw.Person{"2": {person("10", "Alice", "Tan")}},
		Expenses:        map[tw.ID][]tw.Expense{"2": {expense("602", "Alice Tan", "20240210", "10")}},
		DisabledBilling: []tw.ID{"2"},
	}
	cfg := sandbox.DefaultValueConfig()
	cfg.APIKey = "test-key"
	cfg.MiddlewareRateLimit = 0
	ts := httptest.NewServer(sandbox.New(fixture, cfg).Handler())
	t.Cleanup(ts.Close)

	errs := &bytes.Buffer{}
	log := logging.New(nil, errs)
	client := tw.New(tw.Options{BaseURL: ts.URL, APIKey: cfg.APIKey, Log: log, Timeout: 5 * time.Second})
	runner := billing.NewRunner(client, log, nil, billing.Config{
		StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	})
	runner.Sleep = func(context.Context, time.Duration) error { return nil }

	result, e := runner.Run(context.Background(), []tw.ID{"2"})
	if e != nil {
		t.Fatalf("run failed: %v", e)
	}
	if len(result.SkippedProjects) != 1 {
		t.Fatalf("expected project 2 to be skipped, got %v", result.SkippedProjects)
	}
	lines := strings.Split(strings.TrimSpace(errs.String()), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "status 403") {
		t.Fatalf("expected a single error line, got %v", lines)
	}
	if log.ErrorCount() != 1 {
		t.Fatalf("expected one counted error, got %d", log.ErrorCount())
	}
}
