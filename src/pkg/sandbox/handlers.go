package sandbox

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	tw "teamwork-invoicer/src/pkg/teamwork"
	"teamwork-invoicer/src/pkg/util"
)

func apiError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"STATUS": "Error", "MESSAGE": message})
}

func (s *Server) listProjects(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := c.QueryParam("status")
	projects := []tw.Project{}
	for _, project := range s.fixture.Projects {
		if status != "" && project.Status != "" && !strings.EqualFold(project.Status, status) {
			continue
		}
		projects = append(projects, project)
	}
	return c.JSON(http.StatusOK, map[string]any{"STATUS": "OK", "projects": projects})
}

func (s *Server) listPeople(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	people := s.fixture.People[tw.ID(c.Param("id"))]
	if people == nil {
		people = []tw.Person{}
	}
	return c.JSON(http.StatusOK, map[string]any{"STATUS": "OK", "people": people})
}

func (s *Server) listExpenses(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expenses := s.fixture.Expenses[tw.ID(c.Param("id"))]
	if expenses == nil {
		expenses = []tw.Expense{}
	}
	return c.JSON(http.StatusOK, map[string]any{"STATUS": "OK", "expenses": expenses})
}

func (s *Server) listRates(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rates := s.fixture.Rates[tw.ID(c.Param("id"))]
	if len(rates) == 0 {
		// the real API sends an empty list instead of an empty object
		return c.JSON(http.StatusOK, map[string]any{"STATUS": "OK", "rates": map[string]any{"users": []any{}}})
	}
	users := map[tw.ID]map[string]string{}
	for personID, rate := range rates {
		users[personID] = map[string]string{"rate": rate}
	}
	return c.JSON(http.StatusOK, map[string]any{"STATUS": "OK", "rates": map[string]any{"users": users}})
}

/*
listTimeEntries applies the filters the client sends (billableType, invoicedType,
fromdate, todate) and paginates with X-Page, X-Pages and X-Records.
*/
func (s *Server) listTimeEntries(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var from, to time.Time
	var parseErr error
	if raw := c.QueryParam("fromdate"); raw != "" {
		from, parseErr = time.ParseInLocation("20060102", raw, time.UTC)
		if parseErr != nil {
			return apiError(c, http.StatusBadRequest, "invalid fromdate")
		}
	}
	if raw := c.QueryParam("todate"); raw != "" {
		to, parseErr = time.ParseInLocation("20060102", raw, time.UTC)
		if parseErr != nil {
			return apiError(c, http.StatusBadRequest, "invalid todate")
		}
	}

	matched := []tw.TimeEntry{}
	for _, entry := range s.fixture.TimeEntries[tw.ID(c.Param("id"))] {
		if c.QueryParam("billableType") == "billable" && entry.IsBillable != "1" {
			continue
		}
		if c.QueryParam("invoicedType") == "noninvoiced" && entry.InvoiceNo != "" {
			continue
		}
		day, dayErr := entry.Day()
		if dayErr == nil && ((!from.IsZero() && day.Before(from)) || (!to.IsZero() && day.After(to))) {
			continue
		}
		matched = append(matched, entry)
	}

	pageSize := tw.DefaultPageSize
	if n, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil {
		pageSize = util.Clamp(n, 1, tw.MaxPageSize)
	}
	if s.fixture.PageSize > 0 && s.fixture.PageSize < pageSize {
		pageSize = s.fixture.PageSize
	}
	pages := max(1, (len(matched)+pageSize-1)/pageSize)
	page := 1
	if n, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		page = util.Clamp(n, 1, pages)
	}
	start := min((page-1)*pageSize, len(matched))
	end := min(start+pageSize, len(matched))

	header := c.Response().Header()
	header.Set("X-Page", strconv.Itoa(page))
	header.Set("X-Pages", strconv.Itoa(pages))
	header.Set("X-Records", strconv.Itoa(len(matched)))
	return c.JSON(http.StatusOK, map[string]any{"STATUS": "OK", "time-entries": matched[start:end]})
}

func (s *Server) createInvoice(c echo.Context) error {
	projectID := tw.ID(c.Param("id"))

	var payload struct {
		Invoice tw.InvoiceShell `json:"invoice"`
	}
	decodeErr := json.NewDecoder(c.Request().Body).Decode(&payload)
	if decodeErr != nil {
		return apiError(c, http.StatusBadRequest, "invalid invoice payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fixture.billingDisabled(projectID) {
		return apiError(c, http.StatusForbidden, "billing is not enabled for this project")
	}
	if strings.TrimSpace(payload.Invoice.Number) == "" {
		return apiError(c, http.StatusUnprocessableEntity, "invoice number is required")
	}

	invoice := &CreatedInvoice{ID: s.newInvoiceID(), ProjectID: projectID, Shell: payload.Invoice}
	s.invoices = append(s.invoices, invoice)
	s.invoicesByID[invoice.ID] = invoice
	return c.JSON(http.StatusCreated, map[string]any{"STATUS": "OK", "id": invoice.ID})
}

/*
addLineItems attaches expenses or time logs and marks them invoiced in the fixture,
so later listings see them as billed.
*/
func (s *Server) addLineItems(c echo.Context) error {
	var payload struct {
		LineItems struct {
			Add map[tw.LineItemKind]string `json:"add"`
		} `json:"lineitems"`
	}
	decodeErr := json.NewDecoder(c.Request().Body).Decode(&payload)
	if decodeErr != nil {
		return apiError(c, http.StatusBadRequest, "invalid lineitems payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	invoice, found := s.invoicesByID[tw.ID(c.Param("id"))]
	if !found {
		return apiError(c, http.StatusNotFound, "invoice not found")
	}

	for kind, joined := range payload.LineItems.Add {
		ids := splitIDs(joined)
		switch kind {
		case tw.LineItemsExpenses:
			invoice.Expenses = append(invoice.Expenses, ids...)
			s.markExpenses(invoice, ids)
		case tw.LineItemsTimelogs:
			invoice.Timelogs = append(invoice.Timelogs, ids...)
			s.markTimelogs(invoice, ids)
		default:
			return c.JSON(http.StatusOK, map[string]string{"STATUS": "Error", "MESSAGE": "unknown line item kind " + string(kind)})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"STATUS": "OK"})
}

func (s *Server) markExpenses(invoice *CreatedInvoice, ids []tw.ID) {
	expenses := s.fixture.Expenses[invoice.ProjectID]
	for i := range expenses {
		if containsID(ids, expenses[i].ID) {
			expenses[i].InvoiceID = invoice.ID
		}
	}
}

func (s *Server) markTimelogs(invoice *CreatedInvoice, ids []tw.ID) {
	entries := s.fixture.TimeEntries[invoice.ProjectID]
	for i := range entries {
		if containsID(ids, entries[i].ID) {
			entries[i].InvoiceNo = invoice.Shell.Number
			entries[i].InvoiceStatus = "draft"
		}
	}
}

func splitIDs(joined string) (ids []tw.ID) {
	for _, part := range strings.Split(joined, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			ids = append(ids, tw.ID(part))
		}
	}
	return ids
}

func containsID(ids []tw.ID, id tw.ID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
