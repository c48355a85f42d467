package teamwork

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

/*
ID is a Teamwork identifier.

The v1 API sends ids (and a few flags such as isbillable) either as strings or as numbers,
so both are accepted and kept in their string form.
*/
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		err := json.Unmarshal(b, &s)
		*id = ID(strings.TrimSpace(s))
		return err
	}
	var n json.Number
	err := json.Unmarshal(b, &n)
	if err != nil {
		return fmt.Errorf("id %s is neither string nor number: %w", b, err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Count is an integer that may arrive quoted ("90") or bare.
type Count int

func (c *Count) UnmarshalJSON(b []byte) error {
	var id ID
	err := id.UnmarshalJSON(b)
	if err != nil {
		return err
	}
	if id == "" {
		*c = 0
		return nil
	}
	n, convErr := strconv.Atoi(string(id))
	if convErr != nil {
		return fmt.Errorf("count %s: %w", b, convErr)
	}
	*c = Count(n)
	return nil
}

// Amount is a decimal that also accepts an empty string as zero.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount { return Amount{Decimal: d} }

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == `""` || s == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	return a.Decimal.UnmarshalJSON(b)
}

type Project struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

type Person struct {
	ID        ID     `json:"id"`
	FirstName string `json:"first-name"`
	LastName  string `json:"last-name"`
	Email     string `json:"email-address,omitempty"`
}

// FullName is how people are matched against expense names and how time invoices are numbered.
func (p Person) FullName() string {
	return p.FirstName + " " + p.LastName
}

/*
Expense is a fixed expense of a project.

Name holds the full name of the person the expense belongs to; that is the only link
between an expense and a person.
*/
type Expense struct {
	ID                    ID     `json:"id"`
	ProjectID             ID     `json:"project-id,omitempty"`
	Name                  string `json:"name"`
	Date                  string `json:"date"`
	Description           string `json:"description"`
	CreatedByUserLastname string `json:"created-by-user-lastname"`
	Cost                  Amount `json:"cost"`
	InvoiceID             ID     `json:"invoice-id"`
}

// Day parses the YYYYMMDD date of the expense.
func (x Expense) Day() (time.Time, error) {
	return time.ParseInLocation("20060102", strings.TrimSpace(x.Date), time.UTC)
}

type TimeEntry struct {
	ID                  ID     `json:"id"`
	ProjectID           ID     `json:"project-id"`
	PersonID            ID     `json:"person-id"`
	PersonFirstName     string `json:"person-first-name"`
	PersonLastName      string `json:"person-last-name"`
	Date                string `json:"date"`
	DateUserPerspective string `json:"dateUserPerspective,omitempty"`
	Hours               Count  `json:"hours"`
	Minutes             Count  `json:"minutes"`
	HoursDecimal        Amount `json:"hoursDecimal"`
	Description         string `json:"description"`
	TodoItemName        string `json:"todo-item-name"`
	InvoiceNo           string `json:"invoiceNo"`
	InvoiceStatus       string `json:"invoiceStatus"`
	IsBillable          ID     `json:"isbillable"`
}

func (t TimeEntry) PersonName() string {
	return t.PersonFirstName + " " + t.PersonLastName
}

// TotalMinutes is 60*hours + minutes.
func (t TimeEntry) TotalMinutes() int64 {
	return 60*int64(t.Hours) + int64(t.Minutes)
}

// Uninvoiced reports whether the entry is billable and not yet attached to any invoice.
func (t TimeEntry) Uninvoiced() bool {
	return t.InvoiceNo == "" && t.InvoiceStatus == "" && t.IsBillable == "1"
}

/*
Day is the calendar day of the entry.

dateUserPerspective is preferred, date is the fallback. Both may be
"2006-01-02T15:04:05Z" or "20060102".
*/
func (t TimeEntry) Day() (time.Time, error) {
	raw := t.DateUserPerspective
	if raw == "" {
		raw = t.Date
	}
	return parseDay(raw)
}

// Timestamp parses the full date of the entry, used on PDF invoices.
func (t TimeEntry) Timestamp() (time.Time, error) {
	ts, err := time.Parse("2006-01-02T15:04:05Z", t.Date)
	if err == nil {
		return ts, nil
	}
	return parseDay(t.Date)
}

func parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 10 && raw[4] == '-' {
		return time.ParseInLocation("2006-01-02", raw[:10], time.UTC)
	}
	if len(raw) >= 8 {
		return time.ParseInLocation("20060102", raw[:8], time.UTC)
	}
	return time.Time{}, fmt.Errorf("unrecognised date '%s'", raw)
}

// Rates maps person id to hourly rate for one project.
type Rates map[ID]decimal.Decimal

/*
InvoiceShell is the header of a new invoice; line items are attached afterwards.
*/
type InvoiceShell struct {
	Number       string `json:"number"`
	CurrencyCode string `json:"currency-code"`
	DisplayDate  string `json:"display-date"`
	FixedCost    string `json:"fixed-cost"`
	Description  string `json:"description"`
	PONumber     string `json:"po-number"`
}

// InvoiceResult is what invoice creation returned. HTTPStatus is 0 when no response arrived.
type InvoiceResult struct {
	HTTPStatus int    `json:"-"`
	Status     string `json:"STATUS"`
	ID         ID     `json:"id"`
}

// LineItemKind selects what gets attached to an invoice.
type LineItemKind string

const (
	LineItemsExpenses LineItemKind = "expenses"
	LineItemsTimelogs LineItemKind = "timelogs"
)

const StatusOK = "OK"
