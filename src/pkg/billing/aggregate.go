package billing

import (
	"github.com/shopspring/decimal"

	tw "teamwork-invoicer/src/pkg/teamwork"
)

/*
Directory holds the people seen across all processed projects in first-seen order.

The first occurrence wins in both directions: a repeated id keeps its first name and a
repeated name keeps its first id.
*/
type Directory struct {
	order []tw.ID
	names map[tw.ID]string
	ids   map[string]tw.ID
}

func NewDirectory() *Directory {
	return &Directory{names: map[tw.ID]string{}, ids: map[string]tw.ID{}}
}

func (d *Directory) Add(person tw.Person) {
	name := person.FullName()
	if _, found := d.names[person.ID]; !found {
		d.names[person.ID] = name
		d.order = append(d.order, person.ID)
	}
	if _, found := d.ids[name]; !found {
		d.ids[name] = person.ID
	}
}

func (d *Directory) Name(id tw.ID) (string, bool) {
	name, found := d.names[id]
	return name, found
}

func (d *Directory) ID(name string) (tw.ID, bool) {
	id, found := d.ids[name]
	return id, found
}

// IDs returns person ids in first-seen order.
func (d *Directory) IDs() []tw.ID {
	return append([]tw.ID(nil), d.order...)
}

func (d *Directory) Len() int { return len(d.order) }

type ProjectRate struct {
	ProjectID tw.ID
	Rate      decimal.Decimal
}

/*
Totals accumulates report figures across projects.

Minutes and Cost are keyed by person id, Expenses by person name (expenses only carry a name).
*/
type Totals struct {
	Minutes  map[tw.ID]int64
	Cost     map[tw.ID]decimal.Decimal
	Expenses map[string]decimal.Decimal
	rates    map[tw.ID][]ProjectRate
}

func NewTotals() *Totals {
	return &Totals{
		Minutes:  map[tw.ID]int64{},
		Cost:     map[tw.ID]decimal.Decimal{},
		Expenses: map[string]decimal.Decimal{},
		rates:    map[tw.ID][]ProjectRate{},
	}
}

func (t *Totals) AddTime(personID tw.ID, minutes int64, cost decimal.Decimal) {
	t.Minutes[personID] += minutes
	t.Cost[personID] = t.Cost[personID].Add(cost)
}

func (t *Totals) AddExpense(personName string, cost decimal.Decimal) {
	t.Expenses[personName] = t.Expenses[personName].Add(cost.Round(2))
}

// SetRate records the rate of a person on a project; a project recorded twice keeps its slot.
func (t *Totals) SetRate(personID, projectID tw.ID, rate decimal.Decimal) {
	for i, existing := range t.rates[personID] {
		if existing.ProjectID == projectID {
			t.rates[personID][i].Rate = rate
			return
		}
	}
	t.rates[personID] = append(t.rates[personID], ProjectRate{ProjectID: projectID, Rate: rate})
}

// Rates returns the rates of a person in project processing order.
func (t *Totals) Rates(personID tw.ID) []ProjectRate {
	return append([]ProjectRate(nil), t.rates[personID]...)
}

/*
EntryCost is round(minutes * rate / 60, 2).
*/
func EntryCost(minutes int64, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(minutes).Mul(rate).Div(decimal.NewFromInt(60)).Round(2)
}

/*
group keeps ids per key in first-seen order of the keys.
*/
type group[T any] struct {
	keys  []tw.ID
	items map[tw.ID][]T
}

func newGroup[T any]() *group[T] {
	return &group[T]{items: map[tw.ID][]T{}}
}

func (g *group[T]) add(key tw.ID, item T) {
	if _, found := g.items[key]; !found {
		g.keys = append(g.keys, key)
	}
	g.items[key] = append(g.items[key], item)
}
