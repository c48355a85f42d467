package sandbox

import (
	"encoding/json"
	"os"

	"github.com/tuumbleweed/xerr"

	tw "teamwork-invoicer/src/pkg/teamwork"
)

/*
Fixture is the state of the fake site.

Per-project collections are keyed by project id. Rates are person id to hourly rate.
Projects listed in DisabledBilling reject invoice creation with 403, the way
Teamwork answers for projects without billing.
*/
type Fixture struct {
	Projects        []tw.Project               `json:"projects"`
	People          map[tw.ID][]tw.Person      `json:"people"`
	Expenses        map[tw.ID][]tw.Expense     `json:"expenses"`
	Rates           map[tw.ID]map[tw.ID]string `json:"rates"`
	TimeEntries     map[tw.ID][]tw.TimeEntry   `json:"time_entries"`
	DisabledBilling []tw.ID                    `json:"disabled_billing,omitempty"`
	PageSize        int                        `json:"page_size,omitempty"`
}

func LoadFixture(path string) (fixture Fixture, e *xerr.Error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return fixture, xerr.NewError(readErr, "read fixture", path)
	}
	unmarshalErr := json.Unmarshal(data, &fixture)
	if unmarshalErr != nil {
		return fixture, xerr.NewError(unmarshalErr, "unmarshal fixture", path)
	}
	return fixture, nil
}

func (f Fixture) billingDisabled(projectID tw.ID) bool {
	for _, id := range f.DisabledBilling {
		if id == projectID {
			return true
		}
	}
	return false
}
