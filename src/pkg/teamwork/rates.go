package teamwork

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/tuumbleweed/xerr"
)

type rateEntry struct {
	Rate Amount `json:"rate"`
}

type rateTable struct {
	Users json.RawMessage `json:"users"`
}

type ratesBody struct {
	Rates *rateTable `json:"rates"`
}

/*
ListRates returns the hourly rate of every person with a rate on the project.

Only STATUS has to be OK. A missing rates object, a missing users map and
an empty users list all mean nobody on the project has a rate.
*/
func (c *Client) ListRates(ctx context.Context, projectID ID) (rates Rates, e *xerr.Error) {
	resp, e := c.do(ctx, "GET", "/projects/"+url.PathEscape(string(projectID))+"/rates.json", nil, nil)
	if e != nil {
		return nil, e
	}
	e = c.decodeKey(resp, "", true, nil)
	if e != nil {
		return nil, e
	}
	var body ratesBody
	decodeErr := json.Unmarshal(resp.Body, &body)
	if decodeErr != nil {
		c.log.Error("Unable to decode rates of project %s: %s", projectID, decodeErr)
		return nil, xerr.NewError(decodeErr, "Failed to decode rates", resp.URL)
	}

	rates = Rates{}
	if body.Rates == nil || len(body.Rates.Users) == 0 || body.Rates.Users[0] != '{' {
		return rates, nil
	}
	var users map[ID]rateEntry
	decodeErr = json.Unmarshal(body.Rates.Users, &users)
	if decodeErr != nil {
		c.log.Error("Unable to decode rates of project %s: %s", projectID, decodeErr)
		return nil, xerr.NewError(decodeErr, "Failed to decode rates.users", resp.URL)
	}
	for personID, entry := range users {
		rates[personID] = entry.Rate.Decimal
	}
	return rates, nil
}

// Rate returns the rate of a person, reporting whether one was recorded.
func (r Rates) Rate(personID ID) (decimal.Decimal, bool) {
	rate, found := r[personID]
	return rate, found
}
