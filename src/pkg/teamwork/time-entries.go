package teamwork

import (
	"context"
	"net/url"
	"time"

	"github.com/tuumbleweed/xerr"
)

/*
ListTimeEntries returns the billable, not yet invoiced time entries of a project
between from and to inclusive, following every page.
*/
func (c *Client) ListTimeEntries(ctx context.Context, projectID ID, from, to time.Time) (entries []TimeEntry, e *xerr.Error) {
	query := url.Values{
		"billableType": {"billable"},
		"invoicedType": {"noninvoiced"},
		"fromdate":     {from.Format("20060102")},
		"todate":       {to.Format("20060102")},
	}
	return getPaged[TimeEntry](ctx, c, "/projects/"+url.PathEscape(string(projectID))+"/time_entries.json", query, "time-entries")
}
