package teamwork

import (
	"context"
	"net/url"

	"github.com/tuumbleweed/xerr"
)

// ListProjects returns every active project of the site.
func (c *Client) ListProjects(ctx context.Context) (projects []Project, e *xerr.Error) {
	resp, e := c.do(ctx, "GET", "/projects.json", url.Values{"status": {"ACTIVE"}}, nil)
	if e != nil {
		return nil, e
	}
	e = c.decodeKey(resp, "projects", false, &projects)
	return projects, e
}

// ListPeople returns the people assigned to a project.
func (c *Client) ListPeople(ctx context.Context, projectID ID) (people []Person, e *xerr.Error) {
	resp, e := c.do(ctx, "GET", "/projects/"+url.PathEscape(string(projectID))+"/people.json", nil, nil)
	if e != nil {
		return nil, e
	}
	e = c.decodeKey(resp, "people", false, &people)
	return people, e
}

// ListExpenses returns every fixed expense of a project; filtering is up to the caller.
func (c *Client) ListExpenses(ctx context.Context, projectID ID) (expenses []Expense, e *xerr.Error) {
	resp, e := c.do(ctx, "GET", "/projects/"+url.PathEscape(string(projectID))+"/expenses.json", nil, nil)
	if e != nil {
		return nil, e
	}
	e = c.decodeKey(resp, "expenses", false, &expenses)
	return expenses, e
}
